package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaharia-lab/eventemitter/internal/scenario"
)

// renderer prints scenario results, styled when color is enabled.
type renderer struct {
	w        io.Writer
	title    lipgloss.Style
	dispatch lipgloss.Style
	handler  lipgloss.Style
	ok       lipgloss.Style
	fail     lipgloss.Style
}

func newRenderer(w io.Writer, color bool) *renderer {
	plain := lipgloss.NewStyle()
	r := &renderer{w: w, title: plain, dispatch: plain, handler: plain, ok: plain, fail: plain}
	if !color {
		return r
	}
	r.title = plain.Bold(true).Underline(true)
	r.dispatch = plain.Foreground(lipgloss.Color("8"))
	r.handler = plain.Foreground(lipgloss.Color("12")).Bold(true)
	r.ok = plain.Foreground(lipgloss.Color("10"))
	r.fail = plain.Foreground(lipgloss.Color("9")).Bold(true)
	return r
}

func (r *renderer) result(res *scenario.Result, checked bool, verifyErr error) {
	fmt.Fprintln(r.w, r.title.Render(res.Scenario))

	for _, inv := range res.Trace {
		fmt.Fprintf(r.w, "  %s %s\n",
			r.dispatch.Render(fmt.Sprintf("#%d", inv.Dispatch)),
			r.handler.Render(inv.String()),
		)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(r.w, "  %s %v\n", r.fail.Render("error"), f)
	}

	summary := fmt.Sprintf("  %d dispatches, %d invocations, %d failures",
		res.Dispatches, len(res.Trace), len(res.Failures))
	switch {
	case !checked:
		fmt.Fprintln(r.w, summary)
	case verifyErr != nil:
		fmt.Fprintf(r.w, "%s %s %v\n", summary, r.fail.Render("MISMATCH"), verifyErr)
	default:
		fmt.Fprintf(r.w, "%s %s\n", summary, r.ok.Render("OK"))
	}
	fmt.Fprintln(r.w)
}

func (r *renderer) metrics(g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "eventemitter_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "type" {
					counts[lp.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Fprintln(r.w, r.title.Render("events by type"))
	for _, t := range types {
		fmt.Fprintf(r.w, "  %-24s %v\n", t, counts[t])
	}
	return nil
}
