package scenario

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shaharia-lab/eventemitter/internal/eventbus"
)

const defaultMaxDepth = 16

// Invocation is one recorded handler call.
type Invocation struct {
	Dispatch   int
	DispatchID string
	Handler    string
	Type       eventbus.EventType
	Payload    Payload
}

// String renders the invocation as "<handler> <type> k=v ..." with sorted keys.
func (i Invocation) String() string {
	var b strings.Builder
	b.WriteString(i.Handler)
	b.WriteByte(' ')
	b.WriteString(string(i.Type))

	keys := make([]string, 0, len(i.Payload))
	for k := range i.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, i.Payload[k])
	}
	return b.String()
}

// Result is the outcome of running one scenario.
type Result struct {
	Scenario   string
	Dispatches int
	Trace      []Invocation
	Failures   []*StepError
}

// Lines renders the trace, one invocation per line.
func (r *Result) Lines() []string {
	lines := make([]string, len(r.Trace))
	for i, inv := range r.Trace {
		lines[i] = inv.String()
	}
	return lines
}

// Verify compares the rendered trace with expect and reports the first mismatch.
func (r *Result) Verify(expect []string) error {
	got := r.Lines()
	for i := 0; i < len(got) || i < len(expect); i++ {
		switch {
		case i >= len(got):
			return fmt.Errorf("trace[%d]: missing, want %q", i, expect[i])
		case i >= len(expect):
			return fmt.Errorf("trace[%d]: unexpected %q", i, got[i])
		case got[i] != expect[i]:
			return fmt.Errorf("trace[%d]: got %q, want %q", i, got[i], expect[i])
		}
	}
	return nil
}

// Runner executes scenarios and records the handler calls they trigger.
type Runner struct {
	emitter  *eventbus.Emitter[Payload]
	logger   *slog.Logger
	maxDepth int
	taps     []*eventbus.Handler[Payload]

	// active is the run in progress. Handlers left registered by earlier
	// runs on a shared registry record into it; nothing is recorded while
	// no run is active.
	active *run
}

// Option configures a Runner.
type Option func(*Runner)

// WithEmitter runs scenarios on e instead of a fresh emitter.
func WithEmitter(e *eventbus.Emitter[Payload]) Option {
	return func(r *Runner) { r.emitter = e }
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMaxDepth limits how deeply handler actions may nest emits.
func WithMaxDepth(n int) Option {
	return func(r *Runner) { r.maxDepth = n }
}

// WithTaps registers handlers under eventbus.Wildcard on the runner's emitter.
// Taps removed by a scenario are registered again when the next run starts.
func WithTaps(taps ...*eventbus.Handler[Payload]) Option {
	return func(r *Runner) { r.taps = append(r.taps, taps...) }
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	if r.emitter == nil {
		r.emitter = eventbus.New[Payload](nil)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r.ensureTaps(r.emitter)
	return r
}

// ensureTaps registers any tap missing from the Wildcard handlers of e,
// e.g. after a scenario cleared "*".
func (r *Runner) ensureTaps(e *eventbus.Emitter[Payload]) {
	for _, h := range r.taps {
		if !slices.Contains(e.All[eventbus.Wildcard], h) {
			e.On(eventbus.Wildcard, h)
		}
	}
}

// Emitter returns the emitter Run dispatches on.
func (r *Runner) Emitter() *eventbus.Emitter[Payload] {
	return r.emitter
}

// run holds the state of a single Run call.
type run struct {
	*Runner
	emitter  *eventbus.Emitter[Payload]
	scenario *Scenario
	handlers map[string]*eventbus.Handler[Payload]
	result   *Result
	current  int
	currID   string
	currType eventbus.EventType
	depth    int
}

// Run executes the steps of s on the runner's emitter.
func (r *Runner) Run(s *Scenario) (*Result, error) {
	return r.RunOn(r.emitter, s)
}

// RunOn executes the steps of s in order on e. Handler errors are recorded in
// Result.Failures and do not stop the run.
func (r *Runner) RunOn(e *eventbus.Emitter[Payload], s *Scenario) (*Result, error) {
	st := &run{
		Runner:   r,
		emitter:  e,
		scenario: s,
		handlers: make(map[string]*eventbus.Handler[Payload], len(s.Handlers)),
		result:   &Result{Scenario: s.Name},
	}
	for name, spec := range s.Handlers {
		st.handlers[name] = st.newHandler(name, spec)
	}

	r.ensureTaps(e)

	prev := r.active
	r.active = st
	defer func() { r.active = prev }()

	log := r.logger.With("scenario", s.Name)
	log.Info("scenario started", "steps", len(s.Steps))

	for i, step := range s.Steps {
		err := st.apply(step)
		if err == nil {
			continue
		}
		var unknown *unknownHandlerError
		if errors.As(err, &unknown) {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		stepErr := &StepError{Index: i, Op: step.Op(), Type: step.EventType(), Err: err}
		st.result.Failures = append(st.result.Failures, stepErr)
		log.Warn("emit failed", "step", i, "type", string(step.EventType()), "error", err)
	}

	log.Info("scenario finished",
		"dispatches", st.result.Dispatches,
		"invocations", len(st.result.Trace),
		"failures", len(st.result.Failures),
	)
	return st.result, nil
}

type unknownHandlerError struct {
	name string
}

func (e *unknownHandlerError) Error() string {
	return fmt.Sprintf("unknown handler %q", e.name)
}

func (st *run) lookup(name string) (*eventbus.Handler[Payload], error) {
	h, ok := st.handlers[name]
	if !ok {
		return nil, &unknownHandlerError{name: name}
	}
	return h, nil
}

func (st *run) apply(step Step) error {
	return st.applyIn(step, st)
}

// applyIn performs step on st, resolving handler names declared by scope.
func (st *run) applyIn(step Step, scope *run) error {
	switch {
	case step.On != nil:
		h, err := scope.lookup(step.On.Handler)
		if err != nil {
			return err
		}
		st.emitter.On(step.On.Type, h)

	case step.Off != nil:
		if step.Off.Handler == "" {
			st.emitter.Off(step.Off.Type, nil)
			return nil
		}
		h, err := scope.lookup(step.Off.Handler)
		if err != nil {
			return err
		}
		st.emitter.Off(step.Off.Type, h)

	case step.Emit != nil:
		return st.emit(step.Emit)
	}
	return nil
}

func (st *run) emit(em *Emission) error {
	if st.depth >= st.maxDepth {
		return ErrDepthExceeded
	}

	prev, prevID, prevType := st.current, st.currID, st.currType
	st.result.Dispatches++
	st.current = st.result.Dispatches
	st.currID = uuid.NewString()
	st.currType = em.Type
	st.depth++
	defer func() {
		st.current, st.currID, st.currType = prev, prevID, prevType
		st.depth--
	}()

	st.logger.Debug("emit",
		"scenario", st.scenario.Name,
		"dispatch_id", st.currID,
		"type", string(em.Type),
	)
	return st.emitter.Emit(em.Type, em.Payload)
}

func (st *run) record(name string, t eventbus.EventType, p Payload) {
	st.result.Trace = append(st.result.Trace, Invocation{
		Dispatch:   st.current,
		DispatchID: st.currID,
		Handler:    name,
		Type:       t,
		Payload:    p,
	})
}

// invoke records the call into the run in progress and performs the
// handler's actions there. Calls made while no run is active are dropped.
// A zero t means the handler is payload-only and is recorded under the type
// of the emit being dispatched.
func (st *run) invoke(name string, spec HandlerSpec, t eventbus.EventType, p Payload) error {
	cur := st.active
	if cur == nil {
		return nil
	}
	if t == "" {
		t = cur.currType
	}
	cur.record(name, t, p)
	for _, action := range spec.Actions {
		if err := cur.applyIn(action, st); err != nil {
			return err
		}
	}
	if spec.Fail != "" {
		return errors.New(spec.Fail)
	}
	return nil
}

func (st *run) newHandler(name string, spec HandlerSpec) *eventbus.Handler[Payload] {
	if spec.Wildcard {
		return eventbus.WildcardFunc(func(t eventbus.EventType, p Payload) error {
			return st.invoke(name, spec, t, p)
		})
	}
	return eventbus.Func(func(p Payload) error {
		return st.invoke(name, spec, "", p)
	})
}
