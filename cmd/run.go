package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/eventemitter/internal/config"
	"github.com/shaharia-lab/eventemitter/internal/eventbus"
	"github.com/shaharia-lab/eventemitter/internal/logger"
	"github.com/shaharia-lab/eventemitter/internal/metrics"
	"github.com/shaharia-lab/eventemitter/internal/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml...]",
	Short: "Run event scenarios and print the dispatch trace",
	Long: `Run one or more YAML scenarios and print every handler invocation in order.

Without arguments, every scenario in EMITTER_SCENARIO_DIR (default ./scenarios) is run.

Examples:
  eventemitter run scenarios/01-ordering.yaml
  eventemitter run --check --metrics
  eventemitter run --shared a.yaml b.yaml`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("check", false, "Fail when a trace does not match the scenario's expect list")
	runCmd.Flags().Bool("metrics", false, "Print per-type event counts after the run")
	runCmd.Flags().Bool("shared", false, "Run all scenarios on emitters sharing one handler registry")
	runCmd.Flags().String("log-level", "", "Log level (overrides EMITTER_LOG_LEVEL env var)")
	runCmd.Flags().String("log-dir", "", "Write JSON logs to this directory (overrides EMITTER_LOG_DIR env var)")
	runCmd.Flags().Bool("no-color", false, "Disable styled output (overrides EMITTER_NO_COLOR env var)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	scenarios, err := loadScenarios(cfg, args)
	if err != nil {
		return err
	}

	check, _ := cmd.Flags().GetBool("check")
	withMetrics, _ := cmd.Flags().GetBool("metrics")
	shared, _ := cmd.Flags().GetBool("shared")

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}

	registry := eventbus.Registry[scenario.Payload]{}
	newRunner := func() *scenario.Runner {
		opts := []scenario.Option{scenario.WithLogger(log)}
		if shared {
			opts = append(opts, scenario.WithEmitter(eventbus.New(registry)))
		}
		opts = append(opts, scenario.WithTaps(
			logger.EventTap[scenario.Payload](log),
			metrics.Tap[scenario.Payload](collector),
		))
		return scenario.NewRunner(opts...)
	}

	out := newRenderer(cmd.OutOrStdout(), !cfg.NoColor)

	var sharedRunner *scenario.Runner
	if shared {
		sharedRunner = newRunner()
	}

	var mismatched []string
	for _, s := range scenarios {
		var res *scenario.Result
		if shared {
			// Each scenario gets its own emitter over the one registry.
			res, err = sharedRunner.RunOn(eventbus.New(registry), s)
		} else {
			res, err = newRunner().Run(s)
		}
		if err != nil {
			return fmt.Errorf("running scenario %q: %w", s.Name, err)
		}

		var verifyErr error
		if s.Expect != nil {
			verifyErr = res.Verify(s.Expect)
			if verifyErr != nil {
				mismatched = append(mismatched, s.Name)
			}
		}
		out.result(res, s.Expect != nil, verifyErr)
	}

	if withMetrics {
		if err := out.metrics(reg); err != nil {
			return err
		}
	}

	if check && len(mismatched) > 0 {
		return fmt.Errorf("%d scenario(s) did not match their expected trace: %v", len(mismatched), mismatched)
	}
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.AppConfig) {
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-dir") {
		cfg.LogDir, _ = cmd.Flags().GetString("log-dir")
	}
	if cmd.Flags().Changed("no-color") {
		cfg.NoColor, _ = cmd.Flags().GetBool("no-color")
	}
}

func newLogger(cfg *config.AppConfig) (*slog.Logger, func(), error) {
	if cfg.LogDir == "" {
		return logger.NewConsoleLogger(os.Stderr, cfg.SlogLevel()), func() {}, nil
	}

	l, closer, err := logger.NewSystemLogger(cfg.LogDir, cfg.SlogLevel(), cfg.LogMaxSizeMB)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { closeQuietly(closer) }, nil
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
	}
}

func loadScenarios(cfg *config.AppConfig, args []string) ([]*scenario.Scenario, error) {
	if len(args) == 0 {
		scenarios, err := scenario.LoadDir(cfg.ScenarioDir)
		if err != nil {
			return nil, err
		}
		if len(scenarios) == 0 {
			return nil, fmt.Errorf("no scenarios found in %q", cfg.ScenarioDir)
		}
		return scenarios, nil
	}

	scenarios := make([]*scenario.Scenario, 0, len(args))
	for _, path := range args {
		s, err := scenario.Load(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
