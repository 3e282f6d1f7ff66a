package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/go-drift/intersect/cmd/intersect/internal/scenario"
	"github.com/go-drift/intersect/pkg/registry"
)

func simulateCmd() *cobra.Command {
	var (
		verbose     bool
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Replay a scenario",
		Long: `Replay a scenario against a simulated native primitive, printing
every step, every delivered change and the final pool size.

Flags:
  --verbose   Log observe, unobserve and pool events to stderr
  --metrics   Print the registry metrics in Prometheus text format`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			if verbose {
				logger = consoleLogger(cmd)
				defer logger.Sync() //nolint:errcheck
				registry.SetLogger(logger)
				defer registry.SetLogger(nil)
			}

			out := cmd.OutOrStdout()
			runner := &scenario.Runner{Out: out, Logger: logger}
			var promReg *prometheus.Registry
			if showMetrics {
				promReg = prometheus.NewRegistry()
				runner.Metrics = promReg
			}

			result, err := runner.Run(s)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d changes, %d errors\n", len(result.Changes), len(result.Errors))

			if promReg != nil {
				families, err := promReg.Gather()
				if err != nil {
					return fmt.Errorf("failed to gather metrics: %w", err)
				}
				for _, mf := range families {
					if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
						return fmt.Errorf("failed to write metrics: %w", err)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log lifecycle events to stderr")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print registry metrics")

	return cmd
}

// consoleLogger writes debug records to the command's error stream.
func consoleLogger(cmd *cobra.Command) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(cmd.ErrOrStderr()), zapcore.DebugLevel)
	return zap.New(core)
}
