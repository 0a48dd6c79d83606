package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nwpc-oper/workflow-log-collector/pkg/analytic"
	"github.com/nwpc-oper/workflow-log-collector/pkg/config"
	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
	"github.com/nwpc-oper/workflow-log-collector/pkg/metrics"
	"github.com/nwpc-oper/workflow-log-collector/pkg/output"
	"github.com/nwpc-oper/workflow-log-collector/pkg/progress"
	"github.com/nwpc-oper/workflow-log-collector/pkg/webhook"
)

// NodeOptions holds command-line options for the node command.
type NodeOptions struct {
	LogFile    string
	NodePath   string
	NodeStatus string
	BeginDate  string
	EndDate    string

	BatchSize    int
	TrimFraction float64
	Output       string
	Quiet        bool
	Strict       bool
	MetricsFile  string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewNodeCommand creates the node command.
func NewNodeCommand(g *GlobalOptions) *cobra.Command {
	opts := &NodeOptions{}

	cmd := &cobra.Command{
		Use:   "node",
		Short: "Measure when a node reaches a status each day",
		Long: `Measure, for every day of a date range, how long after midnight a node
first reached a status, then print the time series with its mean and
trimmed mean.

Days that never complete, or complete without the expected first status,
are reported as diagnostics and excluded from the statistics.

Exit codes:
  0 - Report printed (also when no day produced a sample)
  1 - With --strict: some day was incomplete or anomalous
  2 - Configuration or runtime error`,
		Example: `  collector node -l ecflow.log -n /nwpc/gfs/00/fcst -s submitted \
    --begin-date 2020-06-01 --end-date 2020-07-01 -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.LogFile, "log-file", "l", "", "ecFlow log file (required)")
	cmd.Flags().StringVarP(&opts.NodePath, "node-path", "n", "", "Node path, e.g. /suite/family/task (required)")
	cmd.Flags().StringVarP(&opts.NodeStatus, "node-status", "s", string(ecflow.StatusSubmitted), "Status whose time of day is measured")
	cmd.Flags().StringVar(&opts.BeginDate, "begin-date", "", "First day of the range, YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&opts.EndDate, "end-date", "", "Day after the range, YYYY-MM-DD (exclusive)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", config.DefaultBatchSize, "Lines read per batch")
	cmd.Flags().Float64Var(&opts.TrimFraction, "trim-fraction", config.DefaultTrimFraction, "Share of samples cut from each end for the trimmed mean")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit 1 when some day was incomplete or anomalous")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_issues", "When to fire webhook (on_issues|always|never)")

	_ = cmd.MarkFlagRequired("log-file")
	_ = cmd.MarkFlagRequired("node-path")

	return cmd
}

func runNode(cmd *cobra.Command, g *GlobalOptions, opts *NodeOptions) error {
	// Reject a bad status before touching any file.
	status, err := ecflow.ParseStatus(opts.NodeStatus)
	if err != nil {
		return err
	}

	rng, err := parseDateRange(opts.BeginDate, opts.EndDate)
	if err != nil {
		return err
	}

	formatter, err := createFormatter(opts, g.Verbose > 0)
	if err != nil {
		return err
	}

	s, err := open(cmd, g)
	if err != nil {
		return err
	}
	defer s.Close()

	analyzerOpts, err := nodeAnalyzerOptions(cmd, opts, s)
	if err != nil {
		return err
	}

	hooks, err := collectWebhooks(s.cfg, opts)
	if err != nil {
		return err
	}

	a := analytic.NewAnalyzer(analyzerOpts...)
	result, err := a.Run(s.ctx, analytic.Query{
		LogFile:  opts.LogFile,
		NodePath: opts.NodePath,
		Status:   status,
		Range:    rng,
	})
	if err != nil {
		return err
	}

	report := output.NewReport(result, g.ConfigFile)

	if err := formatter.Format(s.ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	metricsFile := s.cfg.MetricsFile
	if opts.MetricsFile != "" {
		metricsFile = opts.MetricsFile
	}
	if metricsFile != "" {
		run := metrics.New()
		run.Record(report)
		if err := run.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		s.logger.Debug().Str("file", metricsFile).Msg("metrics written")
	}

	// Webhook failures are logged but don't fail the run.
	webhook.NewClient(s.logger).Dispatch(s.ctx, report, hooks)

	if opts.Strict && report.HasIssues() {
		g.ExitCode = ExitIssues
	}

	return nil
}

// nodeAnalyzerOptions merges the configuration with flags that were set.
func nodeAnalyzerOptions(cmd *cobra.Command, opts *NodeOptions, s *session) ([]analytic.AnalyzerOption, error) {
	size, err := batchSize(cmd, opts.BatchSize, s.cfg)
	if err != nil {
		return nil, err
	}

	trim := s.cfg.TrimFraction
	if cmd.Flags().Changed("trim-fraction") {
		if opts.TrimFraction < 0 || opts.TrimFraction > 0.5 {
			return nil, fmt.Errorf("invalid --trim-fraction %v: must be in [0, 0.5]", opts.TrimFraction)
		}
		trim = opts.TrimFraction
	}

	return []analytic.AnalyzerOption{
		analytic.WithBatchSize(size),
		analytic.WithTrimFraction(trim),
		analytic.WithPercentiles(s.cfg.Percentiles...),
		analytic.WithTerminalStatuses(s.cfg.Terminal()...),
		analytic.WithExpectedFirst(s.cfg.ExpectedFirst()),
		analytic.WithReporter(progress.NewLogReporter(s.logger, progress.DefaultInterval)),
		analytic.WithLogger(s.logger),
	}, nil
}

func createFormatter(opts *NodeOptions, verbose bool) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: verbose,
		Quiet:   opts.Quiet,
	})
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *NodeOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		wh := config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(opts.WebhookTrigger),
		}
		if err := config.ValidateWebhook(&wh); err != nil {
			return nil, fmt.Errorf("invalid --webhook-url: %w", err)
		}
		webhooks = append(webhooks, wh)
	}

	return webhooks, nil
}
