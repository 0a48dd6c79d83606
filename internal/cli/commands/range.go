package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nwpc-oper/workflow-log-collector/pkg/analytic"
	"github.com/nwpc-oper/workflow-log-collector/pkg/config"
	"github.com/nwpc-oper/workflow-log-collector/pkg/output"
	"github.com/nwpc-oper/workflow-log-collector/pkg/progress"
)

// RangeOptions holds command-line options for the range command.
type RangeOptions struct {
	LogFile   string
	BeginDate string
	EndDate   string
	BatchSize int
	Output    string
}

// NewRangeCommand creates the range command.
func NewRangeCommand(g *GlobalOptions) *cobra.Command {
	opts := &RangeOptions{}

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Print the line window covering a date range",
		Long: `Print the half-open line window [begin, end) of the log lines dated
inside [begin-date, end-date). A window of (0, 0) means the range is not
present in the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRange(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.LogFile, "log-file", "l", "", "ecFlow log file (required)")
	cmd.Flags().StringVar(&opts.BeginDate, "begin-date", "", "First day of the range, YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&opts.EndDate, "end-date", "", "Day after the range, YYYY-MM-DD (exclusive)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", config.DefaultBatchSize, "Lines read per batch")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	_ = cmd.MarkFlagRequired("log-file")

	return cmd
}

func runRange(cmd *cobra.Command, g *GlobalOptions, opts *RangeOptions) error {
	rng, err := parseDateRange(opts.BeginDate, opts.EndDate)
	if err != nil {
		return err
	}
	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	s, err := open(cmd, g)
	if err != nil {
		return err
	}
	defer s.Close()

	size, err := batchSize(cmd, opts.BatchSize, s.cfg)
	if err != nil {
		return err
	}

	a := analytic.NewAnalyzer(
		analytic.WithBatchSize(size),
		analytic.WithReporter(progress.NewLogReporter(s.logger, progress.DefaultInterval)),
		analytic.WithLogger(s.logger),
	)
	window, err := a.Locate(s.ctx, analytic.Query{LogFile: opts.LogFile, Range: rng})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.Output == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output.Window{Begin: window.Begin, End: window.End})
	}

	if window.Empty() {
		_, err = fmt.Fprintf(w, "%s: not found (0, 0)\n", rng)
		return err
	}
	_, err = fmt.Fprintf(w, "%s: lines %s, %d lines\n", rng, window, window.Len())
	return err
}
