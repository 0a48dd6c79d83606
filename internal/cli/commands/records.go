package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nwpc-oper/workflow-log-collector/pkg/analytic"
	"github.com/nwpc-oper/workflow-log-collector/pkg/config"
	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
	"github.com/nwpc-oper/workflow-log-collector/pkg/progress"
)

// RecordsOptions holds command-line options for the records command.
type RecordsOptions struct {
	LogFile   string
	NodePath  string
	BeginDate string
	EndDate   string
	BatchSize int
	Output    string
}

// recordView is the printable form of a parsed record.
type recordView struct {
	Line      int               `json:"line"`
	Kind      ecflow.RecordKind `json:"kind"`
	Timestamp time.Time         `json:"timestamp"`
	NodePath  string            `json:"node_path,omitempty"`
	Status    ecflow.NodeStatus `json:"status,omitempty"`
	Command   string            `json:"command,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// NewRecordsCommand creates the records command.
func NewRecordsCommand(g *GlobalOptions) *cobra.Command {
	opts := &RecordsOptions{}

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Print the parsed records of a node in a date range",
		Long: `Print every parsed log record that mentions the node path inside the
date range, in file order. Lines mentioning sub-nodes are included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.LogFile, "log-file", "l", "", "ecFlow log file (required)")
	cmd.Flags().StringVarP(&opts.NodePath, "node-path", "n", "", "Node path, e.g. /suite/family/task (required)")
	cmd.Flags().StringVar(&opts.BeginDate, "begin-date", "", "First day of the range, YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&opts.EndDate, "end-date", "", "Day after the range, YYYY-MM-DD (exclusive)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", config.DefaultBatchSize, "Lines read per batch")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	_ = cmd.MarkFlagRequired("log-file")
	_ = cmd.MarkFlagRequired("node-path")

	return cmd
}

func runRecords(cmd *cobra.Command, g *GlobalOptions, opts *RecordsOptions) error {
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
	_, records, err := a.Records(s.ctx, analytic.Query{
		LogFile:  opts.LogFile,
		NodePath: opts.NodePath,
		Range:    rng,
	})
	if err != nil {
		return err
	}

	views := make([]recordView, len(records))
	for i, r := range records {
		views[i] = newRecordView(r)
	}

	if opts.Output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(views)
	}
	return printRecords(cmd.OutOrStdout(), views)
}

func newRecordView(r ecflow.Record) recordView {
	h := r.Header()
	v := recordView{
		Line:      h.LineNum,
		Kind:      r.Kind(),
		Timestamp: h.Timestamp,
		NodePath:  h.NodePath,
	}
	switch rec := r.(type) {
	case *ecflow.StatusRecord:
		v.Status = rec.Status
	case *ecflow.ChildRecord:
		v.Command = rec.Command
	case *ecflow.OtherRecord:
		v.Message = rec.Message
	}
	return v
}

func printRecords(w io.Writer, views []recordView) error {
	for _, v := range views {
		detail, node := string(v.Status), v.NodePath
		switch v.Kind {
		case ecflow.KindChild:
			detail = "chd:" + v.Command
		case ecflow.KindOther:
			// The message already names the node.
			detail, node = v.Message, ""
		}
		if _, err := fmt.Fprintf(w, "%8d  %s  %-6s  %-10s %s\n",
			v.Line, v.Timestamp.Format(time.DateTime), v.Kind, detail, node); err != nil {
			return err
		}
	}
	return nil
}
