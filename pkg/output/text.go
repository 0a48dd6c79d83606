package output

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/analytic"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	s := report.Summary
	if s.Stats == nil {
		_, err := fmt.Fprintf(w, "%s %s: no data, %d days, %d incomplete, %d anomalous\n",
			report.Query.NodePath, report.Query.Status, s.Days, s.Incomplete, s.Anomalous)
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s: %d samples, mean %s, %d days, %d incomplete, %d anomalous\n",
		report.Query.NodePath, report.Query.Status, s.Stats.Count, Clock(s.Stats.Mean),
		s.Days, s.Incomplete, s.Anomalous)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	for _, d := range report.Diagnostics {
		f.formatDiagnostic(&d, w)
	}
	if len(report.Diagnostics) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Time series for %s with %s:\n", report.Query.NodePath, report.Query.Status)
	for _, sample := range report.Samples {
		fmt.Fprintf(w, "%s %s\n", sample.Date.Format(time.DateOnly), Clock(sample.Elapsed))
	}
	fmt.Fprintln(w)

	s := report.Summary
	if s.Stats == nil {
		fmt.Fprintln(w, "no data")
	} else {
		fraction := strconv.FormatFloat(s.Stats.TrimFraction, 'f', 2, 64)
		fmt.Fprintf(w, "Mean: %s\n", Clock(s.Stats.Mean))
		if s.TrimUnavailable {
			fmt.Fprintf(w, "Trim Mean (%s): insufficient samples\n", fraction)
		} else {
			fmt.Fprintf(w, "Trim Mean (%s): %s\n", fraction, Clock(s.Stats.TrimmedMean))
		}
		fmt.Fprintf(w, "Samples: %d  Min: %s  Max: %s\n", s.Stats.Count, Clock(s.Stats.Min), Clock(s.Stats.Max))
		for _, p := range s.Stats.Percentiles {
			fmt.Fprintf(w, "P%s: %s\n", percentLabel(p.Quantile), Clock(p.Value))
		}
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d days, %d incomplete, %d anomalous, %d without %s\n",
		s.Days, s.Incomplete, s.Anomalous, s.MissingTarget, report.Query.Status)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Window: %s\n", report.Window.LocatorWindow())
		fmt.Fprintf(w, "Records: %d (%d status events)\n", report.Metadata.RecordsExtracted, report.Metadata.StatusEvents)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(time.Millisecond))
	}

	return nil
}

func (f *TextFormatter) formatDiagnostic(d *analytic.Diagnostic, w io.Writer) {
	fmt.Fprintf(w, "[%s] %s: %s\n", d.Kind, d.Date.Format(time.DateOnly), d.Description)
	for _, ev := range d.Events {
		fmt.Fprintf(w, "    %s\n", ev)
	}
}

// percentLabel renders 0.9 as "90" and 0.995 as "99.5".
func percentLabel(q float64) string {
	return strconv.FormatFloat(math.Round(q*10000)/100, 'f', -1, 64)
}

// Clock renders an elapsed time since midnight as HH:MM:SS.
// Durations of a day or more keep counting hours.
func Clock(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}
