// Package output provides formatting and output generation for timing reports.
package output

import (
	"errors"
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/analytic"
	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
	"github.com/nwpc-oper/workflow-log-collector/pkg/locator"
	"github.com/nwpc-oper/workflow-log-collector/pkg/stats"
)

// Report is the complete output of one node run.
type Report struct {
	Query       Query                 `json:"query"`
	Window      Window                `json:"window"`
	Samples     []analytic.Sample     `json:"samples"`
	Diagnostics []analytic.Diagnostic `json:"diagnostics"`
	Summary     Summary               `json:"summary"`
	Metadata    Metadata              `json:"metadata"`
}

// Query echoes what was measured.
type Query struct {
	LogFile  string            `json:"log_file"`
	NodePath string            `json:"node_path"`
	Status   ecflow.NodeStatus `json:"status"`

	// Begin and End are calendar dates, empty when omitted.
	Begin string `json:"begin,omitempty"`
	End   string `json:"end,omitempty"`
}

// Window is the located line window; zero means the range was not found.
type Window struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// Days is the number of calendar days classified.
	Days int `json:"days"`

	Incomplete    int `json:"incomplete"`
	Anomalous     int `json:"anomalous"`
	MissingTarget int `json:"missing_target"`

	// Stats is nil when no day produced a sample.
	Stats *stats.Summary `json:"stats,omitempty"`

	// NoData is set when the series was empty.
	NoData bool `json:"no_data"`

	// TrimUnavailable is set when trimming would discard every sample.
	TrimUnavailable bool `json:"trim_unavailable,omitempty"`
}

// Metadata provides context about the run.
type Metadata struct {
	ConfigFile       string        `json:"config_file,omitempty"`
	AnalyzedAt       time.Time     `json:"analyzed_at"`
	Duration         time.Duration `json:"duration"`
	RecordsExtracted int           `json:"records_extracted"`
	StatusEvents     int           `json:"status_events"`
}

// NewReport creates a Report from a pipeline result.
func NewReport(result *analytic.Result, configFile string) *Report {
	report := &Report{
		Query: Query{
			LogFile:  result.Query.LogFile,
			NodePath: result.Query.NodePath,
			Status:   result.Query.Status,
			Begin:    dateString(result.Query.Range.Start),
			End:      dateString(result.Query.Range.Stop),
		},
		Window:      Window{Begin: result.Window.Begin, End: result.Window.End},
		Samples:     result.Samples,
		Diagnostics: result.Diagnostics,
		Summary: Summary{
			Days:            len(result.Situations),
			Incomplete:      result.Count(analytic.DiagnosticIncomplete),
			Anomalous:       result.Count(analytic.DiagnosticAnomalous),
			MissingTarget:   result.Count(analytic.DiagnosticMissingTarget),
			Stats:           result.Summary,
			NoData:          errors.Is(result.StatsErr, stats.ErrEmptySeries),
			TrimUnavailable: errors.Is(result.StatsErr, stats.ErrInsufficientSamples),
		},
		Metadata: Metadata{
			ConfigFile:       configFile,
			AnalyzedAt:       result.Metadata.EndTime,
			Duration:         result.Metadata.EndTime.Sub(result.Metadata.StartTime),
			RecordsExtracted: result.Metadata.RecordsExtracted,
			StatusEvents:     result.Metadata.StatusEvents,
		},
	}

	if report.Samples == nil {
		report.Samples = []analytic.Sample{}
	}
	if report.Diagnostics == nil {
		report.Diagnostics = []analytic.Diagnostic{}
	}

	return report
}

// HasIssues returns true if any day was incomplete or anomalous.
func (r *Report) HasIssues() bool {
	return r.Summary.Incomplete > 0 || r.Summary.Anomalous > 0
}

// LocatorWindow converts the report window back to a locator window.
func (w Window) LocatorWindow() locator.Window {
	return locator.Window{Begin: w.Begin, End: w.End}
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
