// Package analytic runs the timing pipeline for one node: locate the date
// window, extract the node's records, classify each day and summarize the
// elapsed times.
package analytic

import (
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
	"github.com/nwpc-oper/workflow-log-collector/pkg/locator"
	"github.com/nwpc-oper/workflow-log-collector/pkg/situation"
	"github.com/nwpc-oper/workflow-log-collector/pkg/stats"
)

// Query selects what to measure.
type Query struct {
	LogFile  string
	NodePath string

	// Status is the time point measured on each completed day.
	Status ecflow.NodeStatus

	Range locator.DateRange
}

// DiagnosticKind categorizes a day excluded from the sample set.
type DiagnosticKind string

const (
	// DiagnosticIncomplete marks a day whose events ran out before a terminal status.
	DiagnosticIncomplete DiagnosticKind = "incomplete"

	// DiagnosticAnomalous marks a completed day in an unexpected shape.
	DiagnosticAnomalous DiagnosticKind = "anomalous"

	// DiagnosticMissingTarget marks a completed day that never reached the queried status.
	DiagnosticMissingTarget DiagnosticKind = "missing_target"
)

// Diagnostic explains why a day contributed no sample.
type Diagnostic struct {
	Kind        DiagnosticKind `json:"kind"`
	Date        time.Time      `json:"date"`
	Description string         `json:"description"`

	// Events are the day's raw log lines, in file order.
	Events []string `json:"events,omitempty"`
}

// Sample is one day's elapsed time from midnight to the queried status.
type Sample struct {
	Date    time.Time     `json:"date"`
	At      time.Time     `json:"at"`
	Elapsed time.Duration `json:"elapsed"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	Query  Query
	Window locator.Window

	Situations  []*situation.Situation
	Samples     []Sample
	Diagnostics []Diagnostic

	// Summary is nil when there were no samples.
	Summary *stats.Summary

	// StatsErr is ErrEmptySeries or ErrInsufficientSamples when the summary
	// is missing or partial. It does not fail the run.
	StatsErr error

	Metadata Metadata
}

// Metadata provides context about the run.
type Metadata struct {
	StartTime time.Time
	EndTime   time.Time

	// RecordsExtracted counts every parsed record that mentioned the node.
	RecordsExtracted int

	// StatusEvents counts status records for exactly the node.
	StatusEvents int
}

// Durations returns the elapsed times in date order.
func (r *Result) Durations() []time.Duration {
	out := make([]time.Duration, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Elapsed
	}
	return out
}

// HasIssues reports whether any day was incomplete or anomalous.
func (r *Result) HasIssues() bool {
	for _, d := range r.Diagnostics {
		if d.Kind == DiagnosticIncomplete || d.Kind == DiagnosticAnomalous {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics of the given kind.
func (r *Result) Count(kind DiagnosticKind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
