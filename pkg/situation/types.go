// Package situation classifies a node's status events, one calendar day at
// a time, with a small finite-state machine.
package situation

import (
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
)

// State is a classifier state.
type State int

const (
	// StatePending is the initial state: nothing submitted yet.
	StatePending State = iota
	// StateInProgress follows a submission.
	StateInProgress
	// StateComplete is reached on a terminal status.
	StateComplete
	// StateIncomplete marks a day whose events ran out before completion.
	StateIncomplete
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	case StateIncomplete:
		return "incomplete"
	default:
		return "invalid"
	}
}

// MarshalText renders the state by name in JSON reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TimePoint is the first time a status was observed during a day.
type TimePoint struct {
	Status ecflow.NodeStatus `json:"status"`
	At     time.Time         `json:"at"`
}

// Situation is the classification of one node on one calendar day.
type Situation struct {
	// Date is the calendar day, midnight UTC.
	Date time.Time `json:"date"`

	// State is the final classifier state for the day.
	State State `json:"state"`

	// TimePoints lists notable statuses in the order they were first seen.
	TimePoints []TimePoint `json:"time_points"`

	// Anomaly explains why a completed day cannot be trusted, empty otherwise.
	Anomaly string `json:"anomaly,omitempty"`

	// Events are the day's raw status events, kept for diagnostics.
	Events []*ecflow.StatusRecord `json:"-"`
}

// TimePoint returns when status was first seen during the day.
func (s *Situation) TimePoint(status ecflow.NodeStatus) (time.Time, bool) {
	for _, tp := range s.TimePoints {
		if tp.Status == status {
			return tp.At, true
		}
	}
	return time.Time{}, false
}

// Complete reports whether the day reached a terminal status without anomaly.
func (s *Situation) Complete() bool {
	return s.State == StateComplete && s.Anomaly == ""
}

// Anomalous reports whether the day completed in an unexpected shape.
func (s *Situation) Anomalous() bool {
	return s.State == StateComplete && s.Anomaly != ""
}
