package situation

import (
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
)

// Options configures classification.
type Options struct {
	// Terminal statuses move the machine to StateComplete.
	Terminal []ecflow.NodeStatus

	// Intermediate statuses are recorded while waiting for a terminal one.
	Intermediate []ecflow.NodeStatus

	// ExpectedFirst is the status a completed day must have recorded first.
	// Empty disables the check.
	ExpectedFirst ecflow.NodeStatus
}

// DefaultOptions returns the ecFlow task lifecycle: submitted, then
// queued/active/aborted/suspended, ending in complete.
func DefaultOptions() Options {
	return Options{
		Terminal: []ecflow.NodeStatus{ecflow.StatusComplete},
		Intermediate: []ecflow.NodeStatus{
			ecflow.StatusQueued,
			ecflow.StatusActive,
			ecflow.StatusAborted,
			ecflow.StatusSuspended,
		},
		ExpectedFirst: ecflow.StatusSubmitted,
	}
}

// Machine is the per-day state machine. A Machine must not be reused
// across days; create one with NewMachine for each.
type Machine struct {
	opts       Options
	state      State
	timePoints []TimePoint
}

// NewMachine creates a machine in StatePending.
func NewMachine(opts Options) *Machine {
	return &Machine{opts: opts, state: StatePending}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// TimePoints returns the recorded time points in first-seen order.
func (m *Machine) TimePoints() []TimePoint {
	return m.timePoints
}

// Trigger feeds one status event into the machine and reports whether it
// has reached StateComplete. Events after completion are ignored.
//
// Transitions:
//
//	pending     + submitted    -> in_progress
//	pending     + intermediate -> pending (time point recorded)
//	in_progress + intermediate -> in_progress (time point recorded)
//	any         + terminal     -> complete
//
// Statuses outside the configured vocabulary change nothing.
func (m *Machine) Trigger(status ecflow.NodeStatus, at time.Time) bool {
	switch {
	case m.state == StateComplete || m.state == StateIncomplete:
		return m.state == StateComplete

	case contains(m.opts.Terminal, status):
		m.record(status, at)
		m.state = StateComplete
		return true

	case status == ecflow.StatusSubmitted:
		m.record(status, at)
		m.state = StateInProgress

	case contains(m.opts.Intermediate, status):
		m.record(status, at)
	}

	return false
}

// Finish closes the day: any state other than StateComplete becomes
// StateIncomplete.
func (m *Machine) Finish() State {
	if m.state != StateComplete {
		m.state = StateIncomplete
	}
	return m.state
}

// record keeps the first occurrence of status.
func (m *Machine) record(status ecflow.NodeStatus, at time.Time) {
	for _, tp := range m.timePoints {
		if tp.Status == status {
			return
		}
	}
	m.timePoints = append(m.timePoints, TimePoint{Status: status, At: at})
}

func contains(list []ecflow.NodeStatus, s ecflow.NodeStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
