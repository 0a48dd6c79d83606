// Package ecflow models the ecFlow workflow scheduler's log vocabulary:
// node statuses, the record variants a log line can carry, and the
// line grammar that turns raw text into records.
package ecflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStatus is returned when a status name is not part of the
// scheduler's vocabulary.
var ErrUnknownStatus = errors.New("unknown node status")

// NodeStatus is a node lifecycle state as written in the scheduler log.
type NodeStatus string

const (
	StatusUnknown   NodeStatus = "unknown"
	StatusSuspended NodeStatus = "suspended"
	StatusComplete  NodeStatus = "complete"
	StatusQueued    NodeStatus = "queued"
	StatusSubmitted NodeStatus = "submitted"
	StatusActive    NodeStatus = "active"
	StatusAborted   NodeStatus = "aborted"
	StatusShutdown  NodeStatus = "shutdown"
	StatusHalted    NodeStatus = "halted"
)

var knownStatuses = []NodeStatus{
	StatusUnknown,
	StatusSuspended,
	StatusComplete,
	StatusQueued,
	StatusSubmitted,
	StatusActive,
	StatusAborted,
	StatusShutdown,
	StatusHalted,
}

// Statuses returns every known status in declaration order.
func Statuses() []NodeStatus {
	out := make([]NodeStatus, len(knownStatuses))
	copy(out, knownStatuses)
	return out
}

// ParseStatus converts a status name into a NodeStatus.
func ParseStatus(name string) (NodeStatus, error) {
	s := NodeStatus(strings.ToLower(strings.TrimSpace(name)))
	if s.Valid() {
		return s, nil
	}
	return "", fmt.Errorf("%w %q (known: %s)", ErrUnknownStatus, name, strings.Join(statusNames(), ", "))
}

// Valid reports whether s belongs to the known vocabulary.
func (s NodeStatus) Valid() bool {
	for _, k := range knownStatuses {
		if s == k {
			return true
		}
	}
	return false
}

func (s NodeStatus) String() string {
	return string(s)
}

func statusNames() []string {
	names := make([]string, len(knownStatuses))
	for i, s := range knownStatuses {
		names[i] = string(s)
	}
	return names
}
