package ecflow

import (
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/parser"
)

// RecordKind identifies the variant of a Record.
type RecordKind string

const (
	KindStatus RecordKind = "status"
	KindChild  RecordKind = "child"
	KindOther  RecordKind = "other"
)

// Record is one parsed log line. The concrete type is one of
// *StatusRecord, *ChildRecord or *OtherRecord.
type Record interface {
	// Kind returns the record variant.
	Kind() RecordKind

	// Header returns the attributes shared by all variants.
	Header() *RecordHeader
}

// RecordHeader holds the attributes common to every record variant.
type RecordHeader struct {
	// Timestamp is the full date and time of the line, in UTC.
	Timestamp time.Time

	// NodePath is the slash-separated node path, empty if the line names none.
	NodePath string

	// LineNum is the 1-based line number in the log file (0 if unknown).
	LineNum int

	// Raw is the trimmed line text.
	Raw string
}

// Header returns h itself so variants embedding it satisfy Record.
func (h *RecordHeader) Header() *RecordHeader { return h }

// Date returns the calendar date of the record as midnight UTC.
func (h *RecordHeader) Date() time.Time { return parser.Day(h.Timestamp) }

// TimeOfDay returns the record's time as an offset from midnight.
func (h *RecordHeader) TimeOfDay() time.Duration { return parser.SinceMidnight(h.Timestamp) }

// DateTime returns the calendar date and the time-of-day of the record.
func (h *RecordHeader) DateTime() (time.Time, time.Duration) {
	return h.Date(), h.TimeOfDay()
}

// StatusRecord is a node status transition such as
// "LOG:[04:36:51 1.6.2020]  submitted: /obs/fcst".
type StatusRecord struct {
	RecordHeader
	Status NodeStatus
}

// Kind returns KindStatus.
func (*StatusRecord) Kind() RecordKind { return KindStatus }

// ChildRecord is a child command sent by a running task, such as
// "MSG:[04:36:52 1.6.2020] chd:init /obs/fcst".
type ChildRecord struct {
	RecordHeader
	Command string
}

// Kind returns KindChild.
func (*ChildRecord) Kind() RecordKind { return KindChild }

// OtherRecord is any other timestamped line: user commands, server
// messages, meter and event updates.
type OtherRecord struct {
	RecordHeader
	Message string
}

// Kind returns KindOther.
func (*OtherRecord) Kind() RecordKind { return KindOther }
