// Package locator finds the contiguous block of lines covering a calendar
// date range inside a chronologically ordered scheduler log, reading the
// file once, forward-only, one batch at a time.
package locator

import (
	"errors"
	"fmt"
	"time"
)

// ErrLocator marks every failure of a window search.
var ErrLocator = errors.New("locating line window")

// Error describes a failed window search.
type Error struct {
	// Path is the log file being searched.
	Path string

	// LineNum is the line that could not be interpreted, 0 for I/O failures.
	LineNum int

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	if e.LineNum > 0 {
		return fmt.Sprintf("%v: %s line %d: %v", ErrLocator, e.Path, e.LineNum, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrLocator, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLocator) hold for every *Error.
func (e *Error) Is(target error) bool { return target == ErrLocator }

// Window is a half-open, 1-based line interval [Begin, End).
// The zero Window is the sentinel for "date range not present in file".
type Window struct {
	Begin int
	End   int
}

// Empty reports whether w is the not-found sentinel.
func (w Window) Empty() bool {
	return w.Begin == 0 && w.End == 0
}

// Len returns the number of lines in the window.
func (w Window) Len() int {
	return w.End - w.Begin
}

// Contains reports whether lineNum falls inside the window.
func (w Window) Contains(lineNum int) bool {
	return !w.Empty() && lineNum >= w.Begin && lineNum < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("[%d, %d)", w.Begin, w.End)
}

// DateRange is a half-open calendar date interval [Start, Stop).
// A zero Start or Stop means the bound is omitted.
type DateRange struct {
	Start time.Time
	Stop  time.Time
}

// Days returns each calendar day in the range. Both bounds must be set.
func (r DateRange) Days() []time.Time {
	if r.Start.IsZero() || r.Stop.IsZero() {
		return nil
	}
	var days []time.Time
	for d := r.Start; d.Before(r.Stop); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether the day d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.Stop.IsZero() && !d.Before(r.Stop) {
		return false
	}
	return true
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", boundString(r.Start), boundString(r.Stop))
}

func boundString(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}
