package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedTimestamp is returned when a line does not carry a
// "[HH:MM:SS D.M.YYYY]" timestamp at the expected offset.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

const (
	// timestampOffset is the length of the fixed line tag ("LOG:[", "MSG:[", ...).
	timestampOffset = 5

	// TimestampLayout is the Go layout of the bracketed timestamp.
	TimestampLayout = "15:04:05 2.1.2006"
)

// TimestampOf parses the bracketed timestamp of a log line.
// The returned time is in UTC.
func TimestampOf(line string) (time.Time, error) {
	if len(line) <= timestampOffset {
		return time.Time{}, fmt.Errorf("%w: line too short: %q", ErrMalformedTimestamp, line)
	}

	end := strings.IndexByte(line[timestampOffset:], ']')
	if end < 0 {
		return time.Time{}, fmt.Errorf("%w: no closing bracket: %q", ErrMalformedTimestamp, line)
	}

	tsStr := line[timestampOffset : timestampOffset+end]
	ts, err := time.Parse(TimestampLayout, tsStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parsing %q: %v", ErrMalformedTimestamp, tsStr, err)
	}

	return ts, nil
}

// DateOf returns the calendar date of a log line as midnight UTC.
func DateOf(line string) (time.Time, error) {
	ts, err := TimestampOf(line)
	if err != nil {
		return time.Time{}, err
	}
	return Day(ts), nil
}

// Day truncates t to midnight of its calendar day, keeping the location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SinceMidnight returns the time-of-day of t as a duration.
func SinceMidnight(t time.Time) time.Duration {
	return t.Sub(Day(t))
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}
