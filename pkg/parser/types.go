// Package parser provides forward-only reading of scheduler log files and
// extraction of the timestamp every log line carries.
package parser

// LogLine is a raw log line with its position in the file.
type LogLine struct {
	// Content is the raw line text, without the trailing newline.
	Content string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}
