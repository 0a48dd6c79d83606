package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter writes a report as an indented JSON document, or in quiet
// mode as a single compact line suited to appending to a history file.
type JSONFormatter struct {
	opts FormatOptions
}

// quietLine is the one-line form: which series, and its summary.
type quietLine struct {
	Query   Query   `json:"query"`
	Summary Summary `json:"summary"`
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the report as JSON.
func (f *JSONFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)

	if f.opts.Quiet {
		return encoder.Encode(quietLine{Query: report.Query, Summary: report.Summary})
	}

	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
