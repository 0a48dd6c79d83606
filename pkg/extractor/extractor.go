// Package extractor streams a located line window of a scheduler log and
// returns the parsed records mentioning one node.
package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
	"github.com/nwpc-oper/workflow-log-collector/pkg/locator"
	"github.com/nwpc-oper/workflow-log-collector/pkg/parser"
	"github.com/nwpc-oper/workflow-log-collector/pkg/progress"
)

// LineParser converts a numbered log line into a record.
type LineParser interface {
	ParseLine(line parser.LogLine) (ecflow.Record, error)
}

// Extractor reads the records of one node from a line window.
type Extractor struct {
	batchSize int
	parser    LineParser
	reporter  progress.Reporter
	logger    zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBatchSize sets the number of lines read per batch.
func WithBatchSize(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithParser replaces the ecFlow line parser.
func WithParser(p LineParser) Option {
	return func(e *Extractor) {
		if p != nil {
			e.parser = p
		}
	}
}

// WithReporter sets the progress reporter, advanced once per batch.
func WithReporter(r progress.Reporter) Option {
	return func(e *Extractor) {
		if r != nil {
			e.reporter = r
		}
	}
}

// WithLogger sets the logger used for skipped lines.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		batchSize: parser.DefaultBatchSize,
		parser:    ecflow.NewLineParser(),
		reporter:  progress.Nop(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns, in file order, the records of lines inside window that
// mention nodePath. Returns nil for the sentinel window.
func (e *Extractor) Extract(ctx context.Context, path, nodePath string, window locator.Window) ([]ecflow.Record, error) {
	if window.Empty() {
		return nil, nil
	}

	r, err := parser.OpenBatchReader(path, e.batchSize)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return e.ExtractReader(ctx, r, nodePath, window)
}

// ExtractReader is Extract over an already opened reader positioned at line 1.
//
// Lines before the window are skipped without parsing. Inside the window a
// line is parsed only if it contains nodePath; lines the parser rejects are
// logged and dropped.
func (e *Extractor) ExtractReader(ctx context.Context, r *parser.BatchReader, nodePath string, window locator.Window) ([]ecflow.Record, error) {
	if window.Empty() {
		return nil, nil
	}

	e.reporter.Start("extract", window.End-1)
	defer e.reporter.Finish()

	var records []ecflow.Record
	skipped := 0

	for {
		batch, err := r.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", nodePath, err)
		}
		e.reporter.Advance(len(batch))

		if batch[len(batch)-1].LineNum < window.Begin {
			continue
		}

		for _, line := range batch {
			if line.LineNum < window.Begin {
				continue
			}
			if line.LineNum >= window.End {
				e.logSkipped(nodePath, skipped)
				return records, nil
			}

			line.Content = strings.TrimSpace(line.Content)
			if !strings.Contains(line.Content, nodePath) {
				continue
			}

			record, err := e.parser.ParseLine(line)
			if err != nil {
				skipped++
				e.logger.Debug().Err(err).Int("line", line.LineNum).Msg("skipping unparsable line")
				continue
			}
			records = append(records, record)
		}
	}

	e.logSkipped(nodePath, skipped)
	return records, nil
}

func (e *Extractor) logSkipped(nodePath string, skipped int) {
	if skipped > 0 {
		e.logger.Warn().Str("node", nodePath).Int("lines", skipped).Msg("skipped unparsable lines")
	}
}

// StatusRecords keeps the status records whose node path is exactly nodePath.
func StatusRecords(records []ecflow.Record, nodePath string) []*ecflow.StatusRecord {
	var out []*ecflow.StatusRecord
	for _, r := range records {
		sr, ok := r.(*ecflow.StatusRecord)
		if !ok || sr.NodePath != nodePath {
			continue
		}
		out = append(out, sr)
	}
	return out
}

// Extract is a convenience wrapper around New(opts...).Extract.
func Extract(ctx context.Context, path, nodePath string, window locator.Window, opts ...Option) ([]ecflow.Record, error) {
	return New(opts...).Extract(ctx, path, nodePath, window)
}
