package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// DefaultBatchSize is the number of lines read per batch.
const DefaultBatchSize = 1000

// maxLineSize bounds a single log line.
const maxLineSize = 1024 * 1024

// BatchReader reads a log file forward-only in batches of lines.
//
// After every call to Next, NextLineNum equals 1 + the number of lines
// consumed so far. At most one batch is held in memory: the slice returned
// by Next is reused by the following call.
type BatchReader struct {
	file      *os.File
	scanner   *bufio.Scanner
	source    string
	batchSize int

	batch       []LogLine
	nextLineNum int
	done        bool
}

// OpenBatchReader opens a log file for batched reading.
// A batchSize below 1 selects DefaultBatchSize.
func OpenBatchReader(path string, batchSize int) (*BatchReader, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	r := NewBatchReader(f, batchSize)
	r.file = f
	r.source = path
	return r, nil
}

// NewBatchReader creates a BatchReader over an arbitrary reader.
// A batchSize below 1 selects DefaultBatchSize.
func NewBatchReader(rd io.Reader, batchSize int) *BatchReader {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &BatchReader{
		scanner:     scanner,
		source:      "<reader>",
		batchSize:   batchSize,
		batch:       make([]LogLine, 0, batchSize),
		nextLineNum: 1,
	}
}

// Next returns the next batch of lines.
// Returns io.EOF once the input is exhausted. The context is checked once
// per batch.
func (r *BatchReader) Next(ctx context.Context) ([]LogLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.done {
		return nil, io.EOF
	}

	r.batch = r.batch[:0]
	for len(r.batch) < r.batchSize && r.scanner.Scan() {
		r.batch = append(r.batch, LogLine{
			Content: r.scanner.Text(),
			LineNum: r.nextLineNum,
		})
		r.nextLineNum++
	}

	if err := r.scanner.Err(); err != nil {
		r.done = true
		return nil, fmt.Errorf("reading %s: %w", r.source, err)
	}

	if len(r.batch) < r.batchSize {
		r.done = true
	}

	if len(r.batch) == 0 {
		return nil, io.EOF
	}

	return r.batch, nil
}

// NextLineNum returns the line number of the next unread line.
func (r *BatchReader) NextLineNum() int {
	return r.nextLineNum
}

// BatchSize returns the configured batch size.
func (r *BatchReader) BatchSize() int {
	return r.batchSize
}

// Source returns the file path being read.
func (r *BatchReader) Source() string {
	return r.source
}

// Close releases the underlying file, if any.
func (r *BatchReader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}
