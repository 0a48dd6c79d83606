package locator

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/parser"
	"github.com/nwpc-oper/workflow-log-collector/pkg/progress"
)

// Locator searches log files for the line window of a date range.
type Locator struct {
	batchSize int
	reporter  progress.Reporter
}

// Option configures a Locator.
type Option func(*Locator)

// WithBatchSize sets the number of lines read per batch.
// The batch size never changes the located window.
func WithBatchSize(n int) Option {
	return func(l *Locator) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithReporter sets the progress reporter, advanced once per batch.
func WithReporter(r progress.Reporter) Option {
	return func(l *Locator) {
		if r != nil {
			l.reporter = r
		}
	}
}

// New creates a Locator.
func New(opts ...Option) *Locator {
	l := &Locator{
		batchSize: parser.DefaultBatchSize,
		reporter:  progress.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate returns the window of lines whose dates fall in rng.
func (l *Locator) Locate(ctx context.Context, path string, rng DateRange) (Window, error) {
	r, err := parser.OpenBatchReader(path, l.batchSize)
	if err != nil {
		return Window{}, err
	}
	defer r.Close()

	return l.LocateReader(ctx, r, rng)
}

// LocateReader runs the window search over an already opened reader,
// which must be positioned at line 1.
//
// Timestamps are assumed non-decreasing. Out-of-order lines can yield an
// inaccurate window but never a failure.
func (l *Locator) LocateReader(ctx context.Context, r *parser.BatchReader, rng DateRange) (Window, error) {
	l.reporter.Start("locate", 0)
	defer l.reporter.Finish()

	begin, batch, idx, err := l.findBegin(ctx, r, rng.Start)
	if err != nil {
		return Window{}, err
	}
	if begin == 0 {
		return Window{}, nil
	}

	end, err := l.findEnd(ctx, r, rng.Stop, batch, idx)
	if err != nil {
		return Window{}, err
	}
	if end == begin {
		return Window{}, nil
	}

	return Window{Begin: begin, End: end}, nil
}

// findBegin returns the number of the first line dated on or after start,
// together with the batch holding it and its index there.
// Returns 0 if the input ends first.
func (l *Locator) findBegin(ctx context.Context, r *parser.BatchReader, start time.Time) (int, []parser.LogLine, int, error) {
	for {
		batch, err := l.next(ctx, r)
		if err == io.EOF {
			return 0, nil, 0, nil
		}
		if err != nil {
			return 0, nil, 0, err
		}

		if start.IsZero() {
			return batch[0].LineNum, batch, 0, nil
		}

		i, err := firstOnOrAfter(r, batch, 0, start)
		if err != nil {
			return 0, nil, 0, err
		}
		if i >= 0 {
			return batch[i].LineNum, batch, i, nil
		}
	}
}

// findEnd continues the same forward cursor from batch[idx] and returns the
// number of the first line dated on or after stop, or one past the last
// line when no such line exists.
func (l *Locator) findEnd(ctx context.Context, r *parser.BatchReader, stop time.Time, batch []parser.LogLine, idx int) (int, error) {
	if !stop.IsZero() {
		i, err := firstOnOrAfter(r, batch, idx, stop)
		if err != nil {
			return 0, err
		}
		if i >= 0 {
			return batch[i].LineNum, nil
		}
	}

	for {
		batch, err := l.next(ctx, r)
		if err == io.EOF {
			return r.NextLineNum(), nil
		}
		if err != nil {
			return 0, err
		}

		if stop.IsZero() {
			continue
		}

		i, err := firstOnOrAfter(r, batch, 0, stop)
		if err != nil {
			return 0, err
		}
		if i >= 0 {
			return batch[i].LineNum, nil
		}
	}
}

func (l *Locator) next(ctx context.Context, r *parser.BatchReader) ([]parser.LogLine, error) {
	batch, err := r.Next(ctx)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &Error{Path: r.Source(), Err: err}
	}
	l.reporter.Advance(len(batch))
	return batch, nil
}

// firstOnOrAfter returns the index of the first line in batch[from:] dated
// on or after day, or -1. The last dated line is checked first so that
// batches entirely before day are rejected with a single timestamp parse.
// Blank lines carry no date and are skipped.
func firstOnOrAfter(r *parser.BatchReader, batch []parser.LogLine, from int, day time.Time) (int, error) {
	last := len(batch) - 1
	for last >= from && blank(batch[last].Content) {
		last--
	}
	if last < from {
		return -1, nil
	}

	d, err := parser.DateOf(batch[last].Content)
	if err != nil {
		return -1, &Error{Path: r.Source(), LineNum: batch[last].LineNum, Err: err}
	}
	if d.Before(day) {
		return -1, nil
	}

	for i := from; i <= last; i++ {
		if blank(batch[i].Content) {
			continue
		}
		d, err := parser.DateOf(batch[i].Content)
		if err != nil {
			return -1, &Error{Path: r.Source(), LineNum: batch[i].LineNum, Err: err}
		}
		if !d.Before(day) {
			return i, nil
		}
	}
	return -1, nil
}

func blank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Locate is a convenience wrapper around New(opts...).Locate.
func Locate(ctx context.Context, path string, rng DateRange, opts ...Option) (Window, error) {
	return New(opts...).Locate(ctx, path, rng)
}
