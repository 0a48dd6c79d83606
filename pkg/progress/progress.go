// Package progress reports the advancement of long forward scans over log
// files. Reporters are passed explicitly to the components that scan.
package progress

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Reporter receives progress updates from a scan.
// Implementations must be safe for sequential use (not concurrent).
type Reporter interface {
	// Start begins a stage. total is the expected number of units, or 0 if unknown.
	Start(stage string, total int)

	// Advance records n more units of work.
	Advance(n int)

	// Finish ends the current stage.
	Finish()
}

type nopReporter struct{}

func (nopReporter) Start(string, int) {}
func (nopReporter) Advance(int)       {}
func (nopReporter) Finish()           {}

// Nop returns a Reporter that discards all updates.
func Nop() Reporter { return nopReporter{} }

// DefaultInterval is the minimum time between two progress log lines.
const DefaultInterval = 2 * time.Second

// LogReporter writes progress as structured log events, at most once per interval.
type LogReporter struct {
	logger    zerolog.Logger
	interval  time.Duration
	sometimes *rate.Sometimes

	stage   string
	total   int
	done    int
	started time.Time
}

// NewLogReporter creates a Reporter that logs through logger.
// A non-positive interval selects DefaultInterval.
func NewLogReporter(logger zerolog.Logger, interval time.Duration) *LogReporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &LogReporter{
		logger:   logger,
		interval: interval,
	}
}

// Start begins a stage and logs it.
func (r *LogReporter) Start(stage string, total int) {
	r.stage = stage
	r.total = total
	r.done = 0
	r.started = time.Now()
	r.sometimes = &rate.Sometimes{Interval: r.interval}

	ev := r.logger.Debug().Str("stage", stage)
	if total > 0 {
		ev = ev.Int("total", total)
	}
	ev.Msg("started")
}

// Advance records progress and logs it if the interval has elapsed.
func (r *LogReporter) Advance(n int) {
	r.done += n
	if r.sometimes == nil {
		return
	}
	r.sometimes.Do(func() {
		ev := r.logger.Info().Str("stage", r.stage).Int("lines", r.done)
		if r.total > 0 {
			ev = ev.Str("percent", percent(r.done, r.total))
		}
		ev.Msg("progress")
	})
}

// Finish logs the end of the stage with its elapsed time.
func (r *LogReporter) Finish() {
	r.logger.Debug().
		Str("stage", r.stage).
		Int("lines", r.done).
		Dur("elapsed", time.Since(r.started)).
		Msg("finished")
	r.sometimes = nil
}

// Done returns the number of units reported in the current stage.
func (r *LogReporter) Done() int {
	return r.done
}

func percent(done, total int) string {
	p := float64(done) * 100 / float64(total)
	if p > 100 {
		p = 100
	}
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
