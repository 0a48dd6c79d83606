package analytic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
	"github.com/nwpc-oper/workflow-log-collector/pkg/extractor"
	"github.com/nwpc-oper/workflow-log-collector/pkg/locator"
	"github.com/nwpc-oper/workflow-log-collector/pkg/parser"
	"github.com/nwpc-oper/workflow-log-collector/pkg/progress"
	"github.com/nwpc-oper/workflow-log-collector/pkg/situation"
	"github.com/nwpc-oper/workflow-log-collector/pkg/stats"
)

// Analyzer runs the timing pipeline.
type Analyzer struct {
	batchSize    int
	trimFraction float64
	percentiles  []float64
	situation    situation.Options
	reporter     progress.Reporter
	logger       zerolog.Logger
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithBatchSize sets the number of lines read per batch in both passes.
func WithBatchSize(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.batchSize = n
		}
	}
}

// WithTrimFraction sets the share cut from each end for the trimmed mean.
func WithTrimFraction(f float64) AnalyzerOption {
	return func(a *Analyzer) {
		a.trimFraction = f
	}
}

// WithPercentiles sets the quantiles estimated for the summary.
func WithPercentiles(qs ...float64) AnalyzerOption {
	return func(a *Analyzer) {
		a.percentiles = qs
	}
}

// WithTerminalStatuses replaces the statuses that complete a day.
func WithTerminalStatuses(statuses ...ecflow.NodeStatus) AnalyzerOption {
	return func(a *Analyzer) {
		if len(statuses) > 0 {
			a.situation.Terminal = statuses
		}
	}
}

// WithExpectedFirst sets the status a completed day must start with.
// Empty disables the anomaly check.
func WithExpectedFirst(status ecflow.NodeStatus) AnalyzerOption {
	return func(a *Analyzer) {
		a.situation.ExpectedFirst = status
	}
}

// WithReporter sets the progress reporter shared by both file passes.
func WithReporter(r progress.Reporter) AnalyzerOption {
	return func(a *Analyzer) {
		if r != nil {
			a.reporter = r
		}
	}
}

// WithLogger sets the logger for per-day diagnostics.
func WithLogger(l zerolog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// NewAnalyzer creates an analyzer with the ecFlow task lifecycle defaults.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		batchSize:    parser.DefaultBatchSize,
		trimFraction: stats.DefaultTrimFraction,
		situation:    situation.DefaultOptions(),
		reporter:     progress.Nop(),
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Locate returns the line window of q.Range in q.LogFile.
func (a *Analyzer) Locate(ctx context.Context, q Query) (locator.Window, error) {
	l := locator.New(
		locator.WithBatchSize(a.batchSize),
		locator.WithReporter(a.reporter),
	)
	window, err := l.Locate(ctx, q.LogFile, q.Range)
	if err != nil {
		return locator.Window{}, fmt.Errorf("locating %s in %s: %w", q.Range, q.LogFile, err)
	}

	a.logger.Debug().
		Str("range", q.Range.String()).
		Str("window", window.String()).
		Msg("located line window")

	return window, nil
}

// Records locates q.Range and returns every record mentioning q.NodePath.
func (a *Analyzer) Records(ctx context.Context, q Query) (locator.Window, []ecflow.Record, error) {
	window, err := a.Locate(ctx, q)
	if err != nil {
		return locator.Window{}, nil, err
	}
	if window.Empty() {
		a.logger.Warn().Str("range", q.Range.String()).Msg("date range not found in log file")
		return window, nil, nil
	}

	e := extractor.New(
		extractor.WithBatchSize(a.batchSize),
		extractor.WithReporter(a.reporter),
		extractor.WithLogger(a.logger),
	)
	records, err := e.Extract(ctx, q.LogFile, q.NodePath, window)
	if err != nil {
		return window, nil, fmt.Errorf("extracting %s: %w", q.NodePath, err)
	}

	a.logger.Debug().
		Str("node", q.NodePath).
		Int("records", len(records)).
		Msg("extracted records")

	return window, records, nil
}

// Run measures q.Status for every completed day of q.Range.
//
// Failures confined to a day become diagnostics. An empty or too short
// series is reported through Result.StatsErr, not as an error.
func (a *Analyzer) Run(ctx context.Context, q Query) (*Result, error) {
	if !q.Status.Valid() {
		return nil, fmt.Errorf("%w %q", ecflow.ErrUnknownStatus, q.Status)
	}

	result := &Result{
		Query: q,
		Metadata: Metadata{
			StartTime: time.Now(),
		},
	}

	window, records, err := a.Records(ctx, q)
	if err != nil {
		return nil, err
	}
	result.Window = window
	result.Metadata.RecordsExtracted = len(records)

	events := extractor.StatusRecords(records, q.NodePath)
	result.Metadata.StatusEvents = len(events)

	result.Situations = situation.ClassifyRange(events, q.Range, a.situation)
	for _, s := range result.Situations {
		a.collect(result, s)
	}

	a.summarize(result)
	result.Metadata.EndTime = time.Now()

	return result, nil
}

// collect turns one day's situation into either a sample or a diagnostic.
func (a *Analyzer) collect(result *Result, s *situation.Situation) {
	day := s.Date.Format(time.DateOnly)

	switch {
	case s.State != situation.StateComplete:
		desc := fmt.Sprintf("day ended %s", s.State)
		if len(s.Events) == 0 {
			desc = "no status events"
		}
		a.addDiagnostic(result, s, DiagnosticIncomplete, desc)

	case s.Anomalous():
		a.addDiagnostic(result, s, DiagnosticAnomalous, s.Anomaly)

	default:
		at, ok := s.TimePoint(result.Query.Status)
		if !ok {
			a.addDiagnostic(result, s, DiagnosticMissingTarget,
				fmt.Sprintf("completed without %s", result.Query.Status))
			return
		}
		elapsed := at.Sub(s.Date)
		result.Samples = append(result.Samples, Sample{Date: s.Date, At: at, Elapsed: elapsed})
		a.logger.Trace().Str("date", day).Dur("elapsed", elapsed).Msg("sample")
	}
}

func (a *Analyzer) addDiagnostic(result *Result, s *situation.Situation, kind DiagnosticKind, desc string) {
	d := Diagnostic{
		Kind:        kind,
		Date:        s.Date,
		Description: desc,
	}
	for _, ev := range s.Events {
		d.Events = append(d.Events, ev.Raw)
	}
	result.Diagnostics = append(result.Diagnostics, d)

	a.logger.Info().
		Str("date", s.Date.Format(time.DateOnly)).
		Str("kind", string(kind)).
		Int("events", len(s.Events)).
		Msg(desc)
}

func (a *Analyzer) summarize(result *Result) {
	samples := result.Durations()

	summary, err := stats.Summarize(samples, a.trimFraction, a.percentiles...)
	switch {
	case err == nil:
		result.Summary = summary
	case errors.Is(err, stats.ErrInsufficientSamples):
		// Keep the untrimmed figures.
		summary, _ = stats.Summarize(samples, 0, a.percentiles...)
		summary.TrimFraction = a.trimFraction
		summary.TrimmedMean = 0
		result.Summary = summary
		result.StatsErr = err
		a.logger.Warn().Err(err).Msg("trimmed mean unavailable")
	default:
		result.StatsErr = err
		a.logger.Warn().Err(err).Str("node", result.Query.NodePath).Msg("no samples found")
	}
}
