// Package stats summarizes elapsed-time samples: arithmetic mean,
// symmetric trimmed mean and percentile estimates.
package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/influxdata/tdigest"
)

var (
	// ErrEmptySeries is returned when there are no samples to summarize.
	ErrEmptySeries = errors.New("empty series")

	// ErrInsufficientSamples is returned when trimming would discard every sample.
	ErrInsufficientSamples = errors.New("insufficient samples")
)

// DefaultTrimFraction is the share of samples cut from each end by TrimmedMean.
const DefaultTrimFraction = 0.25

// digestCompression bounds the number of centroids kept by the percentile digest.
const digestCompression = 100

// Summary describes a series of elapsed durations.
type Summary struct {
	Count        int           `json:"count"`
	Mean         time.Duration `json:"mean"`
	TrimFraction float64       `json:"trim_fraction"`
	TrimmedMean  time.Duration `json:"trimmed_mean"`
	Min          time.Duration `json:"min"`
	Max          time.Duration `json:"max"`
	Percentiles  []Percentile  `json:"percentiles,omitempty"`
}

// Percentile is an estimated quantile of the series.
type Percentile struct {
	Quantile float64       `json:"quantile"`
	Value    time.Duration `json:"value"`
}

// Mean returns the arithmetic mean of samples.
func Mean(samples []time.Duration) (time.Duration, error) {
	if len(samples) == 0 {
		return 0, ErrEmptySeries
	}
	var sum time.Duration
	for _, s := range samples {
		sum += s
	}
	return sum / time.Duration(len(samples)), nil
}

// TrimCount returns how many samples TrimmedMean discards from each end:
// floor(n * fraction).
func TrimCount(n int, fraction float64) int {
	return int(math.Floor(float64(n) * fraction))
}

// TrimmedMean sorts a copy of samples, discards TrimCount samples from each
// end and averages the rest.
func TrimmedMean(samples []time.Duration, fraction float64) (time.Duration, error) {
	if fraction < 0 || fraction > 0.5 {
		return 0, fmt.Errorf("trim fraction %v out of range [0, 0.5]", fraction)
	}
	if len(samples) == 0 {
		return 0, ErrEmptySeries
	}

	k := TrimCount(len(samples), fraction)
	if 2*k >= len(samples) {
		return 0, fmt.Errorf("%w: trimming %d of %d samples from each end leaves none", ErrInsufficientSamples, k, len(samples))
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return Mean(sorted[k : len(sorted)-k])
}

// Summarize computes the full summary of samples.
// quantiles are in [0, 1]; values outside are ignored.
func Summarize(samples []time.Duration, fraction float64, quantiles ...float64) (*Summary, error) {
	mean, err := Mean(samples)
	if err != nil {
		return nil, err
	}

	trimmed, err := TrimmedMean(samples, fraction)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Count:        len(samples),
		Mean:         mean,
		TrimFraction: fraction,
		TrimmedMean:  trimmed,
		Min:          slices.Min(samples),
		Max:          slices.Max(samples),
	}

	if len(quantiles) > 0 {
		td := tdigest.NewWithCompression(digestCompression)
		for _, v := range samples {
			td.Add(float64(v), 1)
		}
		for _, q := range quantiles {
			if q < 0 || q > 1 {
				continue
			}
			v := time.Duration(math.Round(td.Quantile(q)))
			s.Percentiles = append(s.Percentiles, Percentile{Quantile: q, Value: clamp(v, s.Min, s.Max)})
		}
	}

	return s, nil
}

func clamp(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
