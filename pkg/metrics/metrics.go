// Package metrics exposes the figures of a node run as Prometheus gauges,
// written in the text exposition format for node_exporter's textfile
// collector.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nwpc-oper/workflow-log-collector/pkg/output"
)

const namespace = "collector"

// Day classifications used for the days gauge.
const (
	DaysSampled       = "sampled"
	DaysIncomplete    = "incomplete"
	DaysAnomalous     = "anomalous"
	DaysMissingTarget = "missing_target"
)

// Run holds the collectors for one or more node runs in a private registry.
type Run struct {
	reg *prometheus.Registry

	days             *prometheus.GaugeVec
	samples          *prometheus.GaugeVec
	mean             *prometheus.GaugeVec
	trimmedMean      *prometheus.GaugeVec
	min              *prometheus.GaugeVec
	max              *prometheus.GaugeVec
	quantile         *prometheus.GaugeVec
	recordsExtracted *prometheus.GaugeVec
	lastRun          *prometheus.GaugeVec
}

// New creates a Run with every collector registered.
func New() *Run {
	nodeLabels := []string{"node", "status"}

	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      name,
			Help:      help,
		}, append(append([]string{}, nodeLabels...), labels...))
	}

	r := &Run{
		reg:              prometheus.NewRegistry(),
		days:             gauge("days", "Calendar days classified, by outcome.", "classification"),
		samples:          gauge("samples", "Days that produced an elapsed time sample."),
		mean:             gauge("elapsed_mean_seconds", "Mean time from midnight to the status."),
		trimmedMean:      gauge("elapsed_trimmed_mean_seconds", "Trimmed mean time from midnight to the status.", "trim_fraction"),
		min:              gauge("elapsed_min_seconds", "Earliest time from midnight to the status."),
		max:              gauge("elapsed_max_seconds", "Latest time from midnight to the status."),
		quantile:         gauge("elapsed_quantile_seconds", "Estimated quantiles of the time from midnight to the status.", "quantile"),
		recordsExtracted: gauge("records_extracted", "Parsed log records mentioning the node."),
		lastRun:          gauge("last_run_timestamp_seconds", "Unix time the run finished."),
	}

	r.reg.MustRegister(
		r.days, r.samples, r.mean, r.trimmedMean, r.min, r.max,
		r.quantile, r.recordsExtracted, r.lastRun,
	)
	return r
}

// Registry returns the registry holding the run's collectors.
func (r *Run) Registry() *prometheus.Registry {
	return r.reg
}

// Record sets the gauges for report. Summary gauges are left unset when
// the series was empty.
func (r *Run) Record(report *output.Report) {
	node := report.Query.NodePath
	status := string(report.Query.Status)
	s := report.Summary

	r.days.WithLabelValues(node, status, DaysSampled).Set(float64(len(report.Samples)))
	r.days.WithLabelValues(node, status, DaysIncomplete).Set(float64(s.Incomplete))
	r.days.WithLabelValues(node, status, DaysAnomalous).Set(float64(s.Anomalous))
	r.days.WithLabelValues(node, status, DaysMissingTarget).Set(float64(s.MissingTarget))
	r.samples.WithLabelValues(node, status).Set(float64(len(report.Samples)))
	r.recordsExtracted.WithLabelValues(node, status).Set(float64(report.Metadata.RecordsExtracted))
	if !report.Metadata.AnalyzedAt.IsZero() {
		r.lastRun.WithLabelValues(node, status).Set(float64(report.Metadata.AnalyzedAt.Unix()))
	}

	if s.Stats == nil {
		return
	}
	r.mean.WithLabelValues(node, status).Set(s.Stats.Mean.Seconds())
	r.min.WithLabelValues(node, status).Set(s.Stats.Min.Seconds())
	r.max.WithLabelValues(node, status).Set(s.Stats.Max.Seconds())
	if !s.TrimUnavailable {
		fraction := strconv.FormatFloat(s.Stats.TrimFraction, 'f', -1, 64)
		r.trimmedMean.WithLabelValues(node, status, fraction).Set(s.Stats.TrimmedMean.Seconds())
	}
	for _, p := range s.Stats.Percentiles {
		q := strconv.FormatFloat(p.Quantile, 'f', -1, 64)
		r.quantile.WithLabelValues(node, status, q).Set(p.Value.Seconds())
	}
}

// WriteTextfile atomically writes every gathered metric to path.
func (r *Run) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
