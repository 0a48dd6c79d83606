package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/analytic"
	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
	"github.com/nwpc-oper/workflow-log-collector/pkg/output"
	"github.com/nwpc-oper/workflow-log-collector/pkg/stats"
)

func testReport(t *testing.T, withStats bool) *output.Report {
	t.Helper()

	report := &output.Report{
		Query: output.Query{NodePath: "/job/fcst", Status: ecflow.StatusSubmitted},
		Samples: []analytic.Sample{
			{Elapsed: 10 * time.Minute},
			{Elapsed: 12 * time.Minute},
		},
		Summary: output.Summary{Days: 4, Incomplete: 1, Anomalous: 1},
		Metadata: output.Metadata{
			AnalyzedAt:       time.Unix(1700000000, 0),
			RecordsExtracted: 9,
		},
	}
	if withStats {
		s, err := stats.Summarize([]time.Duration{10 * time.Minute, 12 * time.Minute}, 0.25, 0.5)
		if err != nil {
			t.Fatal(err)
		}
		report.Summary.Stats = s
	} else {
		report.Samples = nil
		report.Summary.NoData = true
	}
	return report
}

// gauge returns the value of the named gauge whose labels include want,
// and how many series the metric has.
func gauge(t *testing.T, run *Run, name string, want map[string]string) (float64, int) {
	t.Helper()

	mfs, err := run.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != namespace+"_node_"+name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				return m.GetGauge().GetValue(), len(mf.GetMetric())
			}
		}
		return -1, len(mf.GetMetric())
	}
	return -1, 0
}

func labels(extra ...string) map[string]string {
	m := map[string]string{"node": "/job/fcst", "status": "submitted"}
	for i := 0; i+1 < len(extra); i += 2 {
		m[extra[i]] = extra[i+1]
	}
	return m
}

func TestRecord(t *testing.T) {
	run := New()
	run.Record(testReport(t, true))

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"days", labels("classification", DaysSampled), 2},
		{"days", labels("classification", DaysIncomplete), 1},
		{"days", labels("classification", DaysAnomalous), 1},
		{"samples", labels(), 2},
		{"records_extracted", labels(), 9},
		{"elapsed_mean_seconds", labels(), 660},
		{"elapsed_trimmed_mean_seconds", labels("trim_fraction", "0.25"), 660},
		{"elapsed_min_seconds", labels(), 600},
		{"elapsed_max_seconds", labels(), 720},
		{"last_run_timestamp_seconds", labels(), 1700000000},
	}

	for _, tt := range tests {
		got, _ := gauge(t, run, tt.name, tt.labels)
		if got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}

	if _, n := gauge(t, run, "elapsed_quantile_seconds", labels("quantile", "0.5")); n != 1 {
		t.Errorf("quantile series = %d, want 1", n)
	}
}

func TestRecord_NoData(t *testing.T) {
	run := New()
	run.Record(testReport(t, false))

	if _, n := gauge(t, run, "elapsed_mean_seconds", labels()); n != 0 {
		t.Errorf("mean series = %d, want 0 without samples", n)
	}
	if got, _ := gauge(t, run, "samples", labels()); got != 0 {
		t.Errorf("samples = %v, want 0", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	run := New()
	run.Record(testReport(t, true))

	path := filepath.Join(t.TempDir(), "collector.prom")
	if err := run.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		"# TYPE collector_node_elapsed_mean_seconds gauge",
		`collector_node_elapsed_mean_seconds{node="/job/fcst",status="submitted"} 660`,
		`collector_node_days{classification="anomalous",node="/job/fcst",status="submitted"} 1`,
		`collector_node_elapsed_quantile_seconds{node="/job/fcst",quantile="0.5",status="submitted"}`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("textfile missing %q\n%s", want, content)
		}
	}
}

func TestWriteTextfile_BadDirectory(t *testing.T) {
	run := New()
	if err := run.WriteTextfile(filepath.Join(t.TempDir(), "missing", "collector.prom")); err == nil {
		t.Error("WriteTextfile() expected error for missing directory")
	}
}
