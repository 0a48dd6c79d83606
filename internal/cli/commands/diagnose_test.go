package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nwpc-oper/workflow-log-collector/pkg/config"
)

func TestNewDiagnoseCommand(t *testing.T) {
	cmd := NewDiagnoseCommand(&GlobalOptions{})

	if cmd.Use != "diagnose <log-file>" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}
}

func TestCheckConfig(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantStatus string
		wantText   string
	}{
		{"defaults", "", "ok", "using defaults"},
		{"valid", "batch_size: 10\n", "ok", "Loaded"},
		{"invalid yaml", "batch_size: [\n", "error", "Failed to load config"},
		{"unknown status", "terminal_statuses: [finished]\n", "error", "unknown node status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.content != "" {
				path = writeFile(t, "config.yaml", tt.content)
			}

			cfg, result := checkConfig(context.Background(), path)
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s (%s)", result.Status, tt.wantStatus, result.Message)
			}
			if !strings.Contains(result.Message, tt.wantText) {
				t.Errorf("Message = %q, want it to contain %q", result.Message, tt.wantText)
			}
			if (cfg == nil) != (tt.wantStatus == "error") {
				t.Errorf("cfg = %v for status %s", cfg, result.Status)
			}
		})
	}
}

func TestCheckConfig_UnknownStatusHint(t *testing.T) {
	_, result := checkConfig(context.Background(), writeFile(t, "config.yaml", "expected_first_status: started\n"))

	if len(result.Suggests) == 0 || !strings.Contains(result.Suggests[0], "submitted") {
		t.Errorf("Suggests = %v, want the known statuses", result.Suggests)
	}
}

func TestCheckLogFile(t *testing.T) {
	tests := []struct {
		name       string
		path       func(t *testing.T) string
		wantStatus string
		wantText   string
	}{
		{"missing", func(t *testing.T) string { return "/nonexistent/ecflow.log" }, "error", "does not exist"},
		{"directory", func(t *testing.T) string { return t.TempDir() }, "error", "directory"},
		{"empty", func(t *testing.T) string { return writeFile(t, "ecflow.log", "") }, "error", "empty"},
		{"present", func(t *testing.T) string { return writeFile(t, "ecflow.log", threeDayLog) }, "ok", "bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checkLogFile(tt.path(t))
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", result.Status, tt.wantStatus)
			}
			if !strings.Contains(result.Message, tt.wantText) {
				t.Errorf("Message = %q, want it to contain %q", result.Message, tt.wantText)
			}
		})
	}
}

func TestCheckTimestampFormat(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantStatus string
	}{
		{"ecflow log", threeDayLog, "ok"},
		{"not ecflow", "2024-01-15 10:00:00 INFO started\n2024-01-15 10:00:01 INFO ready\n", "error"},
		{"mostly noise", "noise\nnoise\nnoise\nLOG:[00:10:00 1.6.2020]  submitted: /job/fcst\n", "warning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checkTimestampFormat(writeFile(t, "ecflow.log", tt.content), false)
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s (%s)", result.Status, tt.wantStatus, result.Message)
			}
		})
	}
}

func TestCheckLogSpan(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantStatus string
		wantText   string
	}{
		{"ordered", threeDayLog, "ok", "16 lines from 2020-05-31 to 2020-06-06"},
		{"out of order", threeDayLog + "LOG:[00:01:00 2.6.2020]  submitted: /job/fcst\n", "warning", "first at line 17"},
		{"malformed", "garbage\n" + threeDayLog, "warning", "1 line(s) without a timestamp"},
		{"no dates", "garbage\nmore garbage\n", "error", "No dated line in 2 lines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.BatchSize = 4

			result := checkLogSpan(context.Background(), writeFile(t, "ecflow.log", tt.content), cfg)
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s (%s)", result.Status, tt.wantStatus, result.Message)
			}
			if !strings.Contains(result.Message, tt.wantText) {
				t.Errorf("Message = %q, want it to contain %q", result.Message, tt.wantText)
			}
		})
	}
}

func TestCheckWebhooks_NoWebhooks(t *testing.T) {
	cfg := &config.Config{}

	if results := checkWebhooks(cfg, false); len(results) != 0 {
		t.Errorf("Expected no results without verbose, got %d", len(results))
	}

	results := checkWebhooks(cfg, true)
	if len(results) != 1 || results[0].Status != "ok" {
		t.Errorf("Expected one ok result in verbose mode, got %+v", results)
	}
}

func TestCheckWebhooks_MultipleWebhooks(t *testing.T) {
	cfg := &config.Config{
		Webhooks: []config.WebhookConfig{
			{Name: "first", URL: "https://first.example.com", Trigger: config.WebhookTriggerAlways},
			{URL: "https://second.example.com", Trigger: config.WebhookTriggerOnIssues},
		},
	}

	results := checkWebhooks(cfg, false)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Check != "Webhook: first" {
		t.Errorf("Check = %q", results[0].Check)
	}
	if results[1].Check != "Webhook: https://second.example.com" {
		t.Errorf("unnamed webhook should use its URL, got %q", results[1].Check)
	}
}

func TestCheckWebhooks_VerboseMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{
		Webhooks: []config.WebhookConfig{{Name: "ops", URL: server.URL, Token: "secret", Trigger: config.WebhookTriggerAlways}},
	}

	results := checkWebhooks(cfg, true)
	if len(results) != 2 {
		t.Fatalf("Expected config and connectivity results, got %d", len(results))
	}
	if results[1].Status != "ok" || !strings.Contains(results[1].Message, "Reachable") {
		t.Errorf("connectivity = %+v", results[1])
	}
}

func TestCheckWebhookConnectivity_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	result := checkWebhookConnectivity(config.WebhookConfig{URL: url})
	if result.Status != "warning" {
		t.Errorf("Status = %s, want warning", result.Status)
	}
}

func TestPrintDiagnostics(t *testing.T) {
	results := []DiagnosticResult{
		{Check: "Config", Status: "ok", Message: "fine", Details: []string{"hidden"}},
		{Check: "Log Span", Status: "warning", Message: "odd", Details: []string{"shown"}},
		{Check: "Log File", Status: "error", Message: "broken", Suggests: []string{"fix it"}},
	}

	var buf bytes.Buffer
	errs := printDiagnostics(&buf, results, false)
	out := buf.String()

	if errs != 1 {
		t.Errorf("errors = %d, want 1", errs)
	}
	for _, want := range []string{"[PASS] Config", "[WARN] Log Span", "[FAIL] Log File", "- shown", "Hint: fix it", "Summary: 1 passed, 1 warnings, 1 errors"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Error("details of passing checks should only show in verbose mode")
	}
}

func TestRunDiagnose(t *testing.T) {
	logPath := writeFile(t, "ecflow.log", threeDayLog)
	g := &GlobalOptions{}

	out, err := execute(t, g, NewDiagnoseCommand(g), logPath)
	if err != nil {
		t.Fatalf("diagnose failed: %v", err)
	}
	if !strings.Contains(out, "Looks good!") {
		t.Errorf("unexpected output\n%s", out)
	}
	if g.ExitCode != ExitOK {
		t.Errorf("ExitCode = %d, want %d", g.ExitCode, ExitOK)
	}
}

func TestRunDiagnose_MissingLog(t *testing.T) {
	g := &GlobalOptions{}

	out, err := execute(t, g, NewDiagnoseCommand(g), "/nonexistent/ecflow.log")
	if err != nil {
		t.Fatalf("diagnose failed: %v", err)
	}
	if !strings.Contains(out, "[FAIL] Log File") {
		t.Errorf("unexpected output\n%s", out)
	}
	// The content checks need a readable file.
	if strings.Contains(out, "Timestamp Format") {
		t.Errorf("timestamp check should be skipped\n%s", out)
	}
	if g.ExitCode != ExitIssues {
		t.Errorf("ExitCode = %d, want %d", g.ExitCode, ExitIssues)
	}
}

func TestRunDiagnose_BadConfig(t *testing.T) {
	logPath := writeFile(t, "ecflow.log", threeDayLog)
	configPath := writeFile(t, "config.yaml", "trim_fraction: 2\n")
	g := &GlobalOptions{}

	out, err := execute(t, g, NewDiagnoseCommand(g), "--config", configPath, logPath)
	if err != nil {
		t.Fatalf("diagnose failed: %v", err)
	}
	if !strings.Contains(out, "[FAIL] Config") {
		t.Errorf("unexpected output\n%s", out)
	}
	if g.ExitCode != ExitIssues {
		t.Errorf("ExitCode = %d, want %d", g.ExitCode, ExitIssues)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long string", 10, "this is..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}

func TestStatusNames(t *testing.T) {
	names := statusNames()
	if len(names) == 0 {
		t.Fatal("no statuses")
	}
	for _, n := range names {
		if n == "" || strings.ContainsAny(n, " \t") {
			t.Errorf("bad status name %q", n)
		}
	}
}
