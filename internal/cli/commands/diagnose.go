package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nwpc-oper/workflow-log-collector/pkg/config"
	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
	"github.com/nwpc-oper/workflow-log-collector/pkg/parser"
)

// sampleLines is how many leading lines the timestamp check inspects.
const sampleLines = 10

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose <log-file>",
		Short: "Diagnose a log file and configuration before collecting",
		Long: `Diagnose common problems before running the node command.

This command checks:
- The configuration file, if --config is given
- Log file existence and accessibility
- The ecFlow timestamp format against the first lines
- Date span, malformed lines and out-of-order dates over the whole file
- Webhook configuration (and connectivity with -v)

Example:
  collector diagnose ecflow.log
  collector diagnose -v --config collector.yaml ecflow.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, g, args[0])
		},
	}
}

func runDiagnose(cmd *cobra.Command, g *GlobalOptions, logFile string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	verbose := g.Verbose > 0
	results := []DiagnosticResult{}

	cfg, result := checkConfig(ctx, g.ConfigFile)
	results = append(results, result)

	result = checkLogFile(logFile)
	results = append(results, result)
	if result.Status != "error" {
		results = append(results, checkTimestampFormat(logFile, verbose))
		results = append(results, checkLogSpan(ctx, logFile, cfg))
	}

	if cfg != nil {
		results = append(results, checkWebhooks(cfg, verbose)...)
	}

	if printDiagnostics(cmd.OutOrStdout(), results, verbose) > 0 {
		g.ExitCode = ExitIssues
	}
	return nil
}

func checkConfig(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config",
	}

	cfg, err := config.LoadOrDefault(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		switch {
		case errors.Is(err, os.ErrNotExist):
			result.Suggests = []string{"Check the --config path is correct"}
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		case errors.Is(err, ecflow.ErrUnknownStatus):
			result.Suggests = []string{
				"Known statuses: " + strings.Join(statusNames(), ", "),
			}
		}
		return nil, result
	}

	result.Status = "ok"
	if path == "" {
		result.Message = "No --config given, using defaults"
	} else {
		result.Message = fmt.Sprintf("Loaded %s", path)
	}
	result.Details = []string{
		fmt.Sprintf("Batch size: %d", cfg.BatchSize),
		fmt.Sprintf("Trim fraction: %v", cfg.TrimFraction),
		fmt.Sprintf("Expected first status: %q", cfg.ExpectedFirst()),
	}
	return cfg, result
}

func checkLogFile(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Log File: %s", path),
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Status = "error"
		result.Message = "File does not exist"
		result.Suggests = []string{
			"Check if the log file path is correct",
			"Use 'ls -la' to verify the file exists",
		}
	case err != nil:
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access file: %v", err)
		result.Suggests = []string{"Check file permissions"}
	case info.IsDir():
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
	case info.Size() == 0:
		result.Status = "error"
		result.Message = "File is empty (0 bytes)"
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
	}
	return result
}

func checkTimestampFormat(logFile string, verbose bool) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Timestamp Format",
	}

	r, err := parser.OpenBatchReader(logFile, sampleLines)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return result
	}
	defer r.Close()

	lines, err := r.Next(context.Background())
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return result
	}

	matchCount := 0
	var sampleMatch, sampleFail string
	for _, line := range lines {
		if _, err := parser.TimestampOf(line.Content); err == nil {
			matchCount++
			if sampleMatch == "" {
				sampleMatch = line.Content
			}
		} else if sampleFail == "" {
			sampleFail = line.Content
		}
	}

	switch {
	case matchCount == 0:
		result.Status = "error"
		result.Message = "No sample line carries an ecFlow timestamp"
		result.Suggests = []string{
			"Lines must look like: LOG:[04:36:51 1.6.2020]  submitted: /suite/task",
			"Check that this is an ecFlow server log",
		}
	case matchCount < len(lines)/2:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Timestamp found on only %d/%d sample lines", matchCount, len(lines))
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("Timestamp found on %d/%d sample lines", matchCount, len(lines))
		if verbose && sampleMatch != "" {
			result.Details = []string{"Sample match:", truncate(sampleMatch, 80)}
		}
	}
	if result.Status != "ok" && sampleFail != "" {
		result.Details = []string{"Sample line without timestamp:", truncate(sampleFail, 80)}
	}
	return result
}

// checkLogSpan reads the whole file once, the way the locator does, and
// reports what could make a located window inaccurate.
func checkLogSpan(ctx context.Context, logFile string, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Log Span",
	}

	size := config.DefaultBatchSize
	if cfg != nil {
		size = cfg.BatchSize
	}
	r, err := parser.OpenBatchReader(logFile, size)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return result
	}
	defer r.Close()

	var first, last time.Time
	malformed, outOfOrder := 0, 0
	firstOutOfOrder := 0
	for {
		batch, err := r.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Status = "warning"
			result.Message = fmt.Sprintf("Read failed after line %d: %v", r.NextLineNum()-1, err)
			return result
		}
		for _, line := range batch {
			d, err := parser.DateOf(line.Content)
			if err != nil {
				malformed++
				continue
			}
			if first.IsZero() {
				first = d
			}
			if d.Before(last) {
				outOfOrder++
				if firstOutOfOrder == 0 {
					firstOutOfOrder = line.LineNum
				}
			} else {
				last = d
			}
		}
	}

	total := r.NextLineNum() - 1
	if first.IsZero() {
		result.Status = "error"
		result.Message = fmt.Sprintf("No dated line in %d lines", total)
		return result
	}

	result.Details = []string{
		fmt.Sprintf("Lines: %d", total),
		fmt.Sprintf("Dates: %s to %s", first.Format(time.DateOnly), last.Format(time.DateOnly)),
		fmt.Sprintf("Lines without timestamp: %d", malformed),
	}

	switch {
	case outOfOrder > 0:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d line(s) dated before an earlier line, first at line %d", outOfOrder, firstOutOfOrder)
		result.Suggests = []string{"Date windows may be inaccurate around out-of-order lines"}
	case malformed > 0:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d line(s) without a timestamp", malformed)
		result.Suggests = []string{"A range boundary falling on such a line fails to locate"}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d lines from %s to %s", total, first.Format(time.DateOnly), last.Format(time.DateOnly))
	}
	return result
}

// printDiagnostics writes the results and returns the number of errors.
func printDiagnostics(w io.Writer, results []DiagnosticResult, verbose bool) int {
	fmt.Fprintln(w, "=== Collector Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		// Status icon
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before collecting.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nUsable, but check the warnings.")
	} else {
		fmt.Fprintln(w, "\nLooks good!")
	}

	return errCount
}

func checkWebhooks(cfg *config.Config, verbose bool) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	// Load already validated every webhook; what remains is reachability.
	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  "ok",
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}
		if verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}
		results = append(results, result)

		if verbose {
			conn := checkWebhookConnectivity(wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	// Just do a HEAD request to check if the endpoint is reachable
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func statusNames() []string {
	statuses := ecflow.Statuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}
	return names
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
