package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nwpc-oper/workflow-log-collector/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a collector configuration file without reading any log.

Checks:
  - YAML syntax
  - batch_size, trim_fraction and percentiles ranges
  - terminal_statuses and expected_first_status name known statuses
  - Webhook URLs and triggers`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	expected := string(cfg.ExpectedFirst())
	if expected == "" {
		expected = "(check disabled)"
	}
	statuses := make([]string, len(cfg.Terminal()))
	for i, s := range cfg.Terminal() {
		statuses[i] = s.String()
	}
	quantiles := make([]string, len(cfg.Percentiles))
	for i, q := range cfg.Percentiles {
		quantiles[i] = strconv.FormatFloat(q, 'f', -1, 64)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Batch size:        %d\n", cfg.BatchSize)
	fmt.Fprintf(w, "  Trim fraction:     %v\n", cfg.TrimFraction)
	fmt.Fprintf(w, "  Percentiles:       %s\n", strings.Join(quantiles, ", "))
	fmt.Fprintf(w, "  Terminal statuses: %s\n", strings.Join(statuses, ", "))
	fmt.Fprintf(w, "  Expected first:    %s\n", expected)
	if cfg.MetricsFile != "" {
		fmt.Fprintf(w, "  Metrics file:      %s\n", cfg.MetricsFile)
	}
	if cfg.Logging.File != "" {
		fmt.Fprintf(w, "  Log file:          %s\n", cfg.Logging.File)
	}

	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(w, "\nWebhooks:\n")
		for i, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}
			fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, wh.Trigger, name)
		}
	}

	return nil
}
