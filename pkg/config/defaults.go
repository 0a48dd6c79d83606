package config

import (
	"os"
	"strconv"
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
	"github.com/nwpc-oper/workflow-log-collector/pkg/parser"
	"github.com/nwpc-oper/workflow-log-collector/pkg/stats"
)

// Default values for configuration.
const (
	DefaultBatchSize      = parser.DefaultBatchSize
	DefaultTrimFraction   = stats.DefaultTrimFraction
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvBatchSize   = "COLLECTOR_BATCH_SIZE"
	EnvMetricsFile = "COLLECTOR_METRICS_FILE"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:           DefaultBatchSize,
		TrimFraction:        DefaultTrimFraction,
		Percentiles:         []float64{0.5, 0.9},
		TerminalStatuses:    []string{string(ecflow.StatusComplete)},
		ExpectedFirstStatus: string(ecflow.StatusSubmitted),
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		}
	}

	if path := os.Getenv(EnvMetricsFile); path != "" {
		c.MetricsFile = path
	}
}
