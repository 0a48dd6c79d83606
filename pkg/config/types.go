// Package config provides configuration loading and validation for the collector.
package config

import (
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// BatchSize is the number of log lines read per batch.
	BatchSize int `yaml:"batch_size"`

	// TrimFraction is the share of samples cut from each end for the trimmed mean.
	TrimFraction float64 `yaml:"trim_fraction"`

	// Percentiles lists the quantiles (0..1) reported alongside the means.
	Percentiles []float64 `yaml:"percentiles,omitempty"`

	// TerminalStatuses end a node's day.
	TerminalStatuses []string `yaml:"terminal_statuses"`

	// ExpectedFirstStatus must be the first status of a completed day.
	// Empty disables the check.
	ExpectedFirstStatus string `yaml:"expected_first_status"`

	// MetricsFile, if set, receives the run's metrics in Prometheus text format.
	MetricsFile string `yaml:"metrics_file,omitempty"`

	Logging  LoggingConfig   `yaml:"logging,omitempty"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`

	// Parsed statuses (populated during validation)
	terminal      []ecflow.NodeStatus
	expectedFirst ecflow.NodeStatus
}

// Terminal returns the validated terminal statuses.
func (c *Config) Terminal() []ecflow.NodeStatus {
	return c.terminal
}

// ExpectedFirst returns the validated expected first status, empty if disabled.
func (c *Config) ExpectedFirst() ecflow.NodeStatus {
	return c.expectedFirst
}

// LoggingConfig controls the collector's own log output.
type LoggingConfig struct {
	// Level is the base level (trace, debug, info, warn, error); -v lowers it.
	Level string `yaml:"level,omitempty"`

	// File is an optional JSON log file, rotated by size.
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnIssues fires only when some day was incomplete or anomalous (default).
	WebhookTriggerOnIssues WebhookTrigger = "on_issues"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_issues" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
