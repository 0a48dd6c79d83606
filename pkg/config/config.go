package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or returns the validated defaults when path is empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}

	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and resolves status names.
func Validate(cfg *Config) error {
	if cfg.BatchSize < 1 {
		return fmt.Errorf("batch_size: must be >= 1, got %d", cfg.BatchSize)
	}

	if cfg.TrimFraction < 0 || cfg.TrimFraction > 0.5 {
		return fmt.Errorf("trim_fraction: must be in [0, 0.5], got %v", cfg.TrimFraction)
	}

	for i, q := range cfg.Percentiles {
		if q < 0 || q > 1 {
			return fmt.Errorf("percentiles[%d]: must be in [0, 1], got %v", i, q)
		}
	}

	if len(cfg.TerminalStatuses) == 0 {
		return errors.New("terminal_statuses: at least one status is required")
	}

	cfg.terminal = cfg.terminal[:0]
	for i, name := range cfg.TerminalStatuses {
		s, err := ecflow.ParseStatus(name)
		if err != nil {
			return fmt.Errorf("terminal_statuses[%d]: %w", i, err)
		}
		cfg.terminal = append(cfg.terminal, s)
	}

	cfg.expectedFirst = ""
	if cfg.ExpectedFirstStatus != "" {
		s, err := ecflow.ParseStatus(cfg.ExpectedFirstStatus)
		if err != nil {
			return fmt.Errorf("expected_first_status: %w", err)
		}
		cfg.expectedFirst = s
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// ValidateWebhook checks a single webhook and fills in defaults.
func ValidateWebhook(wh *WebhookConfig) error {
	return validateWebhook(wh)
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnIssues, WebhookTriggerAlways, WebhookTriggerNever:
			// Valid
		default:
			return fmt.Errorf("invalid trigger %q (must be on_issues, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnIssues
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
