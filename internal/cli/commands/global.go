package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nwpc-oper/workflow-log-collector/internal/logging"
	"github.com/nwpc-oper/workflow-log-collector/pkg/config"
	"github.com/nwpc-oper/workflow-log-collector/pkg/locator"
	"github.com/nwpc-oper/workflow-log-collector/pkg/parser"
)

// Exit codes returned by the collector process.
const (
	ExitOK     = 0
	ExitIssues = 1
	ExitError  = 2
)

// GlobalOptions holds the root command's persistent flags and the exit
// code chosen by the subcommand that ran.
type GlobalOptions struct {
	ConfigFile string
	Verbose    int

	// ExitCode is set by commands to indicate the result.
	ExitCode int
}

// session is what every subcommand needs after flag parsing.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	logger zerolog.Logger
	closer io.Closer
}

// open loads the configuration and builds the logger. The caller must
// close the session.
func open(cmd *cobra.Command, g *GlobalOptions) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadOrDefault(ctx, g.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, closer := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}, cmd.ErrOrStderr(), g.Verbose)

	return &session{ctx: ctx, cfg: cfg, logger: logger, closer: closer}, nil
}

func (s *session) Close() error {
	return s.closer.Close()
}

// parseDateRange parses the --begin-date and --end-date flags. Either may
// be empty, meaning that side of the range is open.
func parseDateRange(begin, end string) (locator.DateRange, error) {
	var rng locator.DateRange
	var err error

	if begin != "" {
		if rng.Start, err = parser.ParseDate(begin); err != nil {
			return rng, fmt.Errorf("invalid --begin-date: %w", err)
		}
	}
	if end != "" {
		if rng.Stop, err = parser.ParseDate(end); err != nil {
			return rng, fmt.Errorf("invalid --end-date: %w", err)
		}
	}
	if !rng.Start.IsZero() && !rng.Stop.IsZero() && !rng.Stop.After(rng.Start) {
		return rng, errors.New("--end-date must be after --begin-date")
	}
	return rng, nil
}

// batchSize returns the --batch-size flag when set, else the configured value.
func batchSize(cmd *cobra.Command, flag int, cfg *config.Config) (int, error) {
	if !cmd.Flags().Changed("batch-size") {
		return cfg.BatchSize, nil
	}
	if flag < 1 {
		return 0, fmt.Errorf("invalid --batch-size %d: must be >= 1", flag)
	}
	return flag, nil
}
