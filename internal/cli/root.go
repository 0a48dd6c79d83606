// Package cli provides the command-line interface for the workflow log collector.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nwpc-oper/workflow-log-collector/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	g := &commands.GlobalOptions{}
	rootCmd := NewRootCommand(g)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return commands.ExitError
	}
	return g.ExitCode
}

// NewRootCommand creates the root cobra command. Persistent flags are bound
// to g, which also carries the exit code chosen by the subcommand.
func NewRootCommand(g *commands.GlobalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "collector",
		Short: "Collect node timing statistics from ecFlow logs",
		Long: `The collector reads an ecFlow server log and reports, day by day, when a
node first reached a given status.

It locates the lines of a date range in the log, extracts the events of
one node, classifies every day's run and summarizes the sampled times
with a mean and a trimmed mean.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.ConfigFile, "config", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().CountVarP(&g.Verbose, "verbose", "v", "Verbose output (repeat for debug logging)")

	// Add subcommands
	rootCmd.AddCommand(commands.NewNodeCommand(g))
	rootCmd.AddCommand(commands.NewRangeCommand(g))
	rootCmd.AddCommand(commands.NewRecordsCommand(g))
	rootCmd.AddCommand(commands.NewDiagnoseCommand(g))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
