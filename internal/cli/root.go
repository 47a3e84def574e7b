package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/cnl/internal/logs"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is the path of a cnl.cue file. Empty looks for one in the
	// working directory.
	Config string

	// Catalog and Database override the config file when set.
	Catalog  string
	Database string

	// NoBuiltin leaves the built-in tactics out of the registry.
	NoBuiltin bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cnl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cnl",
		Short: "cnl - controlled natural language tactics",
		Long: `Parse, predict and check documents written in a controlled natural
language, translating each recognized sentence into a proof command.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose {
				return logs.SetLevel("debug")
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./cnl.cue when present)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "tactic catalog directory")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "transcript database path")
	cmd.PersistentFlags().BoolVar(&opts.NoBuiltin, "no-builtin", false, "leave out the built-in tactics")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewPredictCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
