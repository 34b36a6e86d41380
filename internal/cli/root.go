package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sentdict/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string
	ConfigPath string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sentdict CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sentdict",
		Short: "sentdict - persistent sentence dictionary",
		Long: `Build and query a persistent, content-addressed sentence dictionary.

Seed the dictionary from a corpus, encode files into compact reference
streams, and decode those streams back to the exact original bytes.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			// Config file supplies defaults; explicit flags win.
			explicit := cmd.Flags().Changed("config")
			cfg, err := LoadConfig(opts.ConfigPath, explicit)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			if cfg.Database != "" && !cmd.Flags().Changed("db") {
				opts.Database = cfg.Database
			}
			applyConfigDefaults(cmd, cfg)

			configureLogging(opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "sentdict.db", "path to the dictionary database")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", DefaultConfigFile, "path to an optional yaml defaults file")

	// Add subcommands
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

// applyConfigDefaults pushes config values into subcommand flags that
// the user did not set explicitly. Flags are looked up on the running
// command, so only the invoked subcommand is touched.
func applyConfigDefaults(cmd *cobra.Command, cfg Config) {
	if f := cmd.Flags().Lookup("mode"); f != nil && cfg.Mode != "" && !cmd.Flags().Changed("mode") {
		_ = f.Value.Set(cfg.Mode)
	}
	if f := cmd.Flags().Lookup("normalize"); f != nil && cfg.NormalizeEOL && !cmd.Flags().Changed("normalize") {
		_ = f.Value.Set("true")
	}
}

// configureLogging routes slog to stderr so json output stays clean.
func configureLogging(verbose bool) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// openStore opens the dictionary database for a command.
func openStore(opts *RootOptions) (*store.Store, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open dictionary", err)
	}
	return st, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
