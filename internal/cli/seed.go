package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/sentdict/internal/engine"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Normalize bool
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <glob>",
		Short: "Ingest matching files into the dictionary",
		Long: `Ingest every file matching the glob pattern into the dictionary.

Each non-empty line becomes a sentence unit; known sentences have their
occurrence counts incremented, unknown ones are assigned the next id.
Re-seeding the same corpus never renumbers or duplicates ids.

Example:
  sentdict seed 'reports/*.txt' --db ./reports.db
  sentdict seed 'corpus/**.txt' --normalize --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Normalize, "normalize", false, "treat CRLF line endings as LF when hashing")

	return cmd
}

func runSeed(opts *SeedOptions, pattern string, cmd *cobra.Command) error {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid glob pattern %q", pattern), err)
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no files match %q", pattern))
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing dictionary", "error", closeErr)
		}
	}()

	eng := engine.New(st, engine.Options{NormalizeEOL: opts.Normalize})
	stats, err := eng.Seed(cmd.Context(), paths)
	if err != nil {
		return WrapExitError(ExitFailure, "seeding failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(stats)
	}
	return formatter.Success(fmt.Sprintf(
		"Seeded %d file(s): %d units, %d new sentences, %d duplicate hits, %d bytes",
		stats.Files, stats.Units, stats.NewSentences, stats.DuplicateHits, stats.BytesProcessed,
	))
}
