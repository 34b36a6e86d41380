package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/sentdict/internal/dict"
	"github.com/roach88/sentdict/internal/engine"
	"github.com/roach88/sentdict/internal/store"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Input     string
	Output    string
	Mode      string
	Normalize bool
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode --input <file> [--output <file>]",
		Short: "Encode a file into a reference stream",
		Long: `Encode a file into a compact reference stream against the dictionary.

In grow mode (the default) unknown sentences are inserted into the
dictionary and referenced. In strict mode unknown sentences are carried
as literals and the dictionary is left completely untouched.

The mode is recorded on the dictionary the first time it is used;
encoding with a different mode later is refused, because mixing modes
makes dictionary growth nondeterministic.

Example:
  sentdict encode --input report.txt
  sentdict encode --input report.txt --output report.dat --mode strict`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Input, "input", "", "input text file (required)")
	cmd.Flags().StringVar(&opts.Output, "output", "", "output stream file (default <input>.dat)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "grow", "encode mode (grow|strict)")
	cmd.Flags().BoolVar(&opts.Normalize, "normalize", false, "treat CRLF line endings as LF when hashing")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runEncode(opts *EncodeOptions, cmd *cobra.Command) error {
	mode, err := dict.ParseMode(opts.Mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --mode", err)
	}

	output := opts.Output
	if output == "" {
		output = opts.Input + ".dat"
	}

	in, err := os.Open(opts.Input)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot read input %s", opts.Input), err)
	}
	defer in.Close()

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing dictionary", "error", closeErr)
		}
	}()

	// Write to a temp file beside the target and rename on success,
	// so a failed encode never leaves a truncated stream behind.
	tmp, err := os.CreateTemp(filepath.Dir(output), ".sentdict-encode-*")
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot create output", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after rename

	eng := engine.New(st, engine.Options{Mode: mode, NormalizeEOL: opts.Normalize})
	stats, err := eng.Encode(cmd.Context(), in, tmp)
	if err != nil {
		tmp.Close()
		if errors.Is(err, store.ErrModeConflict) {
			return WrapExitError(ExitCommandError, "encode mode conflicts with dictionary", err)
		}
		return WrapExitError(ExitFailure, "encoding failed", err)
	}
	if err := tmp.Close(); err != nil {
		return WrapExitError(ExitFailure, "encoding failed", err)
	}
	if err := os.Rename(tmpName, output); err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("cannot write output %s", output), err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(stats)
	}
	return formatter.Success(fmt.Sprintf(
		"Encoded %s -> %s: %d units (%d references, %d literals, %d blanks), %d new sentences",
		opts.Input, output, stats.Units, stats.References, stats.Literals, stats.Blanks, stats.NewSentences,
	))
}
