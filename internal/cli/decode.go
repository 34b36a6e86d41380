package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/sentdict/internal/engine"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Output string
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <stream-file>",
		Short: "Reconstruct the original text from a reference stream",
		Long: `Decode a reference stream back into the exact original bytes.

Output goes to stdout unless --output names a file. A stream that
references an id this dictionary does not hold fails with an
unresolved-reference error; the output is never silently substituted
or truncated.

Example:
  sentdict decode report.txt.dat
  sentdict decode report.txt.dat --output restored.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Output, "output", "", "write reconstructed text to a file instead of stdout")

	return cmd
}

func runDecode(opts *DecodeOptions, streamPath string, cmd *cobra.Command) error {
	in, err := os.Open(streamPath)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot read stream %s", streamPath), err)
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

	eng := engine.New(st, engine.Options{})

	if opts.Output == "" {
		if err := eng.Decode(cmd.Context(), in, cmd.OutOrStdout()); err != nil {
			return WrapExitError(ExitFailure, "decoding failed", err)
		}
		return nil
	}

	// Same temp-and-rename discipline as encode: a failed decode must
	// not leave partial output at the target path.
	tmp, err := os.CreateTemp(filepath.Dir(opts.Output), ".sentdict-decode-*")
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot create output", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := eng.Decode(cmd.Context(), in, tmp); err != nil {
		tmp.Close()
		return WrapExitError(ExitFailure, "decoding failed", err)
	}
	if err := tmp.Close(); err != nil {
		return WrapExitError(ExitFailure, "decoding failed", err)
	}
	if err := os.Rename(tmpName, opts.Output); err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("cannot write output %s", opts.Output), err)
	}
	return nil
}
