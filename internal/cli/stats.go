package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sentdict/internal/store"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Top int
}

// TopEntry is one row of the top-sentences report.
type TopEntry struct {
	ID          int64  `json:"id"`
	Occurrences int64  `json:"occurrences"`
	Bytes       int    `json:"bytes"`
	Text        string `json:"text"`
}

// StatsResult is the full stats payload.
type StatsResult struct {
	Stats store.Stats `json:"stats"`
	Top   []TopEntry  `json:"top"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dictionary statistics",
		Long: `Show dictionary statistics: unique sentence count, occurrence totals,
stored vs logical byte volume, and the most frequent sentences.

Example:
  sentdict stats --db ./reports.db --top 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Top, "top", 10, "number of top sentences to show")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing dictionary", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	stats, err := st.Stats(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read statistics", err)
	}

	sentences, err := st.TopSentences(ctx, opts.Top)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read top sentences", err)
	}

	result := StatsResult{Stats: stats, Top: make([]TopEntry, 0, len(sentences))}
	for _, s := range sentences {
		result.Top = append(result.Top, TopEntry{
			ID:          s.ID,
			Occurrences: s.Occurrences,
			Bytes:       len(s.Raw),
			Text:        string(s.Raw),
		})
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(formatStatsText(result))
}

// formatStatsText renders the deterministic text report. Sentence
// previews are truncated so one pathological line cannot wreck the
// layout.
func formatStatsText(r StatsResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dictionary statistics\n")
	fmt.Fprintf(&b, "  unique sentences:  %d\n", r.Stats.UniqueSentences)
	fmt.Fprintf(&b, "  total occurrences: %d\n", r.Stats.TotalOccurrences)
	fmt.Fprintf(&b, "  stored bytes:      %d\n", r.Stats.StoredBytes)
	fmt.Fprintf(&b, "  logical bytes:     %d\n", r.Stats.LogicalBytes)
	fmt.Fprintf(&b, "  deduplicated:      %d\n", r.Stats.LogicalBytes-r.Stats.StoredBytes)

	if len(r.Top) > 0 {
		fmt.Fprintf(&b, "\nTop sentences\n")
		for i, e := range r.Top {
			fmt.Fprintf(&b, "  %2d. [id %d] x%d %s\n", i+1, e.ID, e.Occurrences, preview(e.Text))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

const previewLimit = 60

func preview(text string) string {
	if len(text) > previewLimit {
		text = text[:previewLimit] + "..."
	}
	return fmt.Sprintf("%q", text)
}
