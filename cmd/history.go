package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pokearena/arena-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded verdicts",
	Long:  "Commands for listing and viewing verdicts recorded to the local history store.",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded verdicts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		contestant, _ := cmd.Flags().GetString("contestant")
		winner, _ := cmd.Flags().GetString("winner")
		limit, _ := cmd.Flags().GetInt("limit")

		records, err := st.ListVerdicts(ctx, store.Filter{
			Contestant: contestant,
			Winner:     winner,
			Limit:      limit,
		})
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No verdicts recorded.")
			return nil
		}

		formatHistoryList(os.Stdout, records)
		return nil
	},
}

// -- history show --

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the full verdict for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.GetVerdict(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "history show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	historyListCmd.Flags().String("contestant", "", "filter by contestant identifier (either side)")
	historyListCmd.Flags().String("winner", "", "filter by winner (side_a, side_b, draw)")
	historyListCmd.Flags().Int("limit", 50, "max number of verdicts to display")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens and migrates the configured history store.
func openHistory(ctx context.Context) (store.Store, error) {
	if cfg.History.Path == "" {
		return nil, eris.New("history.path is not configured")
	}

	st, err := store.NewSQLite(cfg.History.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open history store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate history store")
	}
	return st, nil
}

// formatHistoryList writes a tabular list of verdicts to w.
func formatHistoryList(out io.Writer, records []store.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tSIDE A\tSIDE B\tWINNER\tCONF\tCREATED")
	_, _ = fmt.Fprintln(w, "---\t------\t------\t------\t----\t-------")

	for _, rec := range records {
		v := rec.Verdict
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
			truncateID(v.RunID),
			v.SideA.Identifier,
			v.SideB.Identifier,
			v.Winner,
			v.Confidence*100,
			rec.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
