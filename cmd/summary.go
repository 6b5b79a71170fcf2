package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/courtvision/internal/report"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about all games stored in the database:
game count, date range, players seen, how many plays carry a pass chain and
the busiest passers.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Games == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'courtvision batch' to add some.")
		return nil
	}
	report.PrintOverview(os.Stdout, ov)

	totals, err := db.PlayerPassTotals(nil)
	if err != nil {
		return fmt.Errorf("player totals: %w", err)
	}
	if len(totals) > 10 {
		totals = totals[:10]
	}
	fmt.Fprintf(os.Stdout, "\n--- Busiest Passers ---\n\n")
	report.PrintPlayerTotalsTable(os.Stdout, totals)
	return nil
}
