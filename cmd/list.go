package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/courtvision/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored games",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	games, err := db.ListGames()
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	if len(games) == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'courtvision plays <tracking.json>' or 'courtvision batch' to add some.")
		return nil
	}
	report.PrintGamesTable(os.Stdout, games)

	run, err := db.LatestRun()
	if err != nil {
		return fmt.Errorf("latest run: %w", err)
	}
	if run != nil {
		fmt.Fprintf(os.Stdout, "\nLast batch %s started %s: %d processed, %d skipped, %d failed\n",
			run.RunID, run.StartedAt, run.Processed, run.Skipped, run.Failed)
	}
	return nil
}
