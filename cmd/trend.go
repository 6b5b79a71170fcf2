package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/courtvision/internal/report"
)

var trendCmd = &cobra.Command{
	Use:   "trend <\"First Last\">",
	Short: "Chronological per-game passing trend for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.PlayerTrend(args[0])
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("no games found")
		return nil
	}
	report.PrintTrendTable(os.Stdout, stats)
	return nil
}
