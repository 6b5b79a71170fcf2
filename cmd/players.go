package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/courtvision/internal/model"
	"github.com/pable/courtvision/internal/report"
)

var playerNames []string

var playersCmd = &cobra.Command{
	Use:   "players [game-prefix]",
	Short: "Show passing stats per player",
	Long: `Without arguments, print passing totals across every stored game,
optionally limited to --name players. With a game prefix, print that game's
per-player stats.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlayers,
}

func init() {
	playersCmd.Flags().StringArrayVar(&playerNames, "name", nil, "player name (\"First Last\"), repeatable")
}

func runPlayers(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		totals, err := db.PlayerPassTotals(playerNames)
		if err != nil {
			return fmt.Errorf("player totals: %w", err)
		}
		if len(totals) == 0 {
			fmt.Fprintln(os.Stdout, "No player stats stored.")
			return nil
		}
		report.PrintPlayerTotalsTable(os.Stdout, totals)
		return nil
	}

	summary, err := db.GetGameByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if summary == nil {
		return fmt.Errorf("game not found: %s", args[0])
	}
	stats, err := db.GetPlayerPassStats(summary.Game)
	if err != nil {
		return fmt.Errorf("get player stats: %w", err)
	}
	var focus model.PlayerID
	if len(playerNames) == 1 {
		focus = model.PlayerID(playerNames[0])
	}
	report.PrintGameSummary(os.Stdout, *summary)
	report.PrintPlayerTable(os.Stdout, stats, focus)
	return nil
}
