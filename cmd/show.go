package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/courtvision/internal/model"
)

var (
	showPlayer   string
	showFiltered bool
)

var showCmd = &cobra.Command{
	Use:   "show <game-prefix>",
	Short: "Show a stored game's plays and passing stats",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayer, "player", "", "highlight player (\"First Last\")")
	showCmd.Flags().BoolVar(&showFiltered, "filtered", false, "only plays whose outcome names a chain endpoint")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	summary, err := db.GetGameByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if summary == nil {
		fmt.Fprintf(os.Stderr, "No game found with prefix %q\n", args[0])
		return nil
	}
	return showGame(db, summary.Game, showFiltered, model.PlayerID(showPlayer))
}
