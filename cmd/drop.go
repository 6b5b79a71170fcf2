package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce bool
	dropGame  string
)

// dropCmd deletes the play database, or one game from it.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the play database or one stored game",
	Long: `Permanently delete the SQLite play database. All stored games will be lost.
Re-run plays or batch with --force afterwards to rebuild.

With --game, only that game's summary, plays and player stats are removed.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropGame, "game", "", "delete a single game by exact name")
}

func runDrop(cmd *cobra.Command, args []string) error {
	target := dbPath
	if dropGame != "" {
		target = fmt.Sprintf("game %s in %s", dropGame, dbPath)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", target)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	if dropGame != "" {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		removed, err := db.DeleteGame(dropGame)
		if err != nil {
			return fmt.Errorf("delete game: %w", err)
		}
		if !removed {
			fmt.Fprintf(os.Stdout, "Game %s is not stored, nothing to drop.\n", dropGame)
			return nil
		}
		fmt.Fprintf(os.Stdout, "Deleted: %s\n", target)
		return nil
	}

	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// WAL side files.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
