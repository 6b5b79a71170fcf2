package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/courtvision/internal/parser"
	"github.com/pable/courtvision/internal/pipeline"
)

var passesCmd = &cobra.Command{
	Use:   "passes <tracking.json>",
	Short: "Segment a tracking log into passes and archive them",
	Long: `Read a SportVU tracking log (plain, .gz, .bz2 or .zst), label the ball
possessor of every frame, cut passes at possessor changes and write them to
the pass archive (passes_dir) as <game>.json.gz.`,
	Args: cobra.ExactArgs(1),
	RunE: runPasses,
}

func runPasses(cmd *cobra.Command, args []string) error {
	raw, err := parser.ParseGame(args[0])
	if err != nil {
		return fmt.Errorf("parse game: %w", err)
	}
	passes, malformed, err := pipeline.Segment(raw.Frames, cfg.Thresholds())
	if err != nil {
		return fmt.Errorf("segment: %w", err)
	}
	path := parser.ArchivePath(cfg.PassesDir, raw.Game)
	if err := parser.WritePasses(path, passes); err != nil {
		return err
	}

	logger.Info("passes archived", "game", raw.Game, "path", path,
		"duplicate_events", raw.DuplicateEvents, "dropped_moments", raw.DroppedMoments)
	fmt.Fprintf(os.Stdout, "%s: %d frames (%d without ball), %d passes -> %s\n",
		raw.Game, len(raw.Frames), malformed, len(passes), path)
	return nil
}
