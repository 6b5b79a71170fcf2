package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/courtvision/internal/aggregator"
	"github.com/pable/courtvision/internal/batch"
	"github.com/pable/courtvision/internal/metrics"
	"github.com/pable/courtvision/internal/model"
	"github.com/pable/courtvision/internal/outcomes"
	"github.com/pable/courtvision/internal/parser"
	"github.com/pable/courtvision/internal/pipeline"
	"github.com/pable/courtvision/internal/report"
	"github.com/pable/courtvision/internal/storage"
)

var (
	playsPlayer  string
	playsNoStore bool
	playsForce   bool
)

var playsCmd = &cobra.Command{
	Use:   "plays <tracking.json | game>",
	Short: "Attribute pass chains to the plays of one game",
	Long: `Align a game's passes with its play-by-play events, merge each play's
passes into a validated chain and write all and filtered plays as JSON.

The argument is either a tracking log, which is segmented first, or a game
name such as 01.22.2016.LAC.at.NYK whose passes were archived by 'passes'.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlays,
}

func init() {
	playsCmd.Flags().StringVar(&playsPlayer, "player", "", "highlight player (\"First Last\")")
	playsCmd.Flags().BoolVar(&playsNoStore, "no-store", false, "write JSON outputs only, skip the database")
	playsCmd.Flags().BoolVar(&playsForce, "force", false, "reprocess even if the same source is already stored")
}

func runPlays(cmd *cobra.Command, args []string) error {
	start := time.Now()
	popts := pipeline.Options{Thresholds: cfg.Thresholds(), Strict: cfg.Strict, Logger: logger}

	var (
		db  *storage.DB
		err error
	)
	if !playsNoStore {
		db, err = openDB()
		if err != nil {
			return err
		}
		defer db.Close()
	}

	var (
		res        *pipeline.Result
		sourceHash string
	)
	if info, statErr := os.Stat(args[0]); statErr == nil && !info.IsDir() {
		raw, err := parser.ParseGame(args[0])
		if err != nil {
			return fmt.Errorf("parse game: %w", err)
		}
		sourceHash = raw.SourceHash
		if db != nil && !playsForce {
			exists, err := db.GameExists(raw.Game, raw.SourceHash)
			if err != nil {
				return fmt.Errorf("check game: %w", err)
			}
			if exists {
				fmt.Fprintf(os.Stdout, "Game %s already stored, showing cached results.\n", raw.Game)
				return showGame(db, raw.Game, false, model.PlayerID(playsPlayer))
			}
		}
		events, err := gameEvents(raw.Game)
		if err != nil {
			return err
		}
		if res, err = pipeline.Run(raw, events, popts); err != nil {
			return err
		}
	} else {
		game := args[0]
		passes, err := parser.ReadPasses(parser.ArchivePath(cfg.PassesDir, game))
		if err != nil {
			return fmt.Errorf("no tracking log or pass archive for %q: %w", game, err)
		}
		events, err := gameEvents(game)
		if err != nil {
			return err
		}
		if res, err = pipeline.Plays(game, passes, events, popts); err != nil {
			return err
		}
	}

	summary := res.Summary(sourceHash, "", time.Now().UTC().Format(time.RFC3339))
	stats := aggregator.Aggregate(res.Game, res.All, res.Filtered)
	if db != nil {
		if err := batch.Persist(db, summary, res, stats); err != nil {
			return fmt.Errorf("store game: %w", err)
		}
	}
	if err := pipeline.WriteOutputs(cfg.OutputAllDir, cfg.OutputFilteredDir, res); err != nil {
		return err
	}

	rec := metrics.New()
	rec.Add(res.Counts())
	rec.Game(metrics.StatusProcessed, time.Since(start))
	if err := rec.WriteFile(cfg.MetricsFile); err != nil {
		logger.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
	}

	report.PrintGameSummary(os.Stdout, summary)
	report.PrintPlayTable(os.Stdout, res.All, res.Filtered)
	fmt.Fprintln(os.Stdout)
	report.PrintPlayerTable(os.Stdout, stats, model.PlayerID(playsPlayer))
	return nil
}

// gameEvents loads the play-by-play outcomes of a game named by its tracking
// file stem.
func gameEvents(game string) ([]model.Outcome, error) {
	key, err := parser.GameKey(game)
	if err != nil {
		return nil, err
	}
	events, err := outcomes.Load(cfg.OutcomesPath, key)
	if err != nil {
		return nil, fmt.Errorf("load events for %s: %w", key, err)
	}
	return events, nil
}

// showGame prints a stored game.
func showGame(db *storage.DB, game string, filteredOnly bool, focus model.PlayerID) error {
	summary, err := db.GetGameByPrefix(game)
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if summary == nil {
		return fmt.Errorf("game not found: %s", game)
	}
	windows, err := db.GetPlayWindows(summary.Game, filteredOnly)
	if err != nil {
		return fmt.Errorf("get play windows: %w", err)
	}
	stats, err := db.GetPlayerPassStats(summary.Game)
	if err != nil {
		return fmt.Errorf("get player stats: %w", err)
	}

	report.PrintGameSummary(os.Stdout, *summary)
	report.PrintWindowTable(os.Stdout, windows)
	fmt.Fprintln(os.Stdout)
	report.PrintPlayerTable(os.Stdout, stats, focus)
	return nil
}
