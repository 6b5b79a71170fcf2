package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pable/courtvision/internal/batch"
	"github.com/pable/courtvision/internal/metrics"
	"github.com/pable/courtvision/internal/outcomes"
	"github.com/pable/courtvision/internal/pipeline"
	"github.com/pable/courtvision/internal/storage"
)

var (
	batchForce   bool
	batchWorkers int
	batchNoStore bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process every tracking log in tracking_dir",
	Long: `Process every tracking log under tracking_dir concurrently. Games whose
output already exists are skipped unless --force is given. A failing game is
reported and never stops the others. Interrupting the run lets in-flight games
finish and leaves completed outputs in place.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchForce, "force", false, "reprocess games whose output already exists")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent games (default from config)")
	batchCmd.Flags().BoolVar(&batchNoStore, "no-store", false, "write JSON outputs only, skip the database")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers := cfg.Workers
	if batchWorkers > 0 {
		workers = batchWorkers
	}

	table, err := outcomes.LoadAll(cfg.OutcomesPath)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	rec := metrics.New()
	opts := batch.Options{
		TrackingDir: cfg.TrackingDir,
		PassesDir:   cfg.PassesDir,
		AllDir:      cfg.OutputAllDir,
		FilteredDir: cfg.OutputFilteredDir,
		Workers:     workers,
		Force:       batchForce,
		Pipeline:    pipeline.Options{Thresholds: cfg.Thresholds(), Strict: cfg.Strict},
		RunID:       runID,
		Metrics:     rec,
		Logger:      logger,
		Status:      os.Stdout,
	}

	var db *storage.DB
	if !batchNoStore {
		db, err = openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.StartRun(runID, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		opts.Store = db
	}

	rep, runErr := batch.Run(ctx, table, opts)
	if rep != nil {
		if db != nil {
			if err := db.FinishRun(storage.Run{
				RunID:      runID,
				FinishedAt: time.Now().UTC().Format(time.RFC3339),
				Processed:  rep.Processed,
				Skipped:    rep.Skipped,
				Failed:     rep.Failed,
			}); err != nil {
				logger.Warn("failed to record run result", "run_id", runID, "error", err)
			}
		}
		fmt.Fprintf(os.Stdout, "\nRun %s: %d processed, %d skipped, %d failed\n",
			runID, rep.Processed, rep.Skipped, rep.Failed)
	}
	if err := rec.WriteFile(cfg.MetricsFile); err != nil {
		logger.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
	}
	if runErr != nil {
		return runErr
	}
	if rep.Failed > 0 {
		return fmt.Errorf("%d game(s) failed", rep.Failed)
	}
	return nil
}
