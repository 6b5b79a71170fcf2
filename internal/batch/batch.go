// Package batch processes a directory of tracking logs concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/pable/courtvision/internal/aggregator"
	"github.com/pable/courtvision/internal/metrics"
	"github.com/pable/courtvision/internal/model"
	"github.com/pable/courtvision/internal/outcomes"
	"github.com/pable/courtvision/internal/parser"
	"github.com/pable/courtvision/internal/pipeline"
)

// Store persists processed games. *storage.DB satisfies it.
type Store interface {
	SaveGame(s model.GameSummary, windows, filtered []model.PlayWindow, stats []model.PlayerPassStats) error
}

// Options configures a batch run.
type Options struct {
	TrackingDir string
	PassesDir   string // optional pass archive
	AllDir      string
	FilteredDir string

	Workers int
	// Force reprocesses games whose output already exists.
	Force bool

	Pipeline pipeline.Options
	RunID    string
	Store    Store // optional
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
	Status   io.Writer // one colored line per game; nil disables

	now func() time.Time
}

// Report tallies a run.
type Report struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
	Failures  map[string]error
}

var (
	cOK   = color.New(color.FgGreen)
	cSkip = color.New(color.Faint)
	cFail = color.New(color.FgRed, color.Bold)
)

// trackingSuffixes are the tracking log forms batch picks up.
var trackingSuffixes = []string{".json", ".json.gz", ".json.bz2", ".json.zst"}

// Games lists tracking logs in dir, sorted by name.
func Games(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read tracking dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		for _, suf := range trackingSuffixes {
			if strings.HasSuffix(e.Name(), suf) {
				out = append(out, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Run processes every tracking log under opts.TrackingDir against the events
// in table (keyed by play-by-play game key). A failing game is counted and
// logged and never stops the others. Cancelling ctx stops scheduling new
// games and returns ctx.Err() once in-flight games finish.
func Run(ctx context.Context, table map[string][]model.Outcome, opts Options) (*Report, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	paths, err := Games(opts.TrackingDir)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("batch started", "run_id", opts.RunID, "games", len(paths), "workers", opts.Workers)

	r := &runner{opts: opts, table: table, report: &Report{RunID: opts.RunID, Failures: map[string]error{}}}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.game(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	opts.Logger.Info("batch finished", "run_id", opts.RunID,
		"processed", r.report.Processed, "skipped", r.report.Skipped, "failed", r.report.Failed)
	if err := ctx.Err(); err != nil {
		return r.report, err
	}
	return r.report, nil
}

type runner struct {
	opts  Options
	table map[string][]model.Outcome

	mu     sync.Mutex // guards report and serializes store writes
	report *Report
}

func (r *runner) game(ctx context.Context, path string) {
	game := parser.GameName(path)
	log := r.opts.Logger.With("game", game)
	start := r.opts.now()

	status, err := r.process(ctx, path, game, log)
	took := r.opts.now().Sub(start)
	r.opts.Metrics.Game(status, took)

	r.mu.Lock()
	defer r.mu.Unlock()
	switch status {
	case metrics.StatusProcessed:
		r.report.Processed++
		r.line(cOK, "ok    %s (%s)", game, took.Round(time.Millisecond))
	case metrics.StatusSkipped:
		r.report.Skipped++
		r.line(cSkip, "skip  %s", game)
	default:
		r.report.Failed++
		r.report.Failures[game] = err
		log.Error("game failed", "error", err)
		r.line(cFail, "FAIL  %s: %v", game, err)
	}
}

func (r *runner) line(c *color.Color, format string, args ...any) {
	if r.opts.Status == nil {
		return
	}
	c.Fprintf(r.opts.Status, format+"\n", args...)
}

// process runs one game and returns its metrics status.
func (r *runner) process(ctx context.Context, path, game string, log *slog.Logger) (string, error) {
	if err := ctx.Err(); err != nil {
		return metrics.StatusFailed, err
	}
	if err := os.MkdirAll(r.opts.AllDir, 0755); err != nil {
		return metrics.StatusFailed, fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(r.opts.AllDir, "."+game+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return metrics.StatusFailed, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		log.Info("game locked by another process, skipping")
		return metrics.StatusSkipped, nil
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release game lock", "error", err)
		}
	}()

	// Checked under the lock: another process may have finished the game
	// while this one waited.
	if !r.opts.Force {
		done, err := pipeline.OutputExists(r.opts.AllDir, game)
		if err != nil {
			return metrics.StatusFailed, err
		}
		if done {
			log.Debug("output exists, skipping")
			return metrics.StatusSkipped, nil
		}
	}

	key, err := parser.GameKey(game)
	if err != nil {
		return metrics.StatusFailed, err
	}
	events, ok := r.table[key]
	if !ok {
		return metrics.StatusFailed, fmt.Errorf("%w: %s", outcomes.ErrGameNotFound, key)
	}

	raw, err := parser.ParseGame(path)
	if err != nil {
		return metrics.StatusFailed, fmt.Errorf("parse game: %w", err)
	}
	if raw.DuplicateEvents > 0 || raw.DroppedMoments > 0 {
		log.Debug("tracking log cleaned",
			"duplicate_events", raw.DuplicateEvents, "dropped_moments", raw.DroppedMoments)
	}

	popts := r.opts.Pipeline
	popts.Logger = log
	res, err := pipeline.Run(raw, events, popts)
	if err != nil {
		return metrics.StatusFailed, err
	}
	if err := ctx.Err(); err != nil {
		return metrics.StatusFailed, err
	}

	if r.opts.PassesDir != "" {
		if err := parser.WritePasses(parser.ArchivePath(r.opts.PassesDir, game), res.Segmented); err != nil {
			return metrics.StatusFailed, fmt.Errorf("archive passes: %w", err)
		}
	}
	// The all-plays output marks the game as done, so it is written only
	// after the store holds the game.
	if r.opts.Store != nil {
		summary := res.Summary(raw.SourceHash, r.opts.RunID, r.opts.now().UTC().Format(time.RFC3339))
		if err := r.store(summary, res); err != nil {
			return metrics.StatusFailed, fmt.Errorf("store game: %w", err)
		}
	}
	if err := pipeline.WriteOutputs(r.opts.AllDir, r.opts.FilteredDir, res); err != nil {
		return metrics.StatusFailed, err
	}
	r.opts.Metrics.Add(res.Counts())
	return metrics.StatusProcessed, nil
}

func (r *runner) store(summary model.GameSummary, res *pipeline.Result) error {
	stats := aggregator.Aggregate(res.Game, res.All, res.Filtered)

	r.mu.Lock()
	defer r.mu.Unlock()
	return Persist(r.opts.Store, summary, res, stats)
}

// Persist writes one processed game. Its windows and player stats replace any
// previous rows for the game.
func Persist(s Store, summary model.GameSummary, res *pipeline.Result, stats []model.PlayerPassStats) error {
	return s.SaveGame(summary, res.All, res.Filtered, stats)
}

// Err joins the recorded failures, or returns nil when every game succeeded
// or was skipped.
func (r *Report) Err() error {
	if r.Failed == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Failures))
	for name := range r.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, fmt.Errorf("%s: %w", name, r.Failures[name]))
	}
	return errors.Join(errs...)
}
