// Package pipeline runs one game from tracking frames and play-by-play events
// to aligned, chain-merged play windows.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pable/courtvision/internal/align"
	"github.com/pable/courtvision/internal/chain"
	"github.com/pable/courtvision/internal/metrics"
	"github.com/pable/courtvision/internal/model"
	"github.com/pable/courtvision/internal/possession"
	"github.com/pable/courtvision/internal/segment"
)

// Options tunes a run.
type Options struct {
	Thresholds possession.Thresholds
	// Strict turns a chain invariant violation into a game failure instead of
	// an error log.
	Strict bool
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Result is the output of one game.
type Result struct {
	Game      string
	All       []model.PlayWindow
	Filtered  []model.PlayWindow
	Segmented []model.Pass // every pass fed to the aligner

	Frames       int
	Malformed    int
	Passes       int
	Ineligible   int // passes with non-positive duration
	Unassigned   int // passes outside every window
	Combined     int
	Unresolvable int
	Violations   int
	Quarters     int
}

// Counts converts the result into metric tallies.
func (r *Result) Counts() metrics.Counts {
	return metrics.Counts{
		Frames:       r.Frames,
		Malformed:    r.Malformed,
		Passes:       r.Passes,
		Windows:      len(r.All),
		Combined:     r.Combined,
		Filtered:     len(r.Filtered),
		Unresolvable: r.Unresolvable,
		Violations:   r.Violations,
	}
}

// Summary fills the stored game record from the result.
func (r *Result) Summary(sourceHash, runID, processedAt string) model.GameSummary {
	return model.GameSummary{
		Game:         r.Game,
		SourceHash:   sourceHash,
		RunID:        runID,
		ProcessedAt:  processedAt,
		Quarters:     r.Quarters,
		Frames:       r.Frames,
		Malformed:    r.Malformed,
		Passes:       r.Passes,
		Windows:      len(r.All),
		Combined:     r.Combined,
		Unresolvable: r.Unresolvable,
		Filtered:     len(r.Filtered),
	}
}

// Segment labels possessors and cuts passes. It returns the passes and the
// number of frames without a ball sample.
func Segment(frames []model.Frame, th possession.Thresholds) ([]model.Pass, int, error) {
	labels, malformed := possession.Label(frames, th)
	passes, err := segment.Passes(frames, labels)
	if err != nil {
		return nil, 0, err
	}
	return passes, malformed, nil
}

// Run processes a decoded game end to end.
func Run(raw *model.RawGame, events []model.Outcome, opts Options) (*Result, error) {
	passes, malformed, err := Segment(raw.Frames, opts.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", raw.Game, err)
	}
	res, err := Plays(raw.Game, passes, events, opts)
	if err != nil {
		return nil, err
	}
	res.Frames = len(raw.Frames)
	res.Malformed = malformed
	return res, nil
}

// Plays aligns already segmented passes against events and merges every
// window's chain. Window-level failures never fail the game, except invariant
// violations under Options.Strict.
func Plays(game string, passes []model.Pass, events []model.Outcome, opts Options) (*Result, error) {
	log := opts.logger().With("game", game)
	table := align.NewOutcomeTable(events)
	aligned := align.Align(passes, table)

	res := &Result{
		Game:       game,
		All:        aligned.Windows,
		Segmented:  passes,
		Passes:     len(passes),
		Ineligible: aligned.Ineligible,
		Unassigned: aligned.Unassigned,
		Quarters:   len(table.Quarters()),
	}
	if res.All == nil {
		res.All = []model.PlayWindow{}
	}

	for i := range res.All {
		w := &res.All[i]
		err := chain.Combine(w)
		switch {
		case err == nil:
			if w.CombinedPasses != nil {
				res.Combined++
			}
		case errors.Is(err, chain.ErrUnresolvableChain):
			res.Unresolvable++
			log.Debug("window left without a chain",
				"quarter", w.Quarter, "play", w.PlayIndex, "passes", len(w.Passes), "error", err)
		case errors.Is(err, chain.ErrInvariantViolation):
			res.Violations++
			log.Error("merged chain failed validation",
				"quarter", w.Quarter, "play", w.PlayIndex, "passes", len(w.Passes), "error", err)
			if opts.Strict {
				return nil, fmt.Errorf("quarter %d play %d: %w", w.Quarter, w.PlayIndex, err)
			}
		default:
			return nil, fmt.Errorf("quarter %d play %d: %w", w.Quarter, w.PlayIndex, err)
		}
	}

	res.Filtered = chain.Filter(res.All)
	log.Info("game processed",
		"passes", res.Passes, "windows", len(res.All), "combined", res.Combined,
		"filtered", len(res.Filtered), "unresolvable", res.Unresolvable, "unassigned", res.Unassigned)
	return res, nil
}
