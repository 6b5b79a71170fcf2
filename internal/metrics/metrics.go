// Package metrics counts pipeline work in a private Prometheus registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "courtvision"

// Game outcome labels.
const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Recorder holds the pipeline collectors. A nil *Recorder is valid and
// records nothing, so library code never has to check.
type Recorder struct {
	registry *prometheus.Registry

	games        *prometheus.CounterVec
	frames       prometheus.Counter
	malformed    prometheus.Counter
	passes       prometheus.Counter
	windows      prometheus.Counter
	combined     prometheus.Counter
	filtered     prometheus.Counter
	unresolvable prometheus.Counter
	violations   prometheus.Counter
	gameDuration prometheus.Histogram
}

// New registers all collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		games: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "games_total",
			Help: "Games handled, by status.",
		}, []string{"status"}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_total",
			Help: "Tracking frames read.",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "malformed_frames_total",
			Help: "Frames without a ball sample.",
		}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "passes_total",
			Help: "Passes segmented from possessor changes.",
		}),
		windows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "play_windows_total",
			Help: "Play windows aligned against play-by-play events.",
		}),
		combined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "combined_windows_total",
			Help: "Play windows with a validated pass chain.",
		}),
		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "filtered_windows_total",
			Help: "Play windows whose outcome names a chain endpoint.",
		}),
		unresolvable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "unresolvable_chains_total",
			Help: "Play windows whose passes could not form a chain.",
		}),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "chain_invariant_violations_total",
			Help: "Merged chains that failed validation.",
		}),
		gameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "game_duration_seconds",
			Help:    "Wall time to process one game.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	r.registry.MustRegister(
		r.games, r.frames, r.malformed, r.passes, r.windows,
		r.combined, r.filtered, r.unresolvable, r.violations, r.gameDuration,
	)
	return r
}

// Registry exposes the underlying registry for HTTP exposition.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// Game records the final status of one game.
func (r *Recorder) Game(status string, took time.Duration) {
	if r == nil {
		return
	}
	r.games.WithLabelValues(status).Inc()
	if status == StatusProcessed {
		r.gameDuration.Observe(took.Seconds())
	}
}

// Counts is the per-game tally added to the counters.
type Counts struct {
	Frames, Malformed, Passes, Windows           int
	Combined, Filtered, Unresolvable, Violations int
}

// Add adds a game's tallies.
func (r *Recorder) Add(c Counts) {
	if r == nil {
		return
	}
	r.frames.Add(float64(c.Frames))
	r.malformed.Add(float64(c.Malformed))
	r.passes.Add(float64(c.Passes))
	r.windows.Add(float64(c.Windows))
	r.combined.Add(float64(c.Combined))
	r.filtered.Add(float64(c.Filtered))
	r.unresolvable.Add(float64(c.Unresolvable))
	r.violations.Add(float64(c.Violations))
}

// WriteFile dumps the registry in the node-exporter textfile format.
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// Runtime returns a registry with the Go runtime and process collectors, for
// long-running processes that do not process games themselves.
func Runtime() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
