package aggregator

import (
	"sort"

	"github.com/pable/courtvision/internal/model"
)

// Aggregate computes per-player passing stats for one game from its aligned
// windows and the filtered subset. Passes from or to nobody are not credited.
func Aggregate(game string, windows, filtered []model.PlayWindow) []model.PlayerPassStats {
	byPlayer := make(map[model.PlayerID]*model.PlayerPassStats)
	get := func(id model.PlayerID) *model.PlayerPassStats {
		s, ok := byPlayer[id]
		if !ok {
			s = &model.PlayerPassStats{Game: game, Player: id}
			byPlayer[id] = s
		}
		return s
	}

	// ---- Pass 1: raw passes inside windows. ----
	for _, w := range windows {
		for _, p := range w.Passes {
			if p.From != model.None {
				s := get(p.From)
				s.PassesMade++
				s.TotalDistance += p.Distance
				s.TotalDuration += p.Duration
				s.TotalSpeed += p.AverageSpeed
			}
			if p.To != model.None {
				get(p.To).PassesReceived++
			}
		}

		// ---- Pass 2: merged chains. ----
		for _, p := range w.CombinedPasses {
			if p.From != model.None {
				get(p.From).ChainMade++
			}
			if p.To != model.None {
				get(p.To).ChainReceived++
			}
		}
	}

	// ---- Pass 3: who held the ball when a filtered play ended. ----
	for _, w := range filtered {
		if n := len(w.CombinedPasses); n > 0 {
			if last := w.CombinedPasses[n-1].To; last != model.None {
				get(last).PlaysFinished++
			}
		}
	}

	out := make([]model.PlayerPassStats, 0, len(byPlayer))
	for _, s := range byPlayer {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PassesMade != out[j].PassesMade {
			return out[i].PassesMade > out[j].PassesMade
		}
		return out[i].Player < out[j].Player
	})
	return out
}
