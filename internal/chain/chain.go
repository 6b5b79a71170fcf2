// Package chain reduces a play window's raw passes to a single connected
// chain of passes inside the team that had the ball.
package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pable/courtvision/internal/model"
	"github.com/pable/courtvision/internal/segment"
)

var (
	// ErrUnresolvableChain means the window's passes cannot be reduced to a
	// connected in-team chain. The window is kept without CombinedPasses.
	ErrUnresolvableChain = errors.New("unresolvable pass chain")

	// ErrInvariantViolation means a merged chain broke continuity or team
	// membership. It indicates a bug in Merge, not bad data.
	ErrInvariantViolation = errors.New("chain invariant violation")
)

// PlayerSet is a set of player ids.
type PlayerSet map[model.PlayerID]struct{}

// Has reports membership. None is never a member.
func (s PlayerSet) Has(id model.PlayerID) bool {
	if id == model.None {
		return false
	}
	_, ok := s[id]
	return ok
}

func setOf(players map[model.PlayerID]model.Position) PlayerSet {
	s := make(PlayerSet, len(players))
	for id := range players {
		s[id] = struct{}{}
	}
	return s
}

// PossessionTeam returns the player set of the team that had the ball, decided
// by majority over the window's passes. Rosters come from the first snapshot
// of the first pass; home wins when the number of passes received by home
// players (plus one if the first pass came from a home player) reaches half
// the pass count, rounded down.
func PossessionTeam(passes []model.Pass) PlayerSet {
	if len(passes) == 0 || len(passes[0].Snapshots) == 0 {
		return PlayerSet{}
	}
	first := passes[0].Snapshots[0]
	home, guest := setOf(first.HomePlayers), setOf(first.GuestPlayers)

	votes := 0
	for _, p := range passes {
		if home.Has(p.To) {
			votes++
		}
	}
	if home.Has(passes[0].From) {
		votes++
	}
	if votes >= len(passes)/2 {
		return home
	}
	return guest
}

// Merge folds the passes of one window into a chain inside team. A pass joins
// the chain as-is when it continues it and both ends are in team. Anything
// else opens (or extends) a pending pass that keeps its origin and takes the
// receiver of each absorbed pass, so a bobble or a tipped ball collapses into
// one logical pass. The pending pass closes once its receiver is back in team.
// A pending pass that closes without continuing the chain makes the window
// unresolvable; one still open at the end is dropped. A leading pass that
// starts outside team (inbound, loose ball) is trimmed.
func Merge(passes []model.Pass, team PlayerSet) ([]model.Pass, error) {
	var (
		out     []model.Pass
		pending *model.Pass
	)
	continues := func(p model.Pass) bool {
		return len(out) == 0 || out[len(out)-1].To == p.From
	}

	for _, p := range passes {
		if pending == nil && continues(p) && team.Has(p.From) && team.Has(p.To) {
			out = append(out, p)
			continue
		}
		if pending == nil {
			cp := clone(p)
			pending = &cp
		} else {
			absorb(pending, p)
		}
		if !team.Has(pending.To) {
			continue
		}
		if !continues(*pending) {
			return nil, fmt.Errorf("%w: %q does not continue from %q",
				ErrUnresolvableChain, pending.From, out[len(out)-1].To)
		}
		out = append(out, *pending)
		pending = nil
	}

	if len(out) > 0 && !team.Has(out[0].From) {
		out = out[1:]
	}
	if err := Validate(out, team); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks that every pass stays inside team and that each pass starts
// where the previous one ended.
func Validate(passes []model.Pass, team PlayerSet) error {
	for i, p := range passes {
		if !team.Has(p.From) || !team.Has(p.To) {
			return fmt.Errorf("%w: pass %d (%q -> %q) leaves the possession team",
				ErrInvariantViolation, i, p.From, p.To)
		}
		if i > 0 && passes[i-1].To != p.From {
			return fmt.Errorf("%w: pass %d starts at %q but previous ended at %q",
				ErrInvariantViolation, i, p.From, passes[i-1].To)
		}
	}
	return nil
}

func clone(p model.Pass) model.Pass {
	p.Snapshots = append([]model.Frame(nil), p.Snapshots...)
	return p
}

// absorb extends dst with src: snapshots, distance and duration add up, the
// receiver becomes src's receiver, and start-of-pass fields stay.
func absorb(dst *model.Pass, src model.Pass) {
	dst.To = src.To
	dst.Snapshots = append(dst.Snapshots, src.Snapshots...)
	dst.Distance += src.Distance
	dst.Duration += src.Duration
	dst.AverageSpeed = segment.AverageSpeed(dst.Snapshots)
}

// Combine runs PossessionTeam and Merge over a window and stores the chain in
// CombinedPasses. An empty chain leaves CombinedPasses nil without error.
func Combine(w *model.PlayWindow) error {
	w.CombinedPasses = nil
	if len(w.Passes) == 0 {
		return nil
	}
	merged, err := Merge(w.Passes, PossessionTeam(w.Passes))
	if err != nil {
		return err
	}
	if len(merged) > 0 {
		w.CombinedPasses = merged
	}
	return nil
}

// Attributed reports whether the window's outcome names one of the terminal
// participants of its chain: the second whitespace-separated token of the
// outcome (usually the acting player's surname) must be a substring of the
// last chain pass's from and to ids concatenated.
//
// This is a loose heuristic. Short or shared surnames match the wrong player
// and outcomes phrased differently miss; it is kept as-is so results stay
// comparable across runs.
func Attributed(w model.PlayWindow) bool {
	if len(w.CombinedPasses) == 0 {
		return false
	}
	tokens := strings.Split(w.Outcome, " ")
	if len(tokens) < 2 {
		return false
	}
	last := w.CombinedPasses[len(w.CombinedPasses)-1]
	return strings.Contains(string(last.From)+string(last.To), tokens[1])
}

// Filter returns the windows selected by Attributed, in order.
func Filter(windows []model.PlayWindow) []model.PlayWindow {
	out := []model.PlayWindow{}
	for _, w := range windows {
		if Attributed(w) {
			out = append(out, w)
		}
	}
	return out
}
