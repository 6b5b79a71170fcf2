// Package align buckets passes into play windows bounded by consecutive
// play-by-play events of the same quarter.
package align

import (
	"sort"

	"github.com/pable/courtvision/internal/model"
)

// Key is a game-time instant. Chronological order is quarter ascending, then
// seconds left descending.
type Key struct {
	Quarter int
	SecLeft float64
}

// Before reports whether k happens strictly earlier in the game than o.
func (k Key) Before(o Key) bool {
	if k.Quarter != o.Quarter {
		return k.Quarter < o.Quarter
	}
	return k.SecLeft > o.SecLeft
}

// OutcomeTable is an ordered map of play-by-play events keyed by (Quarter, SecLeft).
type OutcomeTable struct {
	byKey map[Key]model.Outcome
	keys  []Key
}

// NewOutcomeTable indexes events by key. When several events share a key the
// last one in input order wins.
func NewOutcomeTable(events []model.Outcome) *OutcomeTable {
	t := &OutcomeTable{byKey: make(map[Key]model.Outcome, len(events))}
	for _, e := range events {
		k := Key{Quarter: e.Quarter, SecLeft: e.SecLeft}
		if _, seen := t.byKey[k]; !seen {
			t.keys = append(t.keys, k)
		}
		t.byKey[k] = e
	}
	sort.Slice(t.keys, func(i, j int) bool { return t.keys[i].Before(t.keys[j]) })
	return t
}

// Len returns the number of distinct keys.
func (t *OutcomeTable) Len() int { return len(t.keys) }

// Quarters returns the quarters present, ascending.
func (t *OutcomeTable) Quarters() []int {
	var out []int
	for _, k := range t.keys {
		if len(out) == 0 || out[len(out)-1] != k.Quarter {
			out = append(out, k.Quarter)
		}
	}
	return out
}

// Quarter returns the events of quarter q in chronological order.
func (t *OutcomeTable) Quarter(q int) []model.Outcome {
	var out []model.Outcome
	for _, k := range t.keys {
		if k.Quarter == q {
			out = append(out, t.byKey[k])
		}
	}
	return out
}

// PassQueue is a destructive, chronologically ordered queue of passes.
type PassQueue struct {
	passes []model.Pass
	head   int
}

// NewPassQueue orders passes chronologically. Passes sharing a
// (Quarter, GameClock) key collapse to the last one in input order.
func NewPassQueue(passes []model.Pass) *PassQueue {
	idx := make(map[Key]int, len(passes))
	var uniq []model.Pass
	for _, p := range passes {
		k := Key{Quarter: p.Quarter, SecLeft: p.GameClock}
		if i, ok := idx[k]; ok {
			uniq[i] = p
			continue
		}
		idx[k] = len(uniq)
		uniq = append(uniq, p)
	}
	sort.SliceStable(uniq, func(i, j int) bool {
		return Key{uniq[i].Quarter, uniq[i].GameClock}.Before(Key{uniq[j].Quarter, uniq[j].GameClock})
	})
	return &PassQueue{passes: uniq}
}

// Len returns the number of passes not yet popped.
func (q *PassQueue) Len() int { return len(q.passes) - q.head }

// Peek returns the earliest unconsumed pass without removing it.
func (q *PassQueue) Peek() (model.Pass, bool) {
	if q.Len() == 0 {
		return model.Pass{}, false
	}
	return q.passes[q.head], true
}

// Pop removes and returns the earliest unconsumed pass.
func (q *PassQueue) Pop() (model.Pass, bool) {
	p, ok := q.Peek()
	if ok {
		q.head++
	}
	return p, ok
}

// Result is the output of Align.
type Result struct {
	Windows []model.PlayWindow
	// Unassigned counts eligible passes that fell in no window: before the
	// last event of their quarter, or in a quarter with no events.
	Unassigned int
	// Ineligible counts passes dropped for a non-positive duration.
	Ineligible int
}

// Align assigns every pass to the window whose closing event happened right
// after it. For each quarter the events, newest first by seconds left, define
// windows [next, current); the window carries the closing event's Outcome and
// Weight. Each window pops passes off its quarter's queue while the head pass
// started at or above the window's lower bound. Every consecutive event pair
// yields a window, possibly with no passes.
func Align(passes []model.Pass, table *OutcomeTable) Result {
	var res Result

	byQuarter := make(map[int][]model.Pass)
	for _, p := range passes {
		if p.Duration <= 0 {
			res.Ineligible++
			continue
		}
		byQuarter[p.Quarter] = append(byQuarter[p.Quarter], p)
	}

	seen := make(map[int]bool)
	for _, q := range table.Quarters() {
		seen[q] = true
		queue := NewPassQueue(byQuarter[q])
		events := table.Quarter(q)

		for k := 0; k+1 < len(events); k++ {
			cur, next := events[k], events[k+1]
			w := model.PlayWindow{
				Quarter:      q,
				PlayIndex:    k,
				SecLeftFrom:  cur.SecLeft,
				SecLeftUntil: next.SecLeft,
				Outcome:      next.Outcome,
				Weight:       next.Weight,
				Passes:       []model.Pass{},
			}
			for {
				head, ok := queue.Peek()
				if !ok || head.GameClock < next.SecLeft {
					break
				}
				queue.Pop()
				w.Passes = append(w.Passes, head)
			}
			res.Windows = append(res.Windows, w)
		}
		res.Unassigned += queue.Len()
	}

	for q, ps := range byQuarter {
		if !seen[q] {
			res.Unassigned += len(ps)
		}
	}
	return res
}
