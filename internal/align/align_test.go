package align

import (
	"testing"

	"github.com/pable/courtvision/internal/model"
)

func pass(q int, clock float64, from, to model.PlayerID) model.Pass {
	return model.Pass{Quarter: q, GameClock: clock, From: from, To: to, Duration: 1}
}

func TestKeyBefore(t *testing.T) {
	tests := []struct {
		a, b Key
		want bool
	}{
		{Key{1, 700}, Key{1, 600}, true},
		{Key{1, 600}, Key{1, 700}, false},
		{Key{1, 10}, Key{2, 700}, true},
		{Key{2, 700}, Key{1, 10}, false},
		{Key{1, 600}, Key{1, 600}, false},
	}
	for _, tc := range tests {
		if got := tc.a.Before(tc.b); got != tc.want {
			t.Errorf("%v.Before(%v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestOutcomeTable(t *testing.T) {
	table := NewOutcomeTable([]model.Outcome{
		{Quarter: 2, SecLeft: 720, Outcome: "Start Period"},
		{Quarter: 1, SecLeft: 600, Outcome: "Miss A"},
		{Quarter: 1, SecLeft: 720, Outcome: "Start Period"},
		{Quarter: 1, SecLeft: 600, Outcome: "Make A", Weight: 2},
	})
	if table.Len() != 3 {
		t.Fatalf("Len = %d, want 3 distinct keys", table.Len())
	}
	if qs := table.Quarters(); len(qs) != 2 || qs[0] != 1 || qs[1] != 2 {
		t.Errorf("Quarters = %v, want [1 2]", qs)
	}
	q1 := table.Quarter(1)
	if len(q1) != 2 || q1[0].SecLeft != 720 || q1[1].SecLeft != 600 {
		t.Fatalf("quarter 1 order = %+v", q1)
	}
	if q1[1].Outcome != "Make A" || q1[1].Weight != 2 {
		t.Errorf("duplicate key should keep the last event, got %+v", q1[1])
	}
	if len(table.Quarter(3)) != 0 {
		t.Error("expected no events for quarter 3")
	}
}

func TestPassQueue(t *testing.T) {
	q := NewPassQueue([]model.Pass{
		pass(1, 500, "A", "B"),
		pass(2, 700, "C", "D"),
		pass(1, 650, "E", "F"),
		pass(1, 500, "G", "H"), // same key as the first, wins
	})
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}
	wantFrom := []model.PlayerID{"E", "G", "C"}
	for i, want := range wantFrom {
		head, ok := q.Peek()
		if !ok || head.From != want {
			t.Fatalf("peek %d = %q, want %q", i, head.From, want)
		}
		p, _ := q.Pop()
		if p.From != want {
			t.Fatalf("pop %d = %q, want %q", i, p.From, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("expected empty queue")
	}
	if _, ok := q.Peek(); ok {
		t.Error("expected empty peek")
	}
}

func TestAlign(t *testing.T) {
	table := NewOutcomeTable([]model.Outcome{
		{Quarter: 1, SecLeft: 720, Outcome: "Start Period"},
		{Quarter: 1, SecLeft: 700, Outcome: "Make A 2pt", Weight: 2},
		{Quarter: 1, SecLeft: 690, Outcome: "Miss B"},
		{Quarter: 1, SecLeft: 680, Outcome: "Make C 3pt", Weight: 3},
		{Quarter: 2, SecLeft: 720, Outcome: "Start Period"},
		{Quarter: 2, SecLeft: 710, Outcome: "Make D 2pt", Weight: 2},
	})
	zero := pass(1, 705, "Z", "Y")
	zero.Duration = 0

	res := Align([]model.Pass{
		pass(1, 715, "B", "A"),
		pass(1, 700, "C", "A"), // on the boundary: closes window 0
		zero,
		pass(1, 685, "A", "C"),
		pass(1, 670, "C", "B"), // after the last event of the quarter
		pass(2, 715, "D", "E"),
		pass(3, 600, "F", "G"), // quarter without events
	}, table)

	if len(res.Windows) != 4 {
		t.Fatalf("windows = %d, want 4", len(res.Windows))
	}
	if res.Ineligible != 1 {
		t.Errorf("ineligible = %d, want 1", res.Ineligible)
	}
	if res.Unassigned != 2 {
		t.Errorf("unassigned = %d, want 2", res.Unassigned)
	}

	w0 := res.Windows[0]
	if w0.Quarter != 1 || w0.PlayIndex != 0 || w0.SecLeftFrom != 720 || w0.SecLeftUntil != 700 {
		t.Errorf("window 0 bounds = %+v", w0)
	}
	if w0.Outcome != "Make A 2pt" || w0.Weight != 2 {
		t.Errorf("window 0 should carry its closing event, got %q w%d", w0.Outcome, w0.Weight)
	}
	if len(w0.Passes) != 2 || w0.Passes[0].GameClock != 715 || w0.Passes[1].GameClock != 700 {
		t.Errorf("window 0 passes = %+v", w0.Passes)
	}

	w1 := res.Windows[1]
	if w1.Passes == nil || len(w1.Passes) != 0 {
		t.Errorf("window 1 should be empty and non-nil, got %#v", w1.Passes)
	}
	if w1.Outcome != "Miss B" {
		t.Errorf("window 1 outcome = %q", w1.Outcome)
	}

	if w2 := res.Windows[2]; len(w2.Passes) != 1 || w2.Passes[0].From != "A" {
		t.Errorf("window 2 passes = %+v", w2.Passes)
	}
	if w3 := res.Windows[3]; w3.Quarter != 2 || w3.PlayIndex != 0 || len(w3.Passes) != 1 {
		t.Errorf("window 3 = %+v", w3)
	}

	// Every eligible pass is accounted for exactly once.
	assigned := 0
	for _, w := range res.Windows {
		assigned += len(w.Passes)
	}
	if assigned+res.Unassigned+res.Ineligible != 7 {
		t.Errorf("assigned %d + unassigned %d + ineligible %d != 7", assigned, res.Unassigned, res.Ineligible)
	}
}

func TestAlignSingleEventQuarter(t *testing.T) {
	table := NewOutcomeTable([]model.Outcome{{Quarter: 1, SecLeft: 720, Outcome: "Start Period"}})
	res := Align([]model.Pass{pass(1, 700, "A", "B")}, table)
	if len(res.Windows) != 0 || res.Unassigned != 1 {
		t.Errorf("windows = %d, unassigned = %d; want 0, 1", len(res.Windows), res.Unassigned)
	}
}
