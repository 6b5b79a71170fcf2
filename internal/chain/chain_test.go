package chain

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/pable/courtvision/internal/model"
)

// Home: A, B, C, E. Guest: D, G.
var (
	homeRoster  = map[model.PlayerID]model.Position{"A": {}, "B": {}, "C": {}, "E": {}}
	guestRoster = map[model.PlayerID]model.Position{"D": {}, "G": {}}
)

func pass(from, to model.PlayerID) model.Pass {
	return model.Pass{
		From: from, To: to, Distance: 10, Duration: 1,
		Snapshots: []model.Frame{{
			Ball:         &model.Ball{},
			HomePlayers:  homeRoster,
			GuestPlayers: guestRoster,
		}},
	}
}

func chainOf(passes []model.Pass) []string {
	out := make([]string, len(passes))
	for i, p := range passes {
		out[i] = string(p.From) + ">" + string(p.To)
	}
	return out
}

func TestPossessionTeam(t *testing.T) {
	convey.Convey("Given window passes", t, func() {
		convey.Convey("When home players receive most passes", func() {
			team := PossessionTeam([]model.Pass{pass("A", "B"), pass("B", "C")})
			convey.Convey("Then home has the ball", func() {
				convey.So(team.Has("A"), convey.ShouldBeTrue)
				convey.So(team.Has("D"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When guests pass among themselves", func() {
			team := PossessionTeam([]model.Pass{pass("D", "G"), pass("G", "D"), pass("D", "G")})
			convey.Convey("Then the guest roster is returned", func() {
				convey.So(team.Has("D"), convey.ShouldBeTrue)
				convey.So(team.Has("A"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the votes split at half, rounded down", func() {
			// One home reception out of three passes: 1 >= 3/2.
			team := PossessionTeam([]model.Pass{pass("D", "A"), pass("A", "G"), pass("G", "D")})
			convey.Convey("Then home wins the tie", func() {
				convey.So(team.Has("A"), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When there are no passes", func() {
			convey.So(PossessionTeam(nil), convey.ShouldBeEmpty)
		})
	})
}

func TestMerge(t *testing.T) {
	team := PossessionTeam([]model.Pass{pass("A", "B")})

	convey.Convey("Given the possession team", t, func() {
		convey.Convey("When passes stay inside the team", func() {
			out, err := Merge([]model.Pass{pass("A", "B"), pass("B", "C")}, team)
			convey.Convey("Then they are kept unchanged", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(chainOf(out), convey.ShouldResemble, []string{"A>B", "B>C"})
			})
		})

		convey.Convey("When a pass goes to an opponent and comes back", func() {
			out, err := Merge([]model.Pass{pass("A", "B"), pass("B", "C"), pass("C", "D"), pass("D", "E")}, team)
			convey.Convey("Then the excursion collapses into one pass", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(chainOf(out), convey.ShouldResemble, []string{"A>B", "B>C", "C>E"})
				convey.So(out[2].Distance, convey.ShouldEqual, 20.0)
				convey.So(out[2].Duration, convey.ShouldEqual, 2.0)
				convey.So(out[2].Snapshots, convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When the chain ends with the ball outside the team", func() {
			out, err := Merge([]model.Pass{pass("A", "B"), pass("B", "D")}, team)
			convey.Convey("Then the open pass is dropped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(chainOf(out), convey.ShouldResemble, []string{"A>B"})
			})
		})

		convey.Convey("When the first pass comes from outside the team", func() {
			out, err := Merge([]model.Pass{pass("D", "A"), pass("A", "B")}, team)
			convey.Convey("Then it is trimmed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(chainOf(out), convey.ShouldResemble, []string{"A>B"})
			})
		})

		convey.Convey("When the first pass has no origin", func() {
			out, err := Merge([]model.Pass{pass(model.None, "A"), pass("A", "B")}, team)
			convey.Convey("Then it is trimmed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(chainOf(out), convey.ShouldResemble, []string{"A>B"})
			})
		})

		convey.Convey("When a pass does not continue the chain", func() {
			_, err := Merge([]model.Pass{pass("A", "B"), pass("G", "C")}, team)
			convey.Convey("Then the window is unresolvable", func() {
				convey.So(errors.Is(err, ErrUnresolvableChain), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When merging mutates the pending pass", func() {
			in := []model.Pass{pass("A", "B"), pass("B", "D"), pass("D", "C")}
			_, err := Merge(in, team)
			convey.Convey("Then the input passes are untouched", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(in[1].To, convey.ShouldEqual, model.PlayerID("D"))
				convey.So(in[1].Snapshots, convey.ShouldHaveLength, 1)
			})
		})
	})
}

func TestValidate(t *testing.T) {
	team := PossessionTeam([]model.Pass{pass("A", "B")})

	if err := Validate([]model.Pass{pass("A", "B"), pass("B", "C")}, team); err != nil {
		t.Errorf("valid chain: %v", err)
	}
	if err := Validate(nil, team); err != nil {
		t.Errorf("empty chain: %v", err)
	}
	if err := Validate([]model.Pass{pass("A", "B"), pass("C", "E")}, team); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("broken continuity: got %v", err)
	}
	if err := Validate([]model.Pass{pass("A", "D")}, team); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("leaves team: got %v", err)
	}
}

func TestCombine(t *testing.T) {
	empty := model.PlayWindow{Passes: []model.Pass{}}
	if err := Combine(&empty); err != nil || empty.CombinedPasses != nil {
		t.Errorf("empty window: %v, %+v", err, empty.CombinedPasses)
	}

	// Only the inbound: nothing left after trimming.
	inbound := model.PlayWindow{Passes: []model.Pass{pass(model.None, "A")}}
	if err := Combine(&inbound); err != nil || inbound.CombinedPasses != nil {
		t.Errorf("inbound-only window: %v, %+v", err, inbound.CombinedPasses)
	}

	w := model.PlayWindow{
		Passes:         []model.Pass{pass("A", "B"), pass("G", "C")},
		CombinedPasses: []model.Pass{pass("A", "B")}, // stale
	}
	if err := Combine(&w); !errors.Is(err, ErrUnresolvableChain) {
		t.Fatalf("expected unresolvable, got %v", err)
	}
	if w.CombinedPasses != nil {
		t.Error("stale chain should be cleared")
	}
}

func TestAttributedAndFilter(t *testing.T) {
	chained := func(outcome string) model.PlayWindow {
		return model.PlayWindow{
			Outcome:        outcome,
			CombinedPasses: []model.Pass{{From: "Al Able", To: "Bo Baker"}},
		}
	}
	tests := []struct {
		name string
		w    model.PlayWindow
		want bool
	}{
		{"receiver named", chained("Make Baker 2pt"), true},
		{"passer named", chained("Miss Able 3pt"), true},
		{"other player", chained("Make Grant 2pt"), false},
		{"single token", chained("Timeout"), false},
		{"no chain", model.PlayWindow{Outcome: "Make Baker 2pt"}, false},
		// Substring match, not token match.
		{"partial surname", chained("Make Bak"), true},
		// Split on single spaces without trimming.
		{"leading space", chained(" Make Baker"), false},
		{"double space", chained("Make  Grant"), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Attributed(tc.w); got != tc.want {
				t.Errorf("Attributed(%q) = %v, want %v", tc.w.Outcome, got, tc.want)
			}
		})
	}

	windows := []model.PlayWindow{chained("Make Baker"), chained("Make Grant"), chained("Miss Able")}
	got := Filter(windows)
	if len(got) != 2 || got[0].Outcome != "Make Baker" || got[1].Outcome != "Miss Able" {
		t.Errorf("Filter = %+v", got)
	}
	if none := Filter(nil); none == nil || len(none) != 0 {
		t.Errorf("Filter(nil) should be empty and non-nil, got %#v", none)
	}
}
