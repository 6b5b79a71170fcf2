package segment

import (
	"math"
	"testing"

	"github.com/pable/courtvision/internal/model"
)

func frames(xs ...float64) []model.Frame {
	out := make([]model.Frame, len(xs))
	for i, x := range xs {
		out[i] = model.Frame{
			Ball:      &model.Ball{X: x, Y: 0},
			GameClock: 700 - float64(i)*0.5,
			ShotClock: 24 - float64(i)*0.5,
			Quarter:   2,
		}
	}
	return out
}

func TestPasses(t *testing.T) {
	fs := frames(0, 1, 3, 6, 10, 15, 21, 28)
	labels := []model.PlayerID{model.None, "A", "A", "B", "B", "B", "A", "A"}

	passes, err := Passes(fs, labels)
	if err != nil {
		t.Fatalf("Passes: %v", err)
	}
	if len(passes) != 2 {
		t.Fatalf("got %d passes, want 2 (trailing pass dropped)", len(passes))
	}

	first := passes[0]
	if first.From != model.None || first.To != "A" {
		t.Errorf("first pass = %q -> %q", first.From, first.To)
	}
	if first.GameClock != 699.5 || first.ShotClock != 23.5 || first.Quarter != 2 {
		t.Errorf("first pass start = clock %v shot %v q%d", first.GameClock, first.ShotClock, first.Quarter)
	}

	second := passes[1]
	if second.From != "A" || second.To != "B" || len(second.Snapshots) != 3 {
		t.Fatalf("second pass = %+v", second)
	}
	if second.Distance != 9 {
		t.Errorf("distance = %v, want 9 (4 + 5)", second.Distance)
	}
	if second.Duration != 1 {
		t.Errorf("duration = %v, want 1", second.Duration)
	}
	if second.AverageSpeed != 4.5 {
		t.Errorf("average speed = %v, want 4.5", second.AverageSpeed)
	}
}

func TestPassesReconstructFrames(t *testing.T) {
	fs := frames(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	labels := []model.PlayerID{model.None, model.None, "A", "A", "B", "C", "C", "C", "A", "A"}

	passes, err := Passes(fs, labels)
	if err != nil {
		t.Fatalf("Passes: %v", err)
	}

	// Leading run, emitted snapshots and the dropped trailing run add back up
	// to the input, each frame once and in order.
	var rebuilt []model.Frame
	rebuilt = append(rebuilt, fs[:2]...)
	for _, p := range passes {
		rebuilt = append(rebuilt, p.Snapshots...)
	}
	rebuilt = append(rebuilt, fs[8:]...)

	if len(rebuilt) != len(fs) {
		t.Fatalf("rebuilt %d frames, want %d", len(rebuilt), len(fs))
	}
	for i := range fs {
		if rebuilt[i].GameClock != fs[i].GameClock {
			t.Errorf("frame %d: clock %v, want %v", i, rebuilt[i].GameClock, fs[i].GameClock)
		}
	}
	for i, p := range passes {
		if p.Duration < 0 || p.Distance < 0 {
			t.Errorf("pass %d has negative duration or distance: %+v", i, p)
		}
	}
}

func TestPassesNoChange(t *testing.T) {
	fs := frames(0, 1, 2)
	passes, err := Passes(fs, []model.PlayerID{model.None, model.None, model.None})
	if err != nil || len(passes) != 0 {
		t.Errorf("Passes = %v, %v; want none", passes, err)
	}
}

func TestPassesLengthMismatch(t *testing.T) {
	if _, err := Passes(frames(0, 1), []model.PlayerID{model.None}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestPassesSkipsMissingBall(t *testing.T) {
	fs := frames(0, 0, 5, 9, 12)
	fs[3].Ball = nil
	labels := []model.PlayerID{model.None, "A", "A", "A", "B"}

	passes, err := Passes(fs, labels)
	if err != nil {
		t.Fatalf("Passes: %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1", len(passes))
	}
	// 0 -> 5 counts, 5 -> nil and nil -> nothing do not.
	if passes[0].Distance != 5 {
		t.Errorf("distance = %v, want 5", passes[0].Distance)
	}
}

func TestAverageSpeed(t *testing.T) {
	if got := AverageSpeed(nil); got != 0 {
		t.Errorf("AverageSpeed(nil) = %v", got)
	}
	if got := AverageSpeed(frames(3)); got != 0 {
		t.Errorf("single snapshot = %v", got)
	}
	if got := AverageSpeed(frames(0, 3, 9)); math.Abs(got-4.5) > 1e-9 {
		t.Errorf("AverageSpeed = %v, want 4.5", got)
	}
}
