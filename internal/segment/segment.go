// Package segment turns a possessor timeline into discrete passes.
package segment

import (
	"fmt"

	"github.com/pable/courtvision/internal/model"
)

// Passes emits one Pass per possessor change. A pass opens at the frame where
// the possessor changes and collects every following frame until the next
// change closes it. Frames before the first change belong to no pass, and the
// pass still open at the end of the sequence is dropped, never flushed.
func Passes(frames []model.Frame, labels []model.PlayerID) ([]model.Pass, error) {
	if len(frames) != len(labels) {
		return nil, fmt.Errorf("segment: %d frames but %d labels", len(frames), len(labels))
	}

	var (
		out  []model.Pass
		open *model.Pass
	)
	for i := 1; i < len(frames); i++ {
		if labels[i] != labels[i-1] {
			if open != nil {
				out = append(out, finish(*open))
			}
			open = &model.Pass{
				From:      labels[i-1],
				To:        labels[i],
				Quarter:   frames[i].Quarter,
				GameClock: frames[i].GameClock,
				ShotClock: frames[i].ShotClock,
			}
		}
		if open == nil {
			continue
		}
		if n := len(open.Snapshots); n > 0 {
			if d, ok := model.BallDelta(open.Snapshots[n-1], frames[i]); ok {
				open.Distance += d
			}
		}
		open.Snapshots = append(open.Snapshots, frames[i])
	}
	return out, nil
}

// finish fills the derived duration and speed of a closed pass.
func finish(p model.Pass) model.Pass {
	first, last := p.Snapshots[0], p.Snapshots[len(p.Snapshots)-1]
	p.Duration = first.GameClock - last.GameClock
	p.AverageSpeed = AverageSpeed(p.Snapshots)
	return p
}

// AverageSpeed is the total inter-frame ball displacement divided by the
// number of frame gaps. A single snapshot has speed zero.
func AverageSpeed(snapshots []model.Frame) float64 {
	if len(snapshots) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(snapshots); i++ {
		if d, ok := model.BallDelta(snapshots[i-1], snapshots[i]); ok {
			total += d
		}
	}
	return total / float64(len(snapshots)-1)
}
