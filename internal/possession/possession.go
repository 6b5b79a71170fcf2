// Package possession infers, frame by frame, which player holds the ball.
package possession

import (
	"math"
	"sort"

	"github.com/pable/courtvision/internal/model"
)

// Default gating thresholds: ball speed in feet per frame and ball radius
// (height proxy) below which the ball is considered held or dribbled.
const (
	DefaultSpeedThreshold  = 1.0
	DefaultRadiusThreshold = 5.0
)

// Thresholds gates possession re-evaluation.
type Thresholds struct {
	Speed  float64
	Radius float64
}

// DefaultThresholds returns the thresholds tuned for 25 Hz SportVU logs.
func DefaultThresholds() Thresholds {
	return Thresholds{Speed: DefaultSpeedThreshold, Radius: DefaultRadiusThreshold}
}

// Label returns the possessor for every frame, left-filled: each frame repeats
// the last established possessor until a new one is established. Frame 0 never
// has a possessor. The second return value counts frames without a ball
// sample; those frames (and the frame after them) never re-evaluate.
func Label(frames []model.Frame, th Thresholds) ([]model.PlayerID, int) {
	labels := make([]model.PlayerID, len(frames))
	last := model.None
	malformed := 0
	for _, f := range frames {
		if f.Ball == nil {
			malformed++
		}
	}

	for i := 1; i < len(frames); i++ {
		prev, cur := frames[i-1], frames[i]
		speed, ok := model.BallDelta(prev, cur)
		if !ok {
			labels[i] = last
			continue
		}
		if speed < th.Speed && cur.Ball.Radius < th.Radius &&
			len(cur.HomePlayers) > 0 && len(cur.GuestPlayers) > 0 {
			home, dHome := Nearest(*cur.Ball, cur.HomePlayers)
			guest, dGuest := Nearest(*cur.Ball, cur.GuestPlayers)
			if dGuest < dHome {
				last = guest
			} else {
				last = home
			}
		}
		labels[i] = last
	}
	return labels, malformed
}

// Nearest returns the player in players closest to the ball and the distance.
// Players are visited in id order so equal distances resolve deterministically.
func Nearest(ball model.Ball, players map[model.PlayerID]model.Position) (model.PlayerID, float64) {
	ids := make([]model.PlayerID, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	best, bestDist := model.None, math.Inf(1)
	for _, id := range ids {
		if d := ball.DistanceTo(players[id]); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, bestDist
}
