package model

import (
	"encoding/json"
	"math"
)

// PlayerID identifies a tracked player by display name ("First Last").
// The zero value means nobody holds the ball.
type PlayerID string

// None is the "no established possessor" id (jump ball, out of bounds, ...).
const None PlayerID = ""

// MarshalJSON encodes None as null.
func (p PlayerID) MarshalJSON() ([]byte, error) {
	if p == None {
		return []byte("null"), nil
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON accepts null or a string.
func (p *PlayerID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = None
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*p = PlayerID(s)
	return nil
}

// Position is a court coordinate in feet. Z carries height for players and is
// omitted for the ball, which uses Ball.Radius instead.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Ball is the ball sample of a frame. Radius grows with height above the floor.
type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Distance returns the planar distance between two ball samples.
func (b Ball) Distance(o Ball) float64 {
	return math.Hypot(b.X-o.X, b.Y-o.Y)
}

// DistanceTo returns the planar distance from the ball to a player position.
func (b Ball) DistanceTo(p Position) float64 {
	return math.Hypot(b.X-p.X, b.Y-p.Y)
}

// Frame is one sampled instant of tracking data. Ball is nil when the sample
// carried no ball entry; such frames never drive possession changes.
type Frame struct {
	Ball         *Ball                 `json:"Ball"`
	HomePlayers  map[PlayerID]Position `json:"HomePlayers"`
	GuestPlayers map[PlayerID]Position `json:"GuestPlayers"`
	GameClock    float64               `json:"GameClock"`
	Quarter      int                   `json:"Quarter"`
	ShotClock    float64               `json:"ShotClock"`
}

// BallDelta returns the displacement between two frames' balls and whether
// both frames had one.
func BallDelta(prev, cur Frame) (float64, bool) {
	if prev.Ball == nil || cur.Ball == nil {
		return 0, false
	}
	return prev.Ball.Distance(*cur.Ball), true
}

// Pass is one logical ball transfer between possessors.
type Pass struct {
	From         PlayerID `json:"pass_from"`
	To           PlayerID `json:"pass_to"`
	Snapshots    []Frame  `json:"snapshots"`
	Distance     float64  `json:"distance"`
	Duration     float64  `json:"pass_duration"`
	AverageSpeed float64  `json:"average_speed"`
	Quarter      int      `json:"Quarter"`
	GameClock    float64  `json:"GameClock"`
	ShotClock    float64  `json:"ShotClock"`
}

// Outcome is one normalized play-by-play event.
type Outcome struct {
	Quarter int     `json:"Quarter"`
	SecLeft float64 `json:"SecLeft"`
	Outcome string  `json:"Outcome"`
	Weight  int     `json:"Weight"`
}

// PlayWindow groups the passes that happened between two consecutive
// play-by-play events. CombinedPasses is nil unless chain merging succeeded.
type PlayWindow struct {
	Quarter        int     `json:"Quarter"`
	PlayIndex      int     `json:"PlayIndex"`
	SecLeftFrom    float64 `json:"SecLeft_From"`
	SecLeftUntil   float64 `json:"SecLeft_Until"`
	Outcome        string  `json:"Outcome"`
	Weight         int     `json:"Weight"`
	Passes         []Pass  `json:"Passes"`
	CombinedPasses []Pass  `json:"CombinedPasses,omitempty"`
}

// GameSummary is the stored record of one processed game.
type GameSummary struct {
	Game         string `json:"game"`
	SourceHash   string `json:"source_hash"`
	RunID        string `json:"run_id"`
	ProcessedAt  string `json:"processed_at"`
	Quarters     int    `json:"quarters"`
	Frames       int    `json:"frames"`
	Malformed    int    `json:"malformed"`
	Passes       int    `json:"passes"`
	Windows      int    `json:"windows"`
	Combined     int    `json:"combined"`
	Unresolvable int    `json:"unresolvable"`
	Filtered     int    `json:"filtered"`
}

// PlayerPassStats holds per-player passing aggregates for one game.
type PlayerPassStats struct {
	Game   string   `json:"game"`
	Player PlayerID `json:"player"`

	PassesMade     int `json:"passes_made"`
	PassesReceived int `json:"passes_received"`
	ChainMade      int `json:"chain_made"`     // as pass_from inside CombinedPasses
	ChainReceived  int `json:"chain_received"` // as pass_to inside CombinedPasses
	PlaysFinished  int `json:"plays_finished"` // terminal pass_to of a filtered chain

	TotalDistance float64 `json:"total_distance"`
	TotalDuration float64 `json:"total_duration"`
	TotalSpeed    float64 `json:"total_speed"`
}

func (s *PlayerPassStats) AvgDistance() float64 {
	if s.PassesMade == 0 {
		return 0
	}
	return s.TotalDistance / float64(s.PassesMade)
}

func (s *PlayerPassStats) AvgDuration() float64 {
	if s.PassesMade == 0 {
		return 0
	}
	return s.TotalDuration / float64(s.PassesMade)
}

func (s *PlayerPassStats) AvgSpeed() float64 {
	if s.PassesMade == 0 {
		return 0
	}
	return s.TotalSpeed / float64(s.PassesMade)
}

// RawGame is a decoded tracking log, frames ordered by quarter ascending and
// game clock descending.
type RawGame struct {
	Game       string // file stem, e.g. "01.22.2016.LAC.at.NYK"
	GameID     string
	GameDate   string
	SourceHash string
	HomeTeam   string
	GuestTeam  string
	Frames     []Frame

	Events          int
	DuplicateEvents int // events whose moments repeat an earlier event byte for byte
	DroppedMoments  int // moments without a game clock or repeating a (quarter, clock) instant
}
