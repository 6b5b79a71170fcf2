package parser

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/courtvision/internal/model"
)

// ErrUnsupportedCompression is returned for archive formats that must be
// extracted before parsing.
var ErrUnsupportedCompression = errors.New("unsupported compression")

// ballTeamID marks the ball entry in a moment's position list.
const ballTeamID = -1

type sportVUPlayer struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	PlayerID  int64  `json:"playerid"`
	Jersey    string `json:"jersey"`
	Position  string `json:"position"`
}

type sportVUTeam struct {
	Name         string          `json:"name"`
	TeamID       int64           `json:"teamid"`
	Abbreviation string          `json:"abbreviation"`
	Players      []sportVUPlayer `json:"players"`
}

type sportVUEvent struct {
	EventID string            `json:"eventId"`
	Visitor sportVUTeam       `json:"visitor"`
	Home    sportVUTeam       `json:"home"`
	Moments []json.RawMessage `json:"moments"`
}

type sportVUGame struct {
	GameID   string         `json:"gameid"`
	GameDate string         `json:"gamedate"`
	Events   []sportVUEvent `json:"events"`
}

// ParseGame reads a SportVU game log (optionally gzip, bzip2 or zstd
// compressed) and returns its frames in (quarter asc, game clock desc) order.
func ParseGame(path string) (*model.RawGame, error) {
	data, err := readAll(path)
	if err != nil {
		return nil, err
	}
	raw, err := Decode(data)
	if err != nil {
		return nil, err
	}
	raw.Game = GameName(path)
	return raw, nil
}

// Decode parses an uncompressed SportVU JSON document.
func Decode(data []byte) (*model.RawGame, error) {
	var g sportVUGame
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game log: %w", err)
	}

	h := sha256.Sum256(data)
	raw := &model.RawGame{
		GameID:     g.GameID,
		GameDate:   g.GameDate,
		SourceHash: fmt.Sprintf("%x", h[:]),
	}

	// Events overlap heavily; identical moment payloads are read once.
	seen := make(map[[32]byte]struct{})
	var frames []model.Frame
	for i, ev := range g.Events {
		raw.Events++
		key := momentsHash(ev.Moments)
		if _, dup := seen[key]; dup {
			raw.DuplicateEvents++
			continue
		}
		seen[key] = struct{}{}

		if raw.HomeTeam == "" {
			raw.HomeTeam = ev.Home.Abbreviation
			raw.GuestTeam = ev.Visitor.Abbreviation
		}
		players := newRoster(ev)
		for j, m := range ev.Moments {
			f, ok, err := decodeMoment(m, players)
			if err != nil {
				return nil, fmt.Errorf("event %d moment %d: %w", i, j, err)
			}
			if !ok {
				raw.DroppedMoments++
				continue
			}
			frames = append(frames, f)
		}
	}

	raw.Frames, raw.DroppedMoments = orderFrames(frames, raw.DroppedMoments)
	return raw, nil
}

func momentsHash(moments []json.RawMessage) [32]byte {
	h := sha256.New()
	for _, m := range moments {
		h.Write(m)
		h.Write([]byte{','})
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// orderFrames sorts chronologically and keeps the first frame of every
// (quarter, game clock) instant so the clock strictly decreases within a quarter.
func orderFrames(frames []model.Frame, dropped int) ([]model.Frame, int) {
	sort.SliceStable(frames, func(i, j int) bool {
		if frames[i].Quarter != frames[j].Quarter {
			return frames[i].Quarter < frames[j].Quarter
		}
		return frames[i].GameClock > frames[j].GameClock
	})
	out := frames[:0]
	for _, f := range frames {
		if n := len(out); n > 0 && f.Quarter == out[n-1].Quarter && f.GameClock == out[n-1].GameClock {
			dropped++
			continue
		}
		out = append(out, f)
	}
	return out, dropped
}

type side int

const (
	sideNone side = iota
	sideHome
	sideGuest
)

type rosterEntry struct {
	name model.PlayerID
	side side
}

type roster struct {
	players map[int64]rosterEntry
	teams   map[int64]side
}

func newRoster(ev sportVUEvent) roster {
	r := roster{
		players: make(map[int64]rosterEntry),
		teams:   map[int64]side{ev.Home.TeamID: sideHome, ev.Visitor.TeamID: sideGuest},
	}
	add := func(t sportVUTeam, s side) {
		for _, p := range t.Players {
			name := strings.TrimSpace(p.FirstName + " " + p.LastName)
			r.players[p.PlayerID] = rosterEntry{name: model.PlayerID(name), side: s}
		}
	}
	add(ev.Home, sideHome)
	add(ev.Visitor, sideGuest)
	return r
}

// resolve maps a tracked player to a display name and side. Players missing
// from the roster keep a synthetic name and take their side from the team id.
func (r roster) resolve(teamID, playerID int64) (model.PlayerID, side) {
	if e, ok := r.players[playerID]; ok && e.name != "" {
		return e.name, e.side
	}
	return model.PlayerID(fmt.Sprintf("player-%d", playerID)), r.teams[teamID]
}

// decodeMoment unpacks [quarter, unix_ms, game_clock, shot_clock, _, positions].
// ok is false for moments without a game clock.
func decodeMoment(msg json.RawMessage, r roster) (model.Frame, bool, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(msg, &parts); err != nil {
		return model.Frame{}, false, fmt.Errorf("decode moment: %w", err)
	}
	if len(parts) < 6 {
		return model.Frame{}, false, fmt.Errorf("moment has %d fields, want 6", len(parts))
	}

	var (
		quarter   int
		gameClock *float64
		shotClock *float64
		positions [][]float64
	)
	if err := json.Unmarshal(parts[0], &quarter); err != nil {
		return model.Frame{}, false, fmt.Errorf("quarter: %w", err)
	}
	if err := json.Unmarshal(parts[2], &gameClock); err != nil {
		return model.Frame{}, false, fmt.Errorf("game clock: %w", err)
	}
	if err := json.Unmarshal(parts[3], &shotClock); err != nil {
		return model.Frame{}, false, fmt.Errorf("shot clock: %w", err)
	}
	if err := json.Unmarshal(parts[5], &positions); err != nil {
		return model.Frame{}, false, fmt.Errorf("positions: %w", err)
	}
	if gameClock == nil {
		return model.Frame{}, false, nil
	}

	f := model.Frame{
		Quarter:      quarter,
		GameClock:    *gameClock,
		HomePlayers:  make(map[model.PlayerID]model.Position),
		GuestPlayers: make(map[model.PlayerID]model.Position),
	}
	if shotClock != nil {
		f.ShotClock = *shotClock
	}
	for _, pos := range positions {
		if len(pos) < 5 {
			continue
		}
		teamID, playerID := int64(pos[0]), int64(pos[1])
		if teamID == ballTeamID {
			f.Ball = &model.Ball{X: pos[2], Y: pos[3], Radius: pos[4]}
			continue
		}
		id, s := r.resolve(teamID, playerID)
		p := model.Position{X: pos[2], Y: pos[3], Z: pos[4]}
		switch s {
		case sideHome:
			f.HomePlayers[id] = p
		case sideGuest:
			f.GuestPlayers[id] = p
		}
	}
	return f, true, nil
}

// readAll reads path, decompressing by extension.
func readAll(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open game log: %w", err)
	}
	defer f.Close()

	src, closeFn, err := Decompressor(path, f)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, src); err != nil {
		return nil, fmt.Errorf("read game log: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompressor wraps r according to the compression suffix of name.
func Decompressor(name string, r io.Reader) (io.Reader, func(), error) {
	noop := func() {}
	switch {
	case strings.HasSuffix(name, ".bz2"):
		return bzip2.NewReader(r), noop, nil
	case strings.HasSuffix(name, ".zst"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, noop, fmt.Errorf("zstd: %w", err)
		}
		return dec, dec.Close, nil
	case strings.HasSuffix(name, ".7z"):
		return nil, noop, fmt.Errorf("%w: %s (extract the archive first)", ErrUnsupportedCompression, filepath.Base(name))
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, noop, fmt.Errorf("gzip: %w", err)
		}
		return gz, func() { gz.Close() }, nil
	}
	return r, noop, nil
}

// GameName strips directories and data/compression suffixes from a tracking
// log path: "logs/01.22.2016.LAC.at.NYK.json.gz" -> "01.22.2016.LAC.at.NYK".
func GameName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".bz2", ".zst", ".7z", ".json"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// GameKey converts a game name "MM.DD.YYYY.AWY.at.HOM" into the play-by-play
// key "YYYYMMDD0HOM".
func GameKey(game string) (string, error) {
	parts := strings.Split(game, ".")
	if len(parts) < 4 {
		return "", fmt.Errorf("game name %q: want MM.DD.YYYY.AWAY.at.HOME", game)
	}
	return parts[2] + parts[0] + parts[1] + "0" + parts[len(parts)-1], nil
}
