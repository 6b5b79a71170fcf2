package parser

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/courtvision/internal/model"
)

func moment(quarter int, clock any, positions [][]float64) []any {
	return []any{quarter, 1451606400000, clock, 24.0, nil, positions}
}

func doc(events ...map[string]any) []byte {
	data, err := json.Marshal(map[string]any{
		"gameid":   "0021500001",
		"gamedate": "2016-01-01",
		"events":   events,
	})
	if err != nil {
		panic(err)
	}
	return data
}

func event(id string, moments ...[]any) map[string]any {
	return map[string]any{
		"eventId": id,
		"home": map[string]any{
			"teamid": 100, "abbreviation": "HOM",
			"players": []map[string]any{{"firstname": "Al", "lastname": "Able", "playerid": 1}},
		},
		"visitor": map[string]any{
			"teamid": 200, "abbreviation": "GST",
			"players": []map[string]any{{"firstname": "Gus", "lastname": "Grant", "playerid": 3}},
		},
		"moments": moments,
	}
}

var positions = [][]float64{
	{-1, -1, 50, 25, 4.5},
	{100, 1, 10, 10, 0},
	{200, 3, 90, 45, 0},
	{200, 9, 80, 40, 0}, // not on the roster
}

func TestDecode(t *testing.T) {
	data := doc(
		event("1",
			moment(1, 700.0, positions),
			moment(1, 699.96, positions),
		),
		event("2", // same moments as event 1
			moment(1, 700.0, positions),
			moment(1, 699.96, positions),
		),
		event("3",
			moment(2, 720.0, positions),
			moment(1, 699.92, positions),
			moment(1, 699.96, positions), // repeats an instant of event 1
			moment(1, nil, positions),    // no game clock
		),
	)

	raw, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if raw.GameID != "0021500001" || raw.HomeTeam != "HOM" || raw.GuestTeam != "GST" {
		t.Errorf("header = %+v", raw)
	}
	if raw.Events != 3 || raw.DuplicateEvents != 1 {
		t.Errorf("events/duplicates = %d/%d, want 3/1", raw.Events, raw.DuplicateEvents)
	}
	if raw.DroppedMoments != 2 {
		t.Errorf("dropped moments = %d, want 2", raw.DroppedMoments)
	}
	if len(raw.SourceHash) != 64 {
		t.Errorf("source hash = %q", raw.SourceHash)
	}

	wantClocks := []struct {
		q     int
		clock float64
	}{{1, 700}, {1, 699.96}, {1, 699.92}, {2, 720}}
	if len(raw.Frames) != len(wantClocks) {
		t.Fatalf("frames = %d, want %d", len(raw.Frames), len(wantClocks))
	}
	for i, w := range wantClocks {
		if f := raw.Frames[i]; f.Quarter != w.q || f.GameClock != w.clock {
			t.Errorf("frame %d = q%d %v, want q%d %v", i, f.Quarter, f.GameClock, w.q, w.clock)
		}
	}

	f := raw.Frames[0]
	if f.Ball == nil || f.Ball.X != 50 || f.Ball.Radius != 4.5 {
		t.Errorf("ball = %+v", f.Ball)
	}
	if f.ShotClock != 24 {
		t.Errorf("shot clock = %v", f.ShotClock)
	}
	if _, ok := f.HomePlayers["Al Able"]; !ok || len(f.HomePlayers) != 1 {
		t.Errorf("home players = %v", f.HomePlayers)
	}
	if _, ok := f.GuestPlayers["player-9"]; !ok || len(f.GuestPlayers) != 2 {
		t.Errorf("guest players = %v, want Gus Grant and player-9", f.GuestPlayers)
	}
}

func TestDecodeWithoutBall(t *testing.T) {
	raw, err := Decode(doc(event("1", moment(1, 700.0, positions[1:]))))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(raw.Frames) != 1 || raw.Frames[0].Ball != nil {
		t.Errorf("expected one frame without a ball, got %+v", raw.Frames)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
	short := doc(event("1", []any{1, 0, 700.0}))
	if _, err := Decode(short); err == nil {
		t.Error("expected error for a short moment")
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	data := doc(event("1", moment(1, 700.0, positions)))
	a, _ := Decode(data)
	b, _ := Decode(data)
	if a.SourceHash != b.SourceHash {
		t.Error("source hash differs between decodes of the same bytes")
	}
}

func TestParseGameCompressed(t *testing.T) {
	data := doc(event("1", moment(1, 700.0, positions), moment(1, 699.96, positions)))
	dir := t.TempDir()

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	w.Write(data)
	w.Close()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	zst := enc.EncodeAll(data, nil)
	enc.Close()

	files := map[string][]byte{
		"01.01.2016.GST.at.HOM.json":     data,
		"01.02.2016.GST.at.HOM.json.gz":  gz.Bytes(),
		"01.03.2016.GST.at.HOM.json.zst": zst,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		raw, err := ParseGame(path)
		if err != nil {
			t.Fatalf("ParseGame(%s): %v", name, err)
		}
		if len(raw.Frames) != 2 {
			t.Errorf("%s: frames = %d, want 2", name, len(raw.Frames))
		}
		if raw.Game != GameName(name) {
			t.Errorf("%s: game = %q", name, raw.Game)
		}
	}

	if _, err := ParseGame(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecompressorPassthrough(t *testing.T) {
	r, closeFn, err := Decompressor("plain.json", bytes.NewReader([]byte("abc")))
	if err != nil {
		t.Fatalf("Decompressor: %v", err)
	}
	defer closeFn()
	got, _ := io.ReadAll(r)
	if string(got) != "abc" {
		t.Errorf("got %q", got)
	}
	if _, _, err := Decompressor("bad.gz", bytes.NewReader([]byte("abc"))); err == nil {
		t.Error("expected gzip header error")
	}
}

func TestSevenZipIsRejected(t *testing.T) {
	if _, _, err := Decompressor("logs/01.22.2016.LAC.at.NYK.7z", bytes.NewReader([]byte("7z"))); !errors.Is(err, ErrUnsupportedCompression) {
		t.Errorf("Decompressor(.7z) error = %v, want ErrUnsupportedCompression", err)
	}

	path := filepath.Join(t.TempDir(), "01.22.2016.LAC.at.NYK.7z")
	if err := os.WriteFile(path, []byte("7z\xbc\xaf"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ParseGame(path); !errors.Is(err, ErrUnsupportedCompression) {
		t.Errorf("ParseGame(.7z) error = %v, want ErrUnsupportedCompression", err)
	}
}

func TestGameNameAndKey(t *testing.T) {
	tests := []struct {
		path, name, key string
	}{
		{"logs/01.22.2016.LAC.at.NYK.json.gz", "01.22.2016.LAC.at.NYK", "201601220NYK"},
		{"12.05.2015.BOS.at.MIA.json", "12.05.2015.BOS.at.MIA", "201512050MIA"},
		{"/data/03.09.2016.GSW.at.OKC.7z", "03.09.2016.GSW.at.OKC", "201603090OKC"},
		{"10.27.2015.CLE.at.CHI.json.zst", "10.27.2015.CLE.at.CHI", "201510270CHI"},
	}
	for _, tc := range tests {
		if got := GameName(tc.path); got != tc.name {
			t.Errorf("GameName(%q) = %q, want %q", tc.path, got, tc.name)
		}
		key, err := GameKey(tc.name)
		if err != nil {
			t.Errorf("GameKey(%q): %v", tc.name, err)
			continue
		}
		if key != tc.key {
			t.Errorf("GameKey(%q) = %q, want %q", tc.name, key, tc.key)
		}
	}
	if _, err := GameKey("garbage"); err == nil {
		t.Error("expected error for a malformed game name")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := ArchivePath(filepath.Join(dir, "passes"), "01.01.2016.GST.at.HOM")
	passes := []model.Pass{
		{
			From: model.None, To: "Al Able", Quarter: 1, GameClock: 700, ShotClock: 24,
			Duration: 1.5, Distance: 12, AverageSpeed: 0.4,
			Snapshots: []model.Frame{{
				Quarter: 1, GameClock: 700,
				Ball:         &model.Ball{X: 1, Y: 2, Radius: 3},
				HomePlayers:  map[model.PlayerID]model.Position{"Al Able": {X: 1, Y: 2}},
				GuestPlayers: map[model.PlayerID]model.Position{"Gus Grant": {X: 9, Y: 9}},
			}},
		},
		{From: "Al Able", To: "Bo Baker", Quarter: 1, GameClock: 698.5, Duration: 2},
	}

	if err := WritePasses(path, passes); err != nil {
		t.Fatalf("WritePasses: %v", err)
	}
	got, err := ReadPasses(path)
	if err != nil {
		t.Fatalf("ReadPasses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d passes, want 2", len(got))
	}
	if got[0].From != model.None || got[0].To != "Al Able" || got[0].Duration != 1.5 {
		t.Errorf("first pass = %+v", got[0])
	}
	snap := got[0].Snapshots[0]
	if snap.Ball == nil || snap.Ball.Radius != 3 || snap.GuestPlayers["Gus Grant"].X != 9 {
		t.Errorf("snapshot = %+v", snap)
	}
	if got[1].From != "Al Able" || got[1].GameClock != 698.5 {
		t.Errorf("second pass = %+v", got[1])
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "passes", ".passes-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
	if _, err := ReadPasses(filepath.Join(dir, "nope.json.gz")); err == nil {
		t.Error("expected error for missing archive")
	}
}
