// Package outcomes loads normalized play-by-play events from the outcome CSV
// produced by the play-by-play parser.
package outcomes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pable/courtvision/internal/model"
	"github.com/pable/courtvision/internal/parser"
)

// Required CSV columns.
var columns = []string{"Game", "Quarter", "SecLeft", "Outcome", "Weight"}

// ErrGameNotFound is returned when the CSV holds no row for the requested game.
var ErrGameNotFound = errors.New("game not found in outcomes")

// Load reads the outcome rows of one game from path (plain or .gz). Rows keep
// file order; duplicate (Quarter, SecLeft) keys are resolved by the aligner.
func Load(path, gameKey string) ([]model.Outcome, error) {
	var out []model.Outcome
	err := load(path, func(game string) bool { return game == gameKey }, func(_ string, o model.Outcome) {
		out = append(out, o)
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameKey)
	}
	return out, nil
}

// LoadAll reads every row of path grouped by game key.
func LoadAll(path string) (map[string][]model.Outcome, error) {
	byGame := make(map[string][]model.Outcome)
	err := load(path, nil, func(game string, o model.Outcome) {
		byGame[game] = append(byGame[game], o)
	})
	if err != nil {
		return nil, err
	}
	return byGame, nil
}

func load(path string, keep func(string) bool, emit func(string, model.Outcome)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open outcomes: %w", err)
	}
	defer f.Close()

	src, closeFn, err := parser.Decompressor(path, f)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := scan(src, keep, emit); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Read parses CSV rows for gameKey from r.
func Read(r io.Reader, gameKey string) ([]model.Outcome, error) {
	var out []model.Outcome
	err := scan(r, func(game string) bool { return game == gameKey }, func(_ string, o model.Outcome) {
		out = append(out, o)
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameKey)
	}
	return out, nil
}

// scan calls emit for every row whose game passes keep. A nil keep accepts all.
func scan(r io.Reader, keep func(string) bool, emit func(string, model.Outcome)) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return fmt.Errorf("missing column %q", c)
		}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		raw := func(name string) string {
			if i := idx[name]; i < len(rec) {
				return rec[i]
			}
			return ""
		}
		field := func(name string) string { return strings.TrimSpace(raw(name)) }
		game := field("Game")
		if keep != nil && !keep(game) {
			continue
		}

		quarter, err := strconv.Atoi(field("Quarter"))
		if err != nil {
			return fmt.Errorf("line %d: quarter: %w", line, err)
		}
		secLeft, err := strconv.ParseFloat(field("SecLeft"), 64)
		if err != nil {
			return fmt.Errorf("line %d: sec left: %w", line, err)
		}
		weight, err := parseWeight(field("Weight"))
		if err != nil {
			return fmt.Errorf("line %d: weight: %w", line, err)
		}
		emit(game, model.Outcome{
			Quarter: quarter,
			SecLeft: secLeft,
			// Kept verbatim: chain attribution splits it on single spaces.
			Outcome: raw("Outcome"),
			Weight:  weight,
		})
	}
}

// parseWeight accepts "2" as well as "2.0". Exports that hold a missing value
// anywhere in the column write every weight as a float.
func parseWeight(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
