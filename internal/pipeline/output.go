package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pable/courtvision/internal/model"
)

// OutputPath returns the JSON path of game under dir.
func OutputPath(dir, game string) string {
	return filepath.Join(dir, game+".json")
}

// OutputExists reports whether the all-plays output of game is already on disk.
func OutputExists(allDir, game string) (bool, error) {
	_, err := os.Stat(OutputPath(allDir, game))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat output: %w", err)
}

// WriteOutputs writes the filtered windows first and the full list last, so
// the presence of the all-plays file marks a finished game.
func WriteOutputs(allDir, filteredDir string, res *Result) error {
	if err := writeJSON(OutputPath(filteredDir, res.Game), res.Filtered); err != nil {
		return fmt.Errorf("write filtered plays: %w", err)
	}
	if err := writeJSON(OutputPath(allDir, res.Game), res.All); err != nil {
		return fmt.Errorf("write all plays: %w", err)
	}
	return nil
}

// writeJSON replaces path atomically with the compact JSON encoding of v.
func writeJSON(path string, v []model.PlayWindow) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".plays-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
