package parser

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pable/courtvision/internal/model"
)

// ArchivePath returns where the pass archive of game lives under dir.
func ArchivePath(dir, game string) string {
	return filepath.Join(dir, game+".json.gz")
}

// WritePasses stores passes as gzip-compressed JSON. The file is written next
// to its destination and renamed so readers never see a partial archive.
func WritePasses(path string, passes []model.Pass) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".passes-*")
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	gz := gzip.NewWriter(tmp)
	if err := json.NewEncoder(gz).Encode(passes); err != nil {
		tmp.Close()
		return fmt.Errorf("encode passes: %w", err)
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// ReadPasses loads an archive written by WritePasses.
func ReadPasses(path string) ([]model.Pass, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	var passes []model.Pass
	if err := json.NewDecoder(gz).Decode(&passes); err != nil {
		return nil, fmt.Errorf("decode passes: %w", err)
	}
	return passes, nil
}
