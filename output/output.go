// Package output writes resolved entries to the JSON array file consumed by
// the downloader.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/use-agent/apkscout/models"
)

// WriteJSON merges entries into the JSON array at path, creating the file and
// its directory when missing. Entries replace existing records with the same
// title in place; new titles are appended in the given order.
//
// The file is written to a temporary sibling and renamed, so readers never
// observe a half-written array.
func WriteJSON(path string, entries []*models.ResolvedEntry) error {
	existing, err := ReadJSON(path)
	if err != nil {
		return err
	}

	merged := Merge(existing, entries)

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("output: marshal entries: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".apkscout-*.json")
	if err != nil {
		return fmt.Errorf("output: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("output: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("output: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("output: replace %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads the array at path. A missing or empty file yields no entries.
func ReadJSON(path string) ([]*models.ResolvedEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("output: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []*models.ResolvedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("output: parse %s: %w", path, err)
	}
	return entries, nil
}

// Merge returns existing with updates applied by title. Nil updates are
// ignored.
func Merge(existing, updates []*models.ResolvedEntry) []*models.ResolvedEntry {
	out := make([]*models.ResolvedEntry, 0, len(existing)+len(updates))
	index := make(map[string]int, len(existing)+len(updates))

	for _, e := range existing {
		if e == nil {
			continue
		}
		index[e.Title] = len(out)
		out = append(out, e)
	}
	for _, e := range updates {
		if e == nil {
			continue
		}
		if i, ok := index[e.Title]; ok {
			out[i] = e
			continue
		}
		index[e.Title] = len(out)
		out = append(out, e)
	}
	return out
}
