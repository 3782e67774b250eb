// Package store persists translated datasets as JSON files.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/pkg/log"
)

// LatestName is the alias always holding the most recent result.
const LatestName = "latest_translation.json"

// Paths are the files written by one Save.
type Paths struct {
	Output string `json:"output"`
	Latest string `json:"latest"`
}

// Writer writes each result to a timestamped file and refreshes the
// LatestName alias next to it.
//
// Concurrent Saves into the same directory race on the alias: the last
// writer wins. Timestamped files are never overwritten unless two Saves
// share a millisecond.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Save writes items as indented JSON. The directory is created if missing.
func (w *Writer) Save(ctx context.Context, items []domain.DatasetItem) (Paths, error) {
	const op = "store/Save"

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Paths{}, &domain.PersistenceError{Path: w.dir, Err: fmt.Errorf("%s: mkdir: %w", op, err)}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return Paths{}, &domain.PersistenceError{Path: w.dir, Err: fmt.Errorf("%s: marshal: %w", op, err)}
	}

	paths := Paths{
		Output: filepath.Join(w.dir, "data_translated_"+stamp(w.now())+".json"),
		Latest: filepath.Join(w.dir, LatestName),
	}

	if err := os.WriteFile(paths.Output, data, 0o644); err != nil {
		return Paths{}, &domain.PersistenceError{Path: paths.Output, Err: fmt.Errorf("%s: write: %w", op, err)}
	}
	if err := writeAtomic(paths.Latest, data); err != nil {
		return Paths{}, &domain.PersistenceError{Path: paths.Latest, Err: fmt.Errorf("%s: write_latest: %w", op, err)}
	}

	log.From(ctx).Info("translation_saved",
		slog.String("op", op),
		slog.String("path", paths.Output),
		slog.Int("items", len(items)),
		slog.Int("bytes", len(data)),
	)
	return paths, nil
}

// stamp renders t as an ISO-8601 UTC timestamp safe for file names.
func stamp(t time.Time) string {
	s := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(s)
}

// writeAtomic replaces path through a temp file so readers never see a
// partial alias.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".latest-*")
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
