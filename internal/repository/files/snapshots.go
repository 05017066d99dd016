// Package files keeps the latest extraction documents on disk, plus one archive
// copy per run.
package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/domain/models"
)

// ErrNoSnapshot indicates no run has been written yet.
var ErrNoSnapshot = errors.New("no snapshot written yet")

const (
	enrollmentPrefix = "enrollment"
	summaryPrefix    = "summary"
	latestSuffix     = "latest"
	archiveLayout    = "20060102_150405"
)

// Store writes and reads the latest documents under a directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore builds a store rooted at dir.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Name identifies the writer in logs.
func (s *Store) Name() string { return "files" }

// LatestPaths returns the locations of the latest run and summary documents.
func (s *Store) LatestPaths() (run, summary string) {
	return s.path(enrollmentPrefix, latestSuffix), s.path(summaryPrefix, latestSuffix)
}

func (s *Store) path(prefix, suffix string) string {
	return filepath.Join(s.dir, prefix+"_"+suffix+".json")
}

// WriteLatest archives both documents under the run timestamp and then replaces
// the latest copies. Readers never observe a partially written latest file.
func (s *Store) WriteLatest(_ context.Context, run models.ExtractionRun, summary models.Summary) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	stamp := run.ExtractedAt.Format(archiveLayout)
	documents := []struct {
		prefix string
		value  any
	}{
		{prefix: enrollmentPrefix, value: run},
		{prefix: summaryPrefix, value: summary},
	}

	for _, doc := range documents {
		payload, err := json.MarshalIndent(doc.value, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s document: %w", doc.prefix, err)
		}
		if err := writeAtomic(s.path(doc.prefix, stamp), payload); err != nil {
			return fmt.Errorf("archive %s document: %w", doc.prefix, err)
		}
		if err := writeAtomic(s.path(doc.prefix, latestSuffix), payload); err != nil {
			return fmt.Errorf("replace latest %s document: %w", doc.prefix, err)
		}
	}

	s.logger.Info("latest documents written", zap.String("dir", s.dir), zap.String("stamp", stamp))
	return nil
}

// ReadLatestRun decodes the latest full extraction tree.
func (s *Store) ReadLatestRun(context.Context) (models.ExtractionRun, error) {
	var run models.ExtractionRun
	err := readJSON(s.path(enrollmentPrefix, latestSuffix), &run)
	return run, err
}

// ReadLatestSummary decodes the latest summary.
func (s *Store) ReadLatestSummary(context.Context) (models.Summary, error) {
	var summary models.Summary
	err := readJSON(s.path(summaryPrefix, latestSuffix), &summary)
	return summary, err
}

func readJSON(path string, target any) error {
	payload, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoSnapshot
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeAtomic writes to a temporary file in the same directory and renames it
// over the destination.
func writeAtomic(path string, payload []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
