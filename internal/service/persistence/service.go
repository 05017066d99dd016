// Package persistence appends runs to the history store and refreshes every
// latest-document sink.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/domain/models"
)

// ErrHistoryAppend marks a failed relational append, which fails the run.
var ErrHistoryAppend = errors.New("history append failed")

// HistoryStore appends immutable runs.
type HistoryStore interface {
	AppendRun(ctx context.Context, run models.ExtractionRun) (int64, error)
}

// SnapshotWriter overwrites one latest-document sink.
type SnapshotWriter interface {
	Name() string
	WriteLatest(ctx context.Context, run models.ExtractionRun, summary models.Summary) error
}

// Service coordinates the history append and the latest-document writers.
type Service struct {
	history HistoryStore
	writers []SnapshotWriter
	logger  *zap.Logger
}

// NewService wires the persistence service.
func NewService(history HistoryStore, logger *zap.Logger, writers ...SnapshotWriter) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{history: history, writers: writers, logger: logger}
}

// Persist appends the run and then refreshes every writer. A history failure
// returns immediately; writer failures are collected so one broken sink does
// not starve the others.
func (s *Service) Persist(ctx context.Context, run models.ExtractionRun, summary models.Summary) error {
	id, err := s.history.AppendRun(ctx, run)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHistoryAppend, err)
	}
	s.logger.Debug("run appended to history", zap.Int64("id", id))

	var errs []error
	for _, writer := range s.writers {
		if err := writer.WriteLatest(ctx, run, summary); err != nil {
			s.logger.Error("latest document writer failed", zap.String("writer", writer.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", writer.Name(), err))
		}
	}
	return errors.Join(errs...)
}
