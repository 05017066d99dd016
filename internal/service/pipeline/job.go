// Package pipeline runs one full extraction pass: extract, summarize, persist
// and report the outcome to the heartbeat monitor.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/domain/models"
	"github.com/colegioelo/vagas/internal/service/aggregation"
	"github.com/colegioelo/vagas/pkg/clients/heartbeat"
)

// ErrRunFailed wraps every error that should fail the process exit code.
var ErrRunFailed = errors.New("extraction run failed")

// Extractor produces a run from the portal.
type Extractor interface {
	Run(ctx context.Context) (models.ExtractionRun, error)
}

// Persister stores the run and its summary.
type Persister interface {
	Persist(ctx context.Context, run models.ExtractionRun, summary models.Summary) error
}

// Job is shared by the one-shot command and the scheduler.
type Job struct {
	extractor Extractor
	persister Persister
	heartbeat heartbeat.Client
	logger    *zap.Logger
}

// NewJob wires the pipeline. A nil heartbeat disables pings.
func NewJob(extractor Extractor, persister Persister, hb heartbeat.Client, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{extractor: extractor, persister: persister, heartbeat: hb, logger: logger}
}

// Run executes one pass. Runs with failed units still persist; only a failed
// login, browser launch or history append fails the job.
func (j *Job) Run(ctx context.Context) (models.ExtractionRun, models.Summary, error) {
	run, err := j.extractor.Run(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRunFailed, err)
		j.finish(ctx, err)
		return run, models.Summary{}, err
	}

	summary := aggregation.Summarize(run)

	if err := j.persister.Persist(ctx, run, summary); err != nil {
		err = fmt.Errorf("%w: %w", ErrRunFailed, err)
		j.finish(ctx, err)
		return run, summary, err
	}

	j.logSummary(summary, run)
	j.finish(ctx, nil)
	return run, summary, nil
}

func (j *Job) logSummary(summary models.Summary, run models.ExtractionRun) {
	for _, unit := range summary.Units {
		if unit.Error != "" {
			j.logger.Warn("unit summary", zap.String("unit", unit.Code), zap.String("error", unit.Error))
			continue
		}
		j.logger.Info("unit summary",
			zap.String("unit", unit.Code),
			zap.Int("capacity", unit.Total.Capacity),
			zap.Int("enrolled", unit.Total.EnrolledTotal),
			zap.Int("available", unit.Total.Available),
		)
	}

	j.logger.Info("extraction run completed",
		zap.String("run_id", run.RunID.String()),
		zap.Int("units", len(run.Units)),
		zap.Strings("failed_units", run.FailedUnits()),
		zap.Int("classrooms", run.ClassroomCount()),
		zap.Int("capacity", summary.GrandTotal.Capacity),
		zap.Int("enrolled", summary.GrandTotal.EnrolledTotal),
		zap.Int("available", summary.GrandTotal.Available),
		zap.Float64("occupancy", summary.GrandTotal.Occupancy()),
	)
}

func (j *Job) finish(ctx context.Context, runErr error) {
	if j.heartbeat == nil {
		return
	}

	var err error
	if runErr != nil {
		j.logger.Error("extraction run failed", zap.Error(runErr))
		err = j.heartbeat.Failure(context.WithoutCancel(ctx), runErr.Error())
	} else {
		err = j.heartbeat.Success(context.WithoutCancel(ctx))
	}
	if err != nil {
		j.logger.Warn("heartbeat ping failed", zap.Error(err))
	}
}
