package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/internal/domain/models"
)

// Runner executes one extraction pass.
type Runner interface {
	Run(ctx context.Context) (models.ExtractionRun, models.Summary, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron   *cron.Cron
	job    cron.Job
	runner Runner
	cfg    config.ScheduleConfig
	logger *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured
// timezone. A tick that fires while the previous run is still going is skipped,
// so at most one browser session exists at a time.
func NewScheduler(cfg config.ScheduleConfig, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	cronLogger := zapCronLogger{sugar: logger.Sugar()}
	s := &Scheduler{
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
	s.job = cron.NewChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)).
		Then(cron.FuncJob(s.runExtraction))
	s.cron = cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger))

	return s, nil
}

// Start registers the extraction job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddJob(s.cfg.CronSchedule, s.job); err != nil {
		return fmt.Errorf("schedule extraction %q: %w", s.cfg.CronSchedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once a running
// extraction has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping scheduler")
	return s.cron.Stop()
}

func (s *Scheduler) runExtraction() {
	s.logger.Info("scheduled extraction starting")

	ctx := context.Background()
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	started := time.Now()
	if _, _, err := s.runner.Run(ctx); err != nil {
		s.logger.Error("scheduled extraction failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		return
	}
	s.logger.Info("scheduled extraction finished", zap.Duration("duration", time.Since(started)))
}

// zapCronLogger routes cron's internal logging through zap.
type zapCronLogger struct {
	sugar *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
