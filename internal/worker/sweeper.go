package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/logger"
)

const (
	DefaultSweepSchedule    = "@every 15m"
	DefaultSweepGrace       = 10 * time.Minute
	DefaultSweepMaxAttempts = 3
)

// PendingSource lists candidates whose scoring never landed and counts the
// retries handed out for them.
type PendingSource interface {
	PendingScoring(ctx context.Context, before time.Time, maxAttempts int) ([]uint, error)
	RecordScoringAttempt(ctx context.Context, id uint) error
}

// SweeperConfig tunes the sweep schedule. Zero values fall back to the defaults.
type SweeperConfig struct {
	Schedule    string
	Grace       time.Duration
	MaxAttempts int
}

type Scheduler interface {
	Schedule(id uint) bool
}

// Sweeper periodically re-schedules completed candidates whose scoring never
// landed, e.g. after a failed fetch or a dropped queue entry. Each candidate
// gets at most MaxAttempts swept retries.
type Sweeper struct {
	cron        *cron.Cron
	spec        string
	source      PendingSource
	scheduler   Scheduler
	grace       time.Duration
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger
}

func NewSweeper(source PendingSource, scheduler Scheduler, cfg SweeperConfig, log *zap.Logger) *Sweeper {
	spec := cfg.Schedule
	if spec == "" {
		spec = DefaultSweepSchedule
	}
	grace := cfg.Grace
	if grace <= 0 {
		grace = DefaultSweepGrace
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultSweepMaxAttempts
	}
	l := logger.WithFields(log).Named("sweeper")
	cl := cronLogger{l.Sugar()}

	return &Sweeper{
		cron:        cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:        spec,
		source:      source,
		scheduler:   scheduler,
		grace:       grace,
		maxAttempts: maxAttempts,
		now:         time.Now,
		logger:      l,
	}
}

// Sweep schedules every pending candidate once and returns how many were queued.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ids, err := s.source.PendingScoring(ctx, s.now().Add(-s.grace), s.maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("list pending candidates: %w", err)
	}

	queued := 0
	for _, id := range ids {
		if !s.scheduler.Schedule(id) {
			continue
		}
		queued++
		if err := s.source.RecordScoringAttempt(ctx, id); err != nil {
			s.logger.Warn("record scoring attempt failed", zap.Uint(logger.FieldCandidateID, id), zap.Error(err))
		}
	}

	if len(ids) > 0 {
		s.logger.Info("pending candidates rescheduled", zap.Int("pending", len(ids)), zap.Int("queued", queued))
	}
	return queued, nil
}

// Run starts the cron schedule and blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("add sweep schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("sweeper started", zap.String("schedule", s.spec))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("sweeper stopped")
	return nil
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.s.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
