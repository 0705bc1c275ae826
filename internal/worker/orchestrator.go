package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/recruit-bot/internal/logger"
)

const (
	DefaultQueueSize   = 64
	DefaultConcurrency = 2
	DefaultLockTTL     = 10 * time.Minute
)

// ErrRunInProgress is returned when another run holds the candidate's lock.
var ErrRunInProgress = errors.New("scoring run already in progress")

type Runner interface {
	Run(ctx context.Context, id uint) error
}

type OrchestratorConfig struct {
	QueueSize   int
	Concurrency int
	LockTTL     time.Duration
}

// Orchestrator runs the scoring pipeline off the conversational path.
type Orchestrator struct {
	runner      Runner
	locker      Locker
	queue       chan uint
	concurrency int
	lockTTL     time.Duration
	logger      *zap.Logger
}

func NewOrchestrator(runner Runner, locker Locker, cfg OrchestratorConfig, log *zap.Logger) *Orchestrator {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}

	return &Orchestrator{
		runner:      runner,
		locker:      locker,
		queue:       make(chan uint, cfg.QueueSize),
		concurrency: cfg.Concurrency,
		lockTTL:     cfg.LockTTL,
		logger:      logger.WithFields(log).Named("orchestrator"),
	}
}

// Schedule enqueues a run without blocking. A full queue drops the request;
// the sweeper picks the candidate up later.
func (o *Orchestrator) Schedule(id uint) bool {
	select {
	case o.queue <- id:
		o.logger.Debug("scoring scheduled", zap.Uint(logger.FieldCandidateID, id))
		return true
	default:
		o.logger.Warn("scoring queue full, request dropped", zap.Uint(logger.FieldCandidateID, id))
		return false
	}
}

// Run consumes the queue until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator started", zap.Int("workers", o.concurrency))

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < o.concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case id := <-o.queue:
					if err := o.RunOnce(ctx, id); err != nil && !errors.Is(err, ErrRunInProgress) {
						o.logger.Error("scoring run failed", zap.Uint(logger.FieldCandidateID, id), zap.Error(err))
					}
				}
			}
		})
	}

	err := g.Wait()
	o.logger.Info("orchestrator stopped")
	return err
}

// RunOnce runs the pipeline for id while holding the candidate's lock.
func (o *Orchestrator) RunOnce(ctx context.Context, id uint) error {
	key := fmt.Sprintf("score:%d", id)

	lease, ok, err := o.locker.TryLock(ctx, key, o.lockTTL)
	if err != nil {
		return fmt.Errorf("lock candidate %d: %w", id, err)
	}
	if !ok {
		o.logger.Info("scoring already running, skipped", zap.Uint(logger.FieldCandidateID, id))
		return ErrRunInProgress
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			o.logger.Warn("release scoring lock failed", zap.Uint(logger.FieldCandidateID, id), zap.Error(err))
		}
	}()

	return o.runner.Run(ctx, id)
}
