package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/candidate"
	"github.com/spigell/recruit-bot/internal/logger"
	"github.com/spigell/recruit-bot/internal/scoring"
)

// ScoredChannel is the redis channel scored events are published on.
const ScoredChannel = "candidate.scored"

// ScoredEvent announces a finished scoring run.
type ScoredEvent struct {
	RunID              string    `json:"run_id"`
	CandidateID        uint      `json:"candidate_id"`
	Identity           string    `json:"identity"`
	Position           string    `json:"position,omitempty"`
	QualificationScore int       `json:"qualification_score"`
	ProfileScore       int       `json:"profile_score"`
	Tier               string    `json:"tier"`
	Degraded           bool      `json:"degraded"`
	ScoredAt           time.Time `json:"scored_at"`
}

func NewScoredEvent(runID string, c *candidate.Candidate, degraded bool, at time.Time) ScoredEvent {
	profile := scoring.Score(scoring.AttributesFrom(c))
	return ScoredEvent{
		RunID:              runID,
		CandidateID:        c.ID,
		Identity:           c.Identity,
		Position:           c.PositionInterest,
		QualificationScore: c.QualificationScore,
		ProfileScore:       profile,
		Tier:               scoring.Tier(c.QualificationScore),
		Degraded:           degraded,
		ScoredAt:           at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event ScoredEvent) error
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher sends scored events as JSON over redis pub/sub.
type RedisPublisher struct {
	client  redisPublisher
	channel string
}

func NewRedisPublisher(client redisPublisher, channel string) *RedisPublisher {
	if channel == "" {
		channel = ScoredChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event ScoredEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode scored event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish scored event: %w", err)
	}
	return nil
}

// LogPublisher only logs events. Used when redis is not configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.WithFields(log).Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, event ScoredEvent) error {
	p.logger.Info("candidate scored",
		zap.String(logger.FieldRunID, event.RunID),
		zap.Uint(logger.FieldCandidateID, event.CandidateID),
		zap.Int("qualification_score", event.QualificationScore),
		zap.Int("profile_score", event.ProfileScore),
		zap.String("tier", event.Tier),
	)
	return nil
}
