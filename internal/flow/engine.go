package flow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/ai"
	"github.com/spigell/recruit-bot/internal/candidate"
	"github.com/spigell/recruit-bot/internal/logger"
)

// UploadDone is the text the transport passes in after it stored a document
// reference on the record.
const UploadDone = "UPLOAD_DONE"

var resetKeywords = map[string]struct{}{
	"reset":   {},
	"start":   {},
	"restart": {},
	"#reset":  {},
	"#start":  {},
}

// IsReset reports whether message forces the conversation back to IDLE.
func IsReset(message string) bool {
	_, ok := resetKeywords[strings.ToLower(strings.TrimSpace(message))]
	return ok
}

// Store persists the conversation state of a candidate.
type Store interface {
	GetOrCreate(ctx context.Context, identity string) (*candidate.Candidate, error)
	Commit(ctx context.Context, id uint, stage candidate.Stage, upd candidate.Update) (*candidate.Candidate, error)
}

// Classifier sorts a free-text answer into a category for the given shape.
type Classifier interface {
	Classify(ctx context.Context, text string, shape ai.Shape) ai.Classification
}

// Replier words the conversational reply for a stage.
type Replier interface {
	Reply(ctx context.Context, req ai.ReplyRequest) string
}

// Result is the outcome of one processed message.
type Result struct {
	Reply     string
	Previous  candidate.Stage
	Stage     candidate.Stage
	Candidate *candidate.Candidate
}

// JustCompleted reports whether this message moved the conversation into COMPLETED.
func (r Result) JustCompleted() bool {
	return r.Previous != candidate.StageCompleted && r.Stage == candidate.StageCompleted
}

// NeedsScoring reports whether the scoring pipeline should be triggered.
func (r Result) NeedsScoring() bool {
	return r.JustCompleted() && r.Candidate != nil && r.Candidate.QualificationScore == 0
}

// Engine is the screening state machine. It holds no conversation state of
// its own; every call re-reads the record from the store.
type Engine struct {
	store      Store
	classifier Classifier
	replier    Replier
	handlers   map[candidate.Stage]handler
	logger     *zap.Logger
}

func New(store Store, classifier Classifier, replier Replier, log *zap.Logger) *Engine {
	return &Engine{
		store:      store,
		classifier: classifier,
		replier:    replier,
		handlers:   handlers(),
		logger:     logger.WithFields(log).Named("flow"),
	}
}

// Process handles one inbound message for identity and returns the reply.
func (e *Engine) Process(ctx context.Context, identity, message string) (Result, error) {
	c, err := e.store.GetOrCreate(ctx, identity)
	if err != nil {
		return Result{}, fmt.Errorf("load candidate: %w", err)
	}
	log := logger.WithCandidate(e.logger, c.ID, c.Identity)

	if IsReset(message) {
		updated, err := e.store.Commit(ctx, c.ID, candidate.StageIdle, candidate.Update{})
		if err != nil {
			return Result{}, fmt.Errorf("reset stage: %w", err)
		}
		log.Info("conversation reset", zap.Stringer("from", c.Stage))
		return Result{Reply: replyReset, Previous: c.Stage, Stage: candidate.StageIdle, Candidate: updated}, nil
	}

	var tr transition
	h, ok := e.handlers[c.Stage]
	if ok {
		tr = h(ctx, e, c, message)
	} else {
		log.Warn("unknown stage, restarting conversation", zap.Int(logger.FieldStage, int(c.Stage)))
		tr = transition{next: candidate.StageIdle, reply: replyCorrupt}
	}

	res := Result{Reply: tr.reply, Previous: c.Stage, Stage: tr.next, Candidate: c}
	if tr.next == c.Stage && tr.update.IsEmpty() {
		log.Debug("message processed", zap.Stringer(logger.FieldStage, c.Stage))
		return res, nil
	}

	updated, err := e.store.Commit(ctx, c.ID, tr.next, tr.update)
	if err != nil {
		return Result{}, fmt.Errorf("commit stage %s: %w", tr.next, err)
	}
	res.Candidate = updated

	log.Info("stage changed", zap.Stringer("from", c.Stage), zap.Stringer("to", tr.next))
	return res, nil
}

func (e *Engine) classify(ctx context.Context, text string, shape ai.Shape) ai.Classification {
	if e.classifier == nil {
		return ai.Classification{Category: ai.CategoryUnclear}
	}
	return e.classifier.Classify(ctx, text, shape)
}

// reply phrases a transition. Without a generator the instruction is the reply.
func (e *Engine) reply(ctx context.Context, c *candidate.Candidate, message, event, instruction string) string {
	if e.replier == nil {
		return instruction
	}
	return e.replier.Reply(ctx, ai.ReplyRequest{
		LastMessage:  message,
		TriggerEvent: event,
		Instruction:  instruction,
		KnownName:    c.DisplayName(),
	})
}
