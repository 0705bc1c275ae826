package gemini

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/logger"
	"github.com/spigell/recruit-bot/internal/utils"
)

const defaultMaxLogLength = 200

type contentGenerator interface {
	Generate(ctx context.Context, system, message string, opts Options) (string, error)
}

// caller logs request and response previews around a generator call.
type caller struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func newCaller(generator contentGenerator, maxLogLength int, log *zap.Logger, name string) caller {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return caller{
		generator: generator,
		logger:    logger.WithFields(log).Named(name),
		maxLogLen: maxLogLength,
	}
}

func (c caller) call(ctx context.Context, op, system, message string, opts Options) (string, error) {
	c.logger.Debug("gemini generate content request",
		zap.String("operation", op),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, c.maxLogLen)),
	)

	raw, err := c.generator.Generate(ctx, system, message, opts)
	if err != nil {
		return "", err
	}

	c.logger.Debug("gemini generate content response",
		zap.String("operation", op),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)
	return raw, nil
}
