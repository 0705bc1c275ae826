package gemini

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/recruit-bot/internal/ai"
)

// Replier implements ai.ReplyGenerator on Gemini.
type Replier struct {
	caller
}

func NewReplier(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Replier {
	return &Replier{caller: newCaller(generator, maxLogLength, logger, "replier")}
}

func (r *Replier) Generate(ctx context.Context, req ai.ReplyRequest) (string, error) {
	name := strings.TrimSpace(req.KnownName)
	if name == "" {
		name = "Du"
	}

	message := buildPrompt(replyTemplate, map[string]string{
		"{{NAME}}":        name,
		"{{MESSAGE}}":     req.LastMessage,
		"{{EVENT}}":       req.TriggerEvent,
		"{{INSTRUCTION}}": req.Instruction,
	})

	raw, err := r.call(ctx, "reply", persona(), message, Options{Temperature: genai.Ptr[float32](0.7)})
	if err != nil {
		return "", err
	}

	reply := strings.TrimSpace(raw)
	if len(reply) > 1 && strings.HasPrefix(reply, `"`) && strings.HasSuffix(reply, `"`) {
		reply = strings.TrimSpace(reply[1 : len(reply)-1])
	}
	return reply, nil
}
