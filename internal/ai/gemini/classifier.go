package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/recruit-bot/internal/ai"
)

var shapeRules = map[ai.Shape]string{
	ai.ShapeJobOrInfo: `- The user wants to see open jobs ("job", "stellen", "1") -> VALID_ANSWER with "JOB".
- The user wants information about the company ("info", "2") -> VALID_ANSWER with "INFO".`,
	ai.ShapeJobSelection: `- (Junior) Conversational AI Developer ("erster", "junior", "1") -> VALID_ANSWER with "JOB_1".
- Senior Backend Dev ("zweiter", "backend", "python", "2") -> VALID_ANSWER with "JOB_2".
- Trainee Recruiting ("dritter", "trainee", "3") -> VALID_ANSWER with "JOB_3".`,
	ai.ShapeYesNo: `- "ja", "sicher", "auf jeden fall" -> VALID_ANSWER with "YES".
- "nein", "eher nicht" -> VALID_ANSWER with "NO".`,
}

// Classifier implements ai.Classifier on Gemini.
type Classifier struct {
	caller
}

func NewClassifier(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Classifier {
	return &Classifier{caller: newCaller(generator, maxLogLength, logger, "classifier")}
}

func (c *Classifier) Classify(ctx context.Context, text string, shape ai.Shape) (*ai.Classification, error) {
	rules, ok := shapeRules[shape]
	if !ok {
		return nil, fmt.Errorf("unknown answer shape %q", shape)
	}

	system := buildPrompt(classifyTemplate, map[string]string{
		"{{SHAPE}}":       string(shape),
		"{{SHAPE_RULES}}": rules,
		"{{COMPANY}}":     companyInfo,
	})

	raw, err := c.call(ctx, "classify", system, text, Options{Temperature: genai.Ptr[float32](0.3), JSON: true})
	if err != nil {
		return nil, err
	}

	var out ai.Classification
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
