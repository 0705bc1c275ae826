package gemini

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/recruit-bot/internal/ai"
)

const maxGradeInput = 3000

// Grader implements ai.Grader on Gemini.
type Grader struct {
	caller
}

func NewGrader(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Grader {
	return &Grader{caller: newCaller(generator, maxLogLength, logger, "grader")}
}

func (g *Grader) Grade(ctx context.Context, text, jobTitle string) (*ai.Grade, error) {
	system := buildPrompt(gradeTemplate, map[string]string{"{{JOB_TITLE}}": jobTitle})

	cv := truncateRunes(text, maxGradeInput)
	if cv == "" {
		cv = "(empty)"
	}
	message := "JOB POSITION: " + jobTitle + "\n\nCANDIDATE CV TEXT:\n" + cv

	raw, err := g.call(ctx, "grade", system, message, Options{Temperature: genai.Ptr[float32](0.2), JSON: true})
	if err != nil {
		return nil, err
	}

	var out ai.Grade
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
