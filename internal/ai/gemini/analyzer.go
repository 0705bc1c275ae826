package gemini

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/recruit-bot/internal/ai"
)

const (
	maxCVInput          = 4000
	maxCoverLetterInput = 2000
)

// Analyzer implements ai.Analyzer on Gemini.
type Analyzer struct {
	caller
}

func NewAnalyzer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Analyzer {
	return &Analyzer{caller: newCaller(generator, maxLogLength, logger, "analyzer")}
}

func (a *Analyzer) AnalyzeCV(ctx context.Context, text string) (*ai.CVAnalysis, error) {
	cv := truncateRunes(text, maxCVInput)
	if cv == "" {
		return nil, errors.New("cv text is empty")
	}

	raw, err := a.call(ctx, "analyze_cv", cvTemplate, cv, Options{Temperature: genai.Ptr[float32](0.2), JSON: true})
	if err != nil {
		return nil, err
	}

	var out ai.CVAnalysis
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Analyzer) AnalyzeCoverLetter(ctx context.Context, text string) (*ai.CoverLetterAnalysis, error) {
	letter := truncateRunes(text, maxCoverLetterInput)
	if letter == "" {
		return nil, errors.New("cover letter text is empty")
	}

	raw, err := a.call(ctx, "analyze_cover_letter", coverLetterTemplate, letter, Options{Temperature: genai.Ptr[float32](0.2), JSON: true})
	if err != nil {
		return nil, err
	}

	var out ai.CoverLetterAnalysis
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
