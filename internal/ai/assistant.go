package ai

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// FailedSummary is the summary of a degraded grade.
const FailedSummary = "error"

// Assistant exposes the AI capabilities with their failure contracts applied:
// none of its methods fail. Missing capabilities behave like failing ones.
type Assistant struct {
	classifier Classifier
	replier    ReplyGenerator
	grader     Grader
	analyzer   Analyzer
	logger     *zap.Logger
}

type AssistantDeps struct {
	Classifier Classifier
	Replier    ReplyGenerator
	Grader     Grader
	Analyzer   Analyzer
	Logger     *zap.Logger
}

func NewAssistant(deps AssistantDeps) *Assistant {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{
		classifier: deps.Classifier,
		replier:    deps.Replier,
		grader:     deps.Grader,
		analyzer:   deps.Analyzer,
		logger:     log,
	}
}

// Classify degrades to UNCLEAR on failure.
func (a *Assistant) Classify(ctx context.Context, text string, shape Shape) Classification {
	if a.classifier == nil {
		return Classification{Category: CategoryUnclear}
	}

	res, err := a.classifier.Classify(ctx, text, shape)
	if err != nil || res == nil {
		a.logger.Warn("classification failed, treating input as unclear", zap.String("shape", string(shape)), zap.Error(err))
		return Classification{Category: CategoryUnclear}
	}

	out := *res
	out.Category = Category(strings.ToUpper(strings.TrimSpace(string(out.Category))))
	out.Value = strings.ToUpper(strings.TrimSpace(out.Value))
	out.Reply = strings.TrimSpace(out.Reply)

	switch out.Category {
	case CategoryValidAnswer, CategoryQuestion:
	default:
		out.Category = CategoryUnclear
	}
	if out.Category == CategoryQuestion && out.Reply == "" {
		out.Category = CategoryUnclear
	}

	return out
}

// Reply falls back to the instruction verbatim so the conversation never stalls.
func (a *Assistant) Reply(ctx context.Context, req ReplyRequest) string {
	if a.replier == nil {
		return req.Instruction
	}

	text, err := a.replier.Generate(ctx, req)
	if err != nil || strings.TrimSpace(text) == "" {
		a.logger.Warn("reply generation failed, using instruction", zap.String("trigger_event", req.TriggerEvent), zap.Error(err))
		return req.Instruction
	}
	return strings.TrimSpace(text)
}

// Grade returns a zero-score degraded result on failure.
func (a *Assistant) Grade(ctx context.Context, text, jobTitle string) Grade {
	if a.grader == nil {
		return failedGrade()
	}

	g, err := a.grader.Grade(ctx, text, jobTitle)
	if err != nil || g == nil {
		a.logger.Warn("grading failed, using degraded result", zap.String("job_title", jobTitle), zap.Error(err))
		return failedGrade()
	}

	out := *g
	out.Score = clampScore(out.Score)
	if out.Pros == nil {
		out.Pros = []string{}
	}
	if out.Cons == nil {
		out.Cons = []string{}
	}
	return out
}

// AnalyzeCV returns a degraded empty analysis on failure.
func (a *Assistant) AnalyzeCV(ctx context.Context, text string) CVAnalysis {
	if a.analyzer == nil {
		return CVAnalysis{Degraded: true}
	}

	res, err := a.analyzer.AnalyzeCV(ctx, text)
	if err != nil || res == nil {
		a.logger.Warn("cv analysis failed", zap.Error(err))
		return CVAnalysis{Degraded: true}
	}

	out := *res
	out.QualityScore = clampScore(out.QualityScore)
	if out.YearsOfExperience < 0 {
		out.YearsOfExperience = 0
	}
	return out
}

func (a *Assistant) AnalyzeCoverLetter(ctx context.Context, text string) CoverLetterAnalysis {
	if a.analyzer == nil {
		return CoverLetterAnalysis{Degraded: true}
	}

	res, err := a.analyzer.AnalyzeCoverLetter(ctx, text)
	if err != nil || res == nil {
		a.logger.Warn("cover letter analysis failed", zap.Error(err))
		return CoverLetterAnalysis{Degraded: true}
	}

	out := *res
	out.MotivationScore = clampScore(out.MotivationScore)
	return out
}

func failedGrade() Grade {
	return Grade{Score: 0, Summary: FailedSummary, Pros: []string{}, Cons: []string{}, Degraded: true}
}

func clampScore(v int) int {
	return max(0, min(v, 100))
}
