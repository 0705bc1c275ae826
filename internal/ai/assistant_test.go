package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubClassifier struct {
	res *Classification
	err error
}

func (s stubClassifier) Classify(context.Context, string, Shape) (*Classification, error) {
	return s.res, s.err
}

type stubReplier struct {
	text string
	err  error
}

func (s stubReplier) Generate(context.Context, ReplyRequest) (string, error) {
	return s.text, s.err
}

type stubGrader struct {
	grade *Grade
	err   error
}

func (s stubGrader) Grade(context.Context, string, string) (*Grade, error) {
	return s.grade, s.err
}

type stubAnalyzer struct {
	cv    *CVAnalysis
	cover *CoverLetterAnalysis
	err   error
}

func (s stubAnalyzer) AnalyzeCV(context.Context, string) (*CVAnalysis, error) {
	return s.cv, s.err
}

func (s stubAnalyzer) AnalyzeCoverLetter(context.Context, string) (*CoverLetterAnalysis, error) {
	return s.cover, s.err
}

func TestAssistantClassify(t *testing.T) {
	tests := []struct {
		name       string
		classifier Classifier
		want       Classification
	}{
		{name: "no classifier", classifier: nil, want: Classification{Category: CategoryUnclear}},
		{name: "error", classifier: stubClassifier{err: errors.New("quota")}, want: Classification{Category: CategoryUnclear}},
		{name: "nil result", classifier: stubClassifier{}, want: Classification{Category: CategoryUnclear}},
		{
			name:       "normalizes case",
			classifier: stubClassifier{res: &Classification{Category: "valid_answer", Value: " yes "}},
			want:       Classification{Category: CategoryValidAnswer, Value: ValueYes},
		},
		{
			name:       "unknown category",
			classifier: stubClassifier{res: &Classification{Category: "MAYBE"}},
			want:       Classification{Category: CategoryUnclear},
		},
		{
			name:       "question without reply",
			classifier: stubClassifier{res: &Classification{Category: CategoryQuestion}},
			want:       Classification{Category: CategoryUnclear},
		},
		{
			name:       "question",
			classifier: stubClassifier{res: &Classification{Category: CategoryQuestion, Reply: " Wir sitzen in Osnabrück. "}},
			want:       Classification{Category: CategoryQuestion, Reply: "Wir sitzen in Osnabrück."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssistant(AssistantDeps{Classifier: tt.classifier})
			got := a.Classify(context.Background(), "text", ShapeYesNo)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("classification mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssistantReplyFallsBackToInstruction(t *testing.T) {
	req := ReplyRequest{LastMessage: "ja", TriggerEvent: "USER_HAS_AI_EXPERIENCE", Instruction: "Ask question 2"}

	core, observed := observer.New(zapcore.WarnLevel)
	failing := NewAssistant(AssistantDeps{Replier: stubReplier{err: errors.New("timeout")}, Logger: zap.New(core)})
	if got := failing.Reply(context.Background(), req); got != req.Instruction {
		t.Fatalf("expected instruction fallback, got %q", got)
	}
	if observed.FilterMessage("reply generation failed, using instruction").Len() != 1 {
		t.Fatal("expected a warning for the failed generation")
	}

	blank := NewAssistant(AssistantDeps{Replier: stubReplier{text: "   "}})
	if got := blank.Reply(context.Background(), req); got != req.Instruction {
		t.Fatalf("expected instruction fallback for blank reply, got %q", got)
	}

	none := NewAssistant(AssistantDeps{})
	if got := none.Reply(context.Background(), req); got != req.Instruction {
		t.Fatalf("expected instruction without replier, got %q", got)
	}

	ok := NewAssistant(AssistantDeps{Replier: stubReplier{text: " Super! Kennst du Python? "}})
	if got := ok.Reply(context.Background(), req); got != "Super! Kennst du Python?" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestAssistantGrade(t *testing.T) {
	failed := Grade{Score: 0, Summary: "error", Pros: []string{}, Cons: []string{}, Degraded: true}

	tests := []struct {
		name   string
		grader Grader
		want   Grade
	}{
		{name: "no grader", grader: nil, want: failed},
		{name: "error", grader: stubGrader{err: errors.New("boom")}, want: failed},
		{
			name:   "clamps and fills lists",
			grader: stubGrader{grade: &Grade{Score: 140, Summary: "stark"}},
			want:   Grade{Score: 100, Summary: "stark", Pros: []string{}, Cons: []string{}},
		},
		{
			name:   "passes through",
			grader: stubGrader{grade: &Grade{Score: 64, Summary: "ok", Pros: []string{"Python"}, Cons: []string{"kein Parloa"}}},
			want:   Grade{Score: 64, Summary: "ok", Pros: []string{"Python"}, Cons: []string{"kein Parloa"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewAssistant(AssistantDeps{Grader: tt.grader}).Grade(context.Background(), "", "General Application")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("grade mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssistantAnalyze(t *testing.T) {
	none := NewAssistant(AssistantDeps{})
	if !none.AnalyzeCV(context.Background(), "cv").Degraded || !none.AnalyzeCoverLetter(context.Background(), "cl").Degraded {
		t.Fatal("missing analyzer must produce degraded results")
	}

	failing := NewAssistant(AssistantDeps{Analyzer: stubAnalyzer{err: errors.New("boom")}})
	if !failing.AnalyzeCV(context.Background(), "cv").Degraded {
		t.Fatal("failing analyzer must produce degraded cv analysis")
	}

	a := NewAssistant(AssistantDeps{Analyzer: stubAnalyzer{
		cv:    &CVAnalysis{YearsOfExperience: -2, QualityScore: 120, Skills: map[string]bool{"python": true}},
		cover: &CoverLetterAnalysis{MotivationScore: -5},
	}})

	cv := a.AnalyzeCV(context.Background(), "cv")
	if cv.Degraded || cv.YearsOfExperience != 0 || cv.QualityScore != 100 {
		t.Fatalf("unexpected cv analysis %+v", cv)
	}
	if cover := a.AnalyzeCoverLetter(context.Background(), "cl"); cover.Degraded || cover.MotivationScore != 0 {
		t.Fatalf("unexpected cover analysis %+v", cover)
	}
}
