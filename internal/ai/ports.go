package ai

import "context"

// Category is the classifier verdict on a free-text answer.
type Category string

const (
	CategoryValidAnswer Category = "VALID_ANSWER"
	CategoryQuestion    Category = "QUESTION"
	CategoryUnclear     Category = "UNCLEAR"
)

// Shape is the kind of answer the conversation currently expects.
type Shape string

const (
	ShapeJobOrInfo    Shape = "job-or-info"
	ShapeJobSelection Shape = "job-selection"
	ShapeYesNo        Shape = "yes-no"
)

// Normalized values reported with CategoryValidAnswer.
const (
	ValueJob  = "JOB"
	ValueInfo = "INFO"
	ValueYes  = "YES"
	ValueNo   = "NO"
	ValueJob1 = "JOB_1"
	ValueJob2 = "JOB_2"
	ValueJob3 = "JOB_3"
)

type Classification struct {
	Category Category `json:"category"`
	Value    string   `json:"normalized_value"`
	Reply    string   `json:"ai_reply"`
}

type ReplyRequest struct {
	LastMessage  string
	TriggerEvent string
	Instruction  string
	KnownName    string
}

// Grade is the grading result for a document.
type Grade struct {
	Score   int      `json:"score"`
	Summary string   `json:"summary"`
	Pros    []string `json:"pros"`
	Cons    []string `json:"cons"`
	// Degraded marks the fallback value produced when grading failed.
	Degraded bool `json:"-"`
}

type CVAnalysis struct {
	YearsOfExperience int             `json:"years_of_experience"`
	Skills            map[string]bool `json:"skills"`
	Projects          []string        `json:"projects"`
	Certifications    []string        `json:"certifications"`
	QualityScore      int             `json:"quality_score"`
	Degraded          bool            `json:"-"`
}

type CoverLetterAnalysis struct {
	MotivationScore int  `json:"motivation_score"`
	Degraded        bool `json:"-"`
}

// Classifier decides whether text satisfies the expected shape.
type Classifier interface {
	Classify(ctx context.Context, text string, shape Shape) (*Classification, error)
}

// ReplyGenerator phrases a transition reply that must carry the instruction.
type ReplyGenerator interface {
	Generate(ctx context.Context, req ReplyRequest) (string, error)
}

type Grader interface {
	Grade(ctx context.Context, text, jobTitle string) (*Grade, error)
}

type Analyzer interface {
	AnalyzeCV(ctx context.Context, text string) (*CVAnalysis, error)
	AnalyzeCoverLetter(ctx context.Context, text string) (*CoverLetterAnalysis, error)
}
