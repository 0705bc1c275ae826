package candidate

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Message is a single history entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Candidate is the durable per-identity state of a screening conversation.
type Candidate struct {
	ID       uint   `gorm:"column:id;primaryKey" json:"id"`
	Identity string `gorm:"column:identity;uniqueIndex;not null" json:"identity"`
	Stage    Stage  `gorm:"column:stage;not null;default:0;index" json:"stage"`

	Name              string `gorm:"column:name" json:"name,omitempty"`
	Phone             string `gorm:"column:phone" json:"phone,omitempty"`
	PositionInterest  string `gorm:"column:position_interest" json:"position_interest,omitempty"`
	HasAIExperience   bool   `gorm:"column:has_ai_experience;not null;default:false" json:"has_ai_experience"`
	HasAPIKnowledge   bool   `gorm:"column:has_api_knowledge;not null;default:false" json:"has_api_knowledge"`
	WorkMode          string `gorm:"column:work_mode" json:"work_mode,omitempty"`
	Availability      string `gorm:"column:availability" json:"availability,omitempty"`
	SalaryExpectation *int   `gorm:"column:salary_expectation" json:"salary_expectation,omitempty"`
	Source            string `gorm:"column:source" json:"source,omitempty"`
	LanguageLevel     string `gorm:"column:language_level" json:"language_level,omitempty"`

	CVRef          *string `gorm:"column:cv_ref" json:"cv_ref,omitempty"`
	CoverLetterRef *string `gorm:"column:cover_letter_ref" json:"cover_letter_ref,omitempty"`

	YearsOfExperience int                                 `gorm:"column:years_of_experience;not null;default:0" json:"years_of_experience"`
	Skills            datatypes.JSONType[map[string]bool] `gorm:"column:skills" json:"skills"`
	Certifications    datatypes.JSONSlice[string]         `gorm:"column:certifications" json:"certifications"`
	Projects          datatypes.JSON                      `gorm:"column:projects" json:"projects,omitempty"`
	CVQualityScore    int                                 `gorm:"column:cv_quality_score;not null;default:0" json:"cv_quality_score"`
	MotivationScore   int                                 `gorm:"column:motivation_score;not null;default:0" json:"motivation_score"`
	SkillMatchScore   int                                 `gorm:"column:skill_match_score;not null;default:0" json:"skill_match_score"`

	QualificationScore int    `gorm:"column:qualification_score;not null;default:0" json:"qualification_score"`
	ScoringAttempts    int    `gorm:"column:scoring_attempts;not null;default:0" json:"scoring_attempts"`
	PipelineStatus     Status `gorm:"column:pipeline_status;not null;default:NEW;index" json:"pipeline_status"`

	History datatypes.JSONSlice[Message] `gorm:"column:history" json:"history"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;index" json:"updated_at"`
}

func (Candidate) TableName() string { return "candidates" }

// Assessment is the grading result kept in the projects column. Projects
// found by the CV analysis ride along so the grading overwrite keeps them.
type Assessment struct {
	Score    int      `json:"score"`
	Summary  string   `json:"summary"`
	Pros     []string `json:"pros"`
	Cons     []string `json:"cons"`
	Projects []string `json:"projects,omitempty"`
}

// HasCV reports whether a CV reference is stored.
func (c *Candidate) HasCV() bool {
	return c.CVRef != nil && strings.TrimSpace(*c.CVRef) != ""
}

func (c *Candidate) HasCoverLetter() bool {
	return c.CoverLetterRef != nil && strings.TrimSpace(*c.CoverLetterRef) != ""
}

// DisplayName is the name used to address the candidate in replies.
func (c *Candidate) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return "Du"
}

// SkillSet returns the stored skills, never nil.
func (c *Candidate) SkillSet() map[string]bool {
	skills := c.Skills.Data()
	if skills == nil {
		return map[string]bool{}
	}
	return skills
}

// Assessment decodes the grading result, if one was stored.
func (c *Candidate) Assessment() (*Assessment, bool) {
	if len(c.Projects) == 0 {
		return nil, false
	}
	var a Assessment
	if err := json.Unmarshal(c.Projects, &a); err != nil {
		return nil, false
	}
	return &a, true
}

// ProjectList returns the notable projects. The column holds either a plain
// JSON list or an Assessment carrying the list.
func (c *Candidate) ProjectList() []string {
	if len(c.Projects) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(c.Projects, &list); err == nil {
		return list
	}

	if a, ok := c.Assessment(); ok {
		return a.Projects
	}
	return nil
}
