package candidate

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Update enumerates the record fields a writer may change. A nil field is left
// untouched. Stage is deliberately absent: it only moves through the flow
// engine commit or an explicit reset.
type Update struct {
	Name              *string
	Phone             *string
	PositionInterest  *string
	HasAIExperience   *bool
	HasAPIKnowledge   *bool
	WorkMode          *string
	Availability      *string
	SalaryExpectation *int
	Source            *string
	LanguageLevel     *string

	CVRef          *string
	CoverLetterRef *string

	YearsOfExperience *int
	Skills            map[string]bool
	Certifications    []string
	Projects          json.RawMessage
	CVQualityScore    *int
	MotivationScore   *int
	SkillMatchScore   *int

	QualificationScore *int
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return len(u.Columns()) == 0
}

// Columns maps the set fields to their column names.
func (u Update) Columns() map[string]any {
	cols := make(map[string]any)

	setString := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	setInt := func(col string, v *int) {
		if v != nil {
			cols[col] = *v
		}
	}
	setBool := func(col string, v *bool) {
		if v != nil {
			cols[col] = *v
		}
	}

	setString("name", u.Name)
	setString("phone", u.Phone)
	setString("position_interest", u.PositionInterest)
	setBool("has_ai_experience", u.HasAIExperience)
	setBool("has_api_knowledge", u.HasAPIKnowledge)
	setString("work_mode", u.WorkMode)
	setString("availability", u.Availability)
	setInt("salary_expectation", u.SalaryExpectation)
	setString("source", u.Source)
	setString("language_level", u.LanguageLevel)
	setString("cv_ref", u.CVRef)
	setString("cover_letter_ref", u.CoverLetterRef)
	setInt("years_of_experience", u.YearsOfExperience)
	setInt("cv_quality_score", u.CVQualityScore)
	setInt("motivation_score", u.MotivationScore)
	setInt("skill_match_score", u.SkillMatchScore)
	setInt("qualification_score", u.QualificationScore)

	if u.Skills != nil {
		cols["skills"] = datatypes.NewJSONType(u.Skills)
	}
	if u.Certifications != nil {
		cols["certifications"] = datatypes.JSONSlice[string](u.Certifications)
	}
	if u.Projects != nil {
		cols["projects"] = datatypes.JSON(u.Projects)
	}

	return cols
}

// Apply copies the set fields onto c.
func (u Update) Apply(c *Candidate) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
	if u.PositionInterest != nil {
		c.PositionInterest = *u.PositionInterest
	}
	if u.HasAIExperience != nil {
		c.HasAIExperience = *u.HasAIExperience
	}
	if u.HasAPIKnowledge != nil {
		c.HasAPIKnowledge = *u.HasAPIKnowledge
	}
	if u.WorkMode != nil {
		c.WorkMode = *u.WorkMode
	}
	if u.Availability != nil {
		c.Availability = *u.Availability
	}
	if u.SalaryExpectation != nil {
		v := *u.SalaryExpectation
		c.SalaryExpectation = &v
	}
	if u.Source != nil {
		c.Source = *u.Source
	}
	if u.LanguageLevel != nil {
		c.LanguageLevel = *u.LanguageLevel
	}
	if u.CVRef != nil {
		v := *u.CVRef
		c.CVRef = &v
	}
	if u.CoverLetterRef != nil {
		v := *u.CoverLetterRef
		c.CoverLetterRef = &v
	}
	if u.YearsOfExperience != nil {
		c.YearsOfExperience = *u.YearsOfExperience
	}
	if u.Skills != nil {
		c.Skills = datatypes.NewJSONType(u.Skills)
	}
	if u.Certifications != nil {
		c.Certifications = datatypes.JSONSlice[string](u.Certifications)
	}
	if u.Projects != nil {
		c.Projects = datatypes.JSON(u.Projects)
	}
	if u.CVQualityScore != nil {
		c.CVQualityScore = *u.CVQualityScore
	}
	if u.MotivationScore != nil {
		c.MotivationScore = *u.MotivationScore
	}
	if u.SkillMatchScore != nil {
		c.SkillMatchScore = *u.SkillMatchScore
	}
	if u.QualificationScore != nil {
		c.QualificationScore = *u.QualificationScore
	}
}
