// Package scoring aggregates collected candidate attributes into a 0-100
// profile score and maps scores to tiers and feedback texts.
package scoring

import (
	"math"
	"strings"

	"github.com/spigell/recruit-bot/internal/candidate"
)

const (
	maxRaw = 160

	weightAIExperience  = 40
	weightAPIKnowledge  = 30
	weightFullTime      = 20
	weightPartTime      = 15
	weightWorkMode      = 10
	weightExperience    = 10
	weightProjects      = 10
	weightCertification = 10
	maxSkillBonus       = 20
	maxMotivationBonus  = 10

	minYearsOfExperience = 2
)

const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

var workModes = map[string]struct{}{
	"remote": {},
	"hybrid": {},
	"office": {},
}

// Attributes is the flat bag the score is computed from.
type Attributes struct {
	HasConversationalAIExperience bool
	HasAPIKnowledge               bool
	Availability                  string
	WorkMode                      string
	YearsOfExperience             int
	Projects                      []string
	Certifications                []string
	SkillMatchScore               int
	MotivationScore               int
}

// AttributesFrom collects the scoring attributes of a record.
func AttributesFrom(c *candidate.Candidate) Attributes {
	if c == nil {
		return Attributes{}
	}
	return Attributes{
		HasConversationalAIExperience: c.HasAIExperience,
		HasAPIKnowledge:               c.HasAPIKnowledge,
		Availability:                  c.Availability,
		WorkMode:                      c.WorkMode,
		YearsOfExperience:             c.YearsOfExperience,
		Projects:                      c.ProjectList(),
		Certifications:                []string(c.Certifications),
		SkillMatchScore:               c.SkillMatchScore,
		MotivationScore:               c.MotivationScore,
	}
}

// Raw returns the unscaled sum on the 0-160 scale.
func Raw(a Attributes) int {
	raw := 0

	if a.HasConversationalAIExperience {
		raw += weightAIExperience
	}
	if a.HasAPIKnowledge {
		raw += weightAPIKnowledge
	}

	availability := strings.ToLower(a.Availability)
	switch {
	case strings.Contains(availability, "full") || strings.Contains(availability, "vollzeit"):
		raw += weightFullTime
	case strings.Contains(availability, "part") || strings.Contains(availability, "teilzeit"):
		raw += weightPartTime
	}

	if _, ok := workModes[strings.ToLower(strings.TrimSpace(a.WorkMode))]; ok {
		raw += weightWorkMode
	}
	if a.YearsOfExperience >= minYearsOfExperience {
		raw += weightExperience
	}
	if len(a.Projects) > 0 {
		raw += weightProjects
	}
	if len(a.Certifications) > 0 {
		raw += weightCertification
	}
	if a.SkillMatchScore > 0 {
		raw += min(int(float64(a.SkillMatchScore)*0.2), maxSkillBonus)
	}
	if a.MotivationScore > 0 {
		raw += min(int(float64(a.MotivationScore)*0.1), maxMotivationBonus)
	}

	return raw
}

// Score rescales Raw to 0-100.
func Score(a Attributes) int {
	return min(int(math.Floor(float64(Raw(a))/maxRaw*100)), 100)
}

// Tier maps a score to its priority tier.
func Tier(score int) string {
	switch {
	case score >= 70:
		return TierHigh
	case score >= 40:
		return TierMedium
	default:
		return TierLow
	}
}

// Feedback is the candidate-facing sentence for a score band.
func Feedback(score int) string {
	switch {
	case score >= 90:
		return "🌟 Dein Profil sieht hervorragend aus!"
	case score >= 70:
		return "✨ Dein Profil passt sehr gut!"
	case score >= 50:
		return "👍 Dein Profil ist interessant!"
	default:
		return "📝 Vielen Dank für dein Interesse!"
	}
}
