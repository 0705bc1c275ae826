package scoring

import "strings"

var skillWeights = map[string]int{
	// core
	"apis":       5,
	"python":     5,
	"javascript": 5,
	// automation tooling
	"make_com": 5,
	"n8n":      5,
	"zapier":   5,
	// conversational AI
	"openai":            10,
	"conversational_ai": 10,
	"parloa":            15,
}

// SkillMatch rates the detected skills against the hiring stack, capped at 100.
// Skill names are matched case-insensitively; unknown skills are ignored.
func SkillMatch(skills map[string]bool) int {
	total := 0
	for name, present := range skills {
		if !present {
			continue
		}
		total += skillWeights[strings.ToLower(strings.TrimSpace(name))]
	}
	return min(total, 100)
}
