// Package keyword is a deterministic, offline classifier used when no AI
// provider is configured.
package keyword

import (
	"context"
	"strings"
	"unicode"

	"github.com/spigell/recruit-bot/internal/ai"
)

const questionReply = "Gute Frage! Das klären wir gerne im persönlichen Gespräch mit unserem Recruiting-Team."

var (
	yesWords = []string{"ja", "yes", "jap", "jo", "jep", "klar", "sicher", "natürlich", "genau", "absolut", "auf jeden fall", "y"}
	noWords  = []string{"nein", "no", "nö", "nope", "eher nicht", "nicht", "leider nicht", "n"}

	jobWords  = []string{"job", "jobs", "stelle", "stellen", "bewerben", "position"}
	infoWords = []string{"info", "infos", "information", "informationen", "über euch"}

	jobChoices = []struct {
		value string
		words []string
	}{
		{ai.ValueJob1, []string{"1", "erste", "erster", "junior", "conversational", "ai developer"}},
		{ai.ValueJob2, []string{"2", "zweite", "zweiter", "backend", "senior", "python"}},
		{ai.ValueJob3, []string{"3", "dritte", "dritter", "trainee", "recruiting"}},
	}
)

type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(_ context.Context, text string, shape ai.Shape) (*ai.Classification, error) {
	normalized := normalize(text)
	if normalized == "" {
		return &ai.Classification{Category: ai.CategoryUnclear}, nil
	}

	var value string
	switch shape {
	case ai.ShapeYesNo:
		switch {
		case containsAny(normalized, noWords):
			value = ai.ValueNo
		case containsAny(normalized, yesWords):
			value = ai.ValueYes
		}
	case ai.ShapeJobOrInfo:
		switch {
		case containsAny(normalized, jobWords):
			value = ai.ValueJob
		case containsAny(normalized, infoWords):
			value = ai.ValueInfo
		}
	case ai.ShapeJobSelection:
		for _, choice := range jobChoices {
			if containsAny(normalized, choice.words) {
				value = choice.value
				break
			}
		}
	}

	if value != "" {
		return &ai.Classification{Category: ai.CategoryValidAnswer, Value: value}, nil
	}
	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		return &ai.Classification{Category: ai.CategoryQuestion, Reply: questionReply}, nil
	}
	return &ai.Classification{Category: ai.CategoryUnclear}, nil
}

// normalize lowercases text and collapses punctuation to single spaces so
// phrases can be matched on word boundaries.
func normalize(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return ""
	}
	return " " + strings.Join(fields, " ") + " "
}

func containsAny(normalized string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(normalized, " "+p+" ") {
			return true
		}
	}
	return false
}
