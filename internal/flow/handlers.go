package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/recruit-bot/internal/ai"
	"github.com/spigell/recruit-bot/internal/candidate"
	"github.com/spigell/recruit-bot/internal/utils"
)

type transition struct {
	next   candidate.Stage
	reply  string
	update candidate.Update
}

type handler func(ctx context.Context, e *Engine, c *candidate.Candidate, message string) transition

func stay(c *candidate.Candidate, reply string) transition {
	return transition{next: c.Stage, reply: reply}
}

func handlers() map[candidate.Stage]handler {
	return map[candidate.Stage]handler{
		candidate.StageIdle:         handleIdle,
		candidate.StageGreeted:      handleGreeted,
		candidate.StageJobSelected:  handleJobSelected,
		candidate.StageReq1:         requirementHandler(aiExperience),
		candidate.StageReq2:         requirementHandler(apiKnowledge),
		candidate.StageReq3:         requirementHandler(innovationMindset),
		candidate.StageName:         handleName,
		candidate.StagePhone:        handlePhone,
		candidate.StageCV:           handleCV,
		candidate.StageCover:        handleCover,
		candidate.StageAvailability: handleAvailability,
		candidate.StageSalary:       handleSalary,
		candidate.StageSource:       handleSource,
		candidate.StageLanguage:     handleLanguage,
		candidate.StageCompleted:    handleCompleted,
	}
}

func handleIdle(_ context.Context, _ *Engine, _ *candidate.Candidate, _ string) transition {
	return transition{next: candidate.StageGreeted, reply: replyMenu}
}

func handleGreeted(ctx context.Context, e *Engine, c *candidate.Candidate, message string) transition {
	verdict := e.classify(ctx, message, ai.ShapeJobOrInfo)
	lower := strings.ToLower(message)

	switch {
	case verdict.Category == ai.CategoryValidAnswer && verdict.Value == ai.ValueJob,
		strings.Contains(lower, "job"), strings.Contains(lower, "1"):
		return transition{next: candidate.StageJobSelected, reply: replyJobList}
	case verdict.Category == ai.CategoryValidAnswer && verdict.Value == ai.ValueInfo,
		strings.Contains(lower, "info"), strings.Contains(lower, "2"):
		return stay(c, replyInfo)
	case verdict.Category == ai.CategoryQuestion:
		return stay(c, verdict.Reply+suffixGreeted)
	default:
		return stay(c, replyGreetedHuh)
	}
}

// selectJob maps a message to one of the offered positions.
func selectJob(message, value string) (string, bool) {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(message, "1") || value == ai.ValueJob1 || strings.Contains(lower, "junior"):
		return JobConversationalAI, true
	case strings.Contains(message, "2") || value == ai.ValueJob2 || strings.Contains(lower, "backend"):
		return JobBackend, true
	case strings.Contains(message, "3") || value == ai.ValueJob3 || strings.Contains(lower, "trainee"):
		return JobTrainee, true
	}
	return "", false
}

func handleJobSelected(ctx context.Context, e *Engine, c *candidate.Candidate, message string) transition {
	verdict := e.classify(ctx, message, ai.ShapeJobSelection)
	if verdict.Category == ai.CategoryQuestion {
		return stay(c, verdict.Reply+suffixJobSelected)
	}

	job, ok := selectJob(message, verdict.Value)
	if !ok {
		return stay(c, replyUnknownJob)
	}

	instruction := fmt.Sprintf("Confirm the choice '%s' enthusiastically. Then ask Question 1 (K.O.): "+
		"Do they have experience with Chatbots or LLMs (e.g. OpenAI)? (Ask for Yes/No)", job)
	return transition{
		next:   candidate.StageReq1,
		reply:  e.reply(ctx, c, message, "USER_SELECTED_JOB_"+job, instruction),
		update: candidate.Update{PositionInterest: utils.Ptr(job)},
	}
}

// requirement is one knock-out question.
type requirement struct {
	next        candidate.Stage
	event       string
	instruction string
	rejection   string
	question    string
	unclear     string
	record      func(*candidate.Update)
}

var (
	aiExperience = requirement{
		next:        candidate.StageReq2,
		event:       "USER_HAS_AI_EXPERIENCE",
		instruction: "React positively to their AI experience. Then ask Question 2: Are they fit in Python and APIs? (Ask for Yes/No)",
		rejection:   "Schade! Für diese Position setzen wir Vorerfahrung voraus. 😕\n\nAber bewirb dich gerne initiativ über unsere Website!\n\n(Session beendet)",
		question:    "\n\n(Aber zur Frage: Hast du Erfahrung? Ja oder Nein?)",
		unclear:     "Bitte antworte mit **Ja**, **Nein** oder stelle eine Frage.",
		record:      func(u *candidate.Update) { u.HasAIExperience = utils.Ptr(true) },
	}
	apiKnowledge = requirement{
		next:        candidate.StageReq3,
		event:       "USER_KNOWS_PYTHON_AND_API",
		instruction: "Great! Now Question 3: Do they have a mindset for Innovation & Dynamics? (Ask for Yes/No)",
		rejection:   "Danke für deine Ehrlichkeit! Leider sind Python-Kenntnisse hier essenziell. Vielleicht passt eine andere Stelle? 👋",
		question:    "\n\n(Zurück zur Frage: Bist du fit in Python? Ja/Nein)",
		unclear:     "Bitte antworte mit **Ja** oder **Nein**.",
		record:      func(u *candidate.Update) { u.HasAPIKnowledge = utils.Ptr(true) },
	}
	innovationMindset = requirement{
		next:        candidate.StageName,
		event:       "USER_HAS_INNOVATION_MINDSET",
		instruction: "Celebrate that they are a perfect match! Now ask for their First and Last Name to save the application.",
		rejection:   "Alles klar, danke für das Gespräch! Wir suchen jemanden mit genau diesem Drive. Alles Gute! 👋",
		question:    "\n\n(Bist du bereit dich einzuarbeiten? Ja/Nein)",
		unclear:     "Bitte antworte mit **Ja** oder **Nein**.",
	}
)

// requirementHandler builds the handler for a knock-out question. Only a
// valid YES passes; any other valid answer is a knock-out.
func requirementHandler(req requirement) handler {
	return func(ctx context.Context, e *Engine, c *candidate.Candidate, message string) transition {
		verdict := e.classify(ctx, message, ai.ShapeYesNo)

		switch verdict.Category {
		case ai.CategoryValidAnswer:
			if verdict.Value != ai.ValueYes {
				return transition{next: candidate.StageCompleted, reply: req.rejection}
			}
			var upd candidate.Update
			if req.record != nil {
				req.record(&upd)
			}
			return transition{
				next:   req.next,
				reply:  e.reply(ctx, c, message, req.event, req.instruction),
				update: upd,
			}
		case ai.CategoryQuestion:
			return stay(c, verdict.Reply+req.question)
		default:
			return stay(c, req.unclear)
		}
	}
}

func handleName(_ context.Context, _ *Engine, c *candidate.Candidate, message string) transition {
	name := strings.TrimSpace(message)
	if len([]rune(name)) < 3 {
		return stay(c, replyNameTooShort)
	}
	return transition{
		next:   candidate.StagePhone,
		reply:  fmt.Sprintf(replyAskPhone, name),
		update: candidate.Update{Name: utils.Ptr(name)},
	}
}

func handlePhone(_ context.Context, _ *Engine, _ *candidate.Candidate, message string) transition {
	return transition{
		next:   candidate.StageCV,
		reply:  replyAskCV,
		update: candidate.Update{Phone: utils.Ptr(strings.TrimSpace(message))},
	}
}

func handleCV(_ context.Context, _ *Engine, c *candidate.Candidate, message string) transition {
	if c.HasCV() || message == UploadDone {
		return transition{next: candidate.StageCover, reply: replyCVReceived}
	}
	lower := strings.ToLower(message)
	if strings.Contains(lower, "weiter") || strings.Contains(lower, "kein") {
		return stay(c, replyCVMandatory)
	}
	return stay(c, replyCVMissing)
}

func handleCover(_ context.Context, _ *Engine, c *candidate.Candidate, message string) transition {
	lower := strings.ToLower(message)
	if c.HasCoverLetter() || message == UploadDone || strings.Contains(lower, "weiter") || strings.Contains(lower, "nein") {
		return transition{next: candidate.StageAvailability, reply: replyAskAvailability}
	}
	return stay(c, replyCoverMissing)
}

func handleAvailability(_ context.Context, _ *Engine, _ *candidate.Candidate, message string) transition {
	return transition{
		next:   candidate.StageSalary,
		reply:  replyAskSalary,
		update: candidate.Update{Availability: utils.Ptr(strings.TrimSpace(message))},
	}
}

// handleSalary keeps only the digits. A message without digits leaves the
// salary unset and still moves on.
func handleSalary(_ context.Context, _ *Engine, _ *candidate.Candidate, message string) transition {
	tr := transition{next: candidate.StageSource, reply: replyAskSource}
	if digits := utils.DigitsOnly(message); digits != "" {
		if salary, err := strconv.Atoi(digits); err == nil {
			tr.update.SalaryExpectation = utils.Ptr(salary)
		}
	}
	return tr
}

func handleSource(_ context.Context, _ *Engine, _ *candidate.Candidate, message string) transition {
	return transition{
		next:   candidate.StageLanguage,
		reply:  replyAskLanguage,
		update: candidate.Update{Source: utils.Ptr(strings.TrimSpace(message))},
	}
}

func handleLanguage(_ context.Context, _ *Engine, c *candidate.Candidate, message string) transition {
	name := c.DisplayName()
	return transition{
		next:   candidate.StageCompleted,
		reply:  fmt.Sprintf(replySummary, name, name, c.Phone, c.PositionInterest),
		update: candidate.Update{LanguageLevel: utils.Ptr(strings.TrimSpace(message))},
	}
}

func handleCompleted(_ context.Context, _ *Engine, c *candidate.Candidate, _ string) transition {
	return stay(c, replyAlreadyDone)
}
