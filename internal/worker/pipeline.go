package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/ai"
	"github.com/spigell/recruit-bot/internal/candidate"
	"github.com/spigell/recruit-bot/internal/documents"
	"github.com/spigell/recruit-bot/internal/logger"
	"github.com/spigell/recruit-bot/internal/scoring"
	"github.com/spigell/recruit-bot/internal/storage"
	"github.com/spigell/recruit-bot/internal/utils"
)

const (
	// DefaultJobTitle is graded against when no position was chosen.
	DefaultJobTitle = "General Application"

	minTextLength = 50
)

// Store loads a candidate and persists the pipeline results.
type Store interface {
	Get(ctx context.Context, id uint) (*candidate.Candidate, error)
	Update(ctx context.Context, id uint, upd candidate.Update) (*candidate.Candidate, error)
}

// Fetcher resolves a stored document reference into its bytes.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*documents.Blob, error)
}

// Extractor turns a fetched document into plain text.
type Extractor interface {
	ExtractBlob(blob *documents.Blob) string
}

// Grader scores CV text against a job title.
type Grader interface {
	Grade(ctx context.Context, text, jobTitle string) ai.Grade
}

// Analyzer extracts structured details from CV and cover letter text.
type Analyzer interface {
	AnalyzeCV(ctx context.Context, text string) ai.CVAnalysis
	AnalyzeCoverLetter(ctx context.Context, text string) ai.CoverLetterAnalysis
}

// PipelineDeps are the collaborators of a Pipeline.
type PipelineDeps struct {
	Store     Store
	Fetcher   Fetcher
	Extractor Extractor
	Grader    Grader
	// Analyzer and Publisher are optional.
	Analyzer  Analyzer
	Publisher Publisher
	Logger    *zap.Logger
}

// Pipeline grades a completed candidate's CV and stores the result.
type Pipeline struct {
	store     Store
	fetcher   Fetcher
	extractor Extractor
	grader    Grader
	analyzer  Analyzer
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		store:     deps.Store,
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		grader:    deps.Grader,
		analyzer:  deps.Analyzer,
		publisher: deps.Publisher,
		logger:    logger.WithFields(deps.Logger).Named("pipeline"),
		now:       time.Now,
	}
}

// Run executes one scoring run for the candidate. A missing record or a
// record without a CV is a no-op. Fetch and persistence failures abort the
// run and leave the stored score as it was. There is no retry here.
func (p *Pipeline) Run(ctx context.Context, id uint) error {
	runID := uuid.NewString()
	log := p.logger.With(zap.String(logger.FieldRunID, runID), zap.Uint(logger.FieldCandidateID, id))

	c, err := p.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("candidate not found, skipping run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load candidate: %w", err)
	}
	log = log.With(zap.String(logger.FieldIdentity, c.Identity))

	if !c.HasCV() {
		log.Info("no cv reference, skipping run")
		return nil
	}

	log.Info("scoring run started")

	text, err := p.documentText(ctx, *c.CVRef)
	if err != nil {
		log.Error("cv unavailable, run aborted", zap.Error(err))
		return fmt.Errorf("fetch cv: %w", err)
	}
	if utf8.RuneCountInString(text) < minTextLength {
		log.Warn("extracted cv text is short", zap.Int("length", utf8.RuneCountInString(text)))
	}

	job := c.PositionInterest
	if job == "" {
		job = DefaultJobTitle
	}
	grade := p.grader.Grade(ctx, text, job)
	log.Info("cv graded", zap.Int("score", grade.Score), zap.Bool("degraded", grade.Degraded))

	upd, projects := p.analyze(ctx, log, c, text)

	switch {
	case grade.Degraded && c.QualificationScore > 0:
		log.Warn("grading degraded, keeping previous score", zap.Int("previous", c.QualificationScore))
	default:
		if projects == nil {
			projects = c.ProjectList()
		}
		raw, err := json.Marshal(candidate.Assessment{
			Score:    grade.Score,
			Summary:  grade.Summary,
			Pros:     grade.Pros,
			Cons:     grade.Cons,
			Projects: projects,
		})
		if err != nil {
			return fmt.Errorf("encode assessment: %w", err)
		}
		upd.QualificationScore = utils.Ptr(grade.Score)
		upd.Projects = raw
	}

	if upd.IsEmpty() {
		return nil
	}

	updated, err := p.store.Update(ctx, id, upd)
	if err != nil {
		log.Error("persist score failed", zap.Error(err))
		return fmt.Errorf("persist score: %w", err)
	}

	event := NewScoredEvent(runID, updated, grade.Degraded, p.now())
	log.Info("scoring run finished",
		zap.Int("qualification_score", event.QualificationScore),
		zap.Int("profile_score", event.ProfileScore),
		zap.String("tier", event.Tier),
	)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, event); err != nil {
			log.Warn("publish scored event failed", zap.Error(err))
		}
	}

	return nil
}

func (p *Pipeline) documentText(ctx context.Context, ref string) (string, error) {
	blob, err := p.fetcher.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}
	return p.extractor.ExtractBlob(blob), nil
}

// analyze fills the derived fields. Degraded analyses are dropped so a
// failed call never wipes earlier values.
func (p *Pipeline) analyze(ctx context.Context, log *zap.Logger, c *candidate.Candidate, cvText string) (candidate.Update, []string) {
	var upd candidate.Update
	if p.analyzer == nil {
		return upd, nil
	}

	var projects []string
	if cvText != "" {
		cv := p.analyzer.AnalyzeCV(ctx, cvText)
		if cv.Degraded {
			log.Warn("cv analysis degraded, derived fields unchanged")
		} else {
			skills := cv.Skills
			if skills == nil {
				skills = map[string]bool{}
			}
			certs := cv.Certifications
			if certs == nil {
				certs = []string{}
			}
			upd.YearsOfExperience = utils.Ptr(cv.YearsOfExperience)
			upd.Skills = skills
			upd.Certifications = certs
			upd.CVQualityScore = utils.Ptr(cv.QualityScore)
			upd.SkillMatchScore = utils.Ptr(scoring.SkillMatch(skills))
			projects = cv.Projects
			if projects == nil {
				projects = []string{}
			}
		}
	}

	if c.HasCoverLetter() {
		text, err := p.documentText(ctx, *c.CoverLetterRef)
		switch {
		case err != nil:
			log.Warn("cover letter unavailable", zap.Error(err))
		case text == "":
			log.Warn("cover letter has no text")
		default:
			letter := p.analyzer.AnalyzeCoverLetter(ctx, text)
			if letter.Degraded {
				log.Warn("cover letter analysis degraded")
			} else {
				upd.MotivationScore = utils.Ptr(letter.MotivationScore)
			}
		}
	}

	return upd, projects
}
