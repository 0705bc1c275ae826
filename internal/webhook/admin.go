package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/candidate"
	"github.com/spigell/recruit-bot/internal/logger"
	"github.com/spigell/recruit-bot/internal/scoring"
	"github.com/spigell/recruit-bot/internal/storage"
)

const unknownSource = "Unbekannt"

type AdminStore interface {
	List(ctx context.Context) ([]candidate.Candidate, error)
	Get(ctx context.Context, id uint) (*candidate.Candidate, error)
	SetPipelineStatus(ctx context.Context, id uint, status candidate.Status) (*candidate.Candidate, error)
	ResetStage(ctx context.Context, id uint) (*candidate.Candidate, error)
}

// AdminHandler serves the reviewer API.
type AdminHandler struct {
	store     AdminStore
	scheduler Scheduler
	logger    *zap.Logger
}

func NewAdminHandler(store AdminStore, scheduler Scheduler, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		store:     store,
		scheduler: scheduler,
		logger:    logger.WithFields(log).Named("admin"),
	}
}

type candidateSummary struct {
	ID                 uint             `json:"id"`
	Identity           string           `json:"identity"`
	Name               string           `json:"name,omitempty"`
	Position           string           `json:"position,omitempty"`
	Stage              string           `json:"stage"`
	PipelineStatus     candidate.Status `json:"pipeline_status"`
	QualificationScore int              `json:"qualification_score"`
	Tier               string           `json:"tier"`
	ProfileScore       int              `json:"profile_score"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

type candidateDetail struct {
	Candidate    *candidate.Candidate  `json:"candidate"`
	Stage        string                `json:"stage"`
	Assessment   *candidate.Assessment `json:"assessment,omitempty"`
	Tier         string                `json:"tier"`
	ProfileScore int                   `json:"profile_score"`
	Feedback     string                `json:"feedback"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type stats struct {
	Total   int            `json:"total"`
	Funnel  map[string]int `json:"funnel"`
	Tiers   map[string]int `json:"tiers"`
	Sources map[string]int `json:"sources"`
}

func summarize(c *candidate.Candidate) candidateSummary {
	return candidateSummary{
		ID:                 c.ID,
		Identity:           c.Identity,
		Name:               c.Name,
		Position:           c.PositionInterest,
		Stage:              c.Stage.String(),
		PipelineStatus:     c.PipelineStatus,
		QualificationScore: c.QualificationScore,
		Tier:               scoring.Tier(c.QualificationScore),
		ProfileScore:       scoring.Score(scoring.AttributesFrom(c)),
		UpdatedAt:          c.UpdatedAt,
	}
}

// List handles GET /admin/candidates.
func (h *AdminHandler) List(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list candidates failed", zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}

	out := make([]candidateSummary, 0, len(records))
	for i := range records {
		out = append(out, summarize(&records[i]))
	}
	RespondOK(c, gin.H{"candidates": out})
}

// Get handles GET /admin/candidates/:id.
func (h *AdminHandler) Get(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}

	detail := candidateDetail{
		Candidate:    rec,
		Stage:        rec.Stage.String(),
		Tier:         scoring.Tier(rec.QualificationScore),
		ProfileScore: scoring.Score(scoring.AttributesFrom(rec)),
		Feedback:     scoring.Feedback(rec.QualificationScore),
	}
	if a, ok := rec.Assessment(); ok {
		detail.Assessment = a
	}
	RespondOK(c, detail)
}

// SetStatus handles POST /admin/candidates/:id/status.
func (h *AdminHandler) SetStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	status, err := candidate.ParseStatus(req.Status)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_status", err)
		return
	}

	rec, err := h.store.SetPipelineStatus(c.Request.Context(), id, status)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	h.logger.Info("pipeline status changed", zap.Uint(logger.FieldCandidateID, id), zap.String("status", string(status)))
	RespondOK(c, summarize(rec))
}

// Reset handles POST /admin/candidates/:id/reset.
func (h *AdminHandler) Reset(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rec, err := h.store.ResetStage(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	h.logger.Info("conversation reset by reviewer", zap.Uint(logger.FieldCandidateID, id))
	RespondOK(c, summarize(rec))
}

// Rescore handles POST /admin/candidates/:id/rescore.
func (h *AdminHandler) Rescore(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	if !rec.HasCV() {
		RespondError(c, http.StatusConflict, "no_cv", errors.New("candidate has no cv reference"))
		return
	}
	if h.scheduler == nil || !h.scheduler.Schedule(rec.ID) {
		RespondError(c, http.StatusServiceUnavailable, "queue_full", errors.New("scoring queue is not accepting work"))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "scheduled", "id": rec.ID})
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list candidates failed", zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, computeStats(records))
}

func computeStats(records []candidate.Candidate) stats {
	s := stats{
		Total:   len(records),
		Funnel:  map[string]int{"new": 0, "in_progress": 0, "completed": 0},
		Tiers:   map[string]int{scoring.TierHigh: 0, scoring.TierMedium: 0, scoring.TierLow: 0},
		Sources: map[string]int{},
	}

	for i := range records {
		rec := &records[i]
		switch {
		case rec.Stage == candidate.StageCompleted:
			s.Funnel["completed"]++
		case rec.Stage >= candidate.StageReq1:
			s.Funnel["in_progress"]++
		default:
			s.Funnel["new"]++
		}

		if rec.QualificationScore > 0 {
			s.Tiers[scoring.Tier(rec.QualificationScore)]++
		}

		source := rec.Source
		if source == "" {
			source = unknownSource
		}
		s.Sources[source]++
	}
	return s
}

func (h *AdminHandler) load(c *gin.Context) (*candidate.Candidate, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	rec, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return nil, false
	}
	return rec, true
}

func (h *AdminHandler) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	h.logger.Error("store operation failed", zap.Error(err))
	RespondError(c, http.StatusInternalServerError, "store_failed", err)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid candidate id %q", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}
