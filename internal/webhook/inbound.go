package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/candidate"
	"github.com/spigell/recruit-bot/internal/documents"
	"github.com/spigell/recruit-bot/internal/flow"
	"github.com/spigell/recruit-bot/internal/logger"
	"github.com/spigell/recruit-bot/internal/messaging"
	"github.com/spigell/recruit-bot/internal/utils"
	"github.com/spigell/recruit-bot/internal/worker"
)

const (
	DefaultDedupWindow = 24 * time.Hour

	replyApology         = "⚠️ Entschuldigung, da ist gerade etwas schiefgelaufen. Bitte versuche es gleich noch einmal."
	replyUnexpectedMedia = "Danke für die Datei! Ich kann sie gerade nicht zuordnen, aber sie ist gespeichert."
	replyMediaRejected   = "Diese Datei konnte ich leider nicht öffnen. Bitte sende sie noch einmal als Anhang."

	mediaMarker = "[MEDIA] "
	maxLogBody  = 200
)

type Engine interface {
	Process(ctx context.Context, identity, message string) (flow.Result, error)
}

type ConversationStore interface {
	GetOrCreate(ctx context.Context, identity string) (*candidate.Candidate, error)
	Update(ctx context.Context, id uint, upd candidate.Update) (*candidate.Candidate, error)
	AppendMessage(ctx context.Context, id uint, role, content string) error
}

type Scheduler interface {
	Schedule(id uint) bool
}

type InboundConfig struct {
	DedupWindow time.Duration
	// AuthToken and PublicURL enable request signature checks when both are set.
	AuthToken string
	PublicURL string
}

type InboundDeps struct {
	Engine    Engine
	Store     ConversationStore
	Scheduler Scheduler
	Sender    messaging.Sender
	Locker    worker.Locker
	Config    InboundConfig
	Logger    *zap.Logger
}

// InboundHandler serves the messaging provider's webhook.
type InboundHandler struct {
	engine    Engine
	store     ConversationStore
	scheduler Scheduler
	sender    messaging.Sender
	locker    worker.Locker
	cfg       InboundConfig
	logger    *zap.Logger
}

type inboundMessage struct {
	From              string `form:"From" binding:"required"`
	Body              string `form:"Body"`
	MessageSid        string `form:"MessageSid"`
	NumMedia          int    `form:"NumMedia"`
	MediaURL0         string `form:"MediaUrl0"`
	MediaContentType0 string `form:"MediaContentType0"`
}

func (m inboundMessage) hasMedia() bool {
	return m.NumMedia > 0 && m.MediaURL0 != ""
}

type statusCallback struct {
	MessageSid    string `form:"MessageSid" binding:"required"`
	MessageStatus string `form:"MessageStatus" binding:"required"`
	To            string `form:"To"`
	ErrorCode     string `form:"ErrorCode"`
}

func NewInboundHandler(deps InboundDeps) *InboundHandler {
	cfg := deps.Config
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = DefaultDedupWindow
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	locker := deps.Locker
	if locker == nil {
		locker = worker.NewMemoryLocker()
	}
	sender := deps.Sender
	if sender == nil {
		sender = messaging.NewLogSender(deps.Logger)
	}

	return &InboundHandler{
		engine:    deps.Engine,
		store:     deps.Store,
		scheduler: deps.Scheduler,
		sender:    sender,
		locker:    locker,
		cfg:       cfg,
		logger:    logger.WithFields(deps.Logger).Named("webhook"),
	}
}

// Receive handles POST /webhook.
func (h *InboundHandler) Receive(c *gin.Context) {
	var msg inboundMessage
	if err := c.ShouldBind(&msg); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_form", err)
		return
	}

	if !h.verified(c) {
		h.logger.Warn("rejected webhook with invalid signature", zap.String("client_ip", c.ClientIP()))
		RespondError(c, http.StatusForbidden, "invalid_signature", errors.New("invalid request signature"))
		return
	}

	ctx := c.Request.Context()
	log := h.logger.With(zap.String(logger.FieldIdentity, msg.From), zap.String("message_sid", msg.MessageSid))

	var dedup worker.Lease
	if msg.MessageSid != "" {
		lease, fresh, err := h.locker.TryLock(ctx, "inbound:"+msg.MessageSid, h.cfg.DedupWindow)
		switch {
		case err != nil:
			log.Warn("dedup check failed, processing anyway", zap.Error(err))
		case !fresh:
			log.Info("duplicate delivery ignored")
			respondTwiML(c)
			return
		default:
			dedup = lease
		}
	}

	log.Info("message received",
		zap.String("body", utils.TruncateForLog(msg.Body, maxLogBody)),
		zap.Int("num_media", msg.NumMedia),
	)

	id, reply, err := h.handle(ctx, msg)
	if err != nil {
		log.Error("message handling failed", zap.Error(err))
		reply = replyApology
		// A redelivery of this message gets another chance.
		if dedup != nil {
			if err := dedup.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("release dedup key failed", zap.Error(err))
			}
		}
	}

	if reply != "" {
		if err := h.sender.Send(ctx, msg.From, reply); err != nil {
			log.Error("reply delivery failed", zap.Error(err))
		}
		if id != 0 {
			if err := h.store.AppendMessage(ctx, id, candidate.RoleBot, reply); err != nil {
				log.Warn("bot message not logged", zap.Error(err))
			}
		}
	}

	respondTwiML(c)
}

// handle runs one inbound message through the conversation. Panics are
// turned into errors so the candidate still gets an answer.
func (h *InboundHandler) handle(ctx context.Context, msg inboundMessage) (id uint, reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	c, err := h.store.GetOrCreate(ctx, msg.From)
	if err != nil {
		return 0, "", fmt.Errorf("load candidate: %w", err)
	}
	id = c.ID

	content := msg.Body
	if msg.hasMedia() {
		content = mediaMarker + msg.MediaURL0
	}
	if err := h.store.AppendMessage(ctx, id, candidate.RoleUser, content); err != nil {
		return id, "", fmt.Errorf("log inbound message: %w", err)
	}

	text := msg.Body
	if msg.hasMedia() {
		if !documents.RemoteReference(msg.MediaURL0) {
			h.logger.Warn("media reference rejected", zap.Uint(logger.FieldCandidateID, id), zap.String("media_url", utils.TruncateForLog(msg.MediaURL0, maxLogBody)))
			return id, replyMediaRejected, nil
		}
		ref := documents.ReferencePrefix + msg.MediaURL0
		var upd candidate.Update
		switch c.Stage {
		case candidate.StageCV:
			upd.CVRef = &ref
		case candidate.StageCover:
			upd.CoverLetterRef = &ref
		default:
			h.logger.Info("media outside upload stages", zap.Uint(logger.FieldCandidateID, id), zap.Stringer(logger.FieldStage, c.Stage))
			return id, replyUnexpectedMedia, nil
		}
		if _, err := h.store.Update(ctx, id, upd); err != nil {
			return id, "", fmt.Errorf("store document reference: %w", err)
		}
		text = flow.UploadDone
	}

	res, err := h.engine.Process(ctx, msg.From, text)
	if err != nil {
		return id, "", err
	}

	if res.NeedsScoring() && h.scheduler != nil {
		h.logger.Info("scheduling scoring", zap.Uint(logger.FieldCandidateID, id))
		h.scheduler.Schedule(res.Candidate.ID)
	}

	return id, res.Reply, nil
}

func (h *InboundHandler) verified(c *gin.Context) bool {
	if h.cfg.AuthToken == "" || h.cfg.PublicURL == "" {
		return true
	}
	return messaging.ValidSignature(
		h.cfg.AuthToken,
		h.cfg.PublicURL+c.Request.URL.RequestURI(),
		c.Request.PostForm,
		c.GetHeader(messaging.SignatureHeader),
	)
}

// Status handles GET /webhook for the provider console.
func (h *InboundHandler) Status(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok", "message": "Webhook active"})
}

// DeliveryStatus handles POST /callbacks/status.
func (h *InboundHandler) DeliveryStatus(c *gin.Context) {
	var cb statusCallback
	if err := c.ShouldBind(&cb); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_form", err)
		return
	}

	fields := []zap.Field{
		zap.String("message_sid", cb.MessageSid),
		zap.String("status", cb.MessageStatus),
		zap.String("to", cb.To),
	}
	if cb.ErrorCode != "" {
		h.logger.Warn("message delivery failed", append(fields, zap.String("error_code", cb.ErrorCode))...)
	} else {
		h.logger.Info("message status", fields...)
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
