// Package messaging delivers bot replies to candidates.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/logger"
	"github.com/spigell/recruit-bot/internal/utils"
)

const (
	DefaultBaseURL  = "https://api.twilio.com/2010-04-01"
	whatsAppPrefix  = "whatsapp:"
	defaultTimeout  = 10 * time.Second
	userAgent       = "recruit-bot"
	maxErrorPreview = 300
)

type Sender interface {
	Send(ctx context.Context, to, body string) error
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	// From is the sending WhatsApp number, with or without the whatsapp: prefix.
	From    string
	BaseURL string
	Timeout time.Duration
}

// Twilio sends WhatsApp messages through the Twilio REST API.
type Twilio struct {
	HTTPClient *http.Client
	UserAgent  string

	baseURL    string
	accountSID string
	authToken  string
	from       string
	logger     *zap.Logger
}

type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewTwilio(cfg TwilioConfig, log *zap.Logger) (*Twilio, error) {
	if cfg.AccountSID == "" {
		return nil, errors.New("twilio account sid is required")
	}
	if cfg.AuthToken == "" {
		return nil, errors.New("twilio auth token is required")
	}
	if cfg.From == "" {
		return nil, errors.New("twilio sender number is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Twilio{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
		baseURL:    baseURL,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       WhatsAppAddress(cfg.From),
		logger:     logger.WithFields(log).Named("twilio"),
	}, nil
}

// Send delivers body to the candidate. Delivery is attempted once.
func (t *Twilio) Send(ctx context.Context, to, body string) error {
	to = WhatsAppAddress(to)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.from)
	form.Set("Body", Format(body))

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req = t.setHeaders(req)

	resp, err := t.request(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read send response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("send message: bad status: %s: %d %s", resp.Status, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("send message: bad status: %s: %s", resp.Status, utils.TruncateForLog(string(raw), maxErrorPreview))
	}

	var msg messageResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.logger.Warn("unexpected send response", zap.Error(err))
	}
	t.logger.Info("message sent", zap.String("to", to), zap.String("sid", msg.SID), zap.String("status", msg.Status))
	return nil
}

func (t *Twilio) request(req *http.Request) (*http.Response, error) {
	t.logger.Debug("make request", zap.String("url", req.URL.String()))
	return t.HTTPClient.Do(req)
}

func (t *Twilio) setHeaders(req *http.Request) *http.Request {
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.UserAgent)
	return req
}

// WhatsAppAddress ensures the whatsapp: channel prefix.
func WhatsAppAddress(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, whatsAppPrefix) {
		return number
	}
	return whatsAppPrefix + number
}

// Format trims the text and collapses runs of blank lines into one.
func Format(text string) string {
	parts := strings.Split(strings.TrimSpace(text), "\n\n")
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// LogSender writes replies to the log instead of sending them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{logger: logger.WithFields(log).Named("sender")}
}

func (s *LogSender) Send(_ context.Context, to, body string) error {
	s.logger.Info("reply not delivered, no sender configured",
		zap.String("to", to),
		zap.String("body", utils.TruncateForLog(body, maxErrorPreview)),
	)
	return nil
}
