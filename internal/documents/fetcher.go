package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"code.sajari.com/docconv"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/logger"
)

const (
	// ReferencePrefix marks a remote locator stored on the candidate record.
	ReferencePrefix = "url:"

	defaultTimeout     = 15 * time.Second
	defaultMediaDomain = "twilio.com"
	defaultMaxBytes    = 20 << 20
	userAgent          = "recruit-bot"
)

var (
	// ErrUnauthorized is returned when the media endpoint rejects the credentials.
	ErrUnauthorized = errors.New("media endpoint rejected credentials")
	// ErrLocalDisabled is returned for file references when local reads are off.
	ErrLocalDisabled = errors.New("local document references are disabled")
)

// Blob is a fetched document.
type Blob struct {
	Data        []byte
	ContentType string
}

// Credentials authenticate against the messaging provider's media endpoint.
type Credentials struct {
	Username string
	Password string
}

// FetcherConfig configures a Fetcher. The zero value fetches HTTP(S) only.
type FetcherConfig struct {
	Timeout time.Duration
	// MediaDomain is the provider domain that receives Credentials. Other
	// hosts are fetched anonymously.
	MediaDomain string
	Credentials Credentials
	MaxBytes    int64
	// AllowLocal enables file:// and plain path references. Only local tools
	// set it; references arriving over the network must stay remote.
	AllowLocal bool
}

// Fetcher resolves document references to bytes.
type Fetcher struct {
	HTTPClient *http.Client
	UserAgent  string

	mediaDomain string
	credentials Credentials
	maxBytes    int64
	allowLocal  bool
	logger      *zap.Logger
}

func NewFetcher(cfg FetcherConfig, log *zap.Logger) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	domain := strings.ToLower(strings.Trim(strings.TrimSpace(cfg.MediaDomain), "."))
	if domain == "" {
		domain = defaultMediaDomain
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	return &Fetcher{
		HTTPClient:  &http.Client{Timeout: timeout},
		UserAgent:   userAgent,
		mediaDomain: domain,
		credentials: cfg.Credentials,
		maxBytes:    maxBytes,
		allowLocal:  cfg.AllowLocal,
		logger:      logger.WithFields(log).Named("fetcher"),
	}
}

// CleanReference strips the storage marker from a reference.
func CleanReference(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, ReferencePrefix)
	return strings.TrimSpace(ref)
}

// RemoteReference reports whether ref points at an absolute http(s) URL.
func RemoteReference(ref string) bool {
	u, err := url.Parse(CleanReference(ref))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch resolves ref to bytes. Remote references are fetched over HTTP(S).
// file:// and plain paths are read from disk when AllowLocal is set. Any
// failure is returned.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (*Blob, error) {
	location := CleanReference(ref)
	if location == "" {
		return nil, errors.New("empty document reference")
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse document reference: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchRemote(ctx, u)
	case "file", "":
		if !f.allowLocal {
			return nil, ErrLocalDisabled
		}
		if u.Scheme == "file" {
			return f.readLocal(u.Path)
		}
		return f.readLocal(location)
	default:
		return nil, fmt.Errorf("unsupported document reference scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context, u *url.URL) (*Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req = f.setHeaders(req)

	resp, err := f.request(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("fetch document: %w: %s", ErrUnauthorized, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("fetch document: bad status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", f.maxBytes)
	}

	return &Blob{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

func (f *Fetcher) readLocal(path string) (*Blob, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if info.Size() > f.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", f.maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return &Blob{Data: data, ContentType: docconv.MimeTypeByExtension(path)}, nil
}

func (f *Fetcher) request(req *http.Request) (*http.Response, error) {
	f.logger.Debug("make request", zap.String("host", req.URL.Host), zap.String("path", req.URL.Path))
	return f.HTTPClient.Do(req)
}

func (f *Fetcher) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", f.UserAgent)
	if f.credentials.Username != "" && hostMatches(req.URL.Hostname(), f.mediaDomain) {
		req.SetBasicAuth(f.credentials.Username, f.credentials.Password)
	}
	return req
}

// hostMatches reports whether host is domain or one of its subdomains.
func hostMatches(host, domain string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}
