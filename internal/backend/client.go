package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/artelier/promptforge/internal/config"
	"github.com/artelier/promptforge/internal/domain"
	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

// Client is the single point of contact with the prompt-generation backend.
// Every call attaches a bearer credential derived from the signed-in user
// (carried per-request via context, since one bot process serves many chats)
// and normalizes error responses into domain errors.
type Client struct {
	baseURL    string
	httpClient *http.Client
	refCache   *cache.Cache
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		refCache:   cache.New(config.ReferenceCacheTTL, config.ReferenceCacheCleanup),
	}
}

type userIDKey struct{}

// WithUserID returns a context carrying the cached backend user id. Requests
// made with it send "Authorization: Bearer <user-id>".
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// APIError carries the server-supplied detail for a non-2xx response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend error: status %d", e.Status)
}

// do performs one JSON round trip. body may be nil; out may be nil for
// callers that only care about success.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return c.handle(resp, method, path, out)
}

// decorate attaches auth and correlation headers shared by the JSON and
// multipart paths.
func (c *Client) decorate(ctx context.Context, req *http.Request) {
	if userID := userIDFrom(ctx); userID != "" {
		req.Header.Set("Authorization", "Bearer "+userID)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
}

// handle normalizes the response: 401/403 map to domain sentinels, other
// non-2xx to *APIError with the server detail, 2xx decodes into out.
func (c *Client) handle(resp *http.Response, method, path string, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		slog.Warn("backend rejected credentials", "method", method, "path", path)
		return domain.ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return domain.ErrAccessDenied
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		detail := errorDetail(resp.Header.Get("Content-Type"), data)
		slog.Error("backend error response",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"detail", detail,
		)
		return &APIError{Status: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// errorDetail extracts a human-readable message from an error body. The
// backend sends {"detail": ...}; reverse proxies in front of it send HTML
// error pages, which are reduced to their visible text.
func errorDetail(contentType string, body []byte) string {
	if strings.Contains(contentType, "text/html") || bytes.HasPrefix(bytes.TrimSpace(body), []byte("<")) {
		return htmlText(body)
	}

	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return ""
}

func htmlText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("body").Text())
}

// parseTime accepts both RFC3339 and Python isoformat timestamps; the
// backend emits the latter without a zone suffix.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999", s); err == nil {
		return t
	}
	return time.Time{}
}
