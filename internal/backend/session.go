package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/artelier/promptforge/internal/domain"
)

// CreateSession starts a new backend session. userID may be empty for
// anonymous sessions (the backend lets the first authenticated fetch claim
// them).
func (c *Client) CreateSession(ctx context.Context, model string) (string, error) {
	body := struct {
		LLMProvider string `json:"llm_provider"`
	}{LLMProvider: model}

	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/session/create", body, &out); err != nil {
		return "", err
	}
	return out.SessionID, nil
}

// sessionPayload is the raw wire shape of a session. The backend stores
// visual settings as flat selected_* keys and does not echo the id inside
// the object; normalization into domain.Session happens here and nowhere
// else.
type sessionPayload struct {
	Step          string            `json:"current_step"`
	UserIdea      string            `json:"user_idea"`
	Category      *string           `json:"selected_category"`
	Model         string            `json:"selected_llm"`
	Messages      []messagePayload  `json:"messages"`
	Answers       map[string]string `json:"answers_json"`
	SelectedChips []string          `json:"selected_chips"`
	CreatedAt     string            `json:"created_at"`
	FinalPrompt   string            `json:"final_prompt"`
	ColorPalette  string            `json:"selected_color_palette"`
	AspectRatio   string            `json:"selected_aspect_ratio"`
	Camera        string            `json:"selected_camera_settings"`
	ImagePurpose  string            `json:"selected_image_purpose"`
	Files         []filePayload     `json:"uploaded_files"`
}

type messagePayload struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type filePayload struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	UploadedAt string `json:"uploaded_at"`
	Type       string `json:"type"`
}

func (p *sessionPayload) toDomain(id string) *domain.Session {
	s := &domain.Session{
		ID:            id,
		Step:          p.Step,
		UserIdea:      p.UserIdea,
		Category:      p.Category,
		Model:         p.Model,
		Answers:       p.Answers,
		SelectedChips: p.SelectedChips,
		CreatedAt:     parseTime(p.CreatedAt),
		FinalPrompt:   p.FinalPrompt,
		Visual: domain.VisualSettings{
			AspectRatio:    p.AspectRatio,
			ColorPalette:   p.ColorPalette,
			CameraSettings: p.Camera,
			ImagePurpose:   p.ImagePurpose,
		},
	}
	for _, m := range p.Messages {
		s.Messages = append(s.Messages, domain.ChatMessage{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: parseTime(m.Timestamp),
		})
	}
	for _, f := range p.Files {
		s.UploadedFiles = append(s.UploadedFiles, domain.UploadedFile{
			Name:       f.Name,
			URL:        f.URL,
			UploadedAt: parseTime(f.UploadedAt),
			Type:       f.Type,
		})
	}
	return s
}

// GetSession fetches the full server-authoritative session state. A 404
// maps to domain.ErrSessionNotFound so callers can drop stale ids.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var payload sessionPayload
	if err := c.do(ctx, http.MethodGet, "/api/session/"+sessionID, nil, &payload); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
		}
		return nil, err
	}
	return payload.toDomain(sessionID), nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/session/"+sessionID, nil, nil)
}

// SetModel changes the language model used for the session.
func (c *Client) SetModel(ctx context.Context, sessionID, model string) error {
	body := struct {
		LLMProvider string `json:"llm_provider"`
	}{LLMProvider: model}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/session/%s/llm", sessionID), body, nil)
}

// ListModels returns the available language models, cached for the
// reference-data TTL.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	const key = "models"
	if cached, ok := c.refCache.Get(key); ok {
		return cached.([]string), nil
	}

	var out struct {
		LLMs []string `json:"llms"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/llms/available", nil, &out); err != nil {
		return nil, err
	}
	c.refCache.SetDefault(key, out.LLMs)
	return out.LLMs, nil
}
