package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/artelier/promptforge/internal/domain"
)

type historyItemPayload struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt_text"`
	Category  string `json:"category"`
	CreatedAt string `json:"created_at"`
	ModelUsed string `json:"model_used"`
	WordCount int    `json:"word_count"`
	ImageURL  string `json:"image_url"`
}

func (p historyItemPayload) toDomain() domain.HistoryItem {
	return domain.HistoryItem{
		ID:        p.ID,
		SessionID: p.SessionID,
		Prompt:    p.Prompt,
		Category:  p.Category,
		CreatedAt: parseTime(p.CreatedAt),
		ModelUsed: p.ModelUsed,
		WordCount: p.WordCount,
		ImageURL:  p.ImageURL,
	}
}

// History lists past prompts for the signed-in user, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]domain.HistoryItem, error) {
	path := "/api/sessions/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var out struct {
		History []historyItemPayload `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	items := make([]domain.HistoryItem, 0, len(out.History))
	for _, p := range out.History {
		items = append(items, p.toDomain())
	}
	return items, nil
}

// historyDetailPayload mirrors the detail endpoint, which uses different
// keys than the list endpoint and a numeric id.
type historyDetailPayload struct {
	ID          json.Number `json:"id"`
	Timestamp   string      `json:"timestamp"`
	Category    string      `json:"category"`
	Idea        string      `json:"user_idea"`
	ModelUsed   string      `json:"llm_used"`
	FinalPrompt string      `json:"final_prompt"`
	ImageURL    string      `json:"generated_image_url"`
}

// HistoryItem fetches the details of one past prompt.
func (c *Client) HistoryItem(ctx context.Context, id string) (*domain.HistoryItem, error) {
	var out historyDetailPayload
	if err := c.do(ctx, http.MethodGet, "/api/history/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &domain.HistoryItem{
		ID:        out.ID.String(),
		Prompt:    out.FinalPrompt,
		Category:  out.Category,
		CreatedAt: parseTime(out.Timestamp),
		ModelUsed: out.ModelUsed,
		WordCount: len(strings.Fields(out.FinalPrompt)),
		ImageURL:  out.ImageURL,
	}, nil
}

// DeleteHistoryItem removes exactly one item by id.
func (c *Client) DeleteHistoryItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/history/"+id, nil, nil)
}

// ClearHistory removes every history item for the signed-in user.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/history", nil, nil)
}
