package domain

import "time"

// HistoryItem is a completed prompt as listed by the history endpoint.
type HistoryItem struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Prompt    string    `json:"prompt_text"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	ModelUsed string    `json:"model_used"`
	WordCount int       `json:"word_count"`
	ImageURL  string    `json:"image_url,omitempty"`
}
