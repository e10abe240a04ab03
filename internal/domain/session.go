package domain

import "time"

// Session step names as reported by the backend.
const (
	BackendStepCategory       = "category"
	BackendStepVisualSettings = "visual_settings"
	BackendStepChat           = "chat"
	BackendStepFinalPrompt    = "final_prompt"
)

// Session is the server-tracked unit of one in-progress prompt generation.
// The bot never mutates it locally; every change goes through the backend and
// the session is re-fetched afterwards.
type Session struct {
	ID            string            `json:"session_id"`
	Step          string            `json:"current_step"`
	UserIdea      string            `json:"user_idea"`
	Category      *string           `json:"selected_category"`
	Model         string            `json:"selected_llm"`
	Messages      []ChatMessage     `json:"messages"`
	Answers       map[string]string `json:"answers_json"`
	SelectedChips []string          `json:"selected_chips"`
	CreatedAt     time.Time         `json:"created_at"`
	FinalPrompt   string            `json:"final_prompt"`
	Visual        VisualSettings    `json:"visual_settings"`
	UploadedFiles []UploadedFile    `json:"uploaded_files"`
}

// HasCategory reports whether a category has been recorded for the session.
func (s *Session) HasCategory() bool {
	return s.Category != nil && *s.Category != ""
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// VisualSettings are the four optional generation hints. Empty fields are
// omitted on the wire so a cleared dialog sends no settings at all.
type VisualSettings struct {
	AspectRatio    string `json:"aspect_ratio,omitempty"`
	ColorPalette   string `json:"color_palette,omitempty"`
	CameraSettings string `json:"camera_settings,omitempty"`
	ImagePurpose   string `json:"image_purpose,omitempty"`
}

// IsZero reports whether no visual setting is applied.
func (v VisualSettings) IsZero() bool {
	return v == VisualSettings{}
}

type UploadedFile struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
	Type       string    `json:"type"`
}

// Question is one guided Q&A step offered by the backend.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
