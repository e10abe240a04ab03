package backend

import (
	"context"
	"net/http"

	"github.com/artelier/promptforge/internal/domain"
)

// ChatState is the backend's view of the guided Q&A after a chat mutation.
type ChatState struct {
	Messages        []domain.ChatMessage `json:"messages"`
	FirstQuestion   *domain.Question     `json:"first_question"`
	NextQuestion    *domain.Question     `json:"next_question"`
	IsComplete      bool                 `json:"is_complete"`
	FinalPrompt     string               `json:"final_prompt"`
	ConversationStep int                 `json:"conversation_step"`
}

// StartChat switches the session into guided Q&A mode. Visual settings are
// merged into the request when present.
func (c *Client) StartChat(ctx context.Context, sessionID, category, idea string, settings *domain.VisualSettings) (*ChatState, error) {
	body := struct {
		Category       string                 `json:"category"`
		UserIdea       string                 `json:"user_idea"`
		VisualSettings *domain.VisualSettings `json:"visual_settings,omitempty"`
	}{Category: category, UserIdea: idea, VisualSettings: settings}

	var out ChatState
	if err := c.do(ctx, http.MethodPost, "/api/chat/start/"+sessionID, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Messages returns the chat transcript for the session.
func (c *Client) Messages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	var out struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/messages/"+sessionID, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// CurrentQuestion returns the pending question, or IsComplete when the
// guided conversation has finished.
func (c *Client) CurrentQuestion(ctx context.Context, sessionID string) (*ChatState, error) {
	var out struct {
		Question         *domain.Question `json:"question"`
		IsComplete       bool             `json:"is_complete"`
		ConversationStep int              `json:"conversation_step"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/current-question/"+sessionID, nil, &out); err != nil {
		return nil, err
	}
	return &ChatState{
		NextQuestion:     out.Question,
		IsComplete:       out.IsComplete,
		ConversationStep: out.ConversationStep,
	}, nil
}

// SubmitAnswer records the answer for the current question. When the backend
// reports completion the response already carries the composed final prompt.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, answer string) (*ChatState, error) {
	body := struct {
		Answer string `json:"answer"`
	}{Answer: answer}

	var out ChatState
	if err := c.do(ctx, http.MethodPost, "/api/answer/submit/"+sessionID, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SkipToGeneration abandons the remaining questions and asks the backend to
// compose the prompt from what it has.
func (c *Client) SkipToGeneration(ctx context.Context, sessionID string) (*ChatState, error) {
	var out ChatState
	if err := c.do(ctx, http.MethodPost, "/api/chat/skip/"+sessionID, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
