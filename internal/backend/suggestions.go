package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Suggestions fetches chips for the current question. refresh asks the
// backend for another batch.
func (c *Client) Suggestions(ctx context.Context, sessionID string, refresh int) ([]string, error) {
	path := "/api/suggestions/" + sessionID
	if refresh > 0 {
		path = fmt.Sprintf("%s?refresh=%d", path, refresh)
	}

	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// ToggleSuggestion flips one chip and returns the full selected set, which
// is the authoritative state.
func (c *Client) ToggleSuggestion(ctx context.Context, sessionID, suggestion string) ([]string, error) {
	body := struct {
		Suggestion string `json:"suggestion"`
		Action     string `json:"action"`
	}{Suggestion: suggestion, Action: "toggle"}

	var out struct {
		Selected []string `json:"selected_suggestions"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/suggestions/toggle/"+sessionID, body, &out); err != nil {
		return nil, err
	}
	return out.Selected, nil
}

// SelectedSuggestions returns the chips currently applied to the answer.
func (c *Client) SelectedSuggestions(ctx context.Context, sessionID string) ([]string, error) {
	var out struct {
		Selected []string `json:"selected"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/suggestions/selected/"+sessionID, nil, &out); err != nil {
		return nil, err
	}
	return out.Selected, nil
}

// ClearSuggestions drops every selected chip.
func (c *Client) ClearSuggestions(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/suggestions/clear/"+sessionID, nil, nil)
}
