package backend

import (
	"context"
	"net/http"
)

// FinalPrompt returns the composed prompt text for the session. Pure read:
// calling it twice without an intervening mutation yields the same text.
func (c *Client) FinalPrompt(ctx context.Context, sessionID string) (string, error) {
	var out struct {
		FinalPrompt string `json:"final_prompt"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/prompt/final/"+sessionID, nil, &out); err != nil {
		return "", err
	}
	return out.FinalPrompt, nil
}

// RefinePrompt asks the backend to rework the final prompt per the
// instruction and returns the new text.
func (c *Client) RefinePrompt(ctx context.Context, sessionID, instruction string) (string, error) {
	body := struct {
		RefinementInstruction string `json:"refinement_instruction"`
	}{RefinementInstruction: instruction}

	var out struct {
		FinalPrompt string `json:"final_prompt"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/prompt/refine/"+sessionID, body, &out); err != nil {
		return "", err
	}
	return out.FinalPrompt, nil
}
