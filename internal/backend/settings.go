package backend

import (
	"context"
	"net/http"

	"github.com/artelier/promptforge/internal/domain"
)

// VisualOptions is the catalog of selectable visual settings. Keys are
// option names; values are backend-side detail blobs the bot does not
// interpret.
type VisualOptions struct {
	ColorPalettes  map[string]any `json:"color_palettes"`
	AspectRatios   map[string]any `json:"aspect_ratios"`
	CameraSettings map[string]any `json:"camera_settings"`
	ImagePurposes  map[string]any `json:"image_purposes"`
}

// VisualSettingsOptions returns the settings catalog, cached for the
// reference-data TTL.
func (c *Client) VisualSettingsOptions(ctx context.Context) (*VisualOptions, error) {
	const key = "visual-options"
	if cached, ok := c.refCache.Get(key); ok {
		return cached.(*VisualOptions), nil
	}

	var out VisualOptions
	if err := c.do(ctx, http.MethodGet, "/api/visual-settings/options", nil, &out); err != nil {
		return nil, err
	}
	c.refCache.SetDefault(key, &out)
	return &out, nil
}

// SaveVisualSettings stores the four optional fields on the session. Empty
// fields are omitted entirely, so saving a cleared dialog sends no settings.
func (c *Client) SaveVisualSettings(ctx context.Context, sessionID string, settings domain.VisualSettings) error {
	return c.do(ctx, http.MethodPost, "/api/visual-settings/save/"+sessionID, settings, nil)
}

// GenerateQuickPrompt composes the final prompt directly from the idea,
// skipping the guided Q&A.
func (c *Client) GenerateQuickPrompt(ctx context.Context, sessionID string) (string, error) {
	var out struct {
		Success     bool   `json:"success"`
		FinalPrompt string `json:"final_prompt"`
		Error       string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/visual-settings/generate-quick/"+sessionID, struct{}{}, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", &APIError{Status: http.StatusBadRequest, Detail: out.Error}
	}
	return out.FinalPrompt, nil
}
