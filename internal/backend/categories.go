package backend

import (
	"context"
	"net/http"

	"github.com/artelier/promptforge/internal/domain"
)

// ListCategories returns the creative categories, cached for the
// reference-data TTL.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const key = "categories"
	if cached, ok := c.refCache.Get(key); ok {
		return cached.([]domain.Category), nil
	}

	var out struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	c.refCache.SetDefault(key, out.Categories)
	return out.Categories, nil
}

// SelectCategoryResult carries the guided questions unlocked by a category.
type SelectCategoryResult struct {
	Category  string            `json:"category"`
	Questions []string          `json:"questions"`
	Details   []domain.Question `json:"question_details"`
}

// SelectCategory records the category and free-form idea on the session.
func (c *Client) SelectCategory(ctx context.Context, sessionID, category, idea string) (*SelectCategoryResult, error) {
	body := struct {
		Category string `json:"category"`
		UserIdea string `json:"user_idea"`
	}{Category: category, UserIdea: idea}

	var out SelectCategoryResult
	if err := c.do(ctx, http.MethodPost, "/api/categories/select/"+sessionID, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
