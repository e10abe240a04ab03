package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/artelier/promptforge/internal/config"
	"github.com/artelier/promptforge/internal/domain"
	"github.com/artelier/promptforge/internal/middleware"
	"github.com/artelier/promptforge/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// handleCategoryTap records the chosen category and asks for the idea text.
func (h *Handler) handleCategoryTap(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, _, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}
	if st.User == nil {
		h.sendLoginView(ctx, b, chatID)
		return
	}

	key := strings.TrimPrefix(update.CallbackQuery.Data, "cat_")
	category, err := h.findCategory(ctx, key)
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	st.PendingCategory = category.Key
	st.Await = service.AwaitIdea

	text := fmt.Sprintf("%s *%s*\n\n%s\n\n✏️ Describe your idea in a message (at least %d characters).",
		category.Emoji, category.Name, category.Description, config.MinIdeaLength)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	})
}

// findCategory resolves a callback key against the cached catalog.
func (h *Handler) findCategory(ctx context.Context, key string) (*domain.Category, error) {
	categories, err := h.store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].Key == key {
			return &categories[i], nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}
