package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artelier/promptforge/internal/config"
	"github.com/artelier/promptforge/internal/middleware"
	tg "github.com/artelier/promptforge/internal/telegram"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}

	st := middleware.GetState(ctx)
	if st == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if st.User == nil {
		h.sendLoginView(ctx, b, chatID)
		return
	}

	h.sendLanding(ctx, b, chatID, 0, false)
}

// sendLanding renders the category picker, the wizard's landing view.
func (h *Handler) sendLanding(ctx context.Context, b *bot.Bot, chatID int64, messageID int, edit bool) {
	categories, err := h.store.Categories(ctx)
	if err != nil {
		slog.Error("list categories", "error", err, "chat_id", chatID)
		h.notifyError(ctx, b, chatID, err)
		return
	}

	var buttons []models.InlineKeyboardButton
	for _, c := range categories {
		label := c.Name
		if c.Emoji != "" {
			label = fmt.Sprintf("%s %s", c.Emoji, c.Name)
		}
		buttons = append(buttons, tg.InlineButton(label, "cat_"+c.Key))
	}
	rows := tg.Grid(config.CategoriesPerRow, buttons...)

	text := "🎨 *What do you want to create?*\n\n" +
		"Pick a category to start a new prompt.\n\n" +
		"📋 /history — past prompts\n" +
		"🤖 /model — language model\n" +
		"⚙️ /settings — visual settings"

	if edit && messageID != 0 {
		tg.EditLongMessage(ctx, b, chatID, messageID, text, tg.InlineKeyboard(rows...))
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: tg.InlineKeyboard(rows...),
	})
}

// handleStartNew is the explicit escape hatch from the final view.
func (h *Handler) handleStartNew(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if err := h.store.StartNew(ctx, chatID); err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}
	h.sendLanding(ctx, b, chatID, 0, false)
}

func (h *Handler) handleStartNewTap(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}

	if err := h.store.StartNew(ctx, chatID); err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}
	h.sendLanding(ctx, b, chatID, messageID, true)
}
