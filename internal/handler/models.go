package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/artelier/promptforge/internal/domain"
	"github.com/artelier/promptforge/internal/middleware"
	tg "github.com/artelier/promptforge/internal/telegram"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (h *Handler) handleModels(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendModelPicker(ctx, b, update.Message.Chat.ID, 0)
}

func (h *Handler) sendModelPicker(ctx context.Context, b *bot.Bot, chatID int64, messageID int) {
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	names, err := h.store.Models(ctx)
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	current := ""
	if st.Session != nil {
		current = st.Session.Model
	}

	var rows [][]models.InlineKeyboardButton
	for _, name := range names {
		label := name
		if name == current {
			label = "✅ " + name
		}
		rows = append(rows, tg.ButtonRow(tg.InlineButton(label, "model_"+name)))
	}

	text := "🤖 *Language model*\n\nPick the model that composes your prompt."
	if messageID != 0 {
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

func (h *Handler) handleModelSelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	name := strings.TrimPrefix(update.CallbackQuery.Data, "model_")

	if _, err := h.store.SetModel(ctx, chatID, name); err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			// No session yet; the choice applies when one is created.
			if st := middleware.GetState(ctx); st != nil {
				st.PendingModel = name
			}
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "🤖 " + name + " will be used for your next prompt.",
			})
			return
		}
		h.notifyError(ctx, b, chatID, err)
		return
	}

	h.sendModelPicker(ctx, b, chatID, messageID)
}
