package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/artelier/promptforge/internal/config"
	"github.com/artelier/promptforge/internal/domain"
	"github.com/artelier/promptforge/internal/middleware"
	"github.com/artelier/promptforge/internal/service"
	tg "github.com/artelier/promptforge/internal/telegram"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// sendQuestion renders the current guided question with its suggestion
// chips. Chips are addressed by index in callback data because chip text can
// exceed Telegram's 64-byte callback limit.
func (h *Handler) sendQuestion(ctx context.Context, b *bot.Bot, chatID int64, messageID int, question *domain.Question) {
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	chips, err := h.store.Suggestions(ctx, chatID, 0)
	if err != nil {
		// Chips are an enhancement; the question still works without them.
		chips = nil
	}
	st.Chips = chips
	st.Question = question
	st.Await = service.AwaitAnswer

	text := "❓ *" + question.Text + "*\n\n" +
		"Type your answer, or tap suggestions to mix them in."

	kb := h.chipsKeyboard(st, selectedChips(st))
	if messageID != 0 {
		tg.EditLongMessage(ctx, b, chatID, messageID, text, kb)
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: kb,
	})
}

// chipsKeyboard builds the suggestion grid plus the chat controls row.
func (h *Handler) chipsKeyboard(st *service.State, selected []string) *models.InlineKeyboardMarkup {
	var buttons []models.InlineKeyboardButton
	for i, chip := range st.Chips {
		label := chip
		if contains(selected, chip) {
			label = "✅ " + chip
		}
		buttons = append(buttons, tg.InlineButton(label, "chip_"+strconv.Itoa(i)))
	}

	rows := tg.Grid(config.CategoriesPerRow, buttons...)
	rows = append(rows, tg.ButtonRow(
		tg.InlineButton("🔄 More ideas", "chips_refresh"),
		tg.InlineButton("🧹 Clear", "chips_clear"),
	))
	rows = append(rows, tg.ButtonRow(tg.InlineButton("⏩ Generate now", "skip_chat")))
	return tg.InlineKeyboard(rows...)
}

func selectedChips(st *service.State) []string {
	if st.Session == nil {
		return nil
	}
	return st.Session.SelectedChips
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (h *Handler) handleChipToggle(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	idx, err := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, "chip_"))
	if err != nil || idx < 0 || idx >= len(st.Chips) {
		return
	}

	selected, err := h.store.ToggleSuggestion(ctx, chatID, st.Chips[idx])
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: h.chipsKeyboard(st, selected),
	})
}

func (h *Handler) handleChipsRefresh(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	chips, err := h.store.Suggestions(ctx, chatID, 1)
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}
	st.Chips = chips

	b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: h.chipsKeyboard(st, selectedChips(st)),
	})
}

func (h *Handler) handleChipsClear(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	if err := h.store.ClearSuggestions(ctx, chatID); err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: h.chipsKeyboard(st, nil),
	})
}

func (h *Handler) handleSkipChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, _, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	chat, err := h.store.SkipToGeneration(ctx, chatID)
	stopTyping()
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	h.sendFinal(ctx, b, chatID, chat.FinalPrompt)
}
