package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/artelier/promptforge/internal/config"
	"github.com/artelier/promptforge/internal/domain"
	tg "github.com/artelier/promptforge/internal/telegram"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (h *Handler) handleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendHistoryPage(ctx, b, update.Message.Chat.ID, 0, 0)
}

// sendHistoryPage renders one page of past prompts. Pagination is local; the
// backend returns the full newest-first list.
func (h *Handler) sendHistoryPage(ctx context.Context, b *bot.Bot, chatID int64, messageID, page int) {
	items, err := h.store.History(ctx, chatID, 0)
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}
	if len(items) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "📭 No saved prompts yet. Finish one and it lands here.",
		})
		return
	}

	totalPages := (len(items) + config.HistoryPerPage - 1) / config.HistoryPerPage
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	start := page * config.HistoryPerPage
	end := start + config.HistoryPerPage
	if end > len(items) {
		end = len(items)
	}

	var sb strings.Builder
	sb.WriteString("📋 *Your prompts*\n\n")
	var rows [][]models.InlineKeyboardButton
	for i, item := range items[start:end] {
		n := start + i + 1
		fmt.Fprintf(&sb, "%d. %s — %s (%d words)\n", n, item.Category,
			item.CreatedAt.Format("02 Jan 15:04"), item.WordCount)
		rows = append(rows, tg.ButtonRow(tg.InlineButton(
			fmt.Sprintf("👁 %d. %s", n, truncate(item.Prompt, 24)),
			"hist_view_"+item.ID,
		)))
	}
	if totalPages > 1 {
		rows = append(rows, tg.PaginationRow(page, totalPages, "history_page"))
	}
	rows = append(rows, tg.ButtonRow(tg.InlineButton("🗑 Clear all", "history_clear")))

	if messageID != 0 {
		tg.EditLongMessage(ctx, b, chatID, messageID, sb.String(), tg.InlineKeyboard(rows...))
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: tg.InlineKeyboard(rows...),
	})
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func (h *Handler) handleHistoryPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	page, err := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, "history_page_"))
	if err != nil {
		return
	}
	h.sendHistoryPage(ctx, b, chatID, messageID, page)
}

func (h *Handler) handleHistoryView(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	id := strings.TrimPrefix(update.CallbackQuery.Data, "hist_view_")

	item, err := h.store.HistoryItem(ctx, chatID, id)
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	text := historyItemText(item)
	kb := tg.InlineKeyboard(
		tg.ButtonRow(
			tg.InlineButton("🗑 Delete", "hist_del_"+item.ID),
			tg.InlineButton("⬅️ Back", "history_page_0"),
		),
	)
	tg.EditLongMessage(ctx, b, chatID, messageID, text, kb)
}

func historyItemText(item *domain.HistoryItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📂 *%s* · %s\n", item.Category, item.CreatedAt.Format("02 Jan 2006 15:04"))
	if item.ModelUsed != "" {
		fmt.Fprintf(&sb, "🤖 %s · %d words\n", item.ModelUsed, item.WordCount)
	}
	sb.WriteString("\n```\n" + item.Prompt + "\n```")
	return sb.String()
}

func (h *Handler) handleHistoryDelete(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	id := strings.TrimPrefix(update.CallbackQuery.Data, "hist_del_")

	if err := h.store.DeleteHistoryItem(ctx, chatID, id); err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}
	h.sendHistoryPage(ctx, b, chatID, messageID, 0)
}

func (h *Handler) handleHistoryClear(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}

	if err := h.store.ClearHistory(ctx, chatID); err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}
	tg.EditLongMessage(ctx, b, chatID, messageID, "🗑 History cleared.", nil)
}
