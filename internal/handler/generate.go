package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/artelier/promptforge/internal/middleware"
	tg "github.com/artelier/promptforge/internal/telegram"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// sendGeneratePanel renders the generation choice view: quick prompt, guided
// chat, or visual settings first.
func (h *Handler) sendGeneratePanel(ctx context.Context, b *bot.Bot, chatID int64, messageID int, edit bool) {
	st := middleware.GetState(ctx)
	if st == nil || st.Session == nil {
		return
	}
	sess := st.Session

	var sb strings.Builder
	sb.WriteString("🧾 *Your brief*\n\n")
	if sess.Category != nil {
		fmt.Fprintf(&sb, "📂 Category: %s\n", *sess.Category)
	}
	fmt.Fprintf(&sb, "💡 Idea: %s\n", sess.UserIdea)
	if sess.Model != "" {
		fmt.Fprintf(&sb, "🤖 Model: %s\n", sess.Model)
	}
	if !st.Draft.IsZero() {
		sb.WriteString("🎛 Visual settings: " + describeSettings(st.Draft) + "\n")
	}
	if len(sess.UploadedFiles) > 0 {
		fmt.Fprintf(&sb, "📎 References: %d file(s)\n", len(sess.UploadedFiles))
	}
	sb.WriteString("\nHow do you want to build the prompt? You can also send a photo as a reference.")

	rows := [][]models.InlineKeyboardButton{
		tg.ButtonRow(tg.InlineButton("⚡ Quick generate", "quick_generate")),
		tg.ButtonRow(tg.InlineButton("💬 Guided questions", "start_chat")),
		tg.ButtonRow(tg.InlineButton("🎛 Visual settings", "vs_back")),
	}
	for i, f := range sess.UploadedFiles {
		rows = append(rows, tg.ButtonRow(tg.InlineButton(
			fmt.Sprintf("🗑 %s", f.Name), fmt.Sprintf("file_del_%d", i))))
	}
	rows = append(rows, tg.ButtonRow(tg.InlineButton("🔄 Start over", "start_new")))
	kb := tg.InlineKeyboard(rows...)

	if edit && messageID != 0 {
		tg.EditLongMessage(ctx, b, chatID, messageID, sb.String(), kb)
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: kb,
	})
}

func (h *Handler) handleQuickGenerate(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, _, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	prompt, err := h.store.GenerateQuickPrompt(ctx, chatID)
	stopTyping()
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	h.sendFinal(ctx, b, chatID, prompt)
}

func (h *Handler) handleStartChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, _, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	chat, err := h.store.StartChat(ctx, chatID)
	stopTyping()
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	question := chat.FirstQuestion
	if question == nil {
		question = chat.NextQuestion
	}
	if question == nil {
		// Nothing to ask; the backend considers the brief complete.
		h.sendFinal(ctx, b, chatID, chat.FinalPrompt)
		return
	}
	h.sendQuestion(ctx, b, chatID, 0, question)
}

func (h *Handler) handleFileDelete(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}

	idx, err := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, "file_del_"))
	if err != nil {
		return
	}
	if err := h.store.DeleteFile(ctx, chatID, idx); err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}
	h.sendGeneratePanel(ctx, b, chatID, messageID, true)
}
