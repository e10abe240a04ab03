package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/artelier/promptforge/internal/middleware"
	"github.com/artelier/promptforge/internal/service"
	tg "github.com/artelier/promptforge/internal/telegram"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// sendFinal renders the finished prompt with its action row. An empty prompt
// argument falls back to fetching it from the backend.
func (h *Handler) sendFinal(ctx context.Context, b *bot.Bot, chatID int64, prompt string) {
	if prompt == "" {
		var err error
		prompt, err = h.store.FinalPrompt(ctx, chatID)
		if err != nil {
			h.notifyError(ctx, b, chatID, err)
			return
		}
	}

	text := "✨ *Your prompt is ready!*\n\n```\n" + prompt + "\n```"
	kb := tg.InlineKeyboard(
		tg.ButtonRow(
			tg.InlineButton("🛠 Refine", "refine_prompt"),
			tg.InlineButton("📋 Copy", "copy_prompt"),
		),
		tg.ButtonRow(
			tg.InlineButton("📄 Download .txt", "download_prompt"),
			tg.InlineButton("🆕 New prompt", "start_new"),
		),
	)
	tg.SendLongMessage(ctx, b, chatID, text, kb)
}

func (h *Handler) handleRefineTap(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, _, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	st.Await = service.AwaitRefinement
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "🛠 Tell me what to change about the prompt.",
	})
}

// handleCopyPrompt re-sends the prompt as bare text so it can be copied
// without markdown artifacts.
func (h *Handler) handleCopyPrompt(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, _, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}

	prompt, err := h.store.FinalPrompt(ctx, chatID)
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   prompt,
	})
}

func (h *Handler) handleDownloadPrompt(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, _, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	prompt, err := h.store.FinalPrompt(ctx, chatID)
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	category := "prompt"
	if st.Session != nil && st.Session.Category != nil {
		category = strings.ReplaceAll(strings.ToLower(*st.Session.Category), " ", "_")
	}
	filename := fmt.Sprintf("%s_%s.txt", category, time.Now().Format("20060102_150405"))

	b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: filename,
			Data:     strings.NewReader(prompt),
		},
		Caption: "📄 " + filename,
	})
}
