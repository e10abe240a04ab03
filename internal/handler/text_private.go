package handler

import (
	"bytes"
	"context"
	"strings"

	"github.com/artelier/promptforge/internal/middleware"
	"github.com/artelier/promptforge/internal/service"
	tg "github.com/artelier/promptforge/internal/telegram"
	"github.com/artelier/promptforge/internal/wizard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleTextPrivate routes every non-command private message by what the
// chat is currently waiting for.
func (h *Handler) HandleTextPrivate(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Chat.Type != "private" {
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	st := middleware.GetState(ctx)
	if st == nil {
		return
	}
	chatID := msg.Chat.ID

	if len(msg.Photo) > 0 || msg.Document != nil {
		h.handleUpload(ctx, b, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	switch st.Await {
	case service.AwaitLoginEmail, service.AwaitSignupEmail:
		h.handleEmailInput(ctx, b, chatID, st, text)
	case service.AwaitLoginPassword, service.AwaitSignupPassword:
		// Passwords should not linger in the chat transcript.
		b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: msg.ID})
		h.completeLogin(ctx, b, chatID, st, text)
	case service.AwaitIdea:
		h.handleIdeaInput(ctx, b, chatID, st, text)
	case service.AwaitAnswer:
		h.handleAnswerInput(ctx, b, chatID, st, text)
	case service.AwaitRefinement:
		h.handleRefinementInput(ctx, b, chatID, st, text)
	default:
		if st.User == nil {
			h.sendLoginView(ctx, b, chatID)
			return
		}
		h.sendLanding(ctx, b, chatID, 0, false)
	}
}

func (h *Handler) handleEmailInput(ctx context.Context, b *bot.Bot, chatID int64, st *service.State, text string) {
	if !strings.Contains(text, "@") {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ That does not look like an email address. Try again.",
		})
		return
	}

	st.PendingEmail = text
	if st.Await == service.AwaitLoginEmail {
		st.Await = service.AwaitLoginPassword
	} else {
		st.Await = service.AwaitSignupPassword
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "🔑 Now send the password. The message is removed right after.",
	})
}

func (h *Handler) handleIdeaInput(ctx context.Context, b *bot.Bot, chatID int64, st *service.State, idea string) {
	stopTyping := tg.StartTyping(ctx, b, chatID)
	_, err := h.store.SelectCategory(ctx, chatID, st.PendingCategory, idea)
	stopTyping()
	if err != nil {
		// Keep waiting for the idea on validation failure so the user can
		// just type again.
		h.notifyError(ctx, b, chatID, err)
		return
	}

	st.Await = service.AwaitNothing
	st.PendingCategory = ""
	h.sendGeneratePanel(ctx, b, chatID, 0, false)
}

func (h *Handler) handleAnswerInput(ctx context.Context, b *bot.Bot, chatID int64, st *service.State, answer string) {
	stopTyping := tg.StartTyping(ctx, b, chatID)
	chat, err := h.store.SubmitAnswer(ctx, chatID, answer)
	stopTyping()
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	if chat.IsComplete {
		st.Await = service.AwaitNothing
		h.sendFinal(ctx, b, chatID, chat.FinalPrompt)
		return
	}
	if chat.NextQuestion != nil {
		h.sendQuestion(ctx, b, chatID, 0, chat.NextQuestion)
		return
	}
	// Complete flag missing and no next question: fall back to the prompt.
	st.Await = service.AwaitNothing
	h.sendFinal(ctx, b, chatID, "")
}

func (h *Handler) handleRefinementInput(ctx context.Context, b *bot.Bot, chatID int64, st *service.State, instruction string) {
	stopTyping := tg.StartTyping(ctx, b, chatID)
	prompt, err := h.store.RefinePrompt(ctx, chatID, instruction)
	stopTyping()
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	st.Await = service.AwaitNothing
	h.sendFinal(ctx, b, chatID, prompt)
}

// handleUpload attaches a photo or document to the session as reference
// material.
func (h *Handler) handleUpload(ctx context.Context, b *bot.Bot, msg *models.Message) {
	chatID := msg.Chat.ID

	fileID := ""
	name := ""
	if msg.Document != nil {
		fileID = msg.Document.FileID
		name = msg.Document.FileName
	} else if len(msg.Photo) > 0 {
		// The last photo size is the largest.
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	}
	if fileID == "" {
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	data, remoteName, err := tg.DownloadFile(ctx, b, fileID)
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}
	if name == "" {
		name = remoteName
	}

	if _, err := h.store.UploadFile(ctx, chatID, name, bytes.NewReader(data)); err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "📎 Reference saved: " + name,
	})
	if st := middleware.GetState(ctx); st != nil && st.Step == wizard.StepGenerate {
		h.sendGeneratePanel(ctx, b, chatID, 0, false)
	}
}
