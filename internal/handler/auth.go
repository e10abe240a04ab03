package handler

import (
	"context"

	"github.com/artelier/promptforge/internal/middleware"
	"github.com/artelier/promptforge/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (h *Handler) sendLoginView(ctx context.Context, b *bot.Bot, chatID int64) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text: "👋 *Welcome to PromptForge!*\n\n" +
			"I turn rough ideas into polished image-generation prompts.\n\n" +
			"🔑 /login — sign in\n" +
			"📝 /signup — create an account",
		ParseMode: models.ParseModeMarkdownV1,
	})
}

func (h *Handler) handleLogin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	st.Await = service.AwaitLoginEmail
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "📧 Send me your email address.",
	})
}

func (h *Handler) handleSignup(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	st.Await = service.AwaitSignupEmail
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "📧 Send me the email address for your new account.",
	})
}

func (h *Handler) handleLogout(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if err := h.store.Logout(ctx, chatID); err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "👋 Signed out. Use /login when you want to continue.",
	})
}

// completeLogin runs after the password arrives.
func (h *Handler) completeLogin(ctx context.Context, b *bot.Bot, chatID int64, st *service.State, password string) {
	email := st.PendingEmail
	signup := st.Await == service.AwaitSignupPassword
	st.Await = service.AwaitNothing

	var err error
	if signup {
		_, err = h.store.Signup(ctx, chatID, email, password)
	} else {
		_, err = h.store.Login(ctx, chatID, email, password)
	}
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "✅ Signed in as " + email,
	})
	h.sendLanding(ctx, b, chatID, 0, false)
}
