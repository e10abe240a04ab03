package handler

import (
	"context"
	"errors"

	"github.com/artelier/promptforge/internal/backend"
	"github.com/artelier/promptforge/internal/config"
	"github.com/artelier/promptforge/internal/domain"
	"github.com/artelier/promptforge/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot   *bot.Bot
	cfg   *config.Config
	store *service.Store
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot   *bot.Bot
	Cfg   *config.Config
	Store *service.Store
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:   deps.Bot,
		cfg:   deps.Cfg,
		store: deps.Store,
	}
}

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/login", bot.MatchTypePrefix, h.handleLogin)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/signup", bot.MatchTypePrefix, h.handleSignup)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/logout", bot.MatchTypePrefix, h.handleLogout)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypePrefix, h.handleHistory)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/model", bot.MatchTypePrefix, h.handleModels)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/settings", bot.MatchTypePrefix, h.handleSettings)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/new", bot.MatchTypePrefix, h.handleStartNew)

	// Landing / category callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "cat_", bot.MatchTypePrefix, h.handleCategoryTap)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "start_new", bot.MatchTypeExact, h.handleStartNewTap)

	// Generate panel callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "quick_generate", bot.MatchTypeExact, h.handleQuickGenerate)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "start_chat", bot.MatchTypeExact, h.handleStartChat)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "file_del_", bot.MatchTypePrefix, h.handleFileDelete)

	// Chat callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "chip_", bot.MatchTypePrefix, h.handleChipToggle)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "chips_refresh", bot.MatchTypeExact, h.handleChipsRefresh)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "chips_clear", bot.MatchTypeExact, h.handleChipsClear)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "skip_chat", bot.MatchTypeExact, h.handleSkipChat)

	// Final prompt callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "refine_prompt", bot.MatchTypeExact, h.handleRefineTap)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "copy_prompt", bot.MatchTypeExact, h.handleCopyPrompt)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "download_prompt", bot.MatchTypeExact, h.handleDownloadPrompt)

	// History callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "history_page_", bot.MatchTypePrefix, h.handleHistoryPage)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "hist_view_", bot.MatchTypePrefix, h.handleHistoryView)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "hist_del_", bot.MatchTypePrefix, h.handleHistoryDelete)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "history_clear", bot.MatchTypeExact, h.handleHistoryClear)

	// Model callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "model_", bot.MatchTypePrefix, h.handleModelSelect)

	// Visual settings callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "vs_menu_", bot.MatchTypePrefix, h.handleSettingsMenu)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "vs_set_", bot.MatchTypePrefix, h.handleSettingsPick)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "vs_clear", bot.MatchTypeExact, h.handleSettingsClear)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "vs_save", bot.MatchTypeExact, h.handleSettingsSave)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "vs_back", bot.MatchTypeExact, h.handleSettingsBack)

	// Pagination indicator
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "cur", bot.MatchTypeExact, h.handleNoop)
}

// handleNoop acknowledges non-interactive inline buttons such as pagination
// indicators.
func (h *Handler) handleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
}

// callbackChat resolves the chat and message behind a button tap and
// acknowledges the callback query.
func callbackChat(ctx context.Context, b *bot.Bot, update *models.Update) (chatID int64, messageID int, ok bool) {
	if update.CallbackQuery == nil {
		return 0, 0, false
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
	if msg := update.CallbackQuery.Message.Message; msg != nil {
		return msg.Chat.ID, msg.ID, true
	}
	return 0, 0, false
}

// errText maps an error to the transient notification shown to the user.
func errText(err error) string {
	switch {
	case errors.Is(err, domain.ErrActiveRequest):
		return "⏳ Please wait for the previous request to finish."
	case errors.Is(err, domain.ErrUnauthorized):
		return "🔐 Your sign-in expired. Use /login to continue."
	case errors.Is(err, domain.ErrAccessDenied):
		return "🚫 Access denied for this session."
	case errors.Is(err, domain.ErrNoSession):
		return "❌ No active session. Pick a category first with /start."
	case errors.Is(err, domain.ErrNotSignedIn):
		return "🔐 Sign in first with /login."
	case errors.Is(err, domain.ErrIdeaTooShort):
		return "✏️ Please describe your idea in at least 10 characters."
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return "❌ " + apiErr.Detail
	}
	return "❌ Something went wrong. Please try again."
}

// notifyError shows the transient failure notification for an action.
func (h *Handler) notifyError(ctx context.Context, b *bot.Bot, chatID int64, err error) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   errText(err),
	})
}
