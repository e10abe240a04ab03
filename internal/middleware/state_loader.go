package middleware

import (
	"context"
	"log/slog"

	"github.com/artelier/promptforge/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type ctxKey string

const StateKey ctxKey = "chat_state"

// GetState extracts the chat state from context.
func GetState(ctx context.Context) *service.State {
	st, ok := ctx.Value(StateKey).(*service.State)
	if !ok {
		return nil
	}
	return st
}

// StateLoader returns middleware that loads per-chat state into context,
// re-attaching to a stored session on first contact.
func StateLoader(store *service.Store) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var chatID int64
			if update.Message != nil {
				chatID = update.Message.Chat.ID
			} else if update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil {
				chatID = update.CallbackQuery.Message.Message.Chat.ID
			}

			if chatID == 0 {
				next(ctx, b, update)
				return
			}

			st, err := store.State(ctx, chatID)
			if err != nil {
				slog.Error("load chat state", "chat_id", chatID, "error", err)
				next(ctx, b, update)
				return
			}

			next(context.WithValue(ctx, StateKey, st), b, update)
		}
	}
}
