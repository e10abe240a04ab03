package middleware

import (
	"context"
	"sync"

	"github.com/artelier/promptforge/internal/config"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

// RateLimit returns middleware enforcing a per-chat limiter. It mirrors the
// backend's strictest endpoint limit so users hit a polite message here
// instead of a 429 there. Admins are exempt.
func RateLimit(cfg *config.Config) bot.Middleware {
	var mu sync.Mutex
	limiters := make(map[int64]*rate.Limiter)

	limiterFor := func(chatID int64) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[chatID]
		if !ok {
			l = rate.NewLimiter(rate.Limit(float64(config.RateLimitPerMinute)/60.0), config.RateLimitBurst)
			limiters[chatID] = l
		}
		return l
	}

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only rate limit messages, not button taps.
			if update.Message == nil {
				next(ctx, b, update)
				return
			}
			if update.Message.From != nil && cfg.IsAdmin(update.Message.From.ID) {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !limiterFor(chatID).Allow() {
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many requests. Please wait a moment.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
