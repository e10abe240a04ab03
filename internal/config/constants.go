package config

import "time"

const (
	// Backend request timeout. Prompt generation calls an LLM server-side,
	// so this is deliberately generous.
	RequestTimeout = 90 * time.Second

	// Minimum length of a free-form idea; shorter input is rejected before
	// any network call is made.
	MinIdeaLength = 10

	// Reference data cache (categories, models, visual-settings options).
	ReferenceCacheTTL     = 1 * time.Hour
	ReferenceCacheCleanup = 10 * time.Minute

	// History items per page
	HistoryPerPage = 5

	// Category buttons per keyboard row
	CategoriesPerRow = 2

	// Per-chat rate limit (updates per minute mirrors the backend's
	// strictest endpoint limit)
	RateLimitPerMinute = 10
	RateLimitBurst     = 3

	// Default language model for new sessions
	DefaultModel = "Claude"
)
