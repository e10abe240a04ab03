package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatState is the durable per-chat slot: the cached identity and the
// current session id, the reload-survival analog of the browser's local
// storage keys. Only the session store writes it.
type ChatState struct {
	ChatID    int64
	UserID    string
	UserEmail string
	SessionID string
	Step      string
}

type StateRepo struct {
	db *pgxpool.Pool
}

func NewStateRepo(db *pgxpool.Pool) *StateRepo {
	return &StateRepo{db: db}
}

// Get returns the stored state for a chat, or nil when the chat is unknown.
func (r *StateRepo) Get(ctx context.Context, chatID int64) (*ChatState, error) {
	row := r.db.QueryRow(ctx,
		`SELECT chat_id, user_id, user_email, session_id, step
		 FROM chat_states WHERE chat_id = $1`, chatID)

	var s ChatState
	err := row.Scan(&s.ChatID, &s.UserID, &s.UserEmail, &s.SessionID, &s.Step)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chat state: %w", err)
	}
	return &s, nil
}

// Save upserts the full slot in one statement so in-memory state and durable
// state never diverge mid-action.
func (r *StateRepo) Save(ctx context.Context, s *ChatState) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO chat_states (chat_id, user_id, user_email, session_id, step, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (chat_id) DO UPDATE SET
		   user_id = EXCLUDED.user_id,
		   user_email = EXCLUDED.user_email,
		   session_id = EXCLUDED.session_id,
		   step = EXCLUDED.step,
		   updated_at = now()`,
		s.ChatID, s.UserID, s.UserEmail, s.SessionID, s.Step)
	if err != nil {
		return fmt.Errorf("save chat state: %w", err)
	}
	return nil
}

// Delete drops the slot entirely.
func (r *StateRepo) Delete(ctx context.Context, chatID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM chat_states WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("delete chat state: %w", err)
	}
	return nil
}
