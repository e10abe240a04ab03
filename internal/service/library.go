package service

import (
	"context"
	"io"

	"github.com/artelier/promptforge/internal/backend"
	"github.com/artelier/promptforge/internal/domain"
)

// Categories returns the creative categories (cached reference data).
func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.api.ListCategories(ctx)
}

// Models returns the available language models (cached reference data).
func (s *Store) Models(ctx context.Context) ([]string, error) {
	return s.api.ListModels(ctx)
}

// VisualOptions returns the visual-settings catalog (cached reference data).
func (s *Store) VisualOptions(ctx context.Context) (*backend.VisualOptions, error) {
	return s.api.VisualSettingsOptions(ctx)
}

// SetModel changes the language model of the current session.
func (s *Store) SetModel(ctx context.Context, chatID int64, model string) (*domain.Session, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := st.requireSession(); err != nil {
		return nil, err
	}
	done, err := s.begin(st)
	if err != nil {
		return nil, err
	}
	defer done()

	ctx = s.authed(ctx, st)
	if err := s.api.SetModel(ctx, st.SessionID, model); err != nil {
		return nil, s.fail(ctx, st, err)
	}
	sess, err := s.refresh(ctx, st)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	return sess, nil
}

// Messages is a pure read of the chat transcript.
func (s *Store) Messages(ctx context.Context, chatID int64) ([]domain.ChatMessage, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := st.requireSession(); err != nil {
		return nil, err
	}
	return s.api.Messages(s.authed(ctx, st), st.SessionID)
}

// SelectedSuggestions is a pure read of the chips applied to the answer.
func (s *Store) SelectedSuggestions(ctx context.Context, chatID int64) ([]string, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := st.requireSession(); err != nil {
		return nil, err
	}
	return s.api.SelectedSuggestions(s.authed(ctx, st), st.SessionID)
}

// History lists past prompts for the signed-in user.
func (s *Store) History(ctx context.Context, chatID int64, limit int) ([]domain.HistoryItem, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := st.requireUser(); err != nil {
		return nil, err
	}
	return s.api.History(s.authed(ctx, st), limit)
}

// HistoryItem fetches one past prompt.
func (s *Store) HistoryItem(ctx context.Context, chatID int64, id string) (*domain.HistoryItem, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := st.requireUser(); err != nil {
		return nil, err
	}
	return s.api.HistoryItem(s.authed(ctx, st), id)
}

// DeleteHistoryItem removes exactly one history item by id.
func (s *Store) DeleteHistoryItem(ctx context.Context, chatID int64, id string) error {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return err
	}
	if err := st.requireUser(); err != nil {
		return err
	}
	done, err := s.begin(st)
	if err != nil {
		return err
	}
	defer done()

	ctx = s.authed(ctx, st)
	if err := s.api.DeleteHistoryItem(ctx, id); err != nil {
		return s.fail(ctx, st, err)
	}
	return nil
}

// ClearHistory removes every history item for the signed-in user.
func (s *Store) ClearHistory(ctx context.Context, chatID int64) error {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return err
	}
	if err := st.requireUser(); err != nil {
		return err
	}
	done, err := s.begin(st)
	if err != nil {
		return err
	}
	defer done()

	ctx = s.authed(ctx, st)
	if err := s.api.ClearHistory(ctx); err != nil {
		return s.fail(ctx, st, err)
	}
	return nil
}

// UploadFile attaches a reference image to the session and refreshes state.
func (s *Store) UploadFile(ctx context.Context, chatID int64, filename string, data io.Reader) (string, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return "", err
	}
	if err := st.requireSession(); err != nil {
		return "", err
	}
	done, err := s.begin(st)
	if err != nil {
		return "", err
	}
	defer done()

	ctx = s.authed(ctx, st)
	url, err := s.api.UploadFile(ctx, st.SessionID, filename, data)
	if err != nil {
		return "", s.fail(ctx, st, err)
	}
	if _, err := s.refresh(ctx, st); err != nil {
		return "", s.fail(ctx, st, err)
	}
	return url, nil
}

// DeleteFile removes an uploaded file by index and refreshes state.
func (s *Store) DeleteFile(ctx context.Context, chatID int64, index int) error {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return err
	}
	if err := st.requireSession(); err != nil {
		return err
	}
	done, err := s.begin(st)
	if err != nil {
		return err
	}
	defer done()

	ctx = s.authed(ctx, st)
	if err := s.api.DeleteFile(ctx, st.SessionID, index); err != nil {
		return s.fail(ctx, st, err)
	}
	if _, err := s.refresh(ctx, st); err != nil {
		return s.fail(ctx, st, err)
	}
	return nil
}
