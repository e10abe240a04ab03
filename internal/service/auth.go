package service

import (
	"context"
	"log/slog"

	"github.com/artelier/promptforge/internal/domain"
	"github.com/artelier/promptforge/internal/wizard"
)

// Login signs the chat in. Any session id that predates the login is
// invalidated so one user can never inherit another's in-progress session.
func (s *Store) Login(ctx context.Context, chatID int64, email, password string) (*domain.User, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	done, err := s.begin(st)
	if err != nil {
		return nil, err
	}
	defer done()

	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}

	st.User = user
	st.SessionID = ""
	st.Session = nil
	st.Step = wizard.StepLanding
	st.PendingEmail = ""
	st.Await = AwaitNothing
	s.persist(ctx, st)

	slog.Info("user signed in", "chat_id", chatID, "user_id", user.ID)
	return user, nil
}

// Signup registers a new account and signs the chat in with it.
func (s *Store) Signup(ctx context.Context, chatID int64, email, password string) (*domain.User, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	done, err := s.begin(st)
	if err != nil {
		return nil, err
	}
	defer done()

	user, err := s.api.Signup(ctx, email, password)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}

	st.User = user
	st.SessionID = ""
	st.Session = nil
	st.Step = wizard.StepLanding
	st.PendingEmail = ""
	st.Await = AwaitNothing
	s.persist(ctx, st)

	slog.Info("user signed up", "chat_id", chatID, "user_id", user.ID)
	return user, nil
}

// Logout clears the cached identity and session and returns the chat to the
// login view.
func (s *Store) Logout(ctx context.Context, chatID int64) error {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return err
	}

	if err := s.api.Logout(s.authed(ctx, st)); err != nil {
		// The local identity is cleared regardless; the backend call is a
		// courtesy.
		slog.Warn("backend logout failed", "chat_id", chatID, "error", err)
	}

	st.User = nil
	st.SessionID = ""
	st.Session = nil
	st.Draft = domain.VisualSettings{}
	st.Step = wizard.StepLogin
	st.Await = AwaitNothing
	// Nothing reload-relevant remains; drop the durable slot instead of
	// storing an emptied row.
	if err := s.repo.Delete(ctx, chatID); err != nil {
		slog.Warn("state delete failed", "chat_id", chatID, "error", err)
	}
	return nil
}

// requireUser fails fast for actions that only make sense signed in.
func (st *State) requireUser() error {
	if st.User == nil {
		return domain.ErrNotSignedIn
	}
	return nil
}
