package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/artelier/promptforge/internal/backend"
	"github.com/artelier/promptforge/internal/config"
	"github.com/artelier/promptforge/internal/domain"
	"github.com/artelier/promptforge/internal/repository"
	"github.com/artelier/promptforge/internal/wizard"
	"golang.org/x/sync/singleflight"
)

// StateRepo is the durable slot for per-chat identity and session id.
// Implemented by repository.StateRepo; tests use an in-memory double.
type StateRepo interface {
	Get(ctx context.Context, chatID int64) (*repository.ChatState, error)
	Save(ctx context.Context, s *repository.ChatState) error
	Delete(ctx context.Context, chatID int64) error
}

// Await names what the next typed message in a chat means. Ephemeral view
// state; never persisted.
type Await int

const (
	AwaitNothing Await = iota
	AwaitIdea
	AwaitAnswer
	AwaitRefinement
	AwaitLoginEmail
	AwaitLoginPassword
	AwaitSignupEmail
	AwaitSignupPassword
)

// State is everything the bot knows about one chat. The store is the only
// writer; handlers read it to render views.
type State struct {
	ChatID    int64
	User      *domain.User
	SessionID string
	Step      wizard.Step
	Session   *domain.Session

	// Shared loading flag and last error, per spec: exactly one of each.
	Loading   bool
	LastError string

	// Ephemeral input-in-progress values.
	Await           Await
	PendingCategory string
	PendingEmail    string
	PendingModel    string
	Draft           domain.VisualSettings

	// Last rendered view data; button callbacks refer to chips and options
	// by index because callback payloads are size-limited.
	Chips    []string
	Question *domain.Question
}

// Store owns all mutable session/user state. Every mutating action calls the
// backend, then re-fetches the session so the UI reflects server truth.
type Store struct {
	api  *backend.Client
	repo StateRepo

	mu     sync.Mutex
	chats  map[int64]*State
	create singleflight.Group
}

func NewStore(api *backend.Client, repo StateRepo) *Store {
	return &Store{
		api:   api,
		repo:  repo,
		chats: make(map[int64]*State),
	}
}

// State loads (or lazily creates) the state for a chat, re-attaching to the
// durable slot on first contact. It never creates a backend session.
func (s *Store) State(ctx context.Context, chatID int64) (*State, error) {
	s.mu.Lock()
	if st, ok := s.chats[chatID]; ok {
		s.mu.Unlock()
		return st, nil
	}
	s.mu.Unlock()

	stored, err := s.repo.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	st := &State{ChatID: chatID, Step: wizard.StepLogin}
	if stored != nil {
		st.SessionID = stored.SessionID
		st.Step = wizard.ParseStep(stored.Step)
		if stored.UserID != "" {
			st.User = &domain.User{ID: stored.UserID, Email: stored.UserEmail}
		}
	}

	s.mu.Lock()
	// Another goroutine may have raced us here; keep the first one.
	if existing, ok := s.chats[chatID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.chats[chatID] = st
	s.mu.Unlock()

	// Re-attach to a previously stored session. Only a definitive refusal
	// invalidates the slot; a transient backend failure keeps it for the
	// next contact.
	if st.SessionID != "" {
		if _, err := s.refresh(s.authed(ctx, st), st); err != nil {
			switch {
			case errors.Is(err, domain.ErrUnauthorized):
				s.fail(ctx, st, err)
			case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrAccessDenied):
				slog.Warn("stale stored session dropped", "chat_id", chatID, "error", err)
				st.SessionID = ""
				st.Session = nil
				s.persist(ctx, st)
			default:
				slog.Warn("stored session refresh failed, keeping slot", "chat_id", chatID, "error", err)
			}
		}
	}
	return st, nil
}

// authed decorates ctx with the chat's bearer credential.
func (s *Store) authed(ctx context.Context, st *State) context.Context {
	if st.User != nil {
		return backend.WithUserID(ctx, st.User.ID)
	}
	return ctx
}

// begin sets the shared loading flag, refusing re-entry while a call for the
// chat is already in flight. The returned release must run unconditionally.
func (s *Store) begin(st *State) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Loading {
		return nil, domain.ErrActiveRequest
	}
	st.Loading = true
	st.LastError = ""
	return func() {
		s.mu.Lock()
		st.Loading = false
		s.mu.Unlock()
	}, nil
}

// fail records the error on the shared error field, handles forced re-login
// on authentication failure, and returns the error for the caller to react
// locally.
func (s *Store) fail(ctx context.Context, st *State, err error) error {
	st.LastError = err.Error()
	if errors.Is(err, domain.ErrUnauthorized) {
		st.User = nil
		st.SessionID = ""
		st.Session = nil
		st.Step = wizard.StepLogin
		s.persist(ctx, st)
	}
	return err
}

// persist mirrors reload-relevant state to the durable slot. Persistence
// failures are logged, not propagated: the in-memory action already took
// effect.
func (s *Store) persist(ctx context.Context, st *State) {
	stored := &repository.ChatState{
		ChatID:    st.ChatID,
		SessionID: st.SessionID,
		Step:      st.Step.String(),
	}
	if st.User != nil {
		stored.UserID = st.User.ID
		stored.UserEmail = st.User.Email
	}
	if err := s.repo.Save(ctx, stored); err != nil {
		slog.Error("persist chat state", "chat_id", st.ChatID, "error", err)
	}
}

// advance moves the wizard forward, logging transitions that should be
// impossible. Resets (StartNew, login, forced re-login) set the step
// directly instead.
func (s *Store) advance(st *State, to wizard.Step) {
	if !wizard.Allowed(st.Step, to) {
		slog.Warn("unexpected wizard transition",
			"chat_id", st.ChatID, "from", st.Step.String(), "to", to.String())
	}
	st.Step = to
}

// refresh re-fetches the full session from the backend.
func (s *Store) refresh(ctx context.Context, st *State) (*domain.Session, error) {
	sess, err := s.api.GetSession(ctx, st.SessionID)
	if err != nil {
		return nil, err
	}
	st.Session = sess
	return sess, nil
}

// requireSession fails fast when an action needs a session that does not
// exist yet.
func (st *State) requireSession() error {
	if st.SessionID == "" {
		return domain.ErrNoSession
	}
	return nil
}

// EnsureSession returns the current session id, creating a backend session
// on demand. Creation is folded through singleflight per chat so a burst of
// callers yields exactly one session, and the durable slot is consulted
// first to defeat stale in-memory ids.
func (s *Store) EnsureSession(ctx context.Context, st *State) (string, error) {
	key := fmt.Sprintf("create-%d", st.ChatID)
	id, err, _ := s.create.Do(key, func() (any, error) {
		if stored, err := s.repo.Get(ctx, st.ChatID); err == nil && stored != nil && stored.SessionID != "" {
			st.SessionID = stored.SessionID
			return stored.SessionID, nil
		}
		if st.SessionID != "" {
			return st.SessionID, nil
		}

		model := st.PendingModel
		if model == "" {
			model = config.DefaultModel
		}
		created, err := s.api.CreateSession(s.authed(ctx, st), model)
		if err != nil {
			return "", err
		}
		st.SessionID = created
		s.persist(ctx, st)
		return created, nil
	})
	if err != nil {
		return "", err
	}
	return id.(string), nil
}

// InitializeSession explicitly starts a fresh backend session, superseding
// any current one, and refreshes state from the backend.
func (s *Store) InitializeSession(ctx context.Context, chatID int64, model string) (*domain.Session, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	done, err := s.begin(st)
	if err != nil {
		return nil, err
	}
	defer done()

	if model == "" {
		model = config.DefaultModel
	}
	ctx = s.authed(ctx, st)
	id, err := s.api.CreateSession(ctx, model)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	st.SessionID = id
	s.persist(ctx, st)

	sess, err := s.refresh(ctx, st)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	return sess, nil
}

// SelectCategory records the category and idea, creating a session on
// demand. Ideas shorter than the minimum are rejected before any network
// call.
func (s *Store) SelectCategory(ctx context.Context, chatID int64, category, idea string) (*domain.Session, error) {
	if len(strings.TrimSpace(idea)) < config.MinIdeaLength {
		return nil, fmt.Errorf("%w: need at least %d characters", domain.ErrIdeaTooShort, config.MinIdeaLength)
	}

	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	done, err := s.begin(st)
	if err != nil {
		return nil, err
	}
	defer done()

	ctx = s.authed(ctx, st)
	if _, err := s.EnsureSession(ctx, st); err != nil {
		return nil, s.fail(ctx, st, err)
	}
	if _, err := s.api.SelectCategory(ctx, st.SessionID, category, idea); err != nil {
		return nil, s.fail(ctx, st, err)
	}

	sess, err := s.refresh(ctx, st)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	s.advance(st, wizard.StepGenerate)
	s.persist(ctx, st)
	return sess, nil
}

// SaveVisualSettings stores the current draft on the session.
func (s *Store) SaveVisualSettings(ctx context.Context, chatID int64) (*domain.Session, error) {
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
	if err := s.api.SaveVisualSettings(ctx, st.SessionID, st.Draft); err != nil {
		return nil, s.fail(ctx, st, err)
	}
	sess, err := s.refresh(ctx, st)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	return sess, nil
}

// GenerateQuickPrompt composes the final prompt without guided Q&A and moves
// the wizard to the final view.
func (s *Store) GenerateQuickPrompt(ctx context.Context, chatID int64) (string, error) {
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
	prompt, err := s.api.GenerateQuickPrompt(ctx, st.SessionID)
	if err != nil {
		return "", s.fail(ctx, st, err)
	}
	if _, err := s.refresh(ctx, st); err != nil {
		return "", s.fail(ctx, st, err)
	}
	s.advance(st, wizard.StepFinal)
	s.persist(ctx, st)
	return prompt, nil
}

// StartChat switches the session into guided Q&A mode.
func (s *Store) StartChat(ctx context.Context, chatID int64) (*backend.ChatState, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := st.requireSession(); err != nil {
		return nil, err
	}
	if st.Session == nil || !st.Session.HasCategory() {
		return nil, domain.ErrCategoryNotFound
	}
	done, err := s.begin(st)
	if err != nil {
		return nil, err
	}
	defer done()

	ctx = s.authed(ctx, st)
	var settings *domain.VisualSettings
	if !st.Draft.IsZero() {
		draft := st.Draft
		settings = &draft
	}
	chat, err := s.api.StartChat(ctx, st.SessionID, *st.Session.Category, st.Session.UserIdea, settings)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	if _, err := s.refresh(ctx, st); err != nil {
		return nil, s.fail(ctx, st, err)
	}
	s.advance(st, wizard.StepChat)
	s.persist(ctx, st)
	return chat, nil
}

// SubmitAnswer records the answer for the current question; when the backend
// reports completion the wizard advances to the final view.
func (s *Store) SubmitAnswer(ctx context.Context, chatID int64, answer string) (*backend.ChatState, error) {
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
	chat, err := s.api.SubmitAnswer(ctx, st.SessionID, answer)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	if _, err := s.refresh(ctx, st); err != nil {
		return nil, s.fail(ctx, st, err)
	}
	if chat.IsComplete {
		s.advance(st, wizard.StepFinal)
	}
	s.persist(ctx, st)
	return chat, nil
}

// SkipToGeneration abandons remaining questions; the backend composes the
// prompt from what it has and the wizard moves to the final view.
func (s *Store) SkipToGeneration(ctx context.Context, chatID int64) (*backend.ChatState, error) {
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
	chat, err := s.api.SkipToGeneration(ctx, st.SessionID)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	if _, err := s.refresh(ctx, st); err != nil {
		return nil, s.fail(ctx, st, err)
	}
	s.advance(st, wizard.StepFinal)
	s.persist(ctx, st)
	return chat, nil
}

// FinalPrompt is a pure read; no session refresh afterwards.
func (s *Store) FinalPrompt(ctx context.Context, chatID int64) (string, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return "", err
	}
	if err := st.requireSession(); err != nil {
		return "", err
	}
	return s.api.FinalPrompt(s.authed(ctx, st), st.SessionID)
}

// RefinePrompt reworks the final prompt per the instruction.
func (s *Store) RefinePrompt(ctx context.Context, chatID int64, instruction string) (string, error) {
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
	prompt, err := s.api.RefinePrompt(ctx, st.SessionID, instruction)
	if err != nil {
		return "", s.fail(ctx, st, err)
	}
	if _, err := s.refresh(ctx, st); err != nil {
		return "", s.fail(ctx, st, err)
	}
	return prompt, nil
}

// Suggestions is a pure read of chips for the current question.
func (s *Store) Suggestions(ctx context.Context, chatID int64, refresh int) ([]string, error) {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := st.requireSession(); err != nil {
		return nil, err
	}
	return s.api.Suggestions(s.authed(ctx, st), st.SessionID, refresh)
}

// ToggleSuggestion flips one chip; the backend returns the authoritative
// selected set.
func (s *Store) ToggleSuggestion(ctx context.Context, chatID int64, suggestion string) ([]string, error) {
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
	selected, err := s.api.ToggleSuggestion(ctx, st.SessionID, suggestion)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	if _, err := s.refresh(ctx, st); err != nil {
		return nil, s.fail(ctx, st, err)
	}
	return selected, nil
}

// ClearSuggestions drops every selected chip for the current question.
func (s *Store) ClearSuggestions(ctx context.Context, chatID int64) error {
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
	if err := s.api.ClearSuggestions(ctx, st.SessionID); err != nil {
		return s.fail(ctx, st, err)
	}
	if _, err := s.refresh(ctx, st); err != nil {
		return s.fail(ctx, st, err)
	}
	return nil
}

// StartNew is the wizard's single escape hatch: back to landing with visual
// settings cleared. The finished session is superseded, never deleted;
// history is how past work is retained.
func (s *Store) StartNew(ctx context.Context, chatID int64) error {
	st, err := s.State(ctx, chatID)
	if err != nil {
		return err
	}
	st.SessionID = ""
	st.Session = nil
	st.Draft = domain.VisualSettings{}
	st.Await = AwaitNothing
	st.PendingCategory = ""
	st.Step = wizard.StepLanding
	s.persist(ctx, st)
	return nil
}
