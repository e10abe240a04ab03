package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artelier/promptforge/internal/backend"
	"github.com/artelier/promptforge/internal/domain"
	"github.com/artelier/promptforge/internal/repository"
	"github.com/artelier/promptforge/internal/wizard"
)

// memRepo is an in-memory durable slot for tests.
type memRepo struct {
	mu sync.Mutex
	m  map[int64]repository.ChatState
}

func newMemRepo() *memRepo {
	return &memRepo{m: make(map[int64]repository.ChatState)}
}

func (r *memRepo) Get(_ context.Context, chatID int64) (*repository.ChatState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[chatID]; ok {
		stored := s
		return &stored, nil
	}
	return nil, nil
}

func (r *memRepo) Save(_ context.Context, s *repository.ChatState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[s.ChatID] = *s
	return nil
}

func (r *memRepo) Delete(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, chatID)
	return nil
}

// fakeBackend serves the endpoints the store touches and counts requests.
type fakeBackend struct {
	creates  atomic.Int64
	requests atomic.Int64

	mu       sync.Mutex
	sessions map[string]string // id -> category
	fail     int               // when non-zero, every request returns this status
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{sessions: make(map[string]string)}
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)

	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail != 0 {
		w.WriteHeader(fail)
		w.Write([]byte(`{"detail":"induced failure"}`))
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/session/create":
		n := f.creates.Add(1)
		// Session creation is deliberately slow so concurrent callers pile
		// up on the same in-flight create.
		time.Sleep(20 * time.Millisecond)
		id := fmt.Sprintf("sess-%d", n)
		f.mu.Lock()
		f.sessions[id] = ""
		f.mu.Unlock()
		fmt.Fprintf(w, `{"session_id":%q}`, id)

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/categories/select/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/categories/select/")
		f.mu.Lock()
		f.sessions[id] = "Illustration"
		f.mu.Unlock()
		fmt.Fprint(w, `{"category":"Illustration","questions":[]}`)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/session/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/session/")
		f.mu.Lock()
		category, ok := f.sessions[id]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"session not found"}`))
			return
		}
		if category == "" {
			fmt.Fprint(w, `{"current_step":"category","user_idea":""}`)
			return
		}
		fmt.Fprintf(w, `{"current_step":"visual_settings","user_idea":"a fox in the snow","selected_category":%q}`, category)

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/chat/start/"):
		fmt.Fprint(w, `{"first_question":{"id":"q1","text":"What mood?"},"is_complete":false}`)

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/answer/submit/"):
		fmt.Fprint(w, `{"is_complete":true,"final_prompt":"a fox in misty snow, golden hour"}`)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/prompt/final/"):
		fmt.Fprint(w, `{"final_prompt":"a fox in misty snow, golden hour"}`)

	case r.Method == http.MethodPost && r.URL.Path == "/api/auth/login":
		fmt.Fprint(w, `{"user":{"id":"u1","email":"fox@example.com"}}`)

	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"unhandled path"}`))
	}
}

func newTestStore(t *testing.T) (*Store, *fakeBackend, *memRepo) {
	t.Helper()
	fb := newFakeBackend()
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	repo := newMemRepo()
	return NewStore(backend.New(srv.URL), repo), fb, repo
}

func TestEnsureSessionSingleCreate(t *testing.T) {
	store, fb, _ := newTestStore(t)
	ctx := context.Background()

	st, err := store.State(ctx, 1)
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.EnsureSession(ctx, st)
			if err != nil {
				t.Errorf("EnsureSession: %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	if got := fb.creates.Load(); got != 1 {
		t.Errorf("backend created %d sessions, want 1", got)
	}
	for _, id := range ids {
		if id != ids[0] {
			t.Errorf("callers got different session ids: %v", ids)
			break
		}
	}
}

func TestSelectCategoryShortIdeaSkipsNetwork(t *testing.T) {
	store, fb, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.State(ctx, 1); err != nil {
		t.Fatalf("State: %v", err)
	}
	before := fb.requests.Load()

	_, err := store.SelectCategory(ctx, 1, "illustration", "short")
	if !errors.Is(err, domain.ErrIdeaTooShort) {
		t.Fatalf("err = %v, want ErrIdeaTooShort", err)
	}
	if got := fb.requests.Load(); got != before {
		t.Errorf("short idea reached the backend (%d requests)", got-before)
	}
}

func TestSelectCategoryAdvancesWizard(t *testing.T) {
	store, _, repo := newTestStore(t)
	ctx := context.Background()

	sess, err := store.SelectCategory(ctx, 1, "illustration", "a fox in the snow")
	if err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}
	if !sess.HasCategory() {
		t.Error("session has no category after select")
	}

	st, _ := store.State(ctx, 1)
	if st.Step != wizard.StepGenerate {
		t.Errorf("Step = %v, want StepGenerate", st.Step)
	}
	stored, _ := repo.Get(ctx, 1)
	if stored == nil || stored.SessionID != st.SessionID {
		t.Errorf("session id not persisted: %+v", stored)
	}
}

func TestGuidedFlowEndToEnd(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Login(ctx, 1, "fox@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := store.SelectCategory(ctx, 1, "illustration", "a fox in the snow"); err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}

	chat, err := store.StartChat(ctx, 1)
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}
	if chat.FirstQuestion == nil || chat.FirstQuestion.Text != "What mood?" {
		t.Fatalf("first question = %+v", chat.FirstQuestion)
	}
	st, _ := store.State(ctx, 1)
	if st.Step != wizard.StepChat {
		t.Errorf("Step = %v, want StepChat", st.Step)
	}

	done, err := store.SubmitAnswer(ctx, 1, "misty, quiet")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !done.IsComplete || done.FinalPrompt == "" {
		t.Fatalf("answer response = %+v", done)
	}
	if st.Step != wizard.StepFinal {
		t.Errorf("Step = %v, want StepFinal", st.Step)
	}

	// FinalPrompt is a pure read: repeated calls return the same text.
	first, err := store.FinalPrompt(ctx, 1)
	if err != nil {
		t.Fatalf("FinalPrompt: %v", err)
	}
	second, _ := store.FinalPrompt(ctx, 1)
	if first != second || first != done.FinalPrompt {
		t.Errorf("FinalPrompt not stable: %q vs %q", first, second)
	}
}

func TestLoadingReleasedAfterFailure(t *testing.T) {
	store, fb, _ := newTestStore(t)
	ctx := context.Background()

	fb.mu.Lock()
	fb.fail = http.StatusInternalServerError
	fb.mu.Unlock()

	if _, err := store.SelectCategory(ctx, 1, "illustration", "a fox in the snow"); err == nil {
		t.Fatal("expected failure")
	}

	st, _ := store.State(ctx, 1)
	if st.Loading {
		t.Error("loading flag still set after failure")
	}
	if st.LastError == "" {
		t.Error("last error not recorded")
	}

	fb.mu.Lock()
	fb.fail = 0
	fb.mu.Unlock()
	if _, err := store.SelectCategory(ctx, 1, "illustration", "a fox in the snow"); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

func TestActiveRequestRefused(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	st, _ := store.State(ctx, 1)
	st.Loading = true

	_, err := store.SelectCategory(ctx, 1, "illustration", "a fox in the snow")
	if !errors.Is(err, domain.ErrActiveRequest) {
		t.Errorf("err = %v, want ErrActiveRequest", err)
	}
}

func TestUnauthorizedForcesRelogin(t *testing.T) {
	store, fb, repo := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Login(ctx, 1, "fox@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	st, _ := store.State(ctx, 1)
	if st.User == nil {
		t.Fatal("user not cached after login")
	}

	fb.mu.Lock()
	fb.fail = http.StatusUnauthorized
	fb.mu.Unlock()

	_, err := store.SelectCategory(ctx, 1, "illustration", "a fox in the snow")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if st.User != nil {
		t.Error("identity not cleared on 401")
	}
	if st.SessionID != "" {
		t.Error("session not cleared on 401")
	}
	if st.Step != wizard.StepLogin {
		t.Errorf("Step = %v, want StepLogin", st.Step)
	}
	stored, _ := repo.Get(ctx, 1)
	if stored != nil && stored.UserID != "" {
		t.Error("durable slot still carries the identity")
	}
}

func TestLoginSupersedesPreLoginSession(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.SelectCategory(ctx, 1, "illustration", "a fox in the snow"); err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}
	st, _ := store.State(ctx, 1)
	if st.SessionID == "" {
		t.Fatal("no session before login")
	}

	if _, err := store.Login(ctx, 1, "fox@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if st.SessionID != "" {
		t.Error("pre-login session survived the login")
	}
	if st.Step != wizard.StepLanding {
		t.Errorf("Step = %v, want StepLanding", st.Step)
	}
}

func TestStartNewClearsDraftKeepsIdentity(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Login(ctx, 1, "fox@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	st, _ := store.State(ctx, 1)
	st.Draft = domain.VisualSettings{ColorPalette: "Warm tones"}
	st.SessionID = "sess-old"

	if err := store.StartNew(ctx, 1); err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	if st.SessionID != "" || st.Session != nil {
		t.Error("session not detached")
	}
	if !st.Draft.IsZero() {
		t.Error("visual settings draft survived StartNew")
	}
	if st.User == nil {
		t.Error("identity lost on StartNew")
	}
	if st.Step != wizard.StepLanding {
		t.Errorf("Step = %v, want StepLanding", st.Step)
	}
}

func TestStaleStoredSessionDropped(t *testing.T) {
	store, _, repo := newTestStore(t)
	ctx := context.Background()

	repo.Save(ctx, &repository.ChatState{
		ChatID:    7,
		SessionID: "gone",
		Step:      "generate",
	})

	st, err := store.State(ctx, 7)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.SessionID != "" {
		t.Errorf("stale session id %q kept", st.SessionID)
	}
	stored, _ := repo.Get(ctx, 7)
	if stored.SessionID != "" {
		t.Error("stale session id still in the durable slot")
	}
}

func TestInitializeSessionSupersedesCurrent(t *testing.T) {
	store, fb, repo := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Login(ctx, 4, "fox@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := store.SelectCategory(ctx, 4, "Illustration", "a fox in the snow"); err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}
	st, _ := store.State(ctx, 4)
	old := st.SessionID

	sess, err := store.InitializeSession(ctx, 4, "Claude")
	if err != nil {
		t.Fatalf("InitializeSession: %v", err)
	}
	if sess.ID == old {
		t.Errorf("session id %q not superseded", sess.ID)
	}
	if st.SessionID != sess.ID {
		t.Errorf("SessionID = %q, want %q", st.SessionID, sess.ID)
	}
	if got := fb.creates.Load(); got != 2 {
		t.Errorf("creates = %d, want 2", got)
	}
	stored, _ := repo.Get(ctx, 4)
	if stored.SessionID != sess.ID {
		t.Errorf("durable slot session id = %q, want %q", stored.SessionID, sess.ID)
	}
}

func TestRejectedStoredIdentityCleared(t *testing.T) {
	store, fb, repo := newTestStore(t)
	ctx := context.Background()

	repo.Save(ctx, &repository.ChatState{
		ChatID:    8,
		UserID:    "u1",
		UserEmail: "fox@example.com",
		SessionID: "sess-old",
		Step:      "generate",
	})
	fb.mu.Lock()
	fb.fail = http.StatusUnauthorized
	fb.mu.Unlock()

	st, err := store.State(ctx, 8)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.User != nil {
		t.Error("rejected identity kept in memory")
	}
	if st.SessionID != "" {
		t.Errorf("SessionID = %q, want empty", st.SessionID)
	}
	if st.Step != wizard.StepLogin {
		t.Errorf("Step = %v, want StepLogin", st.Step)
	}
	stored, _ := repo.Get(ctx, 8)
	if stored.UserID != "" || stored.SessionID != "" {
		t.Errorf("durable slot = %+v, want cleared identity and session", stored)
	}
}

func TestTransientRefreshFailureKeepsStoredSession(t *testing.T) {
	store, fb, repo := newTestStore(t)
	ctx := context.Background()

	repo.Save(ctx, &repository.ChatState{
		ChatID:    9,
		UserID:    "u1",
		UserEmail: "fox@example.com",
		SessionID: "sess-keep",
		Step:      "generate",
	})
	fb.mu.Lock()
	fb.fail = http.StatusBadGateway
	fb.mu.Unlock()

	st, err := store.State(ctx, 9)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.SessionID != "sess-keep" {
		t.Errorf("SessionID = %q, want the stored id kept", st.SessionID)
	}
	if st.User == nil {
		t.Error("identity dropped on a transient failure")
	}
	stored, _ := repo.Get(ctx, 9)
	if stored.SessionID != "sess-keep" {
		t.Errorf("durable slot session id = %q, want %q", stored.SessionID, "sess-keep")
	}
}

func TestLogoutSurvivesBackendFailure(t *testing.T) {
	store, fb, repo := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Login(ctx, 1, "fox@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	fb.mu.Lock()
	fb.fail = http.StatusInternalServerError
	fb.mu.Unlock()

	if err := store.Logout(ctx, 1); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	st, _ := store.State(ctx, 1)
	if st.User != nil {
		t.Error("identity survived logout")
	}
	if st.Step != wizard.StepLogin {
		t.Errorf("Step = %v, want StepLogin", st.Step)
	}
	stored, _ := repo.Get(ctx, 1)
	if stored != nil {
		t.Errorf("durable slot = %+v, want deleted", stored)
	}
}
