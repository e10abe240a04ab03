package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/artelier/promptforge/internal/domain"
)

func TestAuthHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"final_prompt":"x"}`))
	}))
	defer srv.Close()
	c := New(srv.URL)

	ctx := WithUserID(context.Background(), "user-42")
	if _, err := c.FinalPrompt(ctx, "s1"); err != nil {
		t.Fatalf("FinalPrompt: %v", err)
	}
	if gotAuth != "Bearer user-42" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer user-42")
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID header missing")
	}

	if _, err := c.FinalPrompt(context.Background(), "s1"); err != nil {
		t.Fatalf("FinalPrompt: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("anonymous request sent Authorization = %q", gotAuth)
	}
}

func TestStatusMapping(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(`{"detail":"quota exceeded"}`))
	}))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	status = http.StatusUnauthorized
	if _, err := c.FinalPrompt(ctx, "s1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("401 mapped to %v, want ErrUnauthorized", err)
	}

	status = http.StatusForbidden
	if _, err := c.FinalPrompt(ctx, "s1"); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("403 mapped to %v, want ErrAccessDenied", err)
	}

	status = http.StatusTooManyRequests
	_, err := c.FinalPrompt(ctx, "s1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("429 mapped to %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusTooManyRequests || apiErr.Detail != "quota exceeded" {
		t.Errorf("APIError = %+v, want status 429 with detail", apiErr)
	}
}

func TestErrorDetailFromHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html><head><title>502 Bad Gateway</title></head><body><h1>nginx</h1></body></html>`))
	}))
	defer srv.Close()
	c := New(srv.URL)

	_, err := c.FinalPrompt(context.Background(), "s1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.Detail != "502 Bad Gateway" {
		t.Errorf("Detail = %q, want page title", apiErr.Detail)
	}
}

func TestGetSessionNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/session/s1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"current_step": "chat",
			"user_idea": "a fox in the snow",
			"selected_category": "Illustration",
			"selected_llm": "Claude",
			"created_at": "2026-08-26T10:30:00.123456",
			"selected_color_palette": "Warm tones",
			"selected_chips": ["misty", "close-up"],
			"messages": [{"role":"assistant","content":"What mood?","timestamp":"2026-08-26T10:31:00Z"}]
		}`))
	}))
	defer srv.Close()
	c := New(srv.URL)

	sess, err := c.GetSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.ID != "s1" {
		t.Errorf("ID = %q, want injected id", sess.ID)
	}
	if !sess.HasCategory() || *sess.Category != "Illustration" {
		t.Errorf("Category = %v", sess.Category)
	}
	if sess.Visual.ColorPalette != "Warm tones" {
		t.Errorf("flat selected_color_palette not mapped: %+v", sess.Visual)
	}
	// Python isoformat without a zone still parses.
	if sess.CreatedAt.IsZero() {
		t.Error("created_at not parsed")
	}
	if want := time.Date(2026, 8, 26, 10, 31, 0, 0, time.UTC); !sess.Messages[0].Timestamp.Equal(want) {
		t.Errorf("message timestamp = %v, want %v", sess.Messages[0].Timestamp, want)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"session not found"}`))
	}))
	defer srv.Close()
	c := New(srv.URL)

	_, err := c.GetSession(context.Background(), "gone")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestHistoryItemDetailShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/history/17" {
			t.Errorf("path = %q", r.URL.Path)
		}
		// The detail endpoint uses a numeric id and different keys
		// than the list endpoint.
		w.Write([]byte(`{
			"success": true,
			"id": 17,
			"timestamp": "2026-08-26T10:30:00.123456",
			"category": "Illustration",
			"user_idea": "a fox in the snow",
			"llm_used": "Claude",
			"answers": {"mood": "calm"},
			"visual_settings": {"color_palette": "Warm tones"},
			"final_prompt": "A misty fox in fresh snow",
			"generated_image_url": "https://cdn.example/fox.png",
			"files": []
		}`))
	}))
	defer srv.Close()
	c := New(srv.URL)

	item, err := c.HistoryItem(context.Background(), "17")
	if err != nil {
		t.Fatalf("HistoryItem: %v", err)
	}
	if item.ID != "17" {
		t.Errorf("ID = %q, want %q", item.ID, "17")
	}
	if item.Prompt != "A misty fox in fresh snow" {
		t.Errorf("Prompt = %q", item.Prompt)
	}
	if item.ModelUsed != "Claude" {
		t.Errorf("ModelUsed = %q", item.ModelUsed)
	}
	if item.Category != "Illustration" {
		t.Errorf("Category = %q", item.Category)
	}
	if item.CreatedAt.IsZero() {
		t.Error("timestamp not parsed")
	}
	if item.WordCount != 6 {
		t.Errorf("WordCount = %d, want 6", item.WordCount)
	}
	if item.ImageURL != "https://cdn.example/fox.png" {
		t.Errorf("ImageURL = %q", item.ImageURL)
	}
}

func TestReferenceDataCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"categories":[{"name":"Photo","key":"photo","emoji":"📷"}]}`))
	}))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cats, err := c.ListCategories(ctx)
		if err != nil {
			t.Fatalf("ListCategories: %v", err)
		}
		if len(cats) != 1 || cats[0].Key != "photo" {
			t.Fatalf("categories = %+v", cats)
		}
	}
	if calls != 1 {
		t.Errorf("backend hit %d times, want 1 (cached)", calls)
	}
}

func TestUploadFileMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if header.Filename != "ref.png" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Write([]byte(`{"url":"/uploads/ref.png"}`))
	}))
	defer srv.Close()
	c := New(srv.URL)

	url, err := c.UploadFile(context.Background(), "s1", "ref.png", strings.NewReader("fake-png"))
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if url != "/uploads/ref.png" {
		t.Errorf("url = %q", url)
	}
}

func TestToggleSuggestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/suggestions/toggle/s1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"selected_suggestions":["misty"]}`))
	}))
	defer srv.Close()
	c := New(srv.URL)

	selected, err := c.ToggleSuggestion(context.Background(), "s1", "misty")
	if err != nil {
		t.Fatalf("ToggleSuggestion: %v", err)
	}
	if len(selected) != 1 || selected[0] != "misty" {
		t.Errorf("selected = %v", selected)
	}
}

func TestGenerateQuickPromptFailureFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"no category selected"}`))
	}))
	defer srv.Close()
	c := New(srv.URL)

	_, err := c.GenerateQuickPrompt(context.Background(), "s1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.Detail != "no category selected" {
		t.Errorf("Detail = %q", apiErr.Detail)
	}
}

func TestParseTime(t *testing.T) {
	if got := parseTime("2026-08-26T10:30:00Z"); got.IsZero() {
		t.Error("RFC3339 not parsed")
	}
	if got := parseTime("2026-08-26T10:30:00.123456"); got.IsZero() {
		t.Error("isoformat not parsed")
	}
	if got := parseTime(""); !got.IsZero() {
		t.Errorf("empty string parsed to %v", got)
	}
	if got := parseTime("yesterday"); !got.IsZero() {
		t.Errorf("garbage parsed to %v", got)
	}
}
