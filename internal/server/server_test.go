package server

import (
	"autoblog/internal/config"
	"autoblog/internal/core"
	"autoblog/internal/generator"
	"autoblog/internal/llm"
	"autoblog/internal/prompt"
	"autoblog/internal/refine"
	"autoblog/internal/store"
	"autoblog/internal/templates"
	"autoblog/internal/textstats"
	"autoblog/internal/visual"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

const generatedReply = `{"title":"<b>Coffee Brewing</b> Tips","content":"<p>Great coffee...</p>","tags":["coffee","brew"]}`

// scriptedProvider answers generation prompts with a post and refinement
// prompts with updated content. Topics containing "TRIGGER-FAIL" fail.
type scriptedProvider struct{}

func (scriptedProvider) Name() string { return llm.GeminiProviderName }

func (scriptedProvider) Supports(model string) bool { return strings.HasPrefix(model, "stub-") }

func (scriptedProvider) Call(ctx context.Context, apiKey string, req llm.Request) (string, error) {
	if strings.Contains(req.Prompt, "TRIGGER-FAIL") {
		return "", &llm.CallError{Backend: req.Model, Kind: core.OutcomeTransientError, Detail: "upstream unavailable"}
	}
	if strings.Contains(req.Prompt, "[USER REQUEST]") {
		return generatedReply, nil
	}
	return `{"content":"<p>Refined coffee.</p>"}`, nil
}

func newTestServer(t *testing.T, defaultKey string) *Server {
	t.Helper()
	invoker := llm.NewInvoker([]llm.Provider{scriptedProvider{}}, llm.Options{
		Sleep: func(ctx context.Context, d time.Duration) error { return nil },
	})
	pipeline := &generator.Pipeline{
		Assembler:    prompt.NewAssembler(0, 0),
		Invoker:      invoker,
		Refiner:      refine.New(invoker, "stub-a", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 0),
		Thumbnails:   visual.NewSolidProvider(8, 8, ""),
		Counter:      textstats.NewCounter(nil),
		DefaultModel: "stub-a",
		Defaults:     llm.Credentials{llm.GeminiProviderName: defaultKey},
	}

	library := templates.NewLibrary(store.NewMemoryStore())
	if err := library.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return New(pipeline, library, config.Server{Host: "127.0.0.1", Port: 0, SessionTTL: time.Hour})
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, s *Server) core.Session {
	t.Helper()
	rec := doRequest(t, s, http.MethodPost, "/api/sessions", CreateSessionRequest{Topic: "coffee brewing"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var sess core.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return sess
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "key")
	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Status != "ok" {
		t.Errorf("Unexpected health response %s", rec.Body.String())
	}
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(t, "key")
	sess := createSession(t, s)

	if sess.ID == "" || sess.State != core.StateReady {
		t.Errorf("Expected ready session with id, got %+v", sess)
	}
	if sess.Post == nil || sess.Post.Title != "Coffee Brewing Tips" {
		t.Fatalf("Unexpected post %+v", sess.Post)
	}
	if !strings.HasPrefix(sess.Image.URL, "data:image/jpeg;base64,") {
		t.Errorf("Expected solid thumbnail data URL, got %q", sess.Image.URL)
	}
	if sess.Backend != "stub-a" {
		t.Errorf("Expected backend stub-a, got %s", sess.Backend)
	}
}

func TestCreateSessionErrors(t *testing.T) {
	tests := []struct {
		name       string
		defaultKey string
		req        CreateSessionRequest
		wantStatus int
	}{
		{"empty topic", "key", CreateSessionRequest{Topic: "  "}, http.StatusUnprocessableEntity},
		{"unknown template", "key", CreateSessionRequest{Topic: "coffee", TemplateName: "nope"}, http.StatusUnprocessableEntity},
		{"missing credentials", "", CreateSessionRequest{Topic: "coffee"}, http.StatusBadRequest},
		{"backend failure", "key", CreateSessionRequest{Topic: "TRIGGER-FAIL"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.defaultKey)
			rec := doRequest(t, s, http.MethodPost, "/api/sessions", tt.req)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateSessionWithRequestKey(t *testing.T) {
	s := newTestServer(t, "")
	rec := doRequest(t, s, http.MethodPost, "/api/sessions", CreateSessionRequest{Topic: "coffee", APIKey: "user-key"})
	if rec.Code != http.StatusCreated {
		t.Errorf("Expected 201 with a request key, got %d", rec.Code)
	}
}

func TestGetSession(t *testing.T) {
	s := newTestServer(t, "key")
	sess := createSession(t, s)

	rec := doRequest(t, s, http.MethodGet, "/api/sessions/"+sess.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/sessions/does-not-exist", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestRefineSession(t *testing.T) {
	s := newTestServer(t, "key")
	sess := createSession(t, s)

	rec := doRequest(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/refine/fact", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp RefineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Result.Succeeded || resp.Session.Post.Content != "<p>Refined coffee.</p>" || !resp.Session.FactChecked {
		t.Errorf("Unexpected refine response %+v", resp)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/refine/style", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for unknown kind, got %d", rec.Code)
	}
}

func TestUpdateSession(t *testing.T) {
	s := newTestServer(t, "key")
	sess := createSession(t, s)

	title := "<i>New</i> Title"
	tags := []string{" a ", "", "b"}
	rec := doRequest(t, s, http.MethodPatch, "/api/sessions/"+sess.ID, UpdateSessionRequest{Title: &title, Tags: &tags})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated core.Session
	_ = json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Post.Title != "New Title" {
		t.Errorf("Expected cleaned title, got %q", updated.Post.Title)
	}
	if len(updated.Post.Tags) != 2 {
		t.Errorf("Expected blank tags dropped, got %v", updated.Post.Tags)
	}
	if updated.Post.ThumbnailTitle != "New Title" {
		t.Errorf("Expected derived thumbnail title to follow the new title, got %q", updated.Post.ThumbnailTitle)
	}
	if updated.Post.ImageKeywords != "a, b" {
		t.Errorf("Expected image keywords from the new tags, got %q", updated.Post.ImageKeywords)
	}
}

func TestPreviewAndThumbnail(t *testing.T) {
	s := newTestServer(t, "key")
	sess := createSession(t, s)

	rec := doRequest(t, s, http.MethodGet, "/api/sessions/"+sess.ID+"/preview", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Coffee Brewing Tips") || !strings.Contains(body, "<p>Great coffee") {
		t.Errorf("Preview missing post content: %s", body)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/sessions/"+sess.ID+"/thumbnail", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/jpeg" {
		t.Errorf("Expected JPEG thumbnail, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestMeasure(t *testing.T) {
	s := newTestServer(t, "key")
	rec := doRequest(t, s, http.MethodPost, "/api/measure", MeasureRequest{HTML: "<p>안녕 하세요</p>"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var stats core.TextStats
	_ = json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.TotalChars != 6 || stats.TotalCharsNoWhitespace != 5 || stats.ScriptChars != 5 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestTemplateEndpoints(t *testing.T) {
	s := newTestServer(t, "key")

	rec := doRequest(t, s, http.MethodGet, "/api/templates", nil)
	var list TemplateListResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if rec.Code != http.StatusOK || list.Total != 2 {
		t.Fatalf("Expected two built-ins, got %d %+v", rec.Code, list)
	}

	path := "/api/templates/" + url.PathEscape("나의 템플릿")
	rec = doRequest(t, s, http.MethodPut, path, SaveTemplateRequest{Body: "{topic} 이야기"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on save, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, path, nil)
	var tmpl core.PromptTemplate
	_ = json.Unmarshal(rec.Body.Bytes(), &tmpl)
	if rec.Code != http.StatusOK || tmpl.Name != "나의 템플릿" || tmpl.Body != "{topic} 이야기" {
		t.Errorf("Unexpected template %d %+v", rec.Code, tmpl)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/sessions", CreateSessionRequest{Topic: "coffee", TemplateName: "나의 템플릿"})
	if rec.Code != http.StatusCreated {
		t.Errorf("Expected generation with saved template, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/templates/"+url.PathEscape(templates.GuidelineName), nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 deleting a built-in, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, path, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, path, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPut, path, SaveTemplateRequest{Body: "  "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for empty body, got %d", rec.Code)
	}
}
