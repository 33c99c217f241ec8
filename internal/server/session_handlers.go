package server

import (
	"autoblog/internal/core"
	"autoblog/internal/generator"
	"autoblog/internal/llm"
	"autoblog/internal/normalize"
	"autoblog/internal/templates"
	"autoblog/internal/visual"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// CreateSessionRequest is the body of POST /api/sessions. Template takes
// precedence over TemplateName; with neither the default template is used.
type CreateSessionRequest struct {
	Topic        string `json:"topic"`
	Template     string `json:"template,omitempty"`
	TemplateName string `json:"template_name,omitempty"`
	Model        string `json:"model,omitempty"`
	APIKey       string `json:"api_key,omitempty"`
}

// UpdateSessionRequest is the body of PATCH /api/sessions/{id}
type UpdateSessionRequest struct {
	Title          *string   `json:"title,omitempty"`
	ThumbnailTitle *string   `json:"thumbnail_title,omitempty"`
	Tags           *[]string `json:"tags,omitempty"`
}

// RefineRequest is the optional body of POST /api/sessions/{id}/refine/{kind}
type RefineRequest struct {
	APIKey string `json:"api_key,omitempty"`
}

// RefineResponse reports a refinement together with the updated session
type RefineResponse struct {
	Result  core.RefinementResult `json:"result"`
	Session *core.Session         `json:"session"`
}

// SessionErrorResponse is returned when a generation fails
type SessionErrorResponse struct {
	Error   apiError      `json:"error"`
	Session *core.Session `json:"session"`
}

type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// handleCreateSession handles POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, generator.UserMessage(generator.ErrEmptyTopic))
		return
	}

	body := req.Template
	if strings.TrimSpace(body) == "" {
		tmpl := s.library.Default()
		if req.TemplateName != "" {
			found, err := s.library.Get(req.TemplateName)
			if err != nil {
				s.respondError(w, http.StatusUnprocessableEntity, "Unknown template: "+req.TemplateName)
				return
			}
			tmpl = found
		}
		body = tmpl.Body
	}

	entry := s.sessions.create()
	entry.mu.Lock()
	defer entry.mu.Unlock()

	err := s.pipeline.Start(r.Context(), entry.sess, core.GenerationRequest{
		Topic:           req.Topic,
		PromptTemplate:  body,
		ModelPreference: req.Model,
		APIKey:          req.APIKey,
	})
	if err != nil {
		status := generationStatus(err)
		s.log.Warn("Session generation failed", "session", entry.sess.ID, "status", status, "error", err.Error())
		s.respondJSON(w, status, SessionErrorResponse{
			Error:   apiError{Status: status, Message: entry.sess.LastError},
			Session: entry.sess,
		})
		return
	}

	s.respondJSON(w, http.StatusCreated, entry.sess)
}

// generationStatus maps a generation error to an HTTP status.
func generationStatus(err error) int {
	switch {
	case errors.Is(err, generator.ErrEmptyTopic):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, generator.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// handleGetSession handles GET /api/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	s.respondJSON(w, http.StatusOK, entry.sess)
}

// handleUpdateSession handles PATCH /api/sessions/{id}
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	sess := entry.sess
	if sess.State != core.StateReady || !sess.HasOutput() {
		s.respondError(w, http.StatusConflict, "Session has no generated post to edit")
		return
	}

	var title, thumbnailTitle *string
	if req.Title != nil {
		cleaned := normalize.CleanTitle(*req.Title)
		if cleaned == "" {
			s.respondError(w, http.StatusUnprocessableEntity, "Title cannot be empty")
			return
		}
		title = &cleaned
	}
	if req.ThumbnailTitle != nil {
		cleaned := normalize.CleanTitle(*req.ThumbnailTitle)
		thumbnailTitle = &cleaned
	}
	sess.Post.Edit(title, thumbnailTitle, req.Tags)

	s.respondJSON(w, http.StatusOK, sess)
}

// handleRefineSession handles POST /api/sessions/{id}/refine/{kind}
func (s *Server) handleRefineSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	kind := core.RefinementKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		s.respondError(w, http.StatusUnprocessableEntity, "Refinement must be 'fact' or 'spell'")
		return
	}

	var req RefineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	result, err := s.pipeline.Refine(r.Context(), entry.sess, kind, req.APIKey)
	if err != nil {
		s.respondError(w, http.StatusConflict, generator.UserMessage(err))
		return
	}

	s.respondJSON(w, http.StatusOK, RefineResponse{Result: result, Session: entry.sess})
}

// handleSessionThumbnail handles GET /api/sessions/{id}/thumbnail
func (s *Server) handleSessionThumbnail(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	entry.mu.Lock()
	ref := entry.sess.Image
	entry.mu.Unlock()

	switch {
	case ref.URL == "":
		s.respondError(w, http.StatusNotFound, "Session has no thumbnail")
	case strings.HasPrefix(ref.URL, "data:"):
		mime, data, err := visual.DecodeDataURL(ref.URL)
		if err != nil {
			s.log.Error("Failed to decode thumbnail", "session", entry.sess.ID, "error", err)
			s.respondError(w, http.StatusInternalServerError, "Failed to decode thumbnail")
			return
		}
		w.Header().Set("Content-Type", mime)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case strings.HasPrefix(ref.URL, "http://"), strings.HasPrefix(ref.URL, "https://"):
		http.Redirect(w, r, ref.URL, http.StatusFound)
	default:
		http.ServeFile(w, r, ref.URL)
	}
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*sessionEntry, bool) {
	id := chi.URLParam(r, "id")
	entry, ok := s.sessions.get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Session not found or expired")
		return nil, false
	}
	return entry, true
}

// templateError maps a template library error to an HTTP status.
func templateError(err error) int {
	switch {
	case errors.Is(err, templates.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, templates.ErrBuiltinTemplate):
		return http.StatusConflict
	case errors.Is(err, templates.ErrInvalidTemplate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
