package server

import (
	"autoblog/internal/core"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// TemplateListResponse is returned by GET /api/templates
type TemplateListResponse struct {
	Templates []core.PromptTemplate `json:"templates"`
	Total     int                   `json:"total"`
}

// SaveTemplateRequest is the body of PUT /api/templates/{name}
type SaveTemplateRequest struct {
	Body string `json:"body"`
}

// handleListTemplates handles GET /api/templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list := s.library.List()
	s.respondJSON(w, http.StatusOK, TemplateListResponse{Templates: list, Total: len(list)})
}

// handleGetTemplate handles GET /api/templates/{name}
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.library.Get(templateName(r))
	if err != nil {
		s.respondError(w, templateError(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, tmpl)
}

// handleSaveTemplate handles PUT /api/templates/{name}
func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req SaveTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := templateName(r)
	if err := s.library.Save(r.Context(), name, req.Body); err != nil {
		status := templateError(err)
		if status == http.StatusInternalServerError {
			s.log.Error("Failed to save template", "template", name, "error", err)
			s.respondError(w, status, "Failed to save template")
			return
		}
		s.respondError(w, status, err.Error())
		return
	}

	tmpl, _ := s.library.Get(name)
	s.respondJSON(w, http.StatusOK, tmpl)
}

// handleDeleteTemplate handles DELETE /api/templates/{name}
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	name := templateName(r)
	if err := s.library.Delete(r.Context(), name); err != nil {
		status := templateError(err)
		if status == http.StatusInternalServerError {
			s.log.Error("Failed to delete template", "template", name, "error", err)
			s.respondError(w, status, "Failed to delete template")
			return
		}
		s.respondError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// templateName returns the decoded {name} parameter; names are often Korean
// and arrive percent-encoded.
func templateName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
