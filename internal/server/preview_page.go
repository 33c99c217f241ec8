package server

import (
	"autoblog/internal/core"
	"autoblog/internal/preview"
	"html/template"
	"net/http"
	"strings"
)

var previewPage = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { max-width: 760px; margin: 2rem auto; padding: 0 1rem; font-family: sans-serif; line-height: 1.7; }
.meta { color: #666; font-size: 0.9rem; }
.tags span { display: inline-block; background: #eef; border-radius: 4px; padding: 2px 6px; margin-right: 4px; }
img.thumb { max-width: 100%; border-radius: 8px; }
</style>
</head>
<body>
{{if .Image}}<img class="thumb" src="{{.Image}}" alt="{{.ThumbnailTitle}}">{{end}}
<h1>{{.Title}}</h1>
<p class="meta">{{.Stats.TotalChars}} chars, {{.Stats.TotalCharsNoWhitespace}} without spaces, {{.Stats.ScriptChars}} in script{{if .Backend}} · {{.Backend}}{{end}}</p>
<p class="tags">{{range .Tags}}<span>#{{.}}</span>{{end}}</p>
<article>{{.Body}}</article>
</body>
</html>
`))

type previewData struct {
	Title          string
	ThumbnailTitle string
	Tags           []string
	Image          template.URL
	Body           template.HTML
	Stats          core.TextStats
	Backend        string
}

// handlePreviewSession handles GET /api/sessions/{id}/preview
func (s *Server) handlePreviewSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	entry.mu.Lock()
	sess := entry.sess
	if !sess.HasOutput() {
		entry.mu.Unlock()
		s.respondError(w, http.StatusNotFound, "Session has no generated post")
		return
	}
	data := previewData{
		Title:          sess.Post.Title,
		ThumbnailTitle: sess.Post.ThumbnailTitle,
		Tags:           sess.Post.Tags,
		Body:           preview.Render(sess.Post.Content),
		Stats:          sess.Stats,
		Backend:        sess.Backend,
	}
	if sess.Image.URL != "" {
		data.Image = template.URL(thumbnailSrc(sess))
	}
	entry.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := previewPage.Execute(w, data); err != nil {
		s.log.Error("Failed to render preview", "session", sess.ID, "error", err)
	}
}

// thumbnailSrc returns an image source the browser can load. Local files are
// served through the thumbnail endpoint.
func thumbnailSrc(sess *core.Session) string {
	url := sess.Image.URL
	if strings.HasPrefix(url, "data:") || strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "/api/sessions/" + sess.ID + "/thumbnail"
}
