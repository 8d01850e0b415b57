package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/heymemory/server/internal/service"
)

type ContentHandler struct {
	contentService *service.ContentService
	appName        string
}

func NewContentHandler(contentService *service.ContentService, appName string) *ContentHandler {
	return &ContentHandler{contentService: contentService, appName: appName}
}

var contentPageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}} - {{.AppName}}</title>
  <style>
    body { font-family: system-ui, sans-serif; max-width: 42rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; }
    img { max-width: 100%; }
    a { color: #2563eb; }
    footer { margin-top: 3rem; font-size: 0.875rem; color: #6b7280; }
  </style>
</head>
<body>
  <main>{{.Content}}</main>
  {{if .LastUpdated}}<footer>Last updated {{.LastUpdated}}</footer>{{end}}
</body>
</html>
`))

// Page handles GET /pages/{slug}, serving rendered markdown content.
func (h *ContentHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.contentService.Page(r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to load content page", "error", err, "slug", r.PathValue("slug"))
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = contentPageTemplate.Execute(w, map[string]any{
		"Title":   page.Title,
		"AppName": h.appName,
		// The markdown comes from trusted local files, so the rendered
		// HTML can pass through unescaped.
		"Content":     template.HTML(page.Content),
		"LastUpdated": page.LastUpdated,
	})
	if err != nil {
		slog.Error("failed to render content page", "error", err, "slug", page.Slug)
	}
}
