package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"diynow/pkg/domain"
	"diynow/pkg/httpserver/deps"
	"diynow/pkg/httpserver/mw"
	"diynow/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"login", "register", "home", "favorites"} {
		pages[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
}

type pageData struct {
	Title     string
	LoggedIn  bool
	Flashes   []string
	Keyword   string
	Projects  []domain.ProjectRecord
	Favorites []domain.Favorite
}

// render executes a page into a buffer first so a template error never
// produces a half-written response. Flashes queued in the session are shown
// before the ones passed in data.
func render(w http.ResponseWriter, r *http.Request, d deps.Deps, status int, name string, data pageData) {
	if sess := mw.SessionFrom(r.Context()); sess != nil {
		data.LoggedIn = true
		queued, err := d.Sessions.PopFlashes(r.Context(), sess)
		if err != nil {
			d.Logger.Warn("failed to read flashes", logger.Error(err))
		}
		data.Flashes = append(queued, data.Flashes...)
	}

	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		d.Logger.Error("failed to render page", logger.String("page", name), logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
