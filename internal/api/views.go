package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"resale-backend/internal/auth"
	"resale-backend/internal/database"

	"github.com/gorilla/csrf"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"home",
	"prediction",
	"results",
	"signup",
	"login",
	"forgot_password",
	"reset_password",
	"profile",
	"dashboard",
}

type PageData struct {
	Title         string
	User          *database.User
	Flashes       []auth.Flash
	GoogleEnabled bool
	CSRFField     template.HTML
	Data          any
}

type Views struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"displayName": func(user *database.User) string {
		if user == nil {
			return ""
		}
		if user.Username.Valid && user.Username.String != "" {
			return user.Username.String
		}
		return user.Email
	},
	"profilePicURL": func(user *database.User) string {
		if user == nil || !user.ProfilePic.Valid {
			return ""
		}
		return "/" + user.ProfilePic.String
	},
	"json": func(v any) (template.JS, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return template.JS(data), nil
	},
}

// LoadViews parses each page together with the shared layout so that every
// page can define its own "content" block.
func LoadViews() (*Views, error) {
	views := &Views{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("error parsing template %s: %w", page, err)
		}
		views.pages[page] = tmpl
	}
	return views, nil
}

func MustLoadViews() *Views {
	views, err := LoadViews()
	if err != nil {
		panic(err)
	}
	return views
}

func (v *Views) Render(w http.ResponseWriter, status int, page string, data PageData) {
	tmpl, ok := v.pages[page]
	if !ok {
		slog.Error("unknown template", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("error rendering template", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("error writing page", "page", page, "error", err)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	user, _ := auth.UserFromContext(r.Context())
	s.views.Render(w, status, page, PageData{
		Title:         strings.TrimSpace(title),
		User:          user,
		Flashes:       s.sessions.Flashes(w, r),
		GoogleEnabled: s.cfg.GoogleEnabled,
		CSRFField:     csrf.TemplateField(r),
		Data:          data,
	})
}
