package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sarbojanin/clubsite/internal/ctxkeys"
	"github.com/sarbojanin/clubsite/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Toast is a transient notification rendered once in the page layout.
type Toast struct {
	Title       string
	Description string
	Variant     string // "success" | "error" | "info"
}

// PageData is the envelope every template receives. User, CSRFToken and
// AppName are filled from the request context by Render.
type PageData struct {
	Title     string
	AppName   string
	User      *model.User
	CSRFToken string
	Toast     *Toast
	Data      any
}

var funcs = template.FuncMap{
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"money": func(amount float64) string {
		return fmt.Sprintf("%.2f", amount)
	},
}

var pages = map[string]*template.Template{}

func init() {
	names := []string{"home", "gallery", "donate", "admin", "admin_login", "notfound"}
	for _, name := range names {
		pages[name] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(
			templatesFS,
			"templates/layout.html",
			"templates/"+name+".html",
		))
	}
}

// Render executes the named page inside the shared layout.
func Render(w http.ResponseWriter, r *http.Request, page string, data PageData) {
	tmpl, ok := pages[page]
	if !ok {
		slog.Error("render failed: unknown page", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	cfg := ctxkeys.Config(r.Context())
	if cfg != nil {
		data.AppName = cfg.AppName
	}
	data.User = ctxkeys.User(r.Context())
	data.CSRFToken = ctxkeys.CSRFToken(r.Context())

	err := tmpl.ExecuteTemplate(w, "layout.html", data)
	if err != nil {
		slog.Error("render failed", "error", err, "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
