package handler

import (
	"net/http"
	"time"

	"github.com/sarbojanin/clubsite/internal/ui"
)

type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// yearOptions lists the selectable gallery years, current year first.
func yearOptions() []int {
	current := time.Now().Year()
	years := make([]int, 0, 11)
	for y := current; y > current-11; y-- {
		years = append(years, y)
	}
	return years
}

func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, "home", ui.PageData{
		Title: "Home",
		Data: map[string]any{
			"Years": yearOptions(),
		},
	})
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	ui.Render(w, r, "notfound", ui.PageData{Title: "Not Found"})
}

// Robots serves a permissive robots.txt.
func (h *HomeHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
}
