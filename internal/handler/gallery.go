package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sarbojanin/clubsite/internal/service"
	"github.com/sarbojanin/clubsite/internal/ui"
)

type GalleryHandler struct {
	mediaService *service.MediaService
}

func NewGalleryHandler(mediaService *service.MediaService) *GalleryHandler {
	return &GalleryHandler{
		mediaService: mediaService,
	}
}

// GalleryPage shows the public gallery for one year. Only visible items are
// listed; hidden ones exist solely on the admin dashboard.
func (h *GalleryHandler) GalleryPage(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1900 || year > 2999 {
		w.WriteHeader(http.StatusNotFound)
		ui.Render(w, r, "notfound", ui.PageData{Title: "Not Found"})
		return
	}

	items, err := h.mediaService.ListPublic(r.Context(), year)
	if err != nil {
		slog.Error("failed to load gallery", "error", err, "year", year)
		http.Error(w, "Failed to load gallery", http.StatusInternalServerError)
		return
	}

	ui.Render(w, r, "gallery", ui.PageData{
		Title: "Gallery " + strconv.Itoa(year),
		Data: map[string]any{
			"Year":  year,
			"Items": items,
		},
	})
}
