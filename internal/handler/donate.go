package handler

import (
	"net/http"

	"github.com/sarbojanin/clubsite/internal/ctxkeys"
	"github.com/sarbojanin/clubsite/internal/service"
	"github.com/sarbojanin/clubsite/internal/ui"
)

type DonateHandler struct {
	donationService *service.DonationService
}

func NewDonateHandler(donationService *service.DonationService) *DonateHandler {
	return &DonateHandler{
		donationService: donationService,
	}
}

func (h *DonateHandler) DonatePage(w http.ResponseWriter, r *http.Request) {
	supportEmail := ""
	cfg := ctxkeys.Config(r.Context())
	if cfg != nil {
		supportEmail = cfg.SupportEmail
	}

	ui.Render(w, r, "donate", ui.PageData{
		Title: "Donate",
		Data: map[string]any{
			"QRURL":        h.donationService.QRURL(),
			"SupportEmail": supportEmail,
		},
	})
}
