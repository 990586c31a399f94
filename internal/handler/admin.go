package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sarbojanin/clubsite/internal/ctxkeys"
	"github.com/sarbojanin/clubsite/internal/repository"
	"github.com/sarbojanin/clubsite/internal/service"
	"github.com/sarbojanin/clubsite/internal/ui"
)

type AdminHandler struct {
	authService     *service.AuthService
	mediaService    *service.MediaService
	expenseService  *service.ExpenseService
	donationService *service.DonationService
}

func NewAdminHandler(
	authService *service.AuthService,
	mediaService *service.MediaService,
	expenseService *service.ExpenseService,
	donationService *service.DonationService,
) *AdminHandler {
	return &AdminHandler{
		authService:     authService,
		mediaService:    mediaService,
		expenseService:  expenseService,
		donationService: donationService,
	}
}

// AdminPage shows the login card for anonymous or non-admin visitors and the
// dashboard for admins. The dashboard is scoped to the year query parameter,
// defaulting to the current year.
func (h *AdminHandler) AdminPage(w http.ResponseWriter, r *http.Request) {
	if !ctxkeys.IsAdmin(r.Context()) {
		ui.Render(w, r, "admin_login", ui.PageData{
			Title: "Admin Login",
			Toast: toastFromQuery(r),
		})
		return
	}

	year := requestYear(r)

	media, err := h.mediaService.ListAdmin(r.Context(), year)
	if err != nil {
		slog.Error("failed to load media", "error", err, "year", year)
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	expenses, err := h.expenseService.List(r.Context(), year)
	if err != nil {
		slog.Error("failed to load expenses", "error", err, "year", year)
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	ui.Render(w, r, "admin", ui.PageData{
		Title: "Admin",
		Toast: toastFromQuery(r),
		Data: map[string]any{
			"Year":        year,
			"YearOptions": yearOptions(),
			"Media":       media,
			"Expenses":    expenses,
			"QRURL":       h.donationService.QRURL(),
			"Today":       time.Now().Format("2006-01-02"),
		},
	})
}

// Login authenticates the form credentials. An unknown email creates the
// account; a wrong password for a known email fails without creating anything.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.renderLoginError(w, r, "Email and password are required")
		return
	}

	user, err := h.authService.SignIn(r.Context(), email, password)
	if err != nil {
		slog.Warn("sign in failed", "error", err, "email", email)
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			h.renderLoginError(w, r, "Please provide a valid email address")
		case errors.Is(err, service.ErrWeakPassword):
			h.renderLoginError(w, r, "Password must be at least 8 characters")
		default:
			h.renderLoginError(w, r, "Invalid email or password")
		}
		return
	}

	token, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		h.renderLoginError(w, r, "An error occurred. Please try again.")
		return
	}

	h.authService.SetJWTCookie(w, token, time.Now().Add(h.authService.JWTExpiry()))

	slog.Info("user signed in", "user_id", user.ID, "email", user.Email, "admin", user.IsAdmin)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// UploadMedia stores every file from the multipart form. Files upload
// concurrently; on partial failure the completed ones stay and the toast
// reports the first error.
func (h *AdminHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	year := requestYear(r)

	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		redirectWithToast(w, r, year, "Upload failed", "Could not read the uploaded files", "error")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		redirectWithToast(w, r, year, "Upload failed", "Select at least one file", "error")
		return
	}

	err = h.mediaService.Upload(r.Context(), user.ID, year, files)
	if err != nil {
		slog.Error("media upload failed", "error", err, "user_id", user.ID, "year", year)
		redirectWithToast(w, r, year, "Upload failed", err.Error(), "error")
		return
	}

	redirectWithToast(w, r, year, "Uploaded", strconv.Itoa(len(files))+" file(s) added to the gallery", "success")
}

// ToggleMedia flips one item between visible and hidden.
func (h *AdminHandler) ToggleMedia(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	year := requestYear(r)

	err := h.mediaService.ToggleVisibility(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			redirectWithToast(w, r, year, "Not found", "That media item no longer exists", "error")
			return
		}
		slog.Error("failed to toggle media", "error", err, "media_id", id)
		redirectWithToast(w, r, year, "Error", "Failed to update visibility", "error")
		return
	}

	redirectWithToast(w, r, year, "Updated", "Visibility changed", "success")
}

// AddExpense records one ledger entry. A malformed amount is rejected before
// anything reaches the database.
func (h *AdminHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	year := requestYear(r)

	_, err := h.expenseService.Add(
		r.Context(),
		user.ID,
		year,
		r.FormValue("amount"),
		r.FormValue("category"),
		r.FormValue("description"),
		r.FormValue("date"),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDate):
			redirectWithToast(w, r, year, "Invalid date", "Use the YYYY-MM-DD format", "error")
		default:
			slog.Warn("failed to add expense", "error", err, "user_id", user.ID, "year", year)
			redirectWithToast(w, r, year, "Invalid expense", "Enter a valid non-negative amount", "error")
		}
		return
	}

	redirectWithToast(w, r, year, "Saved", "Expense recorded", "success")
}

// DeleteExpense soft-deletes one entry. Without a reason nothing happens.
func (h *AdminHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	year := requestYear(r)

	err := h.expenseService.SoftDelete(r.Context(), id, r.FormValue("reason"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReasonRequired):
			redirectWithToast(w, r, year, "Reason required", "Give a reason to delete this expense", "error")
		case errors.Is(err, repository.ErrExpenseNotFound):
			redirectWithToast(w, r, year, "Not found", "That expense no longer exists or is already deleted", "error")
		default:
			slog.Error("failed to delete expense", "error", err, "expense_id", id)
			redirectWithToast(w, r, year, "Error", "Failed to delete expense", "error")
		}
		return
	}

	redirectWithToast(w, r, year, "Deleted", "Expense marked as deleted", "success")
}

// UploadQR replaces the donation QR image.
func (h *AdminHandler) UploadQR(w http.ResponseWriter, r *http.Request) {
	year := requestYear(r)

	err := r.ParseMultipartForm(8 << 20)
	if err != nil {
		redirectWithToast(w, r, year, "Upload failed", "Could not read the uploaded file", "error")
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		redirectWithToast(w, r, year, "Upload failed", "Select an image", "error")
		return
	}

	err = h.donationService.UploadQR(r.Context(), files[0])
	if err != nil {
		slog.Error("QR upload failed", "error", err)
		redirectWithToast(w, r, year, "Upload failed", err.Error(), "error")
		return
	}

	redirectWithToast(w, r, year, "Uploaded", "Donation QR replaced", "success")
}

func (h *AdminHandler) renderLoginError(w http.ResponseWriter, r *http.Request, message string) {
	ui.Render(w, r, "admin_login", ui.PageData{
		Title: "Admin Login",
		Toast: &ui.Toast{Title: "Login failed", Description: message, Variant: "error"},
	})
}

// requestYear reads the year form/query value, defaulting to the current year.
func requestYear(r *http.Request) int {
	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil || year < 1900 || year > 2999 {
		return time.Now().Year()
	}
	return year
}

// redirectWithToast sends the browser back to the dashboard with toast
// parameters in the query string, rendered once on the next page load.
func redirectWithToast(w http.ResponseWriter, r *http.Request, year int, title, description, variant string) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("toast", title)
	q.Set("desc", description)
	q.Set("variant", variant)
	http.Redirect(w, r, "/admin?"+q.Encode(), http.StatusSeeOther)
}

// toastFromQuery rebuilds a toast from redirect query parameters.
func toastFromQuery(r *http.Request) *ui.Toast {
	title := r.URL.Query().Get("toast")
	if title == "" {
		return nil
	}
	variant := r.URL.Query().Get("variant")
	if variant != "success" && variant != "error" && variant != "info" {
		variant = "info"
	}
	return &ui.Toast{
		Title:       title,
		Description: r.URL.Query().Get("desc"),
		Variant:     variant,
	}
}
