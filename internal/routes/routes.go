package routes

import (
	"net/http"

	"github.com/sarbojanin/clubsite/internal/app"
	"github.com/sarbojanin/clubsite/internal/handler"
	"github.com/sarbojanin/clubsite/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler()
	gallery := handler.NewGalleryHandler(app.MediaService)
	donate := handler.NewDonateHandler(app.DonationService)
	admin := handler.NewAdminHandler(app.AuthService, app.MediaService, app.ExpenseService, app.DonationService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /robots.txt", home.Robots)

	mux.HandleFunc("GET /{$}", home.HomePage)
	mux.HandleFunc("GET /gallery/{year}", gallery.GalleryPage)
	mux.HandleFunc("GET /donate", donate.DonatePage)

	// Admin entry point: renders login for anonymous visitors, dashboard for admins
	mux.HandleFunc("GET /admin", admin.AdminPage)
	mux.HandleFunc("POST /admin/login", admin.Login)
	mux.HandleFunc("POST /admin/logout", admin.Logout)

	// ============================================================================
	// PROTECTED ROUTES (admin role required)
	// ============================================================================

	mux.HandleFunc("POST /admin/media", middleware.RequireAdmin(admin.UploadMedia))
	mux.HandleFunc("POST /admin/media/{id}/toggle", middleware.RequireAdmin(admin.ToggleMedia))
	mux.HandleFunc("POST /admin/expenses", middleware.RequireAdmin(admin.AddExpense))
	mux.HandleFunc("POST /admin/expenses/{id}/delete", middleware.RequireAdmin(admin.DeleteExpense))
	mux.HandleFunc("POST /admin/donation/qr", middleware.RequireAdmin(admin.UploadQR))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	h := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (templates read AppName from ctx)
		middleware.RequestLogging,
		middleware.CSRFProtection, // CSRF protection for all state-changing requests
		middleware.AuthMiddleware(app.AuthService),
	)

	return h
}
