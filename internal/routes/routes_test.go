package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sarbojanin/clubsite/internal/app"
	"github.com/sarbojanin/clubsite/internal/config"
	"github.com/sarbojanin/clubsite/internal/db"
	"github.com/sarbojanin/clubsite/internal/repository"
	"github.com/sarbojanin/clubsite/internal/service"
)

// memBucket satisfies storage.Bucket for route tests without an S3 endpoint.
type memBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBucket() *memBucket {
	return &memBucket{objects: map[string][]byte{}}
}

func (b *memBucket) Save(ctx context.Context, key string, body io.Reader, contentType string, overwrite bool) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !overwrite {
		_, exists := b.objects[key]
		if exists {
			return fmt.Errorf("object already exists: %s", key)
		}
	}
	b.objects[key] = data
	return nil
}

func (b *memBucket) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBucket) URL(key string) string {
	return "http://bucket.test/" + key
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	err = db.RunMigrations(database.DB, "sqlite")
	if err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cfg := &config.Config{
		AppName:      "Sarbojanin Cultural Club",
		AppEnv:       "development",
		SupportEmail: "hello@club.org",
		JWTSecret:    "test-secret",
		JWTExpiry:    time.Hour,
		AdminEmails:  []string{"admin@club.org"},
	}

	authService := service.NewAuthService(
		repository.NewUserRepository(database),
		repository.NewRoleRepository(database),
		cfg.AdminEmails,
		cfg.JWTSecret,
		false,
		cfg.JWTExpiry,
	)

	a := &app.App{
		Cfg:             cfg,
		DB:              database,
		AuthService:     authService,
		MediaService:    service.NewMediaService(repository.NewMediaRepository(database), newMemBucket()),
		ExpenseService:  service.NewExpenseService(repository.NewExpenseRepository(database)),
		DonationService: service.NewDonationService(newMemBucket()),
	}

	server := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, string(body)
}

// csrfToken pulls the double-submit cookie set on the first GET.
func csrfToken(t *testing.T, client *http.Client, serverURL string) string {
	t.Helper()

	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("failed to parse server url: %v", err)
	}
	for _, cookie := range client.Jar.Cookies(u) {
		if cookie.Name == "csrf_token" {
			return cookie.Value
		}
	}
	t.Fatal("csrf_token cookie not set")
	return ""
}

func TestPublicPages(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t)

	t.Run("home lists gallery years", func(t *testing.T) {
		resp, body := get(t, client, server.URL+"/")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET / = %d, want 200", resp.StatusCode)
		}
		year := fmt.Sprintf("%d", time.Now().Year())
		if !strings.Contains(body, "/gallery/"+year) {
			t.Errorf("home page missing link to current year gallery")
		}
	})

	t.Run("gallery renders for a valid year", func(t *testing.T) {
		resp, body := get(t, client, server.URL+"/gallery/2025")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /gallery/2025 = %d, want 200", resp.StatusCode)
		}
		if !strings.Contains(body, "No media yet") {
			t.Error("empty gallery should say so")
		}
	})

	t.Run("gallery 404s on a malformed year", func(t *testing.T) {
		resp, _ := get(t, client, server.URL+"/gallery/puja")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET /gallery/puja = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("donate page shows support contact", func(t *testing.T) {
		resp, body := get(t, client, server.URL+"/donate")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /donate = %d, want 200", resp.StatusCode)
		}
		if !strings.Contains(body, "hello@club.org") {
			t.Error("donate page missing support email")
		}
	})

	t.Run("unknown path 404s", func(t *testing.T) {
		resp, _ := get(t, client, server.URL+"/no/such/page")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET /no/such/page = %d, want 404", resp.StatusCode)
		}
	})
}

func TestAdminAccess(t *testing.T) {
	server := newTestServer(t)

	t.Run("anonymous visitor sees the login card", func(t *testing.T) {
		client := newTestClient(t)
		resp, body := get(t, client, server.URL+"/admin")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /admin = %d, want 200", resp.StatusCode)
		}
		if !strings.Contains(body, "Admin Login") {
			t.Error("expected the login card for anonymous visitors")
		}
	})

	t.Run("state-changing request without CSRF token is rejected", func(t *testing.T) {
		client := newTestClient(t)
		resp, err := client.PostForm(server.URL+"/admin/expenses", url.Values{"amount": {"10"}})
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("POST without CSRF = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("allowlisted email signs up and reaches the dashboard", func(t *testing.T) {
		client := newTestClient(t)
		_, _ = get(t, client, server.URL+"/admin")
		token := csrfToken(t, client, server.URL)

		resp, err := client.PostForm(server.URL+"/admin/login", url.Values{
			"csrf_token": {token},
			"email":      {"admin@club.org"},
			"password":   {"password123"},
		})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("login final status = %d, want 200 after redirect", resp.StatusCode)
		}
		if !strings.Contains(string(body), "Admin Dashboard") {
			t.Error("expected the dashboard after an allowlisted login")
		}

		// Add an expense through the full stack
		resp, err = client.PostForm(server.URL+"/admin/expenses", url.Values{
			"csrf_token": {token},
			"year":       {"2025"},
			"amount":     {"1500"},
			"category":   {"Prasad"},
			"date":       {"2025-10-01"},
		})
		if err != nil {
			t.Fatalf("add expense failed: %v", err)
		}
		body, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if !strings.Contains(string(body), "Expense recorded") {
			t.Error("expected a success toast after adding an expense")
		}
		if !strings.Contains(string(body), "Prasad") {
			t.Error("expected the new expense in the dashboard listing")
		}
	})

	t.Run("non-allowlisted user is bounced back to the login card", func(t *testing.T) {
		client := newTestClient(t)
		_, _ = get(t, client, server.URL+"/admin")
		token := csrfToken(t, client, server.URL)

		resp, err := client.PostForm(server.URL+"/admin/login", url.Values{
			"csrf_token": {token},
			"email":      {"member@example.com"},
			"password":   {"password123"},
		})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if !strings.Contains(string(body), "Admin Login") {
			t.Error("non-admin should land on the login card, not the dashboard")
		}

		// Protected POST must redirect away without acting
		resp, err = client.PostForm(server.URL+"/admin/expenses", url.Values{
			"csrf_token": {token},
			"year":       {"2025"},
			"amount":     {"999"},
		})
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		body, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if strings.Contains(string(body), "Expense recorded") {
			t.Error("non-admin must not be able to add expenses")
		}
	})
}
