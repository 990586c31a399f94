package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sarbojanin/clubsite/internal/db"
	"github.com/sarbojanin/clubsite/internal/model"
	"github.com/sarbojanin/clubsite/internal/repository"
)

// memBucket is an in-memory Bucket for tests. It mirrors the conditional
// write behavior of the real S3 implementation.
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

func (b *memBucket) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

func newTestDB(t *testing.T) *sqlx.DB {
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

	return database
}

func newTestAuthService(t *testing.T, database *sqlx.DB, adminEmails []string) *AuthService {
	t.Helper()
	return NewAuthService(
		repository.NewUserRepository(database),
		repository.NewRoleRepository(database),
		adminEmails,
		"test-secret",
		false,
		time.Hour,
	)
}

// fileHeader builds a real multipart.FileHeader by writing and re-parsing a
// multipart form, so header.Open works like it does for live requests.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	_, err = part.Write(content)
	if err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	err = writer.Close()
	if err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("failed to parse multipart form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["files"][0]
}

// Minimal valid magic numbers for content sniffing
var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 64))
	webmBytes = []byte("\x1A\x45\xDF\xA3" + strings.Repeat("\x00", 64))
)

func TestAuthServiceSignIn(t *testing.T) {
	database := newTestDB(t)
	svc := newTestAuthService(t, database, []string{"secretary@club.org"})
	ctx := context.Background()

	t.Run("unknown email creates account", func(t *testing.T) {
		user, err := svc.SignIn(ctx, "newcomer@example.com", "password123")
		if err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if user.ID == "" {
			t.Error("expected created user to have an id")
		}
		if user.IsAdmin {
			t.Error("non-allowlisted email must not become admin")
		}
	})

	t.Run("correct password signs in", func(t *testing.T) {
		user, err := svc.SignIn(ctx, "newcomer@example.com", "password123")
		if err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if user.Email != "newcomer@example.com" {
			t.Errorf("unexpected user: %s", user.Email)
		}
	})

	t.Run("wrong password fails without creating an account", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "newcomer@example.com", "wrong-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}

		// A failed login must never fall through to the sign-up path
		var count int
		err = database.QueryRow(`SELECT COUNT(*) FROM users WHERE email = 'newcomer@example.com'`).Scan(&count)
		if err != nil {
			t.Fatalf("count query failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected exactly 1 account, got %d", count)
		}
	})

	t.Run("short password rejected on sign up", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "another@example.com", "short")
		if !errors.Is(err, ErrWeakPassword) {
			t.Errorf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "not-an-email", "password123")
		if !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("expected ErrInvalidEmail, got %v", err)
		}
	})

	t.Run("allowlisted email becomes admin", func(t *testing.T) {
		user, err := svc.SignIn(ctx, "Secretary@Club.org", "password123")
		if err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if !user.IsAdmin {
			t.Error("allowlisted email must hold the admin role")
		}

		isAdmin, err := svc.IsAdmin(ctx, user.ID)
		if err != nil {
			t.Fatalf("IsAdmin failed: %v", err)
		}
		if !isAdmin {
			t.Error("IsAdmin must report true for the allowlisted account")
		}
	})

	t.Run("empty identity is never admin", func(t *testing.T) {
		isAdmin, err := svc.IsAdmin(ctx, "")
		if err != nil {
			t.Fatalf("IsAdmin failed: %v", err)
		}
		if isAdmin {
			t.Error("empty user id must never be admin")
		}
	})

	t.Run("JWT round trip", func(t *testing.T) {
		user, err := svc.SignIn(ctx, "newcomer@example.com", "password123")
		if err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}

		token, err := svc.GenerateJWT(user)
		if err != nil {
			t.Fatalf("GenerateJWT failed: %v", err)
		}

		claims, err := svc.VerifyJWT(token)
		if err != nil {
			t.Fatalf("VerifyJWT failed: %v", err)
		}
		if claims["user_id"] != user.ID {
			t.Errorf("claims user_id = %v, want %s", claims["user_id"], user.ID)
		}

		_, err = svc.VerifyJWT(token + "tampered")
		if err == nil {
			t.Error("expected tampered token to fail verification")
		}
	})
}

func TestMediaServiceUpload(t *testing.T) {
	database := newTestDB(t)
	bucket := newMemBucket()
	repo := repository.NewMediaRepository(database)
	svc := NewMediaService(repo, bucket)
	ctx := context.Background()

	auth := newTestAuthService(t, database, nil)
	user, err := auth.SignIn(ctx, "uploader@example.com", "password123")
	if err != nil {
		t.Fatalf("failed to create uploader: %v", err)
	}

	t.Run("photos and videos upload with derived kind", func(t *testing.T) {
		files := []*multipart.FileHeader{
			fileHeader(t, "pandal.png", pngBytes),
			fileHeader(t, "aarti.webm", webmBytes),
		}

		err := svc.Upload(ctx, user.ID, 2025, files)
		if err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
		if bucket.len() != 2 {
			t.Errorf("expected 2 stored objects, got %d", bucket.len())
		}

		items, err := svc.ListAdmin(ctx, 2025)
		if err != nil {
			t.Fatalf("ListAdmin failed: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 media rows, got %d", len(items))
		}

		kinds := map[string]bool{}
		for _, item := range items {
			kinds[item.Kind] = true
			if !strings.HasPrefix(item.StoragePath, "media/2025/") {
				t.Errorf("unexpected storage key: %s", item.StoragePath)
			}
			if item.URL == "" {
				t.Error("expected listing to carry a resolved URL")
			}
		}
		if !kinds[model.MediaKindPhoto] || !kinds[model.MediaKindVideo] {
			t.Errorf("expected one photo and one video, got %v", kinds)
		}
	})

	t.Run("partial failure keeps completed uploads", func(t *testing.T) {
		before, err := svc.ListAdmin(ctx, 2024)
		if err != nil {
			t.Fatalf("ListAdmin failed: %v", err)
		}
		if len(before) != 0 {
			t.Fatalf("expected empty year, got %d items", len(before))
		}

		files := []*multipart.FileHeader{
			fileHeader(t, "good1.png", pngBytes),
			fileHeader(t, "notes.txt", []byte("plain text, not media")),
			fileHeader(t, "good2.png", pngBytes),
		}

		err = svc.Upload(ctx, user.ID, 2024, files)
		if err == nil {
			t.Fatal("expected upload of invalid file to report an error")
		}
		if !strings.Contains(err.Error(), "notes.txt") {
			t.Errorf("error should name the failing file, got: %v", err)
		}

		// No rollback: the valid files stay uploaded
		after, err := svc.ListAdmin(ctx, 2024)
		if err != nil {
			t.Fatalf("ListAdmin failed: %v", err)
		}
		if len(after) != 2 {
			t.Errorf("expected the 2 valid files to remain, got %d", len(after))
		}
	})

	t.Run("hidden items are excluded from the public listing", func(t *testing.T) {
		items, err := svc.ListAdmin(ctx, 2025)
		if err != nil {
			t.Fatalf("ListAdmin failed: %v", err)
		}

		err = svc.ToggleVisibility(ctx, items[0].ID)
		if err != nil {
			t.Fatalf("ToggleVisibility failed: %v", err)
		}

		public, err := svc.ListPublic(ctx, 2025)
		if err != nil {
			t.Fatalf("ListPublic failed: %v", err)
		}
		if len(public) != len(items)-1 {
			t.Errorf("expected %d public items, got %d", len(items)-1, len(public))
		}

		admin, err := svc.ListAdmin(ctx, 2025)
		if err != nil {
			t.Fatalf("ListAdmin failed: %v", err)
		}
		if len(admin) != len(items) {
			t.Errorf("admin listing must include hidden items, got %d", len(admin))
		}
	})

	t.Run("toggle on unknown id fails", func(t *testing.T) {
		err := svc.ToggleVisibility(ctx, "missing-id")
		if err == nil {
			t.Error("expected error for unknown media id")
		}
	})
}

func TestExpenseService(t *testing.T) {
	database := newTestDB(t)
	repo := repository.NewExpenseRepository(database)
	svc := NewExpenseService(repo)
	ctx := context.Background()

	auth := newTestAuthService(t, database, nil)
	user, err := auth.SignIn(ctx, "treasurer@example.com", "password123")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	t.Run("valid expense is recorded", func(t *testing.T) {
		expense, err := svc.Add(ctx, user.ID, 2025, "2500.50", "Decoration", "Marigold garlands", "2025-10-01")
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if expense.Amount != 2500.50 {
			t.Errorf("amount = %v, want 2500.50", expense.Amount)
		}
		if expense.Category == nil || *expense.Category != "Decoration" {
			t.Errorf("unexpected category: %v", expense.Category)
		}
	})

	t.Run("blank optional fields stored as null", func(t *testing.T) {
		expense, err := svc.Add(ctx, user.ID, 2025, "10", "  ", "", "2025-10-02")
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if expense.Category != nil {
			t.Errorf("blank category should be nil, got %v", *expense.Category)
		}
		if expense.Description != nil {
			t.Errorf("blank description should be nil, got %v", *expense.Description)
		}
	})

	t.Run("blank date defaults to today", func(t *testing.T) {
		expense, err := svc.Add(ctx, user.ID, 2025, "10", "", "", "")
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if expense.ExpenseDate != time.Now().Format("2006-01-02") {
			t.Errorf("expected today's date, got %s", expense.ExpenseDate)
		}
	})

	t.Run("invalid amount writes nothing", func(t *testing.T) {
		before, err := svc.List(ctx, 2025)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}

		for _, bad := range []string{"-5", "abc", "", "NaN"} {
			_, err := svc.Add(ctx, user.ID, 2025, bad, "", "", "2025-10-03")
			if err == nil {
				t.Errorf("Add(%q) should have failed", bad)
			}
		}

		after, err := svc.List(ctx, 2025)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(after) != len(before) {
			t.Errorf("rejected amounts must not write rows: before %d, after %d", len(before), len(after))
		}
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		_, err := svc.Add(ctx, user.ID, 2025, "10", "", "", "10/01/2025")
		if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("expected ErrInvalidDate, got %v", err)
		}
	})

	t.Run("delete without reason aborts", func(t *testing.T) {
		expenses, err := svc.List(ctx, 2025)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		target := expenses[0]

		err = svc.SoftDelete(ctx, target.ID, "   ")
		if !errors.Is(err, ErrReasonRequired) {
			t.Fatalf("expected ErrReasonRequired, got %v", err)
		}

		// Flag must stay untouched
		refreshed, err := svc.List(ctx, 2025)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for _, e := range refreshed {
			if e.ID == target.ID && e.IsDeleted {
				t.Error("reasonless delete must not flag the row")
			}
		}
	})

	t.Run("delete with reason flags the row and keeps it listed", func(t *testing.T) {
		expenses, err := svc.List(ctx, 2025)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		target := expenses[0]

		err = svc.SoftDelete(ctx, target.ID, "entered twice")
		if err != nil {
			t.Fatalf("SoftDelete failed: %v", err)
		}

		refreshed, err := svc.List(ctx, 2025)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(refreshed) != len(expenses) {
			t.Errorf("soft delete must keep the row listed: before %d, after %d", len(expenses), len(refreshed))
		}
		for _, e := range refreshed {
			if e.ID == target.ID {
				if !e.IsDeleted {
					t.Error("expected the row to be flagged deleted")
				}
				if e.DeleteReason == nil || *e.DeleteReason != "entered twice" {
					t.Errorf("expected reason to be stored, got %v", e.DeleteReason)
				}
			}
		}
	})
}

func TestDonationService(t *testing.T) {
	bucket := newMemBucket()
	svc := NewDonationService(bucket)
	ctx := context.Background()

	t.Run("URL points at the fixed key", func(t *testing.T) {
		if svc.QRURL() != "http://bucket.test/qr.png" {
			t.Errorf("unexpected QR URL: %s", svc.QRURL())
		}
	})

	t.Run("upload replaces the previous QR", func(t *testing.T) {
		err := svc.UploadQR(ctx, fileHeader(t, "qr-v1.png", pngBytes))
		if err != nil {
			t.Fatalf("first UploadQR failed: %v", err)
		}

		err = svc.UploadQR(ctx, fileHeader(t, "qr-v2.png", pngBytes))
		if err != nil {
			t.Fatalf("second UploadQR failed: %v", err)
		}

		if bucket.len() != 1 {
			t.Errorf("expected a single QR object, got %d", bucket.len())
		}
	})

	t.Run("non-image rejected", func(t *testing.T) {
		err := svc.UploadQR(ctx, fileHeader(t, "qr.webm", webmBytes))
		if err == nil {
			t.Error("expected video upload to be rejected for the QR slot")
		}
	})
}
