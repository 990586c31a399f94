package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sarbojanin/clubsite/internal/model"
	"github.com/sarbojanin/clubsite/internal/repository"
	"github.com/sarbojanin/clubsite/internal/storage"
	"github.com/sarbojanin/clubsite/internal/validation"
	"golang.org/x/sync/errgroup"
)

// MediaService handles gallery uploads and listings. Files live in the media
// bucket under collision-resistant keys; metadata rows live in the media table.
type MediaService struct {
	mediaRepository repository.MediaRepository
	bucket          storage.Bucket
}

func NewMediaService(mediaRepository repository.MediaRepository, bucket storage.Bucket) *MediaService {
	return &MediaService{
		mediaRepository: mediaRepository,
		bucket:          bucket,
	}
}

// ListAdmin returns every item for the year, hidden ones included, newest first.
func (s *MediaService) ListAdmin(ctx context.Context, year int) ([]*model.MediaItem, error) {
	items, err := s.mediaRepository.ByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	s.fillURLs(items)
	return items, nil
}

// ListPublic returns only visible items for the year, newest first.
func (s *MediaService) ListPublic(ctx context.Context, year int) ([]*model.MediaItem, error) {
	items, err := s.mediaRepository.VisibleByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	s.fillURLs(items)
	return items, nil
}

// Upload stores each file in the media bucket and records a metadata row.
// Files are processed concurrently; the call waits for all of them and
// returns the first failure. Files that already completed stay in place:
// there is no rollback, and the next listing shows the partial result.
func (s *MediaService) Upload(ctx context.Context, userID string, year int, files []*multipart.FileHeader) error {
	g := new(errgroup.Group)

	for _, header := range files {
		g.Go(func() error {
			return s.uploadOne(ctx, userID, year, header)
		})
	}

	return g.Wait()
}

func (s *MediaService) uploadOne(ctx context.Context, userID string, year int, header *multipart.FileHeader) error {
	detectedType, err := validation.ValidateFile(header, validation.ImageConstraints, validation.VideoConstraints)
	if err != nil {
		return fmt.Errorf("%s: %w", header.Filename, err)
	}

	kind := model.MediaKindPhoto
	if strings.HasPrefix(detectedType, "video/") {
		kind = model.MediaKindVideo
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", header.Filename, err)
	}
	defer func() { _ = file.Close() }()

	// Key derived from a generated id, not timestamp+filename, so two
	// uploads can never collide. The non-overwrite PUT is kept as a belt.
	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := fmt.Sprintf("media/%d/%s%s", year, uuid.New().String(), ext)

	err = s.bucket.Save(ctx, key, file, detectedType, false)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", header.Filename, err)
	}

	item := &model.MediaItem{
		ID:          uuid.New().String(),
		UserID:      userID,
		Year:        year,
		Kind:        kind,
		StoragePath: key,
		Visible:     true,
		CreatedAt:   time.Now(),
	}

	err = s.mediaRepository.Create(ctx, item)
	if err != nil {
		// If the row insert fails, try to clean up the orphaned object
		delErr := s.bucket.Delete(ctx, key)
		if delErr != nil {
			slog.Error("failed to delete object during cleanup", "error", delErr, "key", key)
		}
		return fmt.Errorf("failed to record %s: %w", header.Filename, err)
	}

	return nil
}

// ToggleVisibility flips the public-listing flag for one item. The flag
// changes only on confirmed success; a failed update leaves it untouched.
func (s *MediaService) ToggleVisibility(ctx context.Context, id string) error {
	err := s.mediaRepository.ToggleVisibility(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to toggle visibility: %w", err)
	}
	return nil
}

// DisplayURL resolves the public URL for a stored object. The media bucket
// is public-read, so the URL is deterministic with no signing or expiry.
func (s *MediaService) DisplayURL(storagePath string) string {
	return s.bucket.URL(storagePath)
}

func (s *MediaService) fillURLs(items []*model.MediaItem) {
	for _, item := range items {
		item.URL = s.bucket.URL(item.StoragePath)
	}
}
