package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sarbojanin/clubsite/internal/model"
)

var (
	ErrMediaNotFound = errors.New("media item not found")
)

type MediaRepository interface {
	Create(ctx context.Context, item *model.MediaItem) error
	ByYear(ctx context.Context, year int) ([]*model.MediaItem, error)
	VisibleByYear(ctx context.Context, year int) ([]*model.MediaItem, error)
	ToggleVisibility(ctx context.Context, id string) error
}

type mediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, item *model.MediaItem) error {
	query := `INSERT INTO media (id, user_id, year, kind, storage_path, visible, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.UserID,
		item.Year,
		item.Kind,
		item.StoragePath,
		item.Visible,
		item.CreatedAt,
	)

	return err
}

// ByYear returns all items for the year, newest first, regardless of visibility.
func (r *mediaRepository) ByYear(ctx context.Context, year int) ([]*model.MediaItem, error) {
	var items []*model.MediaItem
	query := `SELECT * FROM media WHERE year = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &items, query, year)
	if err != nil {
		return nil, err
	}

	return items, nil
}

// VisibleByYear returns only publicly visible items for the year, newest first.
func (r *mediaRepository) VisibleByYear(ctx context.Context, year int) ([]*model.MediaItem, error) {
	var items []*model.MediaItem
	query := `SELECT * FROM media WHERE year = $1 AND visible = TRUE ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &items, query, year)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *mediaRepository) ToggleVisibility(ctx context.Context, id string) error {
	query := `UPDATE media SET visible = NOT visible WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrMediaNotFound
	}

	return nil
}
