package model

import (
	"time"
)

const (
	MediaKindPhoto = "photo"
	MediaKindVideo = "video"
)

// MediaItem is one uploaded gallery photo or video. Items are never deleted
// through the site; the Visible flag controls public listing inclusion.
type MediaItem struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Year        int       `db:"year"`
	Kind        string    `db:"kind"`
	StoragePath string    `db:"storage_path"`
	Visible     bool      `db:"visible"`
	CreatedAt   time.Time `db:"created_at"`

	// Computed fields (not in database)
	URL string `db:"-"`
}
