package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/sarbojanin/clubsite/internal/storage"
	"github.com/sarbojanin/clubsite/internal/validation"
)

// qrKey is the single fixed object key for the donation QR image. Uploads
// overwrite in place, so only the latest QR is ever visible.
const qrKey = "qr.png"

// DonationService manages the donation QR image in the donations bucket.
type DonationService struct {
	bucket storage.Bucket
}

func NewDonationService(bucket storage.Bucket) *DonationService {
	return &DonationService{
		bucket: bucket,
	}
}

// UploadQR replaces the donation QR image with the given file.
func (s *DonationService) UploadQR(ctx context.Context, header *multipart.FileHeader) error {
	detectedType, err := validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		return err
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	err = s.bucket.Save(ctx, qrKey, file, detectedType, true)
	if err != nil {
		return fmt.Errorf("failed to upload QR: %w", err)
	}

	return nil
}

// QRURL resolves the public URL of the current QR image.
func (s *DonationService) QRURL() string {
	return s.bucket.URL(qrKey)
}
