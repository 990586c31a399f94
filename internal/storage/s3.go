package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	cfg "github.com/sarbojanin/clubsite/internal/config"
)

// ErrObjectExists is returned by Save when overwrite is disabled and an
// object already occupies the key.
var ErrObjectExists = errors.New("object already exists at this path")

// Bucket is one object-storage namespace. The site uses two: the media
// bucket for gallery uploads and the donations bucket for the QR image.
type Bucket interface {
	// Save stores an object at the given key. With overwrite false the
	// write is rejected if the key is already taken.
	Save(ctx context.Context, key string, body io.Reader, contentType string, overwrite bool) error

	// Delete removes the object at the given key
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for the object. Buckets are public-read,
	// so the URL is deterministic: no signing, no expiry.
	URL(key string) string
}

// Client wraps an S3-compatible endpoint and hands out Buckets.
// Works with AWS S3, MinIO, DigitalOcean Spaces, Cloudflare R2, etc.
type Client struct {
	s3       *s3.Client
	region   string
	endpoint string
}

// S3Config holds connection settings for an S3-compatible service
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // Optional: for S3-compatible services
}

// New creates a storage client from app config.
// For development: use MinIO. For production: any S3-compatible provider.
func New(c *cfg.Config) (*Client, error) {
	slog.Info("initializing S3 storage",
		"region", c.S3Region,
		"endpoint", c.S3Endpoint,
	)
	return NewClient(S3Config{
		Region:    c.S3Region,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Endpoint:  c.S3Endpoint,
	})
}

// NewClient creates a new storage client
func NewClient(cfg S3Config) (*Client, error) {
	ctx := context.Background()

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))

	// Add static credentials if provided
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Create S3 client with optional custom endpoint
	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO and some S3-compatible services
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &Client{
		s3:       client,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
	}, nil
}

// Bucket returns a handle for the named bucket, creating it if it does not
// exist yet.
func (c *Client) Bucket(ctx context.Context, name string) (Bucket, error) {
	b := &s3Bucket{
		client:    c.s3,
		name:      name,
		publicURL: c.publicURL(name),
	}

	err := b.ensure(ctx)
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (c *Client) publicURL(bucket string) string {
	if c.endpoint == "" {
		// Standard AWS S3 URL
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, c.region)
	}
	// Custom endpoint (MinIO, DO Spaces, etc.)
	return strings.TrimSuffix(c.endpoint, "/") + "/" + bucket
}

type s3Bucket struct {
	client    *s3.Client
	name      string
	publicURL string
}

// ensure checks if the bucket exists, creates it if not
func (b *s3Bucket) ensure(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.name),
	})
	if err == nil {
		return nil // Bucket exists
	}

	_, err = b.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(b.name),
	})
	if err != nil {
		return fmt.Errorf("bucket %q does not exist and could not be created: %w", b.name, err)
	}

	slog.Info("created S3 bucket", "bucket", b.name)
	return nil
}

func (b *s3Bucket) Save(ctx context.Context, key string, body io.Reader, contentType string, overwrite bool) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if !overwrite {
		// Conditional write: rejected with 412 if the key is taken
		input.IfNoneMatch = aws.String("*")
	}

	_, err := b.client.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("%w: %s", ErrObjectExists, key)
		}
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

func (b *s3Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

func (b *s3Bucket) URL(key string) string {
	return fmt.Sprintf("%s/%s", b.publicURL, key)
}

// isPreconditionFailed detects the S3 rejection of a conditional PUT
// (If-None-Match against an occupied key).
func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "PreconditionFailed"
	}
	return false
}
