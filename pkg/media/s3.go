// Package media uploads admin images (service photos, testimonial avatars)
// to an S3-compatible bucket.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxUploadBytes caps a single upload.
const MaxUploadBytes = 5 << 20

var (
	// ErrUnsupportedType is returned for anything but the accepted image types.
	ErrUnsupportedType = errors.New("unsupported media type")

	// ErrDisabled is returned when no bucket is configured.
	ErrDisabled = errors.New("media uploads are not configured")
)

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// putter is the subset of the S3 client the uploader needs.
type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores objects under a date-based key and returns their public URL.
type Uploader struct {
	client    putter
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Uploader creates an uploader. If endpoint is non-empty, path-style
// addressing is enabled (for MinIO and similar). publicURL is the base URL
// objects are served from; it defaults to the virtual-hosted S3 URL.
func NewS3Uploader(ctx context.Context, bucket, region, endpoint, publicURL string) (*Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	if publicURL == "" {
		if endpoint != "" {
			publicURL = strings.TrimRight(endpoint, "/") + "/" + bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
		}
	}
	return newUploader(s3.NewFromConfig(cfg, s3opts...), bucket, publicURL), nil
}

func newUploader(client putter, bucket, publicURL string) *Uploader {
	return &Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// Upload writes body under folder and returns the object's public URL.
func (u *Uploader) Upload(ctx context.Context, folder, contentType string, body io.Reader) (string, error) {
	if u == nil {
		return "", ErrDisabled
	}
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	key := path.Join(folder, u.now().UTC().Format("2006/01"), uuid.NewString()+ext)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return u.publicURL + "/" + key, nil
}
