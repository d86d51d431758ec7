// Package storage puts product images into S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"storefront/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxUploadSize is the largest accepted image, in bytes.
const MaxUploadSize = 10 << 20

// ObjectPutter is the subset of the S3 client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Upload is a stored object.
type Upload struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Uploader stores images. It is disabled when constructed with a nil client.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (*Upload, error)
}

type s3Uploader struct {
	client        ObjectPutter
	bucket        string
	prefix        string
	publicBaseURL string
	logger        zerolog.Logger
}

// NewS3Uploader creates an uploader writing under prefix in bucket. URLs are
// built from publicBaseURL, or the bucket's virtual-hosted endpoint when empty.
func NewS3Uploader(client ObjectPutter, bucket, region, prefix, publicBaseURL string, logger zerolog.Logger) Uploader {
	if publicBaseURL == "" && bucket != "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &s3Uploader{
		client:        client,
		bucket:        bucket,
		prefix:        strings.Trim(prefix, "/"),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger.With().Str("component", "s3-uploader").Logger(),
	}
}

func (u *s3Uploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (*Upload, error) {
	if u.client == nil {
		return nil, model.ErrStorageDisabled
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, model.NewValidationError("only image uploads are accepted")
	}

	key := path.Join(u.prefix, uuid.NewString()+extensionFor(filename, mediaType))

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(mediaType),
	})
	if err != nil {
		u.logger.Error().
			Err(err).
			Str("bucket", u.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return nil, fmt.Errorf("failed to upload object (bucket=%s, key=%s): %w", u.bucket, key, err)
	}

	u.logger.Info().
		Str("bucket", u.bucket).
		Str("key", key).
		Msg("image uploaded")

	return &Upload{URL: u.publicBaseURL + "/" + key, Key: key}, nil
}

func extensionFor(filename, mediaType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" && len(ext) <= 5 {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
