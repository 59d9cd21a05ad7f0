package imageservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrImageTooLarge     = errors.New("image exceeds the maximum allowed size")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// NewImageService connects to the object store and makes sure the bucket
// exists. publicURL is the externally reachable base under which uploaded
// objects can be fetched, e.g. http://localhost:9000.
func NewImageService(ctx context.Context, endpoint, accessKey, secretKey, bucket, publicURL string, useSSL bool) (*ImageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("could not check bucket: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("could not create bucket: %w", err)
		}
	}

	return &ImageService{
		store:     client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// UploadImage stores the image and returns its object key and public URL.
// The key embeds the owner id so a user's uploads can be listed and cleaned
// up together.
func (s *ImageService) UploadImage(ctx context.Context, ownerID int, filename string, r io.Reader, size int64) (*Image, error) {
	if size > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, ErrUnsupportedFormat
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectKey := fmt.Sprintf("%d/%d-%s", ownerID, time.Now().Unix(), sanitizeFilename(filename))

	_, err := s.store.PutObject(ctx, s.bucket, objectKey, r, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"original-filename": filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not upload image: %w", err)
	}

	return &Image{
		ObjectKey: objectKey,
		URL:       fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectKey),
	}, nil
}

// DeleteImage removes a stored object. Only the owner's keys should be
// passed here; the caller is responsible for that check.
func (s *ImageService) DeleteImage(ctx context.Context, objectKey string) error {
	err := s.store.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("could not delete image: %w", err)
	}

	return nil
}

// sanitizeFilename keeps letters, digits, dots, hyphens and underscores and
// replaces everything else with a hyphen, so the key is URL safe.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	return b.String()
}
