package imageservice

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

const (
	// MaxImageSize caps a single upload at 10 MB.
	MaxImageSize = 10 << 20
)

type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

type Image struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
}

type ImageService struct {
	store     ObjectStore
	bucket    string
	publicURL string
}
