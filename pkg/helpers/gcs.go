package helpers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// IsGCSURL reports whether path points at a gs://bucket/object location.
func IsGCSURL(path string) bool {
	return strings.HasPrefix(path, gcsScheme)
}

// SplitGCSURL splits gs://bucket/object into its bucket and object parts.
func SplitGCSURL(url string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(url, gcsScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("gcs: malformed url %q", url)
	}
	return bucket, object, nil
}

// ReadObject downloads bucket/objectPath fully into memory.
func ReadObject(ctx context.Context, client *storage.Client, bucket, objectPath string) ([]byte, error) {
	rc, err := client.Bucket(bucket).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
