package helpers

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
)

// KeySource reads PEM key material from local paths or gs:// URLs.
// The storage client is created on first gs:// read.
type KeySource struct {
	CredentialsPath string

	client *storage.Client
}

func (s *KeySource) Read(ctx context.Context, path string) ([]byte, error) {
	if !IsGCSURL(path) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read key %s: %w", path, err)
		}
		return b, nil
	}
	bucket, object, err := SplitGCSURL(path)
	if err != nil {
		return nil, err
	}
	if s.client == nil {
		c, err := NewGCSClient(ctx, s.CredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		s.client = c
	}
	b, err := ReadObject(ctx, s.client, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", path, err)
	}
	return b, nil
}

// Close releases the storage client if one was opened.
func (s *KeySource) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// LoadKeyPair reads the private and public PEM blocks used for token signing.
func LoadKeyPair(ctx context.Context, src *KeySource, privatePath, publicPath string) (priv, pub []byte, err error) {
	priv, err = src.Read(ctx, privatePath)
	if err != nil {
		return nil, nil, err
	}
	pub, err = src.Read(ctx, publicPath)
	if err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}
