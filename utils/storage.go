package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const (
	StorageProviderGCS = "gcs"
)

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderGCS
	}
	return provider
}

// ObjectStore is the blob storage used for receipts.
type ObjectStore interface {
	Put(ctx context.Context, objectKey string, data []byte, contentType string) error
	Get(ctx context.Context, objectKey string, limit int64) ([]byte, error)
	Delete(ctx context.Context, objectKey string) error
}

// GCSStore stores objects in GCS_BUCKET.
type GCSStore struct {
	Bucket string
}

func NewGCSStore() (*GCSStore, error) {
	if GetStorageProvider() != StorageProviderGCS {
		return nil, fmt.Errorf("storage provider %q is not supported", GetStorageProvider())
	}
	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	return &GCSStore{Bucket: bucket}, nil
}

// Prefers ADC; GCS_CREDENTIALS_JSON overrides it for local runs.
func getGCSClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func (s *GCSStore) Put(ctx context.Context, objectKey string, data []byte, contentType string) error {
	client, err := getGCSClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wc := client.Bucket(s.Bucket).Object(objectKey).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, objectKey string, limit int64) ([]byte, error) {
	client, err := getGCSClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	reader, err := client.Bucket(s.Bucket).Object(objectKey).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(io.LimitReader(reader, limit))
}

func (s *GCSStore) Delete(ctx context.Context, objectKey string) error {
	client, err := getGCSClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.Bucket(s.Bucket).Object(objectKey).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func BuildObjectAccessURL(objectKey string) string {
	base := strings.TrimSpace(os.Getenv("STORAGE_PUBLIC_BASE_URL"))
	if base != "" {
		return strings.TrimRight(base, "/") + "/" + objectKey
	}
	if bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET")); bucket != "" {
		return "https://storage.googleapis.com/" + bucket + "/" + objectKey
	}
	return objectKey
}

// ExtractObjectKeyFromURL reverses BuildObjectAccessURL. Returns "" for foreign URLs.
func ExtractObjectKeyFromURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.Contains(rawURL, "..") {
		return ""
	}
	prefixes := []string{}
	if base := strings.TrimSpace(os.Getenv("STORAGE_PUBLIC_BASE_URL")); base != "" {
		prefixes = append(prefixes, strings.TrimRight(base, "/")+"/")
	}
	if bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET")); bucket != "" {
		prefixes = append(prefixes, "https://storage.googleapis.com/"+bucket+"/")
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(rawURL, prefix) {
			return strings.TrimPrefix(rawURL, prefix)
		}
	}
	if !strings.Contains(rawURL, "://") && !strings.HasPrefix(rawURL, "/") {
		return rawURL
	}
	return ""
}
