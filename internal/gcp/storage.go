package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SaveToGCSAtomically writes data to a GCS object only if it doesn't already exist.
// An existing object is not an error; the write is simply skipped.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, data []byte, contentType string) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write.", "object", objectName)
			return nil
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write.", "object", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 412
}

// AssetBucket stores generated images and brochures and hands out their public URLs.
type AssetBucket struct {
	bucket  *storage.BucketHandle
	name    string
	baseURL string
}

// NewAssetBucket wraps bucketName. baseURL defaults to the public storage.googleapis.com
// endpoint for the bucket.
func NewAssetBucket(client *storage.Client, bucketName, baseURL string) *AssetBucket {
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucketName
	}
	return &AssetBucket{
		bucket:  client.Bucket(bucketName),
		name:    bucketName,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload writes the object once and returns its public URL. Object names carry a
// timestamp, so an existing object is the same asset written by an earlier attempt.
func (b *AssetBucket) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	if err := SaveToGCSAtomically(ctx, b.bucket, objectName, data, contentType); err != nil {
		slog.Error("Failed to upload asset.", "bucket", b.name, "object", objectName, "error", err)
		return "", err
	}
	return b.PublicURL(objectName), nil
}

// Replace overwrites the object unconditionally. Used for artifacts with a fixed name.
func (b *AssetBucket) Replace(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	writer := b.bucket.Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "no-cache"

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write gs://%s/%s: %w", b.name, objectName, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize gs://%s/%s: %w", b.name, objectName, err)
	}
	return b.PublicURL(objectName), nil
}

func (b *AssetBucket) PublicURL(objectName string) string {
	segments := strings.Split(objectName, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return b.baseURL + "/" + strings.Join(segments, "/")
}
