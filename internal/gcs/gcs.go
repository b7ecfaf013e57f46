// Package gcs fetches statement PDFs stored in Google Cloud Storage.
// Only the entry points touch it; the core works on local files and
// in-memory documents.
package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// Fetch downloads the object bytes for a "gs://bucket/path" URI. It assumes
// Application Default Credentials are configured.
func Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucket, object, err := splitURI(gcsURI)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: open object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("gcs: read object %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// Filename returns the object's base filename for a GCS URI.
// e.g. "gs://bucket/folder/file.pdf" → "file.pdf"
func Filename(uri string) string {
	_, object, err := splitURI(uri)
	if err != nil {
		return uri
	}
	return path.Base(object)
}

func splitURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("gcs: invalid URI %q", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("gcs: URI %q has no object path", uri)
	}
	return parts[0], parts[1], nil
}
