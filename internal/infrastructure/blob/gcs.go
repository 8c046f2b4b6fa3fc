package blob

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// GCSLogoStore stores team logos in a Google Cloud Storage bucket under
// generated unique object names.
type GCSLogoStore struct {
	Client *storage.Client
	Bucket string
}

func NewGCSLogoStore(client *storage.Client, bucket string) *GCSLogoStore {
	return &GCSLogoStore{Client: client, Bucket: bucket}
}

// Upload writes the logo bytes to the bucket and returns its public URL.
// The object name embeds a fresh UUID so concurrent uploads never collide.
func (s *GCSLogoStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if s.Client == nil || s.Bucket == "" {
		return "", fmt.Errorf("blob store not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := "team-logos/" + uuid.NewString() + ext

	wc := s.Client.Bucket(s.Bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // small files, skip chunking
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.Bucket, objectPath), nil
}

// Delete removes a previously uploaded logo given its public URL. URLs
// that do not point into this bucket are ignored.
func (s *GCSLogoStore) Delete(ctx context.Context, url string) error {
	if s.Client == nil || s.Bucket == "" {
		return nil
	}
	prefix := fmt.Sprintf("https://storage.googleapis.com/%s/", s.Bucket)
	objectPath, ok := strings.CutPrefix(url, prefix)
	if !ok || objectPath == "" {
		return nil
	}
	return s.Client.Bucket(s.Bucket).Object(objectPath).Delete(ctx)
}
