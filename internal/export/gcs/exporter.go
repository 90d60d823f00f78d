// Package gcs exports reports as JSON objects in a Cloud Storage bucket.
package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/profit-tracker/internal/report"
)

// ObjectWriter opens a writer for bucket/object. It is satisfied by the
// storage-backed implementation below and by test fakes.
type ObjectWriter interface {
	NewWriter(ctx context.Context, bucket, object, contentType string) (io.WriteCloser, error)
}

// ObjectReader downloads the object at a gs:// URI.
type ObjectReader interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Exporter uploads reports to gs://<bucket>/reports/<user>/<yyyy-mm>/<id>.json.
type Exporter struct {
	bucket   string
	w        ObjectWriter
	readBack ObjectReader
}

// NewExporter creates an exporter writing into bucket through w.
func NewExporter(bucket string, w ObjectWriter) *Exporter {
	return &Exporter{bucket: bucket, w: w}
}

// WithReadBack makes Export download every uploaded object through r and
// check it decodes to the report that was written.
func (e *Exporter) WithReadBack(r ObjectReader) *Exporter {
	e.readBack = r
	return e
}

// ObjectName returns the object path a report is stored under.
func ObjectName(r *report.Report) string {
	return path.Join("reports", r.UserID, r.Month(), r.ID+".json")
}

// Export implements report.Exporter.
func (e *Exporter) Export(ctx context.Context, r *report.Report) (string, error) {
	var buf bytes.Buffer
	if err := report.Encode(&buf, r); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	object := ObjectName(r)
	w, err := e.w.NewWriter(ctx, e.bucket, object, "application/json")
	if err != nil {
		return "", fmt.Errorf("Export: opening writer: %w", err)
	}

	if _, err := io.Copy(w, &buf); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Export: copy report to GCS writer: %w", err)
	}

	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Export: finalize upload: %w", err)
	}

	uri := fmt.Sprintf("gs://%s/%s", e.bucket, object)
	if e.readBack != nil {
		if err := Verify(ctx, e.readBack, uri, r); err != nil {
			return "", err
		}
	}
	return uri, nil
}

// Verify fetches uri and checks it holds want.
func Verify(ctx context.Context, rd ObjectReader, uri string, want *report.Report) error {
	data, err := rd.Fetch(ctx, uri)
	if err != nil {
		return fmt.Errorf("Verify: %w", err)
	}

	var got report.Report
	if err := json.Unmarshal(data, &got); err != nil {
		return fmt.Errorf("Verify: decoding %s: %w", uri, err)
	}
	if got.ID != want.ID || got.UserID != want.UserID || got.Month() != want.Month() {
		return fmt.Errorf("Verify: %s holds report %s for %s %s, want %s for %s %s",
			uri, got.ID, got.UserID, got.Month(), want.ID, want.UserID, want.Month())
	}
	return nil
}

// ParseURI splits gs://bucket/path/to/object into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// StorageWriter is the ObjectWriter and ObjectReader backed by a Cloud
// Storage client.
// It assumes Application Default Credentials are configured.
type StorageWriter struct {
	client *storage.Client
}

// NewStorageWriter creates a storage client.
func NewStorageWriter(ctx context.Context) (*StorageWriter, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &StorageWriter{client: client}, nil
}

func (s *StorageWriter) NewWriter(ctx context.Context, bucket, object, contentType string) (io.WriteCloser, error) {
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	return w, nil
}

// Fetch downloads the object at a gs:// URI.
func (s *StorageWriter) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}

func (s *StorageWriter) Close() error {
	return s.client.Close()
}
