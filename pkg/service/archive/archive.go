package archive

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/googleapi"
)

// Service stores raw meeting payloads
type Service interface {
	// Put stores payload under recordingID and returns its URL. Storing the same recording twice keeps the first object.
	Put(ctx context.Context, recordingID string, payload []byte) (string, error)
}

// GCS archives payloads in a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

type Option func(*GCS)

// WithPrefix places every object under prefix
func WithPrefix(prefix string) Option {
	return func(a *GCS) {
		a.prefix = strings.Trim(prefix, "/")
	}
}

// NewGCS creates an archive on a Cloud Storage bucket
func NewGCS(ctx context.Context, bucket string, opts ...Option) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("archive bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	a := &GCS{client: client, bucket: bucket}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *GCS) Put(ctx context.Context, recordingID string, payload []byte) (string, error) {
	name := ObjectName(a.prefix, recordingID)
	obj := a.client.Bucket(a.bucket).Object(name).If(storage.Conditions{DoesNotExist: true})

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{"recording_id": recordingID}

	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write archive object", goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			return a.url(name), nil
		}
		return "", goerr.Wrap(err, "failed to close archive object", goerr.V("object", name))
	}
	return a.url(name), nil
}

func (a *GCS) url(name string) string {
	return "gs://" + a.bucket + "/" + name
}

func (a *GCS) Close() error {
	return a.client.Close()
}

// ObjectName builds the object path of a recording
func ObjectName(prefix, recordingID string) string {
	return path.Join(prefix, "fathom", url.PathEscape(recordingID)+".json")
}

func isPreconditionFailed(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == http.StatusPreconditionFailed
}
