package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"musewave/logger"

	"github.com/minio/minio-go/v7"
)

var (
	// ErrInvalidKey means a key component sanitized down to nothing.
	ErrInvalidKey = errors.New("storage key component is empty after sanitization")
	// ErrEmptyBuffer means there is no artifact data to upload.
	ErrEmptyBuffer = errors.New("artifact buffer is empty")
)

// ArtifactKind selects the key prefix, extension and content type of an upload.
type ArtifactKind string

const (
	KindAudio ArtifactKind = "audio"
	KindVideo ArtifactKind = "video"
)

func (k ArtifactKind) ext() string {
	if k == KindVideo {
		return "mp4"
	}
	return "mp3"
}

func (k ArtifactKind) contentType() string {
	if k == KindVideo {
		return "video/mp4"
	}
	return "audio/mpeg"
}

// objectPutter is the slice of the MinIO client the publisher needs.
// *minio.Client satisfies it.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads finished artifacts under collision-resistant keys and
// returns their public URLs. Transient storage failures are not retried here;
// they propagate to the orchestrator.
type Publisher struct {
	client        objectPutter
	bucket        string
	publicBaseURL string
}

// NewPublisher creates an artifact publisher.
func NewPublisher(client objectPutter, bucket, publicBaseURL string) *Publisher {
	return &Publisher{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

var keyCharPattern = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// sanitizeKeyPart strips everything outside [A-Za-z0-9_-].
func sanitizeKeyPart(s string) string {
	return keyCharPattern.ReplaceAllString(s, "")
}

// ObjectKey builds the deterministic storage key for an artifact.
// Exposed so callers can reason about traceability of uploaded blobs.
func ObjectKey(kind ArtifactKind, projectID, entropyToken string) (string, error) {
	project := sanitizeKeyPart(projectID)
	entropy := sanitizeKeyPart(entropyToken)
	if project == "" || entropy == "" {
		return "", fmt.Errorf("project %q entropy %q: %w", projectID, entropyToken, ErrInvalidKey)
	}
	return fmt.Sprintf("%s/%s-%s.%s", kind, project, entropy, kind.ext()), nil
}

// Publish uploads one artifact buffer and returns its public URL.
func (p *Publisher) Publish(ctx context.Context, kind ArtifactKind, projectID, entropyToken string, buf []byte) (string, error) {
	if len(buf) == 0 {
		return "", fmt.Errorf("publish %s for project %s: %w", kind, projectID, ErrEmptyBuffer)
	}

	key, err := ObjectKey(kind, projectID, entropyToken)
	if err != nil {
		return "", err
	}

	putCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	opts := minio.PutObjectOptions{
		ContentType: kind.contentType(),
	}

	_, err = p.client.PutObject(putCtx, p.bucket, key, bytes.NewReader(buf), int64(len(buf)), opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s artifact %s: %w", kind, key, err)
	}

	url := fmt.Sprintf("%s/%s/%s", p.publicBaseURL, p.bucket, key)
	logger.Info("Artifact published",
		logger.String("kind", string(kind)),
		logger.String("key", key),
		logger.Int("size", len(buf)))
	return url, nil
}
