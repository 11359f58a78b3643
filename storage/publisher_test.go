package storage

import (
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	bucket      string
	key         string
	contentType string
	size        int64
	err         error
}

func (f *fakePutter) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.bucket = bucketName
	f.key = objectName
	f.contentType = opts.ContentType
	f.size = objectSize
	return minio.UploadInfo{}, f.err
}

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey(KindAudio, "proj123", "deadbeefcafe0123")
	require.NoError(t, err)
	assert.Equal(t, "audio/proj123-deadbeefcafe0123.mp3", key)

	key, err = ObjectKey(KindVideo, "proj123", "deadbeefcafe0123")
	require.NoError(t, err)
	assert.Equal(t, "video/proj123-deadbeefcafe0123.mp4", key)
}

func TestObjectKeySanitizes(t *testing.T) {
	key, err := ObjectKey(KindAudio, "a/b\\c d!", "tok..en")
	require.NoError(t, err)
	assert.Equal(t, "audio/abcd-token.mp3", key)
}

func TestObjectKeyRejectsEmptyComponents(t *testing.T) {
	_, err := ObjectKey(KindAudio, "!!!", "token")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = ObjectKey(KindVideo, "proj", "///")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestPublish(t *testing.T) {
	putter := &fakePutter{}
	p := NewPublisher(putter, "artifacts", "https://cdn.example.com/")

	url, err := p.Publish(context.Background(), KindAudio, "proj1", "tok1", []byte("audio-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/artifacts/audio/proj1-tok1.mp3", url)
	assert.Equal(t, "artifacts", putter.bucket)
	assert.Equal(t, "audio/proj1-tok1.mp3", putter.key)
	assert.Equal(t, "audio/mpeg", putter.contentType)
	assert.Equal(t, int64(len("audio-bytes")), putter.size)
}

func TestPublishVideoContentType(t *testing.T) {
	putter := &fakePutter{}
	p := NewPublisher(putter, "artifacts", "https://cdn.example.com")

	_, err := p.Publish(context.Background(), KindVideo, "proj1", "tok1", []byte("video"))
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", putter.contentType)
}

func TestPublishEmptyBuffer(t *testing.T) {
	p := NewPublisher(&fakePutter{}, "artifacts", "https://cdn.example.com")

	_, err := p.Publish(context.Background(), KindAudio, "proj1", "tok1", nil)
	assert.ErrorIs(t, err, ErrEmptyBuffer)
}

func TestPublishUploadFailure(t *testing.T) {
	putter := &fakePutter{err: assert.AnError}
	p := NewPublisher(putter, "artifacts", "https://cdn.example.com")

	_, err := p.Publish(context.Background(), KindVideo, "proj1", "tok1", []byte("video"))
	assert.ErrorIs(t, err, assert.AnError)
}
