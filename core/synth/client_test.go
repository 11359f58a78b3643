package synth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, maxAttempts int) *Client {
	c := NewClient(&Config{APIURL: url, MaxAttempts: maxAttempts})
	c.policy.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func TestSynthesizeSuccess(t *testing.T) {
	var gotBody inferenceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte("fake-mp3-bytes"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	c.config.APIKey = "secret"

	audio, err := c.Synthesize(context.Background(), "dreamy synthwave", 45)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-mp3-bytes"), audio)
	assert.Equal(t, "dreamy synthwave", gotBody.Inputs)
	assert.Equal(t, 45, gotBody.Parameters.Duration)
}

func TestSynthesizeRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 6)

	audio, err := c.Synthesize(context.Background(), "prompt", 30)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), audio)
	assert.Equal(t, 3, calls)
}

func TestSynthesizeExhaustsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 4)

	_, err := c.Synthesize(context.Background(), "prompt", 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 4, calls)
}

func TestSynthesizeRejectedNoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad prompt", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 6)

	_, err := c.Synthesize(context.Background(), "prompt", 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderRejected)
	assert.Equal(t, 1, calls)
}

func TestSynthesizeEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)

	_, err := c.Synthesize(context.Background(), "prompt", 30)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSynthesizeEmptyPrompt(t *testing.T) {
	c := newTestClient("http://unused", 3)

	_, err := c.Synthesize(context.Background(), "   ", 30)
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestSynthesizeRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)

	_, err := c.Synthesize(context.Background(), "prompt", 30)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 3, calls)
}
