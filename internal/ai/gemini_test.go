package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestGemini_GenerateStructured(t *testing.T) {
	var path, key string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		path, key = r.URL.Path, r.Header.Get("x-goog-api-key")
		_, _ = io.Copy(io.Discard, r.Body)
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"notes\":[]}"}]}}]}`), nil
	})

	g, err := newGemini(context.Background(), "test-key", "", nil, base)
	require.NoError(t, err)
	defer g.Close()

	out, err := g.GenerateStructured(context.Background(), Request{Schema: ExtractionSchema, Prompt: "extract"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"notes":[]}`, string(out))
	assert.Equal(t, "test-key", key)
	assert.True(t, strings.HasSuffix(path, defaultGeminiModel+":generateContent"), path)
}

func TestGemini_NoRetryOnUnavailable(t *testing.T) {
	var calls atomic.Int32
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(http.StatusServiceUnavailable, `{"error":{"code":503,"message":"overloaded"}}`), nil
	})

	g, err := newGemini(context.Background(), "test-key", "", nil, base)
	require.NoError(t, err)
	defer g.Close()

	_, err = g.GenerateStructured(context.Background(), Request{Schema: ExtractionSchema, Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var statusErr *GeminiStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
	assert.Contains(t, statusErr.Body, "overloaded")
}

func TestGemini_ClientErrorsPassThrough(t *testing.T) {
	var calls atomic.Int32
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(http.StatusBadRequest, `{"error":{"code":400,"message":"bad schema"}}`), nil
	})

	g, err := newGemini(context.Background(), "test-key", "", nil, base)
	require.NoError(t, err)
	defer g.Close()

	_, err = g.GenerateStructured(context.Background(), Request{Schema: ExtractionSchema, Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, err.Error(), "bad schema")
}
