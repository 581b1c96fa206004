package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/compagnon/internal/config"
)

func testConfig(host, profile string) *config.Config {
	return &config.Config{
		OllamaHost:          host,
		OllamaModel:         "mixtral",
		OllamaProfile:       profile,
		OllamaContextWindow: 4096,
		AIRateLimit:         100,
	}
}

func captureServer(t *testing.T, reply string, got *generateRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: reply})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateSimple(t *testing.T) {
	var got generateRequest
	srv := captureServer(t, "<think>hmm</think>  Salut toi ", &got)

	o := NewOllama(testConfig(srv.URL+"/", "gpu"), nil)
	var measured bool
	o.OnDuration(func(complex bool, d time.Duration) { measured = !complex })

	out, err := o.Generate(context.Background(), Request{Prompt: "P\nBot:"})
	require.NoError(t, err)
	assert.Equal(t, "Salut toi", out)
	assert.True(t, measured)

	assert.Equal(t, "mixtral", got.Model)
	assert.Equal(t, "P\nBot:", got.Prompt)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.7, got.Options.Temperature)
	assert.Equal(t, 150, got.Options.NumPredict)
	assert.Equal(t, 4096, got.Options.NumCtx)
	assert.Equal(t, StopSequences, got.Options.Stop)
	require.NotNil(t, got.Options.NumGPU)
	assert.Equal(t, -1, *got.Options.NumGPU)
}

func TestGenerateComplexOnCPU(t *testing.T) {
	var got generateRequest
	srv := captureServer(t, "ok", &got)

	o := NewOllama(testConfig(srv.URL, "CPU"), nil)
	assert.Equal(t, "cpu", o.Profile().Name)
	assert.Equal(t, 300*time.Second, o.timeout(true))

	_, err := o.Generate(context.Background(), Request{Prompt: "p", Complex: true})
	require.NoError(t, err)
	assert.Equal(t, 0.6, got.Options.Temperature)
	assert.Equal(t, 200, got.Options.NumPredict)
	require.NotNil(t, got.Options.NumGPU)
	assert.Equal(t, 0, *got.Options.NumGPU)
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewOllama(testConfig(srv.URL, "gpu"), nil).Generate(ctx, Request{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "Désolé, l'IA met trop de temps à répondre... 😴", FallbackText(err))
}

func TestGenerateClientErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := NewOllama(testConfig(srv.URL, "gpu"), nil).Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)

	var herr *HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusNotFound, herr.StatusCode())
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "Désolé, je n'arrive pas à joindre l'IA...", FallbackText(err))
}

func TestGenerateOverloadSlowsDown(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	o := NewOllama(testConfig(srv.URL, "gpu"), nil)
	before := o.limiter.Limit()

	_, err := o.Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, int32(2), hits.Load())
	assert.Less(t, o.limiter.Limit(), before)
}

func TestGenerateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOllama(testConfig(url, "gpu"), nil).Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.NotErrorIs(t, err, ErrTimeout)
}
