package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"Painter/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSendsRequestAndReturnsURLsInOrder(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer k-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"created":1,"data":[{"url":"https://cdn/a.png"},{"url":"https://cdn/b.png"}]}`)
	}))
	defer srv.Close()

	client := NewImageClient(core.Credentials{APIKey: "k-test", BaseURL: srv.URL + "/v1/"}, "dall-e-3", testLogger())
	urls, err := client.Generate(context.Background(), core.GenerationRequest{
		Prompt:  "a red bicycle",
		Size:    "1792x1024",
		Quality: "hd",
		N:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/a.png", "https://cdn/b.png"}, urls)

	assert.Equal(t, map[string]any{
		"model":   "dall-e-3",
		"prompt":  "a red bicycle",
		"n":       float64(2),
		"size":    "1792x1024",
		"quality": "hd",
	}, raw)
}

func TestGenerateReportsProviderMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Your request was rejected by the safety system","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	client := NewImageClient(core.Credentials{APIKey: "k", BaseURL: srv.URL}, "dall-e-3", testLogger())
	_, err := client.Generate(context.Background(), core.GenerationRequest{Prompt: "x", Size: "1024x1024", Quality: "standard", N: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "images API status 400")
	assert.Contains(t, err.Error(), "Your request was rejected by the safety system")
}

func TestGenerateReportsStatusWhenBodyIsNotJSON(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "bad gateway\n")
	}))
	defer srv.Close()

	client := NewImageClient(core.Credentials{APIKey: "k", BaseURL: srv.URL}, "dall-e-3", testLogger())
	_, err := client.Generate(context.Background(), core.GenerationRequest{Prompt: "x", Size: "1024x1024", Quality: "standard", N: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "images API status 502")
	assert.Equal(t, 1, hits)
}

func TestGenerateWithoutImagesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"created":1,"data":[]}`)
	}))
	defer srv.Close()

	client := NewImageClient(core.Credentials{APIKey: "k", BaseURL: srv.URL}, "dall-e-3", testLogger())
	_, err := client.Generate(context.Background(), core.GenerationRequest{Prompt: "x", Size: "1024x1024", Quality: "standard", N: 1})
	require.EqualError(t, err, "images API returned no images")
}
