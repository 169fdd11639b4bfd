package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "test-cx", q.Get("cx"))
		assert.Equal(t, "Netflix Türkiye Premium aylık ücret", q.Get("q"))
		assert.Equal(t, "6", q.Get("num"))
		assert.Equal(t, "tr", q.Get("gl"))
		assert.Equal(t, "lang_tr", q.Get("lr"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse{
			Items: []Result{
				{
					Title:       "Netflix planları ve fiyatları",
					Snippet:     "Premium 229,99 TL/ay",
					Link:        "https://www.netflix.com/tr/plans",
					DisplayLink: "www.netflix.com",
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	results, err := client.Search(context.Background(), "Netflix Türkiye Premium aylık ücret", SearchOptions{
		MaxResults:       6,
		Region:           "tr",
		LanguageRestrict: "lang_tr",
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "www.netflix.com", results[0].DisplayLink)
	assert.Contains(t, results[0].Snippet, "229,99")
}

func TestSearch_CapsMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("num"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "anything", SearchOptions{MaxResults: 25})
	require.NoError(t, err)
}

func TestSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse{Items: nil})
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	results, err := client.Search(context.Background(), "nonexistent plan", SearchOptions{})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "invalid API key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", "test-cx", WithBaseURL(srv.URL))
	results, err := client.Search(context.Background(), "test", SearchOptions{})

	assert.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "403")
}

func TestSearch_MissingCredentials(t *testing.T) {
	client := NewClient("", "")
	results, err := client.Search(context.Background(), "test", SearchOptions{})

	assert.Error(t, err)
	assert.Nil(t, results)
}

func TestSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	results, err := client.Search(ctx, "test", SearchOptions{})

	assert.Error(t, err)
	assert.Nil(t, results)
}
