package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestSearcher(t *testing.T, handler http.HandlerFunc) (*Searcher, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	searcher, err := NewSearcher(context.Background(), "test-key", "test-engine",
		option.WithEndpoint(server.URL))
	require.NoError(t, err)
	return searcher, server
}

func TestFirstImage(t *testing.T) {
	searcher, server := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Miso Soup", q.Get("q"))
		assert.Equal(t, "test-engine", q.Get("cx"))
		assert.Equal(t, "image", q.Get("searchType"))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"link": "https://img.example.com/miso.jpg"},
				{"link": "https://img.example.com/miso2.jpg"},
			},
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	defer server.Close()

	url, err := searcher.FirstImage(context.Background(), "Miso Soup")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/miso.jpg", url)
}

func TestFirstImageNoResults(t *testing.T) {
	searcher, server := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	defer server.Close()

	url, err := searcher.FirstImage(context.Background(), "Tempura Mixta")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestFirstImageAPIError(t *testing.T) {
	searcher, server := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quota exceeded"}}`, http.StatusForbidden)
	})
	defer server.Close()

	_, err := searcher.FirstImage(context.Background(), "Ramen")
	assert.Error(t, err)
}
