package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Netherlands", q.Get("q"))
		assert.Equal(t, "en", q.Get("lang"))
		assert.Equal(t, "3", q.Get("max"))
		assert.Equal(t, "test-key", q.Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"totalArticles": 2,
			"articles": [
				{"title": "Bike lanes expanded", "description": "More lanes.", "url": "https://example.com/1", "source": {"name": "NOS"}},
				{"title": "", "description": "untitled entry is dropped"},
				{"title": "Canal cleanup", "content": "Full text.", "source": {"name": "NU.nl"}}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, srv.Client())
	articles, err := c.Search(context.Background(), "Netherlands", 3)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Bike lanes expanded", articles[0].Title)
	assert.Equal(t, "NOS", articles[0].Source)
	assert.Equal(t, "Full text.", articles[1].Content)
}

func TestSearchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, srv.Client())
	_, err := c.Search(context.Background(), "anything", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestSearchMissingKey(t *testing.T) {
	c := NewClient(Config{}, nil)
	_, err := c.Search(context.Background(), "anything", 5)
	require.Error(t, err)
}

func TestCatalogFallback(t *testing.T) {
	assert.Equal(t, DefaultCatalog, Catalog(nil))
	assert.Equal(t, DefaultCatalog, Catalog([]CatalogEntry{{Label: "no query"}}))

	out := Catalog([]CatalogEntry{{Query: "cycling"}, {ID: "tech", Query: "technology", Label: "Tech"}})
	require.Len(t, out, 2)
	assert.Equal(t, "cycling", out[0].ID)
	assert.Equal(t, "cycling", out[0].Label)
	assert.Equal(t, "Tech", out[1].Label)
}
