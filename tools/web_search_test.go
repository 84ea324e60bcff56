package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResultsPage = `<!DOCTYPE html>
<html><body>
<div class="result">
  <a class="result__a" href="https://go.dev/blog/go1.24">Go 1.24 is released</a>
  <a class="result__snippet">The latest Go release brings generics improvements.</a>
</div>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fgo">Go news</a>
  <a class="result__snippet">More about Go.</a>
</div>
</body></html>`

func TestWebSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "go release", r.URL.Query().Get("q"))
		w.Write([]byte(searchResultsPage))
	}))
	defer srv.Close()

	adapter := NewWebSearchAdapter(srv.URL, 0)
	payload, err := adapter.Invoke(context.Background(), map[string]any{"query": "go release"})

	require.NoError(t, err)
	results, ok := payload["results"].([]SearchResult)
	require.True(t, ok)
	require.Len(t, results, 2)
	assert.Equal(t, "Go 1.24 is released", results[0].Title)
	assert.Equal(t, "https://go.dev/blog/go1.24", results[0].URL)
	assert.Contains(t, results[0].Snippet, "generics")
	assert.Equal(t, "https://example.com/go", results[1].URL, "redirect links are unwrapped")
}

func TestWebSearchRequiresQuery(t *testing.T) {
	adapter := NewWebSearchAdapter("http://unused.invalid", 0)

	_, err := adapter.Invoke(context.Background(), map[string]any{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments")
}

func TestWebSearchEmptyResultsIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>nothing here</body></html>"))
	}))
	defer srv.Close()

	adapter := NewWebSearchAdapter(srv.URL, 0)
	_, err := adapter.Invoke(context.Background(), map[string]any{"query": "obscure"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no results")
}

func TestWebSearchUpstreamFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := NewWebSearchAdapter(srv.URL, 0)
	_, err := adapter.Invoke(context.Background(), map[string]any{"query": "anything"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search request failed")
}

func TestResolveSearchLink(t *testing.T) {
	assert.Equal(t, "https://example.com/page",
		resolveSearchLink("//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=abc"))
	assert.Equal(t, "https://plain.example", resolveSearchLink("https://plain.example"))
	assert.Equal(t, "", resolveSearchLink("  "))
}
