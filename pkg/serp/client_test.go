package serp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_ParsesOrganicResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "top moving companies", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "United States", r.URL.Query().Get("location"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic_results":[
			{"position":1,"title":"Atlas Van Lines","link":"https://atlas.example","snippet":"Nationwide mover"},
			{"position":2,"title":"Mayflower","link":"https://mayflower.example","snippet":"Long distance"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "top moving companies", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Atlas Van Lines", results[0].Title)
	assert.Equal(t, "https://atlas.example", results[0].Link)
	assert.Equal(t, "Nationwide mover", results[0].Snippet)
}

func TestSearch_BoundsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic_results":[
			{"position":1,"title":"A","link":"https://a.example"},
			{"position":2,"title":"B","link":"https://b.example"},
			{"position":3,"title":"C","link":"https://c.example"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "movers", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "movers", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSearch_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "movers", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestSearch_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic_results":[]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "movers", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
