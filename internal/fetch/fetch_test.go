package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/moverscan/pkg/serp"
)

func TestHTTPFetcher_FetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "MoverScanBot")
		_, _ = w.Write([]byte("<html><body>Movers</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(0)
	body, err := f.FetchPage(context.Background(), "website", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "Movers")
}

func TestHTTPFetcher_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(0)
	_, err := f.FetchPage(context.Background(), "website", srv.URL)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindStatus, fe.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Equal(t, "website", fe.Source)
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(50 * time.Millisecond)
	_, err := f.FetchPage(context.Background(), "website", srv.URL)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindTimeout, fe.Kind)
}

func TestHTTPFetcher_Unreachable(t *testing.T) {
	f := NewHTTPFetcher(time.Second)
	_, err := f.FetchPage(context.Background(), "website", "http://127.0.0.1:1")

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindUnreachable, fe.Kind)
}

func TestSerpFetcher_FetchListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic_results":[
			{"position":1,"title":"Atlas","link":"https://atlas.example","snippet":"mover"},
			{"position":2,"title":"NoLink","snippet":"dropped"}
		]}`))
	}))
	defer srv.Close()

	f := NewSerpFetcher(serp.NewClient("k", serp.WithBaseURL(srv.URL)))
	listings, err := f.FetchListing(context.Background(), "search", "top movers", 5)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Atlas", listings[0].Title)
	assert.Equal(t, "https://atlas.example", listings[0].URL)
	assert.Equal(t, "mover", listings[0].Snippet)
}

func TestSerpFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewSerpFetcher(serp.NewClient("k", serp.WithBaseURL(srv.URL)))
	_, err := f.FetchListing(context.Background(), "search", "movers", 5)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindStatus, fe.Kind)
	assert.Equal(t, http.StatusTooManyRequests, fe.StatusCode)
}

func TestSerpFetcher_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	f := NewSerpFetcher(serp.NewClient("k", serp.WithBaseURL(srv.URL)))
	_, err := f.FetchListing(context.Background(), "search", "movers", 5)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindMalformed, fe.Kind)
}
