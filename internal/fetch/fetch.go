// Package fetch retrieves raw content for one source: either a single page
// body or a bounded search-result listing.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sells-group/moverscan/pkg/serp"
)

// maxBodyBytes caps how much of a page body is read.
const maxBodyBytes = 512 * 1024

// Listing is one search result from a listing fetch. Title and Snippet are
// kept so a failed page fetch can still yield a degraded candidate.
type Listing struct {
	Title   string
	URL     string
	Snippet string
}

// PageFetcher retrieves the raw body of a single URL.
type PageFetcher interface {
	FetchPage(ctx context.Context, sourceName, pageURL string) (string, error)
}

// ListingFetcher retrieves an ordered, bounded sequence of search results
// for a query.
type ListingFetcher interface {
	FetchListing(ctx context.Context, sourceName, query string, maxResults int) ([]Listing, error)
}

// HTTPFetcher fetches pages via net/http with a fixed per-request timeout
// and no retries; retry policy belongs to the caller.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with the given timeout. A zero
// timeout defaults to 10s.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: timeout,
				}).DialContext,
				TLSHandshakeTimeout: timeout,
			},
		},
	}
}

// FetchPage GETs pageURL and returns the raw body. Failures are returned
// as *FetchError with the failure kind filled in.
func (f *HTTPFetcher) FetchPage(ctx context.Context, sourceName, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{Source: sourceName, URL: pageURL, Kind: KindUnreachable, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; MoverScanBot/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{Source: sourceName, URL: pageURL, Kind: classifyKind(err), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{Source: sourceName, URL: pageURL, Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &FetchError{Source: sourceName, URL: pageURL, Kind: KindMalformed, Err: err}
	}
	return string(body), nil
}

// SerpFetcher fetches search-result listings via SerpAPI.
type SerpFetcher struct {
	client serp.Client
}

// NewSerpFetcher creates a SerpFetcher from a serp client.
func NewSerpFetcher(client serp.Client) *SerpFetcher {
	return &SerpFetcher{client: client}
}

// FetchListing runs the query and returns at most maxResults listings in
// provider order.
func (f *SerpFetcher) FetchListing(ctx context.Context, sourceName, query string, maxResults int) ([]Listing, error) {
	results, err := f.client.Search(ctx, query, maxResults)
	if err != nil {
		var se *serp.StatusError
		if errors.As(err, &se) {
			return nil, &FetchError{Source: sourceName, URL: query, Kind: KindStatus, StatusCode: se.Code, Err: err}
		}
		kind := classifyKind(err)
		// Anything that came back over HTTP but failed to parse.
		if kind == KindUnreachable && isDecodeError(err) {
			kind = KindMalformed
		}
		return nil, &FetchError{Source: sourceName, URL: query, Kind: kind, Err: err}
	}

	listings := make([]Listing, 0, len(results))
	for _, r := range results {
		if r.Link == "" {
			continue
		}
		listings = append(listings, Listing{Title: r.Title, URL: r.Link, Snippet: r.Snippet})
	}
	return listings, nil
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
