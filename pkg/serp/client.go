// Package serp provides a client for the SerpAPI search endpoint.
package serp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the SerpAPI operations used by the pipeline.
type Client interface {
	// Search runs a web search and returns the organic results, bounded
	// to num results.
	Search(ctx context.Context, query string, num int) ([]OrganicResult, error)
}

// OrganicResult is a single organic search result.
type OrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

type searchResponse struct {
	OrganicResults []OrganicResult `json:"organic_results"`
}

// StatusError is returned when SerpAPI answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return "serp: unexpected status " + strconv.Itoa(e.Code) + ": " + e.Body
}

// Option configures the SerpAPI client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) {
		c.baseURL = baseURL
	}
}

// WithLocation sets the search location parameter.
func WithLocation(location string) Option {
	return func(c *httpClient) {
		c.location = location
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	location string
	http     *http.Client
}

// NewClient creates a new SerpAPI client. Requests carry a 10s timeout and
// are never retried; the caller owns any retry policy.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  "https://serpapi.com",
		location: "United States",
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, num int) ([]OrganicResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))
	params.Set("api_key", c.apiKey)
	if c.location != "" {
		params.Set("location", c.location)
	}
	reqURL := c.baseURL + "/search.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "serp: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serp: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, eris.Wrap(err, "serp: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "serp: unmarshal response")
	}

	if num > 0 && len(result.OrganicResults) > num {
		result.OrganicResults = result.OrganicResults[:num]
	}
	return result.OrganicResults, nil
}
