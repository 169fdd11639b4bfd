package websearch

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

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// maxResultsCeiling is the Custom Search API's hard per-request limit.
const maxResultsCeiling = 10

// Client performs web searches against the Google Custom Search JSON API.
type Client interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error)
}

// SearchOptions tunes a single search call.
type SearchOptions struct {
	// MaxResults is capped at the backend's ceiling of 10.
	MaxResults int
	// Region is the gl parameter (country code, e.g. "tr").
	Region string
	// Language is the hl parameter (interface language, e.g. "tr").
	Language string
	// LanguageRestrict is the lr parameter (e.g. "lang_tr").
	LanguageRestrict string
}

// Result is one ranked search hit.
type Result struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Link        string `json:"link"`
	DisplayLink string `json:"displayLink"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey   string
	engineID string
	baseURL  string
	http     *http.Client
}

// NewClient creates a Google Custom Search client.
func NewClient(apiKey, engineID string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Items []Result `json:"items"`
}

func (c *httpClient) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	if c.apiKey == "" || c.engineID == "" {
		return nil, eris.New("websearch: api key or engine id not configured")
	}

	n := opts.MaxResults
	if n <= 0 || n > maxResultsCeiling {
		n = maxResultsCeiling
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(n))
	if opts.Region != "" {
		params.Set("gl", opts.Region)
	}
	if opts.Language != "" {
		params.Set("hl", opts.Language)
	}
	if opts.LanguageRestrict != "" {
		params.Set("lr", opts.LanguageRestrict)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("websearch: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "websearch: unmarshal response")
	}

	return result.Items, nil
}
