// Package crossref looks up citation counts in the Crossref works index.
//
// API documentation: https://api.crossref.org/swagger-ui/index.html
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/papersources"
)

const (
	// DefaultBaseURL is the Crossref REST API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultTimeout bounds each lookup.
	DefaultTimeout = 5 * time.Second

	// DefaultRateLimit stays inside the public pool limits.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultRows is how many candidates a bibliographic query considers.
	DefaultRows = 3

	// SourceName identifies Crossref in logs and metrics.
	SourceName = "crossref"

	selectFields = "DOI,title,author,is-referenced-by-count"
)

// Config holds configuration for the Crossref client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Mailto joins the polite pool when set.
	Mailto string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// RateLimit defaults to DefaultRateLimit.
	RateLimit float64

	// BurstSize defaults to DefaultBurstSize.
	BurstSize int

	// Rows defaults to DefaultRows.
	Rows int

	// Enabled indicates whether this source is queried.
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.Rows == 0 {
		c.Rows = DefaultRows
	}
}

// Client implements papersources.CitationSource for Crossref.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.CitationSource = (*Client)(nil)

// New creates a new Crossref client.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	userAgent := papersources.DefaultUserAgent
	if cfg.Mailto != "" {
		userAgent += " (mailto:" + cfg.Mailto + ")"
	}
	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: userAgent,
	}))
}

// NewWithHTTPClient creates a new Crossref client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// Name returns the source identifier.
func (c *Client) Name() string { return SourceName }

// IsEnabled reports whether the source is queried.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// CitationCount returns is-referenced-by-count for the paper. A known DOI is
// resolved directly; otherwise a bibliographic query built from title, first
// author, journal and year is run and the first matching item is used.
func (c *Client) CitationCount(ctx context.Context, q domain.CitationQuery) (int, error) {
	if doi := strings.TrimSpace(q.DOI); doi != "" {
		return c.byDOI(ctx, doi)
	}
	bibliographic := BibliographicQuery(q)
	if bibliographic == "" {
		return 0, nil
	}

	params := url.Values{}
	params.Set("query.bibliographic", bibliographic)
	params.Set("rows", strconv.Itoa(c.config.Rows))
	params.Set("select", selectFields)

	var resp worksResponse
	if err := c.get(ctx, "/works", params, &resp); err != nil {
		return 0, err
	}
	for _, item := range resp.Message.Items {
		if papersources.MatchesCandidate(q, item.firstTitle(), item.authorNames()) {
			return item.ReferencedByCount, nil
		}
	}
	return 0, nil
}

func (c *Client) byDOI(ctx context.Context, doi string) (int, error) {
	var resp workResponse
	if err := c.get(ctx, "/works/"+url.PathEscape(doi), url.Values{}, &resp); err != nil {
		return 0, err
	}
	return resp.Message.ReferencedByCount, nil
}

// BibliographicQuery joins the non-empty bibliographic fields of q.
func BibliographicQuery(q domain.CitationQuery) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{q.Title, q.FirstAuthor(), q.Journal} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	if q.Year > 0 {
		parts = append(parts, strconv.Itoa(q.Year))
	}
	return strings.Join(parts, " ")
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.config.Mailto != "" {
		params.Set("mailto", c.config.Mailto)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	u := c.config.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if papersources.IsTimeout(err) {
			return domain.NewTimeoutError(SourceName, "works", c.config.Timeout)
		}
		return fmt.Errorf("crossref request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := papersources.CheckStatus(SourceName, resp); err != nil {
		return err
	}
	body, err := papersources.ReadBody(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewProtocolError(SourceName, fmt.Sprintf("malformed works response: %v", err))
	}
	return nil
}
