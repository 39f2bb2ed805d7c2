package openalex

import (
	"context"
	"encoding/json"
	"errors"
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
	// DefaultBaseURL is the OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultTimeout bounds each lookup.
	DefaultTimeout = 5 * time.Second

	// DefaultRateLimit is the default requests per second.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultPerPage is how many candidates a title search considers.
	DefaultPerPage = 3

	// SourceName identifies OpenAlex in logs and metrics.
	SourceName = "openalex"

	doiPrefix = "https://doi.org/"
	fields    = "id,doi,display_name,publication_year,cited_by_count,authorships"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Email is the contact address for the polite pool.
	// See: https://docs.openalex.org/how-to-use-the-api/rate-limits-and-authentication
	Email string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// RateLimit defaults to DefaultRateLimit.
	RateLimit float64

	// BurstSize defaults to DefaultBurstSize.
	BurstSize int

	// PerPage defaults to DefaultPerPage.
	PerPage int

	// Enabled indicates whether this source is queried.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
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
	if c.PerPage == 0 {
		c.PerPage = DefaultPerPage
	}
}

// Client implements papersources.CitationSource for OpenAlex.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.CitationSource = (*Client)(nil)

// New creates a new OpenAlex client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	userAgent := papersources.DefaultUserAgent
	if cfg.Email != "" {
		userAgent += " (mailto:" + cfg.Email + ")"
	}
	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: userAgent,
	}))
}

// NewWithHTTPClient creates a new OpenAlex client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// Name returns the source identifier.
func (c *Client) Name() string { return SourceName }

// IsEnabled reports whether the source is queried.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// CitationCount returns cited_by_count for the paper. DOI and PMID resolve a
// single work; otherwise a title search is run and the first candidate
// matching on title and authors is used.
func (c *Client) CitationCount(ctx context.Context, q domain.CitationQuery) (int, error) {
	if path := workPath(q); path != "" {
		var work Work
		err := c.get(ctx, path, url.Values{}, &work)
		if err == nil {
			return work.CitedByCount, nil
		}
		if !isNotFound(err) || strings.TrimSpace(q.Title) == "" {
			return 0, err
		}
	}

	title := strings.TrimSpace(q.Title)
	if title == "" {
		return 0, nil
	}

	params := url.Values{}
	params.Set("search", title)
	params.Set("per-page", strconv.Itoa(c.config.PerPage))
	if q.Year > 0 {
		params.Set("filter", "publication_year:"+strconv.Itoa(q.Year))
	}

	var resp SearchResponse
	if err := c.get(ctx, "/works", params, &resp); err != nil {
		return 0, err
	}
	for _, work := range resp.Results {
		if papersources.MatchesCandidate(q, work.DisplayName, work.authorNames()) {
			return work.CitedByCount, nil
		}
	}
	return 0, nil
}

// workPath returns the single-work path for the strongest identifier in q.
// OpenAlex accepts DOI URLs and "pmid:" prefixed ids in the path.
func workPath(q domain.CitationQuery) string {
	if doi := normalizeDOI(q.DOI); doi != "" {
		return "/works/" + doiPrefix + doi
	}
	if pmid := strings.TrimSpace(q.PMID); pmid != "" {
		return "/works/pmid:" + url.PathEscape(pmid)
	}
	return ""
}

// normalizeDOI strips URL and scheme prefixes and lowercases the DOI.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, doiPrefix)
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(strings.TrimSpace(doi))
}

func isNotFound(err error) bool {
	var ue *domain.UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("select", fields)
	if c.config.Email != "" {
		params.Set("mailto", c.config.Email)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if papersources.IsTimeout(err) {
			return domain.NewTimeoutError(SourceName, "works", c.config.Timeout)
		}
		return fmt.Errorf("executing request: %w", err)
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
		return domain.NewProtocolError(SourceName, fmt.Sprintf("decoding response: %v", err))
	}
	return nil
}
