package semanticscholar

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
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit suits unauthenticated use (100 req/5 min shared pool).
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout bounds each lookup.
	DefaultTimeout = 5 * time.Second

	// DefaultLimit is how many search candidates are considered.
	DefaultLimit = 3

	// SourceName identifies Semantic Scholar in logs and metrics.
	SourceName = "semanticscholar"

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	paperFields = "paperId,title,year,authors,citationCount"
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// APIKey is the optional API key for authenticated requests.
	APIKey string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// RateLimit defaults to DefaultRateLimit.
	RateLimit float64

	// BurstSize defaults to DefaultBurstSize.
	BurstSize int

	// Limit defaults to DefaultLimit.
	Limit int

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
	if c.Limit == 0 {
		c.Limit = DefaultLimit
	}
}

// Client implements papersources.CitationSource for Semantic Scholar.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
}

// Compile-time check that Client implements papersources.CitationSource.
var _ papersources.CitationSource = (*Client)(nil)

// NewClient creates a new Semantic Scholar client with the given configuration.
// If httpClient is nil, one is created from the configuration settings.
func NewClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Name returns the source identifier.
func (c *Client) Name() string { return SourceName }

// IsEnabled reports whether the source is queried.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// CitationCount returns citationCount for the paper. A DOI or PMID is looked
// up directly; otherwise the paper search is run on the title and the first
// candidate matching on title and authors is used.
func (c *Client) CitationCount(ctx context.Context, q domain.CitationQuery) (int, error) {
	if id := externalID(q); id != "" {
		var paper PaperResult
		err := c.get(ctx, "/paper/"+url.PathEscape(id), url.Values{}, &paper)
		if err == nil {
			return paper.CitationCount, nil
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
	params.Set("query", title)
	params.Set("limit", strconv.Itoa(c.config.Limit))
	if q.Year > 0 {
		params.Set("year", strconv.Itoa(q.Year))
	}

	var resp SearchResponse
	if err := c.get(ctx, "/paper/search", params, &resp); err != nil {
		return 0, err
	}
	for _, p := range resp.Data {
		if papersources.MatchesCandidate(q, p.Title, p.authorNames()) {
			return p.CitationCount, nil
		}
	}
	return 0, nil
}

// externalID returns the prefixed identifier the Graph API accepts in place
// of a paper id, preferring DOI over PMID.
func externalID(q domain.CitationQuery) string {
	if doi := strings.TrimSpace(q.DOI); doi != "" {
		return "DOI:" + doi
	}
	if pmid := strings.TrimSpace(q.PMID); pmid != "" {
		return "PMID:" + pmid
	}
	return ""
}

func isNotFound(err error) bool {
	var ue *domain.UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("fields", paperFields)

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if papersources.IsTimeout(err) {
			return domain.NewTimeoutError(SourceName, "paper", c.config.Timeout)
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
