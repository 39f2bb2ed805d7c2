package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
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
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultTimeout bounds each esearch, efetch and elink call.
	DefaultTimeout = 5 * time.Second

	// DefaultRateLimit is the NCBI limit without an API key.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultLimit is the page size used when the caller gives none.
	DefaultLimit = 25

	// MaxLimit is the largest efetch window allowed per request.
	MaxLimit = 10000

	// SourceName identifies PubMed in errors, logs and metrics.
	SourceName = "pubmed"

	citedInLinkName = "pubmed_pubmed_citedin"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// APIKey is the optional NCBI API key.
	APIKey string

	// Tool and Email identify the caller to NCBI, as its usage policy asks.
	Tool  string
	Email string

	// Timeout bounds each call. Defaults to DefaultTimeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second. Defaults to DefaultRateLimit.
	RateLimit float64

	// BurstSize defaults to DefaultBurstSize.
	BurstSize int

	// CitationsEnabled registers the elink cited-by index as a citation source.
	CitationsEnabled bool
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
}

// Page selects the result window of a search.
type Page struct {
	Offset int
	Limit  int
	// Sort is an esearch sort order ("relevance", "pub_date").
	Sort string
}

// SearchResult is one fetched and parsed result window.
type SearchResult struct {
	Papers  []domain.Paper
	Total   int
	Skipped []*domain.ParseError

	WebEnv   string
	QueryKey string
}

// Client talks to the E-utilities endpoints.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	now        func() time.Time
}

// Compile-time check that Client implements CitationSource.
var _ papersources.CitationSource = (*Client)(nil)

// New creates a new PubMed client. Retries are disabled: a failed call is
// surfaced to the user, who may resubmit.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	}))
}

// NewWithHTTPClient creates a new PubMed client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return SourceName
}

// IsEnabled reports whether the cited-by index is used for citation lookups.
func (c *Client) IsEnabled() bool {
	return c.config.CitationsEnabled
}

// Search runs the two-step history protocol: esearch registers the query and
// returns the WebEnv/QueryKey handle plus the total count, then efetch pulls
// the records of the requested window as XML.
func (c *Client) Search(ctx context.Context, query string, page Page) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query", "query is required")
	}
	if page.Limit <= 0 {
		page.Limit = DefaultLimit
	}
	page.Limit = min(page.Limit, MaxLimit)
	page.Offset = max(page.Offset, 0)
	if page.Sort == "" {
		page.Sort = "relevance"
	}

	search, err := c.esearch(ctx, query, page.Sort)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		Papers:   []domain.Paper{},
		Total:    search.Count,
		WebEnv:   search.WebEnv,
		QueryKey: search.QueryKey,
	}
	if search.Count == 0 || page.Offset >= search.Count {
		return result, nil
	}

	body, err := c.efetch(ctx, search, page)
	if err != nil {
		return nil, err
	}

	parsed := ParseArticles(body, c.now())
	if parsed.Papers != nil {
		result.Papers = parsed.Papers
	}
	result.Skipped = parsed.Skipped
	return result, nil
}

func (c *Client) esearch(ctx context.Context, query, sort string) (*ESearchResult, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("usehistory", "y")
	params.Set("retmax", "0")
	params.Set("retmode", "xml")
	params.Set("sort", sort)

	body, err := c.get(ctx, "esearch", params, "application/xml")
	if err != nil {
		return nil, err
	}

	var result ESearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, domain.NewProtocolError(SourceName, fmt.Sprintf("malformed esearch response: %v", err))
	}
	if result.Count == 0 && result.ErrorList != nil && len(result.ErrorList.PhraseNotFound) > 0 {
		return &result, nil
	}
	if result.Error != "" {
		return nil, domain.NewProtocolError(SourceName, "esearch error: "+strings.TrimSpace(result.Error))
	}
	if strings.TrimSpace(result.WebEnv) == "" || strings.TrimSpace(result.QueryKey) == "" {
		return nil, domain.NewProtocolError(SourceName, "esearch response has no WebEnv/QueryKey")
	}
	return &result, nil
}

func (c *Client) efetch(ctx context.Context, search *ESearchResult, page Page) ([]byte, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("WebEnv", strings.TrimSpace(search.WebEnv))
	params.Set("query_key", strings.TrimSpace(search.QueryKey))
	params.Set("retstart", strconv.Itoa(page.Offset))
	params.Set("retmax", strconv.Itoa(page.Limit))
	params.Set("retmode", "xml")
	params.Set("sort", page.Sort)

	return c.get(ctx, "efetch", params, "application/xml")
}

// CitationCount counts the PubMed records citing q.PMID via elink. Papers
// without a PMID yield 0.
func (c *Client) CitationCount(ctx context.Context, q domain.CitationQuery) (int, error) {
	pmid := strings.TrimSpace(q.PMID)
	if pmid == "" {
		return 0, nil
	}

	params := url.Values{}
	params.Set("dbfrom", "pubmed")
	params.Set("linkname", citedInLinkName)
	params.Set("id", pmid)
	params.Set("retmode", "json")

	body, err := c.get(ctx, "elink", params, "application/json")
	if err != nil {
		return 0, err
	}

	var result ELinkResult
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, domain.NewProtocolError(SourceName, fmt.Sprintf("malformed elink response: %v", err))
	}
	return citedInCount(result), nil
}

func citedInCount(result ELinkResult) int {
	if len(result.LinkSets) == 0 {
		return 0
	}
	for _, db := range result.LinkSets[0].LinkSetDBs {
		if db.LinkName == citedInLinkName {
			return len(db.Links)
		}
	}
	return 0
}

// get performs one E-utilities call under its own deadline.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, accept string) ([]byte, error) {
	if c.config.APIKey != "" {
		params.Set("api_key", c.config.APIKey)
	}
	if c.config.Tool != "" {
		params.Set("tool", c.config.Tool)
	}
	if c.config.Email != "" {
		params.Set("email", c.config.Email)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	u := c.config.BaseURL + "/" + endpoint + ".fcgi?" + params.Encode()
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if papersources.IsTimeout(err) {
			return nil, domain.NewTimeoutError(SourceName, endpoint, c.config.Timeout)
		}
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if err := papersources.CheckStatus(SourceName, resp); err != nil {
		return nil, err
	}

	body, err := papersources.ReadBody(resp)
	if err != nil {
		if papersources.IsTimeout(err) {
			return nil, domain.NewTimeoutError(SourceName, endpoint, c.config.Timeout)
		}
		return nil, err
	}
	return body, nil
}
