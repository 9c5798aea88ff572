// Package pappers provides access to the Pappers business-registry API:
// paginated company search and per-SIREN detail lookup.
package pappers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Default base URL for the Pappers v2 API.
const defaultBaseURL = "https://api.pappers.fr/v2"

// defaultRequestInterval spaces consecutive API calls to stay under the
// registry's rate limit.
const defaultRequestInterval = 400 * time.Millisecond

// Client defines the Pappers API operations used by the pipeline.
type Client interface {
	Search(ctx context.Context, q SearchQuery, page, perPage int) (*SearchResponse, error)
	Company(ctx context.Context, siren string) (*CompanyDetail, error)
}

// SearchQuery holds the already-normalized filter set for /recherche.
// Exactly one of NAFCode and Query should be set for a sector search.
type SearchQuery struct {
	NAFCode         string
	Query           string
	Region          string
	Department      string
	LegalForm       string
	RevenueMin      *int
	RevenueMax      *int
	ExecutiveAgeMin *int
	CreatedAfter    string // YYYY-MM-DD
	RCSStatus       string
	IncludeCeased   bool
}

// params builds the query string for one search page. The ceased flag is
// always sent explicitly; every other parameter is omitted when unset.
func (q SearchQuery) params(page, perPage int) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("par_page", strconv.Itoa(perPage))
	v.Set("entreprise_cessee", strconv.FormatBool(q.IncludeCeased))
	if q.NAFCode != "" {
		v.Set("code_naf", q.NAFCode)
	} else if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.Region != "" {
		v.Set("region", q.Region)
	}
	if q.Department != "" {
		v.Set("departement", q.Department)
	}
	if q.LegalForm != "" {
		v.Set("categorie_juridique", q.LegalForm)
	}
	if q.RevenueMin != nil {
		v.Set("chiffre_affaires_min", strconv.Itoa(*q.RevenueMin))
	}
	if q.RevenueMax != nil {
		v.Set("chiffre_affaires_max", strconv.Itoa(*q.RevenueMax))
	}
	if q.ExecutiveAgeMin != nil {
		v.Set("age_dirigeant_min", strconv.Itoa(*q.ExecutiveAgeMin))
	}
	if q.CreatedAfter != "" {
		v.Set("date_creation_min", q.CreatedAfter)
	}
	if q.RCSStatus != "" {
		v.Set("statut_rcs", q.RCSStatus)
	}
	return v
}

// APIError is returned when Pappers responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pappers: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRequestInterval sets the minimum spacing between consecutive API calls.
func WithRequestInterval(d time.Duration) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiToken string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a new Pappers client authenticated by API token.
func NewClient(apiToken string, opts ...Option) Client {
	c := &httpClient{
		apiToken: apiToken,
		baseURL:  defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(defaultRequestInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, q SearchQuery, page, perPage int) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.get(ctx, "/recherche", q.params(page, perPage), &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("pappers: search page %d", page))
	}
	return &resp, nil
}

func (c *httpClient) Company(ctx context.Context, siren string) (*CompanyDetail, error) {
	params := url.Values{}
	params.Set("siren", siren)

	var resp CompanyDetail
	if err := c.get(ctx, "/entreprise", params, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("pappers: company %s", siren))
	}
	return &resp, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit wait")
	}

	params.Set("api_token", c.apiToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(data), 200),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
