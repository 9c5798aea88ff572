// Package fullenrich provides access to the Fullenrich bulk contact
// enrichment API: batch submission, status polling, and credit balance.
package fullenrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Default base URL for the Fullenrich v2 API.
const defaultBaseURL = "https://app.fullenrich.com/api/v2"

// Client defines the Fullenrich API operations used by the pipeline.
type Client interface {
	EnrichBulk(ctx context.Context, req BulkRequest) (*BulkResponse, error)
	GetBulkStatus(ctx context.Context, id string) (*StatusResponse, error)
	Credits(ctx context.Context) (int, error)
}

// Field selects which contact attributes an enrichment should resolve.
type Field string

// Enrichable field sets.
const (
	FieldEmails Field = "contact.emails"
	FieldPhones Field = "contact.phones"
)

// Enrichment job statuses reported by the status endpoint.
const (
	StatusFinished            = "FINISHED"
	StatusCanceled            = "CANCELED"
	StatusCreditsInsufficient = "CREDITS_INSUFFICIENT"
	StatusRateLimit           = "RATE_LIMIT"
)

// Contact is one entry in a bulk enrichment payload. Domain and CompanyName
// are mutually exclusive hints; Domain is the stronger signal.
type Contact struct {
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Domain       string   `json:"domain,omitempty"`
	CompanyName  string   `json:"company_name,omitempty"`
	EnrichFields []string `json:"enrich_fields"`
}

// BulkRequest is the body for POST /contact/enrich/bulk.
type BulkRequest struct {
	Name string    `json:"name"`
	Data []Contact `json:"data"`
}

// BulkResponse is the response from POST /contact/enrich/bulk. The job
// identifier has appeared under both keys across API revisions.
type BulkResponse struct {
	EnrichmentID string `json:"enrichment_id"`
	ID           string `json:"id"`
}

// JobID returns the job identifier regardless of which key carried it.
func (r BulkResponse) JobID() string {
	if r.EnrichmentID != "" {
		return r.EnrichmentID
	}
	return r.ID
}

// EmailResult is a scored email candidate.
type EmailResult struct {
	Email string `json:"email"`
}

// PhoneResult is a scored phone candidate.
type PhoneResult struct {
	Number string `json:"number"`
}

// ContactInfo holds the best-guess contact details for one submitted person.
type ContactInfo struct {
	MostProbableWorkEmail     *EmailResult `json:"most_probable_work_email"`
	MostProbablePersonalEmail *EmailResult `json:"most_probable_personal_email"`
	MostProbablePhone         *PhoneResult `json:"most_probable_phone"`
}

// ResultRecord is one enrichment result, positionally matched to the
// submitted contact with the same index.
type ResultRecord struct {
	ContactInfo *ContactInfo `json:"contact_info"`
}

// Cost reports the credits consumed by a finished job.
type Cost struct {
	Credits int `json:"credits"`
}

// StatusResponse is the response from GET /contact/enrich/bulk/{id}.
type StatusResponse struct {
	Status string         `json:"status"`
	Data   []ResultRecord `json:"data"`
	Cost   Cost           `json:"cost"`
}

// creditsResponse is the response from GET /account/credits.
type creditsResponse struct {
	Balance int `json:"balance"`
}

// APIError is returned when Fullenrich responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fullenrich: HTTP %d: %s", e.StatusCode, e.Body)
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

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Fullenrich client authenticated by bearer token.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) EnrichBulk(ctx context.Context, req BulkRequest) (*BulkResponse, error) {
	var resp BulkResponse
	if err := c.post(ctx, "/contact/enrich/bulk", req, &resp); err != nil {
		return nil, eris.Wrap(err, "fullenrich: submit bulk enrichment")
	}
	return &resp, nil
}

func (c *httpClient) GetBulkStatus(ctx context.Context, id string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, fmt.Sprintf("/contact/enrich/bulk/%s", id), &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("fullenrich: get bulk status %s", id))
	}
	return &resp, nil
}

func (c *httpClient) Credits(ctx context.Context) (int, error) {
	var resp creditsResponse
	if err := c.get(ctx, "/account/credits", &resp); err != nil {
		return 0, eris.Wrap(err, "fullenrich: get credits")
	}
	return resp.Balance, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
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
