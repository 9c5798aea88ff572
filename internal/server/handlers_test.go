package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/repriselab/prospect-cli/internal/model"
	"github.com/repriselab/prospect-cli/internal/pipeline"
	"github.com/repriselab/prospect-cli/internal/store"
	"github.com/repriselab/prospect-cli/pkg/fullenrich"
	"github.com/repriselab/prospect-cli/pkg/pappers"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// mockRegistry implements pappers.Client.
type mockRegistry struct {
	searchFunc  func(ctx context.Context, q pappers.SearchQuery, page, perPage int) (*pappers.SearchResponse, error)
	companyFunc func(ctx context.Context, siren string) (*pappers.CompanyDetail, error)
}

func (m *mockRegistry) Search(ctx context.Context, q pappers.SearchQuery, page, perPage int) (*pappers.SearchResponse, error) {
	return m.searchFunc(ctx, q, page, perPage)
}

func (m *mockRegistry) Company(ctx context.Context, siren string) (*pappers.CompanyDetail, error) {
	if m.companyFunc == nil {
		return &pappers.CompanyDetail{}, nil
	}
	return m.companyFunc(ctx, siren)
}

// mockEnricher implements fullenrich.Client.
type mockEnricher struct {
	enrichFunc  func(ctx context.Context, req fullenrich.BulkRequest) (*fullenrich.BulkResponse, error)
	statusFunc  func(ctx context.Context, id string) (*fullenrich.StatusResponse, error)
	creditsFunc func(ctx context.Context) (int, error)
}

func (m *mockEnricher) EnrichBulk(ctx context.Context, req fullenrich.BulkRequest) (*fullenrich.BulkResponse, error) {
	return m.enrichFunc(ctx, req)
}

func (m *mockEnricher) GetBulkStatus(ctx context.Context, id string) (*fullenrich.StatusResponse, error) {
	return m.statusFunc(ctx, id)
}

func (m *mockEnricher) Credits(ctx context.Context) (int, error) {
	if m.creditsFunc == nil {
		return 0, eris.New("not implemented")
	}
	return m.creditsFunc(ctx)
}

func newTestServer(t *testing.T, registry pappers.Client, enricher fullenrich.Client) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	if registry == nil {
		registry = &mockRegistry{}
	}
	if enricher == nil {
		enricher = &mockEnricher{}
	}
	p := pipeline.New(registry, enricher)
	return New(p, enricher, st, WithPollOptions(fullenrich.WithPollInterval(time.Millisecond))), st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	w := doJSON(t, s.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestSearch_OK(t *testing.T) {
	registry := &mockRegistry{
		searchFunc: func(ctx context.Context, q pappers.SearchQuery, page, perPage int) (*pappers.SearchResponse, error) {
			assert.Equal(t, "4322A", q.NAFCode)
			assert.Equal(t, "53", q.Region, "region name resolved to its INSEE code")
			return &pappers.SearchResponse{
				Total: 1,
				Resultats: []pappers.SearchResult{
					{SIREN: "123456789", NomEntreprise: "Plomberie Durand"},
				},
			}, nil
		},
	}

	s, _ := newTestServer(t, registry, nil)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/search", map[string]any{
		"secteur": "4322A",
		"region":  "Bretagne",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []model.Row `json:"results"`
		Total   int         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Plomberie Durand", resp.Results[0].Name)
}

func TestSearch_NoCriteria(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/search", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_RegistryFailure(t *testing.T) {
	registry := &mockRegistry{
		searchFunc: func(ctx context.Context, q pappers.SearchQuery, page, perPage int) (*pappers.SearchResponse, error) {
			return nil, eris.New("registry down")
		},
	}

	s, _ := newTestServer(t, registry, nil)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/search", map[string]any{"secteur": "4322A"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestExport_CSVAttachment(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/export", map[string]any{
		"results": []map[string]any{
			{"nom_entreprise": "Plomberie Durand", "siren": "123456789"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(w.Body.String(), "\ufeff"), "CSV starts with a UTF-8 BOM")
	assert.Contains(t, w.Body.String(), "nom_entreprise;siren")
}

func TestExport_EmptyResultsKeepHeader(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/export", map[string]any{
		"results": []any{},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nom_entreprise;siren")
}

func TestEnrich_OK(t *testing.T) {
	enricher := &mockEnricher{
		enrichFunc: func(ctx context.Context, req fullenrich.BulkRequest) (*fullenrich.BulkResponse, error) {
			return &fullenrich.BulkResponse{EnrichmentID: "job-1"}, nil
		},
		statusFunc: func(ctx context.Context, id string) (*fullenrich.StatusResponse, error) {
			return &fullenrich.StatusResponse{
				Status: fullenrich.StatusFinished,
				Data: []fullenrich.ResultRecord{
					{ContactInfo: &fullenrich.ContactInfo{
						MostProbableWorkEmail: &fullenrich.EmailResult{Email: "j.durand@plomberie.fr"},
					}},
				},
				Cost: fullenrich.Cost{Credits: 1},
			}, nil
		},
	}

	s, _ := newTestServer(t, nil, enricher)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/enrich", map[string]any{
		"contacts": []map[string]string{
			{"first_name": "Jean", "last_name": "Durand", "domain": "plomberie.fr"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results     []fullenrich.ContactResult `json:"results"`
		CreditsUsed int                        `json:"credits_used"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "j.durand@plomberie.fr", resp.Results[0].Email)
	assert.Equal(t, 1, resp.CreditsUsed)
}

func TestEnrich_NoContacts(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/enrich", map[string]any{"contacts": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrich_InsufficientCredits(t *testing.T) {
	enricher := &mockEnricher{
		enrichFunc: func(ctx context.Context, req fullenrich.BulkRequest) (*fullenrich.BulkResponse, error) {
			return &fullenrich.BulkResponse{EnrichmentID: "job-1"}, nil
		},
		statusFunc: func(ctx context.Context, id string) (*fullenrich.StatusResponse, error) {
			return &fullenrich.StatusResponse{Status: fullenrich.StatusCreditsInsufficient}, nil
		},
	}

	s, _ := newTestServer(t, nil, enricher)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/enrich", map[string]any{
		"contacts": []map[string]string{{"first_name": "Jean", "last_name": "Durand"}},
	})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestCredits(t *testing.T) {
	enricher := &mockEnricher{
		creditsFunc: func(ctx context.Context) (int, error) { return 42, nil },
	}
	s, _ := newTestServer(t, nil, enricher)
	w := doJSON(t, s.Router(), http.MethodGet, "/api/credits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance": 42}`, w.Body.String())
}

func TestLeads_CRUD(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	router := s.Router()

	// Create
	w := doJSON(t, router, http.MethodPost, "/api/leads/", map[string]any{
		"siren":          "123456789",
		"nom_entreprise": "Plomberie Durand",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "prospect", created.Status)

	// Duplicate SIREN
	w = doJSON(t, router, http.MethodPost, "/api/leads/", map[string]any{
		"siren":          "123456789",
		"nom_entreprise": "Doublon",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Get
	w = doJSON(t, router, http.MethodGet, "/api/leads/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Update
	created.Status = "contacté"
	w = doJSON(t, router, http.MethodPut, "/api/leads/"+created.ID, created)
	assert.Equal(t, http.StatusOK, w.Code)

	// List filtered
	w = doJSON(t, router, http.MethodGet, "/api/leads/?status=contact%C3%A9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Leads []model.Lead `json:"leads"`
		Total int          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	// Delete
	w = doJSON(t, router, http.MethodDelete, "/api/leads/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/leads/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeads_CreateRequiresName(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/leads/", map[string]any{"siren": "123456789"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeads_Export(t *testing.T) {
	s, st := newTestServer(t, nil, nil)
	_, err := st.CreateLead(context.Background(), model.Lead{SIREN: "123456789", Name: "Plomberie Durand"})
	require.NoError(t, err)

	w := doJSON(t, s.Router(), http.MethodGet, "/api/leads/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "leads_")
	assert.Contains(t, w.Body.String(), "Plomberie Durand")
}
