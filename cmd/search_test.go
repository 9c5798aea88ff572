//go:build !integration

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/repriselab/prospect-cli/internal/config"
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
	searchFunc func(ctx context.Context, q pappers.SearchQuery, page, perPage int) (*pappers.SearchResponse, error)
}

func (m *mockRegistry) Search(ctx context.Context, q pappers.SearchQuery, page, perPage int) (*pappers.SearchResponse, error) {
	return m.searchFunc(ctx, q, page, perPage)
}

func (m *mockRegistry) Company(context.Context, string) (*pappers.CompanyDetail, error) {
	return &pappers.CompanyDetail{}, nil
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
	return m.creditsFunc(ctx)
}

// testConfig points all clients at the given registry server and a temp dir.
func testConfig(t *testing.T, registryURL string) {
	t.Helper()
	cfg = &config.Config{
		Pappers: config.PappersConfig{
			APIToken:          "test-token",
			BaseURL:           registryURL,
			RequestIntervalMS: 1,
		},
		Fullenrich: config.FullenrichConfig{
			APIKey:           "test-key",
			PollIntervalSecs: 1,
			PollMaxAttempts:  1,
		},
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "leads.db"),
		},
		Search: config.SearchConfig{
			MaxResults:     100,
			MaxEnrichments: 10,
			OutputDir:      filepath.Join(t.TempDir(), "resultats"),
		},
	}
}

// newSearchFlags registers the search flag set on a fresh command, so
// Changed state from other tests cannot leak in.
func newSearchFlags() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&searchRevenueMin, "ca-min", 0, "")
	cmd.Flags().IntVar(&searchRevenueMax, "ca-max", 0, "")
	cmd.Flags().IntVar(&searchNetIncomeMin, "resultat-min", 0, "")
	cmd.Flags().IntVar(&searchNetIncomeMax, "resultat-max", 0, "")
	cmd.Flags().IntVar(&searchExecAgeMin, "age-min-dirigeant", 0, "")
	cmd.Flags().IntVar(&searchWorkforceMin, "effectif-min", 0, "")
	cmd.Flags().IntVar(&searchWorkforceMax, "effectif-max", 0, "")
	cmd.Flags().IntVar(&searchMaxEnrichments, "max-enrichissements", 0, "")
	return cmd
}

func TestEffectiveMaxEnrichments_ConfigFallback(t *testing.T) {
	testConfig(t, "http://unused")
	cmd := newSearchFlags()

	assert.Equal(t, 10, effectiveMaxEnrichments(cmd), "unset flag falls back to config")

	require.NoError(t, cmd.Flags().Set("max-enrichissements", "3"))
	assert.Equal(t, 3, effectiveMaxEnrichments(cmd))

	require.NoError(t, cmd.Flags().Set("max-enrichissements", "0"))
	assert.Equal(t, 0, effectiveMaxEnrichments(cmd), "an explicit zero disables enrichment")
}

func TestBuildCriteria_UnsetBoundsAreNil(t *testing.T) {
	testConfig(t, "http://unused")
	searchSector = "4322A"
	c := buildCriteria(newSearchFlags())

	assert.Nil(t, c.RevenueMin)
	assert.Nil(t, c.NetIncomeMin)
	assert.Nil(t, c.WorkforceMax)
	assert.Equal(t, 100, c.MaxResults, "max results defaults from config")
}

func TestBuildCriteria_NegativeNetIncomeBound(t *testing.T) {
	testConfig(t, "http://unused")
	cmd := newSearchFlags()
	require.NoError(t, cmd.Flags().Set("resultat-min", "-50000"))

	c := buildCriteria(cmd)
	require.NotNil(t, c.NetIncomeMin)
	assert.Equal(t, -50000, *c.NetIncomeMin, "a loss-making lower bound survives the flag layer")
}

func TestSearchCmd_RunE_ZeroHits_NoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total": 0, "resultats": []}`))
	}))
	defer srv.Close()

	testConfig(t, srv.URL)
	searchSector = "4322A"
	searchOutput = ""
	searchSaveLeads = false
	searchCmd.SetContext(context.Background())

	require.NoError(t, searchCmd.RunE(searchCmd, nil))

	_, err := os.Stat(cfg.Search.OutputDir)
	assert.True(t, os.IsNotExist(err), "no output file or directory for zero hits")
}

func TestSearchCmd_RunE_WritesCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recherche":
			_, _ = w.Write([]byte(`{"total": 1, "resultats": [{"siren": "123456789", "nom_entreprise": "Plomberie Durand"}]}`))
		case "/entreprise":
			_, _ = w.Write([]byte(`{"siren": "123456789"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	testConfig(t, srv.URL)
	searchSector = "4322A"
	searchOutput = ""
	searchSaveLeads = false
	require.NoError(t, searchCmd.Flags().Set("max-enrichissements", "0"))
	searchCmd.SetContext(context.Background())

	require.NoError(t, searchCmd.RunE(searchCmd, nil))

	files, err := filepath.Glob(filepath.Join(cfg.Search.OutputDir, "resultats_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(data), "Plomberie Durand")
}

func TestRunEnrichment_ShowsEstimateAndBalance(t *testing.T) {
	enricher := &mockEnricher{
		creditsFunc: func(ctx context.Context) (int, error) { return 42, nil },
		enrichFunc: func(ctx context.Context, req fullenrich.BulkRequest) (*fullenrich.BulkResponse, error) {
			t.Fatal("declined enrichment must not submit")
			return nil, nil
		},
	}
	p := pipeline.New(&mockRegistry{}, enricher)
	companies := []model.Company{
		{Name: "Plomberie Durand", ExecutiveFirstName: "Jean", ExecutiveLastName: "Durand"},
	}

	var out bytes.Buffer
	runEnrichment(context.Background(), &out, strings.NewReader("n\n"), p, enricher, companies, 10, false)

	assert.Contains(t, out.String(), "Dirigeants à soumettre : 1")
	assert.Contains(t, out.String(), "Solde actuel           : 42 crédit(s)")
	assert.Contains(t, out.String(), "Enrichissement annulé.")
}

func TestRunEnrichment_Confirmed(t *testing.T) {
	enricher := &mockEnricher{
		creditsFunc: func(ctx context.Context) (int, error) { return 42, nil },
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
	p := pipeline.New(&mockRegistry{}, enricher,
		pipeline.WithPollOptions(fullenrich.WithPollInterval(1)),
	)
	companies := []model.Company{
		{Name: "Plomberie Durand", ExecutiveFirstName: "Jean", ExecutiveLastName: "Durand"},
	}

	var out bytes.Buffer
	runEnrichment(context.Background(), &out, strings.NewReader("oui\n"), p, enricher, companies, 10, false)

	assert.Contains(t, out.String(), "Enrichissement terminé : 1/1 contact(s), 1 crédit(s) consommé(s).")
	assert.Equal(t, "j.durand@plomberie.fr", companies[0].Email)
}

func TestRunEnrichment_NoExecutives(t *testing.T) {
	enricher := &mockEnricher{
		creditsFunc: func(ctx context.Context) (int, error) {
			t.Fatal("no balance lookup without candidates")
			return 0, nil
		},
	}
	p := pipeline.New(&mockRegistry{}, enricher)

	var out bytes.Buffer
	runEnrichment(context.Background(), &out, strings.NewReader(""), p, enricher,
		[]model.Company{{Name: "Anonyme"}}, 10, false)

	assert.Contains(t, out.String(), "Aucun dirigeant identifié")
}

func TestRunEnrichment_AssumeYesSkipsPrompt(t *testing.T) {
	enricher := &mockEnricher{
		creditsFunc: func(ctx context.Context) (int, error) { return 5, nil },
		enrichFunc: func(ctx context.Context, req fullenrich.BulkRequest) (*fullenrich.BulkResponse, error) {
			return &fullenrich.BulkResponse{EnrichmentID: "job-1"}, nil
		},
		statusFunc: func(ctx context.Context, id string) (*fullenrich.StatusResponse, error) {
			return &fullenrich.StatusResponse{Status: fullenrich.StatusFinished}, nil
		},
	}
	p := pipeline.New(&mockRegistry{}, enricher,
		pipeline.WithPollOptions(fullenrich.WithPollInterval(1)),
	)
	companies := []model.Company{
		{Name: "Plomberie Durand", ExecutiveFirstName: "Jean", ExecutiveLastName: "Durand"},
	}

	var out bytes.Buffer
	// An empty reader would decline; assumeYes must never consult it.
	runEnrichment(context.Background(), &out, strings.NewReader(""), p, enricher, companies, 10, true)

	assert.NotContains(t, out.String(), "Lancer l'enrichissement ?")
	assert.Contains(t, out.String(), "Enrichissement terminé")
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("o\n"), &out, "? "))
	assert.True(t, confirm(strings.NewReader("OUI\n"), &out, "? "))
	assert.True(t, confirm(strings.NewReader("yes\n"), &out, "? "))
	assert.False(t, confirm(strings.NewReader("n\n"), &out, "? "))
	assert.False(t, confirm(strings.NewReader("\n"), &out, "? "))
	assert.False(t, confirm(strings.NewReader(""), &out, "? "), "EOF declines")
}

func TestSaveLeads(t *testing.T) {
	testConfig(t, "http://unused")
	ctx := context.Background()

	companies := []model.Company{
		{SIREN: "123456789", Name: "Plomberie Durand", Email: "j.durand@plomberie.fr"},
		{SIREN: "987654321", Name: "Leroy SARL"},
		{SIREN: "123456789", Name: "Plomberie Durand"},
	}

	var out bytes.Buffer
	require.NoError(t, saveLeads(ctx, &out, companies))
	assert.Contains(t, out.String(), "2 nouveau(x), 1 déjà connu(s)")

	st, err := initStore(ctx)
	require.NoError(t, err)
	defer st.Close()

	leads, err := st.ListLeads(ctx, store.LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, model.StatusProspect, leads[0].Status)
}
