package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/repriselab/prospect-cli/internal/pipeline"
	"github.com/repriselab/prospect-cli/internal/store"
	"github.com/repriselab/prospect-cli/pkg/fullenrich"
	"github.com/repriselab/prospect-cli/pkg/pappers"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "prospects.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newRegistryClient() (pappers.Client, error) {
	if cfg.Pappers.APIToken == "" {
		return nil, eris.New("pappers API token is required (PROSPECT_PAPPERS_API_TOKEN)")
	}
	return pappers.NewClient(cfg.Pappers.APIToken,
		pappers.WithBaseURL(cfg.Pappers.BaseURL),
		pappers.WithRequestInterval(time.Duration(cfg.Pappers.RequestIntervalMS)*time.Millisecond),
	), nil
}

func newEnrichClient() fullenrich.Client {
	return fullenrich.NewClient(cfg.Fullenrich.APIKey,
		fullenrich.WithBaseURL(cfg.Fullenrich.BaseURL),
	)
}

func pollOptions() []fullenrich.PollOption {
	return []fullenrich.PollOption{
		fullenrich.WithPollInterval(time.Duration(cfg.Fullenrich.PollIntervalSecs) * time.Second),
		fullenrich.WithMaxAttempts(cfg.Fullenrich.PollMaxAttempts),
	}
}

func initPipeline() (*pipeline.Pipeline, fullenrich.Client, error) {
	registry, err := newRegistryClient()
	if err != nil {
		return nil, nil, err
	}
	enricher := newEnrichClient()
	p := pipeline.New(registry, enricher,
		pipeline.WithPollOptions(pollOptions()...),
	)
	return p, enricher, nil
}
