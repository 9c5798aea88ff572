package fullenrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultPollInterval    = 4 * time.Second
	defaultPollMaxAttempts = 40
)

// Terminal failure modes of an enrichment job.
var (
	// ErrTimeout is returned when every poll attempt was spent without the
	// job reaching a terminal status. The job may still finish upstream.
	ErrTimeout = eris.New("fullenrich: enrichment timed out")

	// ErrInsufficientCredits is returned when the account balance cannot
	// cover the job (HTTP 402 or a CREDITS_INSUFFICIENT status).
	ErrInsufficientCredits = eris.New("fullenrich: insufficient credits")
)

// StatusError is returned when a job terminates in a non-success status.
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fullenrich: enrichment terminated with status %s", e.Status)
}

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval    time.Duration
	maxAttempts int
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		interval:    defaultPollInterval,
		maxAttempts: defaultPollMaxAttempts,
	}
}

// WithPollInterval overrides the fixed interval between polls.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithMaxAttempts overrides the poll attempt ceiling.
func WithMaxAttempts(n int) PollOption {
	return func(c *pollConfig) {
		c.maxAttempts = n
	}
}

// Await polls GetBulkStatus at a fixed interval until the job reaches a
// terminal status or the attempt ceiling is exhausted.
//
// HTTP 402 maps to ErrInsufficientCredits and any other 4xx aborts with the
// status code and truncated body; transient network and 5xx errors consume
// an attempt and polling continues. A CANCELED, CREDITS_INSUFFICIENT, or
// RATE_LIMIT status aborts with a StatusError; any unrecognized status keeps
// the poll loop going.
func Await(ctx context.Context, c Client, id string, opts ...PollOption) (*StatusResponse, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("fullenrich: poll bulk %s", id))
		case <-time.After(cfg.interval):
		}

		status, err := c.GetBulkStatus(ctx, id)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				if apiErr.StatusCode == http.StatusPaymentRequired {
					return nil, eris.Wrap(ErrInsufficientCredits, apiErr.Body)
				}
				if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
					return nil, err
				}
			}
			zap.L().Warn("fullenrich poll attempt failed",
				zap.String("enrichment_id", id),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", cfg.maxAttempts),
				zap.Error(err),
			)
			continue
		}

		switch strings.ToUpper(status.Status) {
		case StatusFinished:
			return status, nil
		case StatusCreditsInsufficient:
			return nil, eris.Wrap(ErrInsufficientCredits, status.Status)
		case StatusCanceled, StatusRateLimit:
			return nil, &StatusError{Status: strings.ToUpper(status.Status)}
		}

		zap.L().Debug("fullenrich poll pending",
			zap.String("enrichment_id", id),
			zap.String("status", status.Status),
			zap.Int("attempt", attempt),
		)
	}

	return nil, eris.Wrap(ErrTimeout, id)
}
