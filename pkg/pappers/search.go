package pappers

import (
	"context"

	"go.uber.org/zap"
)

// maxPageSize is the largest page the /recherche endpoint serves.
const maxPageSize = 100

// SearchAll accumulates search results across pages until max results are
// collected, the remote-reported total is reached, or a page comes back
// empty or short. On an API or network error it stops paginating and returns
// whatever was accumulated alongside the error; the caller decides whether
// partial results are usable.
func SearchAll(ctx context.Context, c Client, q SearchQuery, max int) ([]SearchResult, error) {
	if max <= 0 {
		return nil, nil
	}

	perPage := maxPageSize
	if max < perPage {
		perPage = max
	}

	var results []SearchResult
	for page := 1; len(results) < max; page++ {
		resp, err := c.Search(ctx, q, page, perPage)
		if err != nil {
			return truncateResults(results, max), err
		}

		if page == 1 {
			zap.L().Info("pappers search started",
				zap.Int("total", resp.Total),
				zap.Int("max", max),
			)
		}

		if len(resp.Resultats) == 0 {
			break
		}
		results = append(results, resp.Resultats...)

		zap.L().Debug("pappers search page",
			zap.Int("page", page),
			zap.Int("page_results", len(resp.Resultats)),
			zap.Int("accumulated", len(results)),
		)

		// No more pages: remote total reached, or the page was short.
		if len(results) >= resp.Total || len(resp.Resultats) < perPage {
			break
		}
	}

	return truncateResults(results, max), nil
}

func truncateResults(results []SearchResult, max int) []SearchResult {
	if len(results) > max {
		return results[:max]
	}
	return results
}
