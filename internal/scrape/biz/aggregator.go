package biz

import (
	"context"
	"fmt"

	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/fetscr/fetscr-backend/internal/scrape/types"
	"go.uber.org/zap"
)

const (
	// resultsPerPage is the most the provider returns in one call.
	resultsPerPage = 10

	// maxPagesPerQuery bounds a single aggregation at the provider's
	// 100-result window.
	maxPagesPerQuery = 10
)

// PageFetcher is the single-page contract the aggregator drives.
type PageFetcher interface {
	FetchPage(ctx context.Context, query string, start int) (*types.Page, error)
}

// Aggregator assembles up to a target result count from repeated paged
// provider calls.
type Aggregator struct {
	fetcher PageFetcher
	logger  *logger.Logger
}

func NewAggregator(fetcher PageFetcher, log *logger.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  log,
	}
}

// Aggregate fetches pages until resultsWanted items are collected, the
// provider runs dry, or the page budget is spent, then truncates to
// exactly resultsWanted. A failure on the first page aborts the whole
// call; a failure on a later page returns what has been collected so
// far, so a provider hiccup does not waste the pages already paid for.
func (a *Aggregator) Aggregate(ctx context.Context, query string, resultsWanted int) ([]*types.Result, error) {
	if resultsWanted <= 0 {
		return nil, nil
	}

	pagesNeeded := (resultsWanted + resultsPerPage - 1) / resultsPerPage
	maxPages := pagesNeeded
	if maxPages > maxPagesPerQuery {
		maxPages = maxPagesPerQuery
	}

	start := 1
	var results []*types.Result

	for i := 0; i < maxPages; i++ {
		page, err := a.fetcher.FetchPage(ctx, query, start)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("aggregation failed: %w", err)
			}
			a.logger.WithContext(ctx).Warn("provider failed mid-aggregation, returning partial results",
				zap.String("query", query),
				zap.Int("page", i+1),
				zap.Int("collected", len(results)),
				zap.Error(err))
			break
		}

		if len(page.Items) == 0 {
			break
		}
		results = append(results, page.Items...)

		if page.NextStart > 0 {
			start = page.NextStart
		} else {
			start += resultsPerPage
		}

		if !page.HasMore {
			break
		}
		if len(results) >= resultsWanted {
			break
		}
	}

	if len(results) > resultsWanted {
		results = results[:resultsWanted]
	}

	return results, nil
}
