package biz

import (
	"context"
	"time"

	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/fetscr/fetscr-backend/internal/scrape/types"
	userbiz "github.com/fetscr/fetscr-backend/internal/user/biz"
	"go.uber.org/zap"
)

// AuditRecord is one completed aggregation in the query history.
type AuditRecord struct {
	UserID      string
	Query       string
	ResultCount int
	Timestamp   time.Time
}

// AuditRepo persists the query history.
type AuditRepo interface {
	Append(ctx context.Context, record *AuditRecord) error
	History(ctx context.Context, userID string) ([]*AuditRecord, error)
}

// ScrapeResult is the outcome of one metered aggregation, including the
// quota snapshot after the reservation.
type ScrapeResult struct {
	Results          []*types.Result
	QueriesUsed      int
	QueriesRemaining int
	ResultsPerQuery  int
}

// ScrapeUseCase runs the full metered pipeline: reserve quota, aggregate
// provider pages, append the audit record.
type ScrapeUseCase struct {
	ledger     *userbiz.QuotaLedger
	aggregator *Aggregator
	audit      AuditRepo
	logger     *logger.Logger
}

func NewScrapeUseCase(ledger *userbiz.QuotaLedger, aggregator *Aggregator, audit AuditRepo, log *logger.Logger) *ScrapeUseCase {
	return &ScrapeUseCase{
		ledger:     ledger,
		aggregator: aggregator,
		audit:      audit,
		logger:     log,
	}
}

// Scrape reserves one query against the user's quota and, only if the
// reservation succeeds, aggregates up to the user's results-per-query
// entitlement. A denied reservation performs zero provider calls. If the
// aggregation fails outright the reservation is refunded.
func (uc *ScrapeUseCase) Scrape(ctx context.Context, userID, query string) (*ScrapeResult, error) {
	user, err := uc.ledger.CheckAndReserve(ctx, userID)
	if err != nil {
		return nil, err
	}

	results, err := uc.aggregator.Aggregate(ctx, query, user.ResultsPerQuery)
	if err != nil {
		if releaseErr := uc.ledger.Release(ctx, userID); releaseErr != nil {
			uc.logger.WithContext(ctx).Error("failed to release quota reservation",
				zap.String("user_id", userID),
				zap.Error(releaseErr))
		}
		return nil, err
	}

	// The response is already determined; a history write failure must
	// not surface to the caller.
	record := &AuditRecord{
		UserID:      userID,
		Query:       query,
		ResultCount: len(results),
		Timestamp:   time.Now().UTC(),
	}
	if err := uc.audit.Append(ctx, record); err != nil {
		uc.logger.WithContext(ctx).Error("failed to append audit record",
			zap.String("user_id", userID),
			zap.String("query", query),
			zap.Error(err))
	}

	return &ScrapeResult{
		Results:          results,
		QueriesUsed:      user.QueriesUsed,
		QueriesRemaining: user.QueriesRemaining(),
		ResultsPerQuery:  user.ResultsPerQuery,
	}, nil
}

// History returns the user's query history, newest first.
func (uc *ScrapeUseCase) History(ctx context.Context, userID string) ([]*AuditRecord, error) {
	return uc.audit.History(ctx, userID)
}
