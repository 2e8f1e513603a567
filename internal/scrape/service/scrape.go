package service

import (
	"errors"
	"strings"
	"time"

	"github.com/fetscr/fetscr-backend/internal/auth/middleware"
	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/fetscr/fetscr-backend/internal/pkg/response"
	"github.com/fetscr/fetscr-backend/internal/scrape/biz"
	"github.com/fetscr/fetscr-backend/internal/scrape/types"
	userbiz "github.com/fetscr/fetscr-backend/internal/user/biz"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ScrapeService struct {
	uc     *biz.ScrapeUseCase
	logger *logger.Logger
}

func NewScrapeService(uc *biz.ScrapeUseCase, log *logger.Logger) *ScrapeService {
	return &ScrapeService{
		uc:     uc,
		logger: log,
	}
}

type ScrapeRequest struct {
	Query string `json:"query"`
}

type HistoryEntry struct {
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	Timestamp   time.Time `json:"timestamp"`
}

func (s *ScrapeService) Scrape(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "No token provided")
		return
	}

	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		response.BadRequest(c, "Missing query")
		return
	}
	query := strings.TrimSpace(req.Query)

	result, err := s.uc.Scrape(c.Request.Context(), userID, query)
	if err != nil {
		switch {
		case errors.Is(err, userbiz.ErrQuotaExceeded):
			response.Forbidden(c, "Query limit reached. Please upgrade.")
		case errors.Is(err, userbiz.ErrUserNotFound):
			response.NotFound(c, "User not found")
		default:
			s.logger.Error("scrape failed",
				zap.String("user_id", userID),
				zap.String("query", query),
				zap.Error(err))
			response.InternalError(c, err.Error())
		}
		return
	}

	// An empty result set still serializes as [] rather than null.
	results := result.Results
	if results == nil {
		results = []*types.Result{}
	}

	response.Success(c, gin.H{
		"count":             len(results),
		"results":           results,
		"queries_used":      result.QueriesUsed,
		"queries_remaining": result.QueriesRemaining,
		"results_per_query": result.ResultsPerQuery,
	})
}

func (s *ScrapeService) History(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "No token provided")
		return
	}

	records, err := s.uc.History(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("failed to load history",
			zap.String("user_id", userID),
			zap.Error(err))
		response.InternalError(c, "failed to load history")
		return
	}

	history := make([]HistoryEntry, len(records))
	for i, r := range records {
		history[i] = HistoryEntry{
			Query:       r.Query,
			ResultCount: r.ResultCount,
			Timestamp:   r.Timestamp,
		}
	}

	response.Success(c, gin.H{"history": history})
}

func (s *ScrapeService) RegisterRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc, extra ...gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{authMiddleware}, extra...)
	r.POST("/scrape", append(handlers, s.Scrape)...)
	r.GET("/my-scrapes", authMiddleware, s.History)
}
