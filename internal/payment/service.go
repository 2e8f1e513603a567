package payment

import (
	"errors"
	"strconv"

	"github.com/fetscr/fetscr-backend/internal/auth/middleware"
	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/fetscr/fetscr-backend/internal/pkg/response"
	userbiz "github.com/fetscr/fetscr-backend/internal/user/biz"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service records payments and activates the purchased plan.
type Service struct {
	repo     *Repo
	userRepo userbiz.UserRepo
	logger   *logger.Logger
}

func NewService(repo *Repo, userRepo userbiz.UserRepo, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		logger:   log,
	}
}

type RecordPaymentRequest struct {
	Plan            string      `json:"plan"`
	Amount          interface{} `json:"amount"`
	Queries         int         `json:"queries"`
	ResultsPerQuery int         `json:"resultsPerQuery"`
	Platform        string      `json:"platform"`
	UPIID           string      `json:"upiId"`
}

func (s *Service) RecordPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "No token provided")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing payment fields")
		return
	}

	amountRaw := toString(req.Amount)
	if req.Plan == "" || amountRaw == "" || req.Platform == "" || req.UPIID == "" {
		response.BadRequest(c, "Missing payment fields")
		return
	}

	amount, ok := ParseAmount(amountRaw)
	if !ok {
		response.BadRequest(c, "Invalid amount format")
		return
	}

	ctx := c.Request.Context()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, userbiz.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		s.logger.Error("failed to load user", zap.Error(err))
		response.InternalError(c, "payment failed")
		return
	}

	record := &Record{
		UserID:          userID,
		Plan:            req.Plan,
		Amount:          amount,
		Platform:        req.Platform,
		UPIID:           req.UPIID,
		Queries:         req.Queries,
		ResultsPerQuery: req.ResultsPerQuery,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("failed to record payment", zap.Error(err))
		response.InternalError(c, "payment failed")
		return
	}

	plan := userbiz.Plan{
		Type:            req.Plan,
		AllowedQueries:  req.Queries,
		ResultsPerQuery: req.ResultsPerQuery,
	}
	if err := s.userRepo.UpdatePlan(ctx, userID, plan); err != nil {
		s.logger.Error("failed to activate plan after payment", zap.Error(err))
		response.InternalError(c, "payment recorded but plan activation failed")
		return
	}

	response.Success(c, gin.H{
		"message": "Payment recorded and plan activated",
		"activePlan": gin.H{
			"plan":             req.Plan,
			"amount":           amount,
			"remainingQueries": req.Queries,
			"resultsPerQuery":  req.ResultsPerQuery,
			"upiId":            req.UPIID,
		},
	})
}

// toString renders the amount field, which clients send either as a
// number or as a formatted string.
func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func (s *Service) RegisterRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.POST("/api/payments", authMiddleware, s.RecordPayment)
}
