package service

import (
	"errors"

	"github.com/fetscr/fetscr-backend/internal/auth/middleware"
	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/fetscr/fetscr-backend/internal/pkg/response"
	"github.com/fetscr/fetscr-backend/internal/user/biz"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserService struct {
	repo   biz.UserRepo
	logger *logger.Logger
}

func NewUserService(repo biz.UserRepo, log *logger.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: log,
	}
}

type SetPlanRequest struct {
	Plan            string `json:"plan" binding:"required"`
	Queries         int    `json:"queries"`
	Results         int    `json:"results"`
	ResultsPerQuery int    `json:"resultsPerQuery"`
}

func (s *UserService) GetPlan(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "No token provided")
		return
	}

	user, err := s.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, biz.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		s.logger.Error("failed to load user", zap.Error(err))
		response.InternalError(c, "failed to load plan")
		return
	}

	response.Success(c, gin.H{
		"plan": gin.H{
			"plan_type":         user.PlanType,
			"allowed_queries":   user.AllowedQueries,
			"results_per_query": user.ResultsPerQuery,
			"queries_used":      user.QueriesUsed,
			"queries_remaining": user.QueriesRemaining(),
		},
	})
}

func (s *UserService) SetPlan(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "No token provided")
		return
	}

	var req SetPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing fields")
		return
	}

	// The enterprise tier accepts limits under either field name.
	results := req.Results
	if results == 0 {
		results = req.ResultsPerQuery
	}

	plan, err := biz.ResolvePlan(req.Plan, req.Queries, results)
	if err != nil {
		response.BadRequest(c, "Unknown plan")
		return
	}

	if err := s.repo.UpdatePlan(c.Request.Context(), userID, plan); err != nil {
		if errors.Is(err, biz.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		s.logger.Error("failed to update plan", zap.Error(err))
		response.InternalError(c, "failed to update plan")
		return
	}

	response.Success(c, gin.H{
		"plan":              plan.Type,
		"allowed_queries":   plan.AllowedQueries,
		"results_per_query": plan.ResultsPerQuery,
		"priceUSD":          plan.PriceUSD,
		"message":           "Plan updated",
	})
}

func (s *UserService) RegisterRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.GET("/getPlan", authMiddleware, s.GetPlan)
	r.POST("/setPlan", authMiddleware, s.SetPlan)
}
