package service

import (
	"errors"

	"github.com/fetscr/fetscr-backend/internal/auth/biz"
	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/fetscr/fetscr-backend/internal/pkg/response"
	userbiz "github.com/fetscr/fetscr-backend/internal/user/biz"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthService struct {
	uc     *biz.AuthUseCase
	logger *logger.Logger
}

func NewAuthService(uc *biz.AuthUseCase, log *logger.Logger) *AuthService {
	return &AuthService{
		uc:     uc,
		logger: log,
	}
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (s *AuthService) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing fields")
		return
	}

	if _, err := s.uc.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		if errors.Is(err, biz.ErrEmailAlreadyExists) {
			response.BadRequest(c, "Email already registered")
			return
		}
		s.logger.Error("signup failed", zap.Error(err), zap.String("email", req.Email))
		response.InternalError(c, "signup failed")
		return
	}

	response.Success(c, gin.H{"message": "User registered"})
}

func (s *AuthService) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid credentials")
		return
	}

	user, token, err := s.uc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, biz.ErrInvalidCredentials) {
			response.BadRequest(c, "Invalid credentials")
			return
		}
		s.logger.Error("login failed", zap.Error(err), zap.String("email", req.Email))
		response.InternalError(c, "login failed")
		return
	}

	response.Success(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
		"plan": gin.H{
			"plan_type":         user.PlanType,
			"allowed_queries":   user.AllowedQueries,
			"results_per_query": user.ResultsPerQuery,
			"queries_used":      user.QueriesUsed,
			"queries_remaining": user.QueriesRemaining(),
		},
	})
}

func (s *AuthService) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing fields")
		return
	}

	if err := s.uc.ResetPassword(c.Request.Context(), req.Email, req.NewPassword); err != nil {
		if errors.Is(err, userbiz.ErrUserNotFound) {
			response.BadRequest(c, "No user found with that email")
			return
		}
		s.logger.Error("reset password failed", zap.Error(err), zap.String("email", req.Email))
		response.InternalError(c, "reset password failed")
		return
	}

	response.Success(c, gin.H{"message": "Password updated"})
}

func (s *AuthService) RegisterRoutes(r *gin.Engine) {
	r.POST("/signup", s.Signup)
	r.POST("/login", s.Login)
	r.POST("/reset-password", s.ResetPassword)
}
