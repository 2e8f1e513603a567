package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fetscr/fetscr-backend/internal/auth"
	userbiz "github.com/fetscr/fetscr-backend/internal/user/biz"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already registered")
)

// AuthUseCase handles registration, login and password reset. It issues
// the bearer tokens the scrape endpoints consume.
type AuthUseCase struct {
	userRepo   userbiz.UserRepo
	jwtManager *auth.JWTManager
}

func NewAuthUseCase(userRepo userbiz.UserRepo, jwtManager *auth.JWTManager) *AuthUseCase {
	return &AuthUseCase{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register provisions an account on the free tier.
func (uc *AuthUseCase) Register(ctx context.Context, name, email, password string) (*userbiz.User, error) {
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, userbiz.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	plan := userbiz.DefaultPlan()
	now := time.Now()

	user := &userbiz.User{
		ID:              uuid.Must(uuid.NewV7()).String(),
		Name:            name,
		Email:           email,
		PasswordHash:    string(passwordHash),
		PlanType:        plan.Type,
		AllowedQueries:  plan.AllowedQueries,
		ResultsPerQuery: plan.ResultsPerQuery,
		QueriesUsed:     0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and issues an access token.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*userbiz.User, string, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userbiz.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := uc.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// ResetPassword replaces the stored hash for the account.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, email, newPassword string) error {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return uc.userRepo.UpdatePassword(ctx, user.ID, string(passwordHash))
}
