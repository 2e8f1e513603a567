package biz

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrQuotaExceeded = errors.New("limit reached")
)

// User is the account domain model. The quota fields are the per-account
// entitlement the scrape pipeline meters against.
type User struct {
	ID              string // UUID v7
	Name            string
	Email           string
	PasswordHash    string
	PlanType        string
	AllowedQueries  int
	ResultsPerQuery int
	QueriesUsed     int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QueriesRemaining never reports below zero even if usage overshot.
func (u *User) QueriesRemaining() int {
	remaining := u.AllowedQueries - u.QueriesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// UserRepo defines persistence for accounts and quota counters.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdatePlan(ctx context.Context, id string, plan Plan) error

	// ReserveQuery atomically increments queries_used only while it is
	// below allowed_queries, and returns the resulting counters. It
	// returns ErrQuotaExceeded when the quota is already exhausted. The
	// conditional increment happens in a single statement so concurrent
	// reservations from different worker processes cannot overshoot.
	ReserveQuery(ctx context.Context, id string) (*User, error)

	// ReleaseQuery refunds one reserved query after a failed aggregation.
	ReleaseQuery(ctx context.Context, id string) error
}

// QuotaLedger meters scrape operations against per-user entitlements.
type QuotaLedger struct {
	repo UserRepo
}

func NewQuotaLedger(repo UserRepo) *QuotaLedger {
	return &QuotaLedger{repo: repo}
}

// CheckAndReserve reserves one query for the user. On success the
// returned snapshot already includes the reservation.
func (l *QuotaLedger) CheckAndReserve(ctx context.Context, userID string) (*User, error) {
	return l.repo.ReserveQuery(ctx, userID)
}

// Release refunds a reservation whose aggregation never produced a
// response.
func (l *QuotaLedger) Release(ctx context.Context, userID string) error {
	return l.repo.ReleaseQuery(ctx, userID)
}
