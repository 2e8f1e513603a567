package data

import (
	"context"
	"time"

	"github.com/fetscr/fetscr-backend/internal/pkg/database"
	"github.com/fetscr/fetscr-backend/internal/user/biz"
	"gorm.io/gorm"
)

// UserPO is the database model for accounts.
type UserPO struct {
	ID           string `gorm:"type:uuid;primarykey"`
	Name         string `gorm:"size:100;not null"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:255;not null"`

	PlanType        string `gorm:"size:32;not null;default:'free'"`
	AllowedQueries  int    `gorm:"not null;default:2"`
	ResultsPerQuery int    `gorm:"not null;default:5"`
	QueriesUsed     int    `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (UserPO) TableName() string {
	return "users"
}

// UserRepo implements biz.UserRepo on postgres.
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) biz.UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *biz.User) error {
	po := &UserPO{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		PasswordHash:    user.PasswordHash,
		PlanType:        user.PlanType,
		AllowedQueries:  user.AllowedQueries,
		ResultsPerQuery: user.ResultsPerQuery,
		QueriesUsed:     user.QueriesUsed,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}

	return r.db.WithContext(ctx).Create(po).Error
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*biz.User, error) {
	var po UserPO
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if database.IsRecordNotFound(err) {
			return nil, biz.ErrUserNotFound
		}
		return nil, err
	}

	return r.toUser(&po), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*biz.User, error) {
	var po UserPO
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&po).Error; err != nil {
		if database.IsRecordNotFound(err) {
			return nil, biz.ErrUserNotFound
		}
		return nil, err
	}

	return r.toUser(&po), nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&UserPO{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return biz.ErrUserNotFound
	}
	return nil
}

// UpdatePlan activates a tier and resets the usage counter, matching the
// plan-change semantics of the billing flow.
func (r *UserRepo) UpdatePlan(ctx context.Context, id string, plan biz.Plan) error {
	result := r.db.WithContext(ctx).Model(&UserPO{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"plan_type":         plan.Type,
			"allowed_queries":   plan.AllowedQueries,
			"results_per_query": plan.ResultsPerQuery,
			"queries_used":      0,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return biz.ErrUserNotFound
	}
	return nil
}

// ReserveQuery performs the check-and-increment as one conditional
// UPDATE, so two workers reserving for the same account serialize at the
// database rather than racing in application code.
func (r *UserRepo) ReserveQuery(ctx context.Context, id string) (*biz.User, error) {
	result := r.db.WithContext(ctx).Model(&UserPO{}).
		Where("id = ? AND queries_used < allowed_queries", id).
		UpdateColumn("queries_used", gorm.Expr("queries_used + 1"))
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Either the user is missing or the quota is exhausted.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, biz.ErrQuotaExceeded
	}

	return r.GetByID(ctx, id)
}

// ReleaseQuery refunds a reservation, never dropping the counter below
// zero.
func (r *UserRepo) ReleaseQuery(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&UserPO{}).
		Where("id = ? AND queries_used > 0", id).
		UpdateColumn("queries_used", gorm.Expr("queries_used - 1")).Error
}

func (r *UserRepo) toUser(po *UserPO) *biz.User {
	return &biz.User{
		ID:              po.ID,
		Name:            po.Name,
		Email:           po.Email,
		PasswordHash:    po.PasswordHash,
		PlanType:        po.PlanType,
		AllowedQueries:  po.AllowedQueries,
		ResultsPerQuery: po.ResultsPerQuery,
		QueriesUsed:     po.QueriesUsed,
		CreatedAt:       po.CreatedAt,
		UpdatedAt:       po.UpdatedAt,
	}
}
