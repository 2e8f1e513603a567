package payment

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentPO records one plan purchase.
type PaymentPO struct {
	ID              string    `gorm:"type:uuid;primarykey"`
	UserID          string    `gorm:"type:uuid;not null;index"`
	Plan            string    `gorm:"size:32;not null"`
	Amount          float64   `gorm:"not null"`
	Platform        string    `gorm:"size:64;not null"`
	UPIID           string    `gorm:"size:128;not null;column:upi_id"`
	Queries         int       `gorm:"not null"`
	ResultsPerQuery int       `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PaymentPO) TableName() string {
	return "payments"
}

// Record is the domain payment row.
type Record struct {
	UserID          string
	Plan            string
	Amount          float64
	Platform        string
	UPIID           string
	Queries         int
	ResultsPerQuery int
}

// Repo persists payments.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, record *Record) error {
	po := &PaymentPO{
		ID:              uuid.Must(uuid.NewV7()).String(),
		UserID:          record.UserID,
		Plan:            record.Plan,
		Amount:          record.Amount,
		Platform:        record.Platform,
		UPIID:           record.UPIID,
		Queries:         record.Queries,
		ResultsPerQuery: record.ResultsPerQuery,
	}

	return r.db.WithContext(ctx).Create(po).Error
}

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// ParseAmount strips currency glyphs and separators from a user-supplied
// amount string. Returns false when nothing numeric remains.
func ParseAmount(raw string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, false
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}
