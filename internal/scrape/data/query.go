package data

import (
	"context"
	"time"

	"github.com/fetscr/fetscr-backend/internal/scrape/biz"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScrapedQueryPO is the append-only query-history row.
type ScrapedQueryPO struct {
	ID          string    `gorm:"type:uuid;primarykey"`
	UserID      string    `gorm:"type:uuid;not null;index:idx_scraped_queries_user_ts,priority:1"`
	Query       string    `gorm:"size:1024;not null"`
	ResultCount int       `gorm:"not null"`
	Timestamp   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_scraped_queries_user_ts,priority:2,sort:desc"`
}

func (ScrapedQueryPO) TableName() string {
	return "scraped_queries"
}

// AuditRepo implements biz.AuditRepo on postgres.
type AuditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) biz.AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, record *biz.AuditRecord) error {
	po := &ScrapedQueryPO{
		ID:          uuid.Must(uuid.NewV7()).String(),
		UserID:      record.UserID,
		Query:       record.Query,
		ResultCount: record.ResultCount,
		Timestamp:   record.Timestamp,
	}

	return r.db.WithContext(ctx).Create(po).Error
}

func (r *AuditRepo) History(ctx context.Context, userID string) ([]*biz.AuditRecord, error) {
	var pos []ScrapedQueryPO
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	records := make([]*biz.AuditRecord, len(pos))
	for i, po := range pos {
		records[i] = &biz.AuditRecord{
			UserID:      po.UserID,
			Query:       po.Query,
			ResultCount: po.ResultCount,
			Timestamp:   po.Timestamp,
		}
	}

	return records, nil
}
