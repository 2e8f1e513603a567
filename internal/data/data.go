package data

import (
	"fmt"

	"github.com/fetscr/fetscr-backend/internal/conf"
	"github.com/fetscr/fetscr-backend/internal/payment"
	"github.com/fetscr/fetscr-backend/internal/pkg/database"
	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/fetscr/fetscr-backend/internal/pkg/redisclient"
	scrapedata "github.com/fetscr/fetscr-backend/internal/scrape/data"
	userdata "github.com/fetscr/fetscr-backend/internal/user/data"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Data bundles the shared persistence handles for one worker process.
type Data struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewData connects postgres and redis and runs schema migration.
func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := db.AutoMigrate(
		&userdata.UserPO{},
		&scrapedata.ScrapedQueryPO{},
		&payment.PaymentPO{},
	); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	redisClient, err := redisclient.New(&config.Redis, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	d := &Data{
		DB:          db,
		RedisClient: redisClient,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")

		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		redisClient.Close()
	}

	return d, cleanup, nil
}
