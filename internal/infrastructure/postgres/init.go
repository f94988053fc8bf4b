package postgres

import (
	"log"

	"github.com/brickfoundation/referral-service/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func MustInitDB(cfg *config.ReferralConfig) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.ReferralDB.Dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v\n", err.Error())
	}
	sqlDB.SetMaxOpenConns(cfg.ReferralDB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.ReferralDB.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ReferralDB.ConnMaxLifetime)

	return db
}
