package client

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"salonsites-backend/internal/model"
)

func InitPostgresClient(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Order{},
		&model.WebhookEvent{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
