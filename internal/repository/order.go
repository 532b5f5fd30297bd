package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"salonsites-backend/internal/model"
)

type OrderStats struct {
	TotalOrders    int64
	TotalSpent     int64
	OrdersByStatus map[string]int64
	LastOrderAt    *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	MarkCompleted(ctx context.Context, tx *gorm.DB, sessionID string) error
	MarkRefunded(ctx context.Context, tx *gorm.DB, paymentIntentID string) error
	AssignUser(ctx context.Context, tx *gorm.DB, orderID, userID string) error
	StatsByUser(ctx context.Context, userID string) (*OrderStats, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("checkout_session_id = ?", sessionID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) MarkCompleted(ctx context.Context, tx *gorm.DB, sessionID string) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where(`
			checkout_session_id = ?
			AND status IN ?
		`,
			sessionID,
			[]string{model.OrderStatusPending, model.OrderStatusProcessing},
		).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusCompleted,
			"updated_at": time.Now(),
		}).Error
}

func (r *orderRepoImpl) MarkRefunded(ctx context.Context, tx *gorm.DB, paymentIntentID string) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("stripe_payment_intent = ?", paymentIntentID).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusRefunded,
			"updated_at": time.Now(),
		}).Error
}

func (r *orderRepoImpl) AssignUser(ctx context.Context, tx *gorm.DB, orderID, userID string) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"user_id":    userID,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) StatsByUser(ctx context.Context, userID string) (*OrderStats, error) {
	stats := &OrderStats{
		OrdersByStatus: make(map[string]int64),
	}

	type statusRow struct {
		Status string
		Count  int64
		Total  int64
	}

	var rows []statusRow
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("status, count(*) as count, coalesce(sum(amount), 0) as total").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats.OrdersByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
		if row.Status != model.OrderStatusCancelled && row.Status != model.OrderStatusRefunded {
			stats.TotalSpent += row.Total
		}
	}

	var last model.Order
	err = r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		First(&last).Error
	if err == nil {
		stats.LastOrderAt = &last.CreatedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return stats, nil
}
