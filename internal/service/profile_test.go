package service

import (
	"context"
	"testing"

	"salonsites-backend/internal/model"
	"salonsites-backend/internal/repository"
)

func TestProfileStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, &model.User{ID: "u1", Email: "maria@salon.com", Role: model.RoleClient})
	uid := "u1"
	mustCreate(t, db, &model.Order{
		ID: "o1", UserID: &uid, Status: model.OrderStatusCompleted,
		Amount: 29900, CheckoutSessionID: "cs_1", Currency: "eur",
	})
	mustCreate(t, db, &model.Order{
		ID: "o2", UserID: &uid, Status: model.OrderStatusCompleted,
		Amount: 9900, CheckoutSessionID: "cs_2", Currency: "eur",
	})
	mustCreate(t, db, &model.Order{
		ID: "o3", UserID: &uid, Status: model.OrderStatusRefunded,
		Amount: 29900, CheckoutSessionID: "cs_3", Currency: "eur",
	})

	svc := NewProfileService(
		repository.NewUserRepository(db),
		repository.NewOrderRepository(db),
	)

	stats, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalOrders != 3 {
		t.Errorf("TotalOrders = %d, want 3", stats.TotalOrders)
	}
	// refunded orders do not count as spend
	if stats.TotalSpent != 39800 {
		t.Errorf("TotalSpent = %d, want 39800", stats.TotalSpent)
	}
	if stats.OrdersByStatus[model.OrderStatusCompleted] != 2 {
		t.Errorf("completed = %d, want 2", stats.OrdersByStatus[model.OrderStatusCompleted])
	}
	if stats.LastOrderAt == nil {
		t.Error("LastOrderAt is nil")
	}
}

func TestProfileStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, &model.User{
		ID: "u1", Email: "maria@salon.com", Name: "María",
		SalonName: "Salón María", Role: model.RoleClient,
	})

	svc := NewProfileService(
		repository.NewUserRepository(db),
		repository.NewOrderRepository(db),
	)

	status, err := svc.ProfileStatus(ctx, "u1")
	if err != nil {
		t.Fatalf("ProfileStatus: %v", err)
	}
	if status.Complete {
		t.Error("profile reported complete with missing phone and address")
	}
	if len(status.MissingFields) != 2 {
		t.Errorf("MissingFields = %v, want phone and address", status.MissingFields)
	}
}
