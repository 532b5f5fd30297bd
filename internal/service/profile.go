package service

import (
	"context"
	"fmt"

	"salonsites-backend/internal/dto"
	"salonsites-backend/internal/repository"
)

type ProfileService interface {
	Stats(ctx context.Context, userID string) (*dto.UserStats, error)
	ProfileStatus(ctx context.Context, userID string) (*dto.ProfileStatus, error)
}

type profileServiceImpl struct {
	userRepo  repository.UserRepository
	orderRepo repository.OrderRepository
}

func NewProfileService(userRepo repository.UserRepository, orderRepo repository.OrderRepository) ProfileService {
	return &profileServiceImpl{
		userRepo:  userRepo,
		orderRepo: orderRepo,
	}
}

func (s *profileServiceImpl) Stats(ctx context.Context, userID string) (*dto.UserStats, error) {
	stats, err := s.orderRepo.StatsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate orders for user %s: %w", userID, err)
	}

	return &dto.UserStats{
		TotalOrders:    stats.TotalOrders,
		TotalSpent:     stats.TotalSpent,
		OrdersByStatus: stats.OrdersByStatus,
		LastOrderAt:    stats.LastOrderAt,
	}, nil
}

func (s *profileServiceImpl) ProfileStatus(ctx context.Context, userID string) (*dto.ProfileStatus, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	var missing []string
	if user.Name == "" {
		missing = append(missing, "name")
	}
	if user.SalonName == "" {
		missing = append(missing, "salon_name")
	}
	if user.Phone == "" {
		missing = append(missing, "phone")
	}
	if user.Address == "" {
		missing = append(missing, "address")
	}

	return &dto.ProfileStatus{
		Complete:               len(missing) == 0,
		MissingFields:          missing,
		HasCompletedOnboarding: user.HasCompletedOnboarding,
	}, nil
}
