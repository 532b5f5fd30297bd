package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"salonsites-backend/internal/dto"
	"salonsites-backend/internal/model"
	"salonsites-backend/internal/repository"
)

var (
	ErrTokenNotReady  = errors.New("token not ready for session")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrOrderNotLinked = errors.New("order has no linked user yet")
)

type AutologinService interface {
	// IssueToken mints a one-time token for a paid session. Called by the
	// webhook path once account materialization is done.
	IssueToken(ctx context.Context, sessionID, userID string) (string, error)
	// TokenForSession is the polled read; it never mutates anything.
	TokenForSession(ctx context.Context, sessionID string) (string, error)
	CreateFallbackToken(ctx context.Context, sessionID string) (string, error)
	Exchange(ctx context.Context, token, sessionID string) (*dto.ExchangeResult, error)
}

type autologinServiceImpl struct {
	tokens    repository.TokenStore
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAutologinService(
	tokens repository.TokenStore,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	jwtSecret string,
	tokenTTL time.Duration,
) AutologinService {
	return &autologinServiceImpl{
		tokens:    tokens,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (s *autologinServiceImpl) IssueToken(ctx context.Context, sessionID, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.tokens.Save(ctx, sessionID, token, userID, s.tokenTTL); err != nil {
		return "", fmt.Errorf("save auto-login token: %w", err)
	}

	return token, nil
}

func (s *autologinServiceImpl) TokenForSession(ctx context.Context, sessionID string) (string, error) {
	token, err := s.tokens.Peek(ctx, sessionID)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return "", ErrTokenNotReady
	}
	if err != nil {
		return "", err
	}

	return token, nil
}

// CreateFallbackToken covers the case where the webhook landed but the
// token expired or was lost: if the order for the session is completed and
// linked to a user, a fresh token is minted on the spot.
func (s *autologinServiceImpl) CreateFallbackToken(ctx context.Context, sessionID string) (string, error) {
	order, err := s.orderRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("find order for session %s: %w", sessionID, err)
	}

	if order.Status != model.OrderStatusCompleted {
		return "", ErrTokenNotReady
	}
	if order.UserID == nil {
		return "", ErrOrderNotLinked
	}

	return s.IssueToken(ctx, sessionID, *order.UserID)
}

func (s *autologinServiceImpl) Exchange(ctx context.Context, token, sessionID string) (*dto.ExchangeResult, error) {
	userID, err := s.tokens.Consume(ctx, token, sessionID)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	claims := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})

	sessionToken, err := claims.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	redirectURL := "/dashboard"
	if !user.HasCompletedOnboarding {
		redirectURL = "/onboarding"
	}

	return &dto.ExchangeResult{
		SessionToken: sessionToken,
		RedirectURL:  redirectURL,
	}, nil
}
