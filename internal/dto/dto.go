package dto

import "time"

type ConfirmCheckoutRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Email           string `json:"email"`
	OwnerName       string `json:"owner_name"`
	SalonName       string `json:"salon_name"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
}

type ConfirmCheckoutResponse struct {
	OrderID   string `json:"order_id"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type FallbackTokenRequest struct {
	SessionID string `json:"session_id"`
}

type ExchangeRequest struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
}

type ExchangeResult struct {
	SessionToken string `json:"-"`
	RedirectURL  string `json:"redirectUrl"`
}

type UserStats struct {
	TotalOrders    int64            `json:"total_orders"`
	TotalSpent     int64            `json:"total_spent"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	LastOrderAt    *time.Time       `json:"last_order_at,omitempty"`
}

type ProfileStatus struct {
	Complete               bool     `json:"complete"`
	MissingFields          []string `json:"missing_fields"`
	HasCompletedOnboarding bool     `json:"has_completed_onboarding"`
}
