package model

import "time"

// Order statuses
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
	OrderStatusRefunded   = "REFUNDED"
)

// User roles
const (
	RoleClient = "CLIENT"
	RoleAdmin  = "ADMIN"
)

const DefaultBusinessType = "SALON"

type User struct {
	ID           string `gorm:"primaryKey;size:36;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	Name         string `gorm:"size:255"`
	SalonName    string `gorm:"size:255"`
	Phone        string `gorm:"size:32"`
	Address      string `gorm:"size:512"`
	BusinessType string `gorm:"size:32;default:SALON"`
	Role         string `gorm:"size:16;index;not null;default:CLIENT"`
	PasswordHash []byte

	IsActive               bool `gorm:"not null;default:true"`
	HasCompletedOnboarding bool `gorm:"not null;default:false"`
	LoginAttempts          int  `gorm:"not null;default:0"`
	LockUntil              *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Order keeps denormalized contact fields next to the user link so the
// purchase record survives later account edits. Drift between the two is
// repaired by the reconciliation routines, not enforced at write time.
type Order struct {
	ID        string `gorm:"primaryKey;size:36;not null"`
	Email     string `gorm:"size:255;index"`
	OwnerName string `gorm:"size:255"`
	SalonName string `gorm:"size:255"`
	Phone     string `gorm:"size:32"`
	Address   string `gorm:"size:512"`

	// nullable: orders are created at checkout and linked to a user once
	// the account exists ("orphaned" in between)
	UserID *string `gorm:"size:36;index"`

	Status              string `gorm:"size:16;index;not null"`
	Amount              int64  `gorm:"not null"` // cents
	Currency            string `gorm:"size:8;not null"`
	CheckoutSessionID   string `gorm:"size:128;uniqueIndex;not null"`
	StripePaymentIntent string `gorm:"size:128;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
