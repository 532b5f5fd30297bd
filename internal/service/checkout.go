package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v84"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"salonsites-backend/internal/client"
	"salonsites-backend/internal/dto"
	"salonsites-backend/internal/model"
	"salonsites-backend/internal/repository"
	"salonsites-backend/internal/sender"
)

var ErrPaymentNotSucceeded = errors.New("payment has not succeeded")

type CheckoutService interface {
	ConfirmCheckout(ctx context.Context, req *dto.ConfirmCheckoutRequest) (*dto.ConfirmCheckoutResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type checkoutServiceImpl struct {
	db               *gorm.DB
	stripeClient     client.StripeClient
	userRepo         repository.UserRepository
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	autologin        AutologinService
	mailer           sender.EmailSender
}

func NewCheckoutService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	autologin AutologinService,
	mailer sender.EmailSender,
) CheckoutService {
	return &checkoutServiceImpl{
		db:               db,
		stripeClient:     stripeClient,
		userRepo:         userRepo,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
		autologin:        autologin,
		mailer:           mailer,
	}
}

// ConfirmCheckout is the commit point of the client-side flow: the payment
// element already confirmed the intent, so we verify its status with Stripe
// and materialize the user and order. The payment intent id doubles as the
// session id carried through the auto-login redirect.
func (s *checkoutServiceImpl) ConfirmCheckout(ctx context.Context, req *dto.ConfirmCheckoutRequest) (*dto.ConfirmCheckoutResponse, error) {
	if req.PaymentIntentID == "" || req.Email == "" {
		return nil, fmt.Errorf("payment_intent_id and email are required")
	}

	pi, err := s.stripeClient.GetPaymentIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotSucceeded, pi.Status)
	}

	user, order, err := s.materialize(ctx, &accountInput{
		sessionID:       pi.ID,
		paymentIntentID: pi.ID,
		email:           strings.ToLower(strings.TrimSpace(req.Email)),
		ownerName:       req.OwnerName,
		salonName:       req.SalonName,
		phone:           req.Phone,
		address:         req.Address,
		amount:          pi.Amount,
		currency:        string(pi.Currency),
	})
	if err != nil {
		return nil, err
	}

	return &dto.ConfirmCheckoutResponse{
		OrderID:   order.ID,
		SessionID: order.CheckoutSessionID,
		UserID:    user.ID,
	}, nil
}

func (s *checkoutServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.stripeClient.VerifyWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	processed, err := s.webhookEventRepo.Exists(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook dedup: %w", err)
	}
	if processed {
		log.WithField("event_id", event.ID).Info("webhook event already processed")
		return nil
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("decode payment intent payload: %w", err)
		}
		if err := s.handlePaymentSucceeded(ctx, &pi); err != nil {
			return err
		}
	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return fmt.Errorf("decode charge payload: %w", err)
		}
		if charge.PaymentIntent != nil {
			if err := s.orderRepo.MarkRefunded(ctx, s.db, charge.PaymentIntent.ID); err != nil {
				return fmt.Errorf("mark order refunded: %w", err)
			}
		}
	default:
		log.WithField("event_type", event.Type).Debug("ignoring webhook event")
	}

	return s.webhookEventRepo.MarkProcessed(ctx, event.ID, string(event.Type))
}

// handlePaymentSucceeded completes the order, makes sure the account
// exists, and issues the auto-login token the success page is polling for.
func (s *checkoutServiceImpl) handlePaymentSucceeded(ctx context.Context, pi *stripe.PaymentIntent) error {
	email := strings.ToLower(strings.TrimSpace(pi.ReceiptEmail))
	ownerName := pi.Metadata["owner_name"]
	if email == "" {
		email = strings.ToLower(strings.TrimSpace(pi.Metadata["email"]))
	}

	user, order, err := s.materialize(ctx, &accountInput{
		sessionID:       pi.ID,
		paymentIntentID: pi.ID,
		email:           email,
		ownerName:       ownerName,
		salonName:       pi.Metadata["salon_name"],
		phone:           pi.Metadata["phone"],
		address:         pi.Metadata["address"],
		amount:          pi.Amount,
		currency:        string(pi.Currency),
	})
	if err != nil {
		return err
	}

	if err := s.orderRepo.MarkCompleted(ctx, s.db, order.CheckoutSessionID); err != nil {
		return fmt.Errorf("mark order completed: %w", err)
	}

	if _, err := s.autologin.IssueToken(ctx, order.CheckoutSessionID, user.ID); err != nil {
		return fmt.Errorf("issue auto-login token: %w", err)
	}

	log.WithFields(log.Fields{
		"session_id": order.CheckoutSessionID,
		"user_id":    user.ID,
	}).Info("payment processed, auto-login token issued")

	return nil
}

type accountInput struct {
	sessionID       string
	paymentIntentID string
	email           string
	ownerName       string
	salonName       string
	phone           string
	address         string
	amount          int64
	currency        string
}

// materialize idempotently creates the user and order for a paid session.
// Re-running it for the same session loads the existing records instead of
// duplicating them.
func (s *checkoutServiceImpl) materialize(ctx context.Context, in *accountInput) (*model.User, *model.Order, error) {
	if in.email == "" {
		return nil, nil, fmt.Errorf("no email attached to payment %s", in.paymentIntentID)
	}

	var (
		user    *model.User
		order   *model.Order
		created bool
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		user, created, err = s.ensureUser(ctx, tx, in)
		if err != nil {
			return err
		}

		order, err = s.orderRepo.FindBySessionID(ctx, in.sessionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find order for session: %w", err)
		}

		if order == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			order = &model.Order{
				ID:                  uuid.NewString(),
				Email:               in.email,
				OwnerName:           in.ownerName,
				SalonName:           in.salonName,
				Phone:               in.phone,
				Address:             in.address,
				UserID:              &user.ID,
				Status:              model.OrderStatusProcessing,
				Amount:              in.amount,
				Currency:            in.currency,
				CheckoutSessionID:   in.sessionID,
				StripePaymentIntent: in.paymentIntentID,
			}
			if err := s.orderRepo.Create(ctx, tx, order); err != nil {
				return fmt.Errorf("store order: %w", err)
			}
		} else if order.UserID == nil {
			if err := s.orderRepo.AssignUser(ctx, tx, order.ID, user.ID); err != nil {
				return fmt.Errorf("link order to user: %w", err)
			}
			order.UserID = &user.ID
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if created {
		s.sendWelcome(user)
	}

	return user, order, nil
}

func (s *checkoutServiceImpl) ensureUser(ctx context.Context, tx *gorm.DB, in *accountInput) (*model.User, bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, in.email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find user by email: %w", err)
	}

	tempPassword := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash temp password: %w", err)
	}

	name := in.ownerName
	if name == "" {
		name = localPart(in.email)
	}

	user = &model.User{
		ID:           uuid.NewString(),
		Email:        in.email,
		Name:         name,
		SalonName:    in.salonName,
		Phone:        in.phone,
		Address:      in.address,
		BusinessType: model.DefaultBusinessType,
		Role:         model.RoleClient,
		PasswordHash: hash,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, tx, user); err != nil {
		// lost a race with the webhook or a retried confirm: load the winner
		existing, findErr := s.userRepo.FindByEmail(ctx, in.email)
		if findErr == nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	return user, true, nil
}

func (s *checkoutServiceImpl) sendWelcome(user *model.User) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendWelcome(user.Email, user.Name); err != nil {
		log.WithError(err).WithField("email", user.Email).Error("failed to send welcome email")
	}
}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
