package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"salonsites-backend/internal/model"
)

// Reconciler heals the expected steady-state drift between orders and
// users: orphaned orders, stale denormalized contact fields, dangling
// foreign keys. Every routine is idempotent and commits per statement, so
// a run is safe to interrupt and restart, and concurrent runs cannot make
// the data worse. The DB handle is injected so the routines run unchanged
// against an in-memory store in tests.
type Reconciler struct {
	db     *gorm.DB
	dryRun bool
}

func NewReconciler(db *gorm.DB, dryRun bool) *Reconciler {
	return &Reconciler{db: db, dryRun: dryRun}
}

type DuplicateEmail struct {
	Email string
	Count int64
}

type ConsistencyStats struct {
	TotalUsers     int64
	TotalOrders    int64
	LinkedOrders   int64
	OrphanedOrders int64
	ActiveUsers    int64
	OnboardedUsers int64
}

type RunReport struct {
	OrdersLinked     int
	FieldsSynced     int
	UsersBackfilled  int
	ForeignKeysFixed int
	DuplicateEmails  []DuplicateEmail
	Stats            *ConsistencyStats
}

// LinkOrphanedOrders attaches every order with a null user id to the user
// holding the order's email. Orders with a blank email or no matching user
// are left alone.
func (r *Reconciler) LinkOrphanedOrders(ctx context.Context) (int, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("user_id IS NULL AND email <> ''").
		Find(&orders).Error
	if err != nil {
		return 0, fmt.Errorf("load orphaned orders: %w", err)
	}

	linked := 0
	for _, order := range orders {
		var user model.User
		err := r.db.WithContext(ctx).
			Where("email = ?", order.Email).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return linked, fmt.Errorf("look up user %s: %w", order.Email, err)
		}

		if r.dryRun {
			log.WithFields(log.Fields{"order": order.ID, "user": user.ID}).Info("dry-run: would link order")
			linked++
			continue
		}

		err = r.db.WithContext(ctx).Model(&model.Order{}).
			Where("id = ? AND user_id IS NULL", order.ID).
			Update("user_id", user.ID).Error
		if err != nil {
			return linked, fmt.Errorf("link order %s: %w", order.ID, err)
		}
		linked++
	}

	return linked, nil
}

// SyncDenormalizedFields copies the linked user's contact fields onto each
// order where they drifted. A user field that is empty never overwrites
// the order's value.
func (r *Reconciler) SyncDenormalizedFields(ctx context.Context) (int, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("user_id IS NOT NULL").
		Find(&orders).Error
	if err != nil {
		return 0, fmt.Errorf("load linked orders: %w", err)
	}

	synced := 0
	for _, order := range orders {
		var user model.User
		err := r.db.WithContext(ctx).
			Where("id = ?", *order.UserID).
			First(&user).Error
		if err != nil {
			// dangling FK, handled by RepairForeignKeys
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return synced, fmt.Errorf("load user %s: %w", *order.UserID, err)
		}

		updates := map[string]interface{}{}
		if user.Email != "" && order.Email != user.Email {
			updates["email"] = user.Email
		}
		if user.Name != "" && order.OwnerName != user.Name {
			updates["owner_name"] = user.Name
		}
		if user.SalonName != "" && order.SalonName != user.SalonName {
			updates["salon_name"] = user.SalonName
		}
		if user.Phone != "" && order.Phone != user.Phone {
			updates["phone"] = user.Phone
		}
		if user.Address != "" && order.Address != user.Address {
			updates["address"] = user.Address
		}

		if len(updates) == 0 {
			continue
		}

		if r.dryRun {
			log.WithFields(log.Fields{"order": order.ID, "fields": len(updates)}).Info("dry-run: would sync order fields")
			synced++
			continue
		}

		err = r.db.WithContext(ctx).Model(&model.Order{}).
			Where("id = ?", order.ID).
			Updates(updates).Error
		if err != nil {
			return synced, fmt.Errorf("sync order %s: %w", order.ID, err)
		}
		synced++
	}

	return synced, nil
}

// BackfillUserDefaults fills missing business types with the SALON default
// and derives missing names from the email local-part.
func (r *Reconciler) BackfillUserDefaults(ctx context.Context) (int, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("business_type IS NULL OR business_type = '' OR name IS NULL OR name = ''").
		Find(&users).Error
	if err != nil {
		return 0, fmt.Errorf("load users missing defaults: %w", err)
	}

	backfilled := 0
	for _, user := range users {
		updates := map[string]interface{}{}
		if user.BusinessType == "" {
			updates["business_type"] = model.DefaultBusinessType
		}
		if user.Name == "" {
			name := user.Email
			if i := strings.Index(user.Email, "@"); i > 0 {
				name = user.Email[:i]
			}
			updates["name"] = name
		}

		if len(updates) == 0 {
			continue
		}

		if r.dryRun {
			log.WithField("user", user.ID).Info("dry-run: would backfill user defaults")
			backfilled++
			continue
		}

		err = r.db.WithContext(ctx).Model(&model.User{}).
			Where("id = ?", user.ID).
			Updates(updates).Error
		if err != nil {
			return backfilled, fmt.Errorf("backfill user %s: %w", user.ID, err)
		}
		backfilled++
	}

	return backfilled, nil
}

// FindDuplicateEmails reports email groups with more than one user. The
// unique constraint should make this impossible; duplicates are reported
// for a manual merge decision, never auto-resolved.
func (r *Reconciler) FindDuplicateEmails(ctx context.Context) ([]DuplicateEmail, error) {
	var dups []DuplicateEmail
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("email, count(*) as count").
		Group("email").
		Having("count(*) > 1").
		Scan(&dups).Error
	if err != nil {
		return nil, fmt.Errorf("group users by email: %w", err)
	}

	return dups, nil
}

// RepairForeignKeys demotes orders whose user id points at nothing back to
// orphaned (user_id = NULL). The order itself is never deleted.
func (r *Reconciler) RepairForeignKeys(ctx context.Context) (int, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("user_id IS NOT NULL AND user_id NOT IN (?)",
			r.db.Model(&model.User{}).Select("id")).
		Find(&orders).Error
	if err != nil {
		return 0, fmt.Errorf("find dangling orders: %w", err)
	}

	repaired := 0
	for _, order := range orders {
		if r.dryRun {
			log.WithField("order", order.ID).Info("dry-run: would null dangling user id")
			repaired++
			continue
		}

		err = r.db.WithContext(ctx).Model(&model.Order{}).
			Where("id = ?", order.ID).
			Update("user_id", nil).Error
		if err != nil {
			return repaired, fmt.Errorf("repair order %s: %w", order.ID, err)
		}
		repaired++
	}

	return repaired, nil
}

// Stats is read-only reporting; it mutates nothing.
func (r *Reconciler) Stats(ctx context.Context) (*ConsistencyStats, error) {
	stats := &ConsistencyStats{}
	db := r.db.WithContext(ctx)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, db.Model(&model.User{})},
		{&stats.TotalOrders, db.Model(&model.Order{})},
		{&stats.LinkedOrders, db.Model(&model.Order{}).Where("user_id IS NOT NULL")},
		{&stats.OrphanedOrders, db.Model(&model.Order{}).Where("user_id IS NULL")},
		{&stats.ActiveUsers, db.Model(&model.User{}).Where("is_active = ?", true)},
		{&stats.OnboardedUsers, db.Model(&model.User{}).Where("has_completed_onboarding = ?", true)},
	}

	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("count consistency stats: %w", err)
		}
	}

	return stats, nil
}

// Run executes every routine once, sequentially. There is no transaction
// spanning the run; each step stands on its own idempotency.
func (r *Reconciler) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{}
	var err error

	if report.OrdersLinked, err = r.LinkOrphanedOrders(ctx); err != nil {
		return report, err
	}
	if report.FieldsSynced, err = r.SyncDenormalizedFields(ctx); err != nil {
		return report, err
	}
	if report.UsersBackfilled, err = r.BackfillUserDefaults(ctx); err != nil {
		return report, err
	}
	if report.ForeignKeysFixed, err = r.RepairForeignKeys(ctx); err != nil {
		return report, err
	}
	if report.DuplicateEmails, err = r.FindDuplicateEmails(ctx); err != nil {
		return report, err
	}
	if report.Stats, err = r.Stats(ctx); err != nil {
		return report, err
	}

	return report, nil
}
