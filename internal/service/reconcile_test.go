package service

import (
	"context"
	"testing"

	"salonsites-backend/internal/model"
)

func TestLinkOrphanedOrders(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, &model.User{ID: "u1", Email: "maria@salon.com", Role: model.RoleClient})
	mustCreate(t, db, &model.Order{
		ID: "o1", Email: "maria@salon.com",
		Status: model.OrderStatusCompleted, CheckoutSessionID: "cs_1", Currency: "eur",
	})
	// no matching user: must stay orphaned
	mustCreate(t, db, &model.Order{
		ID: "o2", Email: "nadie@salon.com",
		Status: model.OrderStatusCompleted, CheckoutSessionID: "cs_2", Currency: "eur",
	})

	r := NewReconciler(db, false)

	linked, err := r.LinkOrphanedOrders(ctx)
	if err != nil {
		t.Fatalf("LinkOrphanedOrders: %v", err)
	}
	if linked != 1 {
		t.Errorf("linked = %d, want 1", linked)
	}

	var order model.Order
	if err := db.First(&order, "id = ?", "o1").Error; err != nil {
		t.Fatal(err)
	}
	if order.UserID == nil || *order.UserID != "u1" {
		t.Errorf("o1.UserID = %v, want u1", order.UserID)
	}

	// idempotent: nothing left to link
	linked, err = r.LinkOrphanedOrders(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if linked != 0 {
		t.Errorf("second run linked = %d, want 0", linked)
	}
}

func TestSyncDenormalizedFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, &model.User{
		ID: "u1", Email: "maria@salon.com", Name: "New Name",
		SalonName: "Salón María", Role: model.RoleClient,
	})
	uid := "u1"
	mustCreate(t, db, &model.Order{
		ID: "o1", Email: "maria@salon.com", OwnerName: "Old Name",
		SalonName: "Salón María", Phone: "600111222", UserID: &uid,
		Status: model.OrderStatusCompleted, CheckoutSessionID: "cs_1", Currency: "eur",
	})

	r := NewReconciler(db, false)

	synced, err := r.SyncDenormalizedFields(ctx)
	if err != nil {
		t.Fatalf("SyncDenormalizedFields: %v", err)
	}
	if synced != 1 {
		t.Errorf("synced = %d, want 1", synced)
	}

	var order model.Order
	if err := db.First(&order, "id = ?", "o1").Error; err != nil {
		t.Fatal(err)
	}
	if order.OwnerName != "New Name" {
		t.Errorf("OwnerName = %q, want New Name", order.OwnerName)
	}
	// user's Phone is empty: the order's value must survive
	if order.Phone != "600111222" {
		t.Errorf("Phone = %q, want 600111222", order.Phone)
	}

	// no drift left: second run is a no-op
	synced, err = r.SyncDenormalizedFields(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if synced != 0 {
		t.Errorf("second run synced = %d, want 0", synced)
	}
}

func TestBackfillUserDefaults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, &model.User{ID: "u1", Email: "carmen@peluqueria.es", Role: model.RoleClient})
	db.Model(&model.User{}).Where("id = ?", "u1").Updates(map[string]interface{}{
		"business_type": "",
		"name":          "",
	})

	r := NewReconciler(db, false)

	backfilled, err := r.BackfillUserDefaults(ctx)
	if err != nil {
		t.Fatalf("BackfillUserDefaults: %v", err)
	}
	if backfilled != 1 {
		t.Errorf("backfilled = %d, want 1", backfilled)
	}

	var user model.User
	if err := db.First(&user, "id = ?", "u1").Error; err != nil {
		t.Fatal(err)
	}
	if user.BusinessType != "SALON" {
		t.Errorf("BusinessType = %q, want SALON", user.BusinessType)
	}
	if user.Name != "carmen" {
		t.Errorf("Name = %q, want carmen", user.Name)
	}
}

func TestRepairForeignKeysDemotesInsteadOfDeleting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ghost := "no-such-user"
	mustCreate(t, db, &model.Order{
		ID: "o1", Email: "x@y.com", UserID: &ghost,
		Status: model.OrderStatusCompleted, CheckoutSessionID: "cs_1", Currency: "eur",
	})

	r := NewReconciler(db, false)

	repaired, err := r.RepairForeignKeys(ctx)
	if err != nil {
		t.Fatalf("RepairForeignKeys: %v", err)
	}
	if repaired != 1 {
		t.Errorf("repaired = %d, want 1", repaired)
	}

	var order model.Order
	if err := db.First(&order, "id = ?", "o1").Error; err != nil {
		t.Fatalf("order was deleted: %v", err)
	}
	if order.UserID != nil {
		t.Errorf("UserID = %v, want nil", order.UserID)
	}
}

func TestFindDuplicateEmails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// the unique index normally prevents this; drop it to simulate a
	// constraint bypass
	if err := db.Migrator().DropIndex(&model.User{}, "Email"); err != nil {
		t.Fatalf("drop index: %v", err)
	}

	mustCreate(t, db, &model.User{ID: "u1", Email: "dup@salon.com", Role: model.RoleClient})
	mustCreate(t, db, &model.User{ID: "u2", Email: "dup@salon.com", Role: model.RoleClient})
	mustCreate(t, db, &model.User{ID: "u3", Email: "unica@salon.com", Role: model.RoleClient})

	r := NewReconciler(db, false)

	dups, err := r.FindDuplicateEmails(ctx)
	if err != nil {
		t.Fatalf("FindDuplicateEmails: %v", err)
	}
	if len(dups) != 1 {
		t.Fatalf("got %d duplicate groups, want 1", len(dups))
	}
	if dups[0].Email != "dup@salon.com" || dups[0].Count != 2 {
		t.Errorf("duplicate = %+v", dups[0])
	}

	// reported, never auto-resolved
	var count int64
	db.Model(&model.User{}).Where("email = ?", "dup@salon.com").Count(&count)
	if count != 2 {
		t.Errorf("user count = %d after detection, want 2", count)
	}
}

func TestDryRunAppliesNothing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, &model.User{ID: "u1", Email: "maria@salon.com", Role: model.RoleClient})
	mustCreate(t, db, &model.Order{
		ID: "o1", Email: "maria@salon.com",
		Status: model.OrderStatusCompleted, CheckoutSessionID: "cs_1", Currency: "eur",
	})

	r := NewReconciler(db, true)

	report, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.OrdersLinked != 1 {
		t.Errorf("planned links = %d, want 1", report.OrdersLinked)
	}

	var order model.Order
	if err := db.First(&order, "id = ?", "o1").Error; err != nil {
		t.Fatal(err)
	}
	if order.UserID != nil {
		t.Errorf("dry run mutated the order: UserID = %v", order.UserID)
	}
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, &model.User{ID: "u1", Email: "a@b.com", Role: model.RoleClient, IsActive: true, HasCompletedOnboarding: true})
	mustCreate(t, db, &model.User{ID: "u2", Email: "c@d.com", Role: model.RoleClient, IsActive: true})
	uid := "u1"
	mustCreate(t, db, &model.Order{ID: "o1", UserID: &uid, Status: model.OrderStatusCompleted, CheckoutSessionID: "cs_1", Currency: "eur"})
	mustCreate(t, db, &model.Order{ID: "o2", Status: model.OrderStatusPending, CheckoutSessionID: "cs_2", Currency: "eur"})

	r := NewReconciler(db, false)

	stats, err := r.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalUsers != 2 || stats.TotalOrders != 2 {
		t.Errorf("totals = %d users / %d orders, want 2/2", stats.TotalUsers, stats.TotalOrders)
	}
	if stats.LinkedOrders != 1 || stats.OrphanedOrders != 1 {
		t.Errorf("linked/orphaned = %d/%d, want 1/1", stats.LinkedOrders, stats.OrphanedOrders)
	}
	if stats.OnboardedUsers != 1 {
		t.Errorf("onboarded = %d, want 1", stats.OnboardedUsers)
	}
}
