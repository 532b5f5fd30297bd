package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"salonsites-backend/internal/client"
	"salonsites-backend/internal/config"
	"salonsites-backend/internal/service"
)

// fixdata restores order/user consistency after partial failures: it links
// orphaned orders, syncs denormalized fields, backfills user defaults,
// repairs dangling foreign keys and reports duplicate emails. Every step
// is idempotent, so the tool is safe to re-run at any time.
func main() {
	dryRun := flag.Bool("dry-run", false, "report planned changes without applying them")
	flag.Parse()

	if err := run(*dryRun); err != nil {
		fmt.Printf("❌ Consistency fix failed: %v\n", err)
		os.Exit(1)
	}
}

func run(dryRun bool) error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	db, err := client.InitPostgresClient(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	reconciler := service.NewReconciler(db, dryRun)

	fmt.Println("🔧 Starting data consistency fix...")
	if dryRun {
		fmt.Println("👀 Dry-run mode: nothing will be written")
	}

	linked, err := reconciler.LinkOrphanedOrders(ctx)
	if err != nil {
		return fmt.Errorf("link orphaned orders: %w", err)
	}
	fmt.Printf("🔗 Orders linked to users: %d\n", linked)

	synced, err := reconciler.SyncDenormalizedFields(ctx)
	if err != nil {
		return fmt.Errorf("sync denormalized fields: %w", err)
	}
	fmt.Printf("🔄 Orders with fields synced: %d\n", synced)

	backfilled, err := reconciler.BackfillUserDefaults(ctx)
	if err != nil {
		return fmt.Errorf("backfill user defaults: %w", err)
	}
	fmt.Printf("🧩 Users backfilled with defaults: %d\n", backfilled)

	repaired, err := reconciler.RepairForeignKeys(ctx)
	if err != nil {
		return fmt.Errorf("repair foreign keys: %w", err)
	}
	fmt.Printf("🛠️ Dangling order links repaired: %d\n", repaired)

	dups, err := reconciler.FindDuplicateEmails(ctx)
	if err != nil {
		return fmt.Errorf("find duplicate emails: %w", err)
	}
	if len(dups) == 0 {
		fmt.Println("✅ No duplicate emails found")
	} else {
		fmt.Printf("⚠️ Duplicate emails needing manual review: %d\n", len(dups))
		for _, d := range dups {
			fmt.Printf("   - %s (%d users)\n", d.Email, d.Count)
		}
	}

	stats, err := reconciler.Stats(ctx)
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}
	fmt.Println("📊 Snapshot:")
	fmt.Printf("   Users: %d total, %d active, %d onboarded\n",
		stats.TotalUsers, stats.ActiveUsers, stats.OnboardedUsers)
	fmt.Printf("   Orders: %d total, %d linked, %d orphaned\n",
		stats.TotalOrders, stats.LinkedOrders, stats.OrphanedOrders)

	fmt.Println("🎉 Data consistency fix completed")
	return nil
}
