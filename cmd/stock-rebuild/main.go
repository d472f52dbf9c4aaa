package main

import (
	"context"
	"flag"
	"log"

	"backend/internal/config"
	"backend/internal/db"
	"backend/internal/repository"
)

func main() {
	apply := flag.Bool("apply", false, "rewrite drifted product caches from the movement log")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer pool.Close()

	repo := repository.New(pool)
	drifts, err := repo.ReconcileStock(ctx, *apply)
	if err != nil {
		log.Fatalf("reconcile failed: %v", err)
	}

	if len(drifts) == 0 {
		log.Print("reconcile complete: no drift")
		return
	}
	for _, drift := range drifts {
		log.Printf(
			"drift sku=%s product_id=%d cached_qty=%d replay_qty=%d cached_cost=%s replay_cost=%s",
			drift.SKU,
			drift.ProductID,
			drift.CachedQuantity,
			drift.ReplayQuantity,
			drift.CachedCost,
			drift.ReplayCost,
		)
	}
	if *apply {
		log.Printf("reconcile complete: %d products rewritten", len(drifts))
	} else {
		log.Printf("reconcile complete: %d products drifted (run with --apply to fix)", len(drifts))
	}
}
