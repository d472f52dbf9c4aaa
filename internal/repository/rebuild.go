package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"backend/internal/domain"
	"backend/internal/kardex"
)

// StockDrift reports a product whose cached (quantity, cost) disagrees with
// what replaying its movement log produces.
type StockDrift struct {
	ProductID      int64
	SKU            string
	CachedQuantity int
	CachedCost     decimal.Decimal
	ReplayQuantity int
	ReplayCost     decimal.Decimal
}

// ReconcileStock replays every product's movement log and compares the
// result against the cached quantity and cost. With apply set, drifted
// caches are rewritten from the replay under the product row lock.
//
// Cost is only compared while stock is on hand: at zero balance the
// replayed average reads zero while the cached cost keeps its last
// entry-derived value, which is expected and not drift.
func (r *Repository) ReconcileStock(ctx context.Context, apply bool) ([]StockDrift, error) {
	products := make([]domain.Product, 0)
	for offset := 0; ; offset += 1000 {
		page, err := r.ListProducts(ctx, ProductListFilter{Limit: 1000, Offset: offset})
		if err != nil {
			return nil, err
		}
		products = append(products, page...)
		if len(page) < 1000 {
			break
		}
	}

	drifts := make([]StockDrift, 0)
	for _, product := range products {
		log, err := r.ProductMovementLog(ctx, product.ID)
		if err != nil {
			return nil, err
		}

		state := replayState(log)
		replayCost := state.AverageCost.Round(4)

		quantityDrift := state.Units != product.Quantity
		costDrift := state.Units > 0 && !replayCost.Equal(product.Cost)
		if !quantityDrift && !costDrift {
			continue
		}

		drifts = append(drifts, StockDrift{
			ProductID:      product.ID,
			SKU:            product.SKU,
			CachedQuantity: product.Quantity,
			CachedCost:     product.Cost,
			ReplayQuantity: state.Units,
			ReplayCost:     replayCost,
		})

		if !apply {
			continue
		}
		if err := r.rewriteProductState(ctx, product.ID, state, costDrift); err != nil {
			return nil, err
		}
	}
	return drifts, nil
}

func (r *Repository) rewriteProductState(ctx context.Context, productID int64, state kardex.State, rewriteCost bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rebuild tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockProductState(ctx, tx, productID); err != nil {
		return err
	}

	if rewriteCost {
		if err := updateProductState(ctx, tx, productID, state); err != nil {
			return err
		}
	} else if _, err := tx.Exec(ctx, `
		UPDATE products
		SET quantity = $2, updated_at = NOW()
		WHERE id = $1
	`, productID, state.Units); err != nil {
		return fmt.Errorf("rebuild product quantity %d: %w", productID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rebuild tx: %w", err)
	}
	return nil
}

func replayState(log []domain.StockMovement) kardex.State {
	state := kardex.State{AverageCost: decimal.Zero, Value: decimal.Zero}
	for _, movement := range log {
		state, _, _ = state.Apply(movement)
	}
	return state
}
