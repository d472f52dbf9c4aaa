package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"backend/internal/domain"
	"backend/internal/kardex"
)

type ReplenishInput struct {
	ProductID  int64
	Quantity   int
	UnitCost   decimal.Decimal
	EmployeeID int64
}

type AdjustInput struct {
	ProductID     int64
	QuantityDelta int
	EmployeeID    int64
}

type MovementListFilter struct {
	ProductID *int64
	Kind      *domain.MovementKind
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Replenish appends a REPLENISH movement and rolls the product's cached
// quantity and weighted-average cost forward, both inside one transaction
// with the product row locked. Concurrent replenishments of the same product
// serialize on the row lock, so the average is never computed from a stale
// (quantity, cost) pair.
func (r *Repository) Replenish(ctx context.Context, input ReplenishInput) (*domain.StockMovement, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin replenish tx: %w", err)
	}
	defer tx.Rollback(ctx)

	state, err := lockProductState(ctx, tx, input.ProductID)
	if err != nil {
		return nil, err
	}

	movement := domain.StockMovement{
		ProductID:     input.ProductID,
		Kind:          domain.MovementReplenish,
		QuantityDelta: input.Quantity,
		UnitCostIn:    &input.UnitCost,
		EmployeeID:    input.EmployeeID,
	}
	next, _, _ := state.Apply(movement)

	if err := updateProductState(ctx, tx, input.ProductID, next); err != nil {
		return nil, err
	}
	if err := insertStockMovement(ctx, tx, &movement); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit replenish tx: %w", err)
	}
	return &movement, nil
}

// Adjust appends an ADJUST movement. Positive deltas enter stock at the
// current average cost; negative deltas leave at the unchanged average cost.
// No externally supplied cost is accepted on this path.
func (r *Repository) Adjust(ctx context.Context, input AdjustInput) (*domain.StockMovement, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin adjust tx: %w", err)
	}
	defer tx.Rollback(ctx)

	state, err := lockProductState(ctx, tx, input.ProductID)
	if err != nil {
		return nil, err
	}

	movement := domain.StockMovement{
		ProductID:     input.ProductID,
		Kind:          domain.MovementAdjust,
		QuantityDelta: input.QuantityDelta,
		EmployeeID:    input.EmployeeID,
	}
	next, _, _ := state.Apply(movement)

	if err := updateProductState(ctx, tx, input.ProductID, next); err != nil {
		return nil, err
	}
	if err := insertStockMovement(ctx, tx, &movement); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit adjust tx: %w", err)
	}
	return &movement, nil
}

func (r *Repository) ListStockMovements(ctx context.Context, filter MovementListFilter) ([]domain.StockMovement, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)

	query := `
		SELECT id, product_id, kind, quantity_delta, unit_cost_in::text, employee_id, sale_id, created_at
		FROM stock_movements
		WHERE TRUE
	`
	args := []any{}
	idx := 1
	if filter.ProductID != nil {
		query += fmt.Sprintf(" AND product_id = $%d", idx)
		args = append(args, *filter.ProductID)
		idx++
	}
	if filter.Kind != nil {
		query += fmt.Sprintf(" AND kind = $%d", idx)
		args = append(args, string(*filter.Kind))
		idx++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *filter.To)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		m, err := scanStockMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}
	return movements, nil
}

// ProductMovementLog returns a product's full movement history in replay
// order: (created_at, id) ascending. This is the kardex input.
func (r *Repository) ProductMovementLog(ctx context.Context, productID int64) ([]domain.StockMovement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, kind, quantity_delta, unit_cost_in::text, employee_id, sale_id, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at ASC, id ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("product movement log %d: %w", productID, err)
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0)
	for rows.Next() {
		m, err := scanStockMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movement log: %w", err)
	}
	return movements, nil
}

func lockProductState(ctx context.Context, tx pgx.Tx, productID int64) (kardex.State, error) {
	var (
		quantity int
		costRaw  string
	)
	err := tx.QueryRow(ctx, `
		SELECT quantity, cost::text
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, productID).Scan(&quantity, &costRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kardex.State{}, ErrNotFound
		}
		return kardex.State{}, fmt.Errorf("lock product %d: %w", productID, err)
	}
	cost, err := parseDecimal(costRaw)
	if err != nil {
		return kardex.State{}, fmt.Errorf("parse product cost: %w", err)
	}
	return kardex.StateOf(quantity, cost), nil
}

func updateProductState(ctx context.Context, tx pgx.Tx, productID int64, state kardex.State) error {
	if _, err := tx.Exec(ctx, `
		UPDATE products
		SET quantity = $2, cost = $3, updated_at = NOW()
		WHERE id = $1
	`, productID, state.Units, state.AverageCost.Round(4).String()); err != nil {
		return fmt.Errorf("update product state %d: %w", productID, err)
	}
	return nil
}

func insertStockMovement(ctx context.Context, tx pgx.Tx, movement *domain.StockMovement) error {
	var costIn any
	if movement.UnitCostIn != nil {
		costIn = movement.UnitCostIn.String()
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO stock_movements (product_id, kind, quantity_delta, unit_cost_in, employee_id, sale_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`,
		movement.ProductID,
		string(movement.Kind),
		movement.QuantityDelta,
		costIn,
		movement.EmployeeID,
		movement.SaleID,
	).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

func scanStockMovement(row pgx.Row) (domain.StockMovement, error) {
	var (
		m       domain.StockMovement
		kindRaw string
		costRaw sql.NullString
		saleID  sql.NullInt64
	)
	if err := row.Scan(
		&m.ID,
		&m.ProductID,
		&kindRaw,
		&m.QuantityDelta,
		&costRaw,
		&m.EmployeeID,
		&saleID,
		&m.CreatedAt,
	); err != nil {
		return domain.StockMovement{}, fmt.Errorf("scan stock movement: %w", err)
	}
	m.Kind = domain.MovementKind(kindRaw)
	if costRaw.Valid {
		cost, err := parseDecimal(costRaw.String)
		if err != nil {
			return domain.StockMovement{}, fmt.Errorf("parse movement cost: %w", err)
		}
		m.UnitCostIn = &cost
	}
	if saleID.Valid {
		value := saleID.Int64
		m.SaleID = &value
	}
	return m, nil
}
