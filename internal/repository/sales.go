package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"backend/internal/domain"
)

type SaleListFilter struct {
	CustomerID *int64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// CommitSale validates and commits a complete sale in one transaction:
// header, line items with price and cost snapshots, one SALE stock movement
// per line, a CHARGE for the total and, when something was paid, a PAYMENT.
// Either all of it persists or none of it does.
//
// Product rows are locked in id order before snapshotting, so the cost
// snapshot is the pre-sale average cost and two concurrent sales of the same
// products cannot deadlock each other.
func (r *Repository) CommitSale(
	ctx context.Context,
	customerID int64,
	employeeID int64,
	items []domain.SaleItemInput,
	paidNow decimal.Decimal,
	method *domain.PaymentMethod,
) (*domain.Sale, error) {
	merged, err := domain.MergeSaleItems(items)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin sale tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)", customerID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check customer %d: %w", customerID, err)
	}
	if !exists {
		return nil, domain.Invalidf("customer %d not found", customerID)
	}

	products, err := lockProducts(ctx, tx, merged)
	if err != nil {
		return nil, err
	}

	draft, err := domain.BuildSaleDraft(customerID, employeeID, products, merged, paidNow, method)
	if err != nil {
		return nil, err
	}

	sale := domain.Sale{
		CustomerID: draft.CustomerID,
		EmployeeID: draft.EmployeeID,
		Total:      draft.Total,
		PaidNow:    draft.PaidNow,
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO sales (customer_id, employee_id, total, paid_now)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, sale.CustomerID, sale.EmployeeID, sale.Total.String(), sale.PaidNow.String()).
		Scan(&sale.ID, &sale.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}

	for _, line := range draft.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sale_lines (sale_id, product_id, quantity, unit_price, unit_cost)
			VALUES ($1, $2, $3, $4, $5)
		`, sale.ID, line.ProductID, line.Quantity, line.UnitPrice.String(), line.UnitCost.String()); err != nil {
			return nil, fmt.Errorf("insert sale line: %w", err)
		}
	}

	for _, movement := range draft.StockMovements() {
		movement.SaleID = &sale.ID
		if err := insertStockMovement(ctx, tx, &movement); err != nil {
			return nil, err
		}
		// Selling never moves the average cost, only the on-hand count.
		if _, err := tx.Exec(ctx, `
			UPDATE products
			SET quantity = quantity + $2, updated_at = NOW()
			WHERE id = $1
		`, movement.ProductID, movement.QuantityDelta); err != nil {
			return nil, fmt.Errorf("update product quantity: %w", err)
		}
	}

	for _, entry := range draft.CashMovements() {
		entry.SaleID = &sale.ID
		if err := insertCashMovement(ctx, tx, &entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sale tx: %w", err)
	}
	return &sale, nil
}

func lockProducts(ctx context.Context, tx pgx.Tx, items []domain.SaleItemInput) (map[int64]domain.Product, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		row := tx.QueryRow(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = $1
			FOR UPDATE
		`, id)
		product, err := scanProduct(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.Invalidf("product %d not found", id)
			}
			return nil, fmt.Errorf("lock product %d for sale: %w", id, err)
		}
		products[id] = product
	}
	return products, nil
}

func (r *Repository) ListSales(ctx context.Context, filter SaleListFilter) ([]domain.Sale, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)

	query := `
		SELECT id, customer_id, employee_id, total::text, paid_now::text, created_at
		FROM sales
		WHERE TRUE
	`
	args := []any{}
	idx := 1
	if filter.CustomerID != nil {
		query += fmt.Sprintf(" AND customer_id = $%d", idx)
		args = append(args, *filter.CustomerID)
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
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, limit)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}

func (r *Repository) GetSaleByID(ctx context.Context, id int64) (*domain.Sale, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, customer_id, employee_id, total::text, paid_now::text, created_at
		FROM sales
		WHERE id = $1
	`, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}
	return &sale, nil
}

func (r *Repository) GetSaleLines(ctx context.Context, saleID int64) ([]domain.SaleLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price::text, unit_cost::text
		FROM sale_lines
		WHERE sale_id = $1
		ORDER BY id ASC
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("get sale lines %d: %w", saleID, err)
	}
	defer rows.Close()

	lines := make([]domain.SaleLine, 0)
	for rows.Next() {
		var (
			line     domain.SaleLine
			priceRaw string
			costRaw  string
		)
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.Quantity, &priceRaw, &costRaw); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		if line.UnitPrice, err = parseDecimal(priceRaw); err != nil {
			return nil, fmt.Errorf("parse line price: %w", err)
		}
		if line.UnitCost, err = parseDecimal(costRaw); err != nil {
			return nil, fmt.Errorf("parse line cost: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale lines: %w", err)
	}
	return lines, nil
}

func scanSale(row pgx.Row) (domain.Sale, error) {
	var (
		s       domain.Sale
		total   string
		paidNow string
	)
	if err := row.Scan(&s.ID, &s.CustomerID, &s.EmployeeID, &total, &paidNow, &s.CreatedAt); err != nil {
		return domain.Sale{}, err
	}
	var err error
	if s.Total, err = parseDecimal(total); err != nil {
		return domain.Sale{}, fmt.Errorf("parse sale total: %w", err)
	}
	if s.PaidNow, err = parseDecimal(paidNow); err != nil {
		return domain.Sale{}, fmt.Errorf("parse sale paid_now: %w", err)
	}
	return s, nil
}
