package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"backend/internal/domain"
)

type CashListFilter struct {
	CustomerID *int64
	SaleID     *int64
	Kind       *domain.CashKind
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// CreateCashMovement appends a manual ledger entry. Sale-linked entries are
// written by CommitSale; this path serves standalone charges and payments.
func (r *Repository) CreateCashMovement(ctx context.Context, movement domain.CashMovement) (*domain.CashMovement, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)", movement.CustomerID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check customer %d: %w", movement.CustomerID, err)
	}
	if !exists {
		return nil, domain.Invalidf("customer %d not found", movement.CustomerID)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cash tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertCashMovement(ctx, tx, &movement); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cash tx: %w", err)
	}
	return &movement, nil
}

func (r *Repository) ListCashMovements(ctx context.Context, filter CashListFilter) ([]domain.CashMovement, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)

	query := `
		SELECT id, customer_id, kind, amount::text, payment_method, employee_id, sale_id, created_at
		FROM cash_movements
		WHERE TRUE
	`
	args := []any{}
	idx := 1
	if filter.CustomerID != nil {
		query += fmt.Sprintf(" AND customer_id = $%d", idx)
		args = append(args, *filter.CustomerID)
		idx++
	}
	if filter.SaleID != nil {
		query += fmt.Sprintf(" AND sale_id = $%d", idx)
		args = append(args, *filter.SaleID)
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
		return nil, fmt.Errorf("list cash movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.CashMovement, 0, limit)
	for rows.Next() {
		m, err := scanCashMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cash movements: %w", err)
	}
	return movements, nil
}

// CustomerCashLedger returns all of one customer's cash movements in ledger
// order. The balance is a pure sum over this slice, so callers compute it
// with domain.BalanceOf rather than trusting a stored figure.
func (r *Repository) CustomerCashLedger(ctx context.Context, customerID int64) ([]domain.CashMovement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, kind, amount::text, payment_method, employee_id, sale_id, created_at
		FROM cash_movements
		WHERE customer_id = $1
		ORDER BY created_at ASC, id ASC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer cash ledger %d: %w", customerID, err)
	}
	defer rows.Close()

	movements := make([]domain.CashMovement, 0)
	for rows.Next() {
		m, err := scanCashMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cash ledger: %w", err)
	}
	return movements, nil
}

// Debtors lists customers whose charges exceed their payments, largest debt
// first.
func (r *Repository) Debtors(ctx context.Context) ([]domain.CustomerBalance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			c.id,
			c.customer_name,
			c.document,
			c.phone,
			SUM(CASE WHEN m.kind = 'CHARGE' THEN m.amount ELSE -m.amount END)::text AS balance
		FROM customers c
		JOIN cash_movements m ON m.customer_id = c.id
		GROUP BY c.id, c.customer_name, c.document, c.phone
		HAVING SUM(CASE WHEN m.kind = 'CHARGE' THEN m.amount ELSE -m.amount END) > 0
		ORDER BY balance DESC, c.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("debtors query: %w", err)
	}
	defer rows.Close()

	debtors := make([]domain.CustomerBalance, 0)
	for rows.Next() {
		var (
			row        domain.CustomerBalance
			balanceRaw string
		)
		if err := rows.Scan(&row.CustomerID, &row.Name, &row.Document, &row.Phone, &balanceRaw); err != nil {
			return nil, fmt.Errorf("scan debtor: %w", err)
		}
		if row.Balance, err = parseDecimal(balanceRaw); err != nil {
			return nil, fmt.Errorf("parse debtor balance: %w", err)
		}
		debtors = append(debtors, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debtors: %w", err)
	}
	return debtors, nil
}

func insertCashMovement(ctx context.Context, tx pgx.Tx, movement *domain.CashMovement) error {
	var method any
	if movement.PaymentMethod != nil {
		method = string(*movement.PaymentMethod)
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO cash_movements (customer_id, kind, amount, payment_method, employee_id, sale_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`,
		movement.CustomerID,
		string(movement.Kind),
		movement.Amount.String(),
		method,
		movement.EmployeeID,
		movement.SaleID,
	).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cash movement: %w", err)
	}
	return nil
}

func scanCashMovement(row pgx.Row) (domain.CashMovement, error) {
	var (
		m         domain.CashMovement
		kindRaw   string
		amountRaw string
		methodRaw sql.NullString
		saleID    sql.NullInt64
	)
	if err := row.Scan(
		&m.ID,
		&m.CustomerID,
		&kindRaw,
		&amountRaw,
		&methodRaw,
		&m.EmployeeID,
		&saleID,
		&m.CreatedAt,
	); err != nil {
		return domain.CashMovement{}, fmt.Errorf("scan cash movement: %w", err)
	}
	m.Kind = domain.CashKind(kindRaw)
	var err error
	if m.Amount, err = parseDecimal(amountRaw); err != nil {
		return domain.CashMovement{}, fmt.Errorf("parse cash amount: %w", err)
	}
	if methodRaw.Valid {
		method := domain.PaymentMethod(methodRaw.String)
		m.PaymentMethod = &method
	}
	if saleID.Valid {
		value := saleID.Int64
		m.SaleID = &value
	}
	return m, nil
}
