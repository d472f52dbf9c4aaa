package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"backend/internal/domain"
)

type CustomerListFilter struct {
	Search string
	Limit  int
	Offset int
}

type CustomerCreateInput struct {
	Name     string
	Document string
	Phone    string
}

type CustomerPatchInput struct {
	Name     *string
	Document *string
	Phone    *string
}

func (r *Repository) ListCustomers(ctx context.Context, filter CustomerListFilter) ([]domain.Customer, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)
	search := strings.TrimSpace(filter.Search)

	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_name, document, phone, created_at
		FROM customers
		WHERE ($1 = '' OR customer_name ILIKE '%' || $1 || '%' OR document ILIKE '%' || $1 || '%')
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, limit)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Document, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

func (r *Repository) GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id, customer_name, document, phone, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Document, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return &c, nil
}

func (r *Repository) CreateCustomer(ctx context.Context, input CustomerCreateInput) (domain.Customer, error) {
	var c domain.Customer
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (customer_name, document, phone)
		VALUES ($1, $2, $3)
		RETURNING id, customer_name, document, phone, created_at
	`, input.Name, input.Document, input.Phone).Scan(&c.ID, &c.Name, &c.Document, &c.Phone, &c.CreatedAt)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

func (r *Repository) PatchCustomer(ctx context.Context, id int64, input CustomerPatchInput) (*domain.Customer, error) {
	existing, err := r.GetCustomerByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.Invalidf("customer name cannot be empty")
		}
		existing.Name = name
	}
	if input.Document != nil {
		existing.Document = strings.TrimSpace(*input.Document)
	}
	if input.Phone != nil {
		existing.Phone = strings.TrimSpace(*input.Phone)
	}

	var c domain.Customer
	err = r.pool.QueryRow(ctx, `
		UPDATE customers
		SET customer_name = $2, document = $3, phone = $4
		WHERE id = $1
		RETURNING id, customer_name, document, phone, created_at
	`, id, existing.Name, existing.Document, existing.Phone).
		Scan(&c.ID, &c.Name, &c.Document, &c.Phone, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return &c, nil
}
