package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"backend/internal/domain"
)

type ProductListFilter struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

type ProductCreateInput struct {
	SKU   string
	Name  string
	Price decimal.Decimal
}

type ProductPatchInput struct {
	Name   *string
	Price  *decimal.Decimal
	Active *bool
}

const productColumns = `
	id,
	sku,
	product_name,
	price::text,
	cost::text,
	quantity,
	active,
	created_at,
	updated_at
`

func (r *Repository) ListProducts(ctx context.Context, filter ProductListFilter) ([]domain.Product, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)
	search := strings.TrimSpace(filter.Search)

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR product_name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
			AND (NOT $2 OR active)
		ORDER BY id ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, search, filter.ActiveOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &product, nil
}

func (r *Repository) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE sku = $1
	`, sku)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %q: %w", sku, err)
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, input ProductCreateInput) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (sku, product_name, price)
		VALUES ($1, $2, $3)
		RETURNING `+productColumns+`
	`, input.SKU, input.Name, input.Price.String())
	product, err := scanProduct(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.Product{}, domain.Invalidf("product code %q is already taken", input.SKU)
		}
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// PatchProduct updates the author-set fields: name, sale price and the active
// flag. Cost and quantity are owned by the movement paths and cannot be
// edited here.
func (r *Repository) PatchProduct(ctx context.Context, id int64, input ProductPatchInput) (*domain.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin patch product tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load product for patch: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.Invalidf("product name cannot be empty")
		}
		product.Name = name
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, domain.Invalidf("price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.Active != nil {
		product.Active = *input.Active
	}

	row = tx.QueryRow(ctx, `
		UPDATE products
		SET product_name = $2, price = $3, active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns+`
	`, id, product.Name, product.Price.String(), product.Active)
	updated, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit patch product tx: %w", err)
	}
	return &updated, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		product   domain.Product
		priceRaw  string
		costRaw   string
	)
	if err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&priceRaw,
		&costRaw,
		&product.Quantity,
		&product.Active,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}

	var err error
	if product.Price, err = parseDecimal(priceRaw); err != nil {
		return domain.Product{}, fmt.Errorf("parse product price: %w", err)
	}
	if product.Cost, err = parseDecimal(costRaw); err != nil {
		return domain.Product{}, fmt.Errorf("parse product cost: %w", err)
	}
	return product, nil
}
