package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"backend/internal/config"
	"backend/internal/db"
	"backend/internal/excel"
	"backend/internal/repository"
)

type options struct {
	stockPath  string
	employeeID int64
	dryRun     bool
}

func main() {
	opts := parseFlags()

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

	if err := db.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	rows, err := readStockRows(opts.stockPath)
	if err != nil {
		log.Fatalf("read stock file: %v", err)
	}

	repo := repository.New(pool)
	created, replenished, err := importRows(ctx, repo, rows, opts)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf(
		"import complete: rows=%d products_created=%d replenishments=%d dry_run=%v",
		len(rows), created, replenished, opts.dryRun,
	)
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.stockPath, "stock", "stock.xlsx", "path to the opening stock workbook")
	flag.Int64Var(&opts.employeeID, "employee", 0, "employee id recorded on the opening movements")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "parse and report without writing anything")
	flag.Parse()
	if opts.employeeID <= 0 && !opts.dryRun {
		log.Fatal("missing required --employee flag")
	}
	return opts
}

func readStockRows(path string) ([]excel.OpeningStockRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	rows, err := excel.ParseOpeningStock(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}

// importRows creates any missing products, then posts one replenishment per
// row so the opening quantities enter the movement log with their real cost.
func importRows(
	ctx context.Context,
	repo *repository.Repository,
	rows []excel.OpeningStockRow,
	opts options,
) (created int, replenished int, err error) {
	for _, row := range rows {
		product, err := repo.GetProductBySKU(ctx, row.SKU)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return created, replenished, err
			}
			if opts.dryRun {
				log.Printf("would create product sku=%s name=%q", row.SKU, row.Name)
				created++
				continue
			}
			fresh, err := repo.CreateProduct(ctx, repository.ProductCreateInput{
				SKU:   row.SKU,
				Name:  row.Name,
				Price: row.Price,
			})
			if err != nil {
				return created, replenished, fmt.Errorf("create product sku=%s: %w", row.SKU, err)
			}
			product = &fresh
			created++
		}

		if product.Quantity != 0 {
			log.Printf("skip sku=%s: already has stock (%d units)", row.SKU, product.Quantity)
			continue
		}
		if opts.dryRun {
			log.Printf("would replenish sku=%s qty=%d cost=%s", row.SKU, row.Quantity, row.UnitCost)
			replenished++
			continue
		}
		if _, err := repo.Replenish(ctx, repository.ReplenishInput{
			ProductID:  product.ID,
			Quantity:   row.Quantity,
			UnitCost:   row.UnitCost,
			EmployeeID: opts.employeeID,
		}); err != nil {
			return created, replenished, fmt.Errorf("replenish sku=%s: %w", row.SKU, err)
		}
		replenished++
	}
	return created, replenished, nil
}
