package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"backend/internal/domain"
	"backend/internal/repository"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListProducts(ctx context.Context, search string, activeOnly bool, limit, offset int) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, repository.ProductListFilter{
		Search:     search,
		ActiveOnly: activeOnly,
		Limit:      limit,
		Offset:     offset,
	})
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, input repository.ProductCreateInput) (domain.Product, error) {
	input.SKU = strings.TrimSpace(input.SKU)
	input.Name = strings.TrimSpace(input.Name)
	if input.SKU == "" {
		return domain.Product{}, domain.Invalidf("sku is required")
	}
	if input.Name == "" {
		return domain.Product{}, domain.Invalidf("name is required")
	}
	if input.Price.IsNegative() {
		return domain.Product{}, domain.Invalidf("price cannot be negative")
	}
	return s.repo.CreateProduct(ctx, input)
}

func (s *Service) PatchProduct(ctx context.Context, id int64, input repository.ProductPatchInput) (*domain.Product, error) {
	return s.repo.PatchProduct(ctx, id, input)
}

func (s *Service) ListCustomers(ctx context.Context, search string, limit, offset int) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx, repository.CustomerListFilter{
		Search: search,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.repo.GetCustomerByID(ctx, id)
}

func (s *Service) CreateCustomer(ctx context.Context, input repository.CustomerCreateInput) (domain.Customer, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return domain.Customer{}, domain.Invalidf("name is required")
	}
	input.Document = strings.TrimSpace(input.Document)
	input.Phone = strings.TrimSpace(input.Phone)
	return s.repo.CreateCustomer(ctx, input)
}

func (s *Service) PatchCustomer(ctx context.Context, id int64, input repository.CustomerPatchInput) (*domain.Customer, error) {
	return s.repo.PatchCustomer(ctx, id, input)
}

func (s *Service) ListStockMovements(ctx context.Context, filter repository.MovementListFilter) ([]domain.StockMovement, error) {
	return s.repo.ListStockMovements(ctx, filter)
}

func (s *Service) ListSales(ctx context.Context, filter repository.SaleListFilter) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, filter)
}

func (s *Service) GetSale(ctx context.Context, id int64) (*domain.Sale, []domain.SaleLine, []domain.CashMovement, error) {
	sale, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	lines, err := s.repo.GetSaleLines(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	cash, err := s.repo.ListCashMovements(ctx, repository.CashListFilter{SaleID: &id})
	if err != nil {
		return nil, nil, nil, err
	}
	return sale, lines, cash, nil
}

func (s *Service) ListCashMovements(ctx context.Context, filter repository.CashListFilter) ([]domain.CashMovement, error) {
	return s.repo.ListCashMovements(ctx, filter)
}

func (s *Service) Debtors(ctx context.Context) ([]domain.CustomerBalance, error) {
	return s.repo.Debtors(ctx)
}

// CustomerBalance loads a customer's full cash ledger and computes the
// outstanding balance as the exact sum of charges minus payments.
func (s *Service) CustomerBalance(ctx context.Context, customerID int64) (decimal.Decimal, []domain.CashMovement, error) {
	if _, err := s.repo.GetCustomerByID(ctx, customerID); err != nil {
		return decimal.Zero, nil, err
	}
	ledger, err := s.repo.CustomerCashLedger(ctx, customerID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return domain.BalanceOf(ledger), ledger, nil
}
