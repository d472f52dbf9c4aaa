package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"backend/internal/domain"
	"backend/internal/kardex"
	"backend/internal/repository"
)

// SaleInput is a proposed sale as it arrives at the boundary. The payment
// method is still a raw string here; it is parsed into the closed enum before
// anything else happens.
type SaleInput struct {
	CustomerID    int64
	EmployeeID    int64
	Items         []domain.SaleItemInput
	PaidNow       decimal.Decimal
	PaymentMethod string
}

// CreateSale validates and commits a sale. Validation failures reject the
// whole request before any write; the commit itself is a single transaction,
// so a failure there leaves nothing behind either.
func (s *Service) CreateSale(ctx context.Context, input SaleInput) (*domain.Sale, error) {
	if input.CustomerID <= 0 {
		return nil, domain.Invalidf("customer is required")
	}
	if input.EmployeeID <= 0 {
		return nil, domain.Invalidf("employee is required")
	}

	var method *domain.PaymentMethod
	if raw := strings.TrimSpace(input.PaymentMethod); raw != "" {
		parsed, err := domain.ParsePaymentMethod(raw)
		if err != nil {
			return nil, err
		}
		method = &parsed
	}

	return s.repo.CommitSale(ctx, input.CustomerID, input.EmployeeID, input.Items, input.PaidNow, method)
}

// Replenish records a positive stock entry at a known unit cost and updates
// the product's weighted-average cost atomically with the movement.
func (s *Service) Replenish(ctx context.Context, input repository.ReplenishInput) (*domain.StockMovement, error) {
	if input.ProductID <= 0 {
		return nil, domain.Invalidf("product is required")
	}
	if input.EmployeeID <= 0 {
		return nil, domain.Invalidf("employee is required")
	}
	if input.Quantity <= 0 {
		return nil, domain.Invalidf("replenishment quantity must be positive")
	}
	if input.UnitCost.IsNegative() {
		return nil, domain.Invalidf("unit cost cannot be negative")
	}
	return s.repo.Replenish(ctx, input)
}

// Adjust records a manual stock correction. No cost is accepted: positive
// deltas enter at the current average cost, negative ones exit at it.
func (s *Service) Adjust(ctx context.Context, input repository.AdjustInput) (*domain.StockMovement, error) {
	if input.ProductID <= 0 {
		return nil, domain.Invalidf("product is required")
	}
	if input.EmployeeID <= 0 {
		return nil, domain.Invalidf("employee is required")
	}
	if input.QuantityDelta == 0 {
		return nil, domain.Invalidf("adjustment quantity cannot be zero")
	}
	return s.repo.Adjust(ctx, input)
}

// CashMovementInput is a manual ledger entry as it arrives at the boundary.
type CashMovementInput struct {
	CustomerID    int64
	Kind          string
	Amount        decimal.Decimal
	PaymentMethod string
	EmployeeID    int64
	SaleID        *int64
}

// CreateCashMovement records a standalone charge or payment. A charge never
// carries a payment method; a payment always does.
func (s *Service) CreateCashMovement(ctx context.Context, input CashMovementInput) (*domain.CashMovement, error) {
	if input.CustomerID <= 0 {
		return nil, domain.Invalidf("customer is required")
	}
	if input.EmployeeID <= 0 {
		return nil, domain.Invalidf("employee is required")
	}
	kind, err := domain.ParseCashKind(strings.TrimSpace(input.Kind))
	if err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, domain.Invalidf("amount must be positive")
	}

	var method *domain.PaymentMethod
	rawMethod := strings.TrimSpace(input.PaymentMethod)
	switch kind {
	case domain.CashCharge:
		if rawMethod != "" {
			return nil, domain.Invalidf("a charge cannot carry a payment method")
		}
	case domain.CashPayment:
		if rawMethod == "" {
			return nil, domain.Invalidf("a payment requires a payment method")
		}
		parsed, err := domain.ParsePaymentMethod(rawMethod)
		if err != nil {
			return nil, err
		}
		method = &parsed
	}

	return s.repo.CreateCashMovement(ctx, domain.CashMovement{
		CustomerID:    input.CustomerID,
		Kind:          kind,
		Amount:        input.Amount,
		PaymentMethod: method,
		EmployeeID:    input.EmployeeID,
		SaleID:        input.SaleID,
	})
}

// ProductKardex replays the product's full movement log into kardex rows.
func (s *Service) ProductKardex(ctx context.Context, productID int64) ([]domain.KardexEntry, error) {
	if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	log, err := s.repo.ProductMovementLog(ctx, productID)
	if err != nil {
		return nil, err
	}
	return kardex.Build(log), nil
}

// StockView pairs a product's cached quantity and cost with the values its
// movement log replays to. The two agree unless something bypassed the
// transactional write paths.
type StockView struct {
	Product        domain.Product  `json:"product"`
	ReplayQuantity int             `json:"replay_quantity"`
	ReplayCost     decimal.Decimal `json:"replay_cost"`
	ReplayValue    decimal.Decimal `json:"replay_value"`
}

func (s *Service) ProductStock(ctx context.Context, productID int64) (*StockView, error) {
	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	log, err := s.repo.ProductMovementLog(ctx, productID)
	if err != nil {
		return nil, err
	}

	state := kardex.State{AverageCost: decimal.Zero, Value: decimal.Zero}
	for _, movement := range log {
		state, _, _ = state.Apply(movement)
	}
	return &StockView{
		Product:        *product,
		ReplayQuantity: state.Units,
		ReplayCost:     state.AverageCost,
		ReplayValue:    state.Value,
	}, nil
}
