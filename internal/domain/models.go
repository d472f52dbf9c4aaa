package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind classifies a stock movement. The set is closed: values are
// validated at the boundary and internal code never sees anything else.
type MovementKind string

const (
	MovementReplenish MovementKind = "REPLENISH"
	MovementSale      MovementKind = "SALE"
	MovementAdjust    MovementKind = "ADJUST"
)

func ParseMovementKind(raw string) (MovementKind, error) {
	switch MovementKind(raw) {
	case MovementReplenish, MovementSale, MovementAdjust:
		return MovementKind(raw), nil
	}
	return "", Invalidf("invalid movement kind: %q", raw)
}

// CashKind classifies a cash ledger entry.
type CashKind string

const (
	CashCharge  CashKind = "CHARGE"
	CashPayment CashKind = "PAYMENT"
)

func ParseCashKind(raw string) (CashKind, error) {
	switch CashKind(raw) {
	case CashCharge, CashPayment:
		return CashKind(raw), nil
	}
	return "", Invalidf("invalid cash movement kind: %q", raw)
}

// PaymentMethod is required on PAYMENT entries and forbidden on CHARGE entries.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentOther    PaymentMethod = "OTHER"
)

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(raw) {
	case PaymentCash, PaymentTransfer, PaymentOther:
		return PaymentMethod(raw), nil
	}
	return "", Invalidf("invalid payment method: %q", raw)
}

type Product struct {
	ID        int64           `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Quantity  int             `json:"quantity"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// StockMovement is one row of the append-only inventory ledger. Movements are
// never updated or deleted; corrections are new movements.
type StockMovement struct {
	ID            int64            `json:"id"`
	ProductID     int64            `json:"product_id"`
	Kind          MovementKind     `json:"kind"`
	QuantityDelta int              `json:"quantity_delta"`
	UnitCostIn    *decimal.Decimal `json:"unit_cost_in,omitempty"`
	EmployeeID    int64            `json:"employee_id"`
	SaleID        *int64           `json:"sale_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

type Sale struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	EmployeeID int64           `json:"employee_id"`
	Total      decimal.Decimal `json:"total"`
	PaidNow    decimal.Decimal `json:"paid_now"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SaleLine snapshots unit price and unit cost at sale time; later price or
// cost changes on the product never touch committed lines.
type SaleLine struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

func (l SaleLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l SaleLine) Margin() decimal.Decimal {
	return l.UnitPrice.Sub(l.UnitCost).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CashMovement is one row of the append-only customer cash ledger.
type CashMovement struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"customer_id"`
	Kind          CashKind        `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod *PaymentMethod  `json:"payment_method,omitempty"`
	EmployeeID    int64           `json:"employee_id"`
	SaleID        *int64          `json:"sale_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// KardexEntry is one annotated row of a product's movement history: the
// movement itself plus running balance, weighted-average cost and stock value.
type KardexEntry struct {
	MovementID   int64           `json:"movement_id"`
	At           time.Time       `json:"at"`
	Kind         MovementKind    `json:"kind"`
	EntryUnits   int             `json:"entry_units"`
	ExitUnits    int             `json:"exit_units"`
	BalanceUnits int             `json:"balance_units"`
	AverageCost  decimal.Decimal `json:"average_cost"`
	BalanceValue decimal.Decimal `json:"balance_value"`
}

// CustomerBalance is a derived debtor view row.
type CustomerBalance struct {
	CustomerID int64           `json:"customer_id"`
	Name       string          `json:"name"`
	Document   string          `json:"document"`
	Phone      string          `json:"phone"`
	Balance    decimal.Decimal `json:"balance"`
}

// BalanceOf sums a customer's cash movements: charges minus payments. The sum
// is order-independent and exact (decimal arithmetic, never floats).
func BalanceOf(movements []CashMovement) decimal.Decimal {
	balance := decimal.Zero
	for _, m := range movements {
		switch m.Kind {
		case CashCharge:
			balance = balance.Add(m.Amount)
		case CashPayment:
			balance = balance.Sub(m.Amount)
		}
	}
	return balance
}
