package domain

import "github.com/shopspring/decimal"

// SaleItemInput is one requested (product, quantity) pair.
type SaleItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// MergeSaleItems collapses duplicate product references by summing their
// quantities, keeping first-seen order. Quantities must be positive integers
// and the merged list must be non-empty.
func MergeSaleItems(items []SaleItemInput) ([]SaleItemInput, error) {
	merged := make([]SaleItemInput, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, item := range items {
		if item.ProductID <= 0 {
			return nil, Invalidf("invalid product reference")
		}
		if item.Quantity <= 0 {
			return nil, Invalidf("quantity must be a positive integer")
		}
		if at, ok := index[item.ProductID]; ok {
			merged[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	if len(merged) == 0 {
		return nil, Invalidf("sale must contain at least one item")
	}
	return merged, nil
}

// SaleDraft is a fully validated, fully priced sale ready to be committed.
// Lines carry the price and cost snapshots; the stock and cash movements the
// commit must write are derived from the draft, so a draft always describes a
// referentially complete sale.
type SaleDraft struct {
	CustomerID    int64
	EmployeeID    int64
	Total         decimal.Decimal
	PaidNow       decimal.Decimal
	PaymentMethod *PaymentMethod
	Lines         []SaleLine
}

// BuildSaleDraft runs the sale validation sequence against the current
// product state and produces the draft. It writes nothing; any error means
// the whole sale is rejected.
func BuildSaleDraft(
	customerID int64,
	employeeID int64,
	products map[int64]Product,
	items []SaleItemInput,
	paidNow decimal.Decimal,
	method *PaymentMethod,
) (SaleDraft, error) {
	merged, err := MergeSaleItems(items)
	if err != nil {
		return SaleDraft{}, err
	}

	lines := make([]SaleLine, 0, len(merged))
	total := decimal.Zero
	for _, item := range merged {
		product, ok := products[item.ProductID]
		if !ok {
			return SaleDraft{}, Invalidf("product %d not found", item.ProductID)
		}
		if !product.Active {
			return SaleDraft{}, Invalidf("product %q is inactive", product.Name)
		}
		line := SaleLine{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			UnitCost:  product.Cost,
		}
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}

	if !paidNow.IsInteger() {
		return SaleDraft{}, Invalidf("paid amount must be an integer")
	}
	if paidNow.IsNegative() {
		return SaleDraft{}, Invalidf("paid amount cannot be negative")
	}
	if paidNow.GreaterThan(total) {
		return SaleDraft{}, Invalidf("paid amount %s exceeds sale total %s", paidNow, total)
	}
	if paidNow.IsPositive() && method == nil {
		return SaleDraft{}, Invalidf("payment method is required when paying")
	}
	if !paidNow.IsPositive() && method != nil {
		return SaleDraft{}, Invalidf("payment method must be empty when nothing is paid")
	}

	return SaleDraft{
		CustomerID:    customerID,
		EmployeeID:    employeeID,
		Total:         total,
		PaidNow:       paidNow,
		PaymentMethod: method,
		Lines:         lines,
	}, nil
}

// StockMovements derives the inventory outflows the commit writes: one SALE
// movement per line, negative delta, no entry cost. SaleID is filled in by
// the commit once the header id is known.
func (d SaleDraft) StockMovements() []StockMovement {
	movements := make([]StockMovement, 0, len(d.Lines))
	for _, line := range d.Lines {
		movements = append(movements, StockMovement{
			ProductID:     line.ProductID,
			Kind:          MovementSale,
			QuantityDelta: -line.Quantity,
			EmployeeID:    d.EmployeeID,
		})
	}
	return movements
}

// CashMovements derives the ledger postings: a CHARGE for the total, plus a
// PAYMENT when something was paid at sale time.
func (d SaleDraft) CashMovements() []CashMovement {
	entries := []CashMovement{{
		CustomerID: d.CustomerID,
		Kind:       CashCharge,
		Amount:     d.Total,
		EmployeeID: d.EmployeeID,
	}}
	if d.PaidNow.IsPositive() {
		entries = append(entries, CashMovement{
			CustomerID:    d.CustomerID,
			Kind:          CashPayment,
			Amount:        d.PaidNow,
			PaymentMethod: d.PaymentMethod,
			EmployeeID:    d.EmployeeID,
		})
	}
	return entries
}
