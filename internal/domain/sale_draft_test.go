package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/domain"
)

func testProducts() map[int64]domain.Product {
	return map[int64]domain.Product{
		1: {
			ID:     1,
			SKU:    "CAM-001",
			Name:   "Camiseta",
			Price:  decimal.RequireFromString("50"),
			Cost:   decimal.RequireFromString("30"),
			Active: true,
		},
		2: {
			ID:     2,
			SKU:    "MED-001",
			Name:   "Medias",
			Price:  decimal.RequireFromString("20"),
			Cost:   decimal.RequireFromString("10"),
			Active: true,
		},
		3: {
			ID:     3,
			SKU:    "GOR-001",
			Name:   "Gorra",
			Price:  decimal.RequireFromString("35"),
			Cost:   decimal.RequireFromString("15"),
			Active: false,
		},
	}
}

func method(m domain.PaymentMethod) *domain.PaymentMethod { return &m }

func TestMergeSaleItems_SumsDuplicates(t *testing.T) {
	merged, err := domain.MergeSaleItems([]domain.SaleItemInput{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.SaleItemInput{
		{ProductID: 1, Quantity: 5},
		{ProductID: 2, Quantity: 1},
	}, merged, "duplicates collapse in first-seen order")
}

func TestMergeSaleItems_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		items []domain.SaleItemInput
	}{
		{"empty list", nil},
		{"zero quantity", []domain.SaleItemInput{{ProductID: 1, Quantity: 0}}},
		{"negative quantity", []domain.SaleItemInput{{ProductID: 1, Quantity: -2}}},
		{"missing product id", []domain.SaleItemInput{{ProductID: 0, Quantity: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.MergeSaleItems(tc.items)
			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestBuildSaleDraft_PartialPayment(t *testing.T) {
	// 2 camisetas at 50 plus 1 medias at 20, paying 60 of the 120 in cash.
	draft, err := domain.BuildSaleDraft(
		7, 3,
		testProducts(),
		[]domain.SaleItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
		decimal.RequireFromString("60"),
		method(domain.PaymentCash),
	)
	require.NoError(t, err)

	assert.Equal(t, int64(7), draft.CustomerID)
	assert.Equal(t, int64(3), draft.EmployeeID)
	assert.True(t, draft.Total.Equal(decimal.RequireFromString("120")))
	assert.True(t, draft.PaidNow.Equal(decimal.RequireFromString("60")))

	require.Len(t, draft.Lines, 2)
	assert.True(t, draft.Lines[0].UnitPrice.Equal(decimal.RequireFromString("50")))
	assert.True(t, draft.Lines[0].UnitCost.Equal(decimal.RequireFromString("30")),
		"lines snapshot the cost at sale time")
	assert.True(t, draft.Lines[0].Subtotal().Equal(decimal.RequireFromString("100")))
	assert.True(t, draft.Lines[0].Margin().Equal(decimal.RequireFromString("40")))

	// One SALE movement per line, negative delta, no entry cost.
	stock := draft.StockMovements()
	require.Len(t, stock, 2)
	assert.Equal(t, domain.MovementSale, stock[0].Kind)
	assert.Equal(t, -2, stock[0].QuantityDelta)
	assert.Nil(t, stock[0].UnitCostIn)
	assert.Equal(t, -1, stock[1].QuantityDelta)
	assert.Equal(t, int64(3), stock[0].EmployeeID)

	// A CHARGE for the full total plus a PAYMENT for what was handed over.
	cash := draft.CashMovements()
	require.Len(t, cash, 2)
	assert.Equal(t, domain.CashCharge, cash[0].Kind)
	assert.True(t, cash[0].Amount.Equal(decimal.RequireFromString("120")))
	assert.Nil(t, cash[0].PaymentMethod)
	assert.Equal(t, domain.CashPayment, cash[1].Kind)
	assert.True(t, cash[1].Amount.Equal(decimal.RequireFromString("60")))
	require.NotNil(t, cash[1].PaymentMethod)
	assert.Equal(t, domain.PaymentCash, *cash[1].PaymentMethod)

	// The customer now owes exactly the unpaid remainder.
	assert.True(t, domain.BalanceOf(cash).Equal(decimal.RequireFromString("60")))
}

func TestBuildSaleDraft_NothingPaid(t *testing.T) {
	draft, err := domain.BuildSaleDraft(
		7, 3,
		testProducts(),
		[]domain.SaleItemInput{{ProductID: 2, Quantity: 4}},
		decimal.Zero,
		nil,
	)
	require.NoError(t, err)

	cash := draft.CashMovements()
	require.Len(t, cash, 1, "no payment entry when nothing is paid")
	assert.Equal(t, domain.CashCharge, cash[0].Kind)
	assert.True(t, domain.BalanceOf(cash).Equal(draft.Total))
}

func TestBuildSaleDraft_Rejections(t *testing.T) {
	items := []domain.SaleItemInput{{ProductID: 1, Quantity: 2}}
	money := decimal.RequireFromString

	cases := []struct {
		name   string
		items  []domain.SaleItemInput
		paid   decimal.Decimal
		method *domain.PaymentMethod
	}{
		{"unknown product", []domain.SaleItemInput{{ProductID: 99, Quantity: 1}}, decimal.Zero, nil},
		{"inactive product", []domain.SaleItemInput{{ProductID: 3, Quantity: 1}}, decimal.Zero, nil},
		{"fractional payment", items, money("10.5"), method(domain.PaymentCash)},
		{"negative payment", items, money("-10"), method(domain.PaymentCash)},
		{"overpayment", items, money("200"), method(domain.PaymentCash)},
		{"payment without method", items, money("50"), nil},
		{"method without payment", items, decimal.Zero, method(domain.PaymentCash)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.BuildSaleDraft(7, 3, testProducts(), tc.items, tc.paid, tc.method)
			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr, "expected a validation error")
		})
	}
}

func TestBuildSaleDraft_MergedItemsPriceOnce(t *testing.T) {
	// The same product split across two request lines becomes one line.
	draft, err := domain.BuildSaleDraft(
		7, 3,
		testProducts(),
		[]domain.SaleItemInput{
			{ProductID: 1, Quantity: 1},
			{ProductID: 1, Quantity: 2},
		},
		decimal.Zero,
		nil,
	)
	require.NoError(t, err)

	require.Len(t, draft.Lines, 1)
	assert.Equal(t, 3, draft.Lines[0].Quantity)
	assert.True(t, draft.Total.Equal(decimal.RequireFromString("150")))
	require.Len(t, draft.StockMovements(), 1)
	assert.Equal(t, -3, draft.StockMovements()[0].QuantityDelta)
}
