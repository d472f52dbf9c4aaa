package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/domain"
)

func charge(amount string) domain.CashMovement {
	return domain.CashMovement{
		Kind:   domain.CashCharge,
		Amount: decimal.RequireFromString(amount),
	}
}

func payment(amount string) domain.CashMovement {
	m := domain.PaymentCash
	return domain.CashMovement{
		Kind:          domain.CashPayment,
		Amount:        decimal.RequireFromString(amount),
		PaymentMethod: &m,
	}
}

func TestBalanceOf(t *testing.T) {
	ledger := []domain.CashMovement{
		charge("120"),
		payment("60"),
		charge("35.50"),
		payment("95.50"),
	}
	assert.True(t, domain.BalanceOf(ledger).IsZero(), "fully paid ledger settles to zero")

	owing := append(ledger, charge("80"))
	assert.True(t, domain.BalanceOf(owing).Equal(decimal.RequireFromString("80")))
}

func TestBalanceOf_OrderIndependent(t *testing.T) {
	forward := []domain.CashMovement{charge("100"), payment("40"), charge("15")}
	backward := []domain.CashMovement{charge("15"), payment("40"), charge("100")}

	assert.True(t, domain.BalanceOf(forward).Equal(domain.BalanceOf(backward)))
	assert.True(t, domain.BalanceOf(forward).Equal(decimal.RequireFromString("75")))
}

func TestBalanceOf_Empty(t *testing.T) {
	assert.True(t, domain.BalanceOf(nil).IsZero())
}

func TestParseMovementKind(t *testing.T) {
	for _, raw := range []string{"REPLENISH", "SALE", "ADJUST"} {
		kind, err := domain.ParseMovementKind(raw)
		require.NoError(t, err)
		assert.Equal(t, domain.MovementKind(raw), kind)
	}

	for _, raw := range []string{"", "sale", "PURCHASE", "REPLENISH "} {
		_, err := domain.ParseMovementKind(raw)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr, "raw=%q", raw)
	}
}

func TestParseCashKind(t *testing.T) {
	_, err := domain.ParseCashKind("CHARGE")
	require.NoError(t, err)
	_, err = domain.ParseCashKind("PAYMENT")
	require.NoError(t, err)

	_, err = domain.ParseCashKind("REFUND")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParsePaymentMethod(t *testing.T) {
	for _, raw := range []string{"CASH", "TRANSFER", "OTHER"} {
		m, err := domain.ParsePaymentMethod(raw)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentMethod(raw), m)
	}

	_, err := domain.ParsePaymentMethod("CARD")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSaleLine_SubtotalAndMargin(t *testing.T) {
	line := domain.SaleLine{
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("49.99"),
		UnitCost:  decimal.RequireFromString("30.25"),
	}
	assert.True(t, line.Subtotal().Equal(decimal.RequireFromString("149.97")))
	assert.True(t, line.Margin().Equal(decimal.RequireFromString("59.22")))
}
