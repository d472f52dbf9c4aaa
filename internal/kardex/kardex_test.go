package kardex_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/domain"
	"backend/internal/kardex"
)

func replenish(qty int, unitCost string) domain.StockMovement {
	cost := decimal.RequireFromString(unitCost)
	return domain.StockMovement{
		Kind:          domain.MovementReplenish,
		QuantityDelta: qty,
		UnitCostIn:    &cost,
	}
}

func sale(qty int) domain.StockMovement {
	return domain.StockMovement{
		Kind:          domain.MovementSale,
		QuantityDelta: -qty,
	}
}

func adjust(delta int) domain.StockMovement {
	return domain.StockMovement{
		Kind:          domain.MovementAdjust,
		QuantityDelta: delta,
	}
}

func lastEntry(t *testing.T, movements ...domain.StockMovement) domain.KardexEntry {
	t.Helper()
	entries := kardex.Build(movements)
	require.Len(t, entries, len(movements))
	return entries[len(entries)-1]
}

func TestBuild_WeightedAverageAcrossEntries(t *testing.T) {
	// 10 @ 100 then 5 @ 130 averages to exactly 110.
	entry := lastEntry(t, replenish(10, "100"), replenish(5, "130"))

	assert.Equal(t, 15, entry.BalanceUnits)
	assert.True(t, entry.AverageCost.Equal(decimal.RequireFromString("110")),
		"average cost should be 110, got %s", entry.AverageCost)
	assert.True(t, entry.BalanceValue.Equal(decimal.RequireFromString("1650")))
}

func TestBuild_SaleNeverMovesAverageCost(t *testing.T) {
	entry := lastEntry(t, replenish(10, "100"), replenish(5, "130"), sale(5))

	assert.Equal(t, 10, entry.BalanceUnits)
	assert.Equal(t, 0, entry.EntryUnits)
	assert.Equal(t, 5, entry.ExitUnits)
	assert.True(t, entry.AverageCost.Equal(decimal.RequireFromString("110")),
		"selling must not change the cost basis")
	assert.True(t, entry.BalanceValue.Equal(decimal.RequireFromString("1100")))
}

func TestBuild_ZeroBalanceResetsAverage(t *testing.T) {
	// Sell everything: average reads zero at zero balance.
	drained := lastEntry(t, replenish(10, "100"), sale(10))
	assert.Equal(t, 0, drained.BalanceUnits)
	assert.True(t, drained.AverageCost.IsZero())
	assert.True(t, drained.BalanceValue.IsZero())

	// The next entry sets the cost fresh, with no memory of the old 100.
	restocked := lastEntry(t, replenish(10, "100"), sale(10), replenish(4, "250"))
	assert.Equal(t, 4, restocked.BalanceUnits)
	assert.True(t, restocked.AverageCost.Equal(decimal.RequireFromString("250")))
	assert.True(t, restocked.BalanceValue.Equal(decimal.RequireFromString("1000")))
}

func TestBuild_NegativeBalancePropagates(t *testing.T) {
	// Overselling is recorded, not rejected: the replay reports what the log
	// implies and lets callers decide what to do about it. The average holds
	// its last value and the stock value goes negative with the balance.
	entries := kardex.Build([]domain.StockMovement{
		replenish(2, "100"),
		sale(5),
	})
	require.Len(t, entries, 2)

	oversold := entries[1]
	assert.Equal(t, -3, oversold.BalanceUnits)
	assert.True(t, oversold.AverageCost.Equal(decimal.RequireFromString("100")),
		"exits never move the cost basis, even past zero")
	assert.True(t, oversold.BalanceValue.Equal(decimal.RequireFromString("-300")))
}

func TestBuild_AdjustEntersAtCurrentAverage(t *testing.T) {
	entry := lastEntry(t, replenish(10, "100"), adjust(2))

	assert.Equal(t, 12, entry.BalanceUnits)
	assert.Equal(t, 2, entry.EntryUnits)
	assert.True(t, entry.AverageCost.Equal(decimal.RequireFromString("100")),
		"found units enter at the current average, not at some new cost")
	assert.True(t, entry.BalanceValue.Equal(decimal.RequireFromString("1200")))
}

func TestBuild_AdjustNegativeExitsLikeASale(t *testing.T) {
	entry := lastEntry(t, replenish(10, "100"), adjust(-4))

	assert.Equal(t, 6, entry.BalanceUnits)
	assert.Equal(t, 4, entry.ExitUnits)
	assert.True(t, entry.AverageCost.Equal(decimal.RequireFromString("100")))
	assert.True(t, entry.BalanceValue.Equal(decimal.RequireFromString("600")))
}

func TestBuild_RunningBalancesPerRow(t *testing.T) {
	entries := kardex.Build([]domain.StockMovement{
		replenish(10, "100"),
		sale(3),
		replenish(5, "130"),
		sale(2),
	})
	require.Len(t, entries, 4)

	balances := make([]int, 0, len(entries))
	for _, entry := range entries {
		balances = append(balances, entry.BalanceUnits)
	}
	assert.Equal(t, []int{10, 7, 12, 10}, balances)

	// 7 @ 100 plus 5 @ 130 is 1350 over 12 units: 112.5 exactly.
	assert.True(t, entries[2].AverageCost.Equal(decimal.RequireFromString("112.5")))
	assert.True(t, entries[3].AverageCost.Equal(decimal.RequireFromString("112.5")))
}

func TestBuild_EmptyLog(t *testing.T) {
	assert.Empty(t, kardex.Build(nil))
}

func TestStateOf_ZeroUnitsClampsCost(t *testing.T) {
	state := kardex.StateOf(0, decimal.RequireFromString("87.5"))
	assert.True(t, state.AverageCost.IsZero())
	assert.True(t, state.Value.IsZero())
}

func TestApply_MatchesFullReplay(t *testing.T) {
	// The incremental cache transition and the replay share one Apply, so a
	// step-by-step fold must land on the same state as Build's last row.
	movements := []domain.StockMovement{
		replenish(10, "100"),
		sale(4),
		adjust(-6),
		replenish(3, "40"),
		sale(1),
	}

	state := kardex.State{AverageCost: decimal.Zero, Value: decimal.Zero}
	for _, m := range movements {
		state, _, _ = state.Apply(m)
	}

	final := lastEntry(t, movements...)
	assert.Equal(t, final.BalanceUnits, state.Units)
	assert.True(t, final.AverageCost.Equal(state.AverageCost))
	assert.True(t, final.BalanceValue.Equal(state.Value))
}
