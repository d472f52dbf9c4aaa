// Package kardex reconstructs product costing history from the immutable
// stock movement log using weighted-average cost.
//
// The same single-step transition (State.Apply) drives both the full replay
// used for kardex views and audits, and the incremental product cache update
// the write paths perform inside their transactions. Cache and replay can
// therefore never disagree on the arithmetic.
package kardex

import (
	"github.com/shopspring/decimal"

	"backend/internal/domain"
)

// State is the running valuation of one product: on-hand units, the
// weighted-average unit cost, and total stock value.
//
// Average cost reads as zero whenever units is zero; the next entry sets it
// fresh from that entry's cost. Units may go negative when the log oversells
// ahead of replenishment; the replay propagates whatever the log contains.
type State struct {
	Units       int
	AverageCost decimal.Decimal
	Value       decimal.Decimal
}

// StateOf rebuilds a valuation state from a product's cached quantity and
// cost, for write paths that update incrementally instead of replaying.
func StateOf(units int, averageCost decimal.Decimal) State {
	if units == 0 {
		averageCost = decimal.Zero
	}
	return State{
		Units:       units,
		AverageCost: averageCost,
		Value:       averageCost.Mul(decimal.NewFromInt(int64(units))),
	}
}

// Apply advances the state by one movement and reports the units that
// entered and left on this step.
//
// Rules:
//   - REPLENISH adds value at the movement's entry cost and recomputes the
//     average from the new totals.
//   - SALE removes units at the unchanged average cost; exits never move the
//     cost basis.
//   - ADJUST with positive delta enters at the current average cost; with
//     negative delta it exits like a sale.
func (s State) Apply(m domain.StockMovement) (State, int, int) {
	switch {
	case m.Kind == domain.MovementReplenish:
		unitCost := decimal.Zero
		if m.UnitCostIn != nil {
			unitCost = *m.UnitCostIn
		}
		return s.enter(m.QuantityDelta, unitCost), m.QuantityDelta, 0
	case m.Kind == domain.MovementAdjust && m.QuantityDelta > 0:
		return s.enter(m.QuantityDelta, s.AverageCost), m.QuantityDelta, 0
	default:
		// SALE, or ADJUST with negative delta.
		exit := m.QuantityDelta
		if exit < 0 {
			exit = -exit
		}
		return s.exit(exit), 0, exit
	}
}

func (s State) enter(units int, unitCost decimal.Decimal) State {
	newUnits := s.Units + units
	newValue := s.Value.Add(unitCost.Mul(decimal.NewFromInt(int64(units))))
	newAverage := decimal.Zero
	if newUnits > 0 {
		newAverage = newValue.Div(decimal.NewFromInt(int64(newUnits)))
	}
	return State{Units: newUnits, AverageCost: newAverage, Value: newValue}
}

func (s State) exit(units int) State {
	newUnits := s.Units - units
	average := s.AverageCost
	if newUnits == 0 {
		average = decimal.Zero
	}
	return State{
		Units:       newUnits,
		AverageCost: average,
		Value:       average.Mul(decimal.NewFromInt(int64(newUnits))),
	}
}

// Build replays a product's time-ordered movement log and produces one kardex
// entry per movement, in the same order. It is a total function: it never
// rejects input, it only reports what the log implies.
func Build(movements []domain.StockMovement) []domain.KardexEntry {
	entries := make([]domain.KardexEntry, 0, len(movements))
	state := State{AverageCost: decimal.Zero, Value: decimal.Zero}

	for _, m := range movements {
		next, entered, exited := state.Apply(m)
		entries = append(entries, domain.KardexEntry{
			MovementID:   m.ID,
			At:           m.CreatedAt,
			Kind:         m.Kind,
			EntryUnits:   entered,
			ExitUnits:    exited,
			BalanceUnits: next.Units,
			AverageCost:  next.AverageCost,
			BalanceValue: next.Value,
		})
		state = next
	}
	return entries
}
