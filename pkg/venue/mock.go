package venue

import (
	"context"

	"github.com/jonasrmichel/swap-agent/pkg/types"
)

// Mock is a scripted adapter for tests. Each call pops the next scripted
// fill or error; by default it credits exactly the leg's minimum amount out
// after debiting the input.
type Mock struct {
	Tag types.Venue

	// Script, if non-empty, is consumed one entry per Swap call.
	Script []MockFill

	// Calls records every leg dispatched to this adapter.
	Calls []types.SwapLeg

	next int
}

// MockFill scripts one Swap call: an error, or an explicit output amount
// (0 means fill at the leg's minimum amount out).
type MockFill struct {
	Out uint64
	Err error
}

// NewMock creates a mock adapter for tag.
func NewMock(tag types.Venue) *Mock {
	return &Mock{Tag: tag}
}

// Venue returns the mocked tag.
func (m *Mock) Venue() types.Venue {
	return m.Tag
}

// Swap consumes the next scripted fill. Balance effects go through the
// execution context like a real adapter, so rollback behavior is exercised
// for real.
func (m *Mock) Swap(ctx context.Context, ec ExecContext, leg types.SwapLeg) error {
	m.Calls = append(m.Calls, leg)

	fill := MockFill{}
	if m.next < len(m.Script) {
		fill = m.Script[m.next]
		m.next++
	}
	if fill.Err != nil {
		return fill.Err
	}

	out := fill.Out
	if out == 0 {
		out = leg.MinimumAmountOut
	}

	if err := ec.Tx.Debit(ec.User, leg.AssetIn, leg.AmountIn); err != nil {
		return err
	}
	return ec.Tx.Credit(ec.User, leg.AssetOut, out)
}
