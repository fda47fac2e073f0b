package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasrmichel/swap-agent/pkg/ledger"
	"github.com/jonasrmichel/swap-agent/pkg/store"
	"github.com/jonasrmichel/swap-agent/pkg/types"
	"github.com/jonasrmichel/swap-agent/pkg/venue"
)

// TestExecuteAgainstConstantProductVenues runs the engine against two live
// AMM adapters with a price discrepancy between them: SOL is cheap on
// raydium and expensive on jupiter, so routing SOL -> USDC -> SOL closes
// the gap at a profit.
func TestExecuteAgainstConstantProductVenues(t *testing.T) {
	s := store.New(nil)
	l := ledger.New(nil)
	reg := venue.NewRegistry()

	reg.Register(venue.NewAMM(l, venue.PoolConfig{
		Venue:  types.VenueJupiter,
		FeeBps: 30,
		Reserves: map[types.Asset]uint64{
			sol:  1_000_000,
			usdc: 2_000_000, // 2 USDC per SOL
		},
	}, nil))
	reg.Register(venue.NewAMM(l, venue.PoolConfig{
		Venue:  types.VenueRaydium,
		FeeBps: 30,
		Reserves: map[types.Asset]uint64{
			sol:  2_000_000,
			usdc: 1_000_000, // 0.5 USDC per SOL
		},
	}, nil))

	e := New(s, l, reg, nil, nil)
	_, err := e.Initialize(authority, 100, 100)
	require.NoError(t, err)

	l.Credit(trader, sol, 50_000)

	req := &types.SwapRequest{
		ExpectedProfit: 20_000,
		SlippageBps:    100,
		Legs: []types.SwapLeg{
			{Venue: types.VenueJupiter, AmountIn: 10_000, MinimumAmountOut: 19_000, AssetIn: sol, AssetOut: usdc},
			{Venue: types.VenueRaydium, AmountIn: 19_000, MinimumAmountOut: 30_000, AssetIn: usdc, AssetOut: sol},
		},
	}

	result, err := e.Execute(context.Background(), authority, ledger.WalletSigner(trader), req)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Profit, uint64(20_000))
	assert.Equal(t, uint64(1), result.TradeID)
	assert.Equal(t, 50_000+result.Profit, l.BalanceOf(trader, sol),
		"profit is the measured SOL delta")

	rec, err := e.Config(authority)
	require.NoError(t, err)
	assert.Equal(t, result.Profit, rec.TotalProfit)

	// A second identical request now faces moved prices; if the measured
	// profit falls short the whole call rolls back.
	before := l.BalanceOf(trader, sol)
	_, err = e.Execute(context.Background(), authority, ledger.WalletSigner(trader), req)
	if err != nil {
		assert.Equal(t, before, l.BalanceOf(trader, sol))
		rec2, _ := e.Config(authority)
		assert.Equal(t, uint64(1), rec2.TotalTrades)
	}
}
