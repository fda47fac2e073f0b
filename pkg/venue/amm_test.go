package venue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasrmichel/swap-agent/pkg/ledger"
	"github.com/jonasrmichel/swap-agent/pkg/types"
)

const (
	sol  = types.Asset("SOL")
	usdc = types.Asset("USDC")
)

func newTestAMM(t *testing.T) (*ledger.Ledger, *AMM, types.Address) {
	t.Helper()
	l := ledger.New(nil)
	amm := NewAMM(l, PoolConfig{
		Venue:  types.VenueJupiter,
		FeeBps: 30,
		Reserves: map[types.Asset]uint64{
			sol:  1_000_000,
			usdc: 1_000_000,
		},
	}, nil)
	user := types.AddressOf("trader")
	l.Credit(user, sol, 100_000)
	return l, amm, user
}

func TestConstantProductOut(t *testing.T) {
	// Balanced 1:1 pool, no fee: 10000 in against 1M reserves yields
	// 1M*10000/(1M+10000) = 9900 (integer division).
	assert.Equal(t, uint64(9900), constantProductOut(1_000_000, 1_000_000, 10_000, 0))
	// Fee reduces the effective input.
	noFee := constantProductOut(1_000_000, 1_000_000, 10_000, 0)
	withFee := constantProductOut(1_000_000, 1_000_000, 10_000, 30)
	assert.Less(t, withFee, noFee)
	// Large reserves do not overflow.
	big := constantProductOut(1<<62, 1<<62, 1<<40, 30)
	assert.Greater(t, big, uint64(0))
}

func TestSwapFillsAndMovesBalances(t *testing.T) {
	l, amm, user := newTestAMM(t)

	tx := l.Begin()
	ec := ExecContext{Tx: tx, User: user, Signer: ledger.WalletSigner(user)}
	leg := types.SwapLeg{
		Venue:            types.VenueJupiter,
		AmountIn:         10_000,
		MinimumAmountOut: 9_000,
		AssetIn:          sol,
		AssetOut:         usdc,
	}
	require.NoError(t, amm.Swap(context.Background(), ec, leg))
	require.NoError(t, tx.Commit())

	assert.Equal(t, uint64(90_000), l.BalanceOf(user, sol))
	got := l.BalanceOf(user, usdc)
	assert.GreaterOrEqual(t, got, uint64(9_000))
	// Pool received the input.
	assert.Equal(t, uint64(1_010_000), l.BalanceOf(amm.Pool(), sol))
}

func TestSwapHonorsMinimumAmountOut(t *testing.T) {
	l, amm, user := newTestAMM(t)

	tx := l.Begin()
	defer tx.Rollback()
	ec := ExecContext{Tx: tx, User: user, Signer: ledger.WalletSigner(user)}
	leg := types.SwapLeg{
		Venue:            types.VenueJupiter,
		AmountIn:         10_000,
		MinimumAmountOut: 10_001, // above what the pool can pay
		AssetIn:          sol,
		AssetOut:         usdc,
	}
	err := amm.Swap(context.Background(), ec, leg)
	require.ErrorIs(t, err, ErrPriceLimit)

	// No effect on error.
	assert.Equal(t, uint64(100_000), tx.BalanceOf(user, sol))
	assert.Equal(t, uint64(0), tx.BalanceOf(user, usdc))
}

func TestSwapUnsupportedPair(t *testing.T) {
	l, amm, user := newTestAMM(t)

	tx := l.Begin()
	defer tx.Rollback()
	ec := ExecContext{Tx: tx, User: user, Signer: ledger.WalletSigner(user)}
	leg := types.SwapLeg{
		Venue:    types.VenueJupiter,
		AmountIn: 10, AssetIn: "BONK", AssetOut: usdc,
	}
	err := amm.Swap(context.Background(), ec, leg)
	assert.ErrorIs(t, err, ErrUnsupportedPair)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	m := NewMock(types.VenueRaydium)
	r.Register(m)

	got, ok := r.Get(types.VenueRaydium)
	require.True(t, ok)
	assert.Equal(t, m, got)

	_, ok = r.Get(types.VenuePhoenix)
	assert.False(t, ok)
	assert.Len(t, r.Venues(), 1)
}
