package venue

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/jonasrmichel/swap-agent/pkg/ledger"
	"github.com/jonasrmichel/swap-agent/pkg/types"
)

var (
	// ErrPriceLimit is returned when a swap's computed output falls below
	// the leg's minimum amount out.
	ErrPriceLimit = errors.New("venue: output below minimum amount out")

	// ErrNoLiquidity is returned when the pool cannot cover the output.
	ErrNoLiquidity = errors.New("venue: insufficient pool liquidity")

	// ErrUnsupportedPair is returned for an asset pair the pool does not
	// hold.
	ErrUnsupportedPair = errors.New("venue: unsupported asset pair")
)

// PoolConfig describes one simulated AMM venue: its fee and the reserves it
// is seeded with. Reserves live in the ledger under the pool's own account,
// so pool state participates in the same transaction scope as user funds.
type PoolConfig struct {
	Venue    types.Venue            `json:"venue"`
	FeeBps   uint16                 `json:"fee_bps"`
	Reserves map[types.Asset]uint64 `json:"reserves"`
}

// AMM is a constant-product market maker standing in for an external venue.
// Each instance serves one venue tag with its own fee and liquidity, the
// way each DEX client carried its own pricing behavior upstream.
type AMM struct {
	venue  types.Venue
	feeBps uint16
	pool   types.Address
	signer ledger.Signer
	log    *zap.Logger
}

// NewAMM creates an AMM adapter for cfg and seeds its reserves into the
// ledger. A nil logger disables logging.
func NewAMM(l *ledger.Ledger, cfg PoolConfig, log *zap.Logger) *AMM {
	if log == nil {
		log = zap.NewNop()
	}
	pool := types.AddressOf("pool:" + string(cfg.Venue))
	for asset, amount := range cfg.Reserves {
		l.Credit(pool, asset, amount)
	}
	return &AMM{
		venue:  cfg.Venue,
		feeBps: cfg.FeeBps,
		pool:   pool,
		signer: ledger.WalletSigner(pool),
		log:    log.Named("venue." + string(cfg.Venue)),
	}
}

// Venue returns the tag this adapter serves.
func (a *AMM) Venue() types.Venue {
	return a.venue
}

// Pool returns the ledger account holding this venue's reserves.
func (a *AMM) Pool() types.Address {
	return a.pool
}

// Quote computes the output for amountIn against the current reserves
// without mutating anything.
func (a *AMM) Quote(ec ExecContext, assetIn, assetOut types.Asset, amountIn uint64) (uint64, error) {
	reserveIn := ec.Tx.BalanceOf(a.pool, assetIn)
	reserveOut := ec.Tx.BalanceOf(a.pool, assetOut)
	if reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("%w: %s/%s on %s", ErrUnsupportedPair, assetIn, assetOut, a.venue)
	}
	return constantProductOut(reserveIn, reserveOut, amountIn, a.feeBps), nil
}

// Swap executes one leg against the pool. All checks run before any
// mutation, so a failed swap leaves the transaction untouched.
func (a *AMM) Swap(ctx context.Context, ec ExecContext, leg types.SwapLeg) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := a.Quote(ec, leg.AssetIn, leg.AssetOut, leg.AmountIn)
	if err != nil {
		return err
	}
	if out < leg.MinimumAmountOut {
		return fmt.Errorf("%w: got %d, want at least %d on %s",
			ErrPriceLimit, out, leg.MinimumAmountOut, a.venue)
	}
	if out >= ec.Tx.BalanceOf(a.pool, leg.AssetOut) {
		return fmt.Errorf("%w: %s on %s", ErrNoLiquidity, leg.AssetOut, a.venue)
	}

	if err := ec.Tx.Transfer(ec.Signer, ec.User, a.pool, leg.AssetIn, leg.AmountIn); err != nil {
		return err
	}
	if err := ec.Tx.Transfer(a.signer, a.pool, ec.User, leg.AssetOut, out); err != nil {
		return err
	}

	a.log.Debug("swap filled",
		zap.String("user", ec.User.Short()),
		zap.Uint64("amount_in", leg.AmountIn),
		zap.Uint64("amount_out", out),
		zap.String("asset_in", string(leg.AssetIn)),
		zap.String("asset_out", string(leg.AssetOut)))
	return nil
}

// constantProductOut computes the x*y=k output for amountIn after the fee.
// math/big keeps the intermediate product from overflowing uint64.
func constantProductOut(reserveIn, reserveOut, amountIn uint64, feeBps uint16) uint64 {
	inAfterFee := new(big.Int).Mul(
		new(big.Int).SetUint64(amountIn),
		big.NewInt(int64(10000-feeBps)),
	)
	num := new(big.Int).Mul(inAfterFee, new(big.Int).SetUint64(reserveOut))
	den := new(big.Int).Add(
		new(big.Int).Mul(new(big.Int).SetUint64(reserveIn), big.NewInt(10000)),
		inAfterFee,
	)
	return new(big.Int).Div(num, den).Uint64()
}
