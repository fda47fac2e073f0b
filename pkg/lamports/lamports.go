// Package lamports provides base-unit amount conversion and formatting.
package lamports

import (
	"github.com/shopspring/decimal"
)

// PerSOL is the number of lamports in one SOL.
const PerSOL = 1_000_000_000

// BpsDenominator is the basis-point scale: 10000 bps = 100%.
const BpsDenominator = 10_000

// ToSOL converts lamports to a SOL-denominated decimal.
func ToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-9)
}

// FromSOL converts a SOL-denominated decimal to lamports, truncating
// fractional lamports.
func FromSOL(sol decimal.Decimal) uint64 {
	return uint64(sol.Shift(9).IntPart())
}

// FormatSOL formats lamports as SOL with full 9-decimal precision.
func FormatSOL(lamports uint64) string {
	return ToSOL(lamports).StringFixed(9)
}

// FormatAmount formats a token amount given the mint's decimal count.
func FormatAmount(amount uint64, decimals int32) string {
	return decimal.NewFromUint64(amount).Shift(-decimals).StringFixed(decimals)
}

// MinAmountOut applies a worst-case slippage tolerance to an expected output
// amount, returning the floor the caller should accept.
func MinAmountOut(amount uint64, slippageBps uint16) uint64 {
	d := decimal.NewFromUint64(amount).
		Mul(decimal.NewFromInt(int64(BpsDenominator - int(slippageBps)))).
		Div(decimal.NewFromInt(BpsDenominator))
	return uint64(d.IntPart())
}

// Profit returns final − initial floored at zero: balance deltas never wrap
// negative.
func Profit(initial, final uint64) uint64 {
	if final <= initial {
		return 0
	}
	return final - initial
}

// SaturatingAdd adds two uint64 values, clamping at the numeric ceiling
// instead of wrapping.
func SaturatingAdd(a, b uint64) uint64 {
	if sum := a + b; sum >= a {
		return sum
	}
	return ^uint64(0)
}
