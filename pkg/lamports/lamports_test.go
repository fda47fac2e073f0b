package lamports

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSOL(t *testing.T) {
	assert.Equal(t, "1.000000000", FormatSOL(PerSOL))
	assert.Equal(t, "0.000000001", FormatSOL(1))
	assert.Equal(t, "2.500000000", FormatSOL(2_500_000_000))
}

func TestSOLRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 999_999_999, PerSOL, 123 * PerSOL} {
		assert.Equal(t, v, FromSOL(ToSOL(v)))
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.000000", FormatAmount(1_000_000, 6))
	assert.Equal(t, "0.000001", FormatAmount(1, 6))
}

func TestMinAmountOut(t *testing.T) {
	// 1% slippage on 10000 leaves 9900.
	assert.Equal(t, uint64(9900), MinAmountOut(10000, 100))
	// Zero slippage passes through.
	assert.Equal(t, uint64(10000), MinAmountOut(10000, 0))
	// Full slippage floors at zero.
	assert.Equal(t, uint64(0), MinAmountOut(10000, 10000))
}

func TestProfit(t *testing.T) {
	assert.Equal(t, uint64(50), Profit(100, 150))
	assert.Equal(t, uint64(0), Profit(100, 100))
	// Losses floor at zero rather than wrapping.
	assert.Equal(t, uint64(0), Profit(150, 100))
}

func TestSaturatingAdd(t *testing.T) {
	assert.Equal(t, uint64(30), SaturatingAdd(10, 20))
	assert.Equal(t, uint64(math.MaxUint64), SaturatingAdd(math.MaxUint64, 1))
	assert.Equal(t, uint64(math.MaxUint64), SaturatingAdd(math.MaxUint64-5, 100))
}
