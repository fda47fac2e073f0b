package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressOfIsStable(t *testing.T) {
	a := AddressOf("alice")
	assert.Equal(t, a, AddressOf("alice"))
	assert.NotEqual(t, a, AddressOf("bob"))
	assert.False(t, a.IsZero())
	assert.True(t, ZeroAddress.IsZero())
	assert.Len(t, a.String(), 64)
	assert.Contains(t, a.String(), a.Short()[:8])
}

func TestVenueValid(t *testing.T) {
	for _, v := range KnownVenues {
		assert.True(t, v.Valid())
	}
	assert.False(t, Venue("orca").Valid())
	assert.False(t, Venue("").Valid())
}

func TestSwapRequestPathHelpers(t *testing.T) {
	req := &SwapRequest{
		Legs: []SwapLeg{
			{Venue: VenueJupiter, AssetIn: "SOL", AssetOut: "USDC"},
			{Venue: VenueRaydium, AssetIn: "USDC", AssetOut: "SOL"},
		},
	}
	assert.Equal(t, Asset("SOL"), req.PrimaryAsset())
	assert.Equal(t, []Venue{VenueJupiter, VenueRaydium}, req.Path())
	assert.Equal(t, "jupiter -> raydium", req.PathString())

	empty := &SwapRequest{}
	assert.Equal(t, Asset(""), empty.PrimaryAsset())
	assert.Empty(t, empty.Path())
}

func TestExecutionResultString(t *testing.T) {
	r := &ExecutionResult{
		Actor:   AddressOf("trader"),
		Profit:  200,
		Path:    []Venue{VenueJupiter},
		TradeID: 7,
	}
	s := r.String()
	assert.Contains(t, s, "trade #7")
	assert.Contains(t, s, "profit=200")
	assert.Contains(t, s, "jupiter")
}
