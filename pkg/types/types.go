// Package types defines core data structures for the swap agent.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Address is a 32-byte identity: a wallet, a derived record address, or a
// vault account. Comparable, usable as a map key.
type Address [32]byte

// ZeroAddress is the empty identity.
var ZeroAddress Address

// AddressOf derives a stable address from an arbitrary seed string.
func AddressOf(seed string) Address {
	return Address(sha256.Sum256([]byte(seed)))
}

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns a truncated form for log output.
func (a Address) Short() string {
	s := a.String()
	return s[:8] + ".." + s[len(s)-4:]
}

// IsZero reports whether the address is the zero identity.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Asset identifies a token mint, e.g. "SOL", "USDC".
type Asset string

// Venue identifies an external exchange a swap leg routes through.
type Venue string

const (
	VenueJupiter Venue = "jupiter"
	VenueRaydium Venue = "raydium"
	VenuePhoenix Venue = "phoenix"
	VenueMeteora Venue = "meteora"
)

// KnownVenues lists the venue tags this build ships adapters for.
var KnownVenues = []Venue{VenueJupiter, VenueRaydium, VenuePhoenix, VenueMeteora}

// Valid reports whether v is a known venue tag.
func (v Venue) Valid() bool {
	for _, k := range KnownVenues {
		if v == k {
			return true
		}
	}
	return false
}

// SwapLeg is one hop of a multi-step swap routed through a single venue.
// All parameters are caller-declared and passed opaquely to the adapter.
type SwapLeg struct {
	Venue            Venue  `json:"venue"`
	AmountIn         uint64 `json:"amount_in"`
	MinimumAmountOut uint64 `json:"minimum_amount_out"`
	AssetIn          Asset  `json:"asset_in"`
	AssetOut         Asset  `json:"asset_out"`
}

// SwapRequest is a caller-supplied arbitrage path with the economic bounds
// the caller is claiming for it. Not persisted.
type SwapRequest struct {
	ID             string    `json:"id"`
	ExpectedProfit uint64    `json:"expected_profit"` // minimum absolute profit claimed
	SlippageBps    uint16    `json:"slippage_bps"`    // worst-case slippage accepted
	Legs           []SwapLeg `json:"legs"`
}

// PrimaryAsset returns the asset profit is measured in: the input asset of
// the first leg. Empty if the request has no legs.
func (r *SwapRequest) PrimaryAsset() Asset {
	if len(r.Legs) == 0 {
		return ""
	}
	return r.Legs[0].AssetIn
}

// Path returns the ordered venue tags the request routes through.
func (r *SwapRequest) Path() []Venue {
	path := make([]Venue, len(r.Legs))
	for i, leg := range r.Legs {
		path[i] = leg.Venue
	}
	return path
}

// PathString renders the route as "jupiter -> raydium".
func (r *SwapRequest) PathString() string {
	parts := make([]string, len(r.Legs))
	for i, leg := range r.Legs {
		parts[i] = string(leg.Venue)
	}
	return strings.Join(parts, " -> ")
}

// AgentConfig is the per-authority configuration record: policy thresholds
// plus cumulative statistics. One record exists per authority, addressed by
// a deterministic derivation from the authority identity.
type AgentConfig struct {
	// Authority is the owning identity. Set once at creation, never
	// reassigned.
	Authority Address `json:"authority"`

	// MinProfitThreshold is the smallest acceptable absolute profit for a
	// swap request, in base units of the primary asset.
	MinProfitThreshold uint64 `json:"min_profit_threshold"`

	// MaxSlippageBps is the basis-points ceiling on caller-declared
	// slippage. At most 10000.
	MaxSlippageBps uint16 `json:"max_slippage_bps"`

	// TotalTrades counts successful executions. Never decreases.
	TotalTrades uint64 `json:"total_trades"`

	// TotalProfit accumulates realized profit across successful
	// executions. Never decreases.
	TotalProfit uint64 `json:"total_profit"`

	// Bump is the derivation disambiguator proving the record's address.
	// Needed only by the storage and signing substrate.
	Bump uint8 `json:"bump"`
}

// ExecutionResult is the audit event emitted for every committed execution.
type ExecutionResult struct {
	ID        string    `json:"id"`
	Actor     Address   `json:"actor"`
	Profit    uint64    `json:"profit"`
	Path      []Venue   `json:"path"`
	TradeID   uint64    `json:"trade_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PathString renders the traversed route as "jupiter -> raydium".
func (e *ExecutionResult) PathString() string {
	parts := make([]string, len(e.Path))
	for i, v := range e.Path {
		parts[i] = string(v)
	}
	return strings.Join(parts, " -> ")
}

// String returns a one-line summary for log output.
func (e *ExecutionResult) String() string {
	return fmt.Sprintf("trade #%d by %s: profit=%d via %s",
		e.TradeID, e.Actor.Short(), e.Profit, e.PathString())
}
