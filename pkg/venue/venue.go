// Package venue provides swap venue adapters and their registry.
package venue

import (
	"context"

	"github.com/jonasrmichel/swap-agent/pkg/ledger"
	"github.com/jonasrmichel/swap-agent/pkg/types"
)

// ExecContext carries the shared balance view one execution runs against.
// Every adapter call within a request sees the effects of earlier legs
// through the same transaction scope.
type ExecContext struct {
	// Tx is the enclosing ledger transaction. Adapters mutate balances
	// only through it, so a failed execution rolls back every leg.
	Tx *ledger.Tx

	// User is the account whose funds are being routed.
	User types.Address

	// Signer authorizes debits from the user account.
	Signer ledger.Signer
}

// Adapter executes a single swap leg on one venue. The only observable side
// effect is a balance change through ec.Tx; on error an adapter must have
// made no mutation at all.
type Adapter interface {
	// Venue returns the tag this adapter serves.
	Venue() types.Venue

	// Swap executes one leg: debits leg.AmountIn of leg.AssetIn from the
	// user and credits at least leg.MinimumAmountOut of leg.AssetOut, or
	// fails without effect.
	Swap(ctx context.Context, ec ExecContext, leg types.SwapLeg) error
}

// Registry maps venue tags to adapters. Adding a venue means registering
// one adapter; engine control flow never changes.
type Registry struct {
	adapters map[types.Venue]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[types.Venue]Adapter),
	}
}

// Register adds an adapter, replacing any previous binding for its venue.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Venue()] = a
}

// Get retrieves the adapter for a venue tag.
func (r *Registry) Get(v types.Venue) (Adapter, bool) {
	a, ok := r.adapters[v]
	return a, ok
}

// Venues returns the tags with a registered adapter.
func (r *Registry) Venues() []types.Venue {
	result := make([]types.Venue, 0, len(r.adapters))
	for v := range r.adapters {
		result = append(result, v)
	}
	return result
}
