package agent

import (
	"errors"
	"fmt"

	"github.com/jonasrmichel/swap-agent/pkg/types"
)

var (
	// ErrInsufficientProfit rejects a request whose declared profit is
	// below the agent's minimum threshold.
	ErrInsufficientProfit = errors.New("insufficient profit for arbitrage")

	// ErrExcessiveSlippage rejects a request whose declared slippage
	// exceeds the agent's ceiling.
	ErrExcessiveSlippage = errors.New("slippage exceeds maximum allowed")

	// ErrProfitTargetNotMet aborts an execution whose measured profit
	// fell short of the declared expectation.
	ErrProfitTargetNotMet = errors.New("profit target was not met")

	// ErrInvalidDexConfig rejects an unknown venue tag or an invalid
	// agent configuration.
	ErrInvalidDexConfig = errors.New("invalid DEX configuration")

	// ErrSwapPathTooLong rejects an empty path or one longer than
	// MaxSwapPath.
	ErrSwapPathTooLong = errors.New("swap path too long")

	// ErrUnauthorized rejects a caller whose identity is not the record's
	// authority.
	ErrUnauthorized = errors.New("caller is not the agent authority")

	// ErrTransferFailure wraps a failed balance transfer.
	ErrTransferFailure = errors.New("transfer failure")

	// ErrAgentExists is returned by Initialize when the authority already
	// has a configuration record.
	ErrAgentExists = errors.New("agent already initialized")

	// ErrAgentNotFound is returned when no configuration record exists
	// for the authority.
	ErrAgentNotFound = errors.New("agent not initialized")

	// ErrVenueFailure is the class every VenueError matches.
	ErrVenueFailure = errors.New("venue failure")
)

// VenueError reports a failed swap leg: which venue, which leg index, and
// the adapter's cause. Matches ErrVenueFailure under errors.Is.
type VenueError struct {
	Venue types.Venue
	Leg   int
	Cause error
}

// Error describes the failed leg.
func (e *VenueError) Error() string {
	return fmt.Sprintf("venue %s failed at leg %d: %v", e.Venue, e.Leg, e.Cause)
}

// Unwrap exposes the adapter's cause.
func (e *VenueError) Unwrap() error {
	return e.Cause
}

// Is matches the ErrVenueFailure class.
func (e *VenueError) Is(target error) bool {
	return target == ErrVenueFailure
}
