// Package agent implements the atomic arbitrage execution engine: parameter
// validation, sequential venue dispatch, post-condition profit verification,
// statistics commit, and audit event emission — all-or-nothing.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonasrmichel/swap-agent/pkg/events"
	"github.com/jonasrmichel/swap-agent/pkg/lamports"
	"github.com/jonasrmichel/swap-agent/pkg/ledger"
	"github.com/jonasrmichel/swap-agent/pkg/store"
	"github.com/jonasrmichel/swap-agent/pkg/types"
	"github.com/jonasrmichel/swap-agent/pkg/venue"
)

// MaxSwapPath bounds the number of legs in one request.
const MaxSwapPath = 4

// ExecutionStats tracks engine-level execution statistics, beyond the
// per-record counters.
type ExecutionStats struct {
	Attempts         int64
	Successful       int64
	Failed           int64
	RejectedUpfront  int64
	ProfitShortfalls int64
	LastExecution    time.Time
	LastError        string
}

// Engine orchestrates multi-leg swaps against the record store, the balance
// ledger, and the venue adapter registry. Operations are serialized: no two
// calls observe interleaved partial effects on the same record or balance.
type Engine struct {
	store  *store.Store
	ledger *ledger.Ledger
	venues *venue.Registry
	sink   events.Sink
	log    *zap.Logger

	mu      sync.Mutex
	stats   ExecutionStats
	statsMu sync.Mutex
}

// New creates an engine. A nil sink discards events; a nil logger disables
// logging.
func New(s *store.Store, l *ledger.Ledger, venues *venue.Registry, sink events.Sink, log *zap.Logger) *Engine {
	if sink == nil {
		sink = events.MultiSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:  s,
		ledger: l,
		venues: venues,
		sink:   sink,
		log:    log.Named("engine"),
	}
}

// Initialize creates the configuration record for authority. Exactly one
// record exists per authority; a second call fails with ErrAgentExists.
func (e *Engine) Initialize(authority types.Address, minProfitThreshold uint64, maxSlippageBps uint16) (types.AgentConfig, error) {
	if authority.IsZero() {
		return types.AgentConfig{}, fmt.Errorf("%w: zero authority", ErrInvalidDexConfig)
	}
	if maxSlippageBps > lamports.BpsDenominator {
		return types.AgentConfig{}, fmt.Errorf("%w: max slippage %d bps exceeds 10000", ErrInvalidDexConfig, maxSlippageBps)
	}

	addr, bump, err := store.Derive(store.AgentTag, authority)
	if err != nil {
		return types.AgentConfig{}, err
	}

	rec := types.AgentConfig{
		Authority:          authority,
		MinProfitThreshold: minProfitThreshold,
		MaxSlippageBps:     maxSlippageBps,
		Bump:               bump,
	}
	if err := e.store.Create(addr, rec); err != nil {
		if err == store.ErrRecordExists {
			return types.AgentConfig{}, fmt.Errorf("%w: authority %s", ErrAgentExists, authority.Short())
		}
		return types.AgentConfig{}, err
	}

	e.log.Info("agent initialized",
		zap.String("authority", authority.Short()),
		zap.String("record", addr.Short()),
		zap.Uint64("min_profit_threshold", minProfitThreshold),
		zap.Uint16("max_slippage_bps", maxSlippageBps))
	return rec, nil
}

// Config returns the configuration record for authority.
func (e *Engine) Config(authority types.Address) (types.AgentConfig, error) {
	addr, _, err := store.Derive(store.AgentTag, authority)
	if err != nil {
		return types.AgentConfig{}, err
	}
	rec, ok := e.store.Load(addr)
	if !ok {
		return types.AgentConfig{}, fmt.Errorf("%w: authority %s", ErrAgentNotFound, authority.Short())
	}
	return rec, nil
}

// Vault returns the account the agent record administers: funds held under
// the record's own derived address.
func (e *Engine) Vault(authority types.Address) (types.Address, error) {
	addr, _, err := store.Derive(store.AgentTag, authority)
	return addr, err
}

// Execute routes the request through its venue path as a single indivisible
// unit. Either every leg applies, the post-condition holds, and the record
// commits — or nothing is observable.
//
// Profit and slippage are checked twice: against caller-declared values
// before any venue is touched, and against the measured outcome after the
// last leg.
func (e *Engine) Execute(ctx context.Context, authority types.Address, caller ledger.Signer, req *types.SwapRequest) (*types.ExecutionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bumpAttempts()

	addr, _, err := store.Derive(store.AgentTag, authority)
	if err != nil {
		return nil, e.fail(err)
	}
	rec, ok := e.store.Load(addr)
	if !ok {
		return nil, e.fail(fmt.Errorf("%w: authority %s", ErrAgentNotFound, authority.Short()))
	}

	// Phase one: fail fast on caller-declared bounds. No state touched.
	if req.ExpectedProfit < rec.MinProfitThreshold {
		e.bumpRejected()
		return nil, e.fail(fmt.Errorf("%w: declared %d, threshold %d",
			ErrInsufficientProfit, req.ExpectedProfit, rec.MinProfitThreshold))
	}
	if req.SlippageBps > rec.MaxSlippageBps {
		e.bumpRejected()
		return nil, e.fail(fmt.Errorf("%w: declared %d bps, ceiling %d bps",
			ErrExcessiveSlippage, req.SlippageBps, rec.MaxSlippageBps))
	}
	if len(req.Legs) == 0 || len(req.Legs) > MaxSwapPath {
		e.bumpRejected()
		return nil, e.fail(fmt.Errorf("%w: %d legs (limit %d)",
			ErrSwapPathTooLong, len(req.Legs), MaxSwapPath))
	}

	user := caller.Identity()
	primary := req.PrimaryAsset()

	tx := e.ledger.Begin()
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	initial := tx.BalanceOf(user, primary)
	ec := venue.ExecContext{Tx: tx, User: user, Signer: caller}

	// Legs run strictly in caller order; each observes the balance
	// effects of all earlier legs through the shared transaction.
	for i, leg := range req.Legs {
		adapter, ok := e.venues.Get(leg.Venue)
		if !ok {
			return nil, e.fail(fmt.Errorf("%w: no adapter for venue %q", ErrInvalidDexConfig, leg.Venue))
		}
		if err := adapter.Swap(ctx, ec, leg); err != nil {
			return nil, e.fail(&VenueError{Venue: leg.Venue, Leg: i, Cause: err})
		}
	}

	// Phase two: verify the measured outcome against the declaration.
	final := tx.BalanceOf(user, primary)
	actualProfit := lamports.Profit(initial, final)
	if actualProfit < req.ExpectedProfit {
		e.bumpShortfall()
		return nil, e.fail(fmt.Errorf("%w: realized %d, expected %d",
			ErrProfitTargetNotMet, actualProfit, req.ExpectedProfit))
	}

	// Commit: the only point at which the record mutates.
	rec.TotalTrades = lamports.SaturatingAdd(rec.TotalTrades, 1)
	rec.TotalProfit = lamports.SaturatingAdd(rec.TotalProfit, actualProfit)
	if err := e.store.Save(addr, rec); err != nil {
		return nil, e.fail(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, e.fail(err)
	}
	committed = true

	result := &types.ExecutionResult{
		ID:        uuid.NewString(),
		Actor:     user,
		Profit:    actualProfit,
		Path:      req.Path(),
		TradeID:   rec.TotalTrades,
		Timestamp: time.Now().UTC(),
	}

	e.statsMu.Lock()
	e.stats.Successful++
	e.stats.LastExecution = result.Timestamp
	e.statsMu.Unlock()

	e.log.Info("execution committed",
		zap.String("actor", user.Short()),
		zap.Uint64("profit", actualProfit),
		zap.String("path", req.PathString()),
		zap.Uint64("trade_id", rec.TotalTrades))

	// The trade is already durable; a failing sink is reported, not
	// unwound.
	if err := e.sink.Emit(result); err != nil {
		e.log.Warn("audit sink failed", zap.Error(err))
	}
	return result, nil
}

// EmergencyWithdraw moves amount of asset from the agent's vault to
// destination. Only the record's authority may call it; the record itself
// signs the transfer through its derived-address capability. Statistics are
// untouched.
func (e *Engine) EmergencyWithdraw(caller ledger.Signer, authority types.Address, asset types.Asset, amount uint64, destination types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.Config(authority)
	if err != nil {
		return err
	}
	if caller == nil || caller.Identity() != rec.Authority {
		return fmt.Errorf("%w: authority is %s", ErrUnauthorized, rec.Authority.Short())
	}

	vault, _, err := store.Derive(store.AgentTag, authority)
	if err != nil {
		return err
	}
	signer := store.ProgramSigner{Tag: store.AgentTag, Authority: authority, Bump: rec.Bump}
	if err := e.ledger.Transfer(signer, vault, destination, asset, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailure, err)
	}

	e.log.Info("emergency withdrawal",
		zap.String("authority", authority.Short()),
		zap.String("asset", string(asset)),
		zap.Uint64("amount", amount),
		zap.String("destination", destination.Short()))
	return nil
}

// Stats returns a snapshot of engine-level execution statistics.
func (e *Engine) Stats() ExecutionStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

func (e *Engine) bumpAttempts() {
	e.statsMu.Lock()
	e.stats.Attempts++
	e.statsMu.Unlock()
}

func (e *Engine) bumpRejected() {
	e.statsMu.Lock()
	e.stats.RejectedUpfront++
	e.statsMu.Unlock()
}

func (e *Engine) bumpShortfall() {
	e.statsMu.Lock()
	e.stats.ProfitShortfalls++
	e.statsMu.Unlock()
}

func (e *Engine) fail(err error) error {
	e.statsMu.Lock()
	e.stats.Failed++
	e.stats.LastError = err.Error()
	e.statsMu.Unlock()
	return err
}
