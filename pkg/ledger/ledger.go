// Package ledger implements the balance substrate: keyed (owner, asset)
// balances with capability-checked transfers and an all-or-nothing
// transaction scope.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jonasrmichel/swap-agent/pkg/types"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrUnauthorizedSigner is returned when a transfer's signing
	// capability does not match the source account's owner.
	ErrUnauthorizedSigner = errors.New("ledger: signer does not own source account")

	// ErrTxClosed is returned when a transaction scope is used after
	// commit or rollback.
	ErrTxClosed = errors.New("ledger: transaction already closed")
)

// Signer is a capability authorizing transfers out of an account. A wallet
// signs for its own address; a derived record signs for accounts it
// administers by recomputing its identity from the derivation inputs, so a
// forged proof resolves to an address that owns nothing.
type Signer interface {
	Identity() types.Address
}

// WalletSigner is the plain capability of a keyholder over its own address.
type WalletSigner types.Address

// Identity returns the wallet's own address.
func (w WalletSigner) Identity() types.Address {
	return types.Address(w)
}

type balanceKey struct {
	owner types.Address
	asset types.Asset
}

// Ledger is an in-memory balance book. All access is serialized: reads take
// a shared lock, transaction scopes hold the exclusive lock from Begin to
// Commit/Rollback so partial effects are never observable.
type Ledger struct {
	mu       sync.RWMutex
	balances map[balanceKey]uint64
	log      *zap.Logger
}

// New creates an empty ledger. A nil logger disables logging.
func New(log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		balances: make(map[balanceKey]uint64),
		log:      log.Named("ledger"),
	}
}

// BalanceOf returns the balance of asset held by owner.
func (l *Ledger) BalanceOf(owner types.Address, asset types.Asset) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[balanceKey{owner, asset}]
}

// Credit mints amount of asset into owner's account. Used for funding and
// by venue adapters inside a transaction scope; external deposits are out
// of scope here.
func (l *Ledger) Credit(owner types.Address, asset types.Asset, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := balanceKey{owner, asset}
	l.balances[key] += amount
	l.log.Debug("credit",
		zap.String("owner", owner.Short()),
		zap.String("asset", string(asset)),
		zap.Uint64("amount", amount))
}

// Transfer moves amount of asset from one owner to another, outside any
// transaction scope. The signer must own the source account.
func (l *Ledger) Transfer(signer Signer, from, to types.Address, asset types.Asset, amount uint64) error {
	tx := l.Begin()
	if err := tx.Transfer(signer, from, to, asset, amount); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Begin opens a transaction scope. The ledger's exclusive lock is held until
// Commit or Rollback, so no other actor observes intermediate balances.
func (l *Ledger) Begin() *Tx {
	l.mu.Lock()
	return &Tx{ledger: l, undo: make(map[balanceKey]uint64)}
}

// Tx is an all-or-nothing mutation scope over the ledger. Every touched
// balance records its pre-transaction value; Rollback restores all of them,
// leaving the book byte-for-byte as it was at Begin.
type Tx struct {
	ledger *Ledger
	undo   map[balanceKey]uint64
	closed bool
}

func (tx *Tx) snapshot(key balanceKey) {
	if _, seen := tx.undo[key]; !seen {
		tx.undo[key] = tx.ledger.balances[key]
	}
}

// BalanceOf returns the in-transaction balance of asset held by owner.
func (tx *Tx) BalanceOf(owner types.Address, asset types.Asset) uint64 {
	return tx.ledger.balances[balanceKey{owner, asset}]
}

// Credit adds amount of asset to owner's account within the transaction.
func (tx *Tx) Credit(owner types.Address, asset types.Asset, amount uint64) error {
	if tx.closed {
		return ErrTxClosed
	}
	key := balanceKey{owner, asset}
	tx.snapshot(key)
	tx.ledger.balances[key] += amount
	return nil
}

// Debit removes amount of asset from owner's account within the
// transaction. Fails without effect if the balance is insufficient.
func (tx *Tx) Debit(owner types.Address, asset types.Asset, amount uint64) error {
	if tx.closed {
		return ErrTxClosed
	}
	key := balanceKey{owner, asset}
	if tx.ledger.balances[key] < amount {
		return fmt.Errorf("%w: %s has %d %s, need %d",
			ErrInsufficientFunds, owner.Short(), tx.ledger.balances[key], asset, amount)
	}
	tx.snapshot(key)
	tx.ledger.balances[key] -= amount
	return nil
}

// Transfer moves amount of asset between owners within the transaction.
// The signer's identity must equal the source owner.
func (tx *Tx) Transfer(signer Signer, from, to types.Address, asset types.Asset, amount uint64) error {
	if tx.closed {
		return ErrTxClosed
	}
	if signer == nil || signer.Identity() != from {
		return fmt.Errorf("%w: source %s", ErrUnauthorizedSigner, from.Short())
	}
	if err := tx.Debit(from, asset, amount); err != nil {
		return err
	}
	return tx.Credit(to, asset, amount)
}

// Commit releases the scope, keeping all mutations.
func (tx *Tx) Commit() error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.closed = true
	tx.ledger.mu.Unlock()
	return nil
}

// Rollback restores every touched balance to its pre-transaction value and
// releases the scope. Safe to call after Commit (no-op).
func (tx *Tx) Rollback() {
	if tx.closed {
		return
	}
	for key, prev := range tx.undo {
		if prev == 0 {
			delete(tx.ledger.balances, key)
		} else {
			tx.ledger.balances[key] = prev
		}
	}
	tx.closed = true
	tx.ledger.mu.Unlock()
}
