// Package store implements the record storage substrate: deterministic
// per-authority address derivation and an explicit keyed store of
// configuration records.
package store

import (
	"crypto/sha256"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jonasrmichel/swap-agent/pkg/types"
)

// AgentTag is the fixed namespacing tag for agent configuration records.
// One record per (tag, authority) pair.
const AgentTag = "swap_agent"

var (
	// ErrRecordExists is returned by Create when a record is already
	// present at the derived address.
	ErrRecordExists = errors.New("store: record already exists")

	// ErrRecordNotFound is returned by Save for an address never created.
	ErrRecordNotFound = errors.New("store: record not found")

	// ErrBumpExhausted is returned when no bump yields a usable address.
	ErrBumpExhausted = errors.New("store: address derivation exhausted bump space")
)

// DeriveWithBump computes the record address for (tag, authority, bump).
func DeriveWithBump(tag string, authority types.Address, bump uint8) types.Address {
	h := sha256.New()
	h.Write([]byte(tag))
	h.Write(authority[:])
	h.Write([]byte{bump})
	var addr types.Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// Derive finds the canonical record address for (tag, authority): the first
// bump, counting down from 255, whose derived address has a nonzero leading
// byte. Deterministic, so the same authority always resolves to the same
// record without a separate index.
func Derive(tag string, authority types.Address) (types.Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr := DeriveWithBump(tag, authority, uint8(bump))
		if addr[0] != 0 {
			return addr, uint8(bump), nil
		}
	}
	return types.ZeroAddress, 0, ErrBumpExhausted
}

// ProgramSigner is the capability of a derived record over accounts it
// administers. Identity recomputes the address from the derivation inputs,
// so a signer carrying a wrong bump or authority resolves to an address
// that owns no funds and transfers fail authorization.
type ProgramSigner struct {
	Tag       string
	Authority types.Address
	Bump      uint8
}

// Identity returns the derived record address for this capability.
func (s ProgramSigner) Identity() types.Address {
	return DeriveWithBump(s.Tag, s.Authority, s.Bump)
}

// Store is an explicit keyed store of configuration records, passed by
// reference into every engine operation. Records are stored by value:
// Load hands out copies, so callers mutate shared state only through Save.
type Store struct {
	mu      sync.RWMutex
	records map[types.Address]types.AgentConfig
	log     *zap.Logger
}

// New creates an empty record store. A nil logger disables logging.
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		records: make(map[types.Address]types.AgentConfig),
		log:     log.Named("store"),
	}
}

// Create inserts a record at addr. Fails if one is already present
// (idempotent-create: a second initialize for the same authority is
// rejected here).
func (s *Store) Create(addr types.Address, rec types.AgentConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[addr]; ok {
		return ErrRecordExists
	}
	s.records[addr] = rec
	s.log.Info("record created",
		zap.String("address", addr.Short()),
		zap.String("authority", rec.Authority.Short()))
	return nil
}

// Load returns a copy of the record at addr, if present.
func (s *Store) Load(addr types.Address) (types.AgentConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[addr]
	return rec, ok
}

// Save overwrites the record at addr. The record must have been created.
func (s *Store) Save(addr types.Address, rec types.AgentConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[addr]; !ok {
		return ErrRecordNotFound
	}
	s.records[addr] = rec
	return nil
}
