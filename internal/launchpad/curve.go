// =================================
// File: internal/launchpad/curve.go
// =================================
package launchpad

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/biswap-org/curve-launchpad/internal/curve"
)

// TokenMetadata is the descriptive payload supplied at curve creation.
type TokenMetadata struct {
	Name   string
	Symbol string
	URI    string
}

// BondingCurve is the per-mint reserve record. Virtual reserves shape the
// price curve; real reserves track settled balances. Complete is monotonic:
// once set, the curve never trades again.
type BondingCurve struct {
	Mint                 solana.PublicKey
	Creator              solana.PublicKey
	Metadata             TokenMetadata
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
	TokenTotalSupply     uint64
	Complete             bool
	CreatedAt            time.Time
}

// amm returns a pricing engine over a private copy of the curve's reserves.
func (c *BondingCurve) amm(initialVirtualToken uint64) *curve.AMM {
	return curve.NewAMM(
		c.VirtualSolReserves,
		c.VirtualTokenReserves,
		c.RealSolReserves,
		c.RealTokenReserves,
		initialVirtualToken,
	)
}

// applyAMM writes an engine's post-trade reserve snapshot back to the record.
func (c *BondingCurve) applyAMM(a *curve.AMM) {
	c.VirtualSolReserves = a.VirtualSolReserves
	c.VirtualTokenReserves = a.VirtualTokenReserves
	c.RealSolReserves = a.RealSolReserves
	c.RealTokenReserves = a.RealTokenReserves
}

// curveEntry pairs a record with the lock that serializes trades against it.
type curveEntry struct {
	mu    sync.Mutex
	curve BondingCurve
}

// curveStore keys bonding curves by mint. Trades against the same mint are
// mutually exclusive; different mints proceed concurrently. The outer mutex
// only guards the map itself.
type curveStore struct {
	mu     sync.RWMutex
	curves map[solana.PublicKey]*curveEntry
}

func newCurveStore() *curveStore {
	return &curveStore{curves: make(map[solana.PublicKey]*curveEntry)}
}

// create inserts a new curve. Returns ErrCurveExists when the mint is
// already registered; a curve is never re-created for the same asset.
func (s *curveStore) create(c BondingCurve) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.curves[c.Mint]; ok {
		return ErrCurveExists
	}
	s.curves[c.Mint] = &curveEntry{curve: c}
	return nil
}

// withCurve runs fn with exclusive access to the mint's record. Mutations fn
// makes to the record are only kept when fn returns nil.
func (s *curveStore) withCurve(mint solana.PublicKey, fn func(*BondingCurve) error) error {
	s.mu.RLock()
	entry, ok := s.curves[mint]
	s.mu.RUnlock()
	if !ok {
		return ErrCurveNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	scratch := entry.curve
	if err := fn(&scratch); err != nil {
		return err
	}
	entry.curve = scratch
	return nil
}

// get returns a copy of the mint's record.
func (s *curveStore) get(mint solana.PublicKey) (BondingCurve, error) {
	s.mu.RLock()
	entry, ok := s.curves[mint]
	s.mu.RUnlock()
	if !ok {
		return BondingCurve{}, ErrCurveNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.curve, nil
}

// list returns copies of all records, for API listings.
func (s *curveStore) list() []BondingCurve {
	s.mu.RLock()
	entries := make([]*curveEntry, 0, len(s.curves))
	for _, e := range s.curves {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]BondingCurve, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.curve)
		e.mu.Unlock()
	}
	return out
}
