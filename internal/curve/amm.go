// =============================
// File: internal/curve/amm.go
// =============================
package curve

import (
	"errors"

	"github.com/holiman/uint256"
)

// Arithmetic and liquidity failures surfaced by the engine. The caller maps
// these onto its own error surface; the engine never mutates state when it
// returns an error.
var (
	ErrZeroAmount         = errors.New("curve: trade amount must be greater than zero")
	ErrOverflow           = errors.New("curve: arithmetic overflow")
	ErrInsufficientTokens = errors.New("curve: token amount exceeds real token reserves")
	ErrInsufficientSol    = errors.New("curve: sol amount exceeds real sol reserves")
	ErrDegenerateReserves = errors.New("curve: virtual reserves too low for trade")
)

// AMM holds one bonding curve's reserve state and performs the
// constant-product math over it. It is a plain value: callers hand it a
// private copy of the curve's reserves, apply a trade, and commit the
// resulting fields back under their own exclusivity guarantee. The engine
// performs no I/O and holds no references across calls.
//
// All products of two 64-bit reserves are computed in 256-bit via
// holiman/uint256 and narrowed back; a result that does not fit uint64
// fails the trade instead of wrapping.
type AMM struct {
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64

	// InitialVirtualTokenReserves is the virtual token floor configured at
	// curve creation. Buys are capped by RealTokenReserves, which keeps
	// VirtualTokenReserves at or above the base virtual liquidity
	// (initial virtual minus initial real), so pricing never degenerates
	// as real reserves approach zero.
	InitialVirtualTokenReserves uint64
}

// BuyResult is the engine's answer to one buy: the sol the buyer pays into
// the curve, the tokens released to them, and whether the trade exhausted
// the curve's sellable tokens.
type BuyResult struct {
	SolAmount   uint64
	TokenAmount uint64
	Complete    bool
}

// SellResult mirrors BuyResult for the sell direction.
type SellResult struct {
	SolAmount   uint64
	TokenAmount uint64
	Complete    bool
}

// NewAMM builds an engine over a snapshot of reserve values.
func NewAMM(virtualSol, virtualToken, realSol, realToken, initialVirtualToken uint64) *AMM {
	return &AMM{
		VirtualSolReserves:          virtualSol,
		VirtualTokenReserves:        virtualToken,
		RealSolReserves:             realSol,
		RealTokenReserves:           realToken,
		InitialVirtualTokenReserves: initialVirtualToken,
	}
}

// GetBuyPrice returns the sol cost of buying an exact tokenAmount.
//
// With k = virtualSol * virtualTokens, the post-trade virtual sol reserve is
// k / (virtualTokens - tokenAmount) + 1; the +1 rounds the cost up so that
// rounding always favors the curve. The cost is the difference against the
// current virtual sol reserve.
func (a *AMM) GetBuyPrice(tokenAmount uint64) (uint64, error) {
	if tokenAmount == 0 {
		return 0, ErrZeroAmount
	}
	if tokenAmount >= a.VirtualTokenReserves {
		return 0, ErrDegenerateReserves
	}

	k := product(a.VirtualSolReserves, a.VirtualTokenReserves)
	newVirtualToken := uint256.NewInt(a.VirtualTokenReserves - tokenAmount)

	newVirtualSol := new(uint256.Int).Div(k, newVirtualToken)
	newVirtualSol.AddUint64(newVirtualSol, 1)
	if !newVirtualSol.IsUint64() {
		return 0, ErrOverflow
	}

	// newVirtualSol > virtualSol always holds here: shrinking the token side
	// strictly grows k / tokens, and the +1 covers the exact-division case.
	return newVirtualSol.Uint64() - a.VirtualSolReserves, nil
}

// GetSellPrice returns the sol paid out for selling an exact tokenAmount:
// floor(tokenAmount * virtualSol / (virtualTokens + tokenAmount)). Flooring
// the output is the curve-favoring form of the constant-product relation.
func (a *AMM) GetSellPrice(tokenAmount uint64) (uint64, error) {
	if tokenAmount == 0 {
		return 0, ErrZeroAmount
	}

	num := product(tokenAmount, a.VirtualSolReserves)
	den := new(uint256.Int).AddUint64(uint256.NewInt(a.VirtualTokenReserves), tokenAmount)

	out := new(uint256.Int).Div(num, den)
	if !out.IsUint64() {
		return 0, ErrOverflow
	}
	return out.Uint64(), nil
}

// TokensForSol quotes how many tokens a given sol amount buys:
// floor(solAmount * virtualTokens / (virtualSol + solAmount)). The floor
// slightly disadvantages the buyer. The quote is capped at the curve's real
// token reserves, which is the most the curve can ever release.
func (a *AMM) TokensForSol(solAmount uint64) (uint64, error) {
	if solAmount == 0 {
		return 0, ErrZeroAmount
	}

	num := product(solAmount, a.VirtualTokenReserves)
	den := new(uint256.Int).AddUint64(uint256.NewInt(a.VirtualSolReserves), solAmount)

	out := new(uint256.Int).Div(num, den)
	if !out.IsUint64() {
		return 0, ErrOverflow
	}
	tokens := out.Uint64()
	if tokens > a.RealTokenReserves {
		tokens = a.RealTokenReserves
	}
	return tokens, nil
}

// ApplyBuy prices a buy of tokenAmount and commits the new reserve values to
// the receiver. A buy that asks for more tokens than the curve really holds
// is rejected rather than clamped. The curve completes when the buy drains
// the real token reserves to zero.
func (a *AMM) ApplyBuy(tokenAmount uint64) (*BuyResult, error) {
	if tokenAmount == 0 {
		return nil, ErrZeroAmount
	}
	if tokenAmount > a.RealTokenReserves {
		return nil, ErrInsufficientTokens
	}

	solCost, err := a.GetBuyPrice(tokenAmount)
	if err != nil {
		return nil, err
	}

	newVirtualSol, ok := addU64(a.VirtualSolReserves, solCost)
	if !ok {
		return nil, ErrOverflow
	}
	newRealSol, ok := addU64(a.RealSolReserves, solCost)
	if !ok {
		return nil, ErrOverflow
	}

	a.VirtualSolReserves = newVirtualSol
	a.VirtualTokenReserves -= tokenAmount
	a.RealSolReserves = newRealSol
	a.RealTokenReserves -= tokenAmount

	return &BuyResult{
		SolAmount:   solCost,
		TokenAmount: tokenAmount,
		Complete:    a.RealTokenReserves == 0,
	}, nil
}

// ApplySell prices a sell of tokenAmount and commits the new reserve values
// to the receiver. The payout may never exceed the sol the curve really
// holds. The curve completes when a positive payout drains the real sol
// reserves to zero.
func (a *AMM) ApplySell(tokenAmount uint64) (*SellResult, error) {
	if tokenAmount == 0 {
		return nil, ErrZeroAmount
	}

	solOut, err := a.GetSellPrice(tokenAmount)
	if err != nil {
		return nil, err
	}
	if solOut > a.RealSolReserves {
		return nil, ErrInsufficientSol
	}

	newVirtualToken, ok := addU64(a.VirtualTokenReserves, tokenAmount)
	if !ok {
		return nil, ErrOverflow
	}
	newRealToken, ok := addU64(a.RealTokenReserves, tokenAmount)
	if !ok {
		return nil, ErrOverflow
	}

	a.VirtualTokenReserves = newVirtualToken
	a.VirtualSolReserves -= solOut
	a.RealSolReserves -= solOut
	a.RealTokenReserves = newRealToken

	return &SellResult{
		SolAmount:   solOut,
		TokenAmount: tokenAmount,
		Complete:    solOut > 0 && a.RealSolReserves == 0,
	}, nil
}

func product(x, y uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(x), uint256.NewInt(y))
}

func addU64(x, y uint64) (uint64, bool) {
	sum := x + y
	if sum < x {
		return 0, false
	}
	return sum, true
}
