package launchpad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerSolAccounting(t *testing.T) {
	l := NewLedger()
	a, b := newKey(), newKey()

	require.NoError(t, l.CreditSol(a, 100))
	assert.Equal(t, uint64(100), l.SolBalance(a))

	assert.ErrorIs(t, l.DebitSol(a, 101), ErrInsufficientSol)
	require.NoError(t, l.DebitSol(a, 40))
	assert.Equal(t, uint64(60), l.SolBalance(a))

	assert.ErrorIs(t, l.TransferSol(a, b, 61), ErrInsufficientSol)
	require.NoError(t, l.TransferSol(a, b, 60))
	assert.Equal(t, uint64(0), l.SolBalance(a))
	assert.Equal(t, uint64(60), l.SolBalance(b))

	assert.ErrorIs(t, l.CreditSol(b, ^uint64(0)), ErrArithmeticOverflow)
	assert.Equal(t, uint64(60), l.SolBalance(b), "overflowing credit must not apply")
}

func TestLedgerTokenAccounting(t *testing.T) {
	l := NewLedger()
	mint, owner, other := newKey(), newKey(), newKey()

	require.NoError(t, l.MintTokens(mint, owner, 1_000))
	assert.Equal(t, uint64(1_000), l.TokenBalance(owner, mint))
	assert.Equal(t, uint64(0), l.TokenBalance(owner, newKey()), "balances are per mint")

	assert.ErrorIs(t, l.TransferTokens(mint, owner, other, 1_001), ErrInsufficientTokens)
	require.NoError(t, l.TransferTokens(mint, owner, other, 400))
	assert.Equal(t, uint64(600), l.TokenBalance(owner, mint))
	assert.Equal(t, uint64(400), l.TokenBalance(other, mint))
}

func TestSettleBuyIsAtomic(t *testing.T) {
	l := NewLedger()
	mint, buyer, recipient := newKey(), newKey(), newKey()

	require.NoError(t, l.MintTokens(mint, mint, 10_000))
	require.NoError(t, l.CreditSol(buyer, 500))

	// Buyer can cover the sol amount but not the fee on top.
	err := l.SettleBuy(mint, buyer, recipient, 500, 5, 100)
	assert.ErrorIs(t, err, ErrInsufficientSol)
	assert.Equal(t, uint64(500), l.SolBalance(buyer))
	assert.Equal(t, uint64(0), l.SolBalance(mint))
	assert.Equal(t, uint64(0), l.TokenBalance(buyer, mint))

	// Curve cannot release more tokens than it holds.
	err = l.SettleBuy(mint, buyer, recipient, 100, 1, 10_001)
	assert.ErrorIs(t, err, ErrInsufficientTokens)
	assert.Equal(t, uint64(500), l.SolBalance(buyer))

	require.NoError(t, l.SettleBuy(mint, buyer, recipient, 400, 4, 100))
	assert.Equal(t, uint64(96), l.SolBalance(buyer))
	assert.Equal(t, uint64(400), l.SolBalance(mint))
	assert.Equal(t, uint64(4), l.SolBalance(recipient))
	assert.Equal(t, uint64(100), l.TokenBalance(buyer, mint))
	assert.Equal(t, uint64(9_900), l.TokenBalance(mint, mint))
}

func TestSettleSellIsAtomic(t *testing.T) {
	l := NewLedger()
	mint, seller, recipient := newKey(), newKey(), newKey()

	require.NoError(t, l.MintTokens(mint, seller, 1_000))
	require.NoError(t, l.CreditSol(mint, 300))

	err := l.SettleSell(mint, seller, recipient, 301, 3, 100)
	assert.ErrorIs(t, err, ErrInsufficientSol)
	assert.Equal(t, uint64(1_000), l.TokenBalance(seller, mint))
	assert.Equal(t, uint64(300), l.SolBalance(mint))

	err = l.SettleSell(mint, seller, recipient, 100, 1, 1_001)
	assert.ErrorIs(t, err, ErrInsufficientTokens)

	// A fee larger than the gross payout would drive the seller's leg
	// negative.
	err = l.SettleSell(mint, seller, recipient, 100, 101, 100)
	assert.ErrorIs(t, err, ErrArithmeticUnderflow)
	assert.Equal(t, uint64(300), l.SolBalance(mint))

	require.NoError(t, l.SettleSell(mint, seller, recipient, 300, 3, 1_000))
	assert.Equal(t, uint64(297), l.SolBalance(seller))
	assert.Equal(t, uint64(3), l.SolBalance(recipient))
	assert.Equal(t, uint64(0), l.SolBalance(mint))
	assert.Equal(t, uint64(0), l.TokenBalance(seller, mint))
	assert.Equal(t, uint64(1_000), l.TokenBalance(mint, mint))
}

func TestSweep(t *testing.T) {
	l := NewLedger()
	mint, dest := newKey(), newKey()

	require.NoError(t, l.CreditSol(mint, 750))
	require.NoError(t, l.MintTokens(mint, mint, 250))

	solOut, tokenOut, err := l.Sweep(mint, dest)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), solOut)
	assert.Equal(t, uint64(250), tokenOut)
	assert.Equal(t, uint64(750), l.SolBalance(dest))
	assert.Equal(t, uint64(250), l.TokenBalance(dest, mint))
	assert.Equal(t, uint64(0), l.SolBalance(mint))
	assert.Equal(t, uint64(0), l.TokenBalance(mint, mint))

	// A second sweep moves nothing.
	solOut, tokenOut, err = l.Sweep(mint, dest)
	require.NoError(t, err)
	assert.Zero(t, solOut)
	assert.Zero(t, tokenOut)
}
