// ==================================
// File: internal/launchpad/ledger.go
// ==================================
package launchpad

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Ledger is the in-process custody layer standing in for the host platform:
// sol balances per account and token balances per (owner, mint). Every
// movement is checked; a debit that would go negative fails the operation
// instead of wrapping.
//
// Each method is atomic with respect to the ledger's own lock. Higher-level
// all-or-nothing semantics across several movements are the service's job.
type Ledger struct {
	mu     sync.Mutex
	sol    map[solana.PublicKey]uint64
	tokens map[tokenKey]uint64
}

type tokenKey struct {
	owner solana.PublicKey
	mint  solana.PublicKey
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		sol:    make(map[solana.PublicKey]uint64),
		tokens: make(map[tokenKey]uint64),
	}
}

// SolBalance returns the account's sol balance in lamports.
func (l *Ledger) SolBalance(account solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sol[account]
}

// TokenBalance returns the owner's balance of the given mint.
func (l *Ledger) TokenBalance(owner, mint solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens[tokenKey{owner: owner, mint: mint}]
}

// CreditSol adds lamports to an account.
func (l *Ledger) CreditSol(account solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.sol[account] + amount
	if next < l.sol[account] {
		return ErrArithmeticOverflow
	}
	l.sol[account] = next
	return nil
}

// DebitSol removes lamports from an account, failing without mutation when
// the balance is short.
func (l *Ledger) DebitSol(account solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sol[account] < amount {
		return ErrInsufficientSol
	}
	l.sol[account] -= amount
	return nil
}

// TransferSol atomically moves lamports between two accounts.
func (l *Ledger) TransferSol(from, to solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sol[from] < amount {
		return ErrInsufficientSol
	}
	next := l.sol[to] + amount
	if next < l.sol[to] {
		return ErrArithmeticOverflow
	}
	l.sol[from] -= amount
	l.sol[to] = next
	return nil
}

// MintTokens credits freshly minted supply to an owner.
func (l *Ledger) MintTokens(mint, owner solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := tokenKey{owner: owner, mint: mint}
	next := l.tokens[key] + amount
	if next < l.tokens[key] {
		return ErrArithmeticOverflow
	}
	l.tokens[key] = next
	return nil
}

// SettleBuy performs all legs of a buy under one lock: the buyer pays
// solAmount into the curve's account and fee to the fee recipient, and the
// curve releases tokenAmount to the buyer. Either every leg applies or none
// does. The curve's account is keyed by its mint.
func (l *Ledger) SettleBuy(mint, buyer, feeRecipient solana.PublicKey, solAmount, fee, tokenAmount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := solAmount + fee
	if total < solAmount {
		return ErrArithmeticOverflow
	}
	curveTokens := tokenKey{owner: mint, mint: mint}
	buyerTokens := tokenKey{owner: buyer, mint: mint}

	if l.sol[buyer] < total {
		return ErrInsufficientSol
	}
	if l.tokens[curveTokens] < tokenAmount {
		return ErrInsufficientTokens
	}
	if l.sol[mint]+solAmount < l.sol[mint] ||
		l.sol[feeRecipient]+fee < l.sol[feeRecipient] ||
		l.tokens[buyerTokens]+tokenAmount < l.tokens[buyerTokens] {
		return ErrArithmeticOverflow
	}

	l.sol[buyer] -= total
	l.sol[mint] += solAmount
	l.sol[feeRecipient] += fee
	l.tokens[curveTokens] -= tokenAmount
	l.tokens[buyerTokens] += tokenAmount
	return nil
}

// SettleSell performs all legs of a sell under one lock: the seller returns
// tokenAmount to the curve, the curve pays out grossSol in total, of which
// fee goes to the fee recipient and the remainder to the seller.
func (l *Ledger) SettleSell(mint, seller, feeRecipient solana.PublicKey, grossSol, fee, tokenAmount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fee > grossSol {
		return ErrArithmeticUnderflow
	}
	net := grossSol - fee
	curveTokens := tokenKey{owner: mint, mint: mint}
	sellerTokens := tokenKey{owner: seller, mint: mint}

	if l.tokens[sellerTokens] < tokenAmount {
		return ErrInsufficientTokens
	}
	if l.sol[mint] < grossSol {
		return ErrInsufficientSol
	}
	if l.sol[seller]+net < l.sol[seller] ||
		l.sol[feeRecipient]+fee < l.sol[feeRecipient] ||
		l.tokens[curveTokens]+tokenAmount < l.tokens[curveTokens] {
		return ErrArithmeticOverflow
	}

	l.tokens[sellerTokens] -= tokenAmount
	l.tokens[curveTokens] += tokenAmount
	l.sol[mint] -= grossSol
	l.sol[seller] += net
	l.sol[feeRecipient] += fee
	return nil
}

// Sweep empties the curve account's sol and token balances into the
// destination account and reports what was moved.
func (l *Ledger) Sweep(mint, to solana.PublicKey) (solAmount, tokenAmount uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	curveTokens := tokenKey{owner: mint, mint: mint}
	destTokens := tokenKey{owner: to, mint: mint}
	solAmount = l.sol[mint]
	tokenAmount = l.tokens[curveTokens]

	if l.sol[to]+solAmount < l.sol[to] ||
		l.tokens[destTokens]+tokenAmount < l.tokens[destTokens] {
		return 0, 0, ErrArithmeticOverflow
	}

	l.sol[mint] = 0
	l.tokens[curveTokens] = 0
	l.sol[to] += solAmount
	l.tokens[destTokens] += tokenAmount
	return solAmount, tokenAmount, nil
}

// TransferTokens atomically moves tokens of one mint between owners.
func (l *Ledger) TransferTokens(mint, from, to solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fromKey := tokenKey{owner: from, mint: mint}
	toKey := tokenKey{owner: to, mint: mint}
	if l.tokens[fromKey] < amount {
		return ErrInsufficientTokens
	}
	next := l.tokens[toKey] + amount
	if next < l.tokens[toKey] {
		return ErrArithmeticOverflow
	}
	l.tokens[fromKey] -= amount
	l.tokens[toKey] = next
	return nil
}
