package launchpad

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/biswap-org/curve-launchpad/internal/events"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

// newActiveService returns an initialized, unpaused service with one curve
// registered, plus the identities involved.
func newActiveService(t *testing.T) (*Service, solana.PublicKey, solana.PublicKey) {
	t.Helper()

	svc := NewService(zaptest.NewLogger(t), nil, NewLedger())
	authority := newKey()
	require.NoError(t, svc.Initialize(authority))
	require.NoError(t, svc.SetPaused(authority, false))

	mint := newKey()
	_, err := svc.Create(context.Background(), CreateParams{
		Creator: newKey(),
		Mint:    mint,
		Metadata: TokenMetadata{
			Name:   "Test Token",
			Symbol: "TEST",
			URI:    "https://example.com/test.json",
		},
	})
	require.NoError(t, err)

	return svc, authority, mint
}

func TestInitialize(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t), nil, NewLedger())
	authority := newKey()

	require.NoError(t, svc.Initialize(authority))

	cfg := svc.GlobalConfig()
	assert.True(t, cfg.Initialized)
	assert.True(t, cfg.Paused, "launchpad must boot paused")
	assert.Equal(t, authority, cfg.Authority)
	assert.Equal(t, authority, cfg.FeeRecipient)
	assert.Equal(t, uint64(DefaultInitialVirtualSolReserves), cfg.InitialVirtualSolReserves)
	assert.Equal(t, uint64(DefaultInitialVirtualTokenReserves), cfg.InitialVirtualTokenReserves)
	assert.Equal(t, uint64(DefaultTokenSupply), cfg.InitialTokenSupply)
	assert.Equal(t, uint64(DefaultFeeBasisPoints), cfg.FeeBasisPoints)

	assert.ErrorIs(t, svc.Initialize(newKey()), ErrAlreadyInitialized)
}

func TestOperationsRequireInitialize(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t), nil, NewLedger())
	caller := newKey()

	assert.ErrorIs(t, svc.SetFee(caller, 50), ErrNotInitialized)
	assert.ErrorIs(t, svc.SetPaused(caller, false), ErrNotInitialized)

	_, err := svc.Create(context.Background(), CreateParams{Creator: caller, Mint: newKey()})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = svc.Buy(context.Background(), BuyParams{Buyer: caller, Mint: newKey(), TokenAmount: 1})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, _, err = svc.Withdraw(context.Background(), caller, newKey())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestAdminAuthorityChecks(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t), nil, NewLedger())
	authority := newKey()
	stranger := newKey()
	require.NoError(t, svc.Initialize(authority))

	assert.ErrorIs(t, svc.SetFee(stranger, 50), ErrInvalidAuthority)
	assert.ErrorIs(t, svc.SetPaused(stranger, false), ErrInvalidAuthority)
	assert.ErrorIs(t, svc.SetParams(stranger, Params{}), ErrInvalidAuthority)
	assert.ErrorIs(t, svc.SetAuthority(stranger, stranger), ErrInvalidAuthority)

	// Handover: the new authority takes over, the old one loses access.
	next := newKey()
	require.NoError(t, svc.SetAuthority(authority, next))
	assert.ErrorIs(t, svc.SetFee(authority, 50), ErrInvalidAuthority)
	require.NoError(t, svc.SetFee(next, 50))
	assert.Equal(t, uint64(50), svc.GlobalConfig().FeeBasisPoints)
}

func TestSetFeeRejectsOutOfRange(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t), nil, NewLedger())
	authority := newKey()
	require.NoError(t, svc.Initialize(authority))

	assert.ErrorIs(t, svc.SetFee(authority, 10_001), ErrInvalidFeeBasisPoint)
	require.NoError(t, svc.SetFee(authority, 10_000))
}

func TestSetParams(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t), nil, NewLedger())
	authority := newKey()
	require.NoError(t, svc.Initialize(authority))

	params := Params{
		FeeRecipient:                newKey(),
		WithdrawAuthority:           newKey(),
		InitialVirtualSolReserves:   1_000,
		InitialVirtualTokenReserves: 2_000,
		InitialRealTokenReserves:    1_500,
		InitialTokenSupply:          1_500,
		FeeBasisPoints:              250,
	}
	require.NoError(t, svc.SetParams(authority, params))

	cfg := svc.GlobalConfig()
	assert.Equal(t, params.FeeRecipient, cfg.FeeRecipient)
	assert.Equal(t, params.WithdrawAuthority, cfg.WithdrawAuthority)
	assert.Equal(t, uint64(250), cfg.FeeBasisPoints)
	assert.Equal(t, uint64(1_000), cfg.InitialVirtualSolReserves)
}

func TestCreate(t *testing.T) {
	svc, _, mint := newActiveService(t)

	c, err := svc.Curve(mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(DefaultInitialVirtualSolReserves), c.VirtualSolReserves)
	assert.Equal(t, uint64(DefaultInitialVirtualTokenReserves), c.VirtualTokenReserves)
	assert.Equal(t, uint64(0), c.RealSolReserves)
	assert.Equal(t, uint64(DefaultTokenSupply), c.RealTokenReserves)
	assert.Equal(t, uint64(DefaultTokenSupply), c.TokenTotalSupply)
	assert.False(t, c.Complete)
	assert.Equal(t, "TEST", c.Metadata.Symbol)

	// The full supply sits in the curve's token account.
	assert.Equal(t, uint64(DefaultTokenSupply), svc.Ledger().TokenBalance(mint, mint))

	_, err = svc.Create(context.Background(), CreateParams{Creator: newKey(), Mint: mint})
	assert.ErrorIs(t, err, ErrCurveExists)
}

func TestCreateRejectedWhilePaused(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t), nil, NewLedger())
	require.NoError(t, svc.Initialize(newKey()))

	_, err := svc.Create(context.Background(), CreateParams{Creator: newKey(), Mint: newKey()})
	assert.ErrorIs(t, err, ErrProgramPaused)
}

func TestBuyValidationPipeline(t *testing.T) {
	svc, authority, mint := newActiveService(t)
	buyer := newKey()
	ctx := context.Background()

	_, err := svc.Buy(ctx, BuyParams{Buyer: buyer, Mint: newKey(), FeeRecipient: authority, TokenAmount: 1})
	assert.ErrorIs(t, err, ErrCurveNotFound)

	_, err = svc.Buy(ctx, BuyParams{Buyer: buyer, Mint: mint, FeeRecipient: authority, TokenAmount: 0})
	assert.ErrorIs(t, err, ErrMinTrade)

	_, err = svc.Buy(ctx, BuyParams{Buyer: buyer, Mint: mint, FeeRecipient: newKey(), TokenAmount: 1})
	assert.ErrorIs(t, err, ErrInvalidFeeRecipient)

	_, err = svc.Buy(ctx, BuyParams{Buyer: buyer, Mint: mint, FeeRecipient: authority,
		TokenAmount: DefaultTokenSupply + 1, MaxSolCost: ^uint64(0)})
	assert.ErrorIs(t, err, ErrInsufficientTokens)

	// A tight cost bound trips the slippage check before any transfer.
	_, err = svc.Buy(ctx, BuyParams{Buyer: buyer, Mint: mint, FeeRecipient: authority,
		TokenAmount: 1_000_000_000, MaxSolCost: 1})
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	// An unfunded buyer fails at settlement, leaving reserves untouched.
	before, err := svc.Curve(mint)
	require.NoError(t, err)
	_, err = svc.Buy(ctx, BuyParams{Buyer: buyer, Mint: mint, FeeRecipient: authority,
		TokenAmount: 1_000_000_000, MaxSolCost: ^uint64(0)})
	assert.ErrorIs(t, err, ErrInsufficientSol)
	after, err := svc.Curve(mint)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed buy must not move reserves")
}

func TestBuyThenSell(t *testing.T) {
	svc, authority, mint := newActiveService(t)
	trader := newKey()
	ctx := context.Background()

	require.NoError(t, svc.Ledger().CreditSol(trader, 10_000_000_000))

	quote, err := svc.QuoteBuy(mint, 1_000_000_000)
	require.NoError(t, err)

	buy, err := svc.Buy(ctx, BuyParams{
		Buyer:        trader,
		Mint:         mint,
		FeeRecipient: authority,
		TokenAmount:  1_000_000_000,
		MaxSolCost:   quote.TotalCost,
	})
	require.NoError(t, err)

	assert.Equal(t, quote.SolAmount, buy.SolAmount)
	assert.Equal(t, quote.Fee, buy.Fee)
	assert.True(t, buy.IsBuy)
	assert.False(t, buy.Complete)
	assert.NotEmpty(t, buy.ID)

	assert.Equal(t, uint64(1_000_000_000), svc.Ledger().TokenBalance(trader, mint))
	assert.Equal(t, 10_000_000_000-quote.TotalCost, svc.Ledger().SolBalance(trader))
	assert.Equal(t, buy.SolAmount, svc.Ledger().SolBalance(mint))
	assert.Equal(t, quote.Fee, svc.Ledger().SolBalance(authority))

	c, err := svc.Curve(mint)
	require.NoError(t, err)
	assert.Equal(t, buy.SolAmount, c.RealSolReserves)
	assert.Equal(t, uint64(DefaultTokenSupply)-1_000_000_000, c.RealTokenReserves)

	sell, err := svc.Sell(ctx, SellParams{
		Seller:       trader,
		Mint:         mint,
		FeeRecipient: authority,
		TokenAmount:  1_000_000_000,
		MinSolOutput: 0,
	})
	require.NoError(t, err)

	assert.False(t, sell.IsBuy)
	assert.LessOrEqual(t, sell.SolAmount, buy.SolAmount,
		"round trip must not extract sol from the curve")
	assert.Equal(t, uint64(0), svc.Ledger().TokenBalance(trader, mint))

	c, err = svc.Curve(mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(DefaultTokenSupply), c.RealTokenReserves)
	assert.Equal(t, buy.SolAmount-sell.SolAmount, c.RealSolReserves)
}

func TestSellValidationPipeline(t *testing.T) {
	svc, authority, mint := newActiveService(t)
	seller := newKey()
	ctx := context.Background()

	// Seller holds nothing: balance check fires before the zero-amount one
	// only when an amount is requested.
	_, err := svc.Sell(ctx, SellParams{Seller: seller, Mint: mint, FeeRecipient: authority, TokenAmount: 5})
	assert.ErrorIs(t, err, ErrInsufficientTokens)

	_, err = svc.Sell(ctx, SellParams{Seller: seller, Mint: mint, FeeRecipient: authority, TokenAmount: 0})
	assert.ErrorIs(t, err, ErrMinTrade)

	// Give the seller tokens without any sol ever entering the curve: the
	// payout cannot be settled.
	require.NoError(t, svc.Ledger().MintTokens(mint, seller, 1_000_000_000))
	_, err = svc.Sell(ctx, SellParams{Seller: seller, Mint: mint, FeeRecipient: newKey(), TokenAmount: 1_000_000_000})
	assert.ErrorIs(t, err, ErrInvalidFeeRecipient)

	_, err = svc.Sell(ctx, SellParams{Seller: seller, Mint: mint, FeeRecipient: authority, TokenAmount: 1_000_000_000})
	assert.ErrorIs(t, err, ErrInsufficientSol)
}

func TestSellSlippageBound(t *testing.T) {
	svc, authority, mint := newActiveService(t)
	trader := newKey()
	ctx := context.Background()

	require.NoError(t, svc.Ledger().CreditSol(trader, 10_000_000_000))
	_, err := svc.Buy(ctx, BuyParams{Buyer: trader, Mint: mint, FeeRecipient: authority,
		TokenAmount: 5_000_000_000, MaxSolCost: ^uint64(0)})
	require.NoError(t, err)

	quote, err := svc.QuoteSell(mint, 1_000_000_000)
	require.NoError(t, err)
	require.Positive(t, quote.NetOutput)

	_, err = svc.Sell(ctx, SellParams{Seller: trader, Mint: mint, FeeRecipient: authority,
		TokenAmount: 1_000_000_000, MinSolOutput: quote.NetOutput + 1})
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	sell, err := svc.Sell(ctx, SellParams{Seller: trader, Mint: mint, FeeRecipient: authority,
		TokenAmount: 1_000_000_000, MinSolOutput: quote.NetOutput})
	require.NoError(t, err)
	assert.Equal(t, quote.NetOutput, sell.SolAmount-sell.Fee)
}

func TestFullFeeZeroesSellerPayout(t *testing.T) {
	svc, authority, mint := newActiveService(t)
	trader := newKey()
	ctx := context.Background()

	require.NoError(t, svc.Ledger().CreditSol(trader, 10_000_000_000))
	_, err := svc.Buy(ctx, BuyParams{Buyer: trader, Mint: mint, FeeRecipient: authority,
		TokenAmount: 5_000_000_000, MaxSolCost: ^uint64(0)})
	require.NoError(t, err)

	require.NoError(t, svc.SetFee(authority, 10_000))
	feeBalanceBefore := svc.Ledger().SolBalance(authority)
	solBalanceBefore := svc.Ledger().SolBalance(trader)

	sell, err := svc.Sell(ctx, SellParams{Seller: trader, Mint: mint, FeeRecipient: authority,
		TokenAmount: 1_000_000_000, MinSolOutput: 0})
	require.NoError(t, err)

	assert.Positive(t, sell.SolAmount)
	assert.Equal(t, sell.SolAmount, sell.Fee, "100% fee consumes the whole payout")
	assert.Equal(t, solBalanceBefore, svc.Ledger().SolBalance(trader))
	assert.Equal(t, feeBalanceBefore+sell.SolAmount, svc.Ledger().SolBalance(authority))
}

func TestCompletionIsMonotonic(t *testing.T) {
	svc, authority, mint := newActiveService(t)
	whale := newKey()
	ctx := context.Background()

	require.NoError(t, svc.Ledger().CreditSol(whale, ^uint64(0)/2))

	buy, err := svc.Buy(ctx, BuyParams{Buyer: whale, Mint: mint, FeeRecipient: authority,
		TokenAmount: DefaultTokenSupply, MaxSolCost: ^uint64(0) / 2})
	require.NoError(t, err)
	require.True(t, buy.Complete)

	c, err := svc.Curve(mint)
	require.NoError(t, err)
	assert.True(t, c.Complete)
	assert.Equal(t, uint64(0), c.RealTokenReserves)

	_, err = svc.Buy(ctx, BuyParams{Buyer: whale, Mint: mint, FeeRecipient: authority,
		TokenAmount: 1, MaxSolCost: ^uint64(0)})
	assert.ErrorIs(t, err, ErrCurveComplete)

	_, err = svc.Sell(ctx, SellParams{Seller: whale, Mint: mint, FeeRecipient: authority,
		TokenAmount: 1, MinSolOutput: 0})
	assert.ErrorIs(t, err, ErrCurveComplete)

	// Reserves are frozen until withdraw.
	after, err := svc.Curve(mint)
	require.NoError(t, err)
	assert.Equal(t, c, after)
}

func TestWithdraw(t *testing.T) {
	svc, authority, mint := newActiveService(t)
	whale := newKey()
	ctx := context.Background()

	_, _, err := svc.Withdraw(ctx, newKey(), mint)
	assert.ErrorIs(t, err, ErrInvalidAuthority)

	_, _, err = svc.Withdraw(ctx, authority, mint)
	assert.ErrorIs(t, err, ErrCurveNotComplete)

	require.NoError(t, svc.Ledger().CreditSol(whale, ^uint64(0)/2))
	buy, err := svc.Buy(ctx, BuyParams{Buyer: whale, Mint: mint, FeeRecipient: authority,
		TokenAmount: DefaultTokenSupply, MaxSolCost: ^uint64(0) / 2})
	require.NoError(t, err)
	require.True(t, buy.Complete)

	feeBefore := svc.Ledger().SolBalance(authority)
	solOut, tokenOut, err := svc.Withdraw(ctx, authority, mint)
	require.NoError(t, err)

	assert.Equal(t, buy.SolAmount, solOut)
	assert.Equal(t, uint64(0), tokenOut, "the whale bought out the whole supply")
	assert.Equal(t, feeBefore+solOut, svc.Ledger().SolBalance(authority))

	c, err := svc.Curve(mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), c.RealSolReserves)
	assert.Equal(t, uint64(0), c.RealTokenReserves)
	assert.True(t, c.Complete)
}

func TestTradeEventPublished(t *testing.T) {
	bus := events.NewBus(zaptest.NewLogger(t), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	svc := NewService(zaptest.NewLogger(t), bus, NewLedger())
	authority := newKey()
	require.NoError(t, svc.Initialize(authority))
	require.NoError(t, svc.SetPaused(authority, false))

	mint := newKey()
	_, err := svc.Create(context.Background(), CreateParams{Creator: newKey(), Mint: mint})
	require.NoError(t, err)

	received := make(chan events.TradeExecutedEvent, 1)
	bus.SubscribeFunc(events.TradeExecuted, func(_ context.Context, e events.Event) error {
		if trade, ok := e.(events.TradeExecutedEvent); ok {
			received <- trade
		}
		return nil
	})

	trader := newKey()
	require.NoError(t, svc.Ledger().CreditSol(trader, 10_000_000_000))
	buy, err := svc.Buy(context.Background(), BuyParams{Buyer: trader, Mint: mint,
		FeeRecipient: authority, TokenAmount: 1_000_000_000, MaxSolCost: ^uint64(0)})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, buy.ID, event.ReceiptID)
		assert.Equal(t, mint, event.Mint)
		assert.True(t, event.IsBuy)
		assert.Equal(t, buy.SolAmount, event.SolAmount)
	case <-time.After(2 * time.Second):
		t.Fatal("trade event was not delivered")
	}
}
