// ===================================
// File: internal/launchpad/service.go
// ===================================
package launchpad

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/biswap-org/curve-launchpad/internal/curve"
	"github.com/biswap-org/curve-launchpad/internal/events"
	"github.com/biswap-org/curve-launchpad/internal/metrics"
	"github.com/biswap-org/curve-launchpad/internal/storage"
	"github.com/biswap-org/curve-launchpad/internal/storage/models"
)

// Service is the trade orchestration layer: it owns the global config, the
// keyed curve store and the custody ledger, and drives the pricing engine
// through the validation pipeline. Every operation is all-or-nothing; a
// failure at any step leaves config, curves and balances untouched.
type Service struct {
	logger  *zap.Logger
	bus     *events.Bus
	ledger  *Ledger
	curves  *curveStore
	store   storage.Storage
	metrics *metrics.Collector
	now     func() time.Time

	globalMu sync.Mutex
	global   Global
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithStorage attaches a durable receipt/snapshot store.
func WithStorage(store storage.Storage) Option {
	return func(s *Service) { s.store = store }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) { s.metrics = collector }
}

// WithClock overrides the service clock, primarily for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds an uninitialized launchpad; Initialize must run before
// any curve or trade operation.
func NewService(logger *zap.Logger, bus *events.Bus, ledger *Ledger, opts ...Option) *Service {
	s := &Service{
		logger: logger.Named("launchpad"),
		bus:    bus,
		ledger: ledger,
		curves: newCurveStore(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger exposes the custody layer, mainly so callers can fund accounts.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// TradeReceipt is the caller-facing record of one settled trade.
type TradeReceipt struct {
	ID                   string
	Mint                 solana.PublicKey
	User                 solana.PublicKey
	IsBuy                bool
	SolAmount            uint64
	TokenAmount          uint64
	Fee                  uint64
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
	Complete             bool
	Timestamp            time.Time
}

// CreateParams describes a new curve registration.
type CreateParams struct {
	Creator  solana.PublicKey
	Mint     solana.PublicKey
	Metadata TokenMetadata
}

// BuyParams is one buy request: an exact token amount with a cost ceiling.
type BuyParams struct {
	Buyer        solana.PublicKey
	Mint         solana.PublicKey
	FeeRecipient solana.PublicKey
	TokenAmount  uint64
	MaxSolCost   uint64
}

// SellParams is one sell request: an exact token amount with a payout floor.
type SellParams struct {
	Seller       solana.PublicKey
	Mint         solana.PublicKey
	FeeRecipient solana.PublicKey
	TokenAmount  uint64
	MinSolOutput uint64
}

// Create registers a bonding curve for the mint, seeded from the global
// defaults, and mints the full token supply to the curve's account.
func (s *Service) Create(ctx context.Context, params CreateParams) (*BondingCurve, error) {
	cfg, err := s.requireActive()
	if err != nil {
		return nil, err
	}
	if params.Mint.IsZero() {
		return nil, fmt.Errorf("launchpad: mint is required")
	}

	record := BondingCurve{
		Mint:                 params.Mint,
		Creator:              params.Creator,
		Metadata:             params.Metadata,
		VirtualSolReserves:   cfg.InitialVirtualSolReserves,
		VirtualTokenReserves: cfg.InitialVirtualTokenReserves,
		RealSolReserves:      0,
		RealTokenReserves:    cfg.InitialRealTokenReserves,
		TokenTotalSupply:     cfg.InitialTokenSupply,
		CreatedAt:            s.now(),
	}

	if err := s.curves.create(record); err != nil {
		return nil, err
	}
	if err := s.ledger.MintTokens(params.Mint, params.Mint, cfg.InitialTokenSupply); err != nil {
		return nil, err
	}

	s.logger.Info("Bonding curve created",
		zap.String("mint", params.Mint.String()),
		zap.String("creator", params.Creator.String()),
		zap.String("symbol", params.Metadata.Symbol))

	s.persistSnapshot(ctx, &record)
	s.publish(events.CurveCreatedEvent{
		BaseEvent: events.BaseEvent{EventType: events.CurveCreated, EventTime: record.CreatedAt},
		Mint:      params.Mint,
		Creator:   params.Creator,
		Name:      params.Metadata.Name,
		Symbol:    params.Metadata.Symbol,
		URI:       params.Metadata.URI,
	})
	return &record, nil
}

// Buy purchases an exact token amount from the mint's curve. The all-in sol
// cost (curve price plus fee) must not exceed params.MaxSolCost.
func (s *Service) Buy(ctx context.Context, params BuyParams) (receipt *TradeReceipt, err error) {
	start := time.Now()
	defer func() {
		s.recordTrade(metrics.DirectionBuy, time.Since(start), err == nil)
	}()

	cfg, err := s.requireActive()
	if err != nil {
		return nil, err
	}

	var snapshot BondingCurve
	err = s.curves.withCurve(params.Mint, func(c *BondingCurve) error {
		if c.Complete {
			return ErrCurveComplete
		}
		if params.TokenAmount == 0 {
			return ErrMinTrade
		}
		if params.FeeRecipient != cfg.FeeRecipient {
			return ErrInvalidFeeRecipient
		}

		amm := c.amm(cfg.InitialVirtualTokenReserves)
		result, err := amm.ApplyBuy(params.TokenAmount)
		if err != nil {
			return mapEngineError(err)
		}

		fee, err := curve.CalculateFee(result.SolAmount, cfg.FeeBasisPoints)
		if err != nil {
			return mapEngineError(err)
		}
		totalCost := result.SolAmount + fee
		if totalCost < result.SolAmount {
			return ErrArithmeticOverflow
		}
		if totalCost > params.MaxSolCost {
			return ErrSlippageExceeded
		}

		if err := s.ledger.SettleBuy(params.Mint, params.Buyer, params.FeeRecipient,
			result.SolAmount, fee, result.TokenAmount); err != nil {
			return err
		}

		c.applyAMM(amm)
		if result.Complete {
			c.Complete = true
		}
		snapshot = *c
		receipt = s.newReceipt(c, params.Buyer, true, result.SolAmount, result.TokenAmount, fee)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Buy settled",
		zap.String("mint", params.Mint.String()),
		zap.String("buyer", params.Buyer.String()),
		zap.Uint64("token_amount", receipt.TokenAmount),
		zap.Uint64("sol_amount", receipt.SolAmount),
		zap.Uint64("fee", receipt.Fee),
		zap.Bool("complete", receipt.Complete))

	s.finishTrade(ctx, receipt, &snapshot)
	return receipt, nil
}

// Sell returns an exact token amount to the mint's curve. The payout net of
// fee must be at least params.MinSolOutput.
func (s *Service) Sell(ctx context.Context, params SellParams) (receipt *TradeReceipt, err error) {
	start := time.Now()
	defer func() {
		s.recordTrade(metrics.DirectionSell, time.Since(start), err == nil)
	}()

	cfg, err := s.requireActive()
	if err != nil {
		return nil, err
	}

	var snapshot BondingCurve
	err = s.curves.withCurve(params.Mint, func(c *BondingCurve) error {
		if c.Complete {
			return ErrCurveComplete
		}
		if s.ledger.TokenBalance(params.Seller, params.Mint) < params.TokenAmount {
			return ErrInsufficientTokens
		}
		if s.ledger.TokenBalance(params.Mint, params.Mint) < params.TokenAmount {
			return ErrInsufficientTokens
		}
		if params.TokenAmount == 0 {
			return ErrMinTrade
		}
		if params.FeeRecipient != cfg.FeeRecipient {
			return ErrInvalidFeeRecipient
		}

		amm := c.amm(cfg.InitialVirtualTokenReserves)
		result, err := amm.ApplySell(params.TokenAmount)
		if err != nil {
			return mapEngineError(err)
		}

		fee, err := curve.CalculateFee(result.SolAmount, cfg.FeeBasisPoints)
		if err != nil {
			return mapEngineError(err)
		}
		if result.SolAmount-fee < params.MinSolOutput {
			return ErrSlippageExceeded
		}

		if err := s.ledger.SettleSell(params.Mint, params.Seller, params.FeeRecipient,
			result.SolAmount, fee, result.TokenAmount); err != nil {
			return err
		}

		c.applyAMM(amm)
		if result.Complete {
			c.Complete = true
		}
		snapshot = *c
		receipt = s.newReceipt(c, params.Seller, false, result.SolAmount, result.TokenAmount, fee)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Sell settled",
		zap.String("mint", params.Mint.String()),
		zap.String("seller", params.Seller.String()),
		zap.Uint64("token_amount", receipt.TokenAmount),
		zap.Uint64("sol_amount", receipt.SolAmount),
		zap.Uint64("fee", receipt.Fee),
		zap.Bool("complete", receipt.Complete))

	s.finishTrade(ctx, receipt, &snapshot)
	return receipt, nil
}

// Withdraw sweeps a completed curve's settled balances to the withdraw
// authority. Withdraw stays available while trading is paused.
func (s *Service) Withdraw(ctx context.Context, caller, mint solana.PublicKey) (solAmount, tokenAmount uint64, err error) {
	s.globalMu.Lock()
	if !s.global.Initialized {
		s.globalMu.Unlock()
		return 0, 0, ErrNotInitialized
	}
	if s.global.WithdrawAuthority != caller {
		s.globalMu.Unlock()
		return 0, 0, ErrInvalidAuthority
	}
	s.globalMu.Unlock()

	var snapshot BondingCurve
	err = s.curves.withCurve(mint, func(c *BondingCurve) error {
		if !c.Complete {
			return ErrCurveNotComplete
		}

		solAmount, tokenAmount, err = s.ledger.Sweep(mint, caller)
		if err != nil {
			return err
		}
		c.RealSolReserves = 0
		c.RealTokenReserves = 0
		snapshot = *c
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	s.logger.Info("Curve withdrawn",
		zap.String("mint", mint.String()),
		zap.String("authority", caller.String()),
		zap.Uint64("sol_amount", solAmount),
		zap.Uint64("token_amount", tokenAmount))

	s.persistSnapshot(ctx, &snapshot)
	s.publish(events.CurveWithdrawnEvent{
		BaseEvent:   events.BaseEvent{EventType: events.CurveWithdrawn, EventTime: s.now()},
		Mint:        mint,
		Authority:   caller,
		SolAmount:   solAmount,
		TokenAmount: tokenAmount,
	})
	return solAmount, tokenAmount, nil
}

// Curve returns a copy of the mint's bonding curve record.
func (s *Service) Curve(mint solana.PublicKey) (BondingCurve, error) {
	return s.curves.get(mint)
}

// Curves returns copies of all bonding curve records.
func (s *Service) Curves() []BondingCurve {
	return s.curves.list()
}

func (s *Service) newReceipt(c *BondingCurve, user solana.PublicKey, isBuy bool, solAmount, tokenAmount, fee uint64) *TradeReceipt {
	return &TradeReceipt{
		ID:                   uuid.New().String(),
		Mint:                 c.Mint,
		User:                 user,
		IsBuy:                isBuy,
		SolAmount:            solAmount,
		TokenAmount:          tokenAmount,
		Fee:                  fee,
		VirtualSolReserves:   c.VirtualSolReserves,
		VirtualTokenReserves: c.VirtualTokenReserves,
		RealSolReserves:      c.RealSolReserves,
		RealTokenReserves:    c.RealTokenReserves,
		Complete:             c.Complete,
		Timestamp:            s.now(),
	}
}

// finishTrade runs the post-commit side effects: durable receipt and
// snapshot, receipt event, completion event, metrics. The trade is already
// settled at this point; failures here are logged, not rolled back.
func (s *Service) finishTrade(ctx context.Context, receipt *TradeReceipt, snapshot *BondingCurve) {
	if s.store != nil {
		if err := s.store.SaveReceipt(ctx, receiptModel(receipt)); err != nil {
			s.logger.Error("Failed to persist trade receipt",
				zap.String("receipt_id", receipt.ID), zap.Error(err))
		}
	}
	s.persistSnapshot(ctx, snapshot)

	direction := metrics.DirectionSell
	if receipt.IsBuy {
		direction = metrics.DirectionBuy
	}
	if s.metrics != nil {
		s.metrics.RecordVolume(direction, receipt.SolAmount)
		s.metrics.UpdateCurveReserves(receipt.Mint.String(),
			receipt.VirtualSolReserves, receipt.VirtualTokenReserves,
			receipt.RealSolReserves, receipt.RealTokenReserves)
		if receipt.Complete {
			s.metrics.RecordCurveCompleted()
		}
	}

	s.publish(events.TradeExecutedEvent{
		BaseEvent:            events.BaseEvent{EventType: events.TradeExecuted, EventTime: receipt.Timestamp},
		ReceiptID:            receipt.ID,
		Mint:                 receipt.Mint,
		User:                 receipt.User,
		IsBuy:                receipt.IsBuy,
		SolAmount:            receipt.SolAmount,
		TokenAmount:          receipt.TokenAmount,
		Fee:                  receipt.Fee,
		VirtualSolReserves:   receipt.VirtualSolReserves,
		VirtualTokenReserves: receipt.VirtualTokenReserves,
		RealSolReserves:      receipt.RealSolReserves,
		RealTokenReserves:    receipt.RealTokenReserves,
		Complete:             receipt.Complete,
	})
	if receipt.Complete {
		s.publish(events.CurveCompletedEvent{
			BaseEvent:       events.BaseEvent{EventType: events.CurveCompleted, EventTime: receipt.Timestamp},
			Mint:            receipt.Mint,
			RealSolReserves: receipt.RealSolReserves,
		})
	}
}

func (s *Service) persistSnapshot(ctx context.Context, c *BondingCurve) {
	if s.store == nil {
		return
	}
	snapshot := &models.CurveSnapshot{
		Mint:                 c.Mint.String(),
		Creator:              c.Creator.String(),
		Name:                 c.Metadata.Name,
		Symbol:               c.Metadata.Symbol,
		URI:                  c.Metadata.URI,
		VirtualSolReserves:   c.VirtualSolReserves,
		VirtualTokenReserves: c.VirtualTokenReserves,
		RealSolReserves:      c.RealSolReserves,
		RealTokenReserves:    c.RealTokenReserves,
		TokenTotalSupply:     c.TokenTotalSupply,
		Complete:             c.Complete,
	}
	if err := s.store.SaveCurveSnapshot(ctx, snapshot); err != nil {
		s.logger.Error("Failed to persist curve snapshot",
			zap.String("mint", snapshot.Mint), zap.Error(err))
	}
}

func (s *Service) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", string(event.Type())), zap.Error(err))
	}
}

func (s *Service) recordTrade(direction string, duration time.Duration, success bool) {
	if s.metrics != nil {
		s.metrics.RecordTrade(direction, duration, success)
	}
}

func receiptModel(r *TradeReceipt) *models.TradeReceipt {
	return &models.TradeReceipt{
		ReceiptID:            r.ID,
		Mint:                 r.Mint.String(),
		UserAddress:          r.User.String(),
		IsBuy:                r.IsBuy,
		SolAmount:            r.SolAmount,
		TokenAmount:          r.TokenAmount,
		Fee:                  r.Fee,
		VirtualSolReserves:   r.VirtualSolReserves,
		VirtualTokenReserves: r.VirtualTokenReserves,
		RealSolReserves:      r.RealSolReserves,
		RealTokenReserves:    r.RealTokenReserves,
		Complete:             r.Complete,
		ExecutedAt:           r.Timestamp,
	}
}

func mapEngineError(err error) error {
	switch {
	case errors.Is(err, curve.ErrZeroAmount):
		return ErrMinTrade
	case errors.Is(err, curve.ErrInsufficientTokens):
		return ErrInsufficientTokens
	case errors.Is(err, curve.ErrInsufficientSol):
		return ErrInsufficientSol
	case errors.Is(err, curve.ErrOverflow),
		errors.Is(err, curve.ErrDegenerateReserves):
		return ErrArithmeticOverflow
	default:
		return err
	}
}
