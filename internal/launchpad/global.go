// ==================================
// File: internal/launchpad/global.go
// ==================================
package launchpad

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/biswap-org/curve-launchpad/internal/curve"
	"github.com/biswap-org/curve-launchpad/internal/events"
)

// Launch defaults seeded by Initialize. Token amounts use 6 decimals, sol
// amounts 9.
const (
	DefaultTokenDecimals               = 6
	DefaultTokenSupply                 = 1_000_000_000 * 1_000_000
	DefaultInitialVirtualSolReserves   = 30_000_000_000
	DefaultInitialVirtualTokenReserves = 1_073_000_000_000_000
	DefaultFeeBasisPoints              = 100
)

// Global is the singleton configuration applied to every curve and trade.
// It is guarded by the service's config lock; all mutation goes through the
// authority-gated admin operations below.
type Global struct {
	Initialized                 bool
	Paused                      bool
	Authority                   solana.PublicKey
	FeeRecipient                solana.PublicKey
	WithdrawAuthority           solana.PublicKey
	InitialVirtualSolReserves   uint64
	InitialVirtualTokenReserves uint64
	InitialRealTokenReserves    uint64
	InitialTokenSupply          uint64
	FeeBasisPoints              uint64
}

// Params carries the bulk-update payload for SetParams.
type Params struct {
	FeeRecipient                solana.PublicKey
	WithdrawAuthority           solana.PublicKey
	InitialVirtualSolReserves   uint64
	InitialVirtualTokenReserves uint64
	InitialRealTokenReserves    uint64
	InitialTokenSupply          uint64
	FeeBasisPoints              uint64
}

// Initialize creates the global config exactly once. The launchpad boots
// paused; trading starts only after the authority unpauses it. The authority
// initially doubles as fee recipient and withdraw authority until SetParams
// assigns dedicated identities.
func (s *Service) Initialize(authority solana.PublicKey) error {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	if s.global.Initialized {
		return ErrAlreadyInitialized
	}

	s.global = Global{
		Initialized:                 true,
		Paused:                      true,
		Authority:                   authority,
		FeeRecipient:                authority,
		WithdrawAuthority:           authority,
		InitialVirtualSolReserves:   DefaultInitialVirtualSolReserves,
		InitialVirtualTokenReserves: DefaultInitialVirtualTokenReserves,
		InitialRealTokenReserves:    DefaultTokenSupply,
		InitialTokenSupply:          DefaultTokenSupply,
		FeeBasisPoints:              DefaultFeeBasisPoints,
	}

	s.logger.Info("Global config initialized; launchpad starts paused",
		zap.String("authority", authority.String()))
	s.publishConfigUpdated("initialize")
	return nil
}

// SetAuthority replaces the config authority.
func (s *Service) SetAuthority(caller, newAuthority solana.PublicKey) error {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	if err := s.requireAuthorityLocked(caller); err != nil {
		return err
	}

	s.global.Authority = newAuthority
	s.logger.Info("Authority replaced",
		zap.String("old", caller.String()),
		zap.String("new", newAuthority.String()))
	s.publishConfigUpdated("set_authority")
	return nil
}

// SetFee updates the trading fee rate.
func (s *Service) SetFee(caller solana.PublicKey, feeBasisPoints uint64) error {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	if err := s.requireAuthorityLocked(caller); err != nil {
		return err
	}
	if feeBasisPoints > curve.MaxFeeBasisPoints {
		return ErrInvalidFeeBasisPoint
	}

	s.global.FeeBasisPoints = feeBasisPoints
	s.logger.Info("Fee updated", zap.Uint64("fee_basis_points", feeBasisPoints))
	s.publishConfigUpdated("set_fee")
	return nil
}

// SetParams bulk-updates fee routing and the defaults used by future curve
// creations. Existing curves keep the parameters they were created with.
func (s *Service) SetParams(caller solana.PublicKey, params Params) error {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	if err := s.requireAuthorityLocked(caller); err != nil {
		return err
	}
	if params.FeeBasisPoints > curve.MaxFeeBasisPoints {
		return ErrInvalidFeeBasisPoint
	}

	s.global.FeeRecipient = params.FeeRecipient
	s.global.WithdrawAuthority = params.WithdrawAuthority
	s.global.InitialVirtualSolReserves = params.InitialVirtualSolReserves
	s.global.InitialVirtualTokenReserves = params.InitialVirtualTokenReserves
	s.global.InitialRealTokenReserves = params.InitialRealTokenReserves
	s.global.InitialTokenSupply = params.InitialTokenSupply
	s.global.FeeBasisPoints = params.FeeBasisPoints

	s.logger.Info("Global params updated",
		zap.String("fee_recipient", params.FeeRecipient.String()),
		zap.String("withdraw_authority", params.WithdrawAuthority.String()),
		zap.Uint64("fee_basis_points", params.FeeBasisPoints))
	s.publishConfigUpdated("set_params")
	return nil
}

// SetPaused flips the trading pause flag.
func (s *Service) SetPaused(caller solana.PublicKey, paused bool) error {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	if err := s.requireAuthorityLocked(caller); err != nil {
		return err
	}

	s.global.Paused = paused
	s.logger.Info("Pause flag updated", zap.Bool("paused", paused))
	s.publishConfigUpdated("set_paused")
	return nil
}

// GlobalConfig returns a copy of the current configuration.
func (s *Service) GlobalConfig() Global {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()
	return s.global
}

func (s *Service) requireAuthorityLocked(caller solana.PublicKey) error {
	if !s.global.Initialized {
		return ErrNotInitialized
	}
	if s.global.Authority != caller {
		return ErrInvalidAuthority
	}
	return nil
}

// requireActive checks the trading gate and returns a config snapshot.
func (s *Service) requireActive() (Global, error) {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	if !s.global.Initialized {
		return Global{}, ErrNotInitialized
	}
	if s.global.Paused {
		return Global{}, ErrProgramPaused
	}
	return s.global, nil
}

func (s *Service) publishConfigUpdated(operation string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(events.NewConfigUpdated(operation, s.now())); err != nil {
		s.logger.Warn("Failed to publish config event", zap.Error(err))
	}
}
