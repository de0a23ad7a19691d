// =================================
// File: internal/launchpad/quote.go
// =================================
package launchpad

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/biswap-org/curve-launchpad/internal/curve"
)

// Quote is a non-binding price estimate computed over a snapshot of the
// curve's reserves. Another trade can land between quote and execution, so
// callers still declare a slippage bound on the trade itself.
type Quote struct {
	Mint        solana.PublicKey
	IsBuy       bool
	TokenAmount uint64
	SolAmount   uint64
	Fee         uint64
	// TotalCost is the all-in sol cost for a buy; NetOutput the sol
	// delivered after fee for a sell. Only the matching field is set.
	TotalCost uint64
	NetOutput uint64
	SpotPrice decimal.Decimal
}

// QuoteBuy estimates the all-in cost of buying tokenAmount from the curve.
func (s *Service) QuoteBuy(mint solana.PublicKey, tokenAmount uint64) (*Quote, error) {
	cfg, c, err := s.quoteState(mint)
	if err != nil {
		return nil, err
	}
	if tokenAmount > c.RealTokenReserves {
		return nil, ErrInsufficientTokens
	}

	amm := c.amm(cfg.InitialVirtualTokenReserves)
	solAmount, err := amm.GetBuyPrice(tokenAmount)
	if err != nil {
		return nil, mapEngineError(err)
	}
	fee, err := curve.CalculateFee(solAmount, cfg.FeeBasisPoints)
	if err != nil {
		return nil, mapEngineError(err)
	}
	total := solAmount + fee
	if total < solAmount {
		return nil, ErrArithmeticOverflow
	}

	return &Quote{
		Mint:        mint,
		IsBuy:       true,
		TokenAmount: tokenAmount,
		SolAmount:   solAmount,
		Fee:         fee,
		TotalCost:   total,
		SpotPrice:   amm.SpotPrice(),
	}, nil
}

// QuoteSell estimates the net payout of selling tokenAmount to the curve.
func (s *Service) QuoteSell(mint solana.PublicKey, tokenAmount uint64) (*Quote, error) {
	cfg, c, err := s.quoteState(mint)
	if err != nil {
		return nil, err
	}

	amm := c.amm(cfg.InitialVirtualTokenReserves)
	solAmount, err := amm.GetSellPrice(tokenAmount)
	if err != nil {
		return nil, mapEngineError(err)
	}
	fee, err := curve.CalculateFee(solAmount, cfg.FeeBasisPoints)
	if err != nil {
		return nil, mapEngineError(err)
	}

	return &Quote{
		Mint:        mint,
		IsBuy:       false,
		TokenAmount: tokenAmount,
		SolAmount:   solAmount,
		Fee:         fee,
		NetOutput:   solAmount - fee,
		SpotPrice:   amm.SpotPrice(),
	}, nil
}

// TokensForSol estimates how many tokens a given sol amount currently buys.
func (s *Service) TokensForSol(mint solana.PublicKey, solAmount uint64) (uint64, error) {
	cfg, c, err := s.quoteState(mint)
	if err != nil {
		return 0, err
	}

	tokens, err := c.amm(cfg.InitialVirtualTokenReserves).TokensForSol(solAmount)
	if err != nil {
		return 0, mapEngineError(err)
	}
	return tokens, nil
}

func (s *Service) quoteState(mint solana.PublicKey) (Global, BondingCurve, error) {
	s.globalMu.Lock()
	cfg := s.global
	s.globalMu.Unlock()
	if !cfg.Initialized {
		return Global{}, BondingCurve{}, ErrNotInitialized
	}

	c, err := s.curves.get(mint)
	if err != nil {
		return Global{}, BondingCurve{}, err
	}
	return cfg, c, nil
}
