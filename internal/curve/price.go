// =============================
// File: internal/curve/price.go
// =============================
package curve

import "github.com/shopspring/decimal"

// Smallest-unit scaling for display prices. Reserves are kept in lamports
// (10^9 per sol) and base token units (10^6 per token).
const (
	SolDecimals   = 9
	TokenDecimals = 6
)

// SpotPrice returns the current marginal price in sol per whole token,
// derived from the virtual reserve ratio. This is a display value for APIs
// and logs; settlement math never touches it.
func (a *AMM) SpotPrice() decimal.Decimal {
	if a.VirtualTokenReserves == 0 {
		return decimal.Zero
	}

	sol := decimal.NewFromUint64(a.VirtualSolReserves).Shift(-SolDecimals)
	tokens := decimal.NewFromUint64(a.VirtualTokenReserves).Shift(-TokenDecimals)
	return sol.DivRound(tokens, 18)
}
