// =============================
// File: internal/curve/fee.go
// =============================
package curve

import "github.com/holiman/uint256"

// MaxFeeBasisPoints is the denominator of the fee rate: 10000 basis points
// equal 100%.
const MaxFeeBasisPoints = 10_000

// CalculateFee returns floor(solAmount * feeBasisPoints / 10000). The fee is
// applied to the raw curve output, never to the reserves themselves, so the
// swap math stays fee-free. The result is always in [0, solAmount].
func CalculateFee(solAmount, feeBasisPoints uint64) (uint64, error) {
	if feeBasisPoints > MaxFeeBasisPoints {
		return 0, ErrOverflow
	}

	fee := product(solAmount, feeBasisPoints)
	fee.Div(fee, uint256.NewInt(MaxFeeBasisPoints))

	// fee <= solAmount since feeBasisPoints <= 10000, so narrowing is safe.
	return fee.Uint64(), nil
}
