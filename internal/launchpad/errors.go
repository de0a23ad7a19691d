// ==================================
// File: internal/launchpad/errors.go
// ==================================
package launchpad

import "errors"

// Operation failures. Every error aborts the whole operation before any
// state is touched; nothing here is fatal to the process.
var (
	ErrAlreadyInitialized   = errors.New("launchpad: global config already initialized")
	ErrNotInitialized       = errors.New("launchpad: global config not initialized")
	ErrInvalidAuthority     = errors.New("launchpad: caller is not the configured authority")
	ErrProgramPaused        = errors.New("launchpad: trading is paused")
	ErrCurveExists          = errors.New("launchpad: bonding curve already exists for mint")
	ErrCurveNotFound        = errors.New("launchpad: bonding curve not found")
	ErrCurveComplete        = errors.New("launchpad: bonding curve is complete")
	ErrCurveNotComplete     = errors.New("launchpad: bonding curve is not complete")
	ErrInsufficientTokens   = errors.New("launchpad: insufficient token balance")
	ErrInsufficientSol      = errors.New("launchpad: insufficient sol balance")
	ErrInvalidFeeRecipient  = errors.New("launchpad: fee recipient does not match config")
	ErrMinTrade             = errors.New("launchpad: trade amount below minimum")
	ErrSlippageExceeded     = errors.New("launchpad: trade violates caller's price bound")
	ErrInvalidFeeBasisPoint = errors.New("launchpad: fee basis points out of range")
	ErrArithmeticOverflow   = errors.New("launchpad: arithmetic overflow")
	ErrArithmeticUnderflow  = errors.New("launchpad: arithmetic underflow")
)
