// ===============================
// File: internal/api/handlers.go
// ===============================
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/biswap-org/curve-launchpad/internal/launchpad"
	"github.com/biswap-org/curve-launchpad/internal/storage/models"
)

type curveResponse struct {
	Mint                 string    `json:"mint"`
	Creator              string    `json:"creator"`
	Name                 string    `json:"name"`
	Symbol               string    `json:"symbol"`
	URI                  string    `json:"uri"`
	VirtualSolReserves   uint64    `json:"virtual_sol_reserves"`
	VirtualTokenReserves uint64    `json:"virtual_token_reserves"`
	RealSolReserves      uint64    `json:"real_sol_reserves"`
	RealTokenReserves    uint64    `json:"real_token_reserves"`
	TokenTotalSupply     uint64    `json:"token_total_supply"`
	Complete             bool      `json:"complete"`
	CreatedAt            time.Time `json:"created_at"`
}

type receiptResponse struct {
	ReceiptID            string    `json:"receipt_id"`
	Mint                 string    `json:"mint"`
	User                 string    `json:"user"`
	IsBuy                bool      `json:"is_buy"`
	SolAmount            uint64    `json:"sol_amount"`
	TokenAmount          uint64    `json:"token_amount"`
	Fee                  uint64    `json:"fee"`
	VirtualSolReserves   uint64    `json:"virtual_sol_reserves"`
	VirtualTokenReserves uint64    `json:"virtual_token_reserves"`
	RealSolReserves      uint64    `json:"real_sol_reserves"`
	RealTokenReserves    uint64    `json:"real_token_reserves"`
	Complete             bool      `json:"complete"`
	Timestamp            time.Time `json:"timestamp"`
}

type quoteResponse struct {
	Mint        string `json:"mint"`
	Side        string `json:"side"`
	TokenAmount uint64 `json:"token_amount"`
	SolAmount   uint64 `json:"sol_amount"`
	Fee         uint64 `json:"fee"`
	TotalCost   uint64 `json:"total_cost,omitempty"`
	NetOutput   uint64 `json:"net_output,omitempty"`
	SpotPrice   string `json:"spot_price"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func curveJSON(c *launchpad.BondingCurve) curveResponse {
	return curveResponse{
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
		CreatedAt:            c.CreatedAt,
	}
}

func receiptJSON(r *launchpad.TradeReceipt) receiptResponse {
	return receiptResponse{
		ReceiptID:            r.ID,
		Mint:                 r.Mint.String(),
		User:                 r.User.String(),
		IsBuy:                r.IsBuy,
		SolAmount:            r.SolAmount,
		TokenAmount:          r.TokenAmount,
		Fee:                  r.Fee,
		VirtualSolReserves:   r.VirtualSolReserves,
		VirtualTokenReserves: r.VirtualTokenReserves,
		RealSolReserves:      r.RealSolReserves,
		RealTokenReserves:    r.RealTokenReserves,
		Complete:             r.Complete,
		Timestamp:            r.Timestamp,
	}
}

// abort maps domain errors onto HTTP statuses.
func (s *Server) abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, launchpad.ErrMinTrade),
		errors.Is(err, launchpad.ErrInvalidFeeBasisPoint):
		status = http.StatusBadRequest
	case errors.Is(err, launchpad.ErrInvalidAuthority):
		status = http.StatusForbidden
	case errors.Is(err, launchpad.ErrCurveNotFound):
		status = http.StatusNotFound
	case errors.Is(err, launchpad.ErrAlreadyInitialized),
		errors.Is(err, launchpad.ErrCurveExists),
		errors.Is(err, launchpad.ErrCurveComplete),
		errors.Is(err, launchpad.ErrCurveNotComplete),
		errors.Is(err, launchpad.ErrProgramPaused),
		errors.Is(err, launchpad.ErrInvalidFeeRecipient):
		status = http.StatusConflict
	case errors.Is(err, launchpad.ErrSlippageExceeded),
		errors.Is(err, launchpad.ErrInsufficientSol),
		errors.Is(err, launchpad.ErrInsufficientTokens),
		errors.Is(err, launchpad.ErrArithmeticOverflow),
		errors.Is(err, launchpad.ErrArithmeticUnderflow):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, launchpad.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func parseKey(raw string) (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(raw)
}

func (s *Server) mintParam(c *gin.Context) (solana.PublicKey, bool) {
	mint, err := parseKey(c.Param("mint"))
	if err != nil {
		s.badRequest(c, "invalid mint address")
		return solana.PublicKey{}, false
	}
	return mint, true
}

func (s *Server) getConfig(c *gin.Context) {
	cfg := s.service.GlobalConfig()
	c.JSON(http.StatusOK, gin.H{
		"initialized":                    cfg.Initialized,
		"paused":                         cfg.Paused,
		"authority":                      cfg.Authority.String(),
		"fee_recipient":                  cfg.FeeRecipient.String(),
		"withdraw_authority":             cfg.WithdrawAuthority.String(),
		"initial_virtual_sol_reserves":   cfg.InitialVirtualSolReserves,
		"initial_virtual_token_reserves": cfg.InitialVirtualTokenReserves,
		"initial_real_token_reserves":    cfg.InitialRealTokenReserves,
		"initial_token_supply":           cfg.InitialTokenSupply,
		"fee_basis_points":               cfg.FeeBasisPoints,
	})
}

func (s *Server) listCurves(c *gin.Context) {
	curves := s.service.Curves()
	out := make([]curveResponse, 0, len(curves))
	for i := range curves {
		out = append(out, curveJSON(&curves[i]))
	}
	c.JSON(http.StatusOK, gin.H{"curves": out})
}

func (s *Server) getCurve(c *gin.Context) {
	mint, ok := s.mintParam(c)
	if !ok {
		return
	}
	curve, err := s.service.Curve(mint)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, curveJSON(&curve))
}

type createCurveRequest struct {
	Creator string `json:"creator" binding:"required"`
	Mint    string `json:"mint"`
	Name    string `json:"name" binding:"required"`
	Symbol  string `json:"symbol" binding:"required"`
	URI     string `json:"uri"`
}

func (s *Server) createCurve(c *gin.Context) {
	var req createCurveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	creator, err := parseKey(req.Creator)
	if err != nil {
		s.badRequest(c, "invalid creator address")
		return
	}

	// A fresh mint is generated when the request does not name one.
	mint := solana.NewWallet().PublicKey()
	if req.Mint != "" {
		if mint, err = parseKey(req.Mint); err != nil {
			s.badRequest(c, "invalid mint address")
			return
		}
	}

	curve, err := s.service.Create(c.Request.Context(), launchpad.CreateParams{
		Creator: creator,
		Mint:    mint,
		Metadata: launchpad.TokenMetadata{
			Name:   req.Name,
			Symbol: req.Symbol,
			URI:    req.URI,
		},
	})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, curveJSON(curve))
}

type buyRequest struct {
	Buyer        string `json:"buyer" binding:"required"`
	FeeRecipient string `json:"fee_recipient" binding:"required"`
	TokenAmount  uint64 `json:"token_amount"`
	MaxSolCost   uint64 `json:"max_sol_cost"`
}

func (s *Server) buy(c *gin.Context) {
	mint, ok := s.mintParam(c)
	if !ok {
		return
	}
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	buyer, err := parseKey(req.Buyer)
	if err != nil {
		s.badRequest(c, "invalid buyer address")
		return
	}
	feeRecipient, err := parseKey(req.FeeRecipient)
	if err != nil {
		s.badRequest(c, "invalid fee recipient address")
		return
	}

	receipt, err := s.service.Buy(c.Request.Context(), launchpad.BuyParams{
		Buyer:        buyer,
		Mint:         mint,
		FeeRecipient: feeRecipient,
		TokenAmount:  req.TokenAmount,
		MaxSolCost:   req.MaxSolCost,
	})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, receiptJSON(receipt))
}

type sellRequest struct {
	Seller       string `json:"seller" binding:"required"`
	FeeRecipient string `json:"fee_recipient" binding:"required"`
	TokenAmount  uint64 `json:"token_amount"`
	MinSolOutput uint64 `json:"min_sol_output"`
}

func (s *Server) sell(c *gin.Context) {
	mint, ok := s.mintParam(c)
	if !ok {
		return
	}
	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	seller, err := parseKey(req.Seller)
	if err != nil {
		s.badRequest(c, "invalid seller address")
		return
	}
	feeRecipient, err := parseKey(req.FeeRecipient)
	if err != nil {
		s.badRequest(c, "invalid fee recipient address")
		return
	}

	receipt, err := s.service.Sell(c.Request.Context(), launchpad.SellParams{
		Seller:       seller,
		Mint:         mint,
		FeeRecipient: feeRecipient,
		TokenAmount:  req.TokenAmount,
		MinSolOutput: req.MinSolOutput,
	})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, receiptJSON(receipt))
}

type withdrawRequest struct {
	Authority string `json:"authority" binding:"required"`
}

func (s *Server) withdraw(c *gin.Context) {
	mint, ok := s.mintParam(c)
	if !ok {
		return
	}
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	authority, err := parseKey(req.Authority)
	if err != nil {
		s.badRequest(c, "invalid authority address")
		return
	}

	solAmount, tokenAmount, err := s.service.Withdraw(c.Request.Context(), authority, mint)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mint":         mint.String(),
		"sol_amount":   solAmount,
		"token_amount": tokenAmount,
	})
}

// quote prices a prospective trade without executing it. Side is "buy" or
// "sell"; a buy quote also accepts sol_amount to ask how many tokens a sol
// budget currently purchases.
func (s *Server) quote(c *gin.Context) {
	mint, ok := s.mintParam(c)
	if !ok {
		return
	}
	side := c.DefaultQuery("side", "buy")

	if raw := c.Query("sol_amount"); raw != "" && side == "buy" {
		solAmount, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.badRequest(c, "invalid sol_amount")
			return
		}
		tokens, err := s.service.TokensForSol(mint, solAmount)
		if err != nil {
			s.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"mint":         mint.String(),
			"side":         side,
			"sol_amount":   solAmount,
			"token_amount": tokens,
		})
		return
	}

	tokenAmount, err := strconv.ParseUint(c.Query("token_amount"), 10, 64)
	if err != nil {
		s.badRequest(c, "invalid token_amount")
		return
	}

	var quote *launchpad.Quote
	switch side {
	case "buy":
		quote, err = s.service.QuoteBuy(mint, tokenAmount)
	case "sell":
		quote, err = s.service.QuoteSell(mint, tokenAmount)
	default:
		s.badRequest(c, "side must be buy or sell")
		return
	}
	if err != nil {
		s.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse{
		Mint:        quote.Mint.String(),
		Side:        side,
		TokenAmount: quote.TokenAmount,
		SolAmount:   quote.SolAmount,
		Fee:         quote.Fee,
		TotalCost:   quote.TotalCost,
		NetOutput:   quote.NetOutput,
		SpotPrice:   quote.SpotPrice.String(),
	})
}

func storedReceiptJSON(r *models.TradeReceipt) receiptResponse {
	return receiptResponse{
		ReceiptID:            r.ReceiptID,
		Mint:                 r.Mint,
		User:                 r.UserAddress,
		IsBuy:                r.IsBuy,
		SolAmount:            r.SolAmount,
		TokenAmount:          r.TokenAmount,
		Fee:                  r.Fee,
		VirtualSolReserves:   r.VirtualSolReserves,
		VirtualTokenReserves: r.VirtualTokenReserves,
		RealSolReserves:      r.RealSolReserves,
		RealTokenReserves:    r.RealTokenReserves,
		Complete:             r.Complete,
		Timestamp:            r.ExecutedAt,
	}
}

// listReceipts pages through the durable trade history, newest first.
func (s *Server) listReceipts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		s.badRequest(c, "invalid limit")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		s.badRequest(c, "invalid offset")
		return
	}

	receipts, err := s.store.ListReceipts(c.Request.Context(), c.Query("mint"), limit, offset)
	if err != nil {
		s.abort(c, err)
		return
	}

	out := make([]receiptResponse, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, storedReceiptJSON(r))
	}
	c.JSON(http.StatusOK, gin.H{"receipts": out})
}

func (s *Server) getReceipt(c *gin.Context) {
	receipt, err := s.store.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "receipt not found"})
		return
	}
	c.JSON(http.StatusOK, storedReceiptJSON(receipt))
}

type initializeRequest struct {
	Authority string `json:"authority" binding:"required"`
}

func (s *Server) initialize(c *gin.Context) {
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	authority, err := parseKey(req.Authority)
	if err != nil {
		s.badRequest(c, "invalid authority address")
		return
	}
	if err := s.service.Initialize(authority); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"initialized": true})
}

type setAuthorityRequest struct {
	Caller       string `json:"caller" binding:"required"`
	NewAuthority string `json:"new_authority" binding:"required"`
}

func (s *Server) setAuthority(c *gin.Context) {
	var req setAuthorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	caller, err := parseKey(req.Caller)
	if err != nil {
		s.badRequest(c, "invalid caller address")
		return
	}
	next, err := parseKey(req.NewAuthority)
	if err != nil {
		s.badRequest(c, "invalid new_authority address")
		return
	}
	if err := s.service.SetAuthority(caller, next); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authority": next.String()})
}

type setFeeRequest struct {
	Caller         string `json:"caller" binding:"required"`
	FeeBasisPoints uint64 `json:"fee_basis_points"`
}

func (s *Server) setFee(c *gin.Context) {
	var req setFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	caller, err := parseKey(req.Caller)
	if err != nil {
		s.badRequest(c, "invalid caller address")
		return
	}
	if err := s.service.SetFee(caller, req.FeeBasisPoints); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_basis_points": req.FeeBasisPoints})
}

type setParamsRequest struct {
	Caller                      string `json:"caller" binding:"required"`
	FeeRecipient                string `json:"fee_recipient" binding:"required"`
	WithdrawAuthority           string `json:"withdraw_authority" binding:"required"`
	InitialVirtualSolReserves   uint64 `json:"initial_virtual_sol_reserves"`
	InitialVirtualTokenReserves uint64 `json:"initial_virtual_token_reserves"`
	InitialRealTokenReserves    uint64 `json:"initial_real_token_reserves"`
	InitialTokenSupply          uint64 `json:"initial_token_supply"`
	FeeBasisPoints              uint64 `json:"fee_basis_points"`
}

func (s *Server) setParams(c *gin.Context) {
	var req setParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	caller, err := parseKey(req.Caller)
	if err != nil {
		s.badRequest(c, "invalid caller address")
		return
	}
	feeRecipient, err := parseKey(req.FeeRecipient)
	if err != nil {
		s.badRequest(c, "invalid fee_recipient address")
		return
	}
	withdrawAuthority, err := parseKey(req.WithdrawAuthority)
	if err != nil {
		s.badRequest(c, "invalid withdraw_authority address")
		return
	}

	err = s.service.SetParams(caller, launchpad.Params{
		FeeRecipient:                feeRecipient,
		WithdrawAuthority:           withdrawAuthority,
		InitialVirtualSolReserves:   req.InitialVirtualSolReserves,
		InitialVirtualTokenReserves: req.InitialVirtualTokenReserves,
		InitialRealTokenReserves:    req.InitialRealTokenReserves,
		InitialTokenSupply:          req.InitialTokenSupply,
		FeeBasisPoints:              req.FeeBasisPoints,
	})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

type setPausedRequest struct {
	Caller string `json:"caller" binding:"required"`
	Paused *bool  `json:"paused" binding:"required"`
}

func (s *Server) setPaused(c *gin.Context) {
	var req setPausedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	caller, err := parseKey(req.Caller)
	if err != nil {
		s.badRequest(c, "invalid caller address")
		return
	}
	if err := s.service.SetPaused(caller, *req.Paused); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": *req.Paused})
}
