package server

import (
	"net/http"

	"github.com/dmaitland/tally/internal/models"
)

// TradeRequest is the body for POST /api/accounts/{number}/buy and /sell.
type TradeRequest struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
	Class    string `json:"class,omitempty"`
	PIN      string `json:"pin,omitempty"`
}

// handleTrade handles buy and sell orders.
func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, number string, side models.TradeSide) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req TradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !s.verifyPIN(w, r, number, req.PIN) {
		return
	}

	class := models.ParseInvestmentClass(req.Class)
	var (
		conf *models.TradeConfirmation
		err  error
	)
	if side == models.Buy {
		conf, err = s.app.TradingService.Buy(r.Context(), number, req.Symbol, req.Quantity, class)
	} else {
		conf, err = s.app.TradingService.Sell(r.Context(), number, req.Symbol, req.Quantity, class)
	}
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, conf)
}

// handleTrades handles GET /api/accounts/{number}/trades.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request, number string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	trades, err := s.app.TradingService.Trades(r.Context(), number)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, trades)
}
