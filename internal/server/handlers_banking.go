package server

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountRequest is the body for deposits and withdrawals.
type AmountRequest struct {
	Amount string `json:"amount"`
	PIN    string `json:"pin,omitempty"`
}

// TransferRequest is the body for POST /api/transfers.
type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	PIN    string `json:"pin,omitempty"`
}

func parseAmount(w http.ResponseWriter, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid amount: "+raw)
		return decimal.Zero, false
	}
	return amount, true
}

// verifyPIN checks the PIN when one was supplied. An empty PIN skips the
// check; protected deployments front this API with their own auth layer.
func (s *Server) verifyPIN(w http.ResponseWriter, r *http.Request, number, pin string) bool {
	if pin == "" {
		return true
	}
	if err := s.app.AccountService.VerifyPIN(r.Context(), number, pin); err != nil {
		WriteServiceError(w, err)
		return false
	}
	return true
}

// handleDeposit handles POST /api/accounts/{number}/deposit.
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request, number string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req AmountRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	txn, err := s.app.BankingService.Deposit(r.Context(), number, amount)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, txn)
}

// handleWithdraw handles POST /api/accounts/{number}/withdraw.
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request, number string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req AmountRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	if !s.verifyPIN(w, r, number, req.PIN) {
		return
	}
	txn, err := s.app.BankingService.Withdraw(r.Context(), number, amount)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, txn)
}

// handleTransfer handles POST /api/transfers.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req TransferRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	if !s.verifyPIN(w, r, req.From, req.PIN) {
		return
	}
	txn, err := s.app.BankingService.Transfer(r.Context(), req.From, req.To, amount)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, txn)
}

// routeTransfers dispatches /api/transfers/{id}/reverse.
func (s *Server) routeTransfers(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/transfers/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || sub != "reverse" {
		WriteError(w, http.StatusNotFound, "Unknown resource")
		return
	}
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	txn, err := s.app.BankingService.Reverse(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, txn)
}
