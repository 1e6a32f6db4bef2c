package server

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
)

// OpenAccountRequest is the body for POST /api/accounts.
type OpenAccountRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	PIN            string `json:"pin"`
	Role           string `json:"role,omitempty"`
	OpeningBalance string `json:"opening_balance,omitempty"`
}

// handleAccountOpen handles POST /api/accounts.
func (s *Server) handleAccountOpen(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req OpenAccountRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		opening, err = decimal.NewFromString(req.OpeningBalance)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid opening_balance: "+err.Error())
			return
		}
	}

	acct, err := s.app.AccountService.Open(r.Context(), interfaces.OpenAccountRequest{
		Name:           req.Name,
		Email:          req.Email,
		PIN:            req.PIN,
		Role:           models.AccountRole(req.Role),
		OpeningBalance: opening,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, acct)
}

// routeAccounts dispatches /api/accounts/{number}[/...] by sub-resource.
func (s *Server) routeAccounts(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
	number, sub, _ := strings.Cut(rest, "/")
	if number == "" {
		WriteError(w, http.StatusBadRequest, "Account number is required")
		return
	}

	switch sub {
	case "":
		s.handleAccountGet(w, r, number)
	case "balance":
		s.handleBalance(w, r, number)
	case "transactions":
		s.handleTransactions(w, r, number)
	case "deposit":
		s.handleDeposit(w, r, number)
	case "withdraw":
		s.handleWithdraw(w, r, number)
	case "buy":
		s.handleTrade(w, r, number, models.Buy)
	case "sell":
		s.handleTrade(w, r, number, models.Sell)
	case "trades":
		s.handleTrades(w, r, number)
	case "portfolio":
		s.handlePortfolio(w, r, number)
	case "history":
		s.handleHistory(w, r, number)
	case "history/chart":
		s.handleHistoryChart(w, r, number)
	default:
		WriteError(w, http.StatusNotFound, "Unknown resource: "+sub)
	}
}

// handleAccountGet handles GET /api/accounts/{number}.
func (s *Server) handleAccountGet(w http.ResponseWriter, r *http.Request, number string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	acct, err := s.app.AccountService.Resolve(r.Context(), number)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, acct)
}

// handleBalance handles GET /api/accounts/{number}/balance.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, number string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	balance, err := s.app.BankingService.Balance(r.Context(), number)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

// handleTransactions handles GET /api/accounts/{number}/transactions.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, number string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	txns, err := s.app.BankingService.Transactions(r.Context(), number)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, txns)
}
