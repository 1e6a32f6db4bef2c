package server

import (
	"net/http"

	"github.com/dmaitland/tally/internal/models"
)

// handlePortfolio handles GET /api/accounts/{number}/portfolio.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request, number string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	positions, err := s.app.PortfolioService.Positions(r.Context(), number)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, positions)
}

// handleHistory handles GET /api/accounts/{number}/history?range=7d|30d|12m.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, number string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	rng := models.ParseHistoryRange(r.URL.Query().Get("range"))
	points, err := s.app.PortfolioService.History(r.Context(), number, rng)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, points)
}

// handleHistoryChart handles GET /api/accounts/{number}/history/chart.
// Responds with raw PNG bytes.
func (s *Server) handleHistoryChart(w http.ResponseWriter, r *http.Request, number string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	rng := models.ParseHistoryRange(r.URL.Query().Get("range"))
	png, err := s.app.PortfolioService.HistoryChart(r.Context(), number, rng)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
