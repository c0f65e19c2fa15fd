package http

import (
	"net/http"
)

// GET /api/budgets[?month=YYYY-MM]
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := queryMonth(r, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	budgets, err := s.svc.Budgets.ListBudgetsWithSpending(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(budgets))
}

// PUT /api/budgets creates or replaces the budget for (category, month).
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month, err := req.month()
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.SetBudget(r.Context(), req.CategoryID, req.LimitAmount, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GET /api/budgets/alerts[?month=YYYY-MM]
func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	month, err := queryMonth(r, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	alerts, err := s.svc.Budgets.ComputeAlerts(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(alerts))
}

// DELETE /api/budgets/{id}
func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Budgets.DeleteBudget(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
