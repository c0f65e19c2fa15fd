package http

import (
	"net/http"

	"fintrack/internal/core"
)

// GET /api/transactions[?from=YYYY-MM-DD&to=YYYY-MM-DD]
// Both bounds or neither.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from", core.Date{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to", core.Date{})
	if err != nil {
		writeError(w, r, err)
		return
	}

	var period *core.Period
	switch {
	case from.IsZero() && to.IsZero():
	case from.IsZero() || to.IsZero():
		writeError(w, r, core.NewValidationError("from", "from and to must be given together"))
		return
	case to.Before(from):
		writeError(w, r, core.NewValidationError("to", "must not be before from"))
		return
	default:
		period = &core.Period{Start: from, End: to}
	}

	txs, err := s.svc.Transactions.List(r.Context(), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(txs))
}

// POST /api/transactions
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.Transactions.Create(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GET /api/transactions/{id}
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.svc.Transactions.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// PATCH /api/transactions/{id}
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch core.TransactionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Type != nil {
		typ, err := core.ParseTransactionType(string(*patch.Type))
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Type = &typ
	}
	tx, err := s.svc.Transactions.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// DELETE /api/transactions/{id}
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
