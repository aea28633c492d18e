package http

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"lucas/internal/core"
)

// Amount fields stay raw so string and number forms both parse, with
// either decimal separator.
type adjustBudgetRequest struct {
	Delta json.RawMessage `json:"delta"`
}

type createCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type addExpenseRequest struct {
	Category string          `json:"category"`
	Amount   json.RawMessage `json:"amount"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.app.State(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAdjustBudget(w http.ResponseWriter, r *http.Request) {
	var req adjustBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	delta, err := parseAmount(req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}

	total, err := s.app.AdjustBudget(r.Context(), delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"budget": total})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cat, err := s.app.CreateCategory(r.Context(), req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.app.DeleteCategory(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req addExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	amount, err := parsePositiveAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.app.AddExpense(r.Context(), req.Category, amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := s.app.Periods(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if periods == nil {
		periods = []core.PeriodSnapshot{}
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.app.CloseMonth(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCloseYear(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.app.CloseYear(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if snaps == nil {
		snaps = []core.PeriodSnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}
