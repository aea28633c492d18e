package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"lucas/internal/core"
	"lucas/internal/report"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the core's error kinds to HTTP statuses: validation
// failures are unprocessable, uniqueness and gating conflicts conflict,
// missing categories are not found, everything else is a storage fault.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidName),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidLabel):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrDuplicateCategory),
		errors.Is(err, core.ErrDuplicateRecord),
		errors.Is(err, report.ErrNotEligible):
		status = http.StatusConflict
	case errors.Is(err, core.ErrCategoryNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// parseAmount reads an amount field that arrives either as a JSON number
// or as a string, with dot or comma as the decimal separator ("12.34",
// "12,34").
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s, err := amountText(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return core.ParseAmount(s)
}

// parsePositiveAmount is parseAmount restricted to strictly positive
// values, the rule for expense entries.
func parsePositiveAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s, err := amountText(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return core.ParsePositiveAmount(s)
}

func amountText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", core.ErrInvalidAmount
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", core.ErrInvalidAmount
		}
		return s, nil
	}
	return string(raw), nil
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
