// Package ledger holds the running totals: the single budget balance and
// the per-category spending amounts. Every mutation is a read-modify-write
// of one store key; a per-ledger mutex serializes those windows so two
// logically concurrent calls cannot clobber each other.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"lucas/internal/core"
	"lucas/internal/kvstore"
)

// BudgetLedger owns the single budget balance persisted under the budget key.
type BudgetLedger struct {
	store kvstore.Store
	mu    sync.Mutex
}

type budgetRecord struct {
	Amount decimal.Decimal `json:"amount"`
}

func NewBudgetLedger(store kvstore.Store) *BudgetLedger {
	return &BudgetLedger{store: store}
}

// Amount returns the current balance, zero when nothing has been saved yet.
func (l *BudgetLedger) Amount(ctx context.Context) (decimal.Decimal, error) {
	raw, ok, err := l.store.Get(ctx, core.BudgetKey)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read budget: %w", err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	var rec budgetRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return decimal.Zero, fmt.Errorf("decode budget: %w", err)
	}
	return rec.Amount, nil
}

// Adjust adds delta to the balance and persists the new total. Positive
// deltas are deposits, negative ones withdrawals. A withdrawal may drive
// the balance negative; that is accepted, not clamped.
func (l *BudgetLedger) Adjust(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.Amount(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	total := current.Add(delta)
	raw, err := json.Marshal(budgetRecord{Amount: total})
	if err != nil {
		return decimal.Zero, fmt.Errorf("encode budget: %w", err)
	}
	if err := l.store.Set(ctx, core.BudgetKey, raw); err != nil {
		return decimal.Zero, fmt.Errorf("write budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget adjusted",
		"delta", delta.String(),
		"budget", total.String())

	return total, nil
}
