// Package app wires the ledgers, the archive and the report service into
// one explicit application-state object with an initialization and
// teardown lifecycle. The presentation layer talks to the core only
// through this object, never to the store directly.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lucas/internal/archive"
	"lucas/internal/core"
	"lucas/internal/kvstore"
	"lucas/internal/ledger"
	"lucas/internal/report"
)

// App owns the in-process view of the ledger state for the lifetime of
// the running process; the key-value store is the sole durable owner.
type App struct {
	budget   *ledger.BudgetLedger
	spending *ledger.SpendingLedger
	archive  *archive.PeriodArchive
	markers  *report.MarkerStore
	reports  *report.Service

	cleanup kvstore.CleanupFunc
	clock   func() time.Time
}

// Options configures the coordinator.
type Options struct {
	// StrictCategoryDelete is forwarded to the spending ledger.
	StrictCategoryDelete bool

	// Publisher hands finished report tuples to the external renderer,
	// nil disables the handoff.
	Publisher report.ExportPublisher

	// Cleanup is invoked on Close, typically the store backend's cleanup.
	Cleanup kvstore.CleanupFunc

	// Clock overrides time.Now, used by tests.
	Clock func() time.Time
}

// New builds the coordinator on top of the given store.
func New(store kvstore.Store, opts Options) *App {
	budget := ledger.NewBudgetLedger(store)
	spending := ledger.NewSpendingLedger(store, ledger.Options{StrictDelete: opts.StrictCategoryDelete})
	arch := archive.New(store)
	markers := report.NewMarkerStore(store)

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &App{
		budget:   budget,
		spending: spending,
		archive:  arch,
		markers:  markers,
		reports:  report.NewService(budget, spending, arch, markers, opts.Publisher),
		cleanup:  opts.Cleanup,
		clock:    clock,
	}
}

// Close releases the underlying store resources.
func (a *App) Close() error {
	if a.cleanup == nil {
		return nil
	}
	if err := a.cleanup(); err != nil {
		return fmt.Errorf("close app: %w", err)
	}
	return nil
}

// State is the derived read state the presentation layer renders.
type State struct {
	Budget        decimal.Decimal       `json:"budget"`
	Categories    []core.Category       `json:"categories"`
	TotalSpending decimal.Decimal       `json:"totalSpending"`
	Periods       []core.PeriodSnapshot `json:"periods"`
	Eligibility   report.Eligibility    `json:"eligibility"`
}

// State re-reads every aggregate from the store. The total is always
// recomputed, never served from a cache.
func (a *App) State(ctx context.Context) (State, error) {
	budget, err := a.budget.Amount(ctx)
	if err != nil {
		return State{}, err
	}
	cats, err := a.spending.List(ctx)
	if err != nil {
		return State{}, err
	}
	total, err := a.spending.TotalSpending(ctx)
	if err != nil {
		return State{}, err
	}
	periods, err := a.archive.List(ctx)
	if err != nil {
		return State{}, err
	}
	elig, err := a.reports.Eligibility(ctx, a.clock())
	if err != nil {
		return State{}, err
	}
	if cats == nil {
		cats = []core.Category{}
	}
	if periods == nil {
		periods = []core.PeriodSnapshot{}
	}
	return State{
		Budget:        budget,
		Categories:    cats,
		TotalSpending: total,
		Periods:       periods,
		Eligibility:   elig,
	}, nil
}

// AdjustBudget applies a deposit (positive) or withdrawal (negative) and
// returns the new balance.
func (a *App) AdjustBudget(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	return a.budget.Adjust(ctx, delta)
}

// CreateCategory creates a category. When color is empty a color distinct
// from the existing ones is generated.
func (a *App) CreateCategory(ctx context.Context, name, color string) (core.Category, error) {
	if color == "" {
		cats, err := a.spending.List(ctx)
		if err != nil {
			return core.Category{}, err
		}
		existing := make([]string, 0, len(cats))
		for _, c := range cats {
			existing = append(existing, c.Color)
		}
		color = ledger.RandomColor(existing)
	}
	return a.spending.CreateCategory(ctx, name, color)
}

// AddExpense logs an expense against a category.
func (a *App) AddExpense(ctx context.Context, category string, amount decimal.Decimal) error {
	return a.spending.AddExpense(ctx, category, amount)
}

// DeleteCategory removes a category and its accumulated amount.
func (a *App) DeleteCategory(ctx context.Context, name string) error {
	return a.spending.DeleteCategory(ctx, name)
}

// Periods lists the archived period snapshots.
func (a *App) Periods(ctx context.Context) ([]core.PeriodSnapshot, error) {
	return a.archive.List(ctx)
}

// CloseMonth runs the monthly close at the coordinator's current time.
func (a *App) CloseMonth(ctx context.Context) (core.PeriodSnapshot, error) {
	return a.reports.CloseMonth(ctx, a.clock())
}

// CloseYear runs the annual rollup at the coordinator's current time.
func (a *App) CloseYear(ctx context.Context) ([]core.PeriodSnapshot, error) {
	return a.reports.CloseYear(ctx, a.clock())
}

// Eligibility evaluates the report gates at the coordinator's current time.
func (a *App) Eligibility(ctx context.Context) (report.Eligibility, error) {
	return a.reports.Eligibility(ctx, a.clock())
}
