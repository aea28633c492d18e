// Package archive stores one immutable snapshot per closed monthly period,
// consumed by the annual rollup and cleared afterwards.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"lucas/internal/core"
	"lucas/internal/kvstore"
)

// PeriodArchive persists the append-only snapshot collection under the
// monthlyReports key.
type PeriodArchive struct {
	store kvstore.Store
	mu    sync.Mutex
}

func New(store kvstore.Store) *PeriodArchive {
	return &PeriodArchive{store: store}
}

// Record appends a snapshot. Labels are unique case-insensitively; a
// second snapshot for an already recorded period fails with
// ErrDuplicateRecord.
func (a *PeriodArchive) Record(ctx context.Context, snap core.PeriodSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	snaps, err := a.load(ctx)
	if err != nil {
		return err
	}
	for _, s := range snaps {
		if core.SameName(s.PeriodLabel, snap.PeriodLabel) {
			return fmt.Errorf("%w: %q", core.ErrDuplicateRecord, snap.PeriodLabel)
		}
	}

	if err := a.save(ctx, append(snaps, snap)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Period recorded",
		"period_label", snap.PeriodLabel,
		"budget", snap.BudgetAtClose.String(),
		"total_spending", snap.SpendingAtClose.String())
	return nil
}

// Find returns the snapshot recorded under label, matched
// case-insensitively like Record's duplicate check.
func (a *PeriodArchive) Find(ctx context.Context, label string) (core.PeriodSnapshot, bool, error) {
	snaps, err := a.load(ctx)
	if err != nil {
		return core.PeriodSnapshot{}, false, err
	}
	for _, s := range snaps {
		if core.SameName(s.PeriodLabel, label) {
			return s, true, nil
		}
	}
	return core.PeriodSnapshot{}, false, nil
}

// List returns the archived snapshots in recording order.
func (a *PeriodArchive) List(ctx context.Context) ([]core.PeriodSnapshot, error) {
	return a.load(ctx)
}

// ClearAll deletes the archive, done after the annual rollup consumed it.
func (a *PeriodArchive) ClearAll(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Delete(ctx, core.MonthlyReportsKey); err != nil {
		return fmt.Errorf("clear archive: %w", err)
	}
	slog.InfoContext(ctx, "Period archive cleared")
	return nil
}

func (a *PeriodArchive) load(ctx context.Context) ([]core.PeriodSnapshot, error) {
	raw, ok, err := a.store.Get(ctx, core.MonthlyReportsKey)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var snaps []core.PeriodSnapshot
	if err := json.Unmarshal(raw, &snaps); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	return snaps, nil
}

func (a *PeriodArchive) save(ctx context.Context, snaps []core.PeriodSnapshot) error {
	raw, err := json.Marshal(snaps)
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	if err := a.store.Set(ctx, core.MonthlyReportsKey, raw); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}
