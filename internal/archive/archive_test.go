package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"lucas/internal/core"
	"lucas/internal/kvstore"
)

func snap(label, budget, spending string) core.PeriodSnapshot {
	b, _ := decimal.NewFromString(budget)
	s, _ := decimal.NewFromString(spending)
	return core.PeriodSnapshot{PeriodLabel: label, BudgetAtClose: b, SpendingAtClose: s}
}

func TestPeriodArchive_RecordAndList(t *testing.T) {
	ctx := context.Background()
	a := New(kvstore.NewMemoryStore())

	if err := a.Record(ctx, snap("November 2025", "100", "40")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := a.Record(ctx, snap("December 2025", "60", "55")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	snaps, err := a.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("List = %d snapshots, want 2", len(snaps))
	}
	if snaps[0].PeriodLabel != "November 2025" || snaps[1].PeriodLabel != "December 2025" {
		t.Errorf("List order = [%s %s], want recording order", snaps[0].PeriodLabel, snaps[1].PeriodLabel)
	}
}

func TestPeriodArchive_Find(t *testing.T) {
	ctx := context.Background()
	a := New(kvstore.NewMemoryStore())

	if err := a.Record(ctx, snap("June 2025", "100", "40")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, ok, err := a.Find(ctx, "june 2025")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !ok {
		t.Fatal("Find = not found, want case-insensitive match")
	}
	if !got.BudgetAtClose.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Find budget = %s, want 100", got.BudgetAtClose.String())
	}

	if _, ok, err := a.Find(ctx, "July 2025"); err != nil || ok {
		t.Errorf("Find(missing) = %v/%v, want absent without error", ok, err)
	}
}

func TestPeriodArchive_RejectsBlankLabel(t *testing.T) {
	a := New(kvstore.NewMemoryStore())
	if err := a.Record(context.Background(), snap("  ", "0", "0")); !errors.Is(err, core.ErrInvalidLabel) {
		t.Errorf("Record with blank label = %v, want ErrInvalidLabel", err)
	}
}

func TestPeriodArchive_RejectsDuplicateLabel(t *testing.T) {
	ctx := context.Background()
	a := New(kvstore.NewMemoryStore())

	if err := a.Record(ctx, snap("December 2025", "60", "55")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := a.Record(ctx, snap(" december 2025 ", "0", "0")); !errors.Is(err, core.ErrDuplicateRecord) {
		t.Errorf("duplicate Record error = %v, want ErrDuplicateRecord (case-insensitive)", err)
	}
}

func TestPeriodArchive_ClearAll(t *testing.T) {
	ctx := context.Background()
	a := New(kvstore.NewMemoryStore())

	if err := a.Record(ctx, snap("December 2025", "60", "55")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := a.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	snaps, err := a.List(ctx)
	if err != nil {
		t.Fatalf("List after ClearAll: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("List after ClearAll = %d snapshots, want 0", len(snaps))
	}

	// Clearing an already empty archive is fine.
	if err := a.ClearAll(ctx); err != nil {
		t.Errorf("ClearAll on empty archive: %v", err)
	}
}
