package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lucas/internal/amqp"
	"lucas/internal/archive"
	"lucas/internal/core"
	"lucas/internal/kvstore"
	"lucas/internal/ledger"
)

// capturingPublisher records handed-off messages and can be told to fail.
type capturingPublisher struct {
	monthly []*amqp.MonthlyReportMessage
	annual  []*amqp.AnnualReportMessage
	err     error
}

func (p *capturingPublisher) PublishMonthlyReport(_ context.Context, msg *amqp.MonthlyReportMessage) error {
	if p.err != nil {
		return p.err
	}
	p.monthly = append(p.monthly, msg)
	return nil
}

func (p *capturingPublisher) PublishAnnualReport(_ context.Context, msg *amqp.AnnualReportMessage) error {
	if p.err != nil {
		return p.err
	}
	p.annual = append(p.annual, msg)
	return nil
}

type fixture struct {
	store     *kvstore.MemoryStore
	budget    *ledger.BudgetLedger
	spending  *ledger.SpendingLedger
	archive   *archive.PeriodArchive
	markers   *MarkerStore
	publisher *capturingPublisher
	service   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := kvstore.NewMemoryStore()
	f := &fixture{
		store:     store,
		budget:    ledger.NewBudgetLedger(store),
		spending:  ledger.NewSpendingLedger(store, ledger.Options{}),
		archive:   archive.New(store),
		markers:   NewMarkerStore(store),
		publisher: &capturingPublisher{},
	}
	f.service = NewService(f.budget, f.spending, f.archive, f.markers, f.publisher)
	return f
}

func (f *fixture) seed(t *testing.T, budget string, expenses map[string]string) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.budget.Adjust(ctx, decimal.RequireFromString(budget)); err != nil {
		t.Fatalf("seed budget: %v", err)
	}
	for cat, amount := range expenses {
		if _, err := f.spending.CreateCategory(ctx, cat, "#112233"); err != nil {
			t.Fatalf("seed category %s: %v", cat, err)
		}
		if err := f.spending.AddExpense(ctx, cat, decimal.RequireFromString(amount)); err != nil {
			t.Fatalf("seed expense %s: %v", cat, err)
		}
	}
}

func TestService_CloseMonth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "100", map[string]string{"food": "40"})

	now := date(2025, time.July, 3)
	snap, err := f.service.CloseMonth(ctx, now)
	if err != nil {
		t.Fatalf("CloseMonth: %v", err)
	}

	if snap.PeriodLabel != "June 2025" {
		t.Errorf("snapshot label = %q, want June 2025", snap.PeriodLabel)
	}
	if !snap.BudgetAtClose.Equal(decimal.RequireFromString("100")) {
		t.Errorf("BudgetAtClose = %s, want 100", snap.BudgetAtClose.String())
	}
	if !snap.SpendingAtClose.Equal(decimal.RequireFromString("40")) {
		t.Errorf("SpendingAtClose = %s, want 40", snap.SpendingAtClose.String())
	}

	// Budget reset to zero, category amounts reset, categories kept.
	budget, _ := f.budget.Amount(ctx)
	if !budget.IsZero() {
		t.Errorf("budget after close = %s, want 0", budget.String())
	}
	total, _ := f.spending.TotalSpending(ctx)
	if !total.IsZero() {
		t.Errorf("total spending after close = %s, want 0", total.String())
	}
	cats, _ := f.spending.List(ctx)
	if len(cats) != 1 || cats[0].Name != "food" {
		t.Errorf("categories after close = %+v, want food kept", cats)
	}

	// Export tuple handed off with pre-reset values.
	if len(f.publisher.monthly) != 1 {
		t.Fatalf("published %d monthly messages, want 1", len(f.publisher.monthly))
	}
	msg := f.publisher.monthly[0]
	if !msg.Budget.Equal(decimal.RequireFromString("100")) || !msg.TotalSpending.Equal(decimal.RequireFromString("40")) {
		t.Errorf("published tuple = budget %s spending %s, want pre-reset 100/40", msg.Budget, msg.TotalSpending)
	}

	// Marker recorded: a second close of the same period is ineligible.
	if _, err := f.service.CloseMonth(ctx, now); !errors.Is(err, ErrNotEligible) {
		t.Errorf("second CloseMonth error = %v, want ErrNotEligible", err)
	}
}

func TestService_CloseMonth_OutsideWindow(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.CloseMonth(context.Background(), date(2025, time.July, 10)); !errors.Is(err, ErrNotEligible) {
		t.Errorf("CloseMonth on day 10 error = %v, want ErrNotEligible", err)
	}
}

func TestService_CloseMonth_ResumesAfterCrash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "100", map[string]string{"food": "40"})
	now := date(2025, time.July, 3)

	// Simulate a close that archived the snapshot and applied the resets
	// but crashed before writing the marker.
	if _, err := f.service.CloseMonth(ctx, now); err != nil {
		t.Fatalf("CloseMonth: %v", err)
	}
	if err := f.store.Delete(ctx, core.GeneratedReportsKey); err != nil {
		t.Fatalf("drop markers: %v", err)
	}
	if _, err := f.budget.Adjust(ctx, decimal.RequireFromString("500")); err != nil {
		t.Fatalf("post-close deposit: %v", err)
	}

	snap, err := f.service.CloseMonth(ctx, now)
	if err != nil {
		t.Fatalf("re-entered CloseMonth: %v", err)
	}
	if snap.PeriodLabel != "June 2025" {
		t.Errorf("resumed snapshot label = %q, want June 2025", snap.PeriodLabel)
	}

	// The returned snapshot is the one archived by the first attempt, not
	// a rebuild from the mutated ledgers.
	if !snap.BudgetAtClose.Equal(decimal.RequireFromString("100")) {
		t.Errorf("resumed snapshot budget = %s, want archived 100", snap.BudgetAtClose.String())
	}
	if !snap.SpendingAtClose.Equal(decimal.RequireFromString("40")) {
		t.Errorf("resumed snapshot spending = %s, want archived 40", snap.SpendingAtClose.String())
	}

	// The guard must not repeat the budget reset or republish.
	budget, _ := f.budget.Amount(ctx)
	if !budget.Equal(decimal.RequireFromString("500")) {
		t.Errorf("budget after resumed close = %s, want 500 untouched", budget.String())
	}
	if len(f.publisher.monthly) != 1 {
		t.Errorf("published %d monthly messages after resume, want still 1", len(f.publisher.monthly))
	}

	// And the marker is now in place.
	elig, _ := f.service.Eligibility(ctx, now)
	if elig.Monthly {
		t.Error("monthly gate still open after resumed close")
	}
}

func TestService_CloseMonth_PublisherFailureDoesNotFailClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "100", map[string]string{"food": "40"})
	f.publisher.err = errors.New("broker down")

	if _, err := f.service.CloseMonth(ctx, date(2025, time.July, 3)); err != nil {
		t.Fatalf("CloseMonth with failing publisher: %v", err)
	}

	elig, _ := f.service.Eligibility(ctx, date(2025, time.July, 3))
	if elig.Monthly {
		t.Error("close did not complete although publish failure is best-effort")
	}
}

func TestService_CloseMonth_NilPublisher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.service = NewService(f.budget, f.spending, f.archive, f.markers, nil)
	f.seed(t, "100", map[string]string{"food": "40"})

	if _, err := f.service.CloseMonth(ctx, date(2025, time.July, 3)); err != nil {
		t.Fatalf("CloseMonth without publisher: %v", err)
	}
}

func TestService_CloseYear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "100", map[string]string{"food": "55"})

	// Close December 2025 first (early January 2026).
	now := date(2026, time.January, 3)
	if _, err := f.service.CloseMonth(ctx, now); err != nil {
		t.Fatalf("CloseMonth: %v", err)
	}

	elig, err := f.service.Eligibility(ctx, now)
	if err != nil {
		t.Fatalf("Eligibility: %v", err)
	}
	if !elig.Annual {
		t.Fatal("annual gate closed although December is reported and annual is not")
	}

	snaps, err := f.service.CloseYear(ctx, now)
	if err != nil {
		t.Fatalf("CloseYear: %v", err)
	}
	if len(snaps) != 1 || snaps[0].PeriodLabel != "December 2025" {
		t.Errorf("CloseYear consumed %+v, want the December snapshot", snaps)
	}

	if len(f.publisher.annual) != 1 {
		t.Fatalf("published %d annual messages, want 1", len(f.publisher.annual))
	}
	if f.publisher.annual[0].Year != 2025 {
		t.Errorf("annual message year = %d, want 2025 (the closed year)", f.publisher.annual[0].Year)
	}

	// Archive consumed.
	left, _ := f.archive.List(ctx)
	if len(left) != 0 {
		t.Errorf("archive holds %d snapshots after rollup, want 0", len(left))
	}

	// Second rollup is ineligible.
	if _, err := f.service.CloseYear(ctx, now); !errors.Is(err, ErrNotEligible) {
		t.Errorf("second CloseYear error = %v, want ErrNotEligible", err)
	}
}

func TestService_CloseYear_RequiresDecember(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.CloseYear(context.Background(), date(2026, time.January, 3)); !errors.Is(err, ErrNotEligible) {
		t.Errorf("CloseYear without December marker error = %v, want ErrNotEligible", err)
	}
}

func TestService_CloseYear_ResumesAfterCrash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "100", map[string]string{"food": "55"})
	now := date(2026, time.January, 3)

	if _, err := f.service.CloseMonth(ctx, now); err != nil {
		t.Fatalf("CloseMonth: %v", err)
	}

	// Simulate a rollup that cleared the archive but crashed before the
	// annual marker write: December marker present, archive empty.
	if err := f.archive.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	snaps, err := f.service.CloseYear(ctx, now)
	if err != nil {
		t.Fatalf("re-entered CloseYear: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("resumed rollup consumed %d snapshots, want 0", len(snaps))
	}
	if len(f.publisher.annual) != 0 {
		t.Errorf("resumed rollup republished %d messages, want 0", len(f.publisher.annual))
	}

	elig, _ := f.service.Eligibility(ctx, now)
	if elig.Annual {
		t.Error("annual gate still open after resumed rollup")
	}
}

// End-to-end scenario from the product description: budget 100, one
// expense of 40, the month closes, the next month starts clean.
func TestService_MonthLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "100", map[string]string{"food": "40"})

	budget, _ := f.budget.Amount(ctx)
	total, _ := f.spending.TotalSpending(ctx)
	if !budget.Equal(decimal.RequireFromString("100")) || !total.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("precondition: budget %s total %s", budget, total)
	}

	// Spending is covered by the budget; close consumes the remainder.
	if _, err := f.budget.Adjust(ctx, decimal.RequireFromString("-40")); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	budget, _ = f.budget.Amount(ctx)
	if !budget.Equal(decimal.RequireFromString("60")) {
		t.Errorf("budget after withdrawal = %s, want 60", budget.String())
	}

	if _, err := f.service.CloseMonth(ctx, date(2025, time.August, 2)); err != nil {
		t.Fatalf("CloseMonth: %v", err)
	}
	total, _ = f.spending.TotalSpending(ctx)
	if !total.IsZero() {
		t.Errorf("total after close = %s, want 0", total.String())
	}
	cats, _ := f.spending.List(ctx)
	if len(cats) != 1 {
		t.Errorf("category list changed across close: %+v", cats)
	}
}
