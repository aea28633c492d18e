package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lucas/internal/amqp"
	"lucas/internal/archive"
	"lucas/internal/core"
	"lucas/internal/ledger"
)

// ErrNotEligible is returned when a close is requested outside its
// calendar window or after the period's report was already produced.
var ErrNotEligible = errors.New("report not eligible")

// ExportPublisher hands finished report tuples to the external renderer.
type ExportPublisher interface {
	PublishMonthlyReport(ctx context.Context, msg *amqp.MonthlyReportMessage) error
	PublishAnnualReport(ctx context.Context, msg *amqp.AnnualReportMessage) error
}

// Eligibility is the pair of gate states the presentation layer uses for
// its report affordances.
type Eligibility struct {
	Monthly bool `json:"monthly"`
	Annual  bool `json:"annual"`
}

// Service orchestrates period closes: snapshot, budget reset, spending
// reset, export handoff, marker write. The marker is written last so an
// interrupted close re-reports as eligible; the duplicate-snapshot guard
// detects that partial completion on re-entry.
type Service struct {
	budget    *ledger.BudgetLedger
	spending  *ledger.SpendingLedger
	archive   *archive.PeriodArchive
	markers   *MarkerStore
	publisher ExportPublisher // nil disables the export handoff
}

func NewService(budget *ledger.BudgetLedger, spending *ledger.SpendingLedger, arch *archive.PeriodArchive, markers *MarkerStore, publisher ExportPublisher) *Service {
	return &Service{
		budget:    budget,
		spending:  spending,
		archive:   arch,
		markers:   markers,
		publisher: publisher,
	}
}

// Eligibility evaluates both report gates at now.
func (s *Service) Eligibility(ctx context.Context, now time.Time) (Eligibility, error) {
	markers, err := s.markers.Markers(ctx)
	if err != nil {
		return Eligibility{}, err
	}
	return Eligibility{
		Monthly: CanGenerateMonthlyReport(now, markers),
		Annual:  CanGenerateAnnualReport(now, markers),
	}, nil
}

// CloseMonth runs the monthly close at now and returns the archived
// snapshot. On success the budget is reset to zero, every category amount
// is reset, the export tuple is handed off and the period marker is
// recorded.
func (s *Service) CloseMonth(ctx context.Context, now time.Time) (core.PeriodSnapshot, error) {
	markers, err := s.markers.Markers(ctx)
	if err != nil {
		return core.PeriodSnapshot{}, err
	}
	key := MonthlyPeriodKey(now)
	if !CanGenerateMonthlyReport(now, markers) {
		return core.PeriodSnapshot{}, fmt.Errorf("%w: monthly period %s", ErrNotEligible, key)
	}

	budget, err := s.budget.Amount(ctx)
	if err != nil {
		return core.PeriodSnapshot{}, err
	}
	cats, err := s.spending.List(ctx)
	if err != nil {
		return core.PeriodSnapshot{}, err
	}
	total, err := s.spending.TotalSpending(ctx)
	if err != nil {
		return core.PeriodSnapshot{}, err
	}

	label := PeriodLabel(now)
	snap := core.PeriodSnapshot{
		PeriodLabel:     label,
		BudgetAtClose:   budget,
		SpendingAtClose: total,
	}

	resumed := false
	if err := s.archive.Record(ctx, snap); err != nil {
		if !errors.Is(err, core.ErrDuplicateRecord) {
			return core.PeriodSnapshot{}, err
		}
		// A previous close archived this period but crashed before the
		// marker write. Don't repeat the resets; just finish the close
		// and return what was actually archived back then.
		resumed = true
		slog.WarnContext(ctx, "Resuming interrupted monthly close",
			"period_key", key, "period_label", label)
		archived, ok, err := s.archive.Find(ctx, label)
		if err != nil {
			return core.PeriodSnapshot{}, err
		}
		if ok {
			snap = archived
		}
	}

	if !resumed {
		if _, err := s.budget.Adjust(ctx, budget.Neg()); err != nil {
			return core.PeriodSnapshot{}, err
		}
		if err := s.spending.ResetAllAmounts(ctx); err != nil {
			return core.PeriodSnapshot{}, err
		}
		s.publishMonthly(ctx, amqp.NewMonthlyReportMessage(label, budget, total, cats))
	}

	// Marker last: only a fully applied close becomes ineligible.
	if err := s.markers.Mark(ctx, key); err != nil {
		return core.PeriodSnapshot{}, err
	}

	slog.InfoContext(ctx, "Monthly period closed",
		"period_key", key,
		"period_label", label,
		"budget", budget.String(),
		"total_spending", total.String())
	return snap, nil
}

// CloseYear runs the annual rollup at now: the archived snapshots are
// handed off to the renderer, the archive is cleared and the annual marker
// recorded. The returned snapshots are the ones consumed by the rollup.
func (s *Service) CloseYear(ctx context.Context, now time.Time) ([]core.PeriodSnapshot, error) {
	markers, err := s.markers.Markers(ctx)
	if err != nil {
		return nil, err
	}
	key := AnnualPeriodKey(now)
	if !CanGenerateAnnualReport(now, markers) {
		return nil, fmt.Errorf("%w: annual period %s", ErrNotEligible, key)
	}

	snaps, err := s.archive.List(ctx)
	if err != nil {
		return nil, err
	}
	reportYear := now.Year() - 1

	if len(snaps) == 0 {
		// A previous rollup cleared the archive but crashed before the
		// marker write; finish it.
		slog.WarnContext(ctx, "Resuming interrupted annual rollup", "period_key", key)
		if err := s.markers.Mark(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}

	s.publishAnnual(ctx, amqp.NewAnnualReportMessage(reportYear, snaps))

	if err := s.archive.ClearAll(ctx); err != nil {
		return nil, err
	}
	if err := s.markers.Mark(ctx, key); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Annual period closed",
		"period_key", key,
		"year", reportYear,
		"periods", len(snaps))
	return snaps, nil
}

// Export handoff is best effort: a missing or failing publisher never
// fails the close, the report can be regenerated manually downstream.
func (s *Service) publishMonthly(ctx context.Context, msg *amqp.MonthlyReportMessage) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Export publisher not available, skipping monthly handoff",
			"period_label", msg.PeriodLabel)
		return
	}
	if err := s.publisher.PublishMonthlyReport(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish monthly report",
			"period_label", msg.PeriodLabel, "error", err)
	}
}

func (s *Service) publishAnnual(ctx context.Context, msg *amqp.AnnualReportMessage) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Export publisher not available, skipping annual handoff",
			"year", msg.Year)
		return
	}
	if err := s.publisher.PublishAnnualReport(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish annual report",
			"year", msg.Year, "error", err)
	}
}
