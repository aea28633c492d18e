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

// Options tunes ledger behavior that the source left ambiguous.
type Options struct {
	// StrictDelete makes DeleteCategory fail with ErrCategoryNotFound
	// when the category does not exist. Default is a silent no-op.
	StrictDelete bool
}

// SpendingLedger owns the category collection persisted under the
// spendings key. The whole collection is one value, so every mutation
// rewrites it entirely.
type SpendingLedger struct {
	store kvstore.Store
	opts  Options
	mu    sync.Mutex
}

func NewSpendingLedger(store kvstore.Store, opts Options) *SpendingLedger {
	return &SpendingLedger{store: store, opts: opts}
}

// List returns the persisted categories in insertion order, empty if none.
func (l *SpendingLedger) List(ctx context.Context) ([]core.Category, error) {
	return l.load(ctx)
}

// CreateCategory appends a new category with a zero amount. The name is
// trimmed and must be unique case-insensitively; the color is stored as
// given (callers resolve color collisions before calling). Uniqueness is
// checked inside the critical section since a check done by the caller can
// race with another create.
func (l *SpendingLedger) CreateCategory(ctx context.Context, name, color string) (core.Category, error) {
	if err := core.ValidateCategoryName(name); err != nil {
		return core.Category{}, err
	}
	name = core.NormalizeName(name)

	l.mu.Lock()
	defer l.mu.Unlock()

	cats, err := l.load(ctx)
	if err != nil {
		return core.Category{}, err
	}
	for _, c := range cats {
		if core.SameName(c.Name, name) {
			return core.Category{}, fmt.Errorf("%w: %q", core.ErrDuplicateCategory, name)
		}
	}

	cat := core.Category{Name: name, Amount: decimal.Zero, Color: color}
	if err := l.save(ctx, append(cats, cat)); err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category created", "category", cat.Name, "color", cat.Color)
	return cat, nil
}

// AddExpense increments the named category's accumulated amount. The amount
// must be strictly positive and the category is matched by exact name.
func (l *SpendingLedger) AddExpense(ctx context.Context, name string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: expense must be positive, got %s", core.ErrInvalidAmount, amount.String())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cats, err := l.load(ctx)
	if err != nil {
		return err
	}

	found := false
	for i := range cats {
		if cats[i].Name == name {
			cats[i].Amount = cats[i].Amount.Add(amount)
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", core.ErrCategoryNotFound, name)
	}

	if err := l.save(ctx, cats); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Expense added", "category", name, "amount", amount.String())
	return nil
}

// DeleteCategory removes the category with the exact given name together
// with its accumulated amount. A missing name is a no-op unless
// Options.StrictDelete is set.
func (l *SpendingLedger) DeleteCategory(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cats, err := l.load(ctx)
	if err != nil {
		return err
	}

	kept := cats[:0]
	for _, c := range cats {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(cats) {
		if l.opts.StrictDelete {
			return fmt.Errorf("%w: %q", core.ErrCategoryNotFound, name)
		}
		return nil
	}

	if err := l.save(ctx, kept); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted", "category", name)
	return nil
}

// TotalSpending sums the accumulated amounts across all categories. It is
// recomputed from the store on every call; no cached total is trusted.
func (l *SpendingLedger) TotalSpending(ctx context.Context) (decimal.Decimal, error) {
	cats, err := l.load(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(c.Amount)
	}
	return total, nil
}

// ResetAllAmounts zeroes every category's amount in a single write while
// preserving names and colors. Used when a monthly period closes.
func (l *SpendingLedger) ResetAllAmounts(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cats, err := l.load(ctx)
	if err != nil {
		return err
	}
	for i := range cats {
		cats[i].Amount = decimal.Zero
	}
	if err := l.save(ctx, cats); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category amounts reset", "categories", len(cats))
	return nil
}

func (l *SpendingLedger) load(ctx context.Context) ([]core.Category, error) {
	raw, ok, err := l.store.Get(ctx, core.SpendingsKey)
	if err != nil {
		return nil, fmt.Errorf("read spendings: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var cats []core.Category
	if err := json.Unmarshal(raw, &cats); err != nil {
		return nil, fmt.Errorf("decode spendings: %w", err)
	}
	return cats, nil
}

func (l *SpendingLedger) save(ctx context.Context, cats []core.Category) error {
	if cats == nil {
		cats = []core.Category{}
	}
	raw, err := json.Marshal(cats)
	if err != nil {
		return fmt.Errorf("encode spendings: %w", err)
	}
	if err := l.store.Set(ctx, core.SpendingsKey, raw); err != nil {
		return fmt.Errorf("write spendings: %w", err)
	}
	return nil
}
