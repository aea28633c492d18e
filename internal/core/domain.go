package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Persisted store keys, one JSON value per key.
const (
	BudgetKey           = "budget"
	SpendingsKey        = "spendings"
	MonthlyReportsKey   = "monthlyReports"
	GeneratedReportsKey = "generatedReports"
)

const (
	MinCategoryNameLen = 2
	MaxCategoryNameLen = 15
)

type (
	// Category is one spending category with its accumulated amount.
	// Categories are unique by trimmed, case-insensitive name; the amount
	// only grows until a monthly close resets it to zero.
	Category struct {
		Name   string          `json:"category"`
		Amount decimal.Decimal `json:"value"`
		Color  string          `json:"color"`
	}

	// PeriodSnapshot is the immutable record of one closed monthly period.
	PeriodSnapshot struct {
		PeriodLabel     string          `json:"month"`
		BudgetAtClose   decimal.Decimal `json:"monthBudget"`
		SpendingAtClose decimal.Decimal `json:"monthSpendings"`
	}
)

var (
	ErrInvalidName       = errors.New("invalid category name")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidLabel      = errors.New("invalid period label")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrDuplicateRecord   = errors.New("period already recorded")
	ErrCategoryNotFound  = errors.New("category not found")
)

// NormalizeName trims the user-supplied category name. Uniqueness
// comparisons additionally lower-case both sides.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateCategoryName checks the trimmed name against the length bounds.
func ValidateCategoryName(name string) error {
	n := len([]rune(NormalizeName(name)))
	switch {
	case n == 0:
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	case n < MinCategoryNameLen:
		return fmt.Errorf("%w: shorter than %d characters", ErrInvalidName, MinCategoryNameLen)
	case n > MaxCategoryNameLen:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MaxCategoryNameLen)
	}
	return nil
}

// SameName reports whether two category names collide under the
// trimmed, case-insensitive uniqueness rule.
func SameName(a, b string) bool {
	return strings.EqualFold(NormalizeName(a), NormalizeName(b))
}

func (c Category) Validate() error {
	return ValidateCategoryName(c.Name)
}

func (p PeriodSnapshot) Validate() error {
	if strings.TrimSpace(p.PeriodLabel) == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidLabel)
	}
	return nil
}
