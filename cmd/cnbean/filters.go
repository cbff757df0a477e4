package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/cnbean/pkg/beancount"
	"github.com/yurifrl/cnbean/pkg/models"
)

type filters struct {
	startDate string
	endDate   string
	minAmount string
	maxAmount string
	payee     string
	account   string
}

// toFilterFunc validates the filter flags and returns the ledger filter.
// Both dates are inclusive whole days. Amounts compare against the absolute
// value of the source posting.
func (f *filters) toFilterFunc() (beancount.FilterFunc, error) {
	var (
		start, end time.Time
		lo, hi     decimal.Decimal
		err        error
	)
	if f.startDate != "" {
		if start, err = time.Parse("2006-01-02", f.startDate); err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if f.endDate != "" {
		if end, err = time.Parse("2006-01-02", f.endDate); err != nil {
			return nil, fmt.Errorf("invalid --end: %w", err)
		}
	}
	if f.minAmount != "" {
		if lo, err = decimal.NewFromString(f.minAmount); err != nil {
			return nil, fmt.Errorf("invalid --min: %w", err)
		}
	}
	if f.maxAmount != "" {
		if hi, err = decimal.NewFromString(f.maxAmount); err != nil {
			return nil, fmt.Errorf("invalid --max: %w", err)
		}
	}
	payee := strings.ToLower(f.payee)

	return func(t *models.Transaction) bool {
		if !start.IsZero() && t.Date.Before(start) {
			return false
		}
		if !end.IsZero() && !t.Date.Before(end.AddDate(0, 0, 1)) {
			return false
		}
		amount := t.Source().Amount.Abs()
		if f.minAmount != "" && amount.LessThan(lo) {
			return false
		}
		if f.maxAmount != "" && amount.GreaterThan(hi) {
			return false
		}
		if payee != "" &&
			!strings.Contains(strings.ToLower(t.Payee), payee) &&
			!strings.Contains(strings.ToLower(t.Narration), payee) {
			return false
		}
		if f.account != "" &&
			!strings.HasPrefix(t.Source().Account, f.account) &&
			!strings.HasPrefix(t.Destination().Account, f.account) {
			return false
		}
		return true
	}, nil
}
