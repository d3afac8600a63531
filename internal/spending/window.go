// Package spending computes how much of each budget has been spent.
//
// A budget's spend is derived on every read: each budget resolves an effective
// window as of "now", the union of all windows is fetched from the transaction
// store in a single query, and each budget then filters and sums that shared
// candidate set in memory. Nothing here writes or caches.
package spending

import (
	"time"

	"github.com/jinzhu/now"

	"pocketbook/internal/models"
)

// calendar pins week boundaries to Monday.
var calendar = &now.Config{WeekStartDay: time.Monday}

// Window is a closed time interval [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ResolveWindow returns the effective spending window of b as of at, or nil
// when the budget has no usable start date or the window is empty.
//
// Monthly and weekly budgets track the calendar month/week containing at,
// clamped to the budget's own start and end dates. Custom budgets run from
// their start date to their end date, or to at when open-ended. The end of
// the window is always extended to the last instant of its calendar day.
// Calendar boundaries are UTC whatever zone at carries, matching how budget
// and transaction dates are stored.
func ResolveWindow(b *models.Budget, at time.Time) *Window {
	if b == nil || b.StartDate.IsZero() {
		return nil
	}

	at = at.UTC()
	start := b.StartDate.UTC()

	var periodStart, periodEnd time.Time
	switch b.Period {
	case models.BudgetPeriodMonthly:
		c := calendar.With(at)
		periodStart, periodEnd = c.BeginningOfMonth(), c.EndOfMonth()
	case models.BudgetPeriodWeekly:
		c := calendar.With(at)
		periodStart, periodEnd = c.BeginningOfWeek(), c.EndOfWeek()
	case models.BudgetPeriodCustom:
		periodStart, periodEnd = start, at
		if b.EndDate != nil {
			periodEnd = b.EndDate.UTC()
		}
	default:
		return nil
	}

	effStart := periodStart
	if start.After(effStart) {
		effStart = start
	}

	effEnd := periodEnd
	if b.EndDate != nil {
		if end := b.EndDate.UTC(); end.Before(effEnd) {
			effEnd = end
		}
	}
	effEnd = calendar.With(effEnd).EndOfDay()

	if effStart.After(effEnd) {
		return nil
	}
	return &Window{Start: effStart, End: effEnd}
}

// Span returns the smallest window covering every non-nil window, and false
// when there are none.
func Span(windows []*Window) (Window, bool) {
	var span Window
	found := false
	for _, w := range windows {
		if w == nil {
			continue
		}
		if !found {
			span = *w
			found = true
			continue
		}
		if w.Start.Before(span.Start) {
			span.Start = w.Start
		}
		if w.End.After(span.End) {
			span.End = w.End
		}
	}
	return span, found
}
