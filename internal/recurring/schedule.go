// Package recurring computes occurrence dates for repeating transactions.
//
// Every frequency has its own Stepper. Occurrence n is always derived from the
// anchor rather than from occurrence n-1, so a schedule anchored on the 31st
// lands on the last day of short months without drifting afterwards.
package recurring

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"pocketbook/internal/models"
)

// ErrUnknownFrequency is returned for frequencies without a registered Stepper.
var ErrUnknownFrequency = errors.New("unknown frequency")

// Stepper is the per-frequency strategy for walking a schedule.
type Stepper interface {
	// Nth returns occurrence n (n >= 0) of a schedule starting at anchor.
	Nth(anchor time.Time, n int) time.Time
	// Estimate returns an n close to the first occurrence after t. It may be
	// off by a step in either direction.
	Estimate(anchor, t time.Time) int
}

type dayStepper struct{ days int }

func (s dayStepper) Nth(anchor time.Time, n int) time.Time {
	return anchor.AddDate(0, 0, n*s.days)
}

func (s dayStepper) Estimate(anchor, t time.Time) int {
	return int(t.Sub(anchor).Hours()/24) / s.days
}

type monthStepper struct{ months int }

func (s monthStepper) Nth(anchor time.Time, n int) time.Time {
	return addMonthsClamped(anchor, n*s.months)
}

func (s monthStepper) Estimate(anchor, t time.Time) int {
	t = t.In(anchor.Location())
	diff := (t.Year()-anchor.Year())*12 + int(t.Month()) - int(anchor.Month())
	return diff / s.months
}

// addMonthsClamped moves t by months, clamping the day to the target month's
// length instead of overflowing into the next month like time.AddDate.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	year := y + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	if last := daysIn(year, month); d > last {
		d = last
	}
	h, min, sec := t.Clock()
	return time.Date(year, month, d, h, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

var strategies = map[models.Frequency]Stepper{
	models.FrequencyDaily:   dayStepper{days: 1},
	models.FrequencyWeekly:  dayStepper{days: 7},
	models.FrequencyMonthly: monthStepper{months: 1},
	models.FrequencyYearly:  monthStepper{months: 12},
}

// StepperFor returns the strategy registered for freq.
func StepperFor(freq models.Frequency) (Stepper, error) {
	s, ok := strategies[freq]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequency, freq)
	}
	return s, nil
}

// NextOccurrence returns the first occurrence strictly after after. When after
// precedes anchor the anchor itself is returned.
func NextOccurrence(freq models.Frequency, anchor, after time.Time) (time.Time, error) {
	s, err := StepperFor(freq)
	if err != nil {
		return time.Time{}, err
	}
	if after.Before(anchor) {
		return anchor, nil
	}
	n := s.Estimate(anchor, after)
	if n < 0 {
		n = 0
	}
	for n > 0 && s.Nth(anchor, n-1).After(after) {
		n--
	}
	for !s.Nth(anchor, n).After(after) {
		n++
	}
	return s.Nth(anchor, n), nil
}

// Between lists the occurrences of a schedule within [from, until], stopping
// at end when it is set. The result is in ascending order.
func Between(freq models.Frequency, anchor time.Time, end *time.Time, from, until time.Time) ([]time.Time, error) {
	s, err := StepperFor(freq)
	if err != nil {
		return nil, err
	}
	if end != nil && end.Before(until) {
		until = *end
	}
	if until.Before(from) || until.Before(anchor) {
		return nil, nil
	}

	n := 0
	if from.After(anchor) {
		n = s.Estimate(anchor, from)
		if n < 0 {
			n = 0
		}
		for n > 0 && !s.Nth(anchor, n-1).Before(from) {
			n--
		}
		for s.Nth(anchor, n).Before(from) {
			n++
		}
	}

	var out []time.Time
	for at := s.Nth(anchor, n); !at.After(until); at = s.Nth(anchor, n) {
		out = append(out, at)
		n++
	}
	return out, nil
}

// Occurrence is one scheduled date of a recurring transaction.
type Occurrence struct {
	RecurringID string          `json:"recurring_id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  *string         `json:"category_id,omitempty"`
	AccountID   *string         `json:"account_id,omitempty"`
	Date        time.Time       `json:"date"`
}

// Expand lists the occurrences of every active template within [from, until],
// ordered by date and then by name.
func Expand(templates []models.RecurringTransaction, from, until time.Time) ([]Occurrence, error) {
	var out []Occurrence
	for i := range templates {
		rt := &templates[i]
		if !rt.IsActive {
			continue
		}
		dates, err := Between(rt.Frequency, rt.StartDate, rt.EndDate, from, until)
		if err != nil {
			return nil, fmt.Errorf("recurring %s: %w", rt.ID, err)
		}
		for _, d := range dates {
			out = append(out, Occurrence{
				RecurringID: rt.ID,
				Name:        rt.Name,
				Amount:      rt.Amount,
				CategoryID:  rt.CategoryID,
				AccountID:   rt.AccountID,
				Date:        d,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
