package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
)

func init() {
	Register()
}

type sample struct {
	Currency string           `binding:"omitempty,iso4217"`
	Color    string           `binding:"omitempty,hex_color"`
	Period   string           `binding:"omitempty,budget_period"`
	Freq     string           `binding:"omitempty,recurring_frequency"`
	Account  string           `binding:"omitempty,account_type"`
	Category string           `binding:"omitempty,category_type"`
	Limit    decimal.Decimal  `binding:"positive_decimal"`
	Delta    decimal.Decimal  `binding:"nonzero_decimal"`
	Saved    *decimal.Decimal `binding:"omitempty,nonneg_decimal"`
}

func valid() sample {
	return sample{Limit: decimal.NewFromInt(10), Delta: decimal.NewFromInt(-3)}
}

func TestRegister(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	zero := decimal.Zero

	tests := []struct {
		name    string
		mutate  func(s *sample)
		wantErr bool
	}{
		{"baseline", func(s *sample) {}, false},
		{"currency_ok", func(s *sample) { s.Currency = "EUR" }, false},
		{"currency_unknown", func(s *sample) { s.Currency = "XXX" }, true},
		{"color_short", func(s *sample) { s.Color = "#fa0" }, false},
		{"color_bad", func(s *sample) { s.Color = "red" }, true},
		{"period_weekly", func(s *sample) { s.Period = "weekly" }, false},
		{"period_custom", func(s *sample) { s.Period = "custom" }, false},
		{"period_yearly", func(s *sample) { s.Period = "yearly" }, true},
		{"frequency_yearly", func(s *sample) { s.Freq = "yearly" }, false},
		{"frequency_hourly", func(s *sample) { s.Freq = "hourly" }, true},
		{"account_savings", func(s *sample) { s.Account = "savings" }, false},
		{"account_investment", func(s *sample) { s.Account = "investment" }, true},
		{"category_expense", func(s *sample) { s.Category = "expense" }, false},
		{"category_transfer", func(s *sample) { s.Category = "transfer" }, true},
		{"limit_zero", func(s *sample) { s.Limit = decimal.Zero }, true},
		{"limit_negative", func(s *sample) { s.Limit = neg }, true},
		{"delta_zero", func(s *sample) { s.Delta = decimal.Zero }, true},
		{"saved_zero", func(s *sample) { s.Saved = &zero }, false},
		{"saved_negative", func(s *sample) { s.Saved = &neg }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := binding.Validator.ValidateStruct(&s)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
