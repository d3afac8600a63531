package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is how often a recurring transaction repeats.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurringTransaction is a template for a transaction that repeats from
// StartDate at Frequency until EndDate (nil = forever).
type RecurringTransaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   *string         `gorm:"type:uuid" json:"account_id,omitempty"`
	CategoryID  *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Name        string          `gorm:"not null" json:"name"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Frequency   Frequency       `gorm:"not null" json:"frequency"`
	StartDate   time.Time       `gorm:"not null" json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	Description string          `json:"description"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}
