package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target the user contributes towards.
type Goal struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string          `gorm:"not null" json:"name"`
	TargetAmount  decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"current_amount"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
	Color         string          `json:"color,omitempty"`
}
