package models

import "github.com/shopspring/decimal"

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeCash     AccountType = "cash"
	AccountTypeCredit   AccountType = "credit"
)

// Account is a bank, cash or credit account whose balance moves with its transactions.
type Account struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string          `gorm:"not null" json:"name"`
	Type        AccountType     `gorm:"not null" json:"type"`
	Description string          `json:"description"`
	Balance     decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"balance"`
	Currency    string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
}
