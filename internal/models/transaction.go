package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a ledger entry. Amount is signed: negative is an expense,
// positive is income.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index:idx_transactions_user_date,priority:1" json:"user_id"`
	AccountID   *string         `gorm:"type:uuid" json:"account_id,omitempty"`
	CategoryID  *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index:idx_transactions_user_date,priority:2" json:"date"`

	// Relationships
	Account  *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// IsExpense reports whether the transaction is spending.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}
