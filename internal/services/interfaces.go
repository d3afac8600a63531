package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
	"pocketbook/internal/recurring"
	"pocketbook/internal/spending"
)

// AccountUpdateFields holds the optional fields for an account update.
// A nil field is left unchanged.
type AccountUpdateFields struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name string, accountType models.AccountType, description, currency string, initialBalance decimal.Decimal) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	AdjustBalance(tx *gorm.DB, account *models.Account, delta decimal.Decimal) error
}

// CategoryUpdateFields holds the optional fields for a category update.
type CategoryUpdateFields struct {
	Name        *string
	Description *string
	Icon        *string
	Color       *string
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, fields CategoryUpdateFields) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionKind narrows a listing to one sign of amount.
type TransactionKind string

const (
	TransactionKindExpense TransactionKind = "expense"
	TransactionKindIncome  TransactionKind = "income"
)

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	CategoryID *string
	AccountID  *string
	Kind       *TransactionKind
}

// TransactionInput carries the fields of a new transaction.
type TransactionInput struct {
	AccountID   *string
	CategoryID  *string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	spending.TransactionStore

	CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// BudgetInput carries the fields of a new budget. A nil or blank CategoryID
// makes the budget cover every category.
type BudgetInput struct {
	CategoryID *string
	Name       string
	Amount     decimal.Decimal
	Period     models.BudgetPeriod
	StartDate  time.Time
	EndDate    *time.Time
}

// BudgetUpdateFields holds the optional fields for a budget update. A
// CategoryID pointing at a blank string clears the category scope;
// ClearEndDate removes the end date.
type BudgetUpdateFields struct {
	CategoryID   *string
	Name         *string
	Amount       *decimal.Decimal
	Period       *models.BudgetPeriod
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, input BudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, fields BudgetUpdateFields) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetsWithSpending(ctx context.Context, userID string, now time.Time) ([]spending.EnrichedBudget, error)
}

// RecurringInput carries the fields of a new recurring transaction.
type RecurringInput struct {
	AccountID   *string
	CategoryID  *string
	Name        string
	Amount      decimal.Decimal
	Frequency   models.Frequency
	StartDate   time.Time
	EndDate     *time.Time
	Description string
}

// RecurringUpdateFields holds the optional fields for a recurring update.
type RecurringUpdateFields struct {
	Name         *string
	Amount       *decimal.Decimal
	Frequency    *models.Frequency
	EndDate      *time.Time
	ClearEndDate bool
	IsActive     *bool
	Description  *string
}

// MaxUpcomingHorizon bounds the range Upcoming will expand.
const MaxUpcomingHorizon = 366 * 24 * time.Hour

// RecurringServicer defines the contract for recurring transaction templates.
type RecurringServicer interface {
	CreateRecurring(userID string, input RecurringInput) (*models.RecurringTransaction, error)
	GetUserRecurring(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error)
	GetRecurringByID(userID, recurringID string) (*models.RecurringTransaction, error)
	UpdateRecurring(userID, recurringID string, fields RecurringUpdateFields) (*models.RecurringTransaction, error)
	DeleteRecurring(userID, recurringID string) error
	Upcoming(userID string, from, until time.Time) ([]recurring.Occurrence, error)
}

// GoalInput carries the fields of a new savings goal.
type GoalInput struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    *time.Time
	Color         string
}

// GoalUpdateFields holds the optional fields for a goal update.
type GoalUpdateFields struct {
	Name         *string
	TargetAmount *decimal.Decimal
	TargetDate   *time.Time
	Color        *string
}

// GoalProgress is a goal with its derived progress.
type GoalProgress struct {
	models.Goal
	Percentage decimal.Decimal `json:"percentage"`
	Completed  bool            `json:"completed"`
}

// GoalServicer defines the contract for savings goal business logic.
type GoalServicer interface {
	CreateGoal(userID string, input GoalInput) (*GoalProgress, error)
	GetUserGoals(userID string, page pagination.PageRequest) (*pagination.PageResponse[GoalProgress], error)
	GetGoalByID(userID, goalID string) (*GoalProgress, error)
	UpdateGoal(userID, goalID string, fields GoalUpdateFields) (*GoalProgress, error)
	DeleteGoal(userID, goalID string) error
	Contribute(userID, goalID string, amount decimal.Decimal) (*GoalProgress, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
