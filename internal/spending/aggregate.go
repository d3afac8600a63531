package spending

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pocketbook/internal/logger"
	"pocketbook/internal/models"
)

// BudgetStore lists an owner's budget definitions.
type BudgetStore interface {
	ListBudgets(ctx context.Context, ownerID string) ([]models.Budget, error)
}

// TransactionStore lists an owner's negative-amount transactions dated
// within [from, to], bounds included.
type TransactionStore interface {
	ListExpensesBetween(ctx context.Context, ownerID string, from, to time.Time) ([]models.Transaction, error)
}

// EnrichedBudget is a budget plus its spend within the current window.
type EnrichedBudget struct {
	models.Budget
	SpentAmount decimal.Decimal `json:"spent_amount"`
}

// FetchCandidates loads every expense that any of windows could match with
// one store call. Nil windows are ignored; if none remain the store is not
// queried.
func FetchCandidates(ctx context.Context, store TransactionStore, ownerID string, windows []*Window) ([]models.Transaction, error) {
	span, ok := Span(windows)
	if !ok {
		return nil, nil
	}

	logger.Get().Debugw("fetching budget candidates",
		"owner_id", ownerID,
		"from", span.Start,
		"to", span.End,
	)

	txs, err := store.ListExpensesBetween(ctx, ownerID, span.Start, span.End)
	if err != nil {
		return nil, fmt.Errorf("list expenses between %s and %s: %w",
			span.Start.Format(time.RFC3339), span.End.Format(time.RFC3339), err)
	}
	return txs, nil
}

// ComputeSpent sums the absolute amounts of the candidates that fall inside
// w and match the budget's category scope. Non-negative amounts are skipped.
func ComputeSpent(b *models.Budget, w *Window, candidates []models.Transaction) decimal.Decimal {
	spent := decimal.Zero
	if w == nil {
		return spent
	}

	for i := range candidates {
		tx := &candidates[i]
		if !tx.Amount.IsNegative() || !w.Contains(tx.Date) || !inScope(b, tx) {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}
	return spent
}

// inScope applies the category rule: a budget without a category covers
// every transaction, otherwise the ids must match exactly.
func inScope(b *models.Budget, tx *models.Transaction) bool {
	if b.CategoryID == nil {
		return true
	}
	return tx.CategoryID != nil && *tx.CategoryID == *b.CategoryID
}

// Engine computes budget spend for an owner with exactly two store reads.
type Engine struct {
	budgets      BudgetStore
	transactions TransactionStore
}

// NewEngine creates an Engine over the given stores.
func NewEngine(budgets BudgetStore, transactions TransactionStore) *Engine {
	return &Engine{budgets: budgets, transactions: transactions}
}

// BudgetsWithSpending returns the owner's budgets in store order, each with
// its spend as of now. Budgets without a usable window report zero. Any
// store error aborts the whole computation.
func (e *Engine) BudgetsWithSpending(ctx context.Context, ownerID string, now time.Time) ([]EnrichedBudget, error) {
	budgets, err := e.budgets.ListBudgets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	windows := make([]*Window, len(budgets))
	skipped := 0
	for i := range budgets {
		windows[i] = ResolveWindow(&budgets[i], now)
		if windows[i] == nil {
			skipped++
		}
	}
	if skipped > 0 {
		logger.Get().Debugw("budgets without an active window",
			"owner_id", ownerID,
			"count", skipped,
		)
	}

	candidates, err := FetchCandidates(ctx, e.transactions, ownerID, windows)
	if err != nil {
		return nil, err
	}

	result := make([]EnrichedBudget, len(budgets))
	for i := range budgets {
		result[i] = EnrichedBudget{
			Budget:      budgets[i],
			SpentAmount: ComputeSpent(&budgets[i], windows[i], candidates),
		}
	}
	return result, nil
}
