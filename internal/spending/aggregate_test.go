package spending

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pocketbook/internal/models"
)

// --- fakes ---

type fakeBudgetStore struct {
	budgets []models.Budget
	err     error
	calls   int
}

func (f *fakeBudgetStore) ListBudgets(_ context.Context, _ string) ([]models.Budget, error) {
	f.calls++
	return f.budgets, f.err
}

type rangeCall struct {
	owner    string
	from, to time.Time
}

// fakeTxStore mimics the SQL contract: owner, closed date range, amount < 0.
type fakeTxStore struct {
	txs   []models.Transaction
	err   error
	calls []rangeCall
}

func (f *fakeTxStore) ListExpensesBetween(_ context.Context, owner string, from, to time.Time) ([]models.Transaction, error) {
	f.calls = append(f.calls, rangeCall{owner: owner, from: from, to: to})
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Transaction
	for _, tx := range f.txs {
		if tx.UserID == owner && tx.Amount.IsNegative() && !tx.Date.Before(from) && !tx.Date.After(to) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func expense(owner, amount string, category *string, at time.Time) models.Transaction {
	return models.Transaction{UserID: owner, Amount: dec(amount), CategoryID: category, Date: at}
}

func assertDecimal(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("got %s, want %s", got, want)
	}
}

// --- tests ---

func TestComputeSpent(t *testing.T) {
	food, rent := strPtr("cat-food"), strPtr("cat-rent")
	w := &Window{Start: date(2026, 10, 1), End: endOfDay(2026, 10, 31)}
	candidates := []models.Transaction{
		expense("u1", "-50", food, date(2026, 10, 3)),
		expense("u1", "-30", rent, date(2026, 10, 4)),
		expense("u1", "-12.345", nil, date(2026, 10, 5)),
		expense("u1", "-7", food, date(2026, 9, 30)),
		expense("u1", "2000", nil, date(2026, 10, 6)),
	}

	tests := []struct {
		name   string
		budget models.Budget
		window *Window
		want   string
	}{
		{"scoped_to_category", models.Budget{CategoryID: food}, w, "50"},
		{"all_categories_includes_uncategorized", models.Budget{}, w, "92.345"},
		{"category_without_matches", models.Budget{CategoryID: strPtr("cat-none")}, w, "0"},
		{"nil_window", models.Budget{}, nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, ComputeSpent(&tt.budget, tt.window, candidates), tt.want)
		})
	}
}

func TestComputeSpent_DecimalPrecision(t *testing.T) {
	w := &Window{Start: date(2026, 10, 1), End: endOfDay(2026, 10, 31)}
	var candidates []models.Transaction
	for i := 0; i < 10; i++ {
		candidates = append(candidates, expense("u1", "-0.1", nil, date(2026, 10, 2)))
	}

	assertDecimal(t, ComputeSpent(&models.Budget{}, w, candidates), "1")
}

func TestComputeSpent_IncludesWholeEndDay(t *testing.T) {
	b := models.Budget{Period: models.BudgetPeriodCustom, StartDate: date(2026, 6, 1), EndDate: ptr(date(2026, 8, 15))}
	w := ResolveWindow(&b, testNow)
	candidates := []models.Transaction{
		expense("u1", "-10", nil, time.Date(2026, 8, 15, 21, 45, 0, 0, time.UTC)),
		expense("u1", "-99", nil, date(2026, 8, 16)),
	}

	assertDecimal(t, ComputeSpent(&b, w, candidates), "10")
}

func TestFetchCandidates(t *testing.T) {
	t.Run("no_windows_skips_query", func(t *testing.T) {
		store := &fakeTxStore{}
		got, err := FetchCandidates(context.Background(), store, "u1", []*Window{nil, nil})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no candidates, got %d", len(got))
		}
		if len(store.calls) != 0 {
			t.Errorf("expected no store calls, got %d", len(store.calls))
		}
	})

	t.Run("single_query_over_union", func(t *testing.T) {
		store := &fakeTxStore{}
		windows := []*Window{
			{Start: date(2026, 10, 12), End: endOfDay(2026, 10, 18)},
			{Start: date(2026, 9, 1), End: endOfDay(2026, 9, 30)},
		}
		if _, err := FetchCandidates(context.Background(), store, "u1", windows); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.calls) != 1 {
			t.Fatalf("expected 1 store call, got %d", len(store.calls))
		}
		call := store.calls[0]
		if call.owner != "u1" || !call.from.Equal(date(2026, 9, 1)) || !call.to.Equal(endOfDay(2026, 10, 18)) {
			t.Errorf("unexpected range call: %+v", call)
		}
	})

	t.Run("store_error", func(t *testing.T) {
		boom := errors.New("db down")
		store := &fakeTxStore{err: boom}
		_, err := FetchCandidates(context.Background(), store, "u1", []*Window{{Start: date(2026, 10, 1), End: endOfDay(2026, 10, 1)}})
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})
}

func TestEngine_BudgetsWithSpending(t *testing.T) {
	food, rent := strPtr("cat-food"), strPtr("cat-rent")

	t.Run("end_to_end_monthly_food_budget", func(t *testing.T) {
		budgets := &fakeBudgetStore{budgets: []models.Budget{{
			Base:       models.Base{ID: "b-food"},
			UserID:     "u1",
			Name:       "Food",
			Amount:     dec("200"),
			Period:     models.BudgetPeriodMonthly,
			StartDate:  date(2026, 7, 16),
			CategoryID: food,
		}}}
		txs := &fakeTxStore{txs: []models.Transaction{
			expense("u1", "-40", food, date(2026, 10, 2)),
			expense("u1", "-15", food, date(2026, 10, 9)),
			expense("u1", "-1000", rent, date(2026, 10, 1)),
			expense("u1", "2000", nil, date(2026, 10, 1)),
		}}

		got, err := NewEngine(budgets, txs).BudgetsWithSpending(context.Background(), "u1", testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 budget, got %d", len(got))
		}
		assertDecimal(t, got[0].SpentAmount, "55")
		if got[0].ID != "b-food" || got[0].Name != "Food" {
			t.Errorf("budget fields not carried through: %+v", got[0].Budget)
		}
	})

	t.Run("batch_matches_isolated_computation", func(t *testing.T) {
		budgetList := []models.Budget{
			{Base: models.Base{ID: "weekly-all"}, Period: models.BudgetPeriodWeekly, StartDate: date(2026, 1, 1)},
			{Base: models.Base{ID: "monthly-food"}, Period: models.BudgetPeriodMonthly, StartDate: date(2026, 1, 1), CategoryID: food},
			{Base: models.Base{ID: "summer-custom"}, Period: models.BudgetPeriodCustom, StartDate: date(2026, 6, 1), EndDate: ptr(date(2026, 8, 31))},
			{Base: models.Base{ID: "no-start"}, Period: models.BudgetPeriodMonthly},
			{Base: models.Base{ID: "future"}, Period: models.BudgetPeriodCustom, StartDate: date(2027, 1, 1)},
		}
		allTxs := []models.Transaction{
			expense("u1", "-5", food, date(2026, 10, 13)),
			expense("u1", "-8", rent, date(2026, 10, 16)),
			expense("u1", "-20", food, date(2026, 10, 2)),
			expense("u1", "-100", nil, date(2026, 7, 4)),
			expense("u1", "-3", food, date(2026, 8, 31).Add(22*time.Hour)),
			expense("u1", "-9", food, date(2026, 5, 31)),
			expense("u2", "-500", food, date(2026, 10, 14)),
		}

		budgets := &fakeBudgetStore{budgets: budgetList}
		txs := &fakeTxStore{txs: allTxs}
		got, err := NewEngine(budgets, txs).BudgetsWithSpending(context.Background(), "u1", testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(txs.calls) != 1 {
			t.Errorf("expected one shared transaction query, got %d", len(txs.calls))
		}
		if budgets.calls != 1 {
			t.Errorf("expected one budget query, got %d", budgets.calls)
		}

		want := map[string]string{
			"weekly-all":    "13",
			"monthly-food":  "25",
			"summer-custom": "103",
			"no-start":      "0",
			"future":        "0",
		}
		for i, eb := range got {
			if eb.ID != budgetList[i].ID {
				t.Errorf("order not preserved at %d: got %s, want %s", i, eb.ID, budgetList[i].ID)
			}

			// Same budget, queried alone with its own window.
			w := ResolveWindow(&budgetList[i], testNow)
			var isolated []models.Transaction
			if w != nil {
				isolated, _ = (&fakeTxStore{txs: allTxs}).ListExpensesBetween(context.Background(), "u1", w.Start, w.End)
			}
			alone := ComputeSpent(&budgetList[i], w, isolated)

			if !eb.SpentAmount.Equal(alone) {
				t.Errorf("%s: batched %s != isolated %s", eb.ID, eb.SpentAmount, alone)
			}
			assertDecimal(t, eb.SpentAmount, want[eb.ID])
		}
	})

	t.Run("no_active_windows_skips_transaction_query", func(t *testing.T) {
		budgets := &fakeBudgetStore{budgets: []models.Budget{{Period: models.BudgetPeriodMonthly}}}
		txs := &fakeTxStore{}

		got, err := NewEngine(budgets, txs).BudgetsWithSpending(context.Background(), "u1", testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(txs.calls) != 0 {
			t.Errorf("expected no transaction query, got %d", len(txs.calls))
		}
		assertDecimal(t, got[0].SpentAmount, "0")
	})

	t.Run("no_budgets", func(t *testing.T) {
		got, err := NewEngine(&fakeBudgetStore{}, &fakeTxStore{}).BudgetsWithSpending(context.Background(), "u1", testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty result, got %d", len(got))
		}
	})

	t.Run("budget_store_error_is_fatal", func(t *testing.T) {
		boom := errors.New("budgets unavailable")
		got, err := NewEngine(&fakeBudgetStore{err: boom}, &fakeTxStore{}).BudgetsWithSpending(context.Background(), "u1", testNow)
		if !errors.Is(err, boom) {
			t.Errorf("expected budget store error, got %v", err)
		}
		if got != nil {
			t.Error("expected no partial result")
		}
	})

	t.Run("transaction_store_error_is_fatal", func(t *testing.T) {
		boom := errors.New("transactions unavailable")
		budgets := &fakeBudgetStore{budgets: []models.Budget{{Period: models.BudgetPeriodMonthly, StartDate: date(2026, 1, 1)}}}
		got, err := NewEngine(budgets, &fakeTxStore{err: boom}).BudgetsWithSpending(context.Background(), "u1", testNow)
		if !errors.Is(err, boom) {
			t.Errorf("expected transaction store error, got %v", err)
		}
		if got != nil {
			t.Error("expected no partial result")
		}
	})
}
