package services

import (
	"context"
	"testing"
	"time"

	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
	"pocketbook/internal/testutil"
)

func newTransactionService(t *testing.T) (TransactionServicer, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	accounts := NewAccountService(db)
	return NewTransactionService(db, accounts, NewCategoryService(db)), func() { testutil.TeardownTestDB(t, db) }
}

func TestCreateTransaction(t *testing.T) {
	t.Run("expense_reduces_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db), NewCategoryService(db))
		userID := testutil.NewUserID()
		account := testutil.CreateTestAccountWithBalance(t, db, userID, "100")
		category := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)

		tx, err := svc.CreateTransaction(userID, TransactionInput{
			AccountID:   &account.ID,
			CategoryID:  &category.ID,
			Amount:      testutil.D("-42.50"),
			Description: "Groceries",
			Date:        testutil.Date(2026, 10, 2),
		})
		testutil.AssertNoError(t, err)
		if tx.ID == "" {
			t.Fatal("expected transaction ID")
		}

		var stored models.Account
		db.First(&stored, "id = ?", account.ID)
		testutil.AssertDecimal(t, stored.Balance, "57.5")
	})

	t.Run("income_without_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db), NewCategoryService(db))

		tx, err := svc.CreateTransaction(testutil.NewUserID(), TransactionInput{Amount: testutil.D("2000")})
		testutil.AssertNoError(t, err)
		if tx.AccountID != nil {
			t.Errorf("expected no account, got %v", *tx.AccountID)
		}
		if tx.Date.IsZero() {
			t.Error("expected date to default to now")
		}
	})

	t.Run("blank_category_normalized", func(t *testing.T) {
		svc, done := newTransactionService(t)
		defer done()

		blank := ""
		tx, err := svc.CreateTransaction(testutil.NewUserID(), TransactionInput{CategoryID: &blank, Amount: testutil.D("-1")})
		testutil.AssertNoError(t, err)
		if tx.CategoryID != nil {
			t.Errorf("expected nil category, got %q", *tx.CategoryID)
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		svc, done := newTransactionService(t)
		defer done()

		_, err := svc.CreateTransaction(testutil.NewUserID(), TransactionInput{Amount: testutil.D("0.00")})
		testutil.AssertAppError(t, err, "ZERO_AMOUNT")
	})

	t.Run("foreign_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db), NewCategoryService(db))
		category := testutil.CreateTestCategory(t, db, testutil.NewUserID(), models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(testutil.NewUserID(), TransactionInput{CategoryID: &category.ID, Amount: testutil.D("-1")})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("foreign_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db), NewCategoryService(db))
		account := testutil.CreateTestAccount(t, db, testutil.NewUserID())

		_, err := svc.CreateTransaction(testutil.NewUserID(), TransactionInput{AccountID: &account.ID, Amount: testutil.D("-1")})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestGetUserTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewAccountService(db), NewCategoryService(db))
	userID := testutil.NewUserID()
	food := testutil.CreateTestCategory(t, db, userID, models.CategoryTypeExpense)

	testutil.CreateTestTransaction(t, db, userID, &food.ID, "-10", testutil.Date(2026, 9, 1))
	testutil.CreateTestTransaction(t, db, userID, nil, "-20", testutil.Date(2026, 10, 1))
	testutil.CreateTestTransaction(t, db, userID, nil, "500", testutil.Date(2026, 10, 5))
	testutil.CreateTestTransaction(t, db, testutil.NewUserID(), nil, "-99", testutil.Date(2026, 10, 5))

	tests := []struct {
		name      string
		filter    TransactionFilter
		wantTotal int64
	}{
		{"no_filter", TransactionFilter{}, 3},
		{"expenses_only", TransactionFilter{Kind: kindPtr(TransactionKindExpense)}, 2},
		{"income_only", TransactionFilter{Kind: kindPtr(TransactionKindIncome)}, 1},
		{"by_category", TransactionFilter{CategoryID: &food.ID}, 1},
		{"from_date", TransactionFilter{FromDate: timePtr(testutil.Date(2026, 10, 1))}, 2},
		{"date_range", TransactionFilter{FromDate: timePtr(testutil.Date(2026, 9, 1)), ToDate: timePtr(testutil.Date(2026, 9, 30))}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.GetUserTransactions(userID, pagination.PageRequest{}, tt.filter)
			testutil.AssertNoError(t, err)
			if page.TotalItems != tt.wantTotal {
				t.Errorf("expected %d transactions, got %d", tt.wantTotal, page.TotalItems)
			}
		})
	}

	t.Run("newest_first", func(t *testing.T) {
		page, err := svc.GetUserTransactions(userID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if !page.Data[0].Date.Equal(testutil.Date(2026, 10, 5)) {
			t.Errorf("expected newest first, got %s", page.Data[0].Date)
		}
	})
}

func TestDeleteTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewAccountService(db), NewCategoryService(db))
	userID := testutil.NewUserID()
	account := testutil.CreateTestAccountWithBalance(t, db, userID, "100")

	tx, err := svc.CreateTransaction(userID, TransactionInput{AccountID: &account.ID, Amount: testutil.D("-25")})
	testutil.AssertNoError(t, err)

	t.Run("wrong_owner", func(t *testing.T) {
		err := svc.DeleteTransaction(testutil.NewUserID(), tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("restores_balance", func(t *testing.T) {
		testutil.AssertNoError(t, svc.DeleteTransaction(userID, tx.ID))

		var stored models.Account
		db.First(&stored, "id = ?", account.ID)
		testutil.AssertDecimal(t, stored.Balance, "100")

		_, err := svc.GetTransactionByID(userID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestListExpensesBetween(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewAccountService(db), NewCategoryService(db))
	userID := testutil.NewUserID()

	from := testutil.Date(2026, 10, 1)
	to := time.Date(2026, 10, 31, 23, 59, 59, 999999999, time.UTC)

	testutil.CreateTestTransaction(t, db, userID, nil, "-1", from)
	testutil.CreateTestTransaction(t, db, userID, nil, "-2", time.Date(2026, 10, 31, 22, 0, 0, 0, time.UTC))
	testutil.CreateTestTransaction(t, db, userID, nil, "-4", testutil.Date(2026, 11, 1))
	testutil.CreateTestTransaction(t, db, userID, nil, "-8", time.Date(2026, 9, 30, 23, 0, 0, 0, time.UTC))
	testutil.CreateTestTransaction(t, db, userID, nil, "16", testutil.Date(2026, 10, 10))
	testutil.CreateTestTransaction(t, db, testutil.NewUserID(), nil, "-32", testutil.Date(2026, 10, 10))

	got, err := svc.ListExpensesBetween(context.Background(), userID, from, to)
	testutil.AssertNoError(t, err)

	if len(got) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(got))
	}
	testutil.AssertDecimal(t, got[0].Amount, "-1")
	testutil.AssertDecimal(t, got[1].Amount, "-2")
}

func kindPtr(k TransactionKind) *TransactionKind { return &k }

func timePtr(t time.Time) *time.Time { return &t }
