package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"pocketbook/internal/config"
	"pocketbook/internal/logger"
	"pocketbook/internal/middleware"
	"pocketbook/internal/testutil"
)

const testSecret = "server-test-secret"

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

// testApp holds the full application stack backed by in-memory SQLite.
type testApp struct {
	router *gin.Engine
}

func setupApp(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	if cfg == nil {
		cfg = &config.Config{
			JWTSecret:          testSecret,
			CORSAllowedOrigins: []string{"*"},
			RateLimitRPS:       1000,
			RateLimitBurst:     1000,
		}
	}
	return &testApp{router: NewRouter(Deps{DB: db, Config: cfg, Now: func() time.Time { return fixedNow }})}
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	claims := &middleware.JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// mustCreate posts body and returns the id of the object under key.
func (app *testApp) mustCreate(t *testing.T, path, key, body, token string) string {
	t.Helper()
	rec := app.request("POST", path, body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST %s: expected 201, got %d: %s", path, rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	obj := result
	if key != "" {
		obj = result[key].(map[string]interface{})
	}
	return obj["id"].(string)
}

func TestHealth(t *testing.T) {
	app := setupApp(t, nil)

	rec := app.request("GET", "/api/health", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if parseJSON(t, rec)["status"] != "ok" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestSwaggerDocServed(t *testing.T) {
	app := setupApp(t, nil)

	rec := app.request("GET", "/swagger/doc.json", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	paths, _ := parseJSON(t, rec)["paths"].(map[string]interface{})
	if _, ok := paths["/budgets/spending"]; !ok {
		t.Errorf("expected /budgets/spending in swagger paths, got %d paths", len(paths))
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t, nil)

	for _, path := range []string{"/api/v1/accounts", "/api/v1/budgets/spending", "/api/v1/goals"} {
		rec := app.request("GET", path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Errorf("GET %s: expected X-Request-ID header", path)
		}
		errObj, _ := parseJSON(t, rec)["error"].(map[string]interface{})
		if errObj["code"] != "UNAUTHORIZED" {
			t.Errorf("GET %s: expected UNAUTHORIZED body, got %s", path, rec.Body.String())
		}
	}
}

func TestBudgetSpendingFlow(t *testing.T) {
	app := setupApp(t, nil)
	owner := testutil.NewUserID()
	token := tokenFor(t, owner)

	foodID := app.mustCreate(t, "/api/v1/categories", "category", `{"name":"Food","type":"expense"}`, token)
	rentID := app.mustCreate(t, "/api/v1/categories", "category", `{"name":"Rent","type":"expense"}`, token)
	accountID := app.mustCreate(t, "/api/v1/accounts", "account",
		`{"name":"Checking","type":"checking","currency":"EUR","initial_balance":"5000"}`, token)

	budgetID := app.mustCreate(t, "/api/v1/budgets", "budget",
		fmt.Sprintf(`{"category_id":%q,"name":"Food","amount":"200","period":"monthly","start_date":"2026-07-01"}`, foodID), token)

	txs := []struct {
		amount, category, date string
	}{
		{"-40", foodID, "2026-10-03"},
		{"-15", foodID, "2026-10-12T18:45:00Z"},
		{"-1000", rentID, "2026-10-01"},
		{"2000", "", "2026-10-01"},
		{"-99", foodID, "2026-09-30"},
	}
	for _, tx := range txs {
		app.mustCreate(t, "/api/v1/transactions", "transaction",
			fmt.Sprintf(`{"account_id":%q,"category_id":%q,"amount":%q,"date":%q}`, accountID, tx.category, tx.amount, tx.date), token)
	}

	rec := app.request("GET", "/api/v1/budgets/spending", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	budgets := parseJSON(t, rec)["budgets"].([]interface{})
	if len(budgets) != 1 {
		t.Fatalf("expected 1 budget, got %d", len(budgets))
	}
	b := budgets[0].(map[string]interface{})
	if b["id"] != budgetID {
		t.Errorf("expected budget %s, got %v", budgetID, b["id"])
	}
	if b["spent_amount"] != "55" {
		t.Errorf("expected spent_amount 55, got %v", b["spent_amount"])
	}

	rec = app.request("GET", "/api/v1/accounts/"+accountID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	account := parseJSON(t, rec)["account"].(map[string]interface{})
	if account["balance"] != "5846" {
		t.Errorf("expected balance 5846, got %v", account["balance"])
	}

	t.Run("other owners see nothing", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/budgets/spending", "", tokenFor(t, testutil.NewUserID()))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := parseJSON(t, rec)["budgets"].([]interface{}); len(got) != 0 {
			t.Errorf("expected no budgets, got %d", len(got))
		}

		rec = app.request("GET", "/api/v1/budgets/"+budgetID, "", tokenFor(t, testutil.NewUserID()))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for foreign budget, got %d", rec.Code)
		}
	})

	t.Run("category in use cannot be deleted", func(t *testing.T) {
		rec := app.request("DELETE", "/api/v1/categories/"+foodID, "", token)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRecurringUpcomingFlow(t *testing.T) {
	app := setupApp(t, nil)
	token := tokenFor(t, testutil.NewUserID())

	app.mustCreate(t, "/api/v1/recurring", "recurring",
		`{"name":"Rent","amount":"-1200","frequency":"monthly","start_date":"2026-01-31"}`, token)
	app.mustCreate(t, "/api/v1/recurring", "recurring",
		`{"name":"Gym","amount":"-30","frequency":"weekly","start_date":"2026-10-05"}`, token)

	rec := app.request("GET", "/api/v1/recurring/upcoming?from=2026-10-16&until=2026-11-15", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	occurrences := parseJSON(t, rec)["occurrences"].([]interface{})

	// Gym on Oct 19, 26, Nov 2, 9 and rent on Oct 31.
	if len(occurrences) != 5 {
		t.Fatalf("expected 5 occurrences, got %d: %s", len(occurrences), rec.Body.String())
	}
	var prev string
	for _, o := range occurrences {
		d := o.(map[string]interface{})["date"].(string)
		if d < prev {
			t.Errorf("occurrences not ordered: %s after %s", d, prev)
		}
		prev = d
	}

	rec = app.request("GET", "/api/v1/recurring/upcoming?from=2026-01-01&until=2027-06-01", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized range, got %d", rec.Code)
	}
}

func TestGoalFlow(t *testing.T) {
	app := setupApp(t, nil)
	token := tokenFor(t, testutil.NewUserID())

	goalID := app.mustCreate(t, "/api/v1/goals", "",
		`{"name":"Holiday","target_amount":"1000","current_amount":"250"}`, token)

	rec := app.request("POST", "/api/v1/goals/"+goalID+"/contribute", `{"amount":"800"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	goal := parseJSON(t, rec)
	if goal["percentage"] != "105" || goal["completed"] != true {
		t.Errorf("unexpected progress %v / %v", goal["percentage"], goal["completed"])
	}

	rec = app.request("POST", "/api/v1/goals/"+goalID+"/contribute", `{"amount":"-2000"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 on overdraw, got %d", rec.Code)
	}
}

func TestRateLimitApplies(t *testing.T) {
	app := setupApp(t, &config.Config{
		JWTSecret:      testSecret,
		RateLimitRPS:   0.001,
		RateLimitBurst: 2,
	})
	token := tokenFor(t, testutil.NewUserID())

	for i := 0; i < 2; i++ {
		if rec := app.request("GET", "/api/v1/goals", "", token); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	if rec := app.request("GET", "/api/v1/goals", "", token); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}
