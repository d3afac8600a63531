package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
	"pocketbook/internal/recurring"
	"pocketbook/internal/services"
)

// --- mock recurring service ---

type mockRecurringService struct {
	createRecurringFn  func(userID string, input services.RecurringInput) (*models.RecurringTransaction, error)
	getUserRecurringFn func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error)
	getRecurringByIDFn func(userID, recurringID string) (*models.RecurringTransaction, error)
	updateRecurringFn  func(userID, recurringID string, fields services.RecurringUpdateFields) (*models.RecurringTransaction, error)
	deleteRecurringFn  func(userID, recurringID string) error
	upcomingFn         func(userID string, from, until time.Time) ([]recurring.Occurrence, error)
}

func (m *mockRecurringService) CreateRecurring(userID string, input services.RecurringInput) (*models.RecurringTransaction, error) {
	if m.createRecurringFn != nil {
		return m.createRecurringFn(userID, input)
	}
	return &models.RecurringTransaction{}, nil
}

func (m *mockRecurringService) GetUserRecurring(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error) {
	if m.getUserRecurringFn != nil {
		return m.getUserRecurringFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.RecurringTransaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockRecurringService) GetRecurringByID(userID, recurringID string) (*models.RecurringTransaction, error) {
	if m.getRecurringByIDFn != nil {
		return m.getRecurringByIDFn(userID, recurringID)
	}
	return &models.RecurringTransaction{}, nil
}

func (m *mockRecurringService) UpdateRecurring(userID, recurringID string, fields services.RecurringUpdateFields) (*models.RecurringTransaction, error) {
	if m.updateRecurringFn != nil {
		return m.updateRecurringFn(userID, recurringID, fields)
	}
	return &models.RecurringTransaction{}, nil
}

func (m *mockRecurringService) DeleteRecurring(userID, recurringID string) error {
	if m.deleteRecurringFn != nil {
		return m.deleteRecurringFn(userID, recurringID)
	}
	return nil
}

func (m *mockRecurringService) Upcoming(userID string, from, until time.Time) ([]recurring.Occurrence, error) {
	if m.upcomingFn != nil {
		return m.upcomingFn(userID, from, until)
	}
	return []recurring.Occurrence{}, nil
}

var _ services.RecurringServicer = (*mockRecurringService)(nil)

var recurringNow = time.Date(2026, 10, 16, 14, 30, 0, 0, time.UTC)

func setupRecurringRouter(handler *RecurringHandler) *gin.Engine {
	handler.WithClock(func() time.Time { return recurringNow })
	r := newTestRouter()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/recurring", handler.CreateRecurring)
	auth.GET("/recurring", handler.GetUserRecurring)
	auth.GET("/recurring/upcoming", handler.GetUpcoming)
	auth.GET("/recurring/:id", handler.GetRecurring)
	auth.PUT("/recurring/:id", handler.UpdateRecurring)
	auth.DELETE("/recurring/:id", handler.DeleteRecurring)
	return r
}

func rent(active bool, end *time.Time) *models.RecurringTransaction {
	return &models.RecurringTransaction{
		Base:      models.Base{ID: testRecurID},
		UserID:    testUserID,
		Name:      "Rent",
		Amount:    decimal.RequireFromString("-1200"),
		Frequency: models.FrequencyMonthly,
		StartDate: date(2026, 1, 31),
		EndDate:   end,
		IsActive:  active,
	}
}

func TestRecurringHandler_CreateRecurring(t *testing.T) {
	t.Run("returns 201 with next occurrence", func(t *testing.T) {
		svc := &mockRecurringService{
			createRecurringFn: func(_ string, input services.RecurringInput) (*models.RecurringTransaction, error) {
				if input.Frequency != models.FrequencyMonthly || !input.StartDate.Equal(date(2026, 1, 31)) {
					t.Errorf("unexpected input %+v", input)
				}
				return rent(true, nil), nil
			},
		}
		audit := &mockAuditService{}
		r := setupRecurringRouter(NewRecurringHandler(svc, audit))

		rec := doRequest(r, "POST", "/recurring",
			`{"name":"Rent","amount":"-1200","frequency":"monthly","start_date":"2026-01-31"}`)

		assertStatus(t, rec, http.StatusCreated)
		result := parseJSON(t, rec)
		if result["next_occurrence"] != "2026-10-31T00:00:00Z" {
			t.Errorf("expected next occurrence 2026-10-31, got %v", result["next_occurrence"])
		}
		audit.assertLogged(t, "CREATE_RECURRING", testRecurID)
	})

	tests := []struct {
		name string
		body string
	}{
		{"unknown frequency", `{"name":"Rent","amount":"-1","frequency":"hourly","start_date":"2026-01-01"}`},
		{"zero amount", `{"name":"Rent","amount":"0","frequency":"weekly","start_date":"2026-01-01"}`},
		{"missing start", `{"name":"Rent","amount":"-1","frequency":"weekly"}`},
		{"bad account", `{"name":"Rent","amount":"-1","frequency":"weekly","start_date":"2026-01-01","account_id":"x"}`},
	}
	for _, tt := range tests {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			r := setupRecurringRouter(NewRecurringHandler(&mockRecurringService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/recurring", tt.body)

			assertStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestRecurringHandler_GetRecurring(t *testing.T) {
	tests := []struct {
		name     string
		template *models.RecurringTransaction
		wantNext interface{}
	}{
		{"active clamps to month end", rent(true, nil), "2026-10-31T00:00:00Z"},
		{"paused has no next", rent(false, nil), nil},
		{"ended has no next", rent(true, func() *time.Time { d := date(2026, 10, 1); return &d }()), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockRecurringService{
				getRecurringByIDFn: func(_, _ string) (*models.RecurringTransaction, error) { return tt.template, nil },
			}
			r := setupRecurringRouter(NewRecurringHandler(svc, &mockAuditService{}))

			rec := doRequest(r, "GET", "/recurring/"+testRecurID, "")

			assertStatus(t, rec, http.StatusOK)
			if got := parseJSON(t, rec)["next_occurrence"]; got != tt.wantNext {
				t.Errorf("next_occurrence = %v, want %v", got, tt.wantNext)
			}
		})
	}

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockRecurringService{
			getRecurringByIDFn: func(_, _ string) (*models.RecurringTransaction, error) {
				return nil, apperrors.ErrRecurringNotFound
			},
		}
		r := setupRecurringRouter(NewRecurringHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/recurring/"+testRecurID, "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "RECURRING_NOT_FOUND")
	})
}

func TestRecurringHandler_GetUpcoming(t *testing.T) {
	t.Run("defaults to thirty days from now", func(t *testing.T) {
		svc := &mockRecurringService{
			upcomingFn: func(_ string, from, until time.Time) ([]recurring.Occurrence, error) {
				if !from.Equal(recurringNow) {
					t.Errorf("from = %s, want now", from)
				}
				if want := recurringNow.Add(30 * 24 * time.Hour); !until.Equal(want) {
					t.Errorf("until = %s, want %s", until, want)
				}
				return []recurring.Occurrence{{RecurringID: testRecurID, Name: "Rent", Date: date(2026, 10, 31)}}, nil
			},
		}
		r := setupRecurringRouter(NewRecurringHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/recurring/upcoming", "")

		assertStatus(t, rec, http.StatusOK)
		occ := parseJSON(t, rec)["occurrences"].([]interface{})
		if len(occ) != 1 {
			t.Fatalf("expected 1 occurrence, got %d", len(occ))
		}
	})

	t.Run("parses explicit range", func(t *testing.T) {
		svc := &mockRecurringService{
			upcomingFn: func(_ string, from, until time.Time) ([]recurring.Occurrence, error) {
				if !from.Equal(date(2026, 11, 1)) || !until.Equal(date(2026, 12, 31)) {
					t.Errorf("unexpected range %s..%s", from, until)
				}
				return []recurring.Occurrence{}, nil
			},
		}
		r := setupRecurringRouter(NewRecurringHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/recurring/upcoming?from=2026-11-01&until=2026-12-31", "")

		assertStatus(t, rec, http.StatusOK)
	})

	t.Run("returns 400 from service range check", func(t *testing.T) {
		svc := &mockRecurringService{
			upcomingFn: func(_ string, _, _ time.Time) ([]recurring.Occurrence, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "range must not exceed 366 days")
			},
		}
		r := setupRecurringRouter(NewRecurringHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/recurring/upcoming?from=2026-01-01&until=2028-01-01", "")

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on bad date", func(t *testing.T) {
		r := setupRecurringRouter(NewRecurringHandler(&mockRecurringService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/recurring/upcoming?until=soon", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestRecurringHandler_UpdateAndDelete(t *testing.T) {
	t.Run("update pauses template", func(t *testing.T) {
		svc := &mockRecurringService{
			updateRecurringFn: func(_, _ string, fields services.RecurringUpdateFields) (*models.RecurringTransaction, error) {
				if fields.IsActive == nil || *fields.IsActive {
					t.Error("expected is_active=false")
				}
				return rent(false, nil), nil
			},
		}
		audit := &mockAuditService{}
		r := setupRecurringRouter(NewRecurringHandler(svc, audit))

		rec := doRequest(r, "PUT", "/recurring/"+testRecurID, `{"is_active":false}`)

		assertStatus(t, rec, http.StatusOK)
		if next := parseJSON(t, rec)["next_occurrence"]; next != nil {
			t.Errorf("paused template should have no next occurrence, got %v", next)
		}
		audit.assertLogged(t, "UPDATE_RECURRING", testRecurID)
	})

	t.Run("delete audits", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupRecurringRouter(NewRecurringHandler(&mockRecurringService{}, audit))

		rec := doRequest(r, "DELETE", "/recurring/"+testRecurID, "")

		assertStatus(t, rec, http.StatusOK)
		audit.assertLogged(t, "DELETE_RECURRING", testRecurID)
	})
}
