package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/middleware"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
	"pocketbook/internal/services"
	"pocketbook/internal/spending"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
	now           func() time.Time
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService, now: time.Now}
}

// WithClock overrides the time source used to resolve spending windows.
func (h *BudgetHandler) WithClock(now func() time.Time) *BudgetHandler {
	h.now = now
	return h
}

// CreateBudgetRequest represents the request payload for creating a budget.
// Omitting category_id (or sending it blank) budgets every category.
type CreateBudgetRequest struct {
	CategoryID *string             `json:"category_id"`
	Name       string              `json:"name" binding:"required,min=1,max=100"`
	Amount     decimal.Decimal     `json:"amount" swaggertype:"string" binding:"positive_decimal"`
	Period     models.BudgetPeriod `json:"period" binding:"required,budget_period"`
	StartDate  string              `json:"start_date" binding:"required"`
	EndDate    *string             `json:"end_date"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
// A blank category_id removes the category scope.
type UpdateBudgetRequest struct {
	CategoryID   *string              `json:"category_id"`
	Name         *string              `json:"name" binding:"omitempty,min=1,max=100"`
	Amount       *decimal.Decimal     `json:"amount" swaggertype:"string" binding:"omitempty,positive_decimal"`
	Period       *models.BudgetPeriod `json:"period" binding:"omitempty,budget_period"`
	StartDate    *string              `json:"start_date"`
	EndDate      *string              `json:"end_date"`
	ClearEndDate bool                 `json:"clear_end_date"`
}

// BudgetsWithSpendingResponse lists budgets with their current spend.
type BudgetsWithSpendingResponse struct {
	Budgets []spending.EnrichedBudget `json:"budgets"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a new budget, optionally scoped to one category
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	categoryID, err := normalizeBodyID("category_id", req.CategoryID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	startDate, err := parseFlexibleTime(req.StartDate)
	if err != nil {
		middleware.Fail(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date: "+err.Error()))
		return
	}
	endDate, err := parseOptionalTime(req.EndDate)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, services.BudgetInput{
		CategoryID: categoryID,
		Name:       req.Name,
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  startDate,
		EndDate:    endDate,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "amount": req.Amount.String(), "period": req.Period})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing budgets for the authenticated user.
// @Summary     Get budgets
// @Description Get a paginated list of budgets for the authenticated user
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       period    query string false "Filter by period (monthly/weekly/custom)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		invalidInput(c, err)
		return
	}

	var period *models.BudgetPeriod
	if v := c.Query("period"); v != "" {
		p := models.BudgetPeriod(v)
		switch p {
		case models.BudgetPeriodMonthly, models.BudgetPeriodWeekly, models.BudgetPeriodCustom:
			period = &p
		default:
			middleware.Fail(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be 'monthly', 'weekly' or 'custom'"))
			return
		}
	}

	result, err := h.budgetService.GetUserBudgets(userID, page, period)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudgetsWithSpending handles listing every budget with its spend in the
// current window.
// @Summary     Get budgets with spending
// @Description List all budgets of the authenticated user, each with the amount spent in its current period
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} BudgetsWithSpendingResponse "Budgets with spent_amount"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/spending [get]
func (h *BudgetHandler) GetBudgetsWithSpending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	budgets, err := h.budgetService.GetBudgetsWithSpending(c.Request.Context(), userID, h.now())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if budgets == nil {
		budgets = []spending.EnrichedBudget{}
	}

	c.JSON(http.StatusOK, BudgetsWithSpendingResponse{Budgets: budgets})
}

// GetBudget handles retrieving a specific budget.
// @Summary     Get budget by ID
// @Description Get a specific budget by ID
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating an existing budget.
// @Summary     Update budget
// @Description Update an existing budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Updated budget details"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input or budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	fields := services.BudgetUpdateFields{
		Name:         req.Name,
		Amount:       req.Amount,
		Period:       req.Period,
		ClearEndDate: req.ClearEndDate,
	}
	if req.CategoryID != nil {
		if strings.TrimSpace(*req.CategoryID) == "" {
			fields.CategoryID = strPtr("")
		} else if fields.CategoryID, err = normalizeBodyID("category_id", req.CategoryID); err != nil {
			middleware.Fail(c, err)
			return
		}
	}
	if fields.StartDate, err = parseOptionalTime(req.StartDate); err != nil {
		middleware.Fail(c, err)
		return
	}
	if fields.EndDate, err = parseOptionalTime(req.EndDate); err != nil {
		middleware.Fail(c, err)
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, fields)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"name": budget.Name, "amount": budget.Amount.String()})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Description Delete a budget by ID (soft delete)
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		middleware.Fail(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

func strPtr(s string) *string { return &s }
