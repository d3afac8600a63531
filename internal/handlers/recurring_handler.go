package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/middleware"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
	"pocketbook/internal/recurring"
	"pocketbook/internal/services"
)

// defaultUpcomingWindow is used when the upcoming query omits until.
const defaultUpcomingWindow = 30 * 24 * time.Hour

// RecurringHandler handles recurring transaction templates.
type RecurringHandler struct {
	recurringService services.RecurringServicer
	auditService     services.AuditServicer
	now              func() time.Time
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer, auditService services.AuditServicer) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, auditService: auditService, now: time.Now}
}

// WithClock overrides the time source used for next occurrences and default ranges.
func (h *RecurringHandler) WithClock(now func() time.Time) *RecurringHandler {
	h.now = now
	return h
}

// CreateRecurringRequest represents the request payload for a recurring template.
type CreateRecurringRequest struct {
	AccountID   *string          `json:"account_id"`
	CategoryID  *string          `json:"category_id"`
	Name        string           `json:"name" binding:"required,min=1,max=100"`
	Amount      decimal.Decimal  `json:"amount" swaggertype:"string" binding:"nonzero_decimal"`
	Frequency   models.Frequency `json:"frequency" binding:"required,recurring_frequency"`
	StartDate   string           `json:"start_date" binding:"required"`
	EndDate     *string          `json:"end_date"`
	Description string           `json:"description" binding:"max=500"`
}

// UpdateRecurringRequest represents the request payload for updating a template.
type UpdateRecurringRequest struct {
	Name         *string           `json:"name" binding:"omitempty,min=1,max=100"`
	Amount       *decimal.Decimal  `json:"amount" swaggertype:"string" binding:"omitempty,nonzero_decimal"`
	Frequency    *models.Frequency `json:"frequency" binding:"omitempty,recurring_frequency"`
	EndDate      *string           `json:"end_date"`
	ClearEndDate bool              `json:"clear_end_date"`
	IsActive     *bool             `json:"is_active"`
	Description  *string           `json:"description" binding:"omitempty,max=500"`
}

// RecurringResponse is a template with its next scheduled date, null when the
// schedule has ended or the template is paused.
type RecurringResponse struct {
	Recurring      *models.RecurringTransaction `json:"recurring"`
	NextOccurrence *time.Time                   `json:"next_occurrence"`
}

// UpcomingResponse lists scheduled occurrences within a range.
type UpcomingResponse struct {
	From        time.Time              `json:"from"`
	Until       time.Time              `json:"until"`
	Occurrences []recurring.Occurrence `json:"occurrences"`
}

func (h *RecurringHandler) respond(c *gin.Context, status int, rt *models.RecurringTransaction) {
	resp := RecurringResponse{Recurring: rt}
	if rt.IsActive {
		next, err := recurring.NextOccurrence(rt.Frequency, rt.StartDate, h.now())
		if err == nil && (rt.EndDate == nil || !next.After(*rt.EndDate)) {
			resp.NextOccurrence = &next
		}
	}
	c.JSON(status, resp)
}

// CreateRecurring handles the creation of a recurring transaction template.
// @Summary     Create a recurring transaction
// @Description Create a template that repeats daily, weekly, monthly or yearly from its start date
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRecurringRequest true "Recurring transaction details"
// @Success     201 {object} RecurringResponse "Template created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [post]
func (h *RecurringHandler) CreateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var req CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	input := services.RecurringInput{
		Name:        req.Name,
		Amount:      req.Amount,
		Frequency:   req.Frequency,
		Description: req.Description,
	}
	if input.AccountID, err = normalizeBodyID("account_id", req.AccountID); err != nil {
		middleware.Fail(c, err)
		return
	}
	if input.CategoryID, err = normalizeBodyID("category_id", req.CategoryID); err != nil {
		middleware.Fail(c, err)
		return
	}
	if input.StartDate, err = parseFlexibleTime(req.StartDate); err != nil {
		middleware.Fail(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date: "+err.Error()))
		return
	}
	if input.EndDate, err = parseOptionalTime(req.EndDate); err != nil {
		middleware.Fail(c, err)
		return
	}

	rt, err := h.recurringService.CreateRecurring(userID, input)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_RECURRING", "recurring_transaction", rt.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "amount": req.Amount.String(), "frequency": req.Frequency})

	h.respond(c, http.StatusCreated, rt)
}

// GetUserRecurring handles listing recurring templates.
// @Summary     Get recurring transactions
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.RecurringTransaction] "Paginated templates"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [get]
func (h *RecurringHandler) GetUserRecurring(c *gin.Context) {
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

	result, err := h.recurringService.GetUserRecurring(userID, page)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUpcoming handles listing scheduled occurrences in a date range.
// @Summary     Get upcoming occurrences
// @Description Expand every active template into its dates within [from, until]. Defaults to the next 30 days; at most 366 days.
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       from  query string false "Range start (RFC3339 or YYYY-MM-DD, default now)"
// @Param       until query string false "Range end (RFC3339 or YYYY-MM-DD, default from + 30 days)"
// @Success     200 {object} UpcomingResponse "Occurrences ordered by date"
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/upcoming [get]
func (h *RecurringHandler) GetUpcoming(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	from := h.now()
	if v := c.Query("from"); v != "" {
		if from, err = parseFlexibleTime(v); err != nil {
			middleware.Fail(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from: "+err.Error()))
			return
		}
	}
	until := from.Add(defaultUpcomingWindow)
	if v := c.Query("until"); v != "" {
		if until, err = parseFlexibleTime(v); err != nil {
			middleware.Fail(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "until: "+err.Error()))
			return
		}
	}

	occurrences, err := h.recurringService.Upcoming(userID, from, until)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, UpcomingResponse{From: from, Until: until, Occurrences: occurrences})
}

// GetRecurring handles retrieving one template with its next occurrence.
// @Summary     Get recurring transaction by ID
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring transaction ID"
// @Success     200 {object} RecurringResponse "Template with next occurrence"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /recurring/{id} [get]
func (h *RecurringHandler) GetRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	rt, err := h.recurringService.GetRecurringByID(userID, recurringID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	h.respond(c, http.StatusOK, rt)
}

// UpdateRecurring handles updating a template.
// @Summary     Update recurring transaction
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Recurring transaction ID"
// @Param       request body UpdateRecurringRequest true "Updated fields"
// @Success     200 {object} RecurringResponse "Updated template"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /recurring/{id} [put]
func (h *RecurringHandler) UpdateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var req UpdateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	fields := services.RecurringUpdateFields{
		Name:         req.Name,
		Amount:       req.Amount,
		Frequency:    req.Frequency,
		ClearEndDate: req.ClearEndDate,
		IsActive:     req.IsActive,
		Description:  req.Description,
	}
	if fields.EndDate, err = parseOptionalTime(req.EndDate); err != nil {
		middleware.Fail(c, err)
		return
	}

	rt, err := h.recurringService.UpdateRecurring(userID, recurringID, fields)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	changes := map[string]interface{}{"name": rt.Name, "is_active": rt.IsActive}
	if req.Frequency != nil {
		changes["frequency"] = *req.Frequency
	}
	h.auditService.Log(userID, "UPDATE_RECURRING", "recurring_transaction", recurringID, c.ClientIP(), changes)

	h.respond(c, http.StatusOK, rt)
}

// DeleteRecurring handles deleting a template.
// @Summary     Delete recurring transaction
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring transaction ID"
// @Success     200 {object} MessageResponse "Template deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /recurring/{id} [delete]
func (h *RecurringHandler) DeleteRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	if err := h.recurringService.DeleteRecurring(userID, recurringID); err != nil {
		middleware.Fail(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_RECURRING", "recurring_transaction", recurringID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Recurring transaction deleted successfully"})
}
