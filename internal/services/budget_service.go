package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
	"pocketbook/internal/spending"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db              *gorm.DB
	categoryService CategoryServicer
	engine          *spending.Engine
}

// NewBudgetService creates a new BudgetServicer. Spending is computed over
// the given transaction store.
func NewBudgetService(db *gorm.DB, categoryService CategoryServicer, transactions spending.TransactionStore) BudgetServicer {
	s := &budgetService{db: db, categoryService: categoryService}
	s.engine = spending.NewEngine(s, transactions)
	return s
}

// validateBudget checks the fields every stored budget must satisfy.
func validateBudget(b *models.Budget) error {
	if strings.TrimSpace(b.Name) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if !b.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must be greater than zero")
	}
	switch b.Period {
	case models.BudgetPeriodMonthly, models.BudgetPeriodWeekly, models.BudgetPeriodCustom:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported budget period")
	}
	if b.StartDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget start date is required")
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		return apperrors.ErrInvalidBudgetDates
	}
	return nil
}

// checkCategory verifies a scoped budget points at one of the user's categories.
func (s *budgetService) checkCategory(userID string, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	_, err := s.categoryService.GetCategoryByID(userID, *categoryID)
	return err
}

// CreateBudget creates a new budget. A blank category id becomes nil,
// meaning the budget covers all categories.
func (s *budgetService) CreateBudget(userID string, input BudgetInput) (*models.Budget, error) {
	budget := &models.Budget{
		UserID:     userID,
		CategoryID: normalizeID(input.CategoryID),
		Name:       strings.TrimSpace(input.Name),
		Amount:     input.Amount,
		Period:     input.Period,
		StartDate:  input.StartDate.UTC(),
		EndDate:    utcPtr(input.EndDate),
	}

	if err := validateBudget(budget); err != nil {
		return nil, err
	}
	if err := s.checkCategory(userID, budget.CategoryID); err != nil {
		return nil, err
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetBudgetByID(userID, budget.ID)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// GetUserBudgets returns a paginated list of budgets for the user with an optional period filter.
func (s *budgetService) GetUserBudgets(
	userID string,
	page pagination.PageRequest,
	period *models.BudgetPeriod,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if period != nil {
		base = base.Where("period = ?", *period)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Scopes(pagination.Newest, pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget applies the given fields and re-validates the whole budget,
// including the date ordering and category ownership.
func (s *budgetService) UpdateBudget(userID, budgetID string, fields BudgetUpdateFields) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updated := *budget
	updates := make(map[string]interface{})
	if fields.CategoryID != nil {
		updated.CategoryID = normalizeID(fields.CategoryID)
		updates["category_id"] = updated.CategoryID
	}
	if fields.Name != nil {
		updated.Name = strings.TrimSpace(*fields.Name)
		updates["name"] = updated.Name
	}
	if fields.Amount != nil {
		updated.Amount = *fields.Amount
		updates["amount"] = updated.Amount
	}
	if fields.Period != nil {
		updated.Period = *fields.Period
		updates["period"] = updated.Period
	}
	if fields.StartDate != nil {
		updated.StartDate = fields.StartDate.UTC()
		updates["start_date"] = updated.StartDate
	}
	if fields.ClearEndDate {
		updated.EndDate = nil
		updates["end_date"] = nil
	} else if fields.EndDate != nil {
		updated.EndDate = utcPtr(fields.EndDate)
		updates["end_date"] = updated.EndDate
	}

	if err := validateBudget(&updated); err != nil {
		return nil, err
	}
	if fields.CategoryID != nil {
		if err := s.checkCategory(userID, updated.CategoryID); err != nil {
			return nil, err
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetBudgetByID(userID, budgetID)
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListBudgets loads every budget of the user in creation order with its
// category preloaded. It backs the spending engine.
func (s *budgetService) ListBudgets(ctx context.Context, userID string) ([]models.Budget, error) {
	var budgets []models.Budget
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&budgets).Error
	if err != nil {
		return nil, err
	}
	return budgets, nil
}

// GetBudgetsWithSpending returns all of the user's budgets with the amount
// spent in each budget's current window as of now.
func (s *budgetService) GetBudgetsWithSpending(ctx context.Context, userID string, now time.Time) ([]spending.EnrichedBudget, error) {
	budgets, err := s.engine.BudgetsWithSpending(ctx, userID, now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}
