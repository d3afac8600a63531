package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
	"pocketbook/internal/recurring"
)

// recurringService manages recurring transaction templates. It only computes
// dates; nothing here materializes transactions.
type recurringService struct {
	db              *gorm.DB
	accountService  AccountServicer
	categoryService CategoryServicer
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, accountService AccountServicer, categoryService CategoryServicer) RecurringServicer {
	return &recurringService{
		db:              db,
		accountService:  accountService,
		categoryService: categoryService,
	}
}

func validateRecurring(rt *models.RecurringTransaction) error {
	if strings.TrimSpace(rt.Name) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if rt.Amount.IsZero() {
		return apperrors.ErrZeroAmount
	}
	if !rt.Frequency.Valid() {
		return apperrors.ErrInvalidFrequency
	}
	if rt.StartDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	if rt.EndDate != nil && rt.EndDate.Before(rt.StartDate) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not precede start date")
	}
	return nil
}

// CreateRecurring stores a new active template.
func (s *recurringService) CreateRecurring(userID string, input RecurringInput) (*models.RecurringTransaction, error) {
	rt := &models.RecurringTransaction{
		UserID:      userID,
		AccountID:   normalizeID(input.AccountID),
		CategoryID:  normalizeID(input.CategoryID),
		Name:        strings.TrimSpace(input.Name),
		Amount:      input.Amount,
		Frequency:   input.Frequency,
		StartDate:   input.StartDate.UTC(),
		EndDate:     utcPtr(input.EndDate),
		IsActive:    true,
		Description: input.Description,
	}
	if err := validateRecurring(rt); err != nil {
		return nil, err
	}

	if rt.CategoryID != nil {
		if _, err := s.categoryService.GetCategoryByID(userID, *rt.CategoryID); err != nil {
			return nil, err
		}
	}
	if rt.AccountID != nil {
		if _, err := s.accountService.GetAccountByID(userID, *rt.AccountID); err != nil {
			return nil, err
		}
	}

	if err := s.db.Create(rt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rt, nil
}

// GetUserRecurring lists a user's templates ordered by start date.
func (s *recurringService) GetUserRecurring(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringTransaction{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var items []models.RecurringTransaction
	if err := base.Preload("Category").
		Order("start_date ASC").Order("id ASC").
		Scopes(pagination.Paginate(page)).
		Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetRecurringByID returns a template if it belongs to the user.
func (s *recurringService) GetRecurringByID(userID, recurringID string) (*models.RecurringTransaction, error) {
	var rt models.RecurringTransaction
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", recurringID, userID).First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rt, nil
}

// UpdateRecurring applies the given fields and re-validates the template.
func (s *recurringService) UpdateRecurring(userID, recurringID string, fields RecurringUpdateFields) (*models.RecurringTransaction, error) {
	rt, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return nil, err
	}

	updated := *rt
	updates := make(map[string]interface{})
	if fields.Name != nil {
		updated.Name = strings.TrimSpace(*fields.Name)
		updates["name"] = updated.Name
	}
	if fields.Amount != nil {
		updated.Amount = *fields.Amount
		updates["amount"] = updated.Amount
	}
	if fields.Frequency != nil {
		updated.Frequency = *fields.Frequency
		updates["frequency"] = updated.Frequency
	}
	if fields.ClearEndDate {
		updated.EndDate = nil
		updates["end_date"] = nil
	} else if fields.EndDate != nil {
		updated.EndDate = utcPtr(fields.EndDate)
		updates["end_date"] = updated.EndDate
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}

	if err := validateRecurring(&updated); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.Model(rt).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetRecurringByID(userID, recurringID)
}

// DeleteRecurring soft-deletes a template.
func (s *recurringService) DeleteRecurring(userID, recurringID string) error {
	rt, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(rt).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Upcoming lists every occurrence of the user's active templates within
// [from, until]. The range may span at most MaxUpcomingHorizon.
func (s *recurringService) Upcoming(userID string, from, until time.Time) ([]recurring.Occurrence, error) {
	if until.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "until must not precede from")
	}
	if until.Sub(from) > MaxUpcomingHorizon {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "range must not exceed 366 days")
	}

	var templates []models.RecurringTransaction
	if err := s.db.
		Where("user_id = ? AND is_active = ? AND start_date <= ?", userID, true, until.UTC()).
		Order("id ASC").
		Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	occurrences, err := recurring.Expand(templates, from, until)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidFrequency, err)
	}
	if occurrences == nil {
		occurrences = []recurring.Occurrence{}
	}
	return occurrences, nil
}
