package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
)

var hundred = decimal.NewFromInt(100)

// NewGoalProgress derives the progress of g. Percentage is rounded to two
// places and is not capped, so an overfunded goal reports more than 100.
func NewGoalProgress(g models.Goal) GoalProgress {
	p := GoalProgress{Goal: g, Percentage: decimal.Zero}
	if g.TargetAmount.IsPositive() {
		p.Percentage = g.CurrentAmount.Div(g.TargetAmount).Mul(hundred).Round(2)
		p.Completed = g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
	}
	return p
}

// goalService handles savings goal business logic.
type goalService struct {
	db *gorm.DB
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB) GoalServicer {
	return &goalService{db: db}
}

func validateGoal(g *models.Goal) error {
	if strings.TrimSpace(g.Name) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if !g.TargetAmount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
	}
	if g.CurrentAmount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "current amount must not be negative")
	}
	return nil
}

// CreateGoal stores a new savings goal.
func (s *goalService) CreateGoal(userID string, input GoalInput) (*GoalProgress, error) {
	goal := models.Goal{
		UserID:        userID,
		Name:          strings.TrimSpace(input.Name),
		TargetAmount:  input.TargetAmount,
		CurrentAmount: input.CurrentAmount,
		TargetDate:    utcPtr(input.TargetDate),
		Color:         input.Color,
	}
	if err := validateGoal(&goal); err != nil {
		return nil, err
	}

	if err := s.db.Create(&goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	progress := NewGoalProgress(goal)
	return &progress, nil
}

// GetUserGoals lists a user's goals, newest first.
func (s *goalService) GetUserGoals(userID string, page pagination.PageRequest) (*pagination.PageResponse[GoalProgress], error) {
	page.Defaults()

	base := s.db.Model(&models.Goal{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.Goal
	if err := base.Scopes(pagination.Newest, pagination.Paginate(page)).Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	items := make([]GoalProgress, len(goals))
	for i := range goals {
		items[i] = NewGoalProgress(goals[i])
	}
	result := pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *goalService) find(userID, goalID string) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// GetGoalByID returns a goal with its progress if it belongs to the user.
func (s *goalService) GetGoalByID(userID, goalID string) (*GoalProgress, error) {
	goal, err := s.find(userID, goalID)
	if err != nil {
		return nil, err
	}
	progress := NewGoalProgress(*goal)
	return &progress, nil
}

// UpdateGoal applies the non-nil fields to a goal.
func (s *goalService) UpdateGoal(userID, goalID string, fields GoalUpdateFields) (*GoalProgress, error) {
	goal, err := s.find(userID, goalID)
	if err != nil {
		return nil, err
	}

	updated := *goal
	updates := make(map[string]interface{})
	if fields.Name != nil {
		updated.Name = strings.TrimSpace(*fields.Name)
		updates["name"] = updated.Name
	}
	if fields.TargetAmount != nil {
		updated.TargetAmount = *fields.TargetAmount
		updates["target_amount"] = updated.TargetAmount
	}
	if fields.TargetDate != nil {
		updated.TargetDate = utcPtr(fields.TargetDate)
		updates["target_date"] = updated.TargetDate
	}
	if fields.Color != nil {
		updated.Color = *fields.Color
		updates["color"] = updated.Color
	}

	if err := validateGoal(&updated); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.Model(goal).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetGoalByID(userID, goalID)
}

// DeleteGoal soft-deletes a goal.
func (s *goalService) DeleteGoal(userID, goalID string) error {
	goal, err := s.find(userID, goalID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(goal).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Contribute adds a signed amount to the goal's current amount. Withdrawals
// may not take the goal below zero. The bound is checked in the same UPDATE
// that applies the amount, so concurrent contributions cannot lose updates.
func (s *goalService) Contribute(userID, goalID string, amount decimal.Decimal) (*GoalProgress, error) {
	if amount.IsZero() {
		return nil, apperrors.ErrZeroAmount
	}

	var progress GoalProgress
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Goal{}).
			Where("id = ? AND user_id = ? AND current_amount + ? >= 0", goalID, userID, amount).
			Update("current_amount", gorm.Expr("current_amount + ?", amount))
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}

		var goal models.Goal
		if err := tx.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrGoalNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if res.RowsAffected == 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "contribution would make the goal balance negative")
		}
		progress = NewGoalProgress(goal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}
