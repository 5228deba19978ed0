package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "reckon/internal/errors"
	"reckon/internal/models"
)

// ruleService handles merchant-rule business logic.
type ruleService struct {
	db *gorm.DB
}

// NewRuleService creates a new RuleServicer.
func NewRuleService(db *gorm.DB) RuleServicer {
	return &ruleService{db: db}
}

// CreateRule creates a merchant rule. Patterns are stored lowercased;
// matching is case-insensitive either way, but storage stays canonical.
func (s *ruleService) CreateRule(userID, pattern, categoryID string, priority int) (*models.MerchantRule, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "pattern is required")
	}

	var category models.Category
	err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rule := &models.MerchantRule{
		UserID:     userID,
		Pattern:    strings.ToLower(strings.TrimSpace(pattern)),
		CategoryID: categoryID,
		Priority:   priority,
	}
	if err := s.db.Create(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

// GetUserRules returns the user's rules in match order.
func (s *ruleService) GetUserRules(userID string) ([]models.MerchantRule, error) {
	var rules []models.MerchantRule
	err := s.db.Where("user_id = ?", userID).
		Order("priority DESC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rules, nil
}

// DeleteRule removes a rule.
func (s *ruleService) DeleteRule(userID, ruleID string) error {
	var rule models.MerchantRule
	err := s.db.Where("id = ? AND user_id = ?", ruleID, userID).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrRuleNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Delete(&rule).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
