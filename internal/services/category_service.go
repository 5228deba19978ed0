package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "reckon/internal/errors"
	"reckon/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a category, optionally under a parent. The
// parent must belong to the same user.
func (s *categoryService) CreateCategory(userID, name string, parentID *string, color, icon string, sortOrder int) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if parentID != nil {
		if _, err := s.getOwned(userID, *parentID); err != nil {
			return nil, err
		}
	}

	category := &models.Category{
		UserID:    userID,
		Name:      name,
		ParentID:  parentID,
		Color:     color,
		Icon:      icon,
		SortOrder: sortOrder,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetUserCategories returns the user's categories as a flat list.
func (s *categoryService) GetUserCategories(userID string) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.Where("user_id = ?", userID).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryTree returns the user's categories as a forest. The tree is
// built in two passes over a single query: index every node, then attach
// children to parents. A node whose parent is missing becomes a root
// rather than disappearing.
func (s *categoryService) GetCategoryTree(userID string) ([]*CategoryNode, error) {
	categories, err := s.GetUserCategories(userID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &CategoryNode{Category: categories[i], Children: []*CategoryNode{}}
	}

	roots := []*CategoryNode{}
	for i := range categories {
		node := nodes[categories[i].ID]
		if categories[i].ParentID != nil {
			if parent, ok := nodes[*categories[i].ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// UpdateCategory updates the mutable fields of a category. Setting a
// category as its own parent is rejected.
func (s *categoryService) UpdateCategory(userID, categoryID string, name, color, icon string, parentID *string, sortOrder *int) (*models.Category, error) {
	category, err := s.getOwned(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if color != "" {
		updates["color"] = color
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if parentID != nil {
		if *parentID == categoryID {
			return nil, apperrors.ErrSelfParentCategory
		}
		if _, err := s.getOwned(userID, *parentID); err != nil {
			return nil, err
		}
		updates["parent_id"] = *parentID
	}
	if sortOrder != nil {
		updates["sort_order"] = *sortOrder
	}
	if len(updates) == 0 {
		return category, nil
	}

	if err := s.db.Model(category).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// DeleteCategory removes a category. Referencing rules are removed too;
// transactions keep their rows and lose the category reference. Children
// are promoted to roots.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.getOwned(userID, categoryID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", categoryID).Delete(&models.MerchantRule{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).
			Where("category_id = ?", categoryID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Category{}).
			Where("parent_id = ?", categoryID).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *categoryService) getOwned(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}
