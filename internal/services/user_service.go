package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "reckon/internal/errors"
	"reckon/internal/models"
)

// seedCategory is one node of the default category forest created for
// every new user.
type seedCategory struct {
	name     string
	color    string
	icon     string
	children []seedCategory
}

// defaultCategories is the category forest seeded at registration. The
// child names include the canonical targets of the source-category hint
// map, and the Uncategorized terminal fallback is always last.
var defaultCategories = []seedCategory{
	{name: "Food & Dining", color: "#f59e0b", icon: "🍽️", children: []seedCategory{
		{name: "Restaurants", color: "#f59e0b", icon: "🍽️"},
		{name: "Coffee & Drinks", color: "#92400e", icon: "☕"},
		{name: "Fast Food", color: "#dc2626", icon: "🍔"},
	}},
	{name: "Groceries", color: "#10b981", icon: "🛒", children: []seedCategory{
		{name: "Supermarket", color: "#10b981", icon: "🛒"},
		{name: "Specialty Foods", color: "#059669", icon: "🥬"},
	}},
	{name: "Transportation", color: "#3b82f6", icon: "🚗", children: []seedCategory{
		{name: "Gas", color: "#2563eb", icon: "⛽"},
		{name: "Rideshare", color: "#1d4ed8", icon: "🚕"},
		{name: "Public Transit", color: "#1e40af", icon: "🚇"},
	}},
	{name: "Shopping", color: "#ec4899", icon: "🛍️", children: []seedCategory{
		{name: "Clothing", color: "#db2777", icon: "👔"},
		{name: "General Retail", color: "#be185d", icon: "🏬"},
	}},
	{name: "Entertainment", color: "#8b5cf6", icon: "🎬"},
	{name: "Bills & Utilities", color: "#6b7280", icon: "💡"},
	{name: "Health & Wellness", color: "#14b8a6", icon: "⚕️"},
	{name: "Travel", color: "#06b6d4", icon: "✈️"},
	{name: "Personal Care", color: "#a855f7", icon: "💇"},
	{name: "Other", color: "#9ca3af", icon: "📦"},
	{name: models.UncategorizedName, color: "#d1d5db", icon: "❓"},
}

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new user. Registration seeds the default
// category forest, so the source-category hint map and the Uncategorized
// fallback of the categorizer resolve from the first import.
func (s *userService) CreateUser(email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:    strings.ToLower(email),
		Password: string(hashedPassword),
		IsActive: true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return seedDefaultCategories(tx, user.ID)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// seedDefaultCategories creates the default category forest for a new
// user, preserving the declared order as sort order.
func seedDefaultCategories(tx *gorm.DB, userID string) error {
	var create func(cats []seedCategory, parentID *string) error
	create = func(cats []seedCategory, parentID *string) error {
		for i, c := range cats {
			category := &models.Category{
				UserID:    userID,
				Name:      c.name,
				ParentID:  parentID,
				Color:     c.color,
				Icon:      c.icon,
				SortOrder: i,
			}
			if err := tx.Create(category).Error; err != nil {
				return err
			}
			if err := create(c.children, &category.ID); err != nil {
				return err
			}
		}
		return nil
	}
	return create(defaultCategories, nil)
}

// GetUserByEmail retrieves an active user by email.
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks the provided password against the stored hash
// and, on success, records the login time.
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return false
	}
	now := time.Now()
	s.db.Model(user).Update("last_login_at", &now)
	return true
}
