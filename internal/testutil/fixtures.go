package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"reckon/internal/fingerprint"
	"reckon/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a credit card account.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:      userID,
		Name:        fmt.Sprintf("Test Card %d", nextID()),
		Type:        models.AccountTypeCreditCard,
		Institution: "Test Bank",
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category with the given name.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID, name string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   name,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestRule creates a merchant rule mapping pattern to category.
func CreateTestRule(t *testing.T, db *gorm.DB, userID, pattern, categoryID string, priority int) *models.MerchantRule {
	t.Helper()

	rule := &models.MerchantRule{
		UserID:     userID,
		Pattern:    pattern,
		CategoryID: categoryID,
		Priority:   priority,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}

// CreateTestMerchant creates a merchant with the given normalized name.
func CreateTestMerchant(t *testing.T, db *gorm.DB, userID, normalizedName string) *models.Merchant {
	t.Helper()

	merchant := &models.Merchant{
		UserID:         userID,
		NormalizedName: normalizedName,
	}
	if err := db.Create(merchant).Error; err != nil {
		t.Fatalf("failed to create test merchant: %v", err)
	}
	return merchant
}

// CreateTestImportSession creates a pending-review import session.
func CreateTestImportSession(t *testing.T, db *gorm.DB, accountID string) *models.ImportSession {
	t.Helper()

	session := &models.ImportSession{
		AccountID:  accountID,
		Filename:   fmt.Sprintf("statement%d.csv", nextID()),
		SourceType: "apple_card",
		Status:     models.ImportStatusPendingReview,
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create test import session: %v", err)
	}
	return session
}

// CreateTestStagingTransaction creates a selected staging row with a
// real fingerprint for the given fields.
func CreateTestStagingTransaction(t *testing.T, db *gorm.DB, sessionID, date, description string, amount int64) *models.StagingTransaction {
	t.Helper()

	staging := &models.StagingTransaction{
		ImportSessionID: sessionID,
		TransactionDate: date,
		Description:     description,
		MerchantName:    description,
		Amount:          amount,
		Type:            models.TransactionTypePurchase,
		Fingerprint:     fingerprint.Generate(date, description, amount, ""),
		IsSelected:      true,
	}
	if err := db.Create(staging).Error; err != nil {
		t.Fatalf("failed to create test staging transaction: %v", err)
	}
	return staging
}

// CreateTestTransaction creates a ledger row with a real fingerprint.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID, date, description string, amount int64) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		UserID:          userID,
		AccountID:       accountID,
		TransactionDate: date,
		Description:     description,
		Type:            models.TransactionTypePurchase,
		Amount:          amount,
		Fingerprint:     fingerprint.Generate(date, description, amount, ""),
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}
