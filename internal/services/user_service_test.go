package services

import (
	"testing"

	"reckon/internal/models"
	"reckon/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("creates_user_with_default_categories", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("Jane@Example.com", "password123")
		testutil.AssertNoError(t, err)
		if user.Email != "jane@example.com" {
			t.Errorf("expected lowercased email, got %q", user.Email)
		}
		if user.Password == "password123" {
			t.Error("password must be hashed")
		}

		var fallback models.Category
		err = db.First(&fallback, "user_id = ? AND name = ?", user.ID, models.UncategorizedName).Error
		testutil.AssertNoError(t, err)

		// The hint-map targets come seeded, children under their parents.
		var supermarket models.Category
		err = db.First(&supermarket, "user_id = ? AND name = ?", user.ID, "Supermarket").Error
		testutil.AssertNoError(t, err)
		if supermarket.ParentID == nil {
			t.Fatal("expected Supermarket nested under a parent")
		}
		var parent models.Category
		testutil.AssertNoError(t, db.First(&parent, "id = ?", *supermarket.ParentID).Error)
		if parent.Name != "Groceries" {
			t.Errorf("expected Groceries parent, got %q", parent.Name)
		}

		var count int64
		db.Model(&models.Category{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 21 {
			t.Errorf("expected the full default forest, got %d categories", count)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("jane@example.com", "password123")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("jane@example.com", "different456")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("", "password123")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.CreateUser("jane@example.com", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestVerifyPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user, err := svc.CreateUser("jane@example.com", "password123")
	testutil.AssertNoError(t, err)

	if !svc.VerifyPassword(user, "password123") {
		t.Error("expected correct password to verify")
	}
	if svc.VerifyPassword(user, "wrong") {
		t.Error("expected wrong password to fail")
	}

	var after models.User
	testutil.AssertNoError(t, db.First(&after, "id = ?", user.ID).Error)
	if after.LastLoginAt == nil {
		t.Error("expected last login timestamp after successful verify")
	}
}

func TestGetUserByEmail(t *testing.T) {
	t.Run("inactive_user_hidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("jane@example.com", "password123")
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, db.Model(user).Update("is_active", false).Error)

		_, err = svc.GetUserByEmail("jane@example.com")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}
