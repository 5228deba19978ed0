package services

import (
	"testing"

	"reckon/internal/models"
	"reckon/internal/pagination"
	"reckon/internal/testutil"
)

func TestAccountService(t *testing.T) {
	t.Run("create_and_list", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		svc := NewAccountService(db)

		account, err := svc.CreateAccount(user.ID, "Apple Card", models.AccountTypeCreditCard, "Apple", "1234", "")
		testutil.AssertNoError(t, err)
		if account.Color == "" {
			t.Error("expected default color")
		}

		resp, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 1 {
			t.Errorf("expected 1 account, got %d", resp.TotalItems)
		}
	})

	t.Run("missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		svc := NewAccountService(db)

		_, err := svc.CreateAccount(user.ID, "", models.AccountTypeChecking, "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("ownership_enforced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user1.ID)
		svc := NewAccountService(db)

		_, err := svc.GetAccountByID(user2.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
		err = svc.DeleteAccount(user2.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}
