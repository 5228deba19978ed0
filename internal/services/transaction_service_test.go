package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"reckon/internal/categorize"
	"reckon/internal/models"
	"reckon/internal/pagination"
	"reckon/internal/testutil"
)

func newTransactionService(db *gorm.DB) TransactionServicer {
	return NewTransactionService(db, categorize.NewChain(db, nil))
}

func TestCreateTransaction(t *testing.T) {
	t.Run("manual_entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		svc := newTransactionService(db)

		txn, err := svc.CreateTransaction(context.Background(), user.ID, ManualTransactionInput{
			AccountID:       account.ID,
			TransactionDate: "01/15/2024",
			Description:     "NETFLIX.COM",
			MerchantName:    "Netflix",
			Amount:          1549,
		})
		testutil.AssertNoError(t, err)
		if txn.Fingerprint == "" {
			t.Error("expected fingerprint on manual transaction")
		}
		if txn.Type != models.TransactionTypePurchase {
			t.Errorf("expected default type Purchase, got %q", txn.Type)
		}
		if txn.MerchantID == nil {
			t.Error("expected merchant resolution for manual transaction")
		}
	})

	t.Run("identical_entry_conflicts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		svc := newTransactionService(db)

		input := ManualTransactionInput{
			AccountID:       account.ID,
			TransactionDate: "01/15/2024",
			Description:     "NETFLIX.COM",
			Amount:          1549,
		}
		_, err := svc.CreateTransaction(context.Background(), user.ID, input)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateTransaction(context.Background(), user.ID, input)
		testutil.AssertAppError(t, err, "DUPLICATE_TRANSACTION")
	})

	t.Run("deleted_row_still_blocks_reentry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		svc := newTransactionService(db)

		input := ManualTransactionInput{
			AccountID:       account.ID,
			TransactionDate: "01/15/2024",
			Description:     "NETFLIX.COM",
			Amount:          1549,
		}
		txn, err := svc.CreateTransaction(context.Background(), user.ID, input)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, txn.ID))

		// Soft-deleted rows keep their fingerprint slot in the unique
		// index, so re-entry conflicts instead of failing the insert.
		_, err = svc.CreateTransaction(context.Background(), user.ID, input)
		testutil.AssertAppError(t, err, "DUPLICATE_TRANSACTION")
	})

	t.Run("rule_categorizes_manual_entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		streaming := testutil.CreateTestCategory(t, db, user.ID, "Streaming")
		testutil.CreateTestRule(t, db, user.ID, "netflix", streaming.ID, 0)
		svc := newTransactionService(db)

		txn, err := svc.CreateTransaction(context.Background(), user.ID, ManualTransactionInput{
			AccountID:       account.ID,
			TransactionDate: "01/15/2024",
			Description:     "NETFLIX.COM",
			Amount:          1549,
		})
		testutil.AssertNoError(t, err)
		if txn.CategoryID == nil || *txn.CategoryID != streaming.ID {
			t.Errorf("expected chain category %s, got %v", streaming.ID, txn.CategoryID)
		}
	})

	t.Run("wrong_user_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user1.ID)
		svc := newTransactionService(db)

		_, err := svc.CreateTransaction(context.Background(), user2.ID, ManualTransactionInput{
			AccountID:       account.ID,
			TransactionDate: "01/15/2024",
			Description:     "NETFLIX.COM",
			Amount:          1549,
		})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestGetUserTransactions(t *testing.T) {
	t.Run("filters_by_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		streaming := testutil.CreateTestCategory(t, db, user.ID, "Streaming")
		svc := newTransactionService(db)

		txn := testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/15/2024", "NETFLIX.COM", 1549)
		testutil.AssertNoError(t, db.Model(txn).Update("category_id", streaming.ID).Error)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/16/2024", "COFFEE SHOP", 450)

		resp, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{CategoryID: &streaming.ID})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 1 {
			t.Fatalf("expected 1 filtered transaction, got %d", resp.TotalItems)
		}
		if resp.Data[0].Description != "NETFLIX.COM" {
			t.Errorf("unexpected transaction %q", resp.Data[0].Description)
		}
	})

	t.Run("scoped_to_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user1.ID)
		testutil.CreateTestTransaction(t, db, user1.ID, account.ID, "01/15/2024", "NETFLIX.COM", 1549)
		svc := newTransactionService(db)

		resp, err := svc.GetUserTransactions(user2.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 0 {
			t.Errorf("expected 0 transactions for other user, got %d", resp.TotalItems)
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("clear_category_with_explicit_null", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		streaming := testutil.CreateTestCategory(t, db, user.ID, "Streaming")
		svc := newTransactionService(db)

		txn := testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/15/2024", "NETFLIX.COM", 1549)
		testutil.AssertNoError(t, db.Model(txn).Update("category_id", streaming.ID).Error)

		_, err := svc.UpdateTransaction(user.ID, txn.ID, TransactionUpdate{HasCategory: true, CategoryID: nil})
		testutil.AssertNoError(t, err)

		var updated models.Transaction
		testutil.AssertNoError(t, db.First(&updated, "id = ?", txn.ID).Error)
		if updated.CategoryID != nil {
			t.Errorf("expected cleared category, got %v", *updated.CategoryID)
		}
	})

	t.Run("fingerprint_survives_amount_edit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		svc := newTransactionService(db)

		txn := testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/15/2024", "NETFLIX.COM", 1549)
		original := txn.Fingerprint

		amount := int64(1600)
		_, err := svc.UpdateTransaction(user.ID, txn.ID, TransactionUpdate{Amount: &amount})
		testutil.AssertNoError(t, err)

		var updated models.Transaction
		testutil.AssertNoError(t, db.First(&updated, "id = ?", txn.ID).Error)
		if updated.Amount != 1600 {
			t.Errorf("expected amount 1600, got %d", updated.Amount)
		}
		if updated.Fingerprint != original {
			t.Error("fingerprint must not change on edit")
		}
	})

	t.Run("other_users_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user1.ID)
		txn := testutil.CreateTestTransaction(t, db, user1.ID, account.ID, "01/15/2024", "NETFLIX.COM", 1549)
		svc := newTransactionService(db)

		notes := "mine now"
		_, err := svc.UpdateTransaction(user2.ID, txn.ID, TransactionUpdate{Notes: &notes})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestAutoCategorizeAll(t *testing.T) {
	t.Run("sweeps_null_and_uncategorized", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		uncategorized := testutil.CreateTestCategory(t, db, user.ID, models.UncategorizedName)
		streaming := testutil.CreateTestCategory(t, db, user.ID, "Streaming")
		testutil.CreateTestRule(t, db, user.ID, "netflix", streaming.ID, 0)
		svc := newTransactionService(db)

		nullCat := testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/15/2024", "NETFLIX.COM A", 1549)
		bucketed := testutil.CreateTestTransaction(t, db, user.ID, account.ID, "02/15/2024", "NETFLIX.COM B", 1549)
		testutil.AssertNoError(t, db.Model(bucketed).Update("category_id", uncategorized.ID).Error)
		noMatch := testutil.CreateTestTransaction(t, db, user.ID, account.ID, "03/15/2024", "MYSTERY SHOP", 450)

		result, err := svc.AutoCategorizeAll(context.Background(), user.ID)
		testutil.AssertNoError(t, err)
		if result.Total != 3 {
			t.Errorf("expected 3 in backlog, got %d", result.Total)
		}
		if result.Categorized != 2 {
			t.Errorf("expected 2 categorized, got %d", result.Categorized)
		}

		for _, id := range []string{nullCat.ID, bucketed.ID} {
			var txn models.Transaction
			testutil.AssertNoError(t, db.First(&txn, "id = ?", id).Error)
			if txn.CategoryID == nil || *txn.CategoryID != streaming.ID {
				t.Errorf("expected %s categorized as streaming, got %v", id, txn.CategoryID)
			}
		}

		var still models.Transaction
		testutil.AssertNoError(t, db.First(&still, "id = ?", noMatch.ID).Error)
		if still.CategoryID != nil {
			t.Errorf("unmatched row must stay in backlog, got %v", *still.CategoryID)
		}
	})

	t.Run("already_categorized_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		dining := testutil.CreateTestCategory(t, db, user.ID, "Dining")
		streaming := testutil.CreateTestCategory(t, db, user.ID, "Streaming")
		testutil.CreateTestRule(t, db, user.ID, "netflix", streaming.ID, 0)
		svc := newTransactionService(db)

		txn := testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/15/2024", "NETFLIX.COM", 1549)
		testutil.AssertNoError(t, db.Model(txn).Update("category_id", dining.ID).Error)

		result, err := svc.AutoCategorizeAll(context.Background(), user.ID)
		testutil.AssertNoError(t, err)
		if result.Total != 0 {
			t.Errorf("expected empty backlog, got %d", result.Total)
		}

		var after models.Transaction
		testutil.AssertNoError(t, db.First(&after, "id = ?", txn.ID).Error)
		if after.CategoryID == nil || *after.CategoryID != dining.ID {
			t.Error("manually categorized row must not be reswept")
		}
	})
}
