package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"reckon/internal/categorize"
	"reckon/internal/llm"
	"reckon/internal/models"
	"reckon/internal/testutil"
)

// fakeLLM is a canned llm.Strategy for suggestion tests.
type fakeLLM struct {
	suggestions  []llm.CategorySuggestion
	suggestErr   error
	gotMerchants []llm.MerchantSummary
	gotExisting  []string
	calls        int
}

func (f *fakeLLM) Categorize(context.Context, llm.CategorizationInput) (string, error) {
	return "", nil
}

func (f *fakeLLM) SuggestCategories(_ context.Context, merchants []llm.MerchantSummary, existing []string) ([]llm.CategorySuggestion, error) {
	f.calls++
	f.gotMerchants = merchants
	f.gotExisting = existing
	return f.suggestions, f.suggestErr
}

func newSuggestionService(db *gorm.DB, strategy llm.Strategy) SuggestionServicer {
	chain := categorize.NewChain(db, nil)
	return NewSuggestionService(db, chain, strategy, NewTransactionService(db, chain))
}

func TestSuggest(t *testing.T) {
	t.Run("no_llm_configured", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		svc := newSuggestionService(db, nil)

		_, err := svc.Suggest(context.Background(), user.ID)
		testutil.AssertAppError(t, err, "LLM_NOT_CONFIGURED")
	})

	t.Run("empty_backlog_skips_llm", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		strategy := &fakeLLM{}
		svc := newSuggestionService(db, strategy)

		suggestions, err := svc.Suggest(context.Background(), user.ID)
		testutil.AssertNoError(t, err)
		if len(suggestions) != 0 {
			t.Errorf("expected empty suggestions, got %d", len(suggestions))
		}
		if strategy.calls != 0 {
			t.Errorf("expected no LLM call for empty backlog, got %d", strategy.calls)
		}
	})

	t.Run("groups_by_merchant_largest_spend_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		merchant := testutil.CreateTestMerchant(t, db, user.ID, "Netflix")
		strategy := &fakeLLM{}
		svc := newSuggestionService(db, strategy)

		testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/15/2024", "COFFEE SHOP", 450)
		for _, txn := range []*models.Transaction{
			testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/16/2024", "NETFLIX.COM 1", 1549),
			testutil.CreateTestTransaction(t, db, user.ID, account.ID, "02/16/2024", "NETFLIX.COM 2", 1549),
		} {
			testutil.AssertNoError(t, db.Model(txn).Update("merchant_id", merchant.ID).Error)
		}

		_, err := svc.Suggest(context.Background(), user.ID)
		testutil.AssertNoError(t, err)
		if len(strategy.gotMerchants) != 2 {
			t.Fatalf("expected 2 merchant groups, got %d", len(strategy.gotMerchants))
		}
		first := strategy.gotMerchants[0]
		if first.NormalizedName != "Netflix" {
			t.Errorf("expected largest spend first, got %q", first.NormalizedName)
		}
		if first.TransactionCount != 2 || first.TotalAmount != 3098 {
			t.Errorf("unexpected aggregation: %+v", first)
		}
		if len(first.SampleDescriptions) != 2 {
			t.Errorf("expected 2 sample descriptions, got %v", first.SampleDescriptions)
		}
	})

	t.Run("existing_categories_passed_for_exclusion", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		testutil.CreateTestCategory(t, db, user.ID, "Groceries")
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/15/2024", "COFFEE SHOP", 450)
		strategy := &fakeLLM{}
		svc := newSuggestionService(db, strategy)

		_, err := svc.Suggest(context.Background(), user.ID)
		testutil.AssertNoError(t, err)
		if len(strategy.gotExisting) != 1 || strategy.gotExisting[0] != "Groceries" {
			t.Errorf("expected existing categories in prompt, got %v", strategy.gotExisting)
		}
	})

	t.Run("llm_failure_surfaces", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/15/2024", "COFFEE SHOP", 450)
		strategy := &fakeLLM{suggestErr: errors.New("model unavailable")}
		svc := newSuggestionService(db, strategy)

		_, err := svc.Suggest(context.Background(), user.ID)
		testutil.AssertAppError(t, err, "SUGGESTION_FAILED")
	})
}

func TestApplySuggestions(t *testing.T) {
	t.Run("creates_categories_and_prioritized_rules", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		svc := newSuggestionService(db, &fakeLLM{})

		result, err := svc.Apply(context.Background(), user.ID, []llm.CategorySuggestion{
			{
				Name:     "Streaming Services",
				Icon:     "📺",
				Color:    "#6366f1",
				Patterns: []string{"NETFLIX", "hulu"},
			},
		})
		testutil.AssertNoError(t, err)
		if result.Created != 1 {
			t.Fatalf("expected 1 category created, got %d", result.Created)
		}

		var category models.Category
		testutil.AssertNoError(t, db.First(&category, "user_id = ? AND name = ?", user.ID, "Streaming Services").Error)

		var rules []models.MerchantRule
		testutil.AssertNoError(t, db.Where("category_id = ?", category.ID).Order("priority DESC").Find(&rules).Error)
		if len(rules) != 2 {
			t.Fatalf("expected 2 rules, got %d", len(rules))
		}
		// Earlier patterns get higher priority, and are stored lowercased.
		if rules[0].Pattern != "netflix" || rules[0].Priority != 2 {
			t.Errorf("expected netflix at priority 2, got %q at %d", rules[0].Pattern, rules[0].Priority)
		}
		if rules[1].Pattern != "hulu" || rules[1].Priority != 1 {
			t.Errorf("expected hulu at priority 1, got %q at %d", rules[1].Pattern, rules[1].Priority)
		}
	})

	t.Run("resweeps_backlog", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, "01/15/2024", "NETFLIX.COM", 1549)
		svc := newSuggestionService(db, &fakeLLM{})

		result, err := svc.Apply(context.Background(), user.ID, []llm.CategorySuggestion{
			{Name: "Streaming Services", Patterns: []string{"netflix"}},
		})
		testutil.AssertNoError(t, err)
		if result.Categorized != 1 {
			t.Fatalf("expected 1 transaction categorized by resweep, got %d", result.Categorized)
		}

		var txn models.Transaction
		testutil.AssertNoError(t, db.First(&txn, "user_id = ?", user.ID).Error)
		if txn.CategoryID == nil {
			t.Fatal("expected resweep to assign the new category")
		}
		var category models.Category
		testutil.AssertNoError(t, db.First(&category, "id = ?", *txn.CategoryID).Error)
		if category.Name != "Streaming Services" {
			t.Errorf("expected Streaming Services, got %q", category.Name)
		}
	})

	t.Run("empty_approval_list", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		svc := newSuggestionService(db, &fakeLLM{})

		_, err := svc.Apply(context.Background(), user.ID, nil)
		testutil.AssertAppError(t, err, "NO_SUGGESTIONS")
	})

	t.Run("unnamed_suggestion_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		svc := newSuggestionService(db, &fakeLLM{})

		_, err := svc.Apply(context.Background(), user.ID, []llm.CategorySuggestion{
			{Name: "  ", Patterns: []string{"netflix"}},
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		var count int64
		db.Model(&models.Category{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 0 {
			t.Error("a rejected apply must not leave partial categories behind")
		}
	})
}
