package categorize

import (
	"context"
	"errors"
	"testing"

	"reckon/internal/llm"
	"reckon/internal/models"
	"reckon/internal/testutil"
)

// fakeStrategy is a canned llm.Strategy that counts Categorize calls.
type fakeStrategy struct {
	categoryName string
	err          error
	calls        int
}

func (f *fakeStrategy) Categorize(_ context.Context, input llm.CategorizationInput) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	for _, c := range input.Categories {
		if c.Name == f.categoryName {
			return c.ID, nil
		}
	}
	return "", nil
}

func (f *fakeStrategy) SuggestCategories(context.Context, []llm.MerchantSummary, []string) ([]llm.CategorySuggestion, error) {
	return nil, nil
}

func TestChainCategorize(t *testing.T) {
	t.Run("rule_beats_source_hint", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		ruleCat := testutil.CreateTestCategory(t, db, user.ID, "Streaming")
		testutil.CreateTestCategory(t, db, user.ID, "Entertainment")
		testutil.CreateTestRule(t, db, user.ID, "netflix", ruleCat.ID, 10)

		chain := NewChain(db, nil)
		got, err := chain.Categorize(context.Background(), user.ID, Input{
			MerchantName:   "Netflix",
			Description:    "NETFLIX.COM",
			SourceCategory: "Entertainment",
		}, NewBatchCache())
		testutil.AssertNoError(t, err)
		if got == nil || *got != ruleCat.ID {
			t.Fatalf("expected rule category %s, got %v", ruleCat.ID, got)
		}
	})

	t.Run("higher_priority_rule_wins", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		groceries := testutil.CreateTestCategory(t, db, user.ID, "Groceries")
		other := testutil.CreateTestCategory(t, db, user.ID, "Other Retail")
		testutil.CreateTestRule(t, db, user.ID, "foods", other.ID, 1)
		testutil.CreateTestRule(t, db, user.ID, "whole foods", groceries.ID, 10)

		chain := NewChain(db, nil)
		got, err := chain.Categorize(context.Background(), user.ID, Input{
			MerchantName: "Whole Foods",
			Description:  "WHOLE FOODS MARKET",
		}, NewBatchCache())
		testutil.AssertNoError(t, err)
		if got == nil || *got != groceries.ID {
			t.Fatalf("expected groceries %s, got %v", groceries.ID, got)
		}
	})

	t.Run("source_hint_maps_to_canonical_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		supermarket := testutil.CreateTestCategory(t, db, user.ID, "Supermarket")

		chain := NewChain(db, nil)
		got, err := chain.Categorize(context.Background(), user.ID, Input{
			MerchantName:   "Safeway",
			Description:    "SAFEWAY #123",
			SourceCategory: "Grocery",
		}, NewBatchCache())
		testutil.AssertNoError(t, err)
		if got == nil || *got != supermarket.ID {
			t.Fatalf("expected supermarket %s, got %v", supermarket.ID, got)
		}
	})

	t.Run("hint_ignored_when_category_absent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		uncategorized := testutil.CreateTestCategory(t, db, user.ID, models.UncategorizedName)

		chain := NewChain(db, nil)
		got, err := chain.Categorize(context.Background(), user.ID, Input{
			MerchantName:   "Safeway",
			SourceCategory: "Grocery",
		}, NewBatchCache())
		testutil.AssertNoError(t, err)
		if got == nil || *got != uncategorized.ID {
			t.Fatalf("expected uncategorized fallback, got %v", got)
		}
	})

	t.Run("llm_answer_used", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		dining := testutil.CreateTestCategory(t, db, user.ID, "Dining")
		strategy := &fakeStrategy{categoryName: "Dining"}

		chain := NewChain(db, strategy)
		got, err := chain.Categorize(context.Background(), user.ID, Input{
			MerchantName: "Some Bistro",
			Description:  "SOME BISTRO SF",
		}, NewBatchCache())
		testutil.AssertNoError(t, err)
		if got == nil || *got != dining.ID {
			t.Fatalf("expected dining %s, got %v", dining.ID, got)
		}
	})

	t.Run("llm_memoized_per_merchant", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestCategory(t, db, user.ID, "Dining")
		strategy := &fakeStrategy{categoryName: "Dining"}

		chain := NewChain(db, strategy)
		cache := NewBatchCache()
		for i := 0; i < 3; i++ {
			_, err := chain.Categorize(context.Background(), user.ID, Input{
				MerchantName: "Some Bistro",
				Description:  "SOME BISTRO SF",
			}, cache)
			testutil.AssertNoError(t, err)
		}
		if strategy.calls != 1 {
			t.Fatalf("expected 1 LLM call for repeated merchant, got %d", strategy.calls)
		}
	})

	t.Run("llm_failure_degrades_to_fallback", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		uncategorized := testutil.CreateTestCategory(t, db, user.ID, models.UncategorizedName)
		strategy := &fakeStrategy{err: errors.New("model timeout")}

		chain := NewChain(db, strategy)
		got, err := chain.Categorize(context.Background(), user.ID, Input{
			MerchantName: "Mystery Shop",
		}, NewBatchCache())
		testutil.AssertNoError(t, err)
		if got == nil || *got != uncategorized.ID {
			t.Fatalf("expected uncategorized fallback on LLM failure, got %v", got)
		}
	})

	t.Run("no_fallback_bucket_returns_nil", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)

		chain := NewChain(db, nil)
		got, err := chain.Categorize(context.Background(), user.ID, Input{
			MerchantName: "Mystery Shop",
		}, NewBatchCache())
		testutil.AssertNoError(t, err)
		if got != nil {
			t.Fatalf("expected nil category, got %v", *got)
		}
	})

	t.Run("rules_scoped_to_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		cat1 := testutil.CreateTestCategory(t, db, user1.ID, "Streaming")
		testutil.CreateTestRule(t, db, user1.ID, "netflix", cat1.ID, 0)

		chain := NewChain(db, nil)
		got, err := chain.Categorize(context.Background(), user2.ID, Input{
			MerchantName: "Netflix",
		}, NewBatchCache())
		testutil.AssertNoError(t, err)
		if got != nil {
			t.Fatalf("expected no match for other user, got %v", *got)
		}
	})
}
