package services

import (
	"testing"

	"reckon/internal/testutil"
)

func TestRuleService(t *testing.T) {
	t.Run("pattern_stored_lowercased", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, "Streaming")
		svc := NewRuleService(db)

		rule, err := svc.CreateRule(user.ID, "  NETFLIX ", category.ID, 5)
		testutil.AssertNoError(t, err)
		if rule.Pattern != "netflix" {
			t.Errorf("expected lowercased trimmed pattern, got %q", rule.Pattern)
		}
	})

	t.Run("rules_returned_in_match_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, "Streaming")
		svc := NewRuleService(db)

		_, err := svc.CreateRule(user.ID, "low", category.ID, 1)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateRule(user.ID, "high", category.ID, 10)
		testutil.AssertNoError(t, err)

		rules, err := svc.GetUserRules(user.ID)
		testutil.AssertNoError(t, err)
		if len(rules) != 2 || rules[0].Pattern != "high" {
			t.Errorf("expected priority order, got %+v", rules)
		}
	})

	t.Run("foreign_category_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		theirs := testutil.CreateTestCategory(t, db, user1.ID, "Theirs")
		svc := NewRuleService(db)

		_, err := svc.CreateRule(user2.ID, "netflix", theirs.ID, 0)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("empty_pattern_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, "Streaming")
		svc := NewRuleService(db)

		_, err := svc.CreateRule(user.ID, "   ", category.ID, 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
