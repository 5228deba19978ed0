package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"reckon/internal/categorize"
	apperrors "reckon/internal/errors"
	"reckon/internal/llm"
	"reckon/internal/logger"
	"reckon/internal/models"
)

// suggestionService asks the LLM to propose new categories for the
// user's uncategorized backlog and turns approved suggestions into
// categories plus merchant rules.
type suggestionService struct {
	db           *gorm.DB
	chain        *categorize.Chain
	llm          llm.Strategy // nil when not configured
	transactions TransactionServicer
}

// NewSuggestionService creates a new SuggestionServicer. strategy may be
// nil; suggestion generation then fails with a configuration error.
func NewSuggestionService(db *gorm.DB, chain *categorize.Chain, strategy llm.Strategy, transactions TransactionServicer) SuggestionServicer {
	return &suggestionService{db: db, chain: chain, llm: strategy, transactions: transactions}
}

// Suggest groups the user's uncategorized transactions by merchant,
// biggest spend first, and asks the LLM for new category groupings.
// An empty backlog short-circuits to an empty list without an LLM call.
// Unlike the categorizer chain, a model failure here is surfaced: the
// user asked for suggestions and silence would look like "none".
func (s *suggestionService) Suggest(ctx context.Context, userID string) ([]llm.CategorySuggestion, error) {
	if s.llm == nil {
		return nil, apperrors.ErrLLMNotConfigured
	}

	backlog, err := s.uncategorized(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(backlog) == 0 {
		return []llm.CategorySuggestion{}, nil
	}

	merchantNames := map[string]string{}
	var merchants []models.Merchant
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&merchants).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, m := range merchants {
		merchantNames[m.ID] = m.NormalizedName
	}

	grouped := map[string]*llm.MerchantSummary{}
	var order []string
	for i := range backlog {
		txn := &backlog[i]
		name := txn.Description
		if txn.MerchantID != nil {
			if n, ok := merchantNames[*txn.MerchantID]; ok {
				name = n
			}
		}

		summary, ok := grouped[name]
		if !ok {
			summary = &llm.MerchantSummary{NormalizedName: name}
			grouped[name] = summary
			order = append(order, name)
		}
		summary.TransactionCount++
		summary.TotalAmount += txn.Amount
		// A couple of distinct raw descriptions per merchant is plenty
		// of context for the prompt.
		if len(summary.SampleDescriptions) < 2 && !containsString(summary.SampleDescriptions, txn.Description) {
			summary.SampleDescriptions = append(summary.SampleDescriptions, txn.Description)
		}
	}

	summaries := make([]llm.MerchantSummary, 0, len(order))
	for _, name := range order {
		summaries = append(summaries, *grouped[name])
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalAmount > summaries[j].TotalAmount
	})

	var existing []models.Category
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	existingNames := make([]string, 0, len(existing))
	for _, c := range existing {
		existingNames = append(existingNames, c.Name)
	}

	suggestions, err := s.llm.SuggestCategories(ctx, summaries, existingNames)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSuggestionFailed, err)
	}
	if suggestions == nil {
		suggestions = []llm.CategorySuggestion{}
	}
	return suggestions, nil
}

// Apply creates a category and its merchant rules for each approved
// suggestion, then resweeps the backlog so the new rules take effect
// immediately. Within one suggestion, earlier patterns get higher rule
// priority: the model lists its most specific patterns first.
func (s *suggestionService) Apply(ctx context.Context, userID string, approved []llm.CategorySuggestion) (*ApplyResult, error) {
	if len(approved) == 0 {
		return nil, apperrors.ErrNoSuggestionsGiven
	}

	result := &ApplyResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, sug := range approved {
			name := strings.TrimSpace(sug.Name)
			if name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "suggestion name is required")
			}

			category := &models.Category{
				UserID: userID,
				Name:   name,
				Color:  sug.Color,
				Icon:   sug.Icon,
			}
			if err := tx.Create(category).Error; err != nil {
				return err
			}
			result.Created++

			for i, pattern := range sug.Patterns {
				pattern = strings.ToLower(strings.TrimSpace(pattern))
				if pattern == "" {
					continue
				}
				rule := &models.MerchantRule{
					UserID:     userID,
					Pattern:    pattern,
					CategoryID: category.ID,
					Priority:   len(sug.Patterns) - i,
				}
				if err := tx.Create(rule).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sweep, err := s.transactions.AutoCategorizeAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.Categorized = sweep.Categorized

	logger.Get().Infow("suggestions applied",
		"created", result.Created,
		"categorized", result.Categorized,
	)
	return result, nil
}

// uncategorized returns the user's transactions with no category or the
// Uncategorized bucket.
func (s *suggestionService) uncategorized(ctx context.Context, userID string) ([]models.Transaction, error) {
	uncategorizedID, err := s.chain.UncategorizedID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if uncategorizedID != nil {
		query = query.Where("category_id IS NULL OR category_id = ?", *uncategorizedID)
	} else {
		query = query.Where("category_id IS NULL")
	}

	var backlog []models.Transaction
	if err := query.Find(&backlog).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return backlog, nil
}
