package categorize

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reckon/internal/llm"
	"reckon/internal/logger"
	"reckon/internal/models"
)

// sourceCategoryMap translates a source file's own category labels to
// this system's canonical category names. Covers Apple Card values;
// extend as new sources are added.
var sourceCategoryMap = map[string]string{
	"Restaurants":    "Restaurants",
	"Grocery":        "Supermarket",
	"Gas":            "Gas",
	"Transportation": "Transportation",
	"Entertainment":  "Entertainment",
	"Shopping":       "General Retail",
	"Other":          "Other",
}

// Input describes one transaction to run through the chain.
type Input struct {
	MerchantName   string
	Description    string
	Amount         int64
	Type           string
	SourceCategory string
}

// BatchCache memoizes LLM answers by merchant name for the duration of
// one import or sweep, so the same merchant is never sent to the LLM
// twice within a batch. Its lifetime is exactly one batch operation.
type BatchCache struct {
	llmResults map[string]*string
	categories []llm.CategoryOption
	loaded     bool
}

// NewBatchCache creates an empty cache for one batch operation.
func NewBatchCache() *BatchCache {
	return &BatchCache{llmResults: make(map[string]*string)}
}

// Chain resolves a transaction's category through the ordered fallback:
// merchant rules, source-category hint, LLM, Uncategorized. Rules always
// outrank probabilistic inference; inference outranks the catch-all.
type Chain struct {
	db  *gorm.DB
	llm llm.Strategy // nil when not configured; step 3 is skipped
}

// NewChain creates a categorizer chain. strategy may be nil.
func NewChain(db *gorm.DB, strategy llm.Strategy) *Chain {
	return &Chain{db: db, llm: strategy}
}

// Categorize returns the category id for the input, or nil when nothing
// applies and the user has no Uncategorized bucket. Database failures
// are returned; LLM failures degrade to "no answer".
func (c *Chain) Categorize(ctx context.Context, userID string, in Input, cache *BatchCache) (*string, error) {
	// 1. Explicit merchant rules, highest priority first.
	var rules []models.MerchantRule
	if err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("priority DESC, id ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}

	searchText := SearchText(in.MerchantName, in.Description)
	if id := MatchRules(searchText, rules); id != nil {
		return id, nil
	}

	// 2. Source-category hint mapped to a canonical category name.
	if in.SourceCategory != "" {
		if name, ok := sourceCategoryMap[in.SourceCategory]; ok {
			var category models.Category
			err := c.db.WithContext(ctx).
				Where("user_id = ? AND name = ?", userID, name).
				First(&category).Error
			if err == nil {
				return &category.ID, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	}

	// 3. LLM fallback, memoized per merchant for the batch.
	if c.llm != nil && cache != nil {
		if id, ok := cache.llmResults[in.MerchantName]; ok {
			if id != nil {
				return id, nil
			}
		} else {
			id, err := c.askLLM(ctx, userID, in, cache)
			if err != nil {
				// A timeout or bad answer from the model means "no
				// answer" here; the chain still has a fallback.
				logger.Get().Warnw("llm categorization failed",
					"merchant", in.MerchantName,
					"error", err.Error(),
				)
				id = nil
			}
			cache.llmResults[in.MerchantName] = id
			if id != nil {
				return id, nil
			}
		}
	}

	// 4. Terminal fallback: the user's Uncategorized bucket.
	var uncategorized models.Category
	err := c.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, models.UncategorizedName).
		First(&uncategorized).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &uncategorized.ID, nil
}

// UncategorizedID resolves the user's Uncategorized bucket id, or nil.
func (c *Chain) UncategorizedID(ctx context.Context, userID string) (*string, error) {
	var category models.Category
	err := c.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, models.UncategorizedName).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category.ID, nil
}

func (c *Chain) askLLM(ctx context.Context, userID string, in Input, cache *BatchCache) (*string, error) {
	if !cache.loaded {
		var categories []models.Category
		if err := c.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Find(&categories).Error; err != nil {
			return nil, err
		}
		cache.categories = make([]llm.CategoryOption, 0, len(categories))
		for _, cat := range categories {
			cache.categories = append(cache.categories, llm.CategoryOption{ID: cat.ID, Name: cat.Name})
		}
		cache.loaded = true
	}

	id, err := c.llm.Categorize(ctx, llm.CategorizationInput{
		MerchantName:   in.MerchantName,
		Description:    in.Description,
		Amount:         in.Amount,
		Type:           in.Type,
		SourceCategory: in.SourceCategory,
		Categories:     cache.categories,
	})
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return &id, nil
}
