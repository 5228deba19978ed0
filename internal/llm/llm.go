// Package llm defines the LLM collaborator consumed by the categorizer
// chain, the PDF import path, and the category-suggestion engine, plus
// its Gemini implementation. Absent configuration (no API key) is a
// valid state in which the collaborator is simply not constructed.
package llm

import "context"

// CategoryOption is one category the model may choose from.
type CategoryOption struct {
	ID   string
	Name string
}

// CategorizationInput describes one transaction to categorize.
type CategorizationInput struct {
	MerchantName   string
	Description    string
	Amount         int64 // cents
	Type           string
	SourceCategory string
	Categories     []CategoryOption
}

// MerchantSummary aggregates a merchant's uncategorized spend for the
// suggestion prompt.
type MerchantSummary struct {
	NormalizedName     string   `json:"normalizedName"`
	TransactionCount   int      `json:"transactionCount"`
	TotalAmount        int64    `json:"totalAmount"`
	SampleDescriptions []string `json:"sampleDescriptions"`
}

// CategorySuggestion is one LLM-proposed category with matching patterns.
type CategorySuggestion struct {
	Name      string   `json:"name"`
	Icon      string   `json:"icon"`
	Color     string   `json:"color"`
	Patterns  []string `json:"patterns"`
	Rationale string   `json:"rationale"`
}

// Strategy is the LLM collaborator surface. Categorize returns the id of
// a category from the provided list, or "" when the model declines or
// answers outside the list.
type Strategy interface {
	Categorize(ctx context.Context, input CategorizationInput) (string, error)
	SuggestCategories(ctx context.Context, merchants []MerchantSummary, existingCategories []string) ([]CategorySuggestion, error)
}
