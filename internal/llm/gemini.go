package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"reckon/internal/importer"
)

// Gemini implements Strategy and importer.TransactionExtractor against
// the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed strategy. Returns an error when the
// client cannot be constructed; callers treat a nil strategy as
// "not configured".
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		// API version v1 is what docs use for current Gemini models.
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// generate sends a single-turn prompt and returns the raw response text.
func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// Categorize asks the model to pick one category from the list and
// resolves the returned name back to its id. Names outside the list
// yield "".
func (g *Gemini) Categorize(ctx context.Context, input CategorizationInput) (string, error) {
	if len(input.Categories) == 0 {
		return "", nil
	}

	var names []string
	for _, c := range input.Categories {
		names = append(names, c.Name)
	}

	var b strings.Builder
	b.WriteString("You are a financial transaction categorizer. Given a transaction, ")
	b.WriteString("return the single most appropriate category from the provided list.\n\n")
	b.WriteString("Available categories:\n")
	b.WriteString(strings.Join(names, "\n"))
	b.WriteString("\n\nRespond with STRICT JSON only, in this exact format: ")
	b.WriteString(`{ "category": "<category name from the list above>" }`)
	b.WriteString("\nOnly use a category name exactly as it appears in the list. ")
	b.WriteString("Do NOT wrap the response in code fences.\n\n")
	b.WriteString("Categorize this transaction:\n")
	fmt.Fprintf(&b, "Merchant: %s\n", input.MerchantName)
	fmt.Fprintf(&b, "Description: %s\n", input.Description)
	fmt.Fprintf(&b, "Amount: $%.2f\n", float64(input.Amount)/100)
	fmt.Fprintf(&b, "Type: %s", input.Type)
	if input.SourceCategory != "" {
		fmt.Fprintf(&b, "\nSource category hint: %s", input.SourceCategory)
	}

	raw, err := g.generate(ctx, b.String())
	if err != nil {
		return "", err
	}

	var parsed struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return "", fmt.Errorf("unmarshal categorize response: %w", err)
	}

	want := strings.ToLower(strings.TrimSpace(parsed.Category))
	if want == "" {
		return "", nil
	}
	for _, c := range input.Categories {
		if strings.ToLower(c.Name) == want {
			return c.ID, nil
		}
	}
	return "", nil
}

// SuggestCategories asks the model for 1-6 new category groupings over
// the uncategorized merchants, excluding existing categories.
func (g *Gemini) SuggestCategories(ctx context.Context, merchants []MerchantSummary, existingCategories []string) ([]CategorySuggestion, error) {
	if len(merchants) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString("You are a financial transaction categorizer helping a user organize their spending.\n\n")
	b.WriteString("You will receive a list of uncategorized merchants. Your job is to suggest new spending categories that would logically group them.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Group related merchants into a single category (e.g. Netflix + Hulu + Spotify -> \"Streaming Services\")\n")
	b.WriteString("- Each category should cover at least one merchant from the list\n")
	b.WriteString("- Suggest 1-6 categories total; avoid over-fragmenting\n")
	b.WriteString("- For \"patterns\", provide short lowercase substrings that uniquely identify each merchant (used for rule matching)\n")
	b.WriteString("- Choose a relevant single emoji for \"icon\" and a hex color for \"color\"\n")
	b.WriteString("- IMPORTANT: Do NOT suggest any category that already exists or is semantically equivalent to an existing one\n")
	if len(existingCategories) > 0 {
		b.WriteString("\nExisting categories (do NOT suggest these or close variants):\n")
		for _, c := range existingCategories {
			b.WriteString("- " + c + "\n")
		}
	}
	b.WriteString("\nRespond with STRICT JSON only (no code fences), in this exact format:\n")
	b.WriteString(`{"suggestions":[{"name":"Category Name","icon":"📺","color":"#6366f1","patterns":["netflix","hulu"],"rationale":"One sentence explaining this grouping"}]}`)
	b.WriteString("\n\nSuggest new categories for these uncategorized merchants:\n")
	for _, m := range merchants {
		fmt.Fprintf(&b, "- %s (%d txn, $%.2f", m.NormalizedName, m.TransactionCount, float64(m.TotalAmount)/100)
		if len(m.SampleDescriptions) > 0 {
			fmt.Fprintf(&b, ", e.g. %q", m.SampleDescriptions[0])
		}
		b.WriteString(")\n")
	}

	raw, err := g.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Suggestions []CategorySuggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal suggestions response: %w", err)
	}
	return parsed.Suggestions, nil
}

// ExtractTransactions structures raw statement text into normalized
// records. Any malformed response is a hard failure for the document.
func (g *Gemini) ExtractTransactions(ctx context.Context, text, institution string) ([]importer.NormalizedRecord, error) {
	var b strings.Builder
	b.WriteString("You are a financial data extractor. Extract all individual transactions from bank statement text.\n\n")
	b.WriteString("Return STRICT JSON only (no code fences) as an object with a \"transactions\" array:\n")
	b.WriteString(`{"transactions":[{"transactionDate":"YYYY-MM-DD","clearingDate":"YYYY-MM-DD or null","description":"full transaction description as shown in statement","merchantName":"clean normalized merchant name","amount":12.34,"type":"Purchase"}]}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- amount: always a positive number regardless of debit/credit\n")
	b.WriteString("- type: \"Purchase\" for charges/debits, \"Payment\" for payments to the account, \"Credit\" for refunds/credits, \"Fee\" for fees, \"Transfer\" for transfers\n")
	b.WriteString("- transactionDate: YYYY-MM-DD format only\n")
	b.WriteString("- merchantName: clean, human-readable (e.g. \"AMZN MKTP US*AB1CD\" -> \"Amazon\")\n")
	b.WriteString("- Include ONLY actual line-item transactions — skip opening/closing balances, interest summaries, account headers, and totals\n\n")
	if institution != "" {
		fmt.Fprintf(&b, "Institution: %s\n", institution)
	}
	b.WriteString("Extract all transactions from this bank statement:\n\n")
	b.WriteString(text)

	raw, err := g.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Transactions []struct {
			TransactionDate string  `json:"transactionDate"`
			ClearingDate    *string `json:"clearingDate"`
			Description     string  `json:"description"`
			MerchantName    string  `json:"merchantName"`
			Amount          float64 `json:"amount"`
			Type            string  `json:"type"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal extraction response: %w", err)
	}
	if parsed.Transactions == nil {
		return nil, fmt.Errorf("extraction response missing transactions array")
	}

	records := make([]importer.NormalizedRecord, 0, len(parsed.Transactions))
	for _, t := range parsed.Transactions {
		amount := t.Amount
		if amount < 0 {
			amount = -amount
		}
		rec := importer.NormalizedRecord{
			TransactionDate: t.TransactionDate,
			Description:     t.Description,
			MerchantName:    t.MerchantName,
			Amount:          int64(amount*100 + 0.5),
			Type:            t.Type,
		}
		if t.ClearingDate != nil {
			rec.ClearingDate = *t.ClearingDate
		}
		records = append(records, rec)
	}
	return records, nil
}

// cleanModelJSON strips Markdown fences when the model ignores the
// no-fence instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
