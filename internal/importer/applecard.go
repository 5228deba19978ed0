package importer

import (
	"encoding/csv"
	"fmt"
	"strings"

	apperrors "reckon/internal/errors"
)

// appleCardHeaders is the exact column set of an Apple Card CSV export.
var appleCardHeaders = []string{
	"Transaction Date",
	"Clearing Date",
	"Description",
	"Merchant",
	"Category",
	"Type",
	"Amount (USD)",
	"Purchased By",
}

type appleCardStrategy struct{}

func (appleCardStrategy) Name() string { return "apple_card" }

// CanHandle reports whether the first line contains every known Apple
// Card header.
func (appleCardStrategy) CanHandle(_ string, content string) bool {
	firstLine, _, _ := strings.Cut(content, "\n")
	for _, h := range appleCardHeaders {
		if !strings.Contains(firstLine, h) {
			return false
		}
	}
	return true
}

func (s appleCardStrategy) Parse(content string) (*ParseResult, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnrecognizedFormat, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrUnrecognizedFormat, "empty CSV file")
	}

	// Map header names to column positions so reordered exports still parse.
	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, h := range appleCardHeaders {
		if _, ok := col[h]; !ok {
			return nil, apperrors.WithMessage(apperrors.ErrUnrecognizedFormat,
				fmt.Sprintf("missing column %q", h))
		}
	}

	result := &ParseResult{}
	for i, row := range rows[1:] {
		if len(row) < len(appleCardHeaders) {
			continue
		}
		field := func(name string) string { return strings.TrimSpace(row[col[name]]) }

		amount, err := parseAmount(field("Amount (USD)"))
		if err != nil {
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}

		merchant := field("Merchant")
		if merchant == "" {
			merchant = field("Description")
		}

		result.Records = append(result.Records, NormalizedRecord{
			TransactionDate: field("Transaction Date"),
			ClearingDate:    field("Clearing Date"),
			Description:     field("Description"),
			MerchantName:    merchant,
			Amount:          amount,
			Type:            field("Type"),
			PurchasedBy:     field("Purchased By"),
			SourceCategory:  field("Category"),
		})
	}
	return result, nil
}
