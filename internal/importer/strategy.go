// Package importer turns raw statement files into normalized transaction
// records. CSV sources are matched by header sniffing among a fixed list
// of strategies; PDF sources are dispatched by file extension and go
// through text extraction plus LLM structuring. Adding a new source
// format means adding a new strategy, not modifying the dispatcher.
package importer

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "reckon/internal/errors"
)

// NormalizedRecord is one transaction as produced by a source parser.
// Amounts are in cents; dates keep their source formatting because the
// fingerprint hashes the exact text.
type NormalizedRecord struct {
	TransactionDate string `json:"transactionDate"`
	ClearingDate    string `json:"clearingDate,omitempty"`
	Description     string `json:"description"`
	MerchantName    string `json:"merchantName"`
	Amount          int64  `json:"amount"`
	Type            string `json:"type"`
	PurchasedBy     string `json:"purchasedBy,omitempty"`
	SourceCategory  string `json:"sourceCategory,omitempty"`
}

// ParseResult carries the parsed records and any per-row failures.
// Row failures never abort the file; they are reported alongside.
type ParseResult struct {
	Records   []NormalizedRecord
	RowErrors []string
}

// Strategy is one source format. CanHandle inspects the filename and raw
// content; Parse converts the whole file.
type Strategy interface {
	Name() string
	CanHandle(filename, content string) bool
	Parse(content string) (*ParseResult, error)
}

// strategies is the fixed priority-ordered list of CSV-capable parsers.
var strategies = []Strategy{
	appleCardStrategy{},
}

// Detect returns the first strategy that can handle the file, or an
// unrecognized-format error when none matches.
func Detect(filename, content string) (Strategy, error) {
	for _, s := range strategies {
		if s.CanHandle(filename, content) {
			return s, nil
		}
	}
	return nil, apperrors.WithMessage(apperrors.ErrUnrecognizedFormat,
		fmt.Sprintf("No import strategy found for file: %s", filename))
}

// parseAmount converts an amount string like "1,234.56" to cents.
func parseAmount(s string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents := f * 100
	if cents < 0 {
		return int64(cents - 0.5), nil
	}
	return int64(cents + 0.5), nil
}
