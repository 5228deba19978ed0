package importer

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"

	apperrors "reckon/internal/errors"
)

const (
	// Below this character count the PDF is likely a scanned image
	// rather than digital text.
	minExtractableTextLength = 100

	// Prevent runaway token usage; most statements fit well within this.
	maxTextChars = 80_000
)

// TransactionExtractor structures raw statement text into transactions.
// Implemented by the LLM collaborator; faked in tests.
type TransactionExtractor interface {
	ExtractTransactions(ctx context.Context, text, institution string) ([]NormalizedRecord, error)
}

// ExtractPDFText pulls plain text out of a digitally-generated PDF.
// Scanned (image-only) PDFs yield little or no text and are rejected by
// ParsePDF's legibility check rather than here.
func ExtractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParsePDF parses a PDF statement: extract text, fail fast on scanned
// documents, truncate to the character budget, and hand the text plus an
// institution hint to the extractor. A malformed extractor response is a
// hard failure for the document, never a zero-row success.
func ParsePDF(ctx context.Context, data []byte, extractor TransactionExtractor, institution string) (*ParseResult, error) {
	if extractor == nil {
		return nil, apperrors.ErrLLMNotConfigured
	}

	text, err := ExtractPDFText(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnreadablePDF, err)
	}

	if len(strings.TrimSpace(text)) < minExtractableTextLength {
		return nil, apperrors.ErrUnreadablePDF
	}

	if len(text) > maxTextChars {
		text = text[:maxTextChars]
	}

	records, err := extractor.ExtractTransactions(ctx, text, institution)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExtractionFailed, err)
	}

	for i := range records {
		if records[i].MerchantName == "" {
			records[i].MerchantName = records[i].Description
		}
		if records[i].Type == "" {
			records[i].Type = "Purchase"
		}
		if records[i].Amount < 0 {
			records[i].Amount = -records[i].Amount
		}
	}
	return &ParseResult{Records: records}, nil
}
