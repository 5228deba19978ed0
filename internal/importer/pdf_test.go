package importer

import (
	"context"
	"testing"

	"reckon/internal/testutil"
)

type stubExtractor struct {
	records []NormalizedRecord
	err     error
	gotText string
}

func (s *stubExtractor) ExtractTransactions(_ context.Context, text, _ string) ([]NormalizedRecord, error) {
	s.gotText = text
	return s.records, s.err
}

func TestParsePDF(t *testing.T) {
	t.Run("nil_extractor", func(t *testing.T) {
		_, err := ParsePDF(context.Background(), []byte("%PDF-1.4"), nil, "")
		testutil.AssertAppError(t, err, "LLM_NOT_CONFIGURED")
	})

	t.Run("not_a_pdf", func(t *testing.T) {
		_, err := ParsePDF(context.Background(), []byte("plain text, not a pdf"), &stubExtractor{}, "")
		testutil.AssertAppError(t, err, "UNREADABLE_PDF")
	})
}
