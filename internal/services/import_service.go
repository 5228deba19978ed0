package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"reckon/internal/categorize"
	apperrors "reckon/internal/errors"
	"reckon/internal/fingerprint"
	"reckon/internal/importer"
	"reckon/internal/logger"
	"reckon/internal/models"
)

// MaxUploadBytes is the statement upload size cap.
const MaxUploadBytes = 10 << 20

// importService handles the statement import pipeline.
type importService struct {
	db        *gorm.DB
	chain     *categorize.Chain
	extractor importer.TransactionExtractor // nil when the LLM is not configured
}

// NewImportService creates a new ImportServicer. extractor may be nil;
// PDF imports then fail with a configuration error while CSV imports
// work normally.
func NewImportService(db *gorm.DB, chain *categorize.Chain, extractor importer.TransactionExtractor) ImportServicer {
	return &importService{db: db, chain: chain, extractor: extractor}
}

// Import parses an uploaded statement into a pending-review staging
// session. Every parsed row is fingerprinted, checked against the user's
// ledger for duplicates, run through the categorizer chain, and staged.
// Row-level failures are collected and reported; they never abort the
// upload. Nothing here touches the ledger.
func (s *importService) Import(ctx context.Context, userID, accountID, filename string, data []byte) (*ImportResult, error) {
	if len(data) == 0 {
		return nil, apperrors.ErrNoFile
	}
	if len(data) > MaxUploadBytes {
		return nil, apperrors.ErrFileTooLarge
	}

	var account models.Account
	err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var (
		parsed     *importer.ParseResult
		sourceType string
	)
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		parsed, err = importer.ParsePDF(ctx, data, s.extractor, account.Institution)
		sourceType = "pdf"
	} else {
		content := string(data)
		var strategy importer.Strategy
		strategy, err = importer.Detect(filename, content)
		if err == nil {
			sourceType = strategy.Name()
			parsed, err = strategy.Parse(content)
		}
	}
	if err != nil {
		return nil, err
	}

	session := &models.ImportSession{
		AccountID:  accountID,
		Filename:   filename,
		RowCount:   len(parsed.Records),
		SourceType: sourceType,
		Status:     models.ImportStatusPendingReview,
	}
	if err := s.db.Create(session).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &ImportResult{
		StagingSessionID: session.ID,
		Errors:           append([]string{}, parsed.RowErrors...),
	}

	cache := categorize.NewBatchCache()
	for i, rec := range parsed.Records {
		if strings.TrimSpace(rec.TransactionDate) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: missing transaction date", i+1))
			continue
		}

		fp := fingerprint.Generate(rec.TransactionDate, rec.Description, rec.Amount, rec.PurchasedBy)

		// Unscoped: soft-deleted rows still hold their slot in the
		// unique index, so they must count as duplicates here too.
		var duplicateOfID *string
		var existing models.Transaction
		err := s.db.Unscoped().Where("user_id = ? AND fingerprint = ?", userID, fp).First(&existing).Error
		if err == nil {
			duplicateOfID = &existing.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}

		categoryID, err := s.chain.Categorize(ctx, userID, categorize.Input{
			MerchantName:   rec.MerchantName,
			Description:    rec.Description,
			Amount:         rec.Amount,
			Type:           rec.Type,
			SourceCategory: rec.SourceCategory,
		}, cache)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}

		staging := &models.StagingTransaction{
			ImportSessionID: session.ID,
			TransactionDate: rec.TransactionDate,
			ClearingDate:    rec.ClearingDate,
			Description:     rec.Description,
			MerchantName:    rec.MerchantName,
			SourceCategory:  rec.SourceCategory,
			Amount:          rec.Amount,
			Type:            rec.Type,
			PurchasedBy:     rec.PurchasedBy,
			Fingerprint:     fp,
			CategoryID:      categoryID,
			IsDuplicate:     duplicateOfID != nil,
			DuplicateOfID:   duplicateOfID,
			// Duplicates stage deselected so a plain commit skips them.
			IsSelected: duplicateOfID == nil,
		}
		if err := s.db.Create(staging).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}

		if duplicateOfID != nil {
			result.DuplicateCount++
		} else {
			result.StagedCount++
		}
	}

	logger.Get().Infow("statement imported to staging",
		"session_id", session.ID,
		"source_type", sourceType,
		"staged", result.StagedCount,
		"duplicates", result.DuplicateCount,
		"errors", len(result.Errors),
	)
	return result, nil
}

// GetSession returns a session with its staging rows and the user's
// categories for the review screen.
func (s *importService) GetSession(userID, sessionID string) (*SessionDetail, error) {
	session, err := s.getOwnedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	var staged []models.StagingTransaction
	err = s.db.Where("import_session_id = ?", session.ID).
		Order("id ASC").
		Find(&staged).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	err = s.db.Where("user_id = ?", userID).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &SessionDetail{Session: *session, Transactions: staged, Categories: categories}, nil
}

// UpdateStagingTransaction edits a staging row during review. The
// fingerprint is never recomputed, even when the amount is corrected:
// it records what the source file said.
func (s *importService) UpdateStagingTransaction(userID, sessionID, stagingID string, update StagingUpdate) (*models.StagingTransaction, error) {
	session, err := s.getOwnedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.ImportStatusCommitted {
		return nil, apperrors.ErrSessionCommitted
	}

	var staging models.StagingTransaction
	err = s.db.Where("id = ? AND import_session_id = ?", stagingID, session.ID).First(&staging).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStagingRowNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{}
	if update.HasCategory {
		if update.CategoryID != nil {
			var category models.Category
			err := s.db.Where("id = ? AND user_id = ?", *update.CategoryID, userID).First(&category).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperrors.ErrCategoryNotFound
				}
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			updates["category_id"] = *update.CategoryID
		} else {
			updates["category_id"] = nil
		}
	}
	if update.IsSelected != nil {
		updates["is_selected"] = *update.IsSelected
	}
	if update.Amount != nil {
		updates["amount"] = *update.Amount
	}
	if len(updates) == 0 {
		return &staging, nil
	}

	if err := s.db.Model(&staging).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &staging, nil
}

// DeleteSession discards a pending session and its staging rows.
func (s *importService) DeleteSession(userID, sessionID string) error {
	session, err := s.getOwnedSession(userID, sessionID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("import_session_id = ?", session.ID).Delete(&models.StagingTransaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(session).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecategorizeSession re-runs the categorizer chain over a pending
// session's uncategorized staging rows, so rules added during review
// take effect before commit. Rows that resolve past the terminal
// fallback get their category updated; the rest are left alone. One
// batch cache spans the pass, as in the ledger sweep.
func (s *importService) RecategorizeSession(ctx context.Context, userID, sessionID string) (*SweepResult, error) {
	session, err := s.getOwnedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.ImportStatusCommitted {
		return nil, apperrors.ErrSessionCommitted
	}

	uncategorizedID, err := s.chain.UncategorizedID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	query := s.db.WithContext(ctx).Where("import_session_id = ?", session.ID)
	if uncategorizedID != nil {
		query = query.Where("category_id IS NULL OR category_id = ?", *uncategorizedID)
	} else {
		query = query.Where("category_id IS NULL")
	}

	var rows []models.StagingTransaction
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &SweepResult{Total: len(rows)}
	cache := categorize.NewBatchCache()
	for i := range rows {
		row := &rows[i]
		categoryID, err := s.chain.Categorize(ctx, userID, categorize.Input{
			MerchantName:   row.MerchantName,
			Description:    row.Description,
			Amount:         row.Amount,
			Type:           row.Type,
			SourceCategory: row.SourceCategory,
		}, cache)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if categoryID == nil {
			continue
		}
		if uncategorizedID != nil && *categoryID == *uncategorizedID {
			continue
		}

		if err := s.db.Model(row).Update("category_id", *categoryID).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result.Categorized++
	}
	return result, nil
}

// Commit promotes the selected staging rows into the ledger. Each row's
// fingerprint is re-checked against the ledger at commit time, plus an
// in-run set catches duplicates within the batch itself; matches are
// skipped, not errors. Per-row failures skip the row and are reported.
// The session flips to committed regardless of row outcomes, so commit
// is not retryable by design.
func (s *importService) Commit(ctx context.Context, userID, sessionID string) (*CommitResult, error) {
	session, err := s.getOwnedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.ImportStatusCommitted {
		return nil, apperrors.ErrSessionCommitted
	}

	var staged []models.StagingTransaction
	err = s.db.Where("import_session_id = ? AND is_selected = ?", session.ID, true).
		Order("id ASC").
		Find(&staged).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &CommitResult{Errors: []string{}}
	seen := make(map[string]bool, len(staged))
	for i := range staged {
		row := &staged[i]

		if seen[row.Fingerprint] {
			result.Skipped++
			continue
		}
		var count int64
		if err := s.db.Unscoped().Model(&models.Transaction{}).
			Where("user_id = ? AND fingerprint = ?", userID, row.Fingerprint).
			Count(&count).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Transaction %q: %v", row.Description, err))
			continue
		}
		if count > 0 {
			result.Skipped++
			continue
		}

		merchantID, err := resolveMerchant(s.db, userID, row.MerchantName, row.Description)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Transaction %q: %v", row.Description, err))
			continue
		}

		txn := &models.Transaction{
			UserID:          userID,
			AccountID:       session.AccountID,
			TransactionDate: row.TransactionDate,
			ClearingDate:    row.ClearingDate,
			Description:     row.Description,
			MerchantID:      merchantID,
			CategoryID:      row.CategoryID,
			Type:            row.Type,
			Amount:          row.Amount,
			PurchasedBy:     row.PurchasedBy,
			SourceFile:      session.Filename,
			Fingerprint:     row.Fingerprint,
			ImportSessionID: &session.ID,
		}
		if err := s.db.Create(txn).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Transaction %q: %v", row.Description, err))
			continue
		}

		seen[row.Fingerprint] = true
		result.Imported++
	}

	if err := s.db.Model(session).Update("status", models.ImportStatusCommitted).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("import session committed",
		"session_id", session.ID,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

// getOwnedSession loads a session and verifies the backing account
// belongs to the user. Sessions reached through someone else's account
// come back as access denied.
func (s *importService) getOwnedSession(userID, sessionID string) (*models.ImportSession, error) {
	var session models.ImportSession
	if err := s.db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := s.db.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", session.AccountID, userID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return nil, apperrors.ErrForbidden
	}
	return &session, nil
}
