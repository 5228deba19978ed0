package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reckon/internal/categorize"
	apperrors "reckon/internal/errors"
	"reckon/internal/fingerprint"
	"reckon/internal/models"
	"reckon/internal/pagination"
)

// transactionService handles ledger business logic.
type transactionService struct {
	db    *gorm.DB
	chain *categorize.Chain
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, chain *categorize.Chain) TransactionServicer {
	return &transactionService{db: db, chain: chain}
}

// CreateTransaction records a manually entered transaction. The row gets
// the same fingerprint treatment as imported rows, so a later statement
// import of the same purchase is flagged as a duplicate rather than
// doubled. When no category is given the categorizer chain assigns one.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, input ManualTransactionInput) (*models.Transaction, error) {
	if input.TransactionDate == "" || input.Description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction date and description are required")
	}

	var account models.Account
	err := s.db.Where("id = ? AND user_id = ?", input.AccountID, userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	categoryID := input.CategoryID
	if categoryID != nil {
		var category models.Category
		err := s.db.Where("id = ? AND user_id = ?", *categoryID, userID).First(&category).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	} else {
		categoryID, err = s.chain.Categorize(ctx, userID, categorize.Input{
			MerchantName: input.MerchantName,
			Description:  input.Description,
			Amount:       input.Amount,
			Type:         input.Type,
		}, categorize.NewBatchCache())
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	fp := fingerprint.Generate(input.TransactionDate, input.Description, input.Amount, input.PurchasedBy)

	var count int64
	if err := s.db.Unscoped().Model(&models.Transaction{}).
		Where("user_id = ? AND fingerprint = ?", userID, fp).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateTransaction
	}

	merchantID, err := resolveMerchant(s.db, userID, input.MerchantName, input.Description)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	txn := &models.Transaction{
		UserID:          userID,
		AccountID:       input.AccountID,
		TransactionDate: input.TransactionDate,
		ClearingDate:    input.ClearingDate,
		Description:     input.Description,
		MerchantID:      merchantID,
		CategoryID:      categoryID,
		Type:            input.Type,
		Amount:          input.Amount,
		PurchasedBy:     input.PurchasedBy,
		Fingerprint:     fp,
		Notes:           input.Notes,
		Tags:            input.Tags,
	}
	if txn.Type == "" {
		txn.Type = models.TransactionTypePurchase
	}

	if err := s.db.Create(txn).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txn, nil
}

// GetUserTransactions returns a page of the user's transactions,
// newest first, with optional account, category, and date filters.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	query := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.FromDate != nil {
		query = query.Where("transaction_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("transaction_date <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	err := query.Scopes(pagination.Paginate(page)).
		Preload("Merchant").
		Preload("Category").
		Order("transaction_date DESC, created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(transactions, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetTransactionByID retrieves one of the user's transactions.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).
		Preload("Merchant").
		Preload("Category").
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}

// UpdateTransaction edits a ledger row. The fingerprint is never
// recomputed: it records what the source said, not what the row says now.
func (s *transactionService) UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	txn, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
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
	if update.Notes != nil {
		updates["notes"] = *update.Notes
	}
	if update.Tags != nil {
		updates["tags"] = models.StringList(update.Tags)
	}
	if update.Amount != nil {
		updates["amount"] = *update.Amount
	}
	if len(updates) == 0 {
		return txn, nil
	}

	if err := s.db.Model(txn).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txn, nil
}

// DeleteTransaction soft deletes a ledger row. The fingerprint keeps
// its slot in the unique index, and the duplicate checks query
// unscoped, so an accidental delete-and-reimport flags as a duplicate
// instead of doubling the purchase.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	txn, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(txn).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AutoCategorizeAll re-runs the categorizer chain over the user's
// uncategorized backlog. Rows that resolve past the terminal fallback
// get their category updated; the rest are left alone. One batch cache
// spans the whole sweep, so each merchant hits the LLM at most once.
func (s *transactionService) AutoCategorizeAll(ctx context.Context, userID string) (*SweepResult, error) {
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
	if err := query.Preload("Merchant").Find(&backlog).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &SweepResult{Total: len(backlog)}
	cache := categorize.NewBatchCache()
	for i := range backlog {
		txn := &backlog[i]
		merchantName := txn.Description
		if txn.Merchant != nil {
			merchantName = txn.Merchant.NormalizedName
		}

		categoryID, err := s.chain.Categorize(ctx, userID, categorize.Input{
			MerchantName: merchantName,
			Description:  txn.Description,
			Amount:       txn.Amount,
			Type:         txn.Type,
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

		if err := s.db.Model(txn).Update("category_id", *categoryID).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result.Categorized++
	}
	return result, nil
}
