package services

import (
	"context"

	"reckon/internal/llm"
	"reckon/internal/models"
	"reckon/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name string, accountType models.AccountType, institution, lastFour, color string) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, name, institution, lastFour, color string) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
}

// CategoryNode is a category with its children attached, as returned by
// the explicit two-pass tree build.
type CategoryNode struct {
	models.Category
	Children []*CategoryNode `json:"children"`
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, parentID *string, color, icon string, sortOrder int) (*models.Category, error)
	GetUserCategories(userID string) ([]models.Category, error)
	GetCategoryTree(userID string) ([]*CategoryNode, error)
	UpdateCategory(userID, categoryID string, name, color, icon string, parentID *string, sortOrder *int) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// RuleServicer defines the contract for merchant-rule business logic.
type RuleServicer interface {
	CreateRule(userID, pattern, categoryID string, priority int) (*models.MerchantRule, error)
	GetUserRules(userID string) ([]models.MerchantRule, error)
	DeleteRule(userID, ruleID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	AccountID  *string
	CategoryID *string
	FromDate   *string
	ToDate     *string
}

// ManualTransactionInput is a manually entered ledger row.
type ManualTransactionInput struct {
	AccountID       string
	TransactionDate string
	ClearingDate    string
	Description     string
	MerchantName    string
	CategoryID      *string
	Type            string
	Amount          int64
	PurchasedBy     string
	Notes           string
	Tags            []string
}

// TransactionUpdate holds the editable fields of a ledger row.
type TransactionUpdate struct {
	CategoryID  *string
	HasCategory bool // distinguishes "clear category" from "leave alone"
	Notes       *string
	Tags        []string
	Amount      *int64
}

// SweepResult reports an auto-categorize pass over the backlog.
type SweepResult struct {
	Categorized int `json:"categorized"`
	Total       int `json:"total"`
}

// TransactionServicer defines the contract for ledger business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID string, input ManualTransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	AutoCategorizeAll(ctx context.Context, userID string) (*SweepResult, error)
}

// ImportResult reports one statement upload.
type ImportResult struct {
	StagingSessionID string   `json:"staging_session_id"`
	StagedCount      int      `json:"staged_count"`
	DuplicateCount   int      `json:"duplicate_count"`
	Errors           []string `json:"errors"`
}

// CommitResult reports one commit run.
type CommitResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// SessionDetail is an import session with its staging rows and the
// user's categories for the review UI.
type SessionDetail struct {
	Session      models.ImportSession        `json:"session"`
	Transactions []models.StagingTransaction `json:"transactions"`
	Categories   []models.Category           `json:"categories"`
}

// StagingUpdate holds the fields a user may edit during review.
type StagingUpdate struct {
	CategoryID  *string
	HasCategory bool
	IsSelected  *bool
	Amount      *int64
}

// ImportServicer defines the contract for the import pipeline: staging,
// review, and the one-way commit into the ledger.
type ImportServicer interface {
	Import(ctx context.Context, userID, accountID, filename string, data []byte) (*ImportResult, error)
	GetSession(userID, sessionID string) (*SessionDetail, error)
	UpdateStagingTransaction(userID, sessionID, stagingID string, update StagingUpdate) (*models.StagingTransaction, error)
	DeleteSession(userID, sessionID string) error
	RecategorizeSession(ctx context.Context, userID, sessionID string) (*SweepResult, error)
	Commit(ctx context.Context, userID, sessionID string) (*CommitResult, error)
}

// ApplyResult reports an apply-suggestions run.
type ApplyResult struct {
	Created     int `json:"created"`
	Categorized int `json:"categorized"`
}

// SuggestionServicer defines the contract for the category-suggestion engine.
type SuggestionServicer interface {
	Suggest(ctx context.Context, userID string) ([]llm.CategorySuggestion, error)
	Apply(ctx context.Context, userID string, approved []llm.CategorySuggestion) (*ApplyResult, error)
}
