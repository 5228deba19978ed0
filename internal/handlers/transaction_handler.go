package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "reckon/internal/errors"
	"reckon/internal/pagination"
	"reckon/internal/services"
)

// TransactionHandler handles ledger requests
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents a manually entered transaction
type CreateTransactionRequest struct {
	AccountID       string   `json:"account_id" binding:"required,uuid"`
	TransactionDate string   `json:"transaction_date" binding:"required,max=32"`
	ClearingDate    string   `json:"clearing_date" binding:"max=32"`
	Description     string   `json:"description" binding:"required,max=512"`
	MerchantName    string   `json:"merchant_name" binding:"max=255"`
	CategoryID      *string  `json:"category_id" binding:"omitempty,uuid"`
	Type            string   `json:"type" binding:"omitempty,transaction_type"`
	Amount          int64    `json:"amount" binding:"required,min=0"`
	PurchasedBy     string   `json:"purchased_by" binding:"max=255"`
	Notes           string   `json:"notes" binding:"max=2048"`
	Tags            []string `json:"tags"`
}

// UpdateTransactionRequest represents the editable fields of a transaction.
// category_id must be present to be changed; explicit null clears it.
type UpdateTransactionRequest struct {
	CategoryID *string  `json:"category_id" binding:"omitempty,uuid"`
	Notes      *string  `json:"notes" binding:"omitempty,max=2048"`
	Tags       []string `json:"tags"`
	Amount     *int64   `json:"amount" binding:"omitempty,min=0"`
}

// TransactionListQuery holds list filters alongside pagination
type TransactionListQuery struct {
	pagination.PageRequest
	AccountID  *string `form:"account_id" binding:"omitempty,uuid"`
	CategoryID *string `form:"category_id" binding:"omitempty,uuid"`
	FromDate   *string `form:"from_date"`
	ToDate     *string `form:"to_date"`
}

// CreateTransaction records a manual transaction
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	txn, err := h.transactionService.CreateTransaction(c.Request.Context(), userID, services.ManualTransactionInput{
		AccountID:       req.AccountID,
		TransactionDate: req.TransactionDate,
		ClearingDate:    req.ClearingDate,
		Description:     req.Description,
		MerchantName:    req.MerchantName,
		CategoryID:      req.CategoryID,
		Type:            req.Type,
		Amount:          req.Amount,
		PurchasedBy:     req.PurchasedBy,
		Notes:           req.Notes,
		Tags:            req.Tags,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

// GetTransactions lists the user's transactions
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query TransactionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.transactionService.GetUserTransactions(userID, query.PageRequest, services.TransactionFilter{
		AccountID:  query.AccountID,
		CategoryID: query.CategoryID,
		FromDate:   query.FromDate,
		ToDate:     query.ToDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetTransaction returns one transaction
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.GetTransactionByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// UpdateTransaction edits a transaction
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var raw map[string]interface{}
	if err := c.ShouldBindBodyWithJSON(&raw); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var req UpdateTransactionRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	_, hasCategory := raw["category_id"]

	txn, err := h.transactionService.UpdateTransaction(userID, c.Param("id"), services.TransactionUpdate{
		CategoryID:  req.CategoryID,
		HasCategory: hasCategory,
		Notes:       req.Notes,
		Tags:        req.Tags,
		Amount:      req.Amount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// DeleteTransaction deletes a transaction
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// AutoCategorize re-runs the categorizer over the uncategorized backlog
func (h *TransactionHandler) AutoCategorize(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.AutoCategorizeAll(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
