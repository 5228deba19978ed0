package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "reckon/internal/errors"
	"reckon/internal/services"
)

// ImportHandler handles statement import requests
type ImportHandler struct {
	importService services.ImportServicer
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importService services.ImportServicer) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// UpdateStagingRequest represents a staging-row edit during review.
// category_id must be present to be changed; explicit null clears it.
type UpdateStagingRequest struct {
	CategoryID *string `json:"category_id" binding:"omitempty,uuid"`
	IsSelected *bool   `json:"is_selected"`
	Amount     *int64  `json:"amount" binding:"omitempty,min=0"`
}

// Import accepts a multipart statement upload for an account
func (h *ImportHandler) Import(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID := c.PostForm("account_id")
	if accountID == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "account_id is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.ErrNoFile)
		return
	}
	if fileHeader.Size > services.MaxUploadBytes {
		respondWithError(c, apperrors.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxUploadBytes+1))
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	if len(data) > services.MaxUploadBytes {
		respondWithError(c, apperrors.ErrFileTooLarge)
		return
	}

	result, err := h.importService.Import(c.Request.Context(), userID, accountID, fileHeader.Filename, data)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetSession returns a session with its staging rows for review
func (h *ImportHandler) GetSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	detail, err := h.importService.GetSession(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// UpdateStagingTransaction edits a staging row during review
func (h *ImportHandler) UpdateStagingTransaction(c *gin.Context) {
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
	var req UpdateStagingRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	_, hasCategory := raw["category_id"]

	staging, err := h.importService.UpdateStagingTransaction(userID, c.Param("id"), c.Param("txnId"), services.StagingUpdate{
		CategoryID:  req.CategoryID,
		HasCategory: hasCategory,
		IsSelected:  req.IsSelected,
		Amount:      req.Amount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": staging})
}

// DeleteSession discards a pending session
func (h *ImportHandler) DeleteSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.importService.DeleteSession(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Import session deleted"})
}

// RecategorizeSession re-runs the categorizer over a pending session
func (h *ImportHandler) RecategorizeSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.importService.RecategorizeSession(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Commit promotes the selected staging rows into the ledger
func (h *ImportHandler) Commit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.importService.Commit(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
