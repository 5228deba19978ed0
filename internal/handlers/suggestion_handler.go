package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "reckon/internal/errors"
	"reckon/internal/llm"
	"reckon/internal/services"
)

// SuggestionHandler handles category-suggestion requests
type SuggestionHandler struct {
	suggestionService services.SuggestionServicer
}

// NewSuggestionHandler creates a new SuggestionHandler
func NewSuggestionHandler(suggestionService services.SuggestionServicer) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: suggestionService}
}

// ApplySuggestionsRequest carries the user-approved suggestions
type ApplySuggestionsRequest struct {
	Suggestions []llm.CategorySuggestion `json:"suggestions" binding:"required"`
}

// Suggest generates category suggestions for the uncategorized backlog
func (h *SuggestionHandler) Suggest(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	suggestions, err := h.suggestionService.Suggest(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// Apply creates categories and rules from approved suggestions
func (h *SuggestionHandler) Apply(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ApplySuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.suggestionService.Apply(c.Request.Context(), userID, req.Suggestions)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
