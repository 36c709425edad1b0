package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	reportapp "github.com/tiller/backend/internal/application/report"
	"github.com/tiller/backend/internal/domain/report"
)

// SearchService is the part of reportapp.SearchService the handler uses
type SearchService interface {
	Suggestions(ctx context.Context, query string) ([]report.Suggestion, error)
}

// SearchHandler serves the global search box
type SearchHandler struct {
	BaseHandler
	searchService SearchService
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(searchService SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Suggestions godoc
// @Summary      Search suggestions
// @Description  Up to five departments, clients and projects each whose name matches
// @Tags         search
// @Produce      json
// @Param        query query string false "Search text"
// @Success      200 {object} APIResponse[[]report.Suggestion]
// @Security     BearerAuth
// @Router       /search/suggestions [get]
func (h *SearchHandler) Suggestions(c *gin.Context) {
	var q reportapp.SuggestionQuery
	if !h.bindQuery(c, &q) {
		return
	}
	suggestions, err := h.searchService.Suggestions(c.Request.Context(), q.Query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if suggestions == nil {
		suggestions = []report.Suggestion{}
	}
	h.Success(c, suggestions)
}
