package report

import (
	"context"
	"strings"

	"github.com/tiller/backend/internal/domain/report"
	"go.uber.org/zap"
)

const suggestionsPerKind = 5

var suggestionKinds = []string{
	report.SuggestionDepartment,
	report.SuggestionClient,
	report.SuggestionProject,
}

// SearchService serves the global search box
type SearchService struct {
	searchRepo report.SearchRepository
	logger     *zap.Logger
}

// NewSearchService creates a new search service
func NewSearchService(searchRepo report.SearchRepository, logger *zap.Logger) *SearchService {
	return &SearchService{searchRepo: searchRepo, logger: logger}
}

// Suggestions returns up to five departments, clients and projects whose
// name contains the query. A blank query matches nothing.
func (s *SearchService) Suggestions(ctx context.Context, query string) ([]report.Suggestion, error) {
	query = strings.TrimSpace(query)
	result := []report.Suggestion{}
	if query == "" {
		return result, nil
	}
	for _, kind := range suggestionKinds {
		hits, err := s.searchRepo.Suggest(ctx, kind, query, suggestionsPerKind)
		if err != nil {
			s.logger.Error("Suggestion lookup failed", zap.String("kind", kind), zap.Error(err))
			return nil, err
		}
		result = append(result, hits...)
	}
	return result, nil
}
