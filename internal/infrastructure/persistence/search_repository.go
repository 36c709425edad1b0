package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/report"
	"gorm.io/gorm"
)

var suggestionTables = map[string]string{
	report.SuggestionDepartment: "departments",
	report.SuggestionClient:     "clients",
	report.SuggestionProject:    "projects",
}

// GormSearchRepository implements SearchRepository using GORM
type GormSearchRepository struct {
	db *gorm.DB
}

// NewGormSearchRepository creates a new GormSearchRepository
func NewGormSearchRepository(db *gorm.DB) *GormSearchRepository {
	return &GormSearchRepository{db: db}
}

// Suggest finds up to limit names of one kind containing query
func (r *GormSearchRepository) Suggest(ctx context.Context, kind, query string, limit int) ([]report.Suggestion, error) {
	table, ok := suggestionTables[kind]
	if !ok || query == "" {
		return []report.Suggestion{}, nil
	}

	var rows []struct {
		ID   uuid.UUID
		Name string
	}
	if err := r.db.WithContext(ctx).
		Table(table).
		Select("id, name").
		Where("LOWER(name) LIKE ? ESCAPE '\\'", containsPattern(query)).
		Order("name ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	suggestions := make([]report.Suggestion, len(rows))
	for i, row := range rows {
		suggestions[i] = report.Suggestion{ID: row.ID, Name: row.Name, Type: kind}
	}
	return suggestions, nil
}

// Ensure GormSearchRepository implements SearchRepository
var _ report.SearchRepository = (*GormSearchRepository)(nil)
