package report

import (
	"context"

	"github.com/google/uuid"
)

// Suggestion types
const (
	SuggestionDepartment = "department"
	SuggestionClient     = "client"
	SuggestionProject    = "project"
)

// Suggestion is a typed search hit used by the global search box
type Suggestion struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

// SearchRepository finds entities by name
type SearchRepository interface {
	// Suggest returns up to limit matches of the given type whose name
	// contains query, case-insensitively
	Suggest(ctx context.Context, kind, query string, limit int) ([]Suggestion, error)
}
