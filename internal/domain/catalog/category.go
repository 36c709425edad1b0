package catalog

import (
	"strings"

	"github.com/tiller/backend/internal/domain/shared"
)

// Category classifies projects, e.g. software development or planning
type Category struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
}

// NewCategory creates a new category
func NewCategory(name, description string) (*Category, error) {
	c := &Category{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := c.Update(name, description); err != nil {
		return nil, err
	}
	c.Version = 1
	return c, nil
}

// Update changes the category's name and description
func (c *Category) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Category name is required")
	}
	if len(name) > 100 {
		return shared.NewDomainError("VALIDATION_ERROR", "Category name cannot exceed 100 characters")
	}
	c.Name = name
	c.Description = strings.TrimSpace(description)
	c.IncrementVersion()
	return nil
}

// ChartColor is the colour used for the category in distribution charts
func (c *Category) ChartColor() string {
	return ChartColorFor(c.Name)
}

// ChartColorFor picks the chart colour for a category name
func ChartColorFor(name string) string {
	if strings.Contains(strings.ToLower(name), "software") {
		return "hsl(173, 80%, 36%)"
	}
	return "hsl(190, 70%, 40%)"
}
