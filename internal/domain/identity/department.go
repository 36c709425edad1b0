package identity

import (
	"strings"

	"github.com/tiller/backend/internal/domain/shared"
)

// Department is an organisational unit that runs projects
type Department struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
}

// NewDepartment creates a new department
func NewDepartment(name, description string) (*Department, error) {
	d := &Department{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := d.Update(name, description); err != nil {
		return nil, err
	}
	d.Version = 1
	return d, nil
}

// Update renames the department
func (d *Department) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Department name is required")
	}
	if len(name) > 100 {
		return shared.NewDomainError("VALIDATION_ERROR", "Department name cannot exceed 100 characters")
	}
	d.Name = name
	d.Description = strings.TrimSpace(description)
	d.IncrementVersion()
	return nil
}
