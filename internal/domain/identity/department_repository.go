package identity

import (
	"context"

	"github.com/google/uuid"
)

// DepartmentRepository defines the interface for department persistence
type DepartmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Department, error)
	// FindAll lists departments by name, optionally matching a search term
	FindAll(ctx context.Context, search string, limit int) ([]Department, error)
	Save(ctx context.Context, dept *Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
}
