package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/catalog"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/partner"
	"github.com/tiller/backend/internal/domain/shared"
)

// ProjectRefs are the display names of a project's client, department and category
type ProjectRefs struct {
	Client     string
	Department string
	Category   string
}

// RefResolver looks up and memoises reference names for the duration of one
// request. It is not safe for concurrent use.
type RefResolver struct {
	clientRepo     partner.ClientRepository
	departmentRepo identity.DepartmentRepository
	categoryRepo   catalog.CategoryRepository

	clients     map[uuid.UUID]string
	departments map[uuid.UUID]string
	categories  map[uuid.UUID]string
}

// NewRefResolver creates a RefResolver
func NewRefResolver(
	clientRepo partner.ClientRepository,
	departmentRepo identity.DepartmentRepository,
	categoryRepo catalog.CategoryRepository,
) *RefResolver {
	return &RefResolver{
		clientRepo:     clientRepo,
		departmentRepo: departmentRepo,
		categoryRepo:   categoryRepo,
		clients:        make(map[uuid.UUID]string),
		departments:    make(map[uuid.UUID]string),
		categories:     make(map[uuid.UUID]string),
	}
}

// Resolve returns the names for a project. A reference that no longer exists
// resolves to an empty name.
func (r *RefResolver) Resolve(ctx context.Context, p *billing.Project) (ProjectRefs, error) {
	var refs ProjectRefs
	var err error

	if refs.Client, err = lookup(ctx, r.clients, p.ClientID, func(ctx context.Context, id uuid.UUID) (string, error) {
		c, err := r.clientRepo.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return c.Name, nil
	}); err != nil {
		return ProjectRefs{}, err
	}
	if refs.Department, err = lookup(ctx, r.departments, p.DepartmentID, func(ctx context.Context, id uuid.UUID) (string, error) {
		d, err := r.departmentRepo.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return d.Name, nil
	}); err != nil {
		return ProjectRefs{}, err
	}
	if refs.Category, err = lookup(ctx, r.categories, p.CategoryID, func(ctx context.Context, id uuid.UUID) (string, error) {
		c, err := r.categoryRepo.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return c.Name, nil
	}); err != nil {
		return ProjectRefs{}, err
	}
	return refs, nil
}

func lookup(ctx context.Context, cache map[uuid.UUID]string, id uuid.UUID, find func(context.Context, uuid.UUID) (string, error)) (string, error) {
	if name, ok := cache[id]; ok {
		return name, nil
	}
	name, err := find(ctx, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return "", err
	}
	cache[id] = name
	return name, nil
}
