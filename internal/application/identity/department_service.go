package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DepartmentUsage reports whether projects still run under a department
type DepartmentUsage interface {
	ExistsByDepartment(ctx context.Context, departmentID uuid.UUID) (bool, error)
}

// DepartmentService manages departments
type DepartmentService struct {
	deptRepo identity.DepartmentRepository
	usage    DepartmentUsage
	logger   *zap.Logger
}

// NewDepartmentService creates a new department service
func NewDepartmentService(deptRepo identity.DepartmentRepository, usage DepartmentUsage, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{
		deptRepo: deptRepo,
		usage:    usage,
		logger:   logger,
	}
}

var errDepartmentExists = shared.NewDomainError("ALREADY_EXISTS", "A department with this name already exists")

// List returns every department ordered by name
func (s *DepartmentService) List(ctx context.Context, search string) ([]DepartmentResponse, error) {
	depts, err := s.deptRepo.FindAll(ctx, search, 0)
	if err != nil {
		return nil, err
	}
	result := make([]DepartmentResponse, len(depts))
	for i := range depts {
		result[i] = ToDepartmentResponse(&depts[i])
	}
	return result, nil
}

// GetByID returns one department
func (s *DepartmentService) GetByID(ctx context.Context, id uuid.UUID) (*DepartmentResponse, error) {
	dept, err := s.deptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDepartmentResponse(dept)
	return &resp, nil
}

// Create creates a department with a unique name
func (s *DepartmentService) Create(ctx context.Context, req DepartmentRequest) (*DepartmentResponse, error) {
	dept, err := identity.NewDepartment(req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, dept.Name, nil); err != nil {
		return nil, err
	}
	if err := s.deptRepo.Save(ctx, dept); err != nil {
		return nil, err
	}

	s.logger.Info("Department created", zap.String("department_id", dept.ID.String()), zap.String("name", dept.Name))
	resp := ToDepartmentResponse(dept)
	return &resp, nil
}

// Update renames a department
func (s *DepartmentService) Update(ctx context.Context, id uuid.UUID, req DepartmentRequest) (*DepartmentResponse, error) {
	dept, err := s.deptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := dept.Update(req.Name, req.Description); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, dept.Name, &id); err != nil {
		return nil, err
	}
	if err := s.deptRepo.Save(ctx, dept); err != nil {
		return nil, err
	}
	resp := ToDepartmentResponse(dept)
	return &resp, nil
}

// Delete removes a department that no project references
func (s *DepartmentService) Delete(ctx context.Context, id uuid.UUID) error {
	inUse, err := s.usage.ExistsByDepartment(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return shared.NewDomainError("IN_USE", "Department still has projects")
	}
	if err := s.deptRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Department deleted", zap.String("department_id", id.String()))
	return nil
}

func (s *DepartmentService) ensureUnique(ctx context.Context, name string, excludeID *uuid.UUID) error {
	exists, err := s.deptRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return errDepartmentExists
	}
	return nil
}
