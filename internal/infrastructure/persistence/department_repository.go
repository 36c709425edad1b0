package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDepartmentRepository implements DepartmentRepository using GORM
type GormDepartmentRepository struct {
	db *gorm.DB
}

// NewGormDepartmentRepository creates a new GormDepartmentRepository
func NewGormDepartmentRepository(db *gorm.DB) *GormDepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

// FindByID finds a department by its ID
func (r *GormDepartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Department, error) {
	var model models.DepartmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists departments by name. A limit of zero returns every match.
func (r *GormDepartmentRepository) FindAll(ctx context.Context, search string, limit int) ([]identity.Department, error) {
	query := r.db.WithContext(ctx).Model(&models.DepartmentModel{}).Order("name ASC")
	if search != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", containsPattern(search))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var deptModels []models.DepartmentModel
	if err := query.Find(&deptModels).Error; err != nil {
		return nil, err
	}
	depts := make([]identity.Department, len(deptModels))
	for i := range deptModels {
		depts[i] = *deptModels[i].ToDomain()
	}
	return depts, nil
}

// Save creates or updates a department
func (r *GormDepartmentRepository) Save(ctx context.Context, dept *identity.Department) error {
	if err := r.db.WithContext(ctx).Save(models.DepartmentModelFromDomain(dept)).Error; err != nil {
		return err
	}
	dept.MarkStored()
	return nil
}

// Delete removes a department
func (r *GormDepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DepartmentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByName checks for a department with the same name, ignoring case
func (r *GormDepartmentRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	return existsByName(r.db.WithContext(ctx).Model(&models.DepartmentModel{}), name, excludeID)
}

func existsByName(query *gorm.DB, name string, excludeID *uuid.UUID) (bool, error) {
	query = query.Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormDepartmentRepository implements DepartmentRepository
var _ identity.DepartmentRepository = (*GormDepartmentRepository)(nil)
