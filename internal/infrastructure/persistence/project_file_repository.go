package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProjectFileRepository stores project document metadata
type GormProjectFileRepository struct {
	db *gorm.DB
}

// NewGormProjectFileRepository creates a new GormProjectFileRepository
func NewGormProjectFileRepository(db *gorm.DB) *GormProjectFileRepository {
	return &GormProjectFileRepository{db: db}
}

// Save creates or updates a file record
func (r *GormProjectFileRepository) Save(ctx context.Context, file *billing.ProjectFile) error {
	return r.db.WithContext(ctx).Save(models.ProjectFileModelFromDomain(file)).Error
}

// FindByID finds a file of a project
func (r *GormProjectFileRepository) FindByID(ctx context.Context, projectID, fileID uuid.UUID) (*billing.ProjectFile, error) {
	var model models.ProjectFileModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, fileID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProject lists the files of a project, most recent upload first
func (r *GormProjectFileRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]billing.ProjectFile, error) {
	var fileModels []models.ProjectFileModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("uploaded_at DESC").
		Find(&fileModels).Error; err != nil {
		return nil, err
	}
	files := make([]billing.ProjectFile, len(fileModels))
	for i := range fileModels {
		files[i] = *fileModels[i].ToDomain()
	}
	return files, nil
}

// Delete removes a file record
func (r *GormProjectFileRepository) Delete(ctx context.Context, projectID, fileID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProjectFileModel{}, "project_id = ? AND id = ?", projectID, fileID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormProjectFileRepository implements ProjectFileRepository
var _ billing.ProjectFileRepository = (*GormProjectFileRepository)(nil)
