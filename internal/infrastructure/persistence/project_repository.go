package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository implements ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

func preloadBills(db *gorm.DB) *gorm.DB {
	return db.Order("bills.tentative_billing_date ASC, bills.created_at ASC")
}

// FindByID finds a project with its bills
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).
		Preload("Bills", preloadBills).
		First(&model, "projects.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBillID finds the project that owns a bill
func (r *GormProjectRepository) FindByBillID(ctx context.Context, billID uuid.UUID) (*billing.Project, error) {
	var model models.ProjectModel
	owner := r.db.Model(&models.BillModel{}).Select("project_id").Where("id = ?", billID)
	if err := r.db.WithContext(ctx).
		Preload("Bills", preloadBills).
		Where("projects.id = (?)", owner).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds projects with filtering, newest start date first
func (r *GormProjectRepository) FindAll(ctx context.Context, filter billing.ProjectFilter) ([]billing.Project, error) {
	var projectModels []models.ProjectModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProjectModel{}), filter)
	query = paginate(query, filter.Page, filter.PageSize)

	orderBy := ValidateSortField(filter.OrderBy, ProjectSortFields, "projects.start_date")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).Order("projects.created_at DESC")

	if err := query.Select("projects.*").Preload("Bills", preloadBills).Find(&projectModels).Error; err != nil {
		return nil, err
	}
	return toProjects(projectModels), nil
}

// Count counts projects matching the filter
func (r *GormProjectRepository) Count(ctx context.Context, filter billing.ProjectFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProjectModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByClient finds every project of a client
func (r *GormProjectRepository) FindByClient(ctx context.Context, clientID uuid.UUID) ([]billing.Project, error) {
	var projectModels []models.ProjectModel
	if err := r.db.WithContext(ctx).
		Preload("Bills", preloadBills).
		Where("client_id = ?", clientID).
		Order("start_date DESC").
		Find(&projectModels).Error; err != nil {
		return nil, err
	}
	return toProjects(projectModels), nil
}

// Save creates or updates a project and replaces its bill set
func (r *GormProjectRepository) Save(ctx context.Context, project *billing.Project) error {
	model := models.ProjectModelFromDomain(project)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return saveBills(tx, project.ID, model.Bills)
	})
	if err != nil {
		return err
	}
	project.MarkStored()
	return nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormProjectRepository) SaveWithLock(ctx context.Context, project *billing.Project) error {
	expected := project.StoredVersion()
	next := project.Version
	if next <= expected {
		next = expected + 1
	}
	now := time.Now()

	model := models.ProjectModelFromDomain(project)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProjectModel{}).
			Where("id = ? AND version = ?", project.ID, expected).
			Updates(map[string]any{
				"name":                  model.Name,
				"client_id":             model.ClientID,
				"department_id":         model.DepartmentID,
				"category_id":           model.CategoryID,
				"start_date":            model.StartDate,
				"end_date":              model.EndDate,
				"total_value":           model.TotalValue,
				"type":                  model.Type,
				"status":                model.Status,
				"pg_percent":            model.PGPercent,
				"pg_amount":             model.PGAmount,
				"pg_bank_share_percent": model.PGBankSharePercent,
				"pg_user_deposit":       model.PGUserDeposit,
				"pg_status":             model.PGStatus,
				"pg_clearance_date":     model.PGClearanceDate,
				"version":               next,
				"updated_at":            now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.ProjectModel{}).Where("id = ?", project.ID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return shared.ErrNotFound
			}
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The project has been modified by another user")
		}
		return saveBills(tx, project.ID, model.Bills)
	})
	if err != nil {
		return err
	}

	project.Version = next
	project.UpdatedAt = now
	project.MarkStored()
	return nil
}

// saveBills deletes bills no longer on the project and upserts the rest
func saveBills(tx *gorm.DB, projectID uuid.UUID, bills []models.BillModel) error {
	ids := make([]uuid.UUID, len(bills))
	for i := range bills {
		ids[i] = bills[i].ID
	}

	stale := tx.Where("project_id = ?", projectID)
	if len(ids) > 0 {
		stale = stale.Where("id NOT IN ?", ids)
	}
	if err := stale.Delete(&models.BillModel{}).Error; err != nil {
		return err
	}

	for i := range bills {
		bills[i].ProjectID = projectID
		if err := tx.Save(&bills[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a project with its bills and file records
func (r *GormProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectFileModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.BillModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ProjectModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ExistsByClient checks whether any project belongs to the client
func (r *GormProjectRepository) ExistsByClient(ctx context.Context, clientID uuid.UUID) (bool, error) {
	return r.exists(ctx, "client_id = ?", clientID)
}

// ExistsByDepartment checks whether any project runs under the department
func (r *GormProjectRepository) ExistsByDepartment(ctx context.Context, departmentID uuid.UUID) (bool, error) {
	return r.exists(ctx, "department_id = ?", departmentID)
}

// ExistsByCategory checks whether any project is filed under the category
func (r *GormProjectRepository) ExistsByCategory(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	return r.exists(ctx, "category_id = ?", categoryID)
}

func (r *GormProjectRepository) exists(ctx context.Context, cond string, arg any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProjectModel{}).Where(cond, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options without pagination or ordering
func (r *GormProjectRepository) applyFilter(query *gorm.DB, filter billing.ProjectFilter) *gorm.DB {
	query = query.Joins("LEFT JOIN clients ON clients.id = projects.client_id")

	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where("(LOWER(projects.name) LIKE ? ESCAPE '\\' OR LOWER(clients.name) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	if filter.DepartmentID != nil {
		query = query.Where("projects.department_id = ?", *filter.DepartmentID)
	}
	if filter.CategoryID != nil {
		query = query.Where("projects.category_id = ?", *filter.CategoryID)
	}
	if filter.ClientID != nil {
		query = query.Where("projects.client_id = ?", *filter.ClientID)
	}
	if filter.ProjectID != nil {
		query = query.Where("projects.id = ?", *filter.ProjectID)
	}
	if filter.Year != nil {
		from, to := yearRange(*filter.Year)
		query = query.Where("projects.start_date >= ? AND projects.start_date < ?", from, to)
	}
	return query
}

// yearRange returns [Jan 1 of year, Jan 1 of year+1) in UTC
func yearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

func toProjects(projectModels []models.ProjectModel) []billing.Project {
	projects := make([]billing.Project, len(projectModels))
	for i := range projectModels {
		projects[i] = *projectModels[i].ToDomain()
	}
	return projects
}

// Ensure GormProjectRepository implements ProjectRepository
var _ billing.ProjectRepository = (*GormProjectRepository)(nil)
