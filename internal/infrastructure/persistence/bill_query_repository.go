package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const billRowColumns = `bills.*,
	projects.name AS project_name,
	projects.total_value AS project_value,
	projects.client_id AS client_id,
	clients.name AS client_name,
	projects.department_id AS department_id,
	departments.name AS department_name,
	projects.category_id AS category_id,
	categories.name AS category_name`

// GormBillQueryRepository serves the cross-project bill list
type GormBillQueryRepository struct {
	db *gorm.DB
}

// NewGormBillQueryRepository creates a new GormBillQueryRepository
func NewGormBillQueryRepository(db *gorm.DB) *GormBillQueryRepository {
	return &GormBillQueryRepository{db: db}
}

func (r *GormBillQueryRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bills").
		Joins("JOIN projects ON projects.id = bills.project_id").
		Joins("LEFT JOIN clients ON clients.id = projects.client_id").
		Joins("LEFT JOIN departments ON departments.id = projects.department_id").
		Joins("LEFT JOIN categories ON categories.id = projects.category_id")
}

// FindBills lists bills with their project context, earliest billing date first
func (r *GormBillQueryRepository) FindBills(ctx context.Context, filter billing.BillFilter) ([]billing.BillRow, error) {
	var rows []models.BillRowModel
	query := r.applyFilter(r.base(ctx), filter)
	query = paginate(query, filter.Page, filter.PageSize)

	orderBy := ValidateSortField(filter.OrderBy, BillSortFields, "bills.tentative_billing_date")
	orderDir := "ASC"
	if filter.OrderBy != "" {
		orderDir = ValidateSortOrder(filter.OrderDir)
	}

	if err := query.Select(billRowColumns).
		Order(orderBy + " " + orderDir).
		Order("bills.created_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]billing.BillRow, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, nil
}

// CountBills counts bills matching the filter
func (r *GormBillQueryRepository) CountBills(ctx context.Context, filter billing.BillFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.base(ctx), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindBill finds one bill with its project context
func (r *GormBillQueryRepository) FindBill(ctx context.Context, billID uuid.UUID) (*billing.BillRow, error) {
	var rows []models.BillRowModel
	if err := r.base(ctx).
		Select(billRowColumns).
		Where("bills.id = ?", billID).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	row := rows[0].ToDomain()
	return &row, nil
}

func (r *GormBillQueryRepository) applyFilter(query *gorm.DB, filter billing.BillFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where(
			"(LOWER(bills.bill_name) LIKE ? ESCAPE '\\' OR LOWER(projects.name) LIKE ? ESCAPE '\\' OR LOWER(clients.name) LIKE ? ESCAPE '\\')",
			pattern, pattern, pattern)
	}
	if filter.Status != nil {
		query = query.Where("bills.status = ?", *filter.Status)
	}
	if filter.DepartmentID != nil {
		query = query.Where("projects.department_id = ?", *filter.DepartmentID)
	}
	if filter.ClientID != nil {
		query = query.Where("projects.client_id = ?", *filter.ClientID)
	}
	if filter.ProjectID != nil {
		query = query.Where("bills.project_id = ?", *filter.ProjectID)
	}
	if filter.Year != nil {
		from, to := yearRange(*filter.Year)
		query = query.Where("bills.tentative_billing_date >= ? AND bills.tentative_billing_date < ?", from, to)
	}
	return query
}

// Ensure GormBillQueryRepository implements BillQueryRepository
var _ billing.BillQueryRepository = (*GormBillQueryRepository)(nil)
