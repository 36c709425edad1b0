package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/partner"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// clientSummaryRow is the scan target of the client list
type clientSummaryRow struct {
	models.ClientModel
	ProjectCount  int64
	TotalBudget   decimal.Decimal
	TotalReceived decimal.Decimal
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists clients by name with their portfolio totals
func (r *GormClientRepository) FindAll(ctx context.Context, filter partner.ClientFilter) ([]partner.ClientSummary, error) {
	received := r.db.Model(&models.BillModel{}).
		Select("bills.project_id, SUM(bills.received_amount) AS received").
		Group("bills.project_id")

	query := r.db.WithContext(ctx).
		Table("clients").
		Select(`clients.*,
			COUNT(projects.id) AS project_count,
			COALESCE(SUM(projects.total_value), 0) AS total_budget,
			COALESCE(SUM(pr.received), 0) AS total_received`).
		Joins("LEFT JOIN projects ON projects.client_id = clients.id").
		Joins("LEFT JOIN (?) AS pr ON pr.project_id = projects.id", received).
		Group("clients.id")

	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where("(LOWER(clients.name) LIKE ? ESCAPE '\\' OR LOWER(clients.contact_person) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	query = paginate(query, filter.Page, filter.PageSize)
	orderBy := ValidateSortField(filter.OrderBy, ClientSortFields, "clients.name")
	orderDir := "ASC"
	if filter.OrderBy != "" {
		orderDir = ValidateSortOrder(filter.OrderDir)
	}

	var rows []clientSummaryRow
	if err := query.Order(orderBy + " " + orderDir).Scan(&rows).Error; err != nil {
		return nil, err
	}

	summaries := make([]partner.ClientSummary, len(rows))
	for i := range rows {
		summaries[i] = partner.ClientSummary{
			Client:        *rows[i].ToDomain(),
			ProjectCount:  rows[i].ProjectCount,
			TotalBudget:   rows[i].TotalBudget,
			TotalReceived: rows[i].TotalReceived,
		}
	}
	return summaries, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *partner.Client) error {
	if err := r.db.WithContext(ctx).Save(models.ClientModelFromDomain(client)).Error; err != nil {
		return err
	}
	client.MarkStored()
	return nil
}

// Delete removes a client
func (r *GormClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ClientModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Rank is the 1-based position of the client by summed project value.
// Clients with an equal total share the better rank.
func (r *GormClientRepository) Rank(ctx context.Context, id uuid.UUID) (int, error) {
	totals := r.db.Model(&models.ClientModel{}).
		Select("clients.id, COALESCE(SUM(projects.total_value), 0) AS total").
		Joins("LEFT JOIN projects ON projects.client_id = clients.id").
		Group("clients.id")

	var mine struct{ Total decimal.Decimal }
	if err := r.db.WithContext(ctx).Table("(?) AS t", totals).
		Select("t.total").
		Where("t.id = ?", id).
		Scan(&mine).Error; err != nil {
		return 0, err
	}

	var ahead int64
	if err := r.db.WithContext(ctx).Table("(?) AS t", totals).
		Where("t.total > ?", mine.Total).
		Count(&ahead).Error; err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

// Ensure GormClientRepository implements ClientRepository
var _ partner.ClientRepository = (*GormClientRepository)(nil)
