package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/report"
	"gorm.io/gorm"
)

// GormDashboardRepository serves the dashboard aggregates
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// projects starts a query over projects with their client joined
func (r *GormDashboardRepository) projects(ctx context.Context, filter report.DashboardFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("projects").
		Joins("LEFT JOIN clients ON clients.id = projects.client_id")
	return applyDashboardFilter(query, filter)
}

// bills starts a query over bills joined to their project and client
func (r *GormDashboardRepository) bills(ctx context.Context, filter report.DashboardFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("bills").
		Joins("JOIN projects ON projects.id = bills.project_id").
		Joins("LEFT JOIN clients ON clients.id = projects.client_id")
	return applyDashboardFilter(query, filter)
}

func applyDashboardFilter(query *gorm.DB, filter report.DashboardFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where("(LOWER(projects.name) LIKE ? ESCAPE '\\' OR LOWER(clients.name) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	if filter.DepartmentID != nil {
		query = query.Where("projects.department_id = ?", *filter.DepartmentID)
	}
	if filter.ClientID != nil {
		query = query.Where("projects.client_id = ?", *filter.ClientID)
	}
	if filter.ProjectID != nil {
		query = query.Where("projects.id = ?", *filter.ProjectID)
	}
	return query
}

// Metrics sums budget and receipts over the filtered projects
func (r *GormDashboardRepository) Metrics(ctx context.Context, filter report.DashboardFilter) (report.Metrics, error) {
	var budget struct {
		TotalBudget decimal.Decimal
		ActiveCount int64
	}
	if err := r.projects(ctx, filter).
		Select("COALESCE(SUM(projects.total_value), 0) AS total_budget, "+
			"COALESCE(SUM(CASE WHEN projects.status = ? THEN 1 ELSE 0 END), 0) AS active_count",
			billing.ProjectStatusOngoing).
		Scan(&budget).Error; err != nil {
		return report.Metrics{}, err
	}

	var received struct{ TotalReceived decimal.Decimal }
	if err := r.bills(ctx, filter).
		Select("COALESCE(SUM(bills.received_amount), 0) AS total_received").
		Scan(&received).Error; err != nil {
		return report.Metrics{}, err
	}

	return report.Metrics{
		TotalBudget:    budget.TotalBudget,
		TotalReceived:  received.TotalReceived,
		TotalRemaining: budget.TotalBudget.Sub(received.TotalReceived),
		ActiveCount:    budget.ActiveCount,
	}, nil
}

// UpcomingDeadlines returns unpaid bills due on or after from, soonest first
func (r *GormDashboardRepository) UpcomingDeadlines(ctx context.Context, filter report.DashboardFilter, from time.Time, limit int) ([]report.Deadline, error) {
	var rows []struct {
		ProjectName          string
		BillName             string
		BillAmount           decimal.Decimal
		TentativeBillingDate time.Time
	}
	if err := r.bills(ctx, filter).
		Select("projects.name AS project_name, bills.bill_name, bills.bill_amount, bills.tentative_billing_date").
		Where("bills.status <> ?", billing.BillStatusPaid).
		Where("bills.tentative_billing_date >= ?", from).
		Order("bills.tentative_billing_date ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	deadlines := make([]report.Deadline, len(rows))
	for i, row := range rows {
		deadlines[i] = report.Deadline{
			ProjectName: row.ProjectName,
			BillName:    row.BillName,
			Amount:      row.BillAmount,
			DueDate:     row.TentativeBillingDate,
		}
	}
	return deadlines, nil
}

type receiptRow struct {
	ReceivedAmount decimal.Decimal
	ReceivedDate   time.Time
}

func (r *GormDashboardRepository) receipts(ctx context.Context, filter report.DashboardFilter, statuses ...billing.BillStatus) ([]receiptRow, error) {
	var rows []receiptRow
	err := r.bills(ctx, filter).
		Select("bills.received_amount, bills.received_date").
		Where("bills.status IN ?", statuses).
		Where("bills.received_date IS NOT NULL").
		Scan(&rows).Error
	return rows, err
}

// MonthlyReceived groups PAID receipts of a year by month. Dates are bucketed
// in Go so the same query runs on Postgres and SQLite.
func (r *GormDashboardRepository) MonthlyReceived(ctx context.Context, filter report.DashboardFilter, year int) (map[int]decimal.Decimal, error) {
	rows, err := r.receipts(ctx, filter, billing.BillStatusPaid)
	if err != nil {
		return nil, err
	}
	months := make(map[int]decimal.Decimal)
	for _, row := range rows {
		if row.ReceivedDate.Year() != year {
			continue
		}
		m := int(row.ReceivedDate.Month())
		months[m] = months[m].Add(row.ReceivedAmount)
	}
	return months, nil
}

// YearlyReceived sums PAID and PARTIAL receipts per year, oldest first
func (r *GormDashboardRepository) YearlyReceived(ctx context.Context, filter report.DashboardFilter) ([]report.YearlyRevenue, error) {
	rows, err := r.receipts(ctx, filter, billing.BillStatusPaid, billing.BillStatusPartial)
	if err != nil {
		return nil, err
	}
	years := make(map[int]decimal.Decimal)
	for _, row := range rows {
		y := row.ReceivedDate.Year()
		years[y] = years[y].Add(row.ReceivedAmount)
	}

	result := make([]report.YearlyRevenue, 0, len(years))
	for y, total := range years {
		result = append(result, report.YearlyRevenue{Year: y, Received: total})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Year < result[j].Year })
	return result, nil
}

// ProjectTotals returns value and received sum per project, by name
func (r *GormDashboardRepository) ProjectTotals(ctx context.Context, filter report.DashboardFilter) ([]report.ProjectTotal, error) {
	var rows []struct {
		ID         uuid.UUID
		Name       string
		TotalValue decimal.Decimal
		Received   decimal.Decimal
	}
	if err := r.projects(ctx, filter).
		Select("projects.id, projects.name, projects.total_value, COALESCE(SUM(bills.received_amount), 0) AS received").
		Joins("LEFT JOIN bills ON bills.project_id = projects.id").
		Group("projects.id, projects.name, projects.total_value").
		Order("projects.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]report.ProjectTotal, len(rows))
	for i, row := range rows {
		totals[i] = report.ProjectTotal{
			ProjectID:  row.ID,
			Name:       row.Name,
			TotalValue: row.TotalValue,
			Received:   row.Received,
		}
	}
	return totals, nil
}

// CategoryCounts counts the filtered projects per category
func (r *GormDashboardRepository) CategoryCounts(ctx context.Context, filter report.DashboardFilter) ([]report.CategoryCount, error) {
	var rows []report.CategoryCount
	if err := r.projects(ctx, filter).
		Select("categories.name AS name, COUNT(projects.id) AS count").
		Joins("JOIN categories ON categories.id = projects.category_id").
		Group("categories.name").
		Order("categories.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LastReceived returns the most recently settled bills
func (r *GormDashboardRepository) LastReceived(ctx context.Context, filter report.DashboardFilter, limit int) ([]report.ReceivedPayment, error) {
	var rows []struct {
		ProjectName    string
		BillName       string
		ReceivedAmount decimal.Decimal
		ReceivedDate   time.Time
	}
	if err := r.bills(ctx, filter).
		Select("projects.name AS project_name, bills.bill_name, bills.received_amount, bills.received_date").
		Where("bills.status = ?", billing.BillStatusPaid).
		Where("bills.received_amount > 0").
		Where("bills.received_date IS NOT NULL").
		Order("bills.received_date DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	payments := make([]report.ReceivedPayment, len(rows))
	for i, row := range rows {
		payments[i] = report.ReceivedPayment{
			ProjectName: row.ProjectName,
			BillName:    row.BillName,
			Amount:      row.ReceivedAmount,
			Date:        row.ReceivedDate,
		}
	}
	return payments, nil
}

// Ensure GormDashboardRepository implements DashboardRepository
var _ report.DashboardRepository = (*GormDashboardRepository)(nil)
