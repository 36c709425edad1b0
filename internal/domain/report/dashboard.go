package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardFilter is the filter shared by every dashboard widget
type DashboardFilter struct {
	Search       string
	DepartmentID *uuid.UUID
	ClientID     *uuid.UUID
	ProjectID    *uuid.UUID
}

// Metrics are the headline portfolio figures
type Metrics struct {
	TotalBudget    decimal.Decimal `json:"totalBudget"`
	TotalReceived  decimal.Decimal `json:"totalReceived"`
	TotalRemaining decimal.Decimal `json:"totalRemaining"`
	ActiveCount    int64           `json:"activeCount"`
}

// Deadline is an unpaid bill coming due
type Deadline struct {
	ProjectName string          `json:"projectName"`
	BillName    string          `json:"billName"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"dueDate"`
}

// MonthlyRevenue is the money received in one calendar month
type MonthlyRevenue struct {
	Month    string          `json:"month"`
	Received decimal.Decimal `json:"received"`
}

// YearlyRevenue is the money received in one calendar year
type YearlyRevenue struct {
	Year     int             `json:"year"`
	Received decimal.Decimal `json:"received"`
}

// ProjectTotal is the received amount of a single project
type ProjectTotal struct {
	ProjectID  uuid.UUID
	Name       string
	TotalValue decimal.Decimal
	Received   decimal.Decimal
}

// BudgetComparison is a chart bar, in millions
type BudgetComparison struct {
	Name      string          `json:"name"`
	Received  decimal.Decimal `json:"received"`
	Remaining decimal.Decimal `json:"remaining"`
}

// CategoryCount is the number of projects in a category
type CategoryCount struct {
	Name  string
	Count int64
}

// CategoryShare is a slice of the distribution chart
type CategoryShare struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

// ReceivedPayment is a recently settled bill
type ReceivedPayment struct {
	ProjectName string          `json:"projectName"`
	BillName    string          `json:"billName"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
}

// Calendar event types
const (
	CalendarProjectSigned    = "project_signed"
	CalendarGuaranteeCleared = "pg_cleared"
	CalendarTentativePayment = "tentative_payment"
	CalendarReceivedPayment  = "received_payment"
)

// CalendarEvent is a dated entry on the dashboard calendar
type CalendarEvent struct {
	Date        time.Time        `json:"date"`
	Type        string           `json:"type"`
	Title       string           `json:"title"`
	ProjectName string           `json:"projectName"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

// DashboardRepository serves aggregate queries over projects and bills
type DashboardRepository interface {
	Metrics(ctx context.Context, filter DashboardFilter) (Metrics, error)
	UpcomingDeadlines(ctx context.Context, filter DashboardFilter, from time.Time, limit int) ([]Deadline, error)
	// MonthlyReceived returns received sums of PAID bills keyed by month 1-12
	MonthlyReceived(ctx context.Context, filter DashboardFilter, year int) (map[int]decimal.Decimal, error)
	YearlyReceived(ctx context.Context, filter DashboardFilter) ([]YearlyRevenue, error)
	ProjectTotals(ctx context.Context, filter DashboardFilter) ([]ProjectTotal, error)
	CategoryCounts(ctx context.Context, filter DashboardFilter) ([]CategoryCount, error)
	LastReceived(ctx context.Context, filter DashboardFilter, limit int) ([]ReceivedPayment, error)
}
