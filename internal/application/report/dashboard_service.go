package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	billingapp "github.com/tiller/backend/internal/application/billing"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/catalog"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/partner"
	"github.com/tiller/backend/internal/domain/report"
	"go.uber.org/zap"
)

const (
	deadlineLimit     = 5
	lastReceivedLimit = 5
	budgetNameLength  = 15
)

var (
	monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	million     = decimal.NewFromInt(1_000_000)
)

// Cache stores serialised widget results. Get reports whether the key was
// present and decodes it into dest.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// DashboardService computes the dashboard widgets
type DashboardService struct {
	dashboardRepo  report.DashboardRepository
	projectRepo    billing.ProjectRepository
	clientRepo     partner.ClientRepository
	departmentRepo identity.DepartmentRepository
	categoryRepo   catalog.CategoryRepository
	cache          Cache
	logger         *zap.Logger
	now            func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	dashboardRepo report.DashboardRepository,
	projectRepo billing.ProjectRepository,
	clientRepo partner.ClientRepository,
	departmentRepo identity.DepartmentRepository,
	categoryRepo catalog.CategoryRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		dashboardRepo:  dashboardRepo,
		projectRepo:    projectRepo,
		clientRepo:     clientRepo,
		departmentRepo: departmentRepo,
		categoryRepo:   categoryRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// SetCache sets the widget result cache
func (s *DashboardService) SetCache(cache Cache) {
	s.cache = cache
}

// cached serves a widget from the cache when possible. Cache failures are
// logged and the widget is computed from the database.
func cached[T any](ctx context.Context, s *DashboardService, key string, compute func() (T, error)) (T, error) {
	if s.cache != nil {
		var hit T
		ok, err := s.cache.Get(ctx, key, &hit)
		if err != nil {
			s.logger.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return hit, nil
		}
	}

	value, err := compute()
	if err != nil {
		return value, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, value); err != nil {
			s.logger.Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}

// Metrics returns the headline totals
func (s *DashboardService) Metrics(ctx context.Context, q DashboardQuery) (report.Metrics, error) {
	filter := q.toDomain()
	return cached(ctx, s, cacheKey("metrics", filter), func() (report.Metrics, error) {
		return s.dashboardRepo.Metrics(ctx, filter)
	})
}

// Deadlines returns the next unpaid bills due from today
func (s *DashboardService) Deadlines(ctx context.Context, q DashboardQuery) ([]report.Deadline, error) {
	filter := q.toDomain()
	from := startOfDay(s.now())
	key := cacheKey("deadlines", filter, from.Format(time.DateOnly))
	return cached(ctx, s, key, func() ([]report.Deadline, error) {
		deadlines, err := s.dashboardRepo.UpcomingDeadlines(ctx, filter, from, deadlineLimit)
		if deadlines == nil && err == nil {
			deadlines = []report.Deadline{}
		}
		return deadlines, err
	})
}

// Revenue returns the received amount of each month of a year, Jan to Dec.
// The year defaults to the current one.
func (s *DashboardService) Revenue(ctx context.Context, q DashboardQuery) ([]report.MonthlyRevenue, error) {
	filter := q.toDomain()
	year := s.now().Year()
	if q.Year != nil {
		year = *q.Year
	}
	return cached(ctx, s, cacheKey("revenue", filter, yearPart(year)), func() ([]report.MonthlyRevenue, error) {
		byMonth, err := s.dashboardRepo.MonthlyReceived(ctx, filter, year)
		if err != nil {
			return nil, err
		}
		months := make([]report.MonthlyRevenue, len(monthLabels))
		for i, label := range monthLabels {
			received, ok := byMonth[i+1]
			if !ok {
				received = decimal.Zero
			}
			months[i] = report.MonthlyRevenue{Month: label, Received: received}
		}
		return months, nil
	})
}

// RevenueYearly returns the received amount per year, oldest first
func (s *DashboardService) RevenueYearly(ctx context.Context, q DashboardQuery) ([]report.YearlyRevenue, error) {
	filter := q.toDomain()
	return cached(ctx, s, cacheKey("revenue-yearly", filter), func() ([]report.YearlyRevenue, error) {
		years, err := s.dashboardRepo.YearlyReceived(ctx, filter)
		if err != nil {
			return nil, err
		}
		sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })
		if years == nil {
			years = []report.YearlyRevenue{}
		}
		return years, nil
	})
}

// BudgetComparison returns received and remaining value per project, in millions
func (s *DashboardService) BudgetComparison(ctx context.Context, q DashboardQuery) ([]report.BudgetComparison, error) {
	filter := q.toDomain()
	return cached(ctx, s, cacheKey("budget-comparison", filter), func() ([]report.BudgetComparison, error) {
		totals, err := s.dashboardRepo.ProjectTotals(ctx, filter)
		if err != nil {
			return nil, err
		}
		bars := make([]report.BudgetComparison, len(totals))
		for i, t := range totals {
			bars[i] = report.BudgetComparison{
				Name:      truncateName(t.Name, budgetNameLength),
				Received:  t.Received.Div(million).Round(2),
				Remaining: t.TotalValue.Sub(t.Received).Div(million).Round(2),
			}
		}
		return bars, nil
	})
}

// Distribution returns the project count per category
func (s *DashboardService) Distribution(ctx context.Context, q DashboardQuery) ([]report.CategoryShare, error) {
	filter := q.toDomain()
	return cached(ctx, s, cacheKey("distribution", filter), func() ([]report.CategoryShare, error) {
		counts, err := s.dashboardRepo.CategoryCounts(ctx, filter)
		if err != nil {
			return nil, err
		}
		shares := make([]report.CategoryShare, len(counts))
		for i, c := range counts {
			shares[i] = report.CategoryShare{Name: c.Name, Value: c.Count, Color: catalog.ChartColorFor(c.Name)}
		}
		return shares, nil
	})
}

// LastReceived returns the most recently settled bills
func (s *DashboardService) LastReceived(ctx context.Context, q DashboardQuery) ([]report.ReceivedPayment, error) {
	filter := q.toDomain()
	return cached(ctx, s, cacheKey("last-received", filter), func() ([]report.ReceivedPayment, error) {
		payments, err := s.dashboardRepo.LastReceived(ctx, filter, lastReceivedLimit)
		if payments == nil && err == nil {
			payments = []report.ReceivedPayment{}
		}
		return payments, err
	})
}

// Calendar returns the dated events of every filtered project ordered by date
func (s *DashboardService) Calendar(ctx context.Context, q DashboardQuery) ([]report.CalendarEvent, error) {
	filter := q.toDomain()
	return cached(ctx, s, cacheKey("calendar", filter), func() ([]report.CalendarEvent, error) {
		projects, err := s.projectRepo.FindAll(ctx, projectFilter(filter))
		if err != nil {
			return nil, err
		}
		events := []report.CalendarEvent{}
		for i := range projects {
			events = append(events, projectEvents(&projects[i])...)
		}
		sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
		return events, nil
	})
}

// Projects returns the filtered projects with their bills, newest start date first
func (s *DashboardService) Projects(ctx context.Context, q DashboardQuery) ([]billingapp.ProjectResponse, error) {
	filter := q.toDomain()
	now := s.now()
	return cached(ctx, s, cacheKey("projects", filter, now.Format(time.DateOnly)), func() ([]billingapp.ProjectResponse, error) {
		projects, err := s.projectRepo.FindAll(ctx, projectFilter(filter))
		if err != nil {
			return nil, err
		}
		resolver := billingapp.NewRefResolver(s.clientRepo, s.departmentRepo, s.categoryRepo)
		result := make([]billingapp.ProjectResponse, len(projects))
		for i := range projects {
			refs, err := resolver.Resolve(ctx, &projects[i])
			if err != nil {
				return nil, err
			}
			result[i] = billingapp.ToProjectResponse(&projects[i], refs, now)
		}
		return result, nil
	})
}

func projectFilter(f report.DashboardFilter) billing.ProjectFilter {
	filter := billing.ProjectFilter{
		DepartmentID: f.DepartmentID,
		ClientID:     f.ClientID,
		ProjectID:    f.ProjectID,
	}
	filter.Search = f.Search
	return filter
}

func projectEvents(p *billing.Project) []report.CalendarEvent {
	var events []report.CalendarEvent
	if p.StartDate != nil {
		events = append(events, report.CalendarEvent{
			Date:        *p.StartDate,
			Type:        report.CalendarProjectSigned,
			Title:       "Project Signed",
			ProjectName: p.Name,
		})
	}
	if g := p.Guarantee; g != nil && g.Status == billing.GuaranteeStatusCleared && g.ClearanceDate != nil {
		deposit := g.UserDeposit
		events = append(events, report.CalendarEvent{
			Date:        *g.ClearanceDate,
			Type:        report.CalendarGuaranteeCleared,
			Title:       "PG Cleared",
			ProjectName: p.Name,
			Amount:      &deposit,
		})
	}
	for i := range p.Bills {
		b := &p.Bills[i]
		if b.TentativeBillingDate != nil && b.Status != billing.BillStatusPaid {
			amount := b.Amount
			events = append(events, report.CalendarEvent{
				Date:        *b.TentativeBillingDate,
				Type:        report.CalendarTentativePayment,
				Title:       titleOr(b.Name, "Payment Due"),
				ProjectName: p.Name,
				Amount:      &amount,
			})
		}
		if b.ReceivedDate != nil && b.ReceivedAmount.IsPositive() {
			received := b.ReceivedAmount
			events = append(events, report.CalendarEvent{
				Date:        *b.ReceivedDate,
				Type:        report.CalendarReceivedPayment,
				Title:       titleOr(b.Name, "Payment Received"),
				ProjectName: p.Name,
				Amount:      &received,
			})
		}
	}
	return events
}

func titleOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// truncateName shortens a chart label to max runes followed by "..."
func truncateName(name string, max int) string {
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	return string(runes[:max]) + "..."
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
