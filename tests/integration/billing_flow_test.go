//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	billingapp "github.com/tiller/backend/internal/application/billing"
	catalogapp "github.com/tiller/backend/internal/application/catalog"
	identityapp "github.com/tiller/backend/internal/application/identity"
	partnerapp "github.com/tiller/backend/internal/application/partner"
	reportapp "github.com/tiller/backend/internal/application/report"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/cache"
	"github.com/tiller/backend/internal/infrastructure/event"
	"github.com/tiller/backend/internal/infrastructure/persistence"
	"github.com/tiller/backend/tests/testutil"
	"go.uber.org/zap"
)

type services struct {
	departments *identityapp.DepartmentService
	categories  *catalogapp.CategoryService
	clients     *partnerapp.ClientService
	projects    *billingapp.ProjectService
	bills       *billingapp.BillService
	dashboard   *reportapp.DashboardService
	events      *testutil.MockEventHandler
}

func newServices(t *testing.T, tdb *TestDB) services {
	t.Helper()
	log := zap.NewNop()
	db := tdb.DB

	departmentRepo := persistence.NewGormDepartmentRepository(db)
	categoryRepo := persistence.NewGormCategoryRepository(db)
	clientRepo := persistence.NewGormClientRepository(db)
	projectRepo := persistence.NewGormProjectRepository(db)
	fileRepo := persistence.NewGormProjectFileRepository(db)

	bus := event.NewInMemoryEventBus(log)
	events := testutil.NewMockEventHandler(billing.EventTypeProjectCreated, billing.EventTypePaymentRecorded)
	bus.Subscribe(events, events.EventTypes()...)
	dashboardCache := cache.NewInMemoryDashboardCache(time.Minute)

	projects := billingapp.NewProjectService(projectRepo, clientRepo, departmentRepo, categoryRepo, fileRepo,
		persistence.NewGormTransactionScope(db), log)
	projects.SetEventPublisher(bus)
	projects.SetDashboardCache(dashboardCache)

	bills := billingapp.NewBillService(projectRepo, persistence.NewGormBillQueryRepository(db), log)
	bills.SetEventPublisher(bus)
	bills.SetDashboardCache(dashboardCache)

	dashboard := reportapp.NewDashboardService(persistence.NewGormDashboardRepository(db), projectRepo, clientRepo,
		departmentRepo, categoryRepo, log)
	dashboard.SetCache(dashboardCache)

	return services{
		departments: identityapp.NewDepartmentService(departmentRepo, projectRepo, log),
		categories:  catalogapp.NewCategoryService(categoryRepo, projectRepo, log),
		clients:     partnerapp.NewClientService(clientRepo, projectRepo, departmentRepo, categoryRepo, log),
		projects:    projects,
		bills:       bills,
		dashboard:   dashboard,
		events:      events,
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func createProject(t *testing.T, ctx context.Context, svc services, name string) *billingapp.ProjectResponse {
	t.Helper()
	dept, err := svc.departments.Create(ctx, identityapp.DepartmentRequest{Name: "Engineering " + name})
	require.NoError(t, err)
	cat, err := svc.categories.Create(ctx, catalogapp.CategoryRequest{Name: "Platform " + name})
	require.NoError(t, err)

	project, err := svc.projects.Create(ctx, billingapp.CreateProjectRequest{
		ProjectName:       name,
		TotalProjectValue: decimal.NewFromInt(250000),
		NewClient:         &billingapp.NewClientRequest{Name: "Client of " + name, Email: "billing@example.com"},
		DepartmentID:      dept.ID,
		CategoryID:        cat.ID,
		StartDate:         &billingapp.Date{Time: time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)},
		Bills: []billingapp.BillDraftRequest{
			{BillName: "Advance", BillPercent: dec("20")},
			{BillName: "Delivery", BillAmount: dec("200000")},
		},
	})
	require.NoError(t, err)
	return project
}

func TestBillingFlow_PaymentsUpdateDashboard(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := testutil.ContextWithTimeout(t, time.Minute)

	project := createProject(t, ctx, svc, "Warehouse automation")
	require.Len(t, project.Bills, 2)
	advance := project.Bills[0]
	assert.True(t, advance.BillAmount.Equal(decimal.NewFromInt(50000)), advance.BillAmount.String())

	before, err := svc.dashboard.Metrics(ctx, reportapp.DashboardQuery{})
	require.NoError(t, err)
	assert.True(t, before.TotalReceived.IsZero())

	paid, err := svc.bills.RecordPayment(ctx, advance.ID, billingapp.PaymentRequest{Amount: decimal.NewFromInt(20000)})
	require.NoError(t, err)
	assert.Equal(t, billing.BillStatusPartial, paid.Outcome.Status)
	assert.True(t, paid.Outcome.ReceivedPercent.Equal(decimal.NewFromInt(8)), paid.Outcome.ReceivedPercent.String())

	_, err = svc.bills.RecordPayment(ctx, advance.ID, billingapp.PaymentRequest{Amount: decimal.NewFromInt(40000)})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EXCEEDS_REMAINING", domainErr.Code)

	after, err := svc.dashboard.Metrics(ctx, reportapp.DashboardQuery{})
	require.NoError(t, err)
	assert.True(t, after.TotalReceived.Equal(decimal.NewFromInt(20000)), "cache is invalidated by the payment")
	assert.True(t, after.TotalRemaining.Equal(decimal.NewFromInt(230000)))

	testutil.RequireEventually(t, func() bool { return len(svc.events.Handled()) == 2 }, time.Second)
	assert.Equal(t, []string{billing.EventTypeProjectCreated, billing.EventTypePaymentRecorded}, svc.events.HandledTypes())
}

func TestBillingFlow_ReferencedClientCannotBeDeleted(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := testutil.ContextWithTimeout(t, time.Minute)

	project := createProject(t, ctx, svc, "Data lake")

	err := svc.clients.Delete(ctx, project.Client.ID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "IN_USE", domainErr.Code)

	require.NoError(t, svc.projects.Delete(ctx, project.ID))
	require.NoError(t, svc.clients.Delete(ctx, project.Client.ID))
}

func TestBillingFlow_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := testutil.ContextWithTimeout(t, time.Minute)

	project := createProject(t, ctx, svc, "Mobile banking")
	advance := project.Bills[0]

	var wg sync.WaitGroup
	results := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.bills.RecordPayment(ctx, advance.ID, billingapp.PaymentRequest{Amount: decimal.NewFromInt(30000)})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.GreaterOrEqual(t, succeeded, 1)

	bill, err := svc.bills.GetByID(ctx, advance.ID)
	require.NoError(t, err)
	assert.True(t, bill.ReceivedAmount.LessThanOrEqual(decimal.NewFromInt(50000)), bill.ReceivedAmount.String())
	assert.True(t, bill.ReceivedAmount.Equal(decimal.NewFromInt(30000)), "a second 30000 exceeds the 50000 bill")
}
