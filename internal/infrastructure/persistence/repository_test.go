package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/catalog"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/partner"
	"github.com/tiller/backend/internal/domain/report"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/config"
	"github.com/tiller/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newTestDB opens a migrated SQLite database in a temp dir
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "tiller.db")}
	require.NoError(t, migration.Run(cfg, zap.NewNop()))

	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

type fixture struct {
	department *identity.Department
	category   *catalog.Category
	client     *partner.Client
}

func seedReferences(t *testing.T, db *gorm.DB, clientName string) fixture {
	t.Helper()
	ctx := context.Background()

	dept, err := identity.NewDepartment("Infrastructure "+clientName, "")
	require.NoError(t, err)
	require.NoError(t, NewGormDepartmentRepository(db).Save(ctx, dept))

	cat, err := catalog.NewCategory("Design "+clientName, "")
	require.NoError(t, err)
	require.NoError(t, NewGormCategoryRepository(db).Save(ctx, cat))

	client, err := partner.NewClient(partner.ClientDetails{Name: clientName, ContactEmail: "ops@example.com"})
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Save(ctx, client))

	return fixture{department: dept, category: cat, client: client}
}

func day(year int, month time.Month, d int) *time.Time {
	t := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func openProject(t *testing.T, db *gorm.DB, f fixture, name string, start *time.Time) *billing.Project {
	t.Helper()
	p, err := billing.OpenProject(billing.ProjectInput{
		Name:         name,
		ClientID:     f.client.ID,
		DepartmentID: f.department.ID,
		CategoryID:   f.category.ID,
		StartDate:    start,
		TotalValue:   decimal.NewFromInt(100000),
	}, []billing.BillDraft{
		{Name: "Kickoff", Amount: amount("40000"), TentativeBillingDate: day(2024, time.March, 1)},
		{Name: "Handover", Amount: amount("60000"), TentativeBillingDate: day(2024, time.September, 1)},
	}, billing.StrictAllocation())
	require.NoError(t, err)
	require.NoError(t, NewGormProjectRepository(db).Save(context.Background(), p))
	return p
}

func TestGormProjectRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	f := seedReferences(t, db, "Acme")
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	p := openProject(t, db, f, "Data platform", day(2024, time.January, 10))

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Data platform", found.Name)
	assert.True(t, found.TotalValue.Equal(decimal.NewFromInt(100000)))
	require.Len(t, found.Bills, 2)
	assert.Equal(t, "Kickoff", found.Bills[0].Name)
	assert.Equal(t, "Handover", found.Bills[1].Name)

	owner, err := repo.FindByBillID(ctx, found.Bills[1].ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, owner.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProjectRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	f := seedReferences(t, db, "Acme")
	repo := NewGormProjectRepository(db)
	ctx := context.Background()
	p := openProject(t, db, f, "Portal", day(2024, time.February, 1))

	first, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	_, err = first.RecordPayment(first.Bills[0].ID, decimal.NewFromInt(40000), time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, first))

	_, err = second.RecordPayment(second.Bills[0].ID, decimal.NewFromInt(10000), time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	err = repo.SaveWithLock(ctx, second)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)

	reloaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Bills[0].ReceivedAmount.Equal(decimal.NewFromInt(40000)))
	assert.Equal(t, billing.BillStatusPaid, reloaded.Bills[0].Status)
}

func TestGormProjectRepository_FilterAndUsage(t *testing.T) {
	db := newTestDB(t)
	acme := seedReferences(t, db, "Acme")
	globex := seedReferences(t, db, "Globex")
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	openProject(t, db, acme, "Data platform", day(2023, time.May, 1))
	openProject(t, db, acme, "Mobile app", day(2024, time.May, 1))
	openProject(t, db, globex, "Billing revamp", day(2024, time.June, 1))

	year := 2024
	projects, err := repo.FindAll(ctx, billing.ProjectFilter{Year: &year, Filter: shared.Filter{Page: 1, PageSize: 10}})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Billing revamp", projects[0].Name, "newest start date first")

	count, err := repo.Count(ctx, billing.ProjectFilter{ClientID: &acme.client.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.Count(ctx, billing.ProjectFilter{Filter: shared.Filter{Search: "REVAMP"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	byClient, err := repo.FindByClient(ctx, globex.client.ID)
	require.NoError(t, err)
	assert.Len(t, byClient, 1)

	used, err := repo.ExistsByClient(ctx, acme.client.ID)
	require.NoError(t, err)
	assert.True(t, used)
	used, err = repo.ExistsByDepartment(ctx, globex.department.ID)
	require.NoError(t, err)
	assert.True(t, used)
	used, err = repo.ExistsByCategory(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, used)
}

func TestGormProjectRepository_DeleteRemovesBills(t *testing.T) {
	db := newTestDB(t)
	f := seedReferences(t, db, "Acme")
	repo := NewGormProjectRepository(db)
	ctx := context.Background()
	p := openProject(t, db, f, "Portal", day(2024, time.February, 1))

	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err := repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	count, err := NewGormBillQueryRepository(db).CountBills(ctx, billing.BillFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGormBillQueryRepository_FindBills(t *testing.T) {
	db := newTestDB(t)
	acme := seedReferences(t, db, "Acme")
	globex := seedReferences(t, db, "Globex")
	ctx := context.Background()

	p := openProject(t, db, acme, "Data platform", day(2024, time.January, 1))
	openProject(t, db, globex, "Billing revamp", day(2024, time.June, 1))

	projects := NewGormProjectRepository(db)
	loaded, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	_, err = loaded.RecordPayment(loaded.Bills[0].ID, decimal.NewFromInt(10000), time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, projects.SaveWithLock(ctx, loaded))

	repo := NewGormBillQueryRepository(db)

	rows, err := repo.FindBills(ctx, billing.BillFilter{ClientID: &acme.client.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kickoff", rows[0].Bill.Name)
	assert.Equal(t, "Data platform", rows[0].ProjectName)
	assert.Equal(t, "Acme", rows[0].ClientName)
	assert.Equal(t, acme.department.Name, rows[0].DepartmentName)
	assert.True(t, rows[0].ProjectValue.Equal(decimal.NewFromInt(100000)))

	partial := billing.BillStatusPartial
	count, err := repo.CountBills(ctx, billing.BillFilter{Status: &partial})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountBills(ctx, billing.BillFilter{Filter: shared.Filter{Search: "globex"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	row, err := repo.FindBill(ctx, loaded.Bills[0].ID)
	require.NoError(t, err)
	assert.True(t, row.Bill.ReceivedAmount.Equal(decimal.NewFromInt(10000)))

	_, err = repo.FindBill(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormDashboardRepository_Metrics(t *testing.T) {
	db := newTestDB(t)
	acme := seedReferences(t, db, "Acme")
	globex := seedReferences(t, db, "Globex")
	ctx := context.Background()

	p := openProject(t, db, acme, "Data platform", day(2024, time.January, 1))
	openProject(t, db, globex, "Billing revamp", day(2024, time.June, 1))

	projects := NewGormProjectRepository(db)
	loaded, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	_, err = loaded.RecordPayment(loaded.Bills[0].ID, decimal.NewFromInt(40000), time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, projects.SaveWithLock(ctx, loaded))

	repo := NewGormDashboardRepository(db)

	all, err := repo.Metrics(ctx, report.DashboardFilter{})
	require.NoError(t, err)
	assert.True(t, all.TotalBudget.Equal(decimal.NewFromInt(200000)), all.TotalBudget.String())
	assert.True(t, all.TotalReceived.Equal(decimal.NewFromInt(40000)))
	assert.True(t, all.TotalRemaining.Equal(decimal.NewFromInt(160000)))

	scoped, err := repo.Metrics(ctx, report.DashboardFilter{ClientID: &globex.client.ID})
	require.NoError(t, err)
	assert.True(t, scoped.TotalBudget.Equal(decimal.NewFromInt(100000)))
	assert.True(t, scoped.TotalReceived.IsZero())

	monthly, err := repo.MonthlyReceived(ctx, report.DashboardFilter{}, 2024)
	require.NoError(t, err)
	assert.True(t, monthly[3].Equal(decimal.NewFromInt(40000)))

	deadlines, err := repo.UpcomingDeadlines(ctx, report.DashboardFilter{}, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), 5)
	require.NoError(t, err)
	require.Len(t, deadlines, 2)
	assert.Equal(t, "Handover", deadlines[0].BillName)

	last, err := repo.LastReceived(ctx, report.DashboardFilter{}, 5)
	require.NoError(t, err)
	require.Len(t, last, 1)
}

func TestGormSearchRepository_Suggest(t *testing.T) {
	db := newTestDB(t)
	f := seedReferences(t, db, "Acme")
	openProject(t, db, f, "Acme 100% rollout", day(2024, time.January, 1))
	repo := NewGormSearchRepository(db)
	ctx := context.Background()

	clients, err := repo.Suggest(ctx, report.SuggestionClient, "acm", 5)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme", clients[0].Name)
	assert.Equal(t, report.SuggestionClient, clients[0].Type)

	projects, err := repo.Suggest(ctx, report.SuggestionProject, "100%", 5)
	require.NoError(t, err)
	assert.Len(t, projects, 1, "wildcards are matched literally")

	none, err := repo.Suggest(ctx, "invoice", "acme", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormUserRepository_CountByRole(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	admin, err := identity.NewUser("Root", "root@example.com", "Sup3rSecret!", identity.RoleSuperAdmin)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, admin))

	found, err := repo.FindByEmail(ctx, "ROOT@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, found.ID)

	n, err := repo.CountByRole(ctx, identity.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	exists, err := repo.ExistsByEmail(ctx, "root@example.com", &admin.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}
