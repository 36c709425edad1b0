package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/catalog"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/partner"
	"github.com/tiller/backend/internal/domain/shared"
	"go.uber.org/zap"
)

type projectServiceFixture struct {
	svc         *ProjectService
	projects    *MockProjectRepository
	clients     *MockClientRepository
	departments *MockDepartmentRepository
	categories  *MockCategoryRepository
	files       *MockProjectFileRepository
	storage     *MockObjectStorage
	cache       *MockDashboardCache
	publisher   *MockEventPublisher
}

func newProjectServiceFixture() *projectServiceFixture {
	f := &projectServiceFixture{
		projects:    new(MockProjectRepository),
		clients:     new(MockClientRepository),
		departments: new(MockDepartmentRepository),
		categories:  new(MockCategoryRepository),
		files:       new(MockProjectFileRepository),
		storage:     new(MockObjectStorage),
		cache:       new(MockDashboardCache),
		publisher:   new(MockEventPublisher),
	}
	f.svc = NewProjectService(f.projects, f.clients, f.departments, f.categories, f.files,
		NewNoOpTransactionScope(f.projects, f.clients), zap.NewNop())
	f.svc.SetDashboardCache(f.cache)
	f.svc.SetEventPublisher(f.publisher)
	f.svc.SetObjectStorage(f.storage)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

// allowRefs makes every reference lookup succeed
func (f *projectServiceFixture) allowRefs() {
	dept, _ := identity.NewDepartment("Water Resources", "")
	cat, _ := catalog.NewCategory("Software Development", "")
	client, _ := partner.NewClient(partner.ClientDetails{Name: "Dhaka WASA"})
	f.departments.On("FindByID", mock.Anything, mock.Anything).Return(dept, nil)
	f.categories.On("FindByID", mock.Anything, mock.Anything).Return(cat, nil)
	f.clients.On("FindByID", mock.Anything, mock.Anything).Return(client, nil)
}

func (f *projectServiceFixture) allowWrites() {
	f.cache.On("Invalidate", mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
}

func TestProjectService_Create_WithNewClient(t *testing.T) {
	ctx := context.Background()
	f := newProjectServiceFixture()
	f.allowRefs()
	f.allowWrites()

	var savedClient *partner.Client
	f.clients.On("Save", ctx, mock.AnythingOfType("*partner.Client")).
		Run(func(args mock.Arguments) { savedClient = args.Get(1).(*partner.Client) }).
		Return(nil)
	f.projects.On("Save", ctx, mock.AnythingOfType("*billing.Project")).Return(nil)

	resp, err := f.svc.Create(ctx, CreateProjectRequest{
		ProjectName:       "Flood Model",
		TotalProjectValue: decimal.NewFromInt(1_000_000),
		NewClient:         &NewClientRequest{Name: "Rajuk", Email: "info@rajuk.gov.bd"},
		DepartmentID:      uuid.New(),
		CategoryID:        uuid.New(),
		Bills: []BillDraftRequest{
			{BillName: "Advance", BillPercent: dec(30)},
			{BillName: "Final", BillAmount: dec(700_000)},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, savedClient)
	assert.Equal(t, savedClient.ID, resp.Client.ID)
	require.Len(t, resp.Bills, 2)
	assert.True(t, resp.Bills[0].BillAmount.Equal(decimal.NewFromInt(300_000)))
	assert.Equal(t, "70", resp.Bills[1].BillPercent.String())
	assert.Equal(t, "PENDING", resp.Bills[0].Status)
	assert.Equal(t, string(billing.AllocationExact), resp.Allocation.State)
	f.cache.AssertCalled(t, "Invalidate", ctx)
}

func TestProjectService_Create_AllocationUnder(t *testing.T) {
	ctx := context.Background()
	f := newProjectServiceFixture()
	f.allowRefs()

	req := CreateProjectRequest{
		ProjectName:       "Flood Model",
		TotalProjectValue: decimal.NewFromInt(1_000_000),
		ClientID:          ptrUUID(uuid.New()),
		DepartmentID:      uuid.New(),
		CategoryID:        uuid.New(),
		Bills:             []BillDraftRequest{{BillName: "Advance", BillPercent: dec(30)}},
	}

	_, err := f.svc.Create(ctx, req)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "ALLOCATION_UNDER", de.Code)
	f.projects.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	t.Run("bypass accepts the same bills", func(t *testing.T) {
		f.allowWrites()
		f.projects.On("Save", ctx, mock.AnythingOfType("*billing.Project")).Return(nil)
		req.BypassAllocationCheck = true
		resp, err := f.svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, string(billing.AllocationUnder), resp.Allocation.State)
	})
}

func TestProjectService_Create_RequiresClient(t *testing.T) {
	f := newProjectServiceFixture()
	f.allowRefs()

	_, err := f.svc.Create(context.Background(), CreateProjectRequest{
		ProjectName:  "Orphan",
		DepartmentID: uuid.New(),
		CategoryID:   uuid.New(),
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_CLIENT", de.Code)
}

func TestProjectService_Create_UnknownDepartment(t *testing.T) {
	f := newProjectServiceFixture()
	f.departments.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)

	_, err := f.svc.Create(context.Background(), CreateProjectRequest{
		ProjectName:  "Orphan",
		ClientID:     ptrUUID(uuid.New()),
		DepartmentID: uuid.New(),
		CategoryID:   uuid.New(),
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_DEPARTMENT", de.Code)
}

func TestProjectService_List_FiltersByEffectiveStatus(t *testing.T) {
	ctx := context.Background()
	f := newProjectServiceFixture()
	f.allowRefs()

	ongoing := newTestProject(t)
	completed := newTestProject(t)
	completed.Bills[0].ReceivedAmount = completed.Bills[0].Amount
	completed.Bills[0].Status = billing.BillStatusPaid

	f.projects.On("FindAll", ctx, mock.MatchedBy(func(pf billing.ProjectFilter) bool {
		return pf.Page == 0 && pf.PageSize == 0
	})).Return([]billing.Project{*ongoing, *completed}, nil)

	items, total, err := f.svc.List(ctx, ProjectListFilter{Status: "COMPLETED", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, completed.ID, items[0].ID)
	assert.Equal(t, "COMPLETED", items[0].EffectiveStatus)
	f.projects.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
}

func TestProjectService_List_Paged(t *testing.T) {
	ctx := context.Background()
	f := newProjectServiceFixture()
	f.allowRefs()
	p := newTestProject(t)

	f.projects.On("FindAll", ctx, mock.MatchedBy(func(pf billing.ProjectFilter) bool {
		return pf.Page == 2 && pf.PageSize == 5 && pf.Search == "flood"
	})).Return([]billing.Project{*p}, nil)
	f.projects.On("Count", ctx, mock.Anything).Return(int64(6), nil)

	items, total, err := f.svc.List(ctx, ProjectListFilter{Search: "flood", Status: "all", Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, items, 1)
	assert.Equal(t, "Dhaka WASA", items[0].Client.Name)
}

func TestProjectService_Update_GuaranteeNullRemoves(t *testing.T) {
	ctx := context.Background()
	f := newProjectServiceFixture()
	f.allowRefs()
	f.allowWrites()

	p := newTestProject(t)
	require.NoError(t, p.AssignGuarantee(billing.GuaranteeInput{Percent: dec(10), BankSharePercent: decimal.NewFromInt(90)}))
	f.projects.On("FindByID", ctx, p.ID).Return(p, nil)
	f.projects.On("SaveWithLock", ctx, p).Return(nil)

	var req UpdateProjectRequest
	require.NoError(t, req.PG.UnmarshalJSON([]byte("null")))
	resp, err := f.svc.Update(ctx, p.ID, req)
	require.NoError(t, err)
	assert.Nil(t, resp.PG)
}

func TestProjectService_Update_ValueRecomputesPercents(t *testing.T) {
	ctx := context.Background()
	f := newProjectServiceFixture()
	f.allowRefs()
	f.allowWrites()

	p := newTestProject(t)
	f.projects.On("FindByID", ctx, p.ID).Return(p, nil)
	f.projects.On("SaveWithLock", ctx, p).Return(nil)

	resp, err := f.svc.Update(ctx, p.ID, UpdateProjectRequest{TotalProjectValue: dec(500_000)})
	require.NoError(t, err)
	assert.Equal(t, "50", resp.Bills[0].BillPercent.String())
	assert.True(t, resp.Bills[0].BillAmount.Equal(decimal.NewFromInt(250_000)))
}

func TestProjectService_ClearGuarantee(t *testing.T) {
	ctx := context.Background()

	t.Run("no guarantee", func(t *testing.T) {
		f := newProjectServiceFixture()
		p := newTestProject(t)
		f.projects.On("FindByID", ctx, p.ID).Return(p, nil)

		_, err := f.svc.ClearGuarantee(ctx, p.ID)
		require.Error(t, err)
		assert.Equal(t, "No Project Guarantee set for this project", err.Error())
	})

	t.Run("clears once", func(t *testing.T) {
		f := newProjectServiceFixture()
		f.allowRefs()
		f.allowWrites()
		p := newTestProject(t)
		require.NoError(t, p.AssignGuarantee(billing.GuaranteeInput{Amount: dec(50_000), BankSharePercent: decimal.NewFromInt(80)}))
		f.projects.On("FindByID", ctx, p.ID).Return(p, nil)
		f.projects.On("SaveWithLock", ctx, p).Return(nil)

		resp, err := f.svc.ClearGuarantee(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, resp.PG)
		assert.Equal(t, "CLEARED", resp.PG.PGStatus)
		require.NotNil(t, resp.PG.PGClearanceDate)

		_, err = f.svc.ClearGuarantee(ctx, p.ID)
		require.Error(t, err)
		assert.Equal(t, "Project Guarantee is already cleared", err.Error())
	})
}

func TestProjectService_Delete_RemovesFileContent(t *testing.T) {
	ctx := context.Background()
	f := newProjectServiceFixture()
	f.allowWrites()
	p := newTestProject(t)
	file := billing.ProjectFile{ID: uuid.New(), ProjectID: p.ID, StorageKey: billing.StorageKey(p.ID, uuid.New())}

	f.projects.On("FindByID", ctx, p.ID).Return(p, nil)
	f.files.On("FindByProject", ctx, p.ID).Return([]billing.ProjectFile{file}, nil)
	f.projects.On("Delete", ctx, p.ID).Return(nil)
	f.storage.On("DeleteObject", ctx, file.StorageKey).Return(nil)

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	f.storage.AssertExpectations(t)
	f.publisher.AssertCalled(t, "Publish", ctx, mock.Anything)
}

func TestProjectService_AddBill(t *testing.T) {
	ctx := context.Background()
	f := newProjectServiceFixture()
	f.allowWrites()
	p := newTestProject(t)
	f.projects.On("FindByID", ctx, p.ID).Return(p, nil)
	f.projects.On("SaveWithLock", ctx, p).Return(nil)

	bill, err := f.svc.AddBill(ctx, p.ID, AddBillRequest{BillDraftRequest: BillDraftRequest{BillName: "Draft Report", BillPercent: dec(50)}})
	require.NoError(t, err)
	assert.True(t, bill.BillAmount.Equal(decimal.NewFromInt(500_000)))
	assert.Len(t, p.Bills, 2)

	_, err = f.svc.AddBill(ctx, p.ID, AddBillRequest{BillDraftRequest: BillDraftRequest{BillName: "Too much", BillPercent: dec(30)}})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "ALLOCATION_OVER", de.Code)
}

func TestPageOf(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, pageOf(items, 2, 2))
	assert.Equal(t, []int{5}, pageOf(items, 3, 2))
	assert.Empty(t, pageOf(items, 4, 2))
	assert.Equal(t, items, pageOf(items, 0, 0))
}

func ptrUUID(id uuid.UUID) *uuid.UUID {
	return &id
}
