package billing

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/catalog"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/partner"
	"github.com/tiller/backend/internal/domain/shared"
)

// MockProjectRepository is a mock implementation of ProjectRepository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Project), args.Error(1)
}

func (m *MockProjectRepository) FindByBillID(ctx context.Context, billID uuid.UUID) (*billing.Project, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Project), args.Error(1)
}

func (m *MockProjectRepository) FindAll(ctx context.Context, filter billing.ProjectFilter) ([]billing.Project, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Project), args.Error(1)
}

func (m *MockProjectRepository) Count(ctx context.Context, filter billing.ProjectFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProjectRepository) FindByClient(ctx context.Context, clientID uuid.UUID) ([]billing.Project, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Project), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, project *billing.Project) error {
	return m.Called(ctx, project).Error(0)
}

func (m *MockProjectRepository) SaveWithLock(ctx context.Context, project *billing.Project) error {
	return m.Called(ctx, project).Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProjectRepository) ExistsByClient(ctx context.Context, clientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, clientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjectRepository) ExistsByDepartment(ctx context.Context, departmentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, departmentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjectRepository) ExistsByCategory(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	args := m.Called(ctx, categoryID)
	return args.Bool(0), args.Error(1)
}

var _ billing.ProjectRepository = (*MockProjectRepository)(nil)

// MockBillQueryRepository is a mock implementation of BillQueryRepository
type MockBillQueryRepository struct {
	mock.Mock
}

func (m *MockBillQueryRepository) FindBills(ctx context.Context, filter billing.BillFilter) ([]billing.BillRow, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.BillRow), args.Error(1)
}

func (m *MockBillQueryRepository) CountBills(ctx context.Context, filter billing.BillFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBillQueryRepository) FindBill(ctx context.Context, billID uuid.UUID) (*billing.BillRow, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.BillRow), args.Error(1)
}

var _ billing.BillQueryRepository = (*MockBillQueryRepository)(nil)

// MockProjectFileRepository is a mock implementation of ProjectFileRepository
type MockProjectFileRepository struct {
	mock.Mock
}

func (m *MockProjectFileRepository) Save(ctx context.Context, file *billing.ProjectFile) error {
	return m.Called(ctx, file).Error(0)
}

func (m *MockProjectFileRepository) FindByID(ctx context.Context, projectID, fileID uuid.UUID) (*billing.ProjectFile, error) {
	args := m.Called(ctx, projectID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ProjectFile), args.Error(1)
}

func (m *MockProjectFileRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]billing.ProjectFile, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.ProjectFile), args.Error(1)
}

func (m *MockProjectFileRepository) Delete(ctx context.Context, projectID, fileID uuid.UUID) error {
	return m.Called(ctx, projectID, fileID).Error(0)
}

var _ billing.ProjectFileRepository = (*MockProjectFileRepository)(nil)

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) FindAll(ctx context.Context, filter partner.ClientFilter) ([]partner.ClientSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.ClientSummary), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client *partner.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockClientRepository) Rank(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

var _ partner.ClientRepository = (*MockClientRepository)(nil)

// MockDepartmentRepository is a mock implementation of DepartmentRepository
type MockDepartmentRepository struct {
	mock.Mock
}

func (m *MockDepartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Department), args.Error(1)
}

func (m *MockDepartmentRepository) FindAll(ctx context.Context, search string, limit int) ([]identity.Department, error) {
	args := m.Called(ctx, search, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Department), args.Error(1)
}

func (m *MockDepartmentRepository) Save(ctx context.Context, dept *identity.Department) error {
	return m.Called(ctx, dept).Error(0)
}

func (m *MockDepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDepartmentRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

var _ identity.DepartmentRepository = (*MockDepartmentRepository)(nil)

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCategoryRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

var _ catalog.CategoryRepository = (*MockCategoryRepository)(nil)

// MockObjectStorage is a mock implementation of ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Put(ctx context.Context, storageKey, contentType string, body io.Reader, size int64) error {
	return m.Called(ctx, storageKey, contentType, body, size).Error(0)
}

func (m *MockObjectStorage) Get(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	args := m.Called(ctx, storageKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	return m.Called(ctx, storageKey).Error(0)
}

// MockDashboardCache is a mock implementation of DashboardCache
type MockDashboardCache struct {
	mock.Mock
}

func (m *MockDashboardCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}
