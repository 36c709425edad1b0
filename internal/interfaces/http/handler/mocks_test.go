package handler

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	billingapp "github.com/tiller/backend/internal/application/billing"
	identityapp "github.com/tiller/backend/internal/application/identity"
	reportapp "github.com/tiller/backend/internal/application/report"
	"github.com/tiller/backend/internal/domain/report"
	"github.com/tiller/backend/internal/infrastructure/auth"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req identityapp.LoginRequest) (*identityapp.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.LoginResponse), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, req identityapp.RefreshRequest) (*identityapp.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context) ([]identityapp.UserResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]identityapp.UserResponse), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, req identityapp.CreateUserRequest) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, req identityapp.UpdateUserRequest) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, actor identityapp.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockUserService) ChangePassword(ctx context.Context, actor identityapp.Actor, id uuid.UUID, req identityapp.ChangePasswordRequest) error {
	return m.Called(ctx, actor, id, req).Error(0)
}

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) List(ctx context.Context, f billingapp.ProjectListFilter) ([]billingapp.ProjectResponse, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]billingapp.ProjectResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockProjectService) GetByID(ctx context.Context, id uuid.UUID) (*billingapp.ProjectResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.ProjectResponse), args.Error(1)
}

func (m *MockProjectService) Create(ctx context.Context, req billingapp.CreateProjectRequest) (*billingapp.ProjectResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.ProjectResponse), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, id uuid.UUID, req billingapp.UpdateProjectRequest) (*billingapp.ProjectResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.ProjectResponse), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProjectService) ClearGuarantee(ctx context.Context, id uuid.UUID) (*billingapp.ProjectResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.ProjectResponse), args.Error(1)
}

func (m *MockProjectService) AddBill(ctx context.Context, projectID uuid.UUID, req billingapp.AddBillRequest) (*billingapp.BillResponse, error) {
	args := m.Called(ctx, projectID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.BillResponse), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) ProjectStatement(ctx context.Context, projectID uuid.UUID) ([]byte, string, error) {
	args := m.Called(ctx, projectID)
	content, _ := args.Get(0).([]byte)
	return content, args.String(1), args.Error(2)
}

func (m *MockDocumentService) BillReceipt(ctx context.Context, billID uuid.UUID) ([]byte, string, error) {
	args := m.Called(ctx, billID)
	content, _ := args.Get(0).([]byte)
	return content, args.String(1), args.Error(2)
}

func (m *MockDocumentService) ExportBills(ctx context.Context, f billingapp.BillListFilter) ([]byte, string, error) {
	args := m.Called(ctx, f)
	content, _ := args.Get(0).([]byte)
	return content, args.String(1), args.Error(2)
}

type MockBillService struct {
	mock.Mock
}

func (m *MockBillService) List(ctx context.Context, f billingapp.BillListFilter) ([]billingapp.BillRowResponse, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]billingapp.BillRowResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockBillService) GetByID(ctx context.Context, id uuid.UUID) (*billingapp.BillRowResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.BillRowResponse), args.Error(1)
}

func (m *MockBillService) Update(ctx context.Context, id uuid.UUID, req billingapp.UpdateBillRequest) (*billingapp.BillResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.BillResponse), args.Error(1)
}

func (m *MockBillService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBillService) PreviewPayment(ctx context.Context, id uuid.UUID, req billingapp.PaymentRequest) (*billingapp.PaymentPreviewResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.PaymentPreviewResponse), args.Error(1)
}

func (m *MockBillService) RecordPayment(ctx context.Context, id uuid.UUID, req billingapp.PaymentRequest) (*billingapp.PaymentResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.PaymentResponse), args.Error(1)
}

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, projectID uuid.UUID, files []billingapp.UploadedFile, titles []string, uploadedBy *uuid.UUID) ([]billingapp.ProjectFileResponse, error) {
	args := m.Called(ctx, projectID, files, titles, uploadedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billingapp.ProjectFileResponse), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, projectID uuid.UUID) ([]billingapp.ProjectFileResponse, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]billingapp.ProjectFileResponse), args.Error(1)
}

func (m *MockFileService) Download(ctx context.Context, projectID, fileID uuid.UUID) (*billingapp.ProjectFileResponse, io.ReadCloser, error) {
	args := m.Called(ctx, projectID, fileID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*billingapp.ProjectFileResponse), args.Get(1).(io.ReadCloser), args.Error(2)
}

func (m *MockFileService) Rename(ctx context.Context, projectID, fileID uuid.UUID, req billingapp.RenameFileRequest) (*billingapp.ProjectFileResponse, error) {
	args := m.Called(ctx, projectID, fileID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.ProjectFileResponse), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, projectID, fileID uuid.UUID) error {
	return m.Called(ctx, projectID, fileID).Error(0)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Metrics(ctx context.Context, q reportapp.DashboardQuery) (report.Metrics, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(report.Metrics), args.Error(1)
}

func (m *MockDashboardService) Deadlines(ctx context.Context, q reportapp.DashboardQuery) ([]report.Deadline, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]report.Deadline), args.Error(1)
}

func (m *MockDashboardService) Revenue(ctx context.Context, q reportapp.DashboardQuery) ([]report.MonthlyRevenue, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]report.MonthlyRevenue), args.Error(1)
}

func (m *MockDashboardService) RevenueYearly(ctx context.Context, q reportapp.DashboardQuery) ([]report.YearlyRevenue, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]report.YearlyRevenue), args.Error(1)
}

func (m *MockDashboardService) BudgetComparison(ctx context.Context, q reportapp.DashboardQuery) ([]report.BudgetComparison, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]report.BudgetComparison), args.Error(1)
}

func (m *MockDashboardService) Distribution(ctx context.Context, q reportapp.DashboardQuery) ([]report.CategoryShare, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]report.CategoryShare), args.Error(1)
}

func (m *MockDashboardService) LastReceived(ctx context.Context, q reportapp.DashboardQuery) ([]report.ReceivedPayment, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]report.ReceivedPayment), args.Error(1)
}

func (m *MockDashboardService) Calendar(ctx context.Context, q reportapp.DashboardQuery) ([]report.CalendarEvent, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]report.CalendarEvent), args.Error(1)
}

func (m *MockDashboardService) Projects(ctx context.Context, q reportapp.DashboardQuery) ([]billingapp.ProjectResponse, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]billingapp.ProjectResponse), args.Error(1)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Suggestions(ctx context.Context, query string) ([]report.Suggestion, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.Suggestion), args.Error(1)
}
