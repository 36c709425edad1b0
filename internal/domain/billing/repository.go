package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/shared"
)

// ProjectFilter defines filtering options for project queries
type ProjectFilter struct {
	shared.Filter
	DepartmentID *uuid.UUID // Filter by department
	CategoryID   *uuid.UUID // Filter by category
	ClientID     *uuid.UUID // Filter by client
	ProjectID    *uuid.UUID // Narrow to a single project
	Year         *int       // Filter by start date year
}

// BillFilter defines filtering options for bill queries
type BillFilter struct {
	shared.Filter
	Status       *BillStatus
	DepartmentID *uuid.UUID
	ClientID     *uuid.UUID
	ProjectID    *uuid.UUID
	Year         *int // Filter by tentative billing date year
}

// BillRow is a bill joined with the names of what it belongs to
type BillRow struct {
	Bill           Bill
	ProjectName    string
	ProjectValue   decimal.Decimal
	ClientID       uuid.UUID
	ClientName     string
	DepartmentID   uuid.UUID
	DepartmentName string
	CategoryID     uuid.UUID
	CategoryName   string
}

// ProjectRepository defines the interface for project persistence. Projects
// are always loaded and saved together with their bills.
type ProjectRepository interface {
	// FindByID finds a project with its bills ordered by tentative billing date
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)

	// FindByBillID finds the project owning a bill
	FindByBillID(ctx context.Context, billID uuid.UUID) (*Project, error)

	// FindAll finds projects with filtering, newest start date first
	FindAll(ctx context.Context, filter ProjectFilter) ([]Project, error)

	// Count counts projects matching the filter
	Count(ctx context.Context, filter ProjectFilter) (int64, error)

	// FindByClient finds every project of a client
	FindByClient(ctx context.Context, clientID uuid.UUID) ([]Project, error)

	// Save creates or updates a project and replaces its bill set
	Save(ctx context.Context, project *Project) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, project *Project) error

	// Delete removes a project with its bills and file records
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByClient, ExistsByDepartment and ExistsByCategory guard deletion
	// of reference data still in use.
	ExistsByClient(ctx context.Context, clientID uuid.UUID) (bool, error)
	ExistsByDepartment(ctx context.Context, departmentID uuid.UUID) (bool, error)
	ExistsByCategory(ctx context.Context, categoryID uuid.UUID) (bool, error)
}

// BillQueryRepository serves the cross-project bill list
type BillQueryRepository interface {
	FindBills(ctx context.Context, filter BillFilter) ([]BillRow, error)
	CountBills(ctx context.Context, filter BillFilter) (int64, error)
	FindBill(ctx context.Context, billID uuid.UUID) (*BillRow, error)
}

// ProjectFileRepository stores project document metadata
type ProjectFileRepository interface {
	Save(ctx context.Context, file *ProjectFile) error
	FindByID(ctx context.Context, projectID, fileID uuid.UUID) (*ProjectFile, error)
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]ProjectFile, error)
	Delete(ctx context.Context, projectID, fileID uuid.UUID) error
}
