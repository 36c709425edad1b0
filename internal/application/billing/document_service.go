package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/catalog"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/partner"
	"github.com/tiller/backend/internal/domain/shared"
)

// Statement is the data printed on a project statement
type Statement struct {
	Project     ProjectResponse
	GeneratedAt time.Time
}

// Receipt is the data printed on a payment receipt
type Receipt struct {
	Number   string
	Bill     BillRowResponse
	IssuedAt time.Time
}

// maxExportRows caps a spreadsheet export
const maxExportRows = 10000

// DocumentService renders project statements, receipts and bill exports
type DocumentService struct {
	projectRepo    billing.ProjectRepository
	billQuery      billing.BillQueryRepository
	clientRepo     partner.ClientRepository
	departmentRepo identity.DepartmentRepository
	categoryRepo   catalog.CategoryRepository
	statements     StatementRenderer
	receipts       ReceiptRenderer
	exporter       BillExporter
	now            func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	projectRepo billing.ProjectRepository,
	billQuery billing.BillQueryRepository,
	clientRepo partner.ClientRepository,
	departmentRepo identity.DepartmentRepository,
	categoryRepo catalog.CategoryRepository,
	statements StatementRenderer,
	receipts ReceiptRenderer,
	exporter BillExporter,
) *DocumentService {
	return &DocumentService{
		projectRepo:    projectRepo,
		billQuery:      billQuery,
		clientRepo:     clientRepo,
		departmentRepo: departmentRepo,
		categoryRepo:   categoryRepo,
		statements:     statements,
		receipts:       receipts,
		exporter:       exporter,
		now:            time.Now,
	}
}

// ProjectStatement renders the statement PDF of a project
func (s *DocumentService) ProjectStatement(ctx context.Context, projectID uuid.UUID) ([]byte, string, error) {
	if s.statements == nil {
		return nil, "", shared.NewDomainError("UNAVAILABLE", "Statement rendering is not configured")
	}
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	refs, err := NewRefResolver(s.clientRepo, s.departmentRepo, s.categoryRepo).Resolve(ctx, project)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	pdf, err := s.statements.RenderStatement(ctx, Statement{
		Project:     ToProjectResponse(project, refs, now),
		GeneratedAt: now,
	})
	if err != nil {
		return nil, "", err
	}
	return pdf, fileSafe(project.Name) + "-statement.pdf", nil
}

// BillReceipt renders the payment receipt of a bill that has received money
func (s *DocumentService) BillReceipt(ctx context.Context, billID uuid.UUID) ([]byte, string, error) {
	row, err := s.billQuery.FindBill(ctx, billID)
	if err != nil {
		return nil, "", err
	}
	if !row.Bill.ReceivedAmount.IsPositive() {
		return nil, "", shared.NewDomainError("VALIDATION_ERROR", "No payment has been received for this bill")
	}

	receipt := Receipt{
		Number:   ReceiptNumber(row.Bill.ID, row.Bill.ReceivedDate),
		Bill:     ToBillRowResponse(*row),
		IssuedAt: s.now(),
	}
	pdf, err := s.receipts.RenderReceipt(receipt)
	if err != nil {
		return nil, "", err
	}
	return pdf, "receipt-" + receipt.Number + ".pdf", nil
}

// ExportBills writes the filtered bill list as an xlsx workbook, ignoring paging
func (s *DocumentService) ExportBills(ctx context.Context, f BillListFilter) ([]byte, string, error) {
	filter := f.toDomain()
	filter.Page = 1
	filter.PageSize = maxExportRows
	rows, err := s.billQuery.FindBills(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	now := s.now()
	data, err := s.exporter.ExportBills(rows, now)
	if err != nil {
		return nil, "", err
	}
	return data, "bills-" + now.Format("20060102") + ".xlsx", nil
}

// ReceiptNumber derives a stable receipt number from the bill and the date
// money was received
func ReceiptNumber(billID uuid.UUID, receivedDate *time.Time) string {
	prefix := "RCPT"
	if receivedDate != nil {
		prefix += "-" + receivedDate.Format("20060102")
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(billID.String()[:8]))
}

func fileSafe(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, name)
	if mapped == "" {
		return "project"
	}
	return mapped
}
