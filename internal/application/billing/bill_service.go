package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BillService handles milestone edits and payments. Every change goes
// through the owning project so percentages always use its current value.
type BillService struct {
	projectRepo billing.ProjectRepository
	billQuery   billing.BillQueryRepository
	hooks       *writeHooks
	logger      *zap.Logger
	now         func() time.Time
}

// NewBillService creates a new BillService
func NewBillService(
	projectRepo billing.ProjectRepository,
	billQuery billing.BillQueryRepository,
	logger *zap.Logger,
) *BillService {
	return &BillService{
		projectRepo: projectRepo,
		billQuery:   billQuery,
		hooks:       &writeHooks{logger: logger},
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the publisher for billing events
func (s *BillService) SetEventPublisher(publisher shared.EventPublisher) {
	s.hooks.publisher = publisher
}

// SetDashboardCache sets the cache invalidated by bill writes
func (s *BillService) SetDashboardCache(cache DashboardCache) {
	s.hooks.cache = cache
}

// List returns bills across projects, earliest billing date first
func (s *BillService) List(ctx context.Context, f BillListFilter) ([]BillRowResponse, int64, error) {
	filter := f.toDomain()
	rows, err := s.billQuery.FindBills(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.billQuery.CountBills(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]BillRowResponse, len(rows))
	for i := range rows {
		responses[i] = ToBillRowResponse(rows[i])
	}
	return responses, total, nil
}

// GetByID returns a bill with its project context
func (s *BillService) GetByID(ctx context.Context, id uuid.UUID) (*BillRowResponse, error) {
	row, err := s.billQuery.FindBill(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBillRowResponse(*row)
	return &resp, nil
}

// Update applies a partial bill edit
func (s *BillService) Update(ctx context.Context, id uuid.UUID, req UpdateBillRequest) (*BillResponse, error) {
	project, err := s.projectRepo.FindByBillID(ctx, id)
	if err != nil {
		return nil, err
	}
	bill, err := project.UpdateBill(id, req.toPatch(), req.BypassAllocationCheck)
	if err != nil {
		return nil, err
	}
	resp := ToBillResponse(bill, project.TotalValue)

	if err := s.projectRepo.SaveWithLock(ctx, project); err != nil {
		return nil, err
	}
	s.hooks.committed(ctx, project)
	return &resp, nil
}

// Delete removes a bill from its project
func (s *BillService) Delete(ctx context.Context, id uuid.UUID) error {
	project, err := s.projectRepo.FindByBillID(ctx, id)
	if err != nil {
		return err
	}
	if err := project.RemoveBill(id); err != nil {
		return err
	}
	if err := s.projectRepo.SaveWithLock(ctx, project); err != nil {
		return err
	}
	s.hooks.committed(ctx, project)
	return nil
}

// PreviewPayment shows the effect of a payment without saving anything. It
// runs the same derivation as RecordPayment, so an amount that confirmation
// would reject is rejected here with the same error.
func (s *BillService) PreviewPayment(ctx context.Context, id uuid.UUID, req PaymentRequest) (*PaymentPreviewResponse, error) {
	project, err := s.projectRepo.FindByBillID(ctx, id)
	if err != nil {
		return nil, err
	}
	outcome, err := project.PreviewPayment(id, req.Amount, s.receivedDate(req))
	if err != nil {
		return nil, err
	}
	return &PaymentPreviewResponse{
		Amount:  req.Amount,
		Outcome: ToPaymentOutcomeResponse(outcome),
	}, nil
}

// RecordPayment applies a payment. Invalid amounts are rejected without
// touching the bill.
func (s *BillService) RecordPayment(ctx context.Context, id uuid.UUID, req PaymentRequest) (*PaymentResponse, error) {
	project, err := s.projectRepo.FindByBillID(ctx, id)
	if err != nil {
		return nil, err
	}
	outcome, err := project.RecordPayment(id, req.Amount, s.receivedDate(req))
	if err != nil {
		return nil, err
	}
	if err := s.projectRepo.SaveWithLock(ctx, project); err != nil {
		return nil, err
	}

	bill, err := project.Bill(id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Payment recorded",
		zap.String("bill_id", id.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("status", string(outcome.Status)))
	s.hooks.committed(ctx, project)

	return &PaymentResponse{
		Outcome: ToPaymentOutcomeResponse(outcome),
		Bill:    ToBillResponse(bill, project.TotalValue),
	}, nil
}

func (s *BillService) receivedDate(req PaymentRequest) time.Time {
	if d := req.ReceivedDate.Ptr(); d != nil {
		return *d
	}
	return s.now()
}
