package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/shared"
)

// AggregateTypeProject is the aggregate type of every billing event
const AggregateTypeProject = "Project"

// Event type constants
const (
	EventTypeProjectCreated    = "ProjectCreated"
	EventTypeProjectUpdated    = "ProjectUpdated"
	EventTypeProjectDeleted    = "ProjectDeleted"
	EventTypeBillAdded         = "BillAdded"
	EventTypeBillUpdated       = "BillUpdated"
	EventTypeBillRemoved       = "BillRemoved"
	EventTypePaymentRecorded   = "PaymentRecorded"
	EventTypeBillPaid          = "BillPaid"
	EventTypeGuaranteeCleared  = "GuaranteeCleared"
	EventTypeGuaranteeAssigned = "GuaranteeAssigned"
)

// ProjectCreatedEvent is published when a project is created with its bills
type ProjectCreatedEvent struct {
	shared.BaseDomainEvent
	ProjectID  uuid.UUID       `json:"project_id"`
	Name       string          `json:"name"`
	ClientID   uuid.UUID       `json:"client_id"`
	TotalValue decimal.Decimal `json:"total_value"`
	BillCount  int             `json:"bill_count"`
}

func NewProjectCreatedEvent(p *Project) *ProjectCreatedEvent {
	return &ProjectCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectCreated, AggregateTypeProject, p.ID),
		ProjectID:       p.ID,
		Name:            p.Name,
		ClientID:        p.ClientID,
		TotalValue:      p.TotalValue,
		BillCount:       len(p.Bills),
	}
}

// ProjectUpdatedEvent is published when project details change
type ProjectUpdatedEvent struct {
	shared.BaseDomainEvent
	ProjectID  uuid.UUID       `json:"project_id"`
	Name       string          `json:"name"`
	Status     ProjectStatus   `json:"status"`
	TotalValue decimal.Decimal `json:"total_value"`
}

func NewProjectUpdatedEvent(p *Project) *ProjectUpdatedEvent {
	return &ProjectUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectUpdated, AggregateTypeProject, p.ID),
		ProjectID:       p.ID,
		Name:            p.Name,
		Status:          p.Status,
		TotalValue:      p.TotalValue,
	}
}

// ProjectDeletedEvent is published after a project and its bills are removed
type ProjectDeletedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
}

func NewProjectDeletedEvent(p *Project) *ProjectDeletedEvent {
	return &ProjectDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectDeleted, AggregateTypeProject, p.ID),
		ProjectID:       p.ID,
		Name:            p.Name,
	}
}

// BillEvent carries the state of a single bill; it backs the added, updated
// and removed events.
type BillEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID       `json:"project_id"`
	BillID    uuid.UUID       `json:"bill_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Status    BillStatus      `json:"status"`
}

func newBillEvent(eventType string, p *Project, b *Bill) *BillEvent {
	return &BillEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProject, p.ID),
		ProjectID:       p.ID,
		BillID:          b.ID,
		Name:            b.Name,
		Amount:          b.Amount,
		Status:          b.Status,
	}
}

// PaymentRecordedEvent is published for every confirmed payment
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	ProjectID       uuid.UUID       `json:"project_id"`
	ProjectName     string          `json:"project_name"`
	BillID          uuid.UUID       `json:"bill_id"`
	BillName        string          `json:"bill_name"`
	Amount          decimal.Decimal `json:"amount"`
	ReceivedAmount  decimal.Decimal `json:"received_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          BillStatus      `json:"status"`
	ReceivedDate    time.Time       `json:"received_date"`
}

func NewPaymentRecordedEvent(p *Project, b *Bill, amount decimal.Decimal, outcome PaymentOutcome) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeProject, p.ID),
		ProjectID:       p.ID,
		ProjectName:     p.Name,
		BillID:          b.ID,
		BillName:        b.Name,
		Amount:          amount,
		ReceivedAmount:  outcome.ReceivedAmount,
		RemainingAmount: outcome.RemainingAmount,
		Status:          outcome.Status,
		ReceivedDate:    outcome.ReceivedDate,
	}
}

// BillPaidEvent is published when a bill becomes fully paid
type BillPaidEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID       `json:"project_id"`
	BillID    uuid.UUID       `json:"bill_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
}

func NewBillPaidEvent(p *Project, b *Bill) *BillPaidEvent {
	paidAt := time.Now()
	if b.ReceivedDate != nil {
		paidAt = *b.ReceivedDate
	}
	return &BillPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPaid, AggregateTypeProject, p.ID),
		ProjectID:       p.ID,
		BillID:          b.ID,
		Amount:          b.Amount,
		PaidAt:          paidAt,
	}
}

// GuaranteeEvent is published when a guarantee is assigned or cleared
type GuaranteeEvent struct {
	shared.BaseDomainEvent
	ProjectID     uuid.UUID       `json:"project_id"`
	Amount        decimal.Decimal `json:"amount"`
	UserDeposit   decimal.Decimal `json:"user_deposit"`
	Status        GuaranteeStatus `json:"status"`
	ClearanceDate *time.Time      `json:"clearance_date,omitempty"`
}

func newGuaranteeEvent(eventType string, p *Project) *GuaranteeEvent {
	g := p.Guarantee
	return &GuaranteeEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProject, p.ID),
		ProjectID:       p.ID,
		Amount:          g.Amount,
		UserDeposit:     g.UserDeposit,
		Status:          g.Status,
		ClearanceDate:   g.ClearanceDate,
	}
}
