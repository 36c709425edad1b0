package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/shared"
)

// Bill is a billing milestone of a project. Its amount is authoritative and
// every percentage is derived from it on demand.
type Bill struct {
	shared.BaseEntity
	ProjectID            uuid.UUID
	Name                 string
	Amount               decimal.Decimal
	ReceivedAmount       decimal.Decimal
	ReceivedDate         *time.Time
	TentativeBillingDate *time.Time
	VAT                  decimal.Decimal
	IT                   decimal.Decimal
	Status               BillStatus
}

// BillDraft describes a milestone to be created. Amount wins over Percent when
// both are given.
type BillDraft struct {
	Name                 string
	Percent              *decimal.Decimal
	Amount               *decimal.Decimal
	TentativeBillingDate *time.Time
	VAT                  decimal.Decimal
	IT                   decimal.Decimal
}

// BillPatch is a partial update of a bill; nil fields are left untouched
type BillPatch struct {
	Name                 *string
	Percent              *decimal.Decimal
	Amount               *decimal.Decimal
	TentativeBillingDate *time.Time
	ReceivedAmount       *decimal.Decimal
	ReceivedDate         *time.Time
	VAT                  *decimal.Decimal
	IT                   *decimal.Decimal
	Status               *BillStatus
}

func newBill(projectID uuid.UUID, draft BillDraft, projectValue decimal.Decimal) (*Bill, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Bill name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Bill name cannot exceed 200 characters")
	}

	amount, err := resolveAmount(draft.Amount, draft.Percent, projectValue)
	if err != nil {
		return nil, err
	}
	if draft.VAT.IsNegative() || draft.IT.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "VAT and IT cannot be negative")
	}

	return &Bill{
		BaseEntity:           shared.NewBaseEntity(),
		ProjectID:            projectID,
		Name:                 name,
		Amount:               amount,
		ReceivedAmount:       decimal.Zero,
		TentativeBillingDate: draft.TentativeBillingDate,
		VAT:                  draft.VAT,
		IT:                   draft.IT,
		Status:               BillStatusPending,
	}, nil
}

// resolveAmount picks the authoritative amount from an amount or a percent
func resolveAmount(amount, percent *decimal.Decimal, projectValue decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case amount != nil:
		if amount.IsNegative() {
			return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Bill amount must be a non-negative number")
		}
		return *amount, nil
	case percent != nil:
		if percent.IsNegative() || percent.GreaterThan(hundred) {
			return decimal.Zero, shared.NewDomainError("INVALID_PERCENT", "Bill percent must be between 0 and 100")
		}
		return AmountFromPercent(*percent, projectValue), nil
	}
	return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Either bill amount or bill percent is required")
}

// RemainingAmount is the part of the bill not yet received
func (b *Bill) RemainingAmount() decimal.Decimal {
	return b.Amount.Sub(b.ReceivedAmount)
}

// Percent is the bill amount as a percentage of the project value
func (b *Bill) Percent(projectValue decimal.Decimal) decimal.Decimal {
	return PercentFromAmount(b.Amount, projectValue)
}

// ReceivedPercent is the received amount as a percentage of the project value
func (b *Bill) ReceivedPercent(projectValue decimal.Decimal) decimal.Decimal {
	return PercentFromAmount(b.ReceivedAmount, projectValue)
}

// RemainingPercent is the remaining amount as a percentage of the project value
func (b *Bill) RemainingPercent(projectValue decimal.Decimal) decimal.Decimal {
	return PercentFromAmount(b.RemainingAmount(), projectValue)
}

func (b *Bill) paymentInput(amount, projectValue decimal.Decimal, receivedDate time.Time) PaymentInput {
	return PaymentInput{
		BillAmount:    b.Amount,
		PriorReceived: b.ReceivedAmount,
		Amount:        amount,
		ProjectValue:  projectValue,
		ReceivedDate:  receivedDate,
	}
}

func (b *Bill) applyOutcome(outcome PaymentOutcome) {
	b.ReceivedAmount = outcome.ReceivedAmount
	b.Status = outcome.Status
	date := outcome.ReceivedDate
	b.ReceivedDate = &date
	b.Touch()
}

// applyPatch edits the bill. Amount stays the source of truth: a percent is
// only used when no amount is supplied, and the status is re-derived from
// the amounts unless an unpaid bill is explicitly marked OVERDUE.
func (b *Bill) applyPatch(patch BillPatch, projectValue decimal.Decimal) error {
	next := *b

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return shared.NewDomainError("INVALID_NAME", "Bill name cannot be empty")
		}
		next.Name = name
	}
	if patch.Amount != nil || patch.Percent != nil {
		amount, err := resolveAmount(patch.Amount, patch.Percent, projectValue)
		if err != nil {
			return err
		}
		next.Amount = amount
	}
	if patch.ReceivedAmount != nil {
		if patch.ReceivedAmount.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", "Received amount cannot be negative")
		}
		next.ReceivedAmount = *patch.ReceivedAmount
	}
	if next.ReceivedAmount.GreaterThan(next.Amount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Received amount cannot exceed bill amount")
	}
	if patch.ReceivedDate != nil {
		next.ReceivedDate = patch.ReceivedDate
	}
	if patch.TentativeBillingDate != nil {
		next.TentativeBillingDate = patch.TentativeBillingDate
	}
	if patch.VAT != nil {
		if patch.VAT.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", "VAT cannot be negative")
		}
		next.VAT = *patch.VAT
	}
	if patch.IT != nil {
		if patch.IT.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", "IT cannot be negative")
		}
		next.IT = *patch.IT
	}

	derived := DeriveStatus(next.ReceivedAmount, next.Amount)
	switch {
	case patch.Status != nil:
		requested := *patch.Status
		if !requested.IsValid() {
			return shared.NewDomainError("INVALID_STATUS", "Unknown bill status "+string(requested))
		}
		if requested == BillStatusOverdue {
			if derived == BillStatusPaid {
				return shared.NewDomainError("INVALID_STATUS", "A fully paid bill cannot be overdue")
			}
		} else if requested != derived {
			return shared.NewDomainError("INVALID_STATUS", "Status "+string(requested)+" does not match the received amount")
		}
		next.Status = requested
	case b.Status == BillStatusOverdue && derived != BillStatusPaid:
		next.Status = BillStatusOverdue
	default:
		next.Status = derived
	}

	next.Touch()
	*b = next
	return nil
}
