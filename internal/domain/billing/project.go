package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/shared"
)

// Project is the aggregate root for a contracted engagement. It exclusively
// owns its bills; every bill mutation and every payment goes through it so
// that the project value used for percentages is always the current one.
type Project struct {
	shared.BaseAggregateRoot
	Name         string
	ClientID     uuid.UUID
	DepartmentID uuid.UUID
	CategoryID   uuid.UUID
	StartDate    *time.Time
	EndDate      *time.Time
	TotalValue   decimal.Decimal
	Type         ProjectType
	Status       ProjectStatus
	Guarantee    *Guarantee
	Bills        []Bill
}

// ProjectInput holds the fields required to open a project
type ProjectInput struct {
	Name         string
	ClientID     uuid.UUID
	DepartmentID uuid.UUID
	CategoryID   uuid.UUID
	StartDate    *time.Time
	EndDate      *time.Time
	TotalValue   decimal.Decimal
	Type         ProjectType
	Status       ProjectStatus
}

// ProjectPatch is a partial update of project details
type ProjectPatch struct {
	Name         *string
	ClientID     *uuid.UUID
	DepartmentID *uuid.UUID
	CategoryID   *uuid.UUID
	StartDate    *time.Time
	EndDate      *time.Time
	TotalValue   *decimal.Decimal
	Type         *ProjectType
	Status       *ProjectStatus
}

// NewProject creates a project without bills
func NewProject(in ProjectInput) (*Project, error) {
	p := &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            ProjectStatusOngoing,
		Bills:             make([]Bill, 0),
	}
	if err := p.setName(in.Name); err != nil {
		return nil, err
	}
	if in.ClientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client is required")
	}
	if in.DepartmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEPARTMENT", "Department is required")
	}
	if in.CategoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category is required")
	}
	if in.TotalValue.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total project value cannot be negative")
	}
	if err := validateDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}
	if in.Type != "" && !in.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown project type "+string(in.Type))
	}
	if in.Status != "" {
		if !in.Status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown project status "+string(in.Status))
		}
		p.Status = in.Status
	}

	p.ClientID = in.ClientID
	p.DepartmentID = in.DepartmentID
	p.CategoryID = in.CategoryID
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	p.TotalValue = in.TotalValue
	p.Type = in.Type
	return p, nil
}

// OpenProject creates a project together with its initial milestones and
// checks the allocation under the given policy.
func OpenProject(in ProjectInput, drafts []BillDraft, policy AllocationPolicy) (*Project, error) {
	p, err := NewProject(in)
	if err != nil {
		return nil, err
	}
	for i, draft := range drafts {
		bill, err := newBill(p.ID, draft, p.TotalValue)
		if err != nil {
			return nil, shared.NewDomainError(codeOf(err), fmt.Sprintf("Bill %d: %s", i+1, err.Error()))
		}
		p.Bills = append(p.Bills, *bill)
	}
	if err := ValidateAllocation(p.Bills, p.TotalValue, policy); err != nil {
		return nil, err
	}

	p.AddDomainEvent(NewProjectCreatedEvent(p))
	return p, nil
}

func (p *Project) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Project name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Project name cannot exceed 255 characters")
	}
	p.Name = name
	return nil
}

func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return shared.NewDomainError("INVALID_DATE", "End date cannot be before start date")
	}
	return nil
}

// Update applies a partial update. Lowering the project value below the
// amount already billed is rejected; bill percentages follow the new value
// automatically since they are derived.
func (p *Project) Update(patch ProjectPatch) error {
	next := *p

	if patch.Name != nil {
		if err := next.setName(*patch.Name); err != nil {
			return err
		}
	}
	if patch.ClientID != nil {
		if *patch.ClientID == uuid.Nil {
			return shared.NewDomainError("INVALID_CLIENT", "Client is required")
		}
		next.ClientID = *patch.ClientID
	}
	if patch.DepartmentID != nil {
		if *patch.DepartmentID == uuid.Nil {
			return shared.NewDomainError("INVALID_DEPARTMENT", "Department is required")
		}
		next.DepartmentID = *patch.DepartmentID
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID == uuid.Nil {
			return shared.NewDomainError("INVALID_CATEGORY", "Category is required")
		}
		next.CategoryID = *patch.CategoryID
	}
	if patch.StartDate != nil {
		next.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		next.EndDate = patch.EndDate
	}
	if err := validateDates(next.StartDate, next.EndDate); err != nil {
		return err
	}
	if patch.Type != nil {
		if *patch.Type != "" && !patch.Type.IsValid() {
			return shared.NewDomainError("INVALID_TYPE", "Unknown project type "+string(*patch.Type))
		}
		next.Type = *patch.Type
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return shared.NewDomainError("INVALID_STATUS", "Unknown project status "+string(*patch.Status))
		}
		next.Status = *patch.Status
	}
	if patch.TotalValue != nil {
		if patch.TotalValue.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", "Total project value cannot be negative")
		}
		billed := next.BilledAmount()
		if billed.GreaterThan(*patch.TotalValue) {
			return shared.NewDomainError("ALLOCATION_OVER", fmt.Sprintf(
				"Project value cannot be less than the billed amount of %s", billed.String()))
		}
		if next.Guarantee.IsSet() && next.Guarantee.Amount.GreaterThan(*patch.TotalValue) {
			return shared.NewDomainError("INVALID_AMOUNT", "Project value cannot be less than the Project Guarantee amount")
		}
		next.TotalValue = *patch.TotalValue
	}

	p.Name = next.Name
	p.ClientID = next.ClientID
	p.DepartmentID = next.DepartmentID
	p.CategoryID = next.CategoryID
	p.StartDate = next.StartDate
	p.EndDate = next.EndDate
	p.Type = next.Type
	p.Status = next.Status
	p.TotalValue = next.TotalValue

	p.AddDomainEvent(NewProjectUpdatedEvent(p))
	p.IncrementVersion()
	return nil
}

// Bill returns the bill with the given ID
func (p *Project) Bill(billID uuid.UUID) (*Bill, error) {
	for i := range p.Bills {
		if p.Bills[i].ID == billID {
			return &p.Bills[i], nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "Bill not found")
}

// AddBill appends a milestone. The allocation may stay below 100% while
// milestones are added one at a time, but never above it.
func (p *Project) AddBill(draft BillDraft, bypass bool) (*Bill, error) {
	bill, err := newBill(p.ID, draft, p.TotalValue)
	if err != nil {
		return nil, err
	}

	candidate := append(append(make([]Bill, 0, len(p.Bills)+1), p.Bills...), *bill)
	policy := AllocationPolicy{Bypass: bypass, AllowUnder: true, Epsilon: DefaultAllocationEpsilon}
	if err := ValidateAllocation(candidate, p.TotalValue, policy); err != nil {
		return nil, err
	}

	p.Bills = candidate
	added := &p.Bills[len(p.Bills)-1]
	p.AddDomainEvent(newBillEvent(EventTypeBillAdded, p, added))
	p.IncrementVersion()
	return added, nil
}

// UpdateBill applies a partial bill edit. The edit is rejected if it would
// push the billed total above the project value, unless bypass is set.
func (p *Project) UpdateBill(billID uuid.UUID, patch BillPatch, bypass bool) (*Bill, error) {
	bill, err := p.Bill(billID)
	if err != nil {
		return nil, err
	}

	edited := *bill
	if err := edited.applyPatch(patch, p.TotalValue); err != nil {
		return nil, err
	}
	if !bypass {
		amounts := make([]decimal.Decimal, 0, len(p.Bills))
		for i := range p.Bills {
			if p.Bills[i].ID == billID {
				amounts = append(amounts, edited.Amount)
				continue
			}
			amounts = append(amounts, p.Bills[i].Amount)
		}
		if check := CheckAmountAllocation(amounts, p.TotalValue); check.State == AllocationOver {
			return nil, shared.NewDomainError("ALLOCATION_OVER", fmt.Sprintf(
				"Bill amounts add up to %s, which exceeds the project value of %s",
				check.Sum.String(), p.TotalValue.String()))
		}
	}

	wasPaid := bill.Status == BillStatusPaid
	*bill = edited
	p.AddDomainEvent(newBillEvent(EventTypeBillUpdated, p, bill))
	if !wasPaid && bill.Status == BillStatusPaid {
		p.AddDomainEvent(NewBillPaidEvent(p, bill))
	}
	p.IncrementVersion()
	return bill, nil
}

// RemoveBill deletes a milestone from the project
func (p *Project) RemoveBill(billID uuid.UUID) error {
	for i := range p.Bills {
		if p.Bills[i].ID == billID {
			removed := p.Bills[i]
			p.Bills = append(p.Bills[:i], p.Bills[i+1:]...)
			p.AddDomainEvent(newBillEvent(EventTypeBillRemoved, p, &removed))
			p.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Bill not found")
}

// PreviewPayment derives the effect of a payment without changing anything
func (p *Project) PreviewPayment(billID uuid.UUID, amount decimal.Decimal, receivedDate time.Time) (PaymentOutcome, error) {
	bill, err := p.Bill(billID)
	if err != nil {
		return PaymentOutcome{}, err
	}
	return DerivePayment(bill.paymentInput(amount, p.TotalValue, receivedDate))
}

// RecordPayment applies a payment to a bill using the same derivation as
// PreviewPayment. An invalid payment leaves the project untouched.
func (p *Project) RecordPayment(billID uuid.UUID, amount decimal.Decimal, receivedDate time.Time) (PaymentOutcome, error) {
	bill, err := p.Bill(billID)
	if err != nil {
		return PaymentOutcome{}, err
	}
	outcome, err := DerivePayment(bill.paymentInput(amount, p.TotalValue, receivedDate))
	if err != nil {
		return PaymentOutcome{}, err
	}

	bill.applyOutcome(outcome)
	p.AddDomainEvent(NewPaymentRecordedEvent(p, bill, amount, outcome))
	if outcome.Status == BillStatusPaid {
		p.AddDomainEvent(NewBillPaidEvent(p, bill))
	}
	p.IncrementVersion()
	return outcome, nil
}

// AssignGuarantee sets or replaces the project guarantee. A cleared
// guarantee is final and cannot be replaced.
func (p *Project) AssignGuarantee(in GuaranteeInput) error {
	if p.Guarantee.IsCleared() {
		return shared.NewDomainError("GUARANTEE_CLEARED", "Project Guarantee is already cleared and cannot be changed")
	}
	g, err := NewGuarantee(in, p.TotalValue)
	if err != nil {
		return err
	}
	p.Guarantee = g
	p.AddDomainEvent(newGuaranteeEvent(EventTypeGuaranteeAssigned, p))
	p.IncrementVersion()
	return nil
}

// RemoveGuarantee drops a pending guarantee
func (p *Project) RemoveGuarantee() error {
	if p.Guarantee == nil {
		return nil
	}
	if p.Guarantee.IsCleared() {
		return shared.NewDomainError("GUARANTEE_CLEARED", "Project Guarantee is already cleared and cannot be changed")
	}
	p.Guarantee = nil
	p.IncrementVersion()
	return nil
}

// ClearGuarantee moves the guarantee from PENDING to CLEARED
func (p *Project) ClearGuarantee(at time.Time) error {
	if !p.Guarantee.IsSet() {
		return shared.NewDomainError("VALIDATION_ERROR", "No Project Guarantee set for this project")
	}
	if p.Guarantee.IsCleared() {
		return shared.NewDomainError("VALIDATION_ERROR", "Project Guarantee is already cleared")
	}

	p.Guarantee.Status = GuaranteeStatusCleared
	p.Guarantee.ClearanceDate = &at
	p.AddDomainEvent(newGuaranteeEvent(EventTypeGuaranteeCleared, p))
	p.IncrementVersion()
	return nil
}

// BilledAmount is the sum of all bill amounts
func (p *Project) BilledAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Bills {
		total = total.Add(p.Bills[i].Amount)
	}
	return total
}

// ReceivedAmount is the sum of all received amounts
func (p *Project) ReceivedAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Bills {
		total = total.Add(p.Bills[i].ReceivedAmount)
	}
	return total
}

// RemainingAmount is the project value still to be received
func (p *Project) RemainingAmount() decimal.Decimal {
	return p.TotalValue.Sub(p.ReceivedAmount())
}

// ReceivedPercent is the received amount as a percentage of the project value
func (p *Project) ReceivedPercent() decimal.Decimal {
	return PercentFromAmount(p.ReceivedAmount(), p.TotalValue)
}

// Allocation reports how much of the project value the bills cover
func (p *Project) Allocation() AllocationCheck {
	amounts := make([]decimal.Decimal, len(p.Bills))
	for i := range p.Bills {
		amounts[i] = p.Bills[i].Amount
	}
	return CheckPercentAllocation([]decimal.Decimal{AllocatedPercent(amounts, p.TotalValue)}, DefaultAllocationEpsilon)
}

func codeOf(err error) string {
	if de, ok := err.(*shared.DomainError); ok {
		return de.Code
	}
	return "INVALID_INPUT"
}
