package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiller/backend/internal/domain/shared"
)

func ptr[T any](v T) *T {
	return &v
}

func testProjectInput(total string) ProjectInput {
	return ProjectInput{
		Name:         "Bridge Design",
		ClientID:     uuid.New(),
		DepartmentID: uuid.New(),
		CategoryID:   uuid.New(),
		TotalValue:   d(total),
	}
}

func createTestProject(t *testing.T, total string) *Project {
	p, err := NewProject(testProjectInput(total))
	require.NoError(t, err)
	return p
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestNewProject(t *testing.T) {
	p := createTestProject(t, "1000000")
	assert.Equal(t, "Bridge Design", p.Name)
	assert.Equal(t, ProjectStatusOngoing, p.Status)
	assert.Equal(t, 1, p.Version)
	assert.Empty(t, p.Bills)
}

func TestNewProject_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProjectInput)
		code   string
	}{
		{"empty name", func(in *ProjectInput) { in.Name = "  " }, "INVALID_NAME"},
		{"missing client", func(in *ProjectInput) { in.ClientID = uuid.Nil }, "INVALID_CLIENT"},
		{"missing department", func(in *ProjectInput) { in.DepartmentID = uuid.Nil }, "INVALID_DEPARTMENT"},
		{"missing category", func(in *ProjectInput) { in.CategoryID = uuid.Nil }, "INVALID_CATEGORY"},
		{"negative value", func(in *ProjectInput) { in.TotalValue = d("-1") }, "INVALID_AMOUNT"},
		{"unknown type", func(in *ProjectInput) { in.Type = "LOCAL" }, "INVALID_TYPE"},
		{"end before start", func(in *ProjectInput) {
			start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, -1, 0)
			in.StartDate, in.EndDate = &start, &end
		}, "INVALID_DATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testProjectInput("1000")
			tt.mutate(&in)
			_, err := NewProject(in)
			assert.Equal(t, tt.code, errCode(t, err))
		})
	}
}

func TestOpenProject(t *testing.T) {
	drafts := []BillDraft{
		{Name: "Inception", Percent: ptr(d("20"))},
		{Name: "Design", Percent: ptr(d("30"))},
		{Name: "Handover", Amount: ptr(d("500000"))},
	}
	p, err := OpenProject(testProjectInput("1000000"), drafts, StrictAllocation())
	require.NoError(t, err)
	require.Len(t, p.Bills, 3)

	assert.True(t, p.Bills[0].Amount.Equal(d("200000")))
	assert.True(t, p.Bills[1].Amount.Equal(d("300000")))
	assert.Equal(t, "50.00", p.Bills[2].Percent(p.TotalValue).StringFixed(2))
	for _, b := range p.Bills {
		assert.Equal(t, BillStatusPending, b.Status)
		assert.Equal(t, p.ID, b.ProjectID)
	}
	require.Len(t, p.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeProjectCreated, p.GetDomainEvents()[0].EventType())
}

func TestOpenProject_AllocationChecks(t *testing.T) {
	drafts := []BillDraft{{Name: "Advance", Percent: ptr(d("40"))}}

	_, err := OpenProject(testProjectInput("1000000"), drafts, StrictAllocation())
	assert.Equal(t, "ALLOCATION_UNDER", errCode(t, err))

	p, err := OpenProject(testProjectInput("1000000"), drafts, AllocationPolicy{Bypass: true})
	require.NoError(t, err)
	assert.Len(t, p.Bills, 1)

	_, err = OpenProject(testProjectInput("1000000"), []BillDraft{{Name: "Bad"}}, StrictAllocation())
	assert.Equal(t, "INVALID_AMOUNT", errCode(t, err))
}

func TestProject_AddBill(t *testing.T) {
	p := createTestProject(t, "1000000")

	bill, err := p.AddBill(BillDraft{Name: "Phase 1", Percent: ptr(d("60"))}, false)
	require.NoError(t, err)
	assert.True(t, bill.Amount.Equal(d("600000")))
	assert.Equal(t, 2, p.Version)

	_, err = p.AddBill(BillDraft{Name: "Phase 2", Percent: ptr(d("50"))}, false)
	assert.Equal(t, "ALLOCATION_OVER", errCode(t, err))
	assert.Len(t, p.Bills, 1)

	_, err = p.AddBill(BillDraft{Name: "Phase 2", Percent: ptr(d("50"))}, true)
	require.NoError(t, err)
	assert.Len(t, p.Bills, 2)
}

// The scenario from the billing handbook: a 25% milestone on a 1,000,000
// project, paid in two instalments.
func TestProject_MilestonePaymentLifecycle(t *testing.T) {
	p := createTestProject(t, "1000000")
	bill, err := p.AddBill(BillDraft{Name: "Milestone 1", Percent: ptr(d("25"))}, false)
	require.NoError(t, err)
	require.True(t, bill.Amount.Equal(d("250000")))
	billID := bill.ID

	preview, err := p.PreviewPayment(billID, d("100000"), paidOn)
	require.NoError(t, err)
	versionBefore := p.Version

	outcome, err := p.RecordPayment(billID, d("100000"), paidOn)
	require.NoError(t, err)
	assert.Equal(t, preview, outcome)
	assert.Equal(t, versionBefore+1, p.Version)

	bill, _ = p.Bill(billID)
	assert.True(t, bill.ReceivedAmount.Equal(d("100000")))
	assert.Equal(t, BillStatusPartial, bill.Status)
	assert.True(t, bill.RemainingAmount().Equal(d("150000")))
	assert.Equal(t, "10.00", bill.ReceivedPercent(p.TotalValue).StringFixed(2))

	outcome, err = p.RecordPayment(billID, d("150000"), paidOn.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, BillStatusPaid, outcome.Status)

	bill, _ = p.Bill(billID)
	assert.True(t, bill.ReceivedAmount.Equal(d("250000")))
	assert.Equal(t, BillStatusPaid, bill.Status)
	assert.True(t, bill.RemainingAmount().IsZero())

	var types []string
	for _, e := range p.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, []string{EventTypeBillAdded, EventTypePaymentRecorded, EventTypePaymentRecorded, EventTypeBillPaid}, types)
}

func TestProject_RecordPaymentRejectsWithoutMutation(t *testing.T) {
	p := createTestProject(t, "1000000")
	bill, err := p.AddBill(BillDraft{Name: "Milestone", Amount: ptr(d("250000"))}, false)
	require.NoError(t, err)
	_, err = p.RecordPayment(bill.ID, d("200000"), paidOn)
	require.NoError(t, err)

	before, _ := p.Bill(bill.ID)
	snapshot := *before
	version := p.Version
	events := len(p.GetDomainEvents())

	_, err = p.RecordPayment(bill.ID, d("60000"), paidOn)
	assert.Equal(t, "EXCEEDS_REMAINING", errCode(t, err))
	assert.Contains(t, err.Error(), "50000")

	after, _ := p.Bill(bill.ID)
	assert.Equal(t, snapshot, *after)
	assert.Equal(t, version, p.Version)
	assert.Len(t, p.GetDomainEvents(), events)
}

func TestProject_RecordPaymentUnknownBill(t *testing.T) {
	p := createTestProject(t, "1000")
	_, err := p.RecordPayment(uuid.New(), d("10"), paidOn)
	assert.Equal(t, "NOT_FOUND", errCode(t, err))
}

func TestProject_UpdateBill(t *testing.T) {
	newProject := func(t *testing.T) (*Project, uuid.UUID) {
		p := createTestProject(t, "1000000")
		bill, err := p.AddBill(BillDraft{Name: "Design", Amount: ptr(d("400000"))}, false)
		require.NoError(t, err)
		return p, bill.ID
	}

	t.Run("percent edit recomputes amount", func(t *testing.T) {
		p, id := newProject(t)
		bill, err := p.UpdateBill(id, BillPatch{Percent: ptr(d("45"))}, false)
		require.NoError(t, err)
		assert.True(t, bill.Amount.Equal(d("450000")))
	})

	t.Run("amount wins over percent", func(t *testing.T) {
		p, id := newProject(t)
		bill, err := p.UpdateBill(id, BillPatch{Percent: ptr(d("45")), Amount: ptr(d("300000"))}, false)
		require.NoError(t, err)
		assert.True(t, bill.Amount.Equal(d("300000")))
		assert.Equal(t, "30.00", bill.Percent(p.TotalValue).StringFixed(2))
	})

	t.Run("received edit derives status", func(t *testing.T) {
		p, id := newProject(t)
		bill, err := p.UpdateBill(id, BillPatch{ReceivedAmount: ptr(d("400000")), ReceivedDate: ptr(paidOn)}, false)
		require.NoError(t, err)
		assert.Equal(t, BillStatusPaid, bill.Status)
		assert.Equal(t, EventTypeBillPaid, p.GetDomainEvents()[len(p.GetDomainEvents())-1].EventType())
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		p, id := newProject(t)
		_, err := p.UpdateBill(id, BillPatch{Amount: ptr(d("-1"))}, false)
		assert.Equal(t, "INVALID_AMOUNT", errCode(t, err))
	})

	t.Run("received above amount rejected", func(t *testing.T) {
		p, id := newProject(t)
		_, err := p.UpdateBill(id, BillPatch{ReceivedAmount: ptr(d("400001"))}, false)
		assert.Equal(t, "INVALID_AMOUNT", errCode(t, err))
		bill, _ := p.Bill(id)
		assert.True(t, bill.ReceivedAmount.IsZero())
	})

	t.Run("amount above project value rejected unless bypassed", func(t *testing.T) {
		p, id := newProject(t)
		_, err := p.UpdateBill(id, BillPatch{Amount: ptr(d("1000001"))}, false)
		assert.Equal(t, "ALLOCATION_OVER", errCode(t, err))
		_, err = p.UpdateBill(id, BillPatch{Amount: ptr(d("1000001"))}, true)
		assert.NoError(t, err)
	})

	t.Run("overdue can be set on unpaid bill", func(t *testing.T) {
		p, id := newProject(t)
		bill, err := p.UpdateBill(id, BillPatch{Status: ptr(BillStatusOverdue)}, false)
		require.NoError(t, err)
		assert.Equal(t, BillStatusOverdue, bill.Status)

		bill, err = p.UpdateBill(id, BillPatch{Name: ptr("Design v2")}, false)
		require.NoError(t, err)
		assert.Equal(t, BillStatusOverdue, bill.Status)
	})

	t.Run("status inconsistent with amounts rejected", func(t *testing.T) {
		p, id := newProject(t)
		_, err := p.UpdateBill(id, BillPatch{Status: ptr(BillStatusPaid)}, false)
		assert.Equal(t, "INVALID_STATUS", errCode(t, err))
	})
}

func TestProject_RemoveBill(t *testing.T) {
	p := createTestProject(t, "1000")
	bill, err := p.AddBill(BillDraft{Name: "Only", Amount: ptr(d("1000"))}, false)
	require.NoError(t, err)

	require.NoError(t, p.RemoveBill(bill.ID))
	assert.Empty(t, p.Bills)
	assert.Equal(t, "NOT_FOUND", errCode(t, p.RemoveBill(bill.ID)))
}

func TestProject_Update(t *testing.T) {
	p := createTestProject(t, "1000000")
	_, err := p.AddBill(BillDraft{Name: "Half", Amount: ptr(d("500000"))}, false)
	require.NoError(t, err)

	err = p.Update(ProjectPatch{TotalValue: ptr(d("400000"))})
	assert.Equal(t, "ALLOCATION_OVER", errCode(t, err))
	assert.True(t, p.TotalValue.Equal(d("1000000")))

	err = p.Update(ProjectPatch{
		Name:       ptr("Bridge Design Phase II"),
		TotalValue: ptr(d("2000000")),
		Status:     ptr(ProjectStatusCompleted),
		Type:       ptr(ProjectTypeGovernment),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bridge Design Phase II", p.Name)
	assert.Equal(t, "25.00", p.Bills[0].Percent(p.TotalValue).StringFixed(2))
	assert.Equal(t, ProjectStatusCompleted, p.Status)

	err = p.Update(ProjectPatch{Status: ptr(ProjectStatus("ARCHIVED"))})
	assert.Equal(t, "INVALID_STATUS", errCode(t, err))
}

func TestProject_Guarantee(t *testing.T) {
	p := createTestProject(t, "1000000")

	err := p.ClearGuarantee(paidOn)
	require.Error(t, err)
	assert.Equal(t, "No Project Guarantee set for this project", err.Error())

	require.NoError(t, p.AssignGuarantee(GuaranteeInput{Percent: ptr(d("10")), BankSharePercent: d("90")}))
	assert.True(t, p.Guarantee.Amount.Equal(d("100000")))
	assert.True(t, p.Guarantee.UserDeposit.Equal(d("10000")))
	assert.True(t, p.Guarantee.BankShare().Equal(d("90000")))
	assert.Equal(t, GuaranteeStatusPending, p.Guarantee.Status)

	require.NoError(t, p.ClearGuarantee(paidOn))
	assert.Equal(t, GuaranteeStatusCleared, p.Guarantee.Status)
	require.NotNil(t, p.Guarantee.ClearanceDate)
	assert.Equal(t, paidOn, *p.Guarantee.ClearanceDate)

	err = p.ClearGuarantee(paidOn)
	require.Error(t, err)
	assert.Equal(t, "Project Guarantee is already cleared", err.Error())

	err = p.AssignGuarantee(GuaranteeInput{Amount: ptr(d("5000"))})
	assert.Equal(t, "GUARANTEE_CLEARED", errCode(t, err))
	assert.Equal(t, "GUARANTEE_CLEARED", errCode(t, p.RemoveGuarantee()))
}

func TestNewGuarantee(t *testing.T) {
	g, err := NewGuarantee(GuaranteeInput{Amount: ptr(d("50000")), BankSharePercent: decimal.Zero}, d("1000000"))
	require.NoError(t, err)
	assert.Equal(t, "5.00", g.Percent(d("1000000")).StringFixed(2))
	assert.True(t, g.UserDeposit.Equal(d("50000")))

	_, err = NewGuarantee(GuaranteeInput{}, d("1000000"))
	assert.Equal(t, "INVALID_AMOUNT", errCode(t, err))

	_, err = NewGuarantee(GuaranteeInput{Percent: ptr(d("10")), BankSharePercent: d("120")}, d("1000000"))
	assert.Equal(t, "INVALID_PERCENT", errCode(t, err))

	_, err = NewGuarantee(GuaranteeInput{Amount: ptr(d("2000000"))}, d("1000000"))
	assert.Equal(t, "INVALID_AMOUNT", errCode(t, err))
}

func TestProject_Totals(t *testing.T) {
	p := createTestProject(t, "1000000")
	a, _ := p.AddBill(BillDraft{Name: "A", Amount: ptr(d("300000"))}, false)
	_, _ = p.AddBill(BillDraft{Name: "B", Amount: ptr(d("700000"))}, false)
	_, err := p.RecordPayment(a.ID, d("300000"), paidOn)
	require.NoError(t, err)

	assert.True(t, p.BilledAmount().Equal(d("1000000")))
	assert.True(t, p.ReceivedAmount().Equal(d("300000")))
	assert.True(t, p.RemainingAmount().Equal(d("700000")))
	assert.Equal(t, "30.00", p.ReceivedPercent().StringFixed(2))
	assert.Equal(t, AllocationExact, p.Allocation().State)
}

func TestProject_GuaranteePercentFollowsValue(t *testing.T) {
	p := createTestProject(t, "1000000")
	require.NoError(t, p.AssignGuarantee(GuaranteeInput{Percent: ptr(d("10")), BankSharePercent: d("90")}))
	assert.Equal(t, "10.00", p.Guarantee.Percent(p.TotalValue).StringFixed(2))

	require.NoError(t, p.Update(ProjectPatch{TotalValue: ptr(d("2000000"))}))
	assert.True(t, p.Guarantee.Amount.Equal(d("100000")), "amount is kept")
	assert.Equal(t, "5.00", p.Guarantee.Percent(p.TotalValue).StringFixed(2))

	err := p.Update(ProjectPatch{TotalValue: ptr(d("50000"))})
	assert.Equal(t, "INVALID_AMOUNT", errCode(t, err))
	assert.True(t, p.TotalValue.Equal(d("2000000")))
}

func TestOpenProject_AmountsCoveringValueAreExact(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		amounts []string
	}{
		{"seven equal bills", "700000", []string{"100000", "100000", "100000", "100000", "100000", "100000", "100000"}},
		{"uneven thirds of sixths", "1000000", []string{"166667", "166667", "166667", "166667", "166666", "166666"}},
		{"three odd bills", "100", []string{"33", "33", "34"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts := make([]BillDraft, len(tt.amounts))
			for i, a := range tt.amounts {
				drafts[i] = BillDraft{Name: "Milestone", Amount: ptr(d(a))}
			}
			p, err := OpenProject(testProjectInput(tt.total), drafts, StrictAllocation())
			require.NoError(t, err)
			assert.Equal(t, AllocationExact, p.Allocation().State)
			assert.True(t, p.Allocation().Sum.Equal(hundred), p.Allocation().Sum.String())
		})
	}
}
