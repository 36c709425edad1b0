package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiller/backend/internal/domain/billing"
)

func createTestProject(t *testing.T) *billing.Project {
	t.Helper()
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	fifty := decimal.NewFromInt(50)
	p, err := billing.OpenProject(billing.ProjectInput{
		Name:         "Dhaka Metro Survey",
		ClientID:     uuid.New(),
		DepartmentID: uuid.New(),
		CategoryID:   uuid.New(),
		StartDate:    &start,
		TotalValue:   decimal.NewFromInt(1000000),
		Type:         billing.ProjectTypeGovernment,
	}, []billing.BillDraft{
		{Name: "Inception", Percent: &fifty},
		{Name: "Final", Percent: &fifty},
	}, billing.StrictAllocation())
	require.NoError(t, err)
	return p
}

func TestProjectModel_RoundTrip(t *testing.T) {
	t.Run("without guarantee", func(t *testing.T) {
		p := createTestProject(t)

		m := ProjectModelFromDomain(p)
		assert.False(t, m.PGAmount.Valid)
		assert.Nil(t, m.PGStatus)
		require.Len(t, m.Bills, 2)
		assert.Equal(t, p.ID, m.Bills[0].ProjectID)

		back := m.ToDomain()
		assert.Nil(t, back.Guarantee)
		assert.Equal(t, p.Name, back.Name)
		assert.True(t, p.TotalValue.Equal(back.TotalValue))
		assert.Equal(t, p.Version, back.Version)
		require.Len(t, back.Bills, 2)
		assert.True(t, back.Bills[0].Amount.Equal(decimal.NewFromInt(500000)))
	})

	t.Run("with guarantee", func(t *testing.T) {
		p := createTestProject(t)
		ten := decimal.NewFromInt(10)
		require.NoError(t, p.AssignGuarantee(billing.GuaranteeInput{Percent: &ten, BankSharePercent: decimal.NewFromInt(90)}))

		back := ProjectModelFromDomain(p).ToDomain()
		require.NotNil(t, back.Guarantee)
		assert.True(t, back.Guarantee.Amount.Equal(decimal.NewFromInt(100000)))
		assert.True(t, back.Guarantee.UserDeposit.Equal(decimal.NewFromInt(10000)))
		assert.Equal(t, billing.GuaranteeStatusPending, back.Guarantee.Status)
	})

	t.Run("stored guarantee percent follows the project value", func(t *testing.T) {
		p := createTestProject(t)
		ten := decimal.NewFromInt(10)
		require.NoError(t, p.AssignGuarantee(billing.GuaranteeInput{Percent: &ten}))
		doubled := p.TotalValue.Mul(decimal.NewFromInt(2))
		require.NoError(t, p.Update(billing.ProjectPatch{TotalValue: &doubled}))

		m := ProjectModelFromDomain(p)
		require.True(t, m.PGPercent.Valid)
		assert.Equal(t, "5.00", m.PGPercent.Decimal.StringFixed(2))
	})

	t.Run("removing the guarantee clears the columns", func(t *testing.T) {
		p := createTestProject(t)
		ten := decimal.NewFromInt(10)
		require.NoError(t, p.AssignGuarantee(billing.GuaranteeInput{Percent: &ten}))
		m := ProjectModelFromDomain(p)
		require.True(t, m.PGAmount.Valid)

		require.NoError(t, p.RemoveGuarantee())
		m.FromDomain(p)
		assert.False(t, m.PGAmount.Valid)
		assert.Nil(t, m.PGClearanceDate)
	})
}

func TestProjectFileModel_RoundTrip(t *testing.T) {
	f := &billing.ProjectFile{
		ID:          uuid.New(),
		ProjectID:   uuid.New(),
		Title:       "Contract",
		FileName:    "contract.pdf",
		ContentType: "application/pdf",
		Size:        1024,
		StorageKey:  "projects/x/y.pdf",
		UploadedAt:  time.Now(),
	}
	assert.Equal(t, f, ProjectFileModelFromDomain(f).ToDomain())
}
