package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProject_EffectiveStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	paid := Bill{Status: BillStatusPaid}
	unpaid := Bill{Status: BillStatusPartial}
	pending := Bill{Status: BillStatusPending}
	overdue := Bill{Status: BillStatusOverdue}

	tests := []struct {
		name    string
		project Project
		want    ProjectStatus
	}{
		{"all bills paid", Project{Status: ProjectStatusOngoing, Bills: []Bill{paid, paid}}, ProjectStatusCompleted},
		{"closed without unpaid bills", Project{Status: ProjectStatusCompleted}, ProjectStatusCompleted},
		{"closed with unpaid bills", Project{Status: ProjectStatusCompleted, Bills: []Bill{paid, unpaid}}, ProjectStatusOutstanding},
		{"marked outstanding", Project{Status: ProjectStatusOutstanding, Bills: []Bill{unpaid}}, ProjectStatusOutstanding},
		{"ended with money due", Project{Status: ProjectStatusOngoing, EndDate: &past, Bills: []Bill{unpaid}}, ProjectStatusOutstanding},
		{"ending later", Project{Status: ProjectStatusOngoing, EndDate: &future, Bills: []Bill{unpaid}}, ProjectStatusOngoing},
		{"ends today", Project{Status: ProjectStatusOngoing, EndDate: &now, Bills: []Bill{unpaid}}, ProjectStatusOngoing},
		{"starts later but marked ongoing", Project{Status: ProjectStatusOngoing, StartDate: &future}, ProjectStatusOngoing},
		{"future flag before start", Project{Status: ProjectStatusFuture, StartDate: &future}, ProjectStatusFuture},
		{"ended with a pending bill", Project{Status: ProjectStatusOngoing, EndDate: &past, Bills: []Bill{paid, pending}}, ProjectStatusOutstanding},
		{"ended with only an overdue flag", Project{Status: ProjectStatusOngoing, EndDate: &past, Bills: []Bill{paid, overdue}}, ProjectStatusOngoing},
		{"closed with only an overdue flag", Project{Status: ProjectStatusCompleted, Bills: []Bill{overdue}}, ProjectStatusCompleted},
		{"future flag after start", Project{Status: ProjectStatusFuture, StartDate: &past}, ProjectStatusOngoing},
		{"future flag without dates", Project{Status: ProjectStatusFuture}, ProjectStatusFuture},
		{"no bills", Project{Status: ProjectStatusOngoing}, ProjectStatusOngoing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.project.EffectiveStatus(now))
		})
	}
}
