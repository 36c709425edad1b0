package report

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	billingapp "github.com/tiller/backend/internal/application/billing"
	"github.com/tiller/backend/internal/domain/report"
)

// DashboardQuery holds the query parameters shared by every dashboard widget
type DashboardQuery struct {
	Search       string             `form:"search"`
	DepartmentID billingapp.QueryID `form:"departmentId"`
	ClientID     billingapp.QueryID `form:"clientId"`
	ProjectID    billingapp.QueryID `form:"projectId"`
	Year         *int               `form:"year" binding:"omitempty,min=1900,max=3000"`
}

func (q DashboardQuery) toDomain() report.DashboardFilter {
	return report.DashboardFilter{
		Search:       strings.TrimSpace(q.Search),
		DepartmentID: q.DepartmentID.Ptr(),
		ClientID:     q.ClientID.Ptr(),
		ProjectID:    q.ProjectID.Ptr(),
	}
}

// cacheKey identifies one widget result for one filter
func cacheKey(widget string, f report.DashboardFilter, extra ...string) string {
	parts := []string{widget, strings.ToLower(f.Search), idPart(f.DepartmentID), idPart(f.ClientID), idPart(f.ProjectID)}
	parts = append(parts, extra...)
	return strings.Join(parts, ":")
}

func idPart(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}

func yearPart(year int) string {
	return strconv.Itoa(year)
}

// SuggestionQuery is the query of GET /search/suggestions
type SuggestionQuery struct {
	Query string `form:"query" binding:"max=100"`
}
