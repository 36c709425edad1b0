package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	billingapp "github.com/tiller/backend/internal/application/billing"
	reportapp "github.com/tiller/backend/internal/application/report"
	"github.com/tiller/backend/internal/domain/report"
)

// DashboardService is the part of reportapp.DashboardService the handler uses
type DashboardService interface {
	Metrics(ctx context.Context, q reportapp.DashboardQuery) (report.Metrics, error)
	Deadlines(ctx context.Context, q reportapp.DashboardQuery) ([]report.Deadline, error)
	Revenue(ctx context.Context, q reportapp.DashboardQuery) ([]report.MonthlyRevenue, error)
	RevenueYearly(ctx context.Context, q reportapp.DashboardQuery) ([]report.YearlyRevenue, error)
	BudgetComparison(ctx context.Context, q reportapp.DashboardQuery) ([]report.BudgetComparison, error)
	Distribution(ctx context.Context, q reportapp.DashboardQuery) ([]report.CategoryShare, error)
	LastReceived(ctx context.Context, q reportapp.DashboardQuery) ([]report.ReceivedPayment, error)
	Calendar(ctx context.Context, q reportapp.DashboardQuery) ([]report.CalendarEvent, error)
	Projects(ctx context.Context, q reportapp.DashboardQuery) ([]billingapp.ProjectResponse, error)
}

// DashboardHandler serves the dashboard widgets. Every widget accepts the
// search, departmentId, clientId and projectId filters.
type DashboardHandler struct {
	BaseHandler
	dashboardService DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// widget binds the shared query and writes the widget result
func widget[T any](h *DashboardHandler, c *gin.Context, compute func(context.Context, reportapp.DashboardQuery) (T, error)) {
	var q reportapp.DashboardQuery
	if !h.bindQuery(c, &q) {
		return
	}
	result, err := compute(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Metrics godoc
// @Summary      Headline figures
// @Tags         dashboard
// @Produce      json
// @Param        search query string false "Project or client name contains"
// @Param        departmentId query string false "Department ID"
// @Param        clientId query string false "Client ID"
// @Param        projectId query string false "Project ID"
// @Success      200 {object} APIResponse[report.Metrics]
// @Security     BearerAuth
// @Router       /dashboard/metrics [get]
func (h *DashboardHandler) Metrics(c *gin.Context) {
	widget(h, c, h.dashboardService.Metrics)
}

// Deadlines godoc
// @Summary      Next five unpaid bills
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[[]report.Deadline]
// @Security     BearerAuth
// @Router       /dashboard/deadlines [get]
func (h *DashboardHandler) Deadlines(c *gin.Context) {
	widget(h, c, h.dashboardService.Deadlines)
}

// Revenue godoc
// @Summary      Monthly revenue
// @Description  Twelve months of PAID receipts for the given year, the current year by default
// @Tags         dashboard
// @Produce      json
// @Param        year query int false "Year"
// @Success      200 {object} APIResponse[[]report.MonthlyRevenue]
// @Security     BearerAuth
// @Router       /dashboard/revenue [get]
func (h *DashboardHandler) Revenue(c *gin.Context) {
	widget(h, c, h.dashboardService.Revenue)
}

// RevenueYearly godoc
// @Summary      Yearly revenue
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[[]report.YearlyRevenue]
// @Security     BearerAuth
// @Router       /dashboard/revenue-yearly [get]
func (h *DashboardHandler) RevenueYearly(c *gin.Context) {
	widget(h, c, h.dashboardService.RevenueYearly)
}

// BudgetComparison godoc
// @Summary      Received against remaining per project
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[[]report.BudgetComparison]
// @Security     BearerAuth
// @Router       /dashboard/budget-comparison [get]
func (h *DashboardHandler) BudgetComparison(c *gin.Context) {
	widget(h, c, h.dashboardService.BudgetComparison)
}

// Distribution godoc
// @Summary      Projects per category
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[[]report.CategoryShare]
// @Security     BearerAuth
// @Router       /dashboard/distribution [get]
func (h *DashboardHandler) Distribution(c *gin.Context) {
	widget(h, c, h.dashboardService.Distribution)
}

// LastReceived godoc
// @Summary      Latest payments
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[[]report.ReceivedPayment]
// @Security     BearerAuth
// @Router       /dashboard/last-received [get]
func (h *DashboardHandler) LastReceived(c *gin.Context) {
	widget(h, c, h.dashboardService.LastReceived)
}

// Calendar godoc
// @Summary      Calendar events
// @Description  Project signings, guarantee clearances, tentative and received payments
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[[]report.CalendarEvent]
// @Security     BearerAuth
// @Router       /dashboard/calendar [get]
func (h *DashboardHandler) Calendar(c *gin.Context) {
	widget(h, c, h.dashboardService.Calendar)
}

// Projects godoc
// @Summary      Dashboard project list
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[[]billingapp.ProjectResponse]
// @Security     BearerAuth
// @Router       /dashboard/projects [get]
func (h *DashboardHandler) Projects(c *gin.Context) {
	widget(h, c, h.dashboardService.Projects)
}
