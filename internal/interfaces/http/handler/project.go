package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/tiller/backend/internal/application/billing"
)

// ProjectService is the part of billingapp.ProjectService the handler uses
type ProjectService interface {
	List(ctx context.Context, f billingapp.ProjectListFilter) ([]billingapp.ProjectResponse, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*billingapp.ProjectResponse, error)
	Create(ctx context.Context, req billingapp.CreateProjectRequest) (*billingapp.ProjectResponse, error)
	Update(ctx context.Context, id uuid.UUID, req billingapp.UpdateProjectRequest) (*billingapp.ProjectResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ClearGuarantee(ctx context.Context, id uuid.UUID) (*billingapp.ProjectResponse, error)
	AddBill(ctx context.Context, projectID uuid.UUID, req billingapp.AddBillRequest) (*billingapp.BillResponse, error)
}

// DocumentService renders the downloadable documents
type DocumentService interface {
	ProjectStatement(ctx context.Context, projectID uuid.UUID) ([]byte, string, error)
	BillReceipt(ctx context.Context, billID uuid.UUID) ([]byte, string, error)
	ExportBills(ctx context.Context, f billingapp.BillListFilter) ([]byte, string, error)
}

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ProjectHandler handles project endpoints
type ProjectHandler struct {
	BaseHandler
	projectService  ProjectService
	documentService DocumentService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService ProjectService, documentService DocumentService) *ProjectHandler {
	return &ProjectHandler{
		projectService:  projectService,
		documentService: documentService,
	}
}

// List godoc
// @Summary      List projects
// @Description  Projects with computed totals and effective status, newest start date first
// @Tags         projects
// @Produce      json
// @Param        search query string false "Project or client name contains"
// @Param        departmentId query string false "Department ID"
// @Param        categoryId query string false "Category ID"
// @Param        clientId query string false "Client ID"
// @Param        projectId query string false "Project ID"
// @Param        year query int false "Start date year"
// @Param        status query string false "Effective status" Enums(FUTURE, ONGOING, COMPLETED, OUTSTANDING, all)
// @Param        page query int false "Page"
// @Param        pageSize query int false "Page size"
// @Success      200 {object} APIResponse[[]billingapp.ProjectResponse]
// @Security     BearerAuth
// @Router       /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	var filter billingapp.ProjectListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	projects, total, err := h.projectService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, projects, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get a project
// @Description  The project with client, department, category and bills by tentative billing date
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} APIResponse[billingapp.ProjectResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	project, err := h.projectService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// Create godoc
// @Summary      Create a project
// @Description  Creates the project, an inline client when newClient is given, and its milestones in one transaction
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body billingapp.CreateProjectRequest true "Project"
// @Success      201 {object} APIResponse[billingapp.ProjectResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req billingapp.CreateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}
	project, err := h.projectService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, project)
}

// Update godoc
// @Summary      Update a project
// @Description  Partial update. "pg": null removes a pending guarantee.
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body billingapp.UpdateProjectRequest true "Changed fields"
// @Success      200 {object} APIResponse[billingapp.ProjectResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [patch]
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}
	project, err := h.projectService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// Delete godoc
// @Summary      Delete a project
// @Description  Removes the project with its bills and files
// @Tags         projects
// @Param        id path string true "Project ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.projectService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ClearGuarantee godoc
// @Summary      Clear the project guarantee
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} APIResponse[billingapp.ProjectResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/clear-pg [patch]
func (h *ProjectHandler) ClearGuarantee(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	project, err := h.projectService.ClearGuarantee(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// AddBill godoc
// @Summary      Add a milestone bill
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body billingapp.AddBillRequest true "Bill"
// @Success      201 {object} APIResponse[billingapp.BillResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/bills [post]
func (h *ProjectHandler) AddBill(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.AddBillRequest
	if !h.bindJSON(c, &req) {
		return
	}
	bill, err := h.projectService.AddBill(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// Statement godoc
// @Summary      Project statement
// @Description  The project statement as PDF
// @Tags         projects
// @Produce      application/pdf
// @Param        id path string true "Project ID"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/statement.pdf [get]
func (h *ProjectHandler) Statement(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	pdf, fileName, err := h.documentService.ProjectStatement(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, contentTypePDF, fileName, pdf)
}
