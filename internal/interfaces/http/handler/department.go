package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/tiller/backend/internal/application/identity"
)

// DepartmentService is the part of identityapp.DepartmentService the handler uses
type DepartmentService interface {
	List(ctx context.Context, search string) ([]identityapp.DepartmentResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*identityapp.DepartmentResponse, error)
	Create(ctx context.Context, req identityapp.DepartmentRequest) (*identityapp.DepartmentResponse, error)
	Update(ctx context.Context, id uuid.UUID, req identityapp.DepartmentRequest) (*identityapp.DepartmentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DepartmentHandler handles department endpoints
type DepartmentHandler struct {
	BaseHandler
	departmentService DepartmentService
}

// NewDepartmentHandler creates a new DepartmentHandler
func NewDepartmentHandler(departmentService DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

// List godoc
// @Summary      List departments
// @Tags         departments
// @Produce      json
// @Param        search query string false "Name contains"
// @Success      200 {object} APIResponse[[]identityapp.DepartmentResponse]
// @Security     BearerAuth
// @Router       /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	departments, err := h.departmentService.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, departments)
}

// GetByID godoc
// @Summary      Get a department
// @Tags         departments
// @Produce      json
// @Param        id path string true "Department ID"
// @Success      200 {object} APIResponse[identityapp.DepartmentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /departments/{id} [get]
func (h *DepartmentHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	department, err := h.departmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, department)
}

// Create godoc
// @Summary      Create a department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Param        request body identityapp.DepartmentRequest true "Department"
// @Success      201 {object} APIResponse[identityapp.DepartmentResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req identityapp.DepartmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	department, err := h.departmentService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, department)
}

// Update godoc
// @Summary      Rename a department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Param        id path string true "Department ID"
// @Param        request body identityapp.DepartmentRequest true "Department"
// @Success      200 {object} APIResponse[identityapp.DepartmentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /departments/{id} [patch]
func (h *DepartmentHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req identityapp.DepartmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	department, err := h.departmentService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, department)
}

// Delete godoc
// @Summary      Delete a department
// @Description  Fails with 409 while projects still reference it
// @Tags         departments
// @Param        id path string true "Department ID"
// @Success      204
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.departmentService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
