package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/tiller/backend/internal/application/billing"
)

// BillService is the part of billingapp.BillService the handler uses
type BillService interface {
	List(ctx context.Context, f billingapp.BillListFilter) ([]billingapp.BillRowResponse, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*billingapp.BillRowResponse, error)
	Update(ctx context.Context, id uuid.UUID, req billingapp.UpdateBillRequest) (*billingapp.BillResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PreviewPayment(ctx context.Context, id uuid.UUID, req billingapp.PaymentRequest) (*billingapp.PaymentPreviewResponse, error)
	RecordPayment(ctx context.Context, id uuid.UUID, req billingapp.PaymentRequest) (*billingapp.PaymentResponse, error)
}

// BillHandler handles bill and payment endpoints
type BillHandler struct {
	BaseHandler
	billService     BillService
	documentService DocumentService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billService BillService, documentService DocumentService) *BillHandler {
	return &BillHandler{
		billService:     billService,
		documentService: documentService,
	}
}

// List godoc
// @Summary      List bills
// @Description  Bills with their project, client and department, by tentative billing date
// @Tags         bills
// @Produce      json
// @Param        search query string false "Bill, project or client name contains"
// @Param        status query string false "Status" Enums(PENDING, PARTIAL, PAID, OVERDUE, all)
// @Param        departmentId query string false "Department ID"
// @Param        clientId query string false "Client ID"
// @Param        projectId query string false "Project ID"
// @Param        year query int false "Tentative billing date year"
// @Param        page query int false "Page"
// @Param        pageSize query int false "Page size"
// @Success      200 {object} APIResponse[[]billingapp.BillRowResponse]
// @Security     BearerAuth
// @Router       /bills [get]
func (h *BillHandler) List(c *gin.Context) {
	var filter billingapp.BillListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	bills, total, err := h.billService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, bills, total, filter.Page, filter.PageSize)
}

// Export godoc
// @Summary      Export bills
// @Description  The filtered bill list as an xlsx spreadsheet; paging is ignored
// @Tags         bills
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        search query string false "Bill, project or client name contains"
// @Param        status query string false "Status"
// @Success      200 {file} binary
// @Security     BearerAuth
// @Router       /bills/export.xlsx [get]
func (h *BillHandler) Export(c *gin.Context) {
	var filter billingapp.BillListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	content, fileName, err := h.documentService.ExportBills(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, contentTypeXLSX, fileName, content)
}

// GetByID godoc
// @Summary      Get a bill
// @Tags         bills
// @Produce      json
// @Param        id path string true "Bill ID"
// @Success      200 {object} APIResponse[billingapp.BillRowResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id} [get]
func (h *BillHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	bill, err := h.billService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Update godoc
// @Summary      Update a bill
// @Description  Partial update; percent and amount are kept consistent and the status is re-derived
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        request body billingapp.UpdateBillRequest true "Changed fields"
// @Success      200 {object} APIResponse[billingapp.BillResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id} [patch]
func (h *BillHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdateBillRequest
	if !h.bindJSON(c, &req) {
		return
	}
	bill, err := h.billService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Delete godoc
// @Summary      Delete a bill
// @Tags         bills
// @Param        id path string true "Bill ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id} [delete]
func (h *BillHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.billService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// PreviewPayment godoc
// @Summary      Preview a payment
// @Description  What recording the payment would do, without saving anything
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        request body billingapp.PaymentRequest true "Payment"
// @Success      200 {object} APIResponse[billingapp.PaymentPreviewResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id}/payments/preview [post]
func (h *BillHandler) PreviewPayment(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.PaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	preview, err := h.billService.PreviewPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// RecordPayment godoc
// @Summary      Record a payment
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        request body billingapp.PaymentRequest true "Payment"
// @Success      201 {object} APIResponse[billingapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id}/payments [post]
func (h *BillHandler) RecordPayment(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.PaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	payment, err := h.billService.RecordPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Receipt godoc
// @Summary      Payment receipt
// @Description  Receipt PDF for a bill that has received money
// @Tags         bills
// @Produce      application/pdf
// @Param        id path string true "Bill ID"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id}/receipt.pdf [get]
func (h *BillHandler) Receipt(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	pdf, fileName, err := h.documentService.BillReceipt(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, contentTypePDF, fileName, pdf)
}
