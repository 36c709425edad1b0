package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	partnerapp "github.com/tiller/backend/internal/application/partner"
)

// ClientService is the part of partnerapp.ClientService the handler uses
type ClientService interface {
	List(ctx context.Context, filter partnerapp.ClientListFilter) ([]partnerapp.ClientListItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*partnerapp.ClientDetailResponse, error)
	Create(ctx context.Context, req partnerapp.ClientRequest) (*partnerapp.ClientResponse, error)
	Update(ctx context.Context, id uuid.UUID, req partnerapp.ClientRequest) (*partnerapp.ClientResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ClientHandler handles client endpoints
type ClientHandler struct {
	BaseHandler
	clientService ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// List godoc
// @Summary      List clients
// @Description  Clients with project counts; search matches the client name
// @Tags         clients
// @Produce      json
// @Param        search query string false "Name contains"
// @Param        page query int false "Page"
// @Param        pageSize query int false "Page size"
// @Success      200 {object} APIResponse[[]partnerapp.ClientListItem]
// @Security     BearerAuth
// @Router       /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	var filter partnerapp.ClientListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	clients, err := h.clientService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, clients)
}

// GetByID godoc
// @Summary      Get a client
// @Description  The client with its projects and its rank by total project value
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID"
// @Success      200 {object} APIResponse[partnerapp.ClientDetailResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{id} [get]
func (h *ClientHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	client, err := h.clientService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// Create godoc
// @Summary      Create a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.ClientRequest true "Client"
// @Success      201 {object} APIResponse[partnerapp.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var req partnerapp.ClientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	client, err := h.clientService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// Update godoc
// @Summary      Update a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id path string true "Client ID"
// @Param        request body partnerapp.ClientRequest true "Client"
// @Success      200 {object} APIResponse[partnerapp.ClientResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{id} [patch]
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.ClientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	client, err := h.clientService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// Delete godoc
// @Summary      Delete a client
// @Description  Fails with 409 while the client still owns projects
// @Tags         clients
// @Param        id path string true "Client ID"
// @Success      204
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.clientService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
