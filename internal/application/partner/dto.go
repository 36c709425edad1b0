package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billingapp "github.com/tiller/backend/internal/application/billing"
	"github.com/tiller/backend/internal/domain/partner"
	"github.com/tiller/backend/internal/domain/shared"
)

// ClientRequest is the body of POST and PATCH /clients
type ClientRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=200"`
	ContactPerson string `json:"contactPerson" binding:"max=200"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone" binding:"max=50"`
	Address       string `json:"address" binding:"max=500"`
}

func (r ClientRequest) toDetails() partner.ClientDetails {
	return partner.ClientDetails{
		Name:          r.Name,
		ContactPerson: r.ContactPerson,
		ContactEmail:  r.Email,
		ContactPhone:  r.Phone,
		Address:       r.Address,
	}
}

// ClientListFilter is the query of GET /clients
type ClientListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"orderBy"`
	OrderDir string `form:"orderDir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

func (f ClientListFilter) toDomain() partner.ClientFilter {
	return partner.ClientFilter{Filter: shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}}
}

// ClientResponse is the public view of a client
type ClientResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contactPerson"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ClientListItem is a client row with its portfolio totals
type ClientListItem struct {
	ClientResponse
	ProjectCount   int64           `json:"projectCount"`
	TotalBudget    decimal.Decimal `json:"totalBudget"`
	TotalReceived  decimal.Decimal `json:"totalReceived"`
	TotalRemaining decimal.Decimal `json:"totalRemaining"`
}

// ClientDetailResponse is a client with its projects and rank
type ClientDetailResponse struct {
	ClientResponse
	Rank           int                          `json:"rank"`
	TotalBudget    decimal.Decimal              `json:"totalBudget"`
	TotalReceived  decimal.Decimal              `json:"totalReceived"`
	TotalRemaining decimal.Decimal              `json:"totalRemaining"`
	Projects       []billingapp.ProjectResponse `json:"projects"`
}

// ToClientResponse converts a domain client
func ToClientResponse(c *partner.Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID,
		Name:          c.Name,
		ContactPerson: c.ContactPerson,
		Email:         c.ContactEmail,
		Phone:         c.ContactPhone,
		Address:       c.Address,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toClientListItem(s *partner.ClientSummary) ClientListItem {
	return ClientListItem{
		ClientResponse: ToClientResponse(&s.Client),
		ProjectCount:   s.ProjectCount,
		TotalBudget:    s.TotalBudget,
		TotalReceived:  s.TotalReceived,
		TotalRemaining: s.TotalBudget.Sub(s.TotalReceived),
	}
}
