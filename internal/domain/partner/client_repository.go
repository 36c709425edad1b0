package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/shared"
)

// ClientFilter defines filtering options for client queries
type ClientFilter struct {
	shared.Filter
}

// ClientSummary is a client with its portfolio totals
type ClientSummary struct {
	Client        Client
	ProjectCount  int64
	TotalBudget   decimal.Decimal
	TotalReceived decimal.Decimal
}

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// FindByID finds a client by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindAll lists clients by name with their totals; Search matches the
	// name or the contact person
	FindAll(ctx context.Context, filter ClientFilter) ([]ClientSummary, error)

	// Save creates or updates a client
	Save(ctx context.Context, client *Client) error

	// Delete removes a client
	Delete(ctx context.Context, id uuid.UUID) error

	// Rank is the 1-based position of the client when clients are ordered by
	// the summed value of their projects, highest first
	Rank(ctx context.Context, id uuid.UUID) (int, error)
}
