package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billingapp "github.com/tiller/backend/internal/application/billing"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/catalog"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/partner"
	"github.com/tiller/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ClientProjects is the slice of the project store a client view needs
type ClientProjects interface {
	FindByClient(ctx context.Context, clientID uuid.UUID) ([]billing.Project, error)
	ExistsByClient(ctx context.Context, clientID uuid.UUID) (bool, error)
}

// ClientService manages clients and their portfolio view
type ClientService struct {
	clientRepo     partner.ClientRepository
	projectRepo    ClientProjects
	departmentRepo identity.DepartmentRepository
	categoryRepo   catalog.CategoryRepository
	publisher      shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewClientService creates a new client service
func NewClientService(
	clientRepo partner.ClientRepository,
	projectRepo ClientProjects,
	departmentRepo identity.DepartmentRepository,
	categoryRepo catalog.CategoryRepository,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clientRepo:     clientRepo,
		projectRepo:    projectRepo,
		departmentRepo: departmentRepo,
		categoryRepo:   categoryRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// SetEventPublisher sets the publisher for client events
func (s *ClientService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// List returns clients ordered by name with their totals
func (s *ClientService) List(ctx context.Context, filter ClientListFilter) ([]ClientListItem, error) {
	summaries, err := s.clientRepo.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, err
	}
	items := make([]ClientListItem, len(summaries))
	for i := range summaries {
		items[i] = toClientListItem(&summaries[i])
	}
	return items, nil
}

// GetByID returns a client with its projects and its rank by portfolio value
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*ClientDetailResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rank, err := s.clientRepo.Rank(ctx, id)
	if err != nil {
		return nil, err
	}
	projects, err := s.projectRepo.FindByClient(ctx, id)
	if err != nil {
		return nil, err
	}

	resolver := billingapp.NewRefResolver(s.clientRepo, s.departmentRepo, s.categoryRepo)
	now := s.now()
	detail := &ClientDetailResponse{
		ClientResponse: ToClientResponse(client),
		Rank:           rank,
		TotalBudget:    decimal.Zero,
		TotalReceived:  decimal.Zero,
		Projects:       make([]billingapp.ProjectResponse, len(projects)),
	}
	for i := range projects {
		p := &projects[i]
		refs, err := resolver.Resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		detail.Projects[i] = billingapp.ToProjectResponse(p, refs, now)
		detail.TotalBudget = detail.TotalBudget.Add(p.TotalValue)
		detail.TotalReceived = detail.TotalReceived.Add(p.ReceivedAmount())
	}
	detail.TotalRemaining = detail.TotalBudget.Sub(detail.TotalReceived)
	return detail, nil
}

// Create creates a client
func (s *ClientService) Create(ctx context.Context, req ClientRequest) (*ClientResponse, error) {
	client, err := partner.NewClient(req.toDetails())
	if err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}

	s.logger.Info("Client created", zap.String("client_id", client.ID.String()), zap.String("name", client.Name))
	s.publish(ctx, client)

	resp := ToClientResponse(client)
	return &resp, nil
}

// Update replaces a client's details
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := client.Update(req.toDetails()); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}
	resp := ToClientResponse(client)
	return &resp, nil
}

// Delete removes a client that owns no projects
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	owns, err := s.projectRepo.ExistsByClient(ctx, id)
	if err != nil {
		return err
	}
	if owns {
		return shared.NewDomainError("IN_USE", "Client still has projects")
	}
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Client deleted", zap.String("client_id", id.String()))
	return nil
}

func (s *ClientService) publish(ctx context.Context, client *partner.Client) {
	events := client.GetDomainEvents()
	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Error("Failed to publish client events", zap.Error(err))
		}
	}
	client.ClearDomainEvents()
}
