package billing

import (
	"context"

	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/partner"
)

// TransactionScope runs a unit of work in a single database transaction.
// Every repository handed to fn shares that transaction; an error from fn
// rolls everything back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to one transaction
type TransactionalRepositories interface {
	ProjectRepo() billing.ProjectRepository
	ClientRepo() partner.ClientRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
// It is used in tests and wherever transactions are not available.
type NoOpTransactionScope struct {
	projectRepo billing.ProjectRepository
	clientRepo  partner.ClientRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(projectRepo billing.ProjectRepository, clientRepo partner.ClientRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{projectRepo: projectRepo, clientRepo: clientRepo}
}

// Execute runs fn without a transaction
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProjectRepo returns the project repository
func (s *NoOpTransactionScope) ProjectRepo() billing.ProjectRepository {
	return s.projectRepo
}

// ClientRepo returns the client repository
func (s *NoOpTransactionScope) ClientRepo() partner.ClientRepository {
	return s.clientRepo
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
