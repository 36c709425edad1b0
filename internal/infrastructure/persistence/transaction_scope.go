package persistence

import (
	"context"

	billingapp "github.com/tiller/backend/internal/application/billing"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/partner"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. The transaction is rolled
// back when fn returns an error and committed otherwise.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos billingapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ProjectRepo returns the project repository scoped to the current transaction
func (r *gormTransactionalRepositories) ProjectRepo() billing.ProjectRepository {
	return NewGormProjectRepository(r.tx)
}

// ClientRepo returns the client repository scoped to the current transaction
func (r *gormTransactionalRepositories) ClientRepo() partner.ClientRepository {
	return NewGormClientRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ billingapp.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ billingapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
