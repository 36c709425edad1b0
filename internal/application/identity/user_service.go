package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService manages accounts. Role checks for the admin-only routes are
// enforced by the router; password changes are checked here because a plain
// user may change their own.
type UserService struct {
	userRepo   identity.UserRepository
	blacklist  auth.TokenBlacklist
	jwtService *auth.JWTService
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		blacklist:  blacklist,
		jwtService: jwtService,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher for user events
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

var errEmailTaken = shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")

// List returns every user, newest first
func (s *UserService) List(ctx context.Context) ([]UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]UserResponse, len(users))
	for i := range users {
		result[i] = ToUserResponse(&users[i])
	}
	return result, nil
}

// GetByID returns one user
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// Create creates an active account
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	taken, err := s.userRepo.ExistsByEmail(ctx, req.Email, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errEmailTaken
	}

	user, err := identity.NewUser(req.Name, req.Email, req.Password, identity.Role(req.Role))
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))
	s.publish(ctx, user)

	resp := ToUserResponse(user)
	return &resp, nil
}

// Update applies a partial update of name, email, role and active flag
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		taken, err := s.userRepo.ExistsByEmail(ctx, *req.Email, &id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, errEmailTaken
		}
	}

	wasActive := user.IsActive
	wasSuperAdmin := user.IsSuperAdmin()
	if err := user.Update(req.toPatch()); err != nil {
		return nil, err
	}
	if wasSuperAdmin && (!user.IsSuperAdmin() || !user.IsActive) {
		if err := s.ensureAnotherSuperAdmin(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if wasActive && !user.IsActive {
		s.revokeSessions(ctx, user.ID)
	}

	s.logger.Info("User updated", zap.String("user_id", user.ID.String()))
	resp := ToUserResponse(user)
	return &resp, nil
}

// Delete removes an account. The last SUPERADMIN cannot be removed.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.ID == id {
		return shared.NewDomainError("VALIDATION_ERROR", "You cannot delete your own account")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsSuperAdmin() {
		if err := s.ensureAnotherSuperAdmin(ctx); err != nil {
			return err
		}
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.logger.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

// ChangePassword sets a new password. Only a SUPERADMIN or the account owner may do so.
func (s *UserService) ChangePassword(ctx context.Context, actor Actor, id uuid.UUID, req ChangePasswordRequest) error {
	if !actor.IsSuperAdmin() && actor.ID != id {
		return shared.NewDomainError("FORBIDDEN", "You can only change your own password")
	}
	if err := identity.ValidatePassword(req.Password); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(req.Password); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	// an admin reset signs the owner out everywhere
	if actor.ID != id {
		s.revokeSessions(ctx, id)
	}
	s.logger.Info("User password changed",
		zap.String("user_id", id.String()),
		zap.String("changed_by", actor.ID.String()))
	s.publish(ctx, user)
	return nil
}

func (s *UserService) ensureAnotherSuperAdmin(ctx context.Context) error {
	count, err := s.userRepo.CountByRole(ctx, identity.RoleSuperAdmin)
	if err != nil {
		return err
	}
	if count <= 1 {
		return shared.NewDomainError("VALIDATION_ERROR", "At least one SUPERADMIN account must remain")
	}
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, id uuid.UUID) {
	ttl := auth.DefaultSessionTTL
	if s.jwtService != nil {
		ttl = s.jwtService.GetRefreshTokenExpiration()
	}
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, id.String(), ttl); err != nil {
		s.logger.Error("Failed to revoke user sessions", zap.String("user_id", id.String()), zap.Error(err))
	}
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	events := user.GetDomainEvents()
	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Failed to publish user events", zap.Error(err))
		}
	}
	user.ClearDomainEvents()
}
