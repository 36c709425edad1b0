package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/identity"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse carries a freshly issued token pair
type TokenResponse struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	TokenType             string    `json:"tokenType"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	TokenResponse
	User UserResponse `json:"user"`
}

// UserResponse is the public view of an account; the password hash never leaves the service
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Email    string `json:"email" binding:"required,email,max=200"`
	Role     string `json:"role" binding:"omitempty,oneof=SUPERADMIN USER"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest is the body of PATCH /users/:id
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=200"`
	Email    *string `json:"email" binding:"omitempty,email,max=200"`
	Role     *string `json:"role" binding:"omitempty,oneof=SUPERADMIN USER"`
	IsActive *bool   `json:"isActive"`
}

func (r UpdateUserRequest) toPatch() identity.UserPatch {
	patch := identity.UserPatch{
		Name:     r.Name,
		Email:    r.Email,
		IsActive: r.IsActive,
	}
	if r.Role != nil {
		role := identity.Role(*r.Role)
		patch.Role = &role
	}
	return patch
}

// ChangePasswordRequest is the body of PATCH /users/:id/password.
// Length is checked by the domain so the message matches on every path.
type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// Actor is the authenticated user performing a request
type Actor struct {
	ID   uuid.UUID
	Role identity.Role
}

// IsSuperAdmin reports whether the actor holds the SUPERADMIN role
func (a Actor) IsSuperAdmin() bool {
	return a.Role == identity.RoleSuperAdmin
}

// DepartmentRequest is the body of POST and PATCH /departments
type DepartmentRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// DepartmentResponse is the public view of a department
type DepartmentResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToUserResponse converts a domain user
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ToDepartmentResponse converts a domain department
func ToDepartmentResponse(d *identity.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
