package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the access level of a user
type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleUser       Role = "USER"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	return r == RoleSuperAdmin || r == RoleUser
}

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// bcrypt cost for stored password hashes
const bcryptCost = 10

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is an account that can sign in to Tiller
type User struct {
	shared.BaseAggregateRoot
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	LastLoginAt  *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(name, email, password string, role Role) (*User, error) {
	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		IsActive:          true,
	}
	if err := u.setName(name); err != nil {
		return nil, err
	}
	if err := u.setEmail(email); err != nil {
		return nil, err
	}
	if role == "" {
		role = RoleUser
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be SUPERADMIN or USER")
	}
	u.Role = role
	if err := u.setPassword(password); err != nil {
		return nil, err
	}

	u.AddDomainEvent(NewUserCreatedEvent(u))
	return u, nil
}

func (u *User) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	u.Name = name
	return nil
}

func (u *User) setEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	u.Email = email
	return nil
}

func (u *User) setPassword(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.WrapDomainError("PASSWORD_HASH_ERROR", "Failed to hash password", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// UserPatch is a partial update of a user
type UserPatch struct {
	Name     *string
	Email    *string
	Role     *Role
	IsActive *bool
}

// Update applies a partial update
func (u *User) Update(patch UserPatch) error {
	next := *u
	if patch.Name != nil {
		if err := next.setName(*patch.Name); err != nil {
			return err
		}
	}
	if patch.Email != nil {
		if err := next.setEmail(*patch.Email); err != nil {
			return err
		}
	}
	if patch.Role != nil {
		if !patch.Role.IsValid() {
			return shared.NewDomainError("INVALID_ROLE", "Role must be SUPERADMIN or USER")
		}
		next.Role = *patch.Role
	}
	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}

	u.Name, u.Email, u.Role, u.IsActive = next.Name, next.Email, next.Role, next.IsActive
	u.IncrementVersion()
	return nil
}

// ChangePassword replaces the password hash
func (u *User) ChangePassword(password string) error {
	if err := u.setPassword(password); err != nil {
		return err
	}
	u.IncrementVersion()
	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// CanSignIn reports whether the account is allowed to log in
func (u *User) CanSignIn() bool {
	return u.IsActive
}

// RecordLogin stamps the last login time
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
}

// IsSuperAdmin reports whether the user has full access
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// CanChangePasswordOf reports whether the user may set the password of target
func (u *User) CanChangePasswordOf(target uuid.UUID) bool {
	return u.IsSuperAdmin() || u.ID == target
}

// ValidatePassword enforces the password policy
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 6 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}
