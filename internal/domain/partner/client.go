package partner

import (
	"regexp"
	"strings"

	"github.com/tiller/backend/internal/domain/shared"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Client is an organisation that contracts projects
type Client struct {
	shared.BaseAggregateRoot
	Name          string
	ContactPerson string
	ContactEmail  string
	ContactPhone  string
	Address       string
}

// ClientDetails are the editable fields of a client
type ClientDetails struct {
	Name          string
	ContactPerson string
	ContactEmail  string
	ContactPhone  string
	Address       string
}

// NewClient creates a new client
func NewClient(details ClientDetails) (*Client, error) {
	c := &Client{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := c.apply(details); err != nil {
		return nil, err
	}
	c.AddDomainEvent(NewClientCreatedEvent(c))
	return c, nil
}

// Update replaces the client's details
func (c *Client) Update(details ClientDetails) error {
	if err := c.apply(details); err != nil {
		return err
	}
	c.IncrementVersion()
	return nil
}

func (c *Client) apply(details ClientDetails) error {
	name := strings.TrimSpace(details.Name)
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Company name is required")
	}
	if len(name) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Company name cannot exceed 200 characters")
	}
	email := strings.ToLower(strings.TrimSpace(details.ContactEmail))
	if email != "" && !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid contact email format")
	}
	phone := strings.TrimSpace(details.ContactPhone)
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Contact phone cannot exceed 50 characters")
	}

	c.Name = name
	c.ContactPerson = strings.TrimSpace(details.ContactPerson)
	c.ContactEmail = email
	c.ContactPhone = phone
	c.Address = strings.TrimSpace(details.Address)
	return nil
}
