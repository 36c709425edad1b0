package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/shared"
)

// Guarantee is the optional project guarantee (PG). The bank covers
// BankSharePercent of the amount and the company deposits the rest. Amount
// is kept as entered; its share of the project value is derived on read.
type Guarantee struct {
	Amount           decimal.Decimal
	BankSharePercent decimal.Decimal
	UserDeposit      decimal.Decimal
	Status           GuaranteeStatus
	ClearanceDate    *time.Time
}

// GuaranteeInput sets up a guarantee from either a percent of the project
// value or an absolute amount.
type GuaranteeInput struct {
	Percent          *decimal.Decimal
	Amount           *decimal.Decimal
	BankSharePercent decimal.Decimal
}

// NewGuarantee computes a pending guarantee against a project value
func NewGuarantee(in GuaranteeInput, projectValue decimal.Decimal) (*Guarantee, error) {
	if in.BankSharePercent.IsNegative() || in.BankSharePercent.GreaterThan(hundred) {
		return nil, shared.NewDomainError("INVALID_PERCENT", "Bank share percent must be between 0 and 100")
	}

	g := &Guarantee{
		BankSharePercent: in.BankSharePercent,
		Status:           GuaranteeStatusPending,
	}
	switch {
	case in.Amount != nil && in.Amount.IsPositive():
		g.Amount = *in.Amount
	case in.Percent != nil && in.Percent.IsPositive():
		if in.Percent.GreaterThan(hundred) {
			return nil, shared.NewDomainError("INVALID_PERCENT", "Guarantee percent must be between 0 and 100")
		}
		g.Amount = AmountFromPercent(*in.Percent, projectValue)
	default:
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Guarantee amount or percent must be greater than zero")
	}
	if g.Amount.GreaterThan(projectValue) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Guarantee amount cannot exceed the project value")
	}

	g.UserDeposit = hundred.Sub(g.BankSharePercent).Mul(g.Amount).Div(hundred).Round(2)
	return g, nil
}

// Percent is the guarantee amount as a percentage of projectValue
func (g *Guarantee) Percent(projectValue decimal.Decimal) decimal.Decimal {
	return PercentFromAmount(g.Amount, projectValue)
}

// BankShare is the part of the guarantee covered by the bank
func (g *Guarantee) BankShare() decimal.Decimal {
	return g.Amount.Sub(g.UserDeposit)
}

// IsSet reports whether a guarantee with a positive amount exists
func (g *Guarantee) IsSet() bool {
	return g != nil && g.Amount.IsPositive()
}

// IsCleared reports whether the guarantee has been released
func (g *Guarantee) IsCleared() bool {
	return g != nil && g.Status == GuaranteeStatusCleared
}
