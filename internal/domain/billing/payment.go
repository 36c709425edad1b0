package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/shared"
)

// PaymentInput is everything needed to derive the effect of a payment on a bill
type PaymentInput struct {
	BillAmount    decimal.Decimal
	PriorReceived decimal.Decimal
	Amount        decimal.Decimal
	ProjectValue  decimal.Decimal
	ReceivedDate  time.Time
}

// PaymentOutcome is the state of a bill after a payment. The percentages are
// relative to the project value.
type PaymentOutcome struct {
	ReceivedAmount   decimal.Decimal
	RemainingAmount  decimal.Decimal
	ReceivedPercent  decimal.Decimal
	RemainingPercent decimal.Decimal
	Status           BillStatus
	ReceivedDate     time.Time
}

// DeriveStatus maps a cumulative received amount onto a bill status
func DeriveStatus(received, billAmount decimal.Decimal) BillStatus {
	switch {
	case !received.IsPositive():
		return BillStatusPending
	case received.GreaterThanOrEqual(billAmount):
		return BillStatusPaid
	default:
		return BillStatusPartial
	}
}

// DerivePayment computes the outcome of applying a payment. It has no side
// effects, so the same input always yields the same outcome whether it is
// used for a preview or for the confirmed write.
func DerivePayment(in PaymentInput) (PaymentOutcome, error) {
	remaining := in.BillAmount.Sub(in.PriorReceived)

	clamp := ClampReceived(in.Amount, remaining)
	switch {
	case !in.Amount.IsPositive():
		err := shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero")
		if clamp.Clamped {
			err = err.WithHint("amount", clamp.Message)
		}
		return PaymentOutcome{}, err
	case clamp.Clamped:
		return PaymentOutcome{}, shared.NewDomainError("EXCEEDS_REMAINING", fmt.Sprintf(
			"Payment amount %s exceeds the remaining balance of %s", in.Amount.String(), clamp.Amount.String())).
			WithHint("amount", clamp.Message)
	}
	if in.ReceivedDate.IsZero() {
		return PaymentOutcome{}, shared.NewDomainError("INVALID_DATE", "Received date is required")
	}

	received := in.PriorReceived.Add(in.Amount)
	newRemaining := in.BillAmount.Sub(received)

	return PaymentOutcome{
		ReceivedAmount:   received,
		RemainingAmount:  newRemaining,
		ReceivedPercent:  PercentFromAmount(received, in.ProjectValue),
		RemainingPercent: PercentFromAmount(newRemaining, in.ProjectValue),
		Status:           DeriveStatus(received, in.BillAmount),
		ReceivedDate:     in.ReceivedDate,
	}, nil
}
