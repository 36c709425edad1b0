package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiller/backend/internal/domain/shared"
)

var paidOn = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		received string
		bill     string
		want     BillStatus
	}{
		{"0", "1000", BillStatusPending},
		{"1", "1000", BillStatusPartial},
		{"999.99", "1000", BillStatusPartial},
		{"1000", "1000", BillStatusPaid},
		{"1200", "1000", BillStatusPaid},
		{"0", "0", BillStatusPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveStatus(d(tt.received), d(tt.bill)), "received %s of %s", tt.received, tt.bill)
	}
}

func TestDerivePayment(t *testing.T) {
	in := PaymentInput{
		BillAmount:    d("250000"),
		PriorReceived: decimal.Zero,
		Amount:        d("100000"),
		ProjectValue:  d("1000000"),
		ReceivedDate:  paidOn,
	}

	out, err := DerivePayment(in)
	require.NoError(t, err)
	assert.True(t, out.ReceivedAmount.Equal(d("100000")))
	assert.True(t, out.RemainingAmount.Equal(d("150000")))
	assert.Equal(t, "10.00", out.ReceivedPercent.StringFixed(2))
	assert.Equal(t, "15.00", out.RemainingPercent.StringFixed(2))
	assert.Equal(t, BillStatusPartial, out.Status)
	assert.Equal(t, paidOn, out.ReceivedDate)
}

func TestDerivePayment_IsDeterministic(t *testing.T) {
	in := PaymentInput{
		BillAmount:    d("250000"),
		PriorReceived: d("100000"),
		Amount:        d("150000"),
		ProjectValue:  d("1000000"),
		ReceivedDate:  paidOn,
	}
	first, err := DerivePayment(in)
	require.NoError(t, err)
	second, err := DerivePayment(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, BillStatusPaid, first.Status)
	assert.True(t, first.RemainingAmount.IsZero())
}

func TestDerivePayment_Rejections(t *testing.T) {
	base := PaymentInput{
		BillAmount:    d("250000"),
		PriorReceived: d("200000"),
		ProjectValue:  d("1000000"),
		ReceivedDate:  paidOn,
	}
	tests := []struct {
		name   string
		amount string
		date   time.Time
		code   string
	}{
		{"zero", "0", paidOn, "INVALID_AMOUNT"},
		{"negative", "-1", paidOn, "INVALID_AMOUNT"},
		{"above remaining", "60000", paidOn, "EXCEEDS_REMAINING"},
		{"missing date", "1000", time.Time{}, "INVALID_DATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.Amount = d(tt.amount)
			in.ReceivedDate = tt.date
			_, err := DerivePayment(in)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestDerivePayment_RejectionCarriesCorrection(t *testing.T) {
	in := PaymentInput{
		BillAmount:    d("250000"),
		PriorReceived: d("200000"),
		Amount:        d("60000"),
		ProjectValue:  d("1000000"),
		ReceivedDate:  paidOn,
	}
	_, err := DerivePayment(in)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "EXCEEDS_REMAINING", de.Code)
	assert.Equal(t, "Payment amount 60000 exceeds the remaining balance of 50000", de.Message)
	assert.Equal(t, "amount", de.Field)
	assert.Equal(t, "Received amount cannot exceed the remaining balance, it was set to 50000", de.Hint)

	in.Amount = d("-5")
	_, err = DerivePayment(in)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_AMOUNT", de.Code)
	assert.Equal(t, "Received amount cannot be negative, it was set to 0", de.Hint)

	in.Amount = decimal.Zero
	_, err = DerivePayment(in)
	require.ErrorAs(t, err, &de)
	assert.Empty(t, de.Hint)
}
