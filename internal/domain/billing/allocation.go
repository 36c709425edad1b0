package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/shared"
)

// PercentPlaces is the precision of every derived percentage
const PercentPlaces = 2

var (
	hundred = decimal.NewFromInt(100)

	// DefaultAllocationEpsilon is the tolerance used when comparing the sum of
	// bill percentages against 100.
	DefaultAllocationEpsilon = decimal.New(1, -2)
)

// AmountFromPercent converts a percentage of total into a whole currency amount,
// rounding half away from zero. Negative inputs are treated as zero.
func AmountFromPercent(percent, total decimal.Decimal) decimal.Decimal {
	if percent.IsNegative() || !total.IsPositive() {
		return decimal.Zero
	}
	return percent.Mul(total).Div(hundred).Round(0)
}

// PercentFromAmount converts an amount into its percentage of total with two
// decimals. It is zero when total is not positive.
func PercentFromAmount(amount, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() || amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Mul(hundred).Div(total).Round(PercentPlaces)
}

// AllocatedPercent is the share of total covered by amounts. It divides
// once over the summed amounts and is not rounded, so bills that add up to
// total always give exactly 100.
func AllocatedPercent(amounts []decimal.Decimal, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, amounts...).Mul(hundred).DivRound(total, 16)
}

// ClampResult is the outcome of clamping a received-amount candidate
type ClampResult struct {
	Amount  decimal.Decimal
	Clamped bool
	Message string
}

// ClampReceived bounds a received-amount candidate to [0, remaining]. Clamping
// never fails; it reports a correction message instead.
func ClampReceived(candidate, remaining decimal.Decimal) ClampResult {
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	switch {
	case candidate.IsNegative():
		return ClampResult{
			Amount:  decimal.Zero,
			Clamped: true,
			Message: "Received amount cannot be negative, it was set to 0",
		}
	case candidate.GreaterThan(remaining):
		return ClampResult{
			Amount:  remaining,
			Clamped: true,
			Message: fmt.Sprintf("Received amount cannot exceed the remaining balance, it was set to %s", remaining.String()),
		}
	}
	return ClampResult{Amount: candidate}
}

// AllocationState classifies a sum against its target
type AllocationState string

const (
	AllocationExact AllocationState = "EXACT"
	AllocationOver  AllocationState = "OVER"
	AllocationUnder AllocationState = "UNDER"
)

// AllocationCheck reports the sum of an allocation and how far it is from
// its target. Difference is Sum minus target.
type AllocationCheck struct {
	State      AllocationState
	Sum        decimal.Decimal
	Target     decimal.Decimal
	Difference decimal.Decimal
}

// CheckPercentAllocation compares the sum of percents against 100. A
// difference within epsilon counts as exactly allocated.
func CheckPercentAllocation(percents []decimal.Decimal, epsilon decimal.Decimal) AllocationCheck {
	sum := decimal.Sum(decimal.Zero, percents...)
	diff := sum.Sub(hundred)

	check := AllocationCheck{Sum: sum, Target: hundred, Difference: diff, State: AllocationExact}
	if diff.Abs().LessThanOrEqual(epsilon) {
		return check
	}
	if diff.IsPositive() {
		check.State = AllocationOver
	} else {
		check.State = AllocationUnder
	}
	return check
}

// CheckAmountAllocation compares the sum of amounts against the project value
func CheckAmountAllocation(amounts []decimal.Decimal, total decimal.Decimal) AllocationCheck {
	sum := decimal.Sum(decimal.Zero, amounts...)
	diff := sum.Sub(total)

	check := AllocationCheck{Sum: sum, Target: total, Difference: diff, State: AllocationExact}
	switch {
	case diff.IsPositive():
		check.State = AllocationOver
	case diff.IsNegative():
		check.State = AllocationUnder
	}
	return check
}

// AllocationPolicy controls how strictly ValidateAllocation behaves
type AllocationPolicy struct {
	// Bypass skips every check, e.g. for historical data import.
	Bypass bool
	// AllowUnder accepts allocations below 100%, used while milestones are
	// still being added one at a time.
	AllowUnder bool
	Epsilon    decimal.Decimal
}

// StrictAllocation requires a complete allocation
func StrictAllocation() AllocationPolicy {
	return AllocationPolicy{Epsilon: DefaultAllocationEpsilon}
}

// ValidateAllocation runs the percent and amount checks over a set of bills
// and returns a domain error for the first violation.
func ValidateAllocation(bills []Bill, total decimal.Decimal, policy AllocationPolicy) error {
	if policy.Bypass || len(bills) == 0 {
		return nil
	}
	epsilon := policy.Epsilon
	if epsilon.IsZero() {
		epsilon = DefaultAllocationEpsilon
	}

	amounts := make([]decimal.Decimal, len(bills))
	for i := range bills {
		amounts[i] = bills[i].Amount
	}

	amountCheck := CheckAmountAllocation(amounts, total)
	if amountCheck.State == AllocationOver {
		return shared.NewDomainError("ALLOCATION_OVER", fmt.Sprintf(
			"Bill amounts add up to %s, which exceeds the project value of %s",
			amountCheck.Sum.String(), total.String()))
	}

	percentCheck := CheckPercentAllocation([]decimal.Decimal{AllocatedPercent(amounts, total)}, epsilon)
	switch percentCheck.State {
	case AllocationOver:
		return shared.NewDomainError("ALLOCATION_OVER", fmt.Sprintf(
			"Bill percentages add up to %s%%, which exceeds 100%%", percentCheck.Sum.StringFixed(PercentPlaces)))
	case AllocationUnder:
		if !policy.AllowUnder {
			return shared.NewDomainError("ALLOCATION_UNDER", fmt.Sprintf(
				"Bill percentages add up to %s%%, %s%% is still unallocated",
				percentCheck.Sum.StringFixed(PercentPlaces), percentCheck.Difference.Neg().StringFixed(PercentPlaces)))
		}
	}
	return nil
}
