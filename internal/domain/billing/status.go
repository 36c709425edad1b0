package billing

// BillStatus is the payment state of a single milestone
type BillStatus string

const (
	BillStatusPending BillStatus = "PENDING"
	BillStatusPartial BillStatus = "PARTIAL"
	BillStatusPaid    BillStatus = "PAID"
	BillStatusOverdue BillStatus = "OVERDUE"
)

// IsValid checks if the bill status is known
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusPending, BillStatusPartial, BillStatusPaid, BillStatusOverdue:
		return true
	}
	return false
}

func (s BillStatus) String() string {
	return string(s)
}

// IsSettled reports whether nothing remains to be collected on the bill
func (s BillStatus) IsSettled() bool {
	return s == BillStatusPaid
}

// AwaitsPayment reports whether the bill is still being collected. An
// OVERDUE bill has been flagged by hand and is not counted.
func (s BillStatus) AwaitsPayment() bool {
	return s == BillStatusPending || s == BillStatusPartial
}

// ProjectStatus is the status recorded on the project itself
type ProjectStatus string

const (
	ProjectStatusFuture      ProjectStatus = "FUTURE"
	ProjectStatusOngoing     ProjectStatus = "ONGOING"
	ProjectStatusCompleted   ProjectStatus = "COMPLETED"
	ProjectStatusOutstanding ProjectStatus = "OUTSTANDING"
)

// IsValid checks if the project status is known
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusFuture, ProjectStatusOngoing, ProjectStatusCompleted, ProjectStatusOutstanding:
		return true
	}
	return false
}

func (s ProjectStatus) String() string {
	return string(s)
}

// ProjectType classifies the contracting party
type ProjectType string

const (
	ProjectTypeForeign    ProjectType = "FOREIGN"
	ProjectTypeDomestic   ProjectType = "DOMESTIC"
	ProjectTypeGovernment ProjectType = "GOVERNMENT"
)

// IsValid checks if the project type is known
func (t ProjectType) IsValid() bool {
	switch t {
	case ProjectTypeForeign, ProjectTypeDomestic, ProjectTypeGovernment:
		return true
	}
	return false
}

// GuaranteeStatus tracks the project guarantee lifecycle
type GuaranteeStatus string

const (
	GuaranteeStatusPending GuaranteeStatus = "PENDING"
	GuaranteeStatusCleared GuaranteeStatus = "CLEARED"
)
