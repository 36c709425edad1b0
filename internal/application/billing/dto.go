package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/billing"
)

// Date is a calendar date accepted as "2006-01-02" or RFC 3339
type Date struct {
	time.Time
}

// UnmarshalJSON parses a date-only or full timestamp string
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// Ptr returns the date as a time pointer, nil for the zero value
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// NewClientRequest creates a client inline with a project
type NewClientRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=200"`
	ContactPerson string `json:"contactPerson" binding:"max=200"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone" binding:"max=50"`
	Address       string `json:"address" binding:"max=500"`
}

// GuaranteeRequest sets a project guarantee from a percent or an amount
type GuaranteeRequest struct {
	PGPercent          *decimal.Decimal `json:"pgPercent"`
	PGAmount           *decimal.Decimal `json:"pgAmount"`
	PGBankSharePercent decimal.Decimal  `json:"pgBankSharePercent"`
}

func (r *GuaranteeRequest) toInput() billing.GuaranteeInput {
	return billing.GuaranteeInput{
		Percent:          r.PGPercent,
		Amount:           r.PGAmount,
		BankSharePercent: r.PGBankSharePercent,
	}
}

// OptionalGuarantee tells an absent pg field apart from an explicit null
type OptionalGuarantee struct {
	Set   bool
	Value *GuaranteeRequest
}

// UnmarshalJSON records that the field was present
func (o *OptionalGuarantee) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v GuaranteeRequest
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// BillDraftRequest describes a milestone to create
type BillDraftRequest struct {
	BillName             string           `json:"billName" binding:"required,min=1,max=200"`
	BillPercent          *decimal.Decimal `json:"billPercent"`
	BillAmount           *decimal.Decimal `json:"billAmount"`
	TentativeBillingDate *Date            `json:"tentativeBillingDate"`
	VAT                  decimal.Decimal  `json:"vat"`
	IT                   decimal.Decimal  `json:"it"`
}

func (r BillDraftRequest) toDraft() billing.BillDraft {
	return billing.BillDraft{
		Name:                 r.BillName,
		Percent:              r.BillPercent,
		Amount:               r.BillAmount,
		TentativeBillingDate: r.TentativeBillingDate.Ptr(),
		VAT:                  r.VAT,
		IT:                   r.IT,
	}
}

// CreateProjectRequest creates a project with its initial milestones
type CreateProjectRequest struct {
	ProjectName           string             `json:"projectName" binding:"required,min=1,max=255"`
	TotalProjectValue     decimal.Decimal    `json:"totalProjectValue"`
	ClientID              *uuid.UUID         `json:"clientId"`
	NewClient             *NewClientRequest  `json:"newClient"`
	DepartmentID          uuid.UUID          `json:"departmentId" binding:"required"`
	CategoryID            uuid.UUID          `json:"categoryId" binding:"required"`
	StartDate             *Date              `json:"startDate"`
	EndDate               *Date              `json:"endDate"`
	ProjectType           string             `json:"projectType" binding:"omitempty,oneof=FOREIGN DOMESTIC GOVERNMENT"`
	Status                string             `json:"status" binding:"omitempty,oneof=FUTURE ONGOING COMPLETED OUTSTANDING"`
	PG                    *GuaranteeRequest  `json:"pg"`
	Bills                 []BillDraftRequest `json:"bills" binding:"dive"`
	BypassAllocationCheck bool               `json:"bypassAllocationCheck"`
}

// UpdateProjectRequest is a partial project update. An explicit "pg": null
// removes a pending guarantee.
type UpdateProjectRequest struct {
	ProjectName       *string           `json:"projectName" binding:"omitempty,min=1,max=255"`
	TotalProjectValue *decimal.Decimal  `json:"totalProjectValue"`
	ClientID          *uuid.UUID        `json:"clientId"`
	DepartmentID      *uuid.UUID        `json:"departmentId"`
	CategoryID        *uuid.UUID        `json:"categoryId"`
	StartDate         *Date             `json:"startDate"`
	EndDate           *Date             `json:"endDate"`
	ProjectType       *string           `json:"projectType" binding:"omitempty,oneof=FOREIGN DOMESTIC GOVERNMENT"`
	Status            *string           `json:"status" binding:"omitempty,oneof=FUTURE ONGOING COMPLETED OUTSTANDING"`
	PG                OptionalGuarantee `json:"pg"`
}

// AddBillRequest adds a milestone to an existing project
type AddBillRequest struct {
	BillDraftRequest
	BypassAllocationCheck bool `json:"bypassAllocationCheck"`
}

// UpdateBillRequest is a partial bill update
type UpdateBillRequest struct {
	BillName              *string          `json:"billName" binding:"omitempty,min=1,max=200"`
	BillPercent           *decimal.Decimal `json:"billPercent"`
	BillAmount            *decimal.Decimal `json:"billAmount"`
	TentativeBillingDate  *Date            `json:"tentativeBillingDate"`
	ReceivedAmount        *decimal.Decimal `json:"receivedAmount"`
	ReceivedDate          *Date            `json:"receivedDate"`
	VAT                   *decimal.Decimal `json:"vat"`
	IT                    *decimal.Decimal `json:"it"`
	Status                *string          `json:"status" binding:"omitempty,oneof=PENDING PARTIAL PAID OVERDUE"`
	BypassAllocationCheck bool             `json:"bypassAllocationCheck"`
}

func (r UpdateBillRequest) toPatch() billing.BillPatch {
	patch := billing.BillPatch{
		Name:                 r.BillName,
		Percent:              r.BillPercent,
		Amount:               r.BillAmount,
		TentativeBillingDate: r.TentativeBillingDate.Ptr(),
		ReceivedAmount:       r.ReceivedAmount,
		ReceivedDate:         r.ReceivedDate.Ptr(),
		VAT:                  r.VAT,
		IT:                   r.IT,
	}
	if r.Status != nil {
		s := billing.BillStatus(*r.Status)
		patch.Status = &s
	}
	return patch
}

// PaymentRequest records money received against a bill
type PaymentRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	ReceivedDate *Date           `json:"receivedDate"`
}

// QueryID is an optional id query parameter. An empty value and "all"
// leave it unset.
type QueryID struct {
	id  uuid.UUID
	set bool
}

// NewQueryID returns a set QueryID
func NewQueryID(id uuid.UUID) QueryID {
	return QueryID{id: id, set: true}
}

// UnmarshalParam implements gin's binding.BindUnmarshaler
func (q *QueryID) UnmarshalParam(param string) error {
	if param == "" || param == "all" {
		*q = QueryID{}
		return nil
	}
	id, err := uuid.Parse(param)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", param, err)
	}
	*q = NewQueryID(id)
	return nil
}

// Ptr returns the id, or nil when unset
func (q QueryID) Ptr() *uuid.UUID {
	if !q.set {
		return nil
	}
	id := q.id
	return &id
}

// ProjectListFilter holds the project list query parameters
type ProjectListFilter struct {
	Search       string  `form:"search"`
	DepartmentID QueryID `form:"departmentId"`
	CategoryID   QueryID `form:"categoryId"`
	ClientID     QueryID `form:"clientId"`
	ProjectID    QueryID `form:"projectId"`
	Year         *int    `form:"year" binding:"omitempty,min=1900,max=3000"`
	Status       string  `form:"status" binding:"omitempty,oneof=FUTURE ONGOING COMPLETED OUTSTANDING all"`
	Page         int     `form:"page" binding:"omitempty,min=1"`
	PageSize     int     `form:"pageSize" binding:"omitempty,min=1,max=500"`
	OrderBy      string  `form:"orderBy"`
	OrderDir     string  `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// BillListFilter holds the bill list query parameters
type BillListFilter struct {
	Search       string  `form:"search"`
	Status       string  `form:"status" binding:"omitempty,oneof=PENDING PARTIAL PAID OVERDUE all"`
	DepartmentID QueryID `form:"departmentId"`
	ClientID     QueryID `form:"clientId"`
	ProjectID    QueryID `form:"projectId"`
	Year         *int    `form:"year" binding:"omitempty,min=1900,max=3000"`
	Page         int     `form:"page" binding:"omitempty,min=1"`
	PageSize     int     `form:"pageSize" binding:"omitempty,min=1,max=500"`
	OrderBy      string  `form:"orderBy"`
	OrderDir     string  `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

func (f BillListFilter) toDomain() billing.BillFilter {
	filter := billing.BillFilter{
		DepartmentID: f.DepartmentID.Ptr(),
		ClientID:     f.ClientID.Ptr(),
		ProjectID:    f.ProjectID.Ptr(),
		Year:         f.Year,
	}
	filter.Search = f.Search
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	filter.OrderBy = f.OrderBy
	filter.OrderDir = f.OrderDir
	if f.Status != "" && f.Status != "all" {
		s := billing.BillStatus(f.Status)
		filter.Status = &s
	}
	return filter
}

// Percent is a derived percentage. It is written as a JSON number with
// exactly two decimals, e.g. 10.00.
type Percent struct {
	decimal.Decimal
}

// NewPercent rounds d to two decimals
func NewPercent(d decimal.Decimal) Percent {
	return Percent{d.Round(billing.PercentPlaces)}
}

// MarshalJSON writes the percentage unquoted with two decimals
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.StringFixed(billing.PercentPlaces)), nil
}

// RefResponse is an id and name pair of a related entity
type RefResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// GuaranteeResponse is the project guarantee
type GuaranteeResponse struct {
	PGPercent          Percent         `json:"pgPercent"`
	PGAmount           decimal.Decimal `json:"pgAmount"`
	PGBankSharePercent Percent         `json:"pgBankSharePercent"`
	PGUserDeposit      decimal.Decimal `json:"pgUserDeposit"`
	PGStatus           string          `json:"pgStatus"`
	PGClearanceDate    *time.Time      `json:"pgClearanceDate"`
}

// BillResponse is a milestone with its derived figures
type BillResponse struct {
	ID                   uuid.UUID       `json:"id"`
	ProjectID            uuid.UUID       `json:"projectId"`
	BillName             string          `json:"billName"`
	BillPercent          Percent         `json:"billPercent"`
	BillAmount           decimal.Decimal `json:"billAmount"`
	ReceivedAmount       decimal.Decimal `json:"receivedAmount"`
	RemainingAmount      decimal.Decimal `json:"remainingAmount"`
	ReceivedPercent      Percent         `json:"receivedPercent"`
	RemainingPercent     Percent         `json:"remainingPercent"`
	ReceivedDate         *time.Time      `json:"receivedDate"`
	TentativeBillingDate *time.Time      `json:"tentativeBillingDate"`
	VAT                  decimal.Decimal `json:"vat"`
	IT                   decimal.Decimal `json:"it"`
	Status               string          `json:"status"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// AllocationResponse is the state of the bill percentage allocation
type AllocationResponse struct {
	State      string  `json:"state"`
	Sum        Percent `json:"sum"`
	Difference Percent `json:"difference"`
}

// ProjectResponse is a project with its bills and computed totals
type ProjectResponse struct {
	ID                uuid.UUID          `json:"id"`
	ProjectName       string             `json:"projectName"`
	TotalProjectValue decimal.Decimal    `json:"totalProjectValue"`
	Client            RefResponse        `json:"client"`
	Department        RefResponse        `json:"department"`
	Category          RefResponse        `json:"category"`
	StartDate         *time.Time         `json:"startDate"`
	EndDate           *time.Time         `json:"endDate"`
	ProjectType       string             `json:"projectType,omitempty"`
	Status            string             `json:"status"`
	EffectiveStatus   string             `json:"effectiveStatus"`
	PG                *GuaranteeResponse `json:"pg"`
	Bills             []BillResponse     `json:"bills"`
	TotalBilled       decimal.Decimal    `json:"totalBilled"`
	TotalReceived     decimal.Decimal    `json:"totalReceived"`
	TotalRemaining    decimal.Decimal    `json:"totalRemaining"`
	ReceivedPercent   Percent            `json:"receivedPercent"`
	Allocation        AllocationResponse `json:"allocation"`
	Version           int                `json:"version"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// BillRowResponse is a bill with the project it belongs to
type BillRowResponse struct {
	BillResponse
	Project    ProjectRefResponse `json:"project"`
	Client     RefResponse        `json:"client"`
	Department RefResponse        `json:"department"`
	Category   RefResponse        `json:"category"`
}

// ProjectRefResponse identifies the project of a bill
type ProjectRefResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProjectName       string          `json:"projectName"`
	TotalProjectValue decimal.Decimal `json:"totalProjectValue"`
}

// PaymentOutcomeResponse is the state of a bill after a payment
type PaymentOutcomeResponse struct {
	ReceivedAmount   decimal.Decimal    `json:"receivedAmount"`
	RemainingAmount  decimal.Decimal    `json:"remainingAmount"`
	ReceivedPercent  Percent            `json:"receivedPercent"`
	RemainingPercent Percent            `json:"remainingPercent"`
	Status           billing.BillStatus `json:"status"`
	ReceivedDate     time.Time          `json:"receivedDate"`
}

// ToPaymentOutcomeResponse converts a derived payment outcome
func ToPaymentOutcomeResponse(o billing.PaymentOutcome) PaymentOutcomeResponse {
	return PaymentOutcomeResponse{
		ReceivedAmount:   o.ReceivedAmount,
		RemainingAmount:  o.RemainingAmount,
		ReceivedPercent:  NewPercent(o.ReceivedPercent),
		RemainingPercent: NewPercent(o.RemainingPercent),
		Status:           o.Status,
		ReceivedDate:     o.ReceivedDate,
	}
}

// PaymentPreviewResponse is what confirming the same payment would produce
type PaymentPreviewResponse struct {
	Amount  decimal.Decimal        `json:"amount"`
	Outcome PaymentOutcomeResponse `json:"outcome"`
}

// PaymentResponse is the bill after a confirmed payment
type PaymentResponse struct {
	Outcome PaymentOutcomeResponse `json:"outcome"`
	Bill    BillResponse           `json:"bill"`
}

// ProjectFileResponse is project document metadata
type ProjectFileResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"projectId"`
	Title       string     `json:"title"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType"`
	Size        int64      `json:"size"`
	UploadedBy  *uuid.UUID `json:"uploadedBy"`
	UploadedAt  time.Time  `json:"uploadedAt"`
}

// RenameFileRequest changes a file title
type RenameFileRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}

// ToBillResponse converts a bill to its response, deriving percentages from
// the project value
func ToBillResponse(b *billing.Bill, projectValue decimal.Decimal) BillResponse {
	return BillResponse{
		ID:                   b.ID,
		ProjectID:            b.ProjectID,
		BillName:             b.Name,
		BillPercent:          NewPercent(b.Percent(projectValue)),
		BillAmount:           b.Amount,
		ReceivedAmount:       b.ReceivedAmount,
		RemainingAmount:      b.RemainingAmount(),
		ReceivedPercent:      NewPercent(b.ReceivedPercent(projectValue)),
		RemainingPercent:     NewPercent(b.RemainingPercent(projectValue)),
		ReceivedDate:         b.ReceivedDate,
		TentativeBillingDate: b.TentativeBillingDate,
		VAT:                  b.VAT,
		IT:                   b.IT,
		Status:               string(b.Status),
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
}

// ToProjectResponse converts a project. Names of the related entities come
// from refs; the effective status is evaluated at now.
func ToProjectResponse(p *billing.Project, refs ProjectRefs, now time.Time) ProjectResponse {
	bills := make([]BillResponse, len(p.Bills))
	for i := range p.Bills {
		bills[i] = ToBillResponse(&p.Bills[i], p.TotalValue)
	}
	allocation := p.Allocation()

	resp := ProjectResponse{
		ID:                p.ID,
		ProjectName:       p.Name,
		TotalProjectValue: p.TotalValue,
		Client:            RefResponse{ID: p.ClientID, Name: refs.Client},
		Department:        RefResponse{ID: p.DepartmentID, Name: refs.Department},
		Category:          RefResponse{ID: p.CategoryID, Name: refs.Category},
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		ProjectType:       string(p.Type),
		Status:            string(p.Status),
		EffectiveStatus:   string(p.EffectiveStatus(now)),
		Bills:             bills,
		TotalBilled:       p.BilledAmount(),
		TotalReceived:     p.ReceivedAmount(),
		TotalRemaining:    p.RemainingAmount(),
		ReceivedPercent:   NewPercent(p.ReceivedPercent()),
		Allocation: AllocationResponse{
			State:      string(allocation.State),
			Sum:        NewPercent(allocation.Sum),
			Difference: NewPercent(allocation.Difference),
		},
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Guarantee != nil {
		resp.PG = &GuaranteeResponse{
			PGPercent:          NewPercent(p.Guarantee.Percent(p.TotalValue)),
			PGAmount:           p.Guarantee.Amount,
			PGBankSharePercent: NewPercent(p.Guarantee.BankSharePercent),
			PGUserDeposit:      p.Guarantee.UserDeposit,
			PGStatus:           string(p.Guarantee.Status),
			PGClearanceDate:    p.Guarantee.ClearanceDate,
		}
	}
	return resp
}

// ToBillRowResponse converts a bill row of the cross-project list
func ToBillRowResponse(row billing.BillRow) BillRowResponse {
	return BillRowResponse{
		BillResponse: ToBillResponse(&row.Bill, row.ProjectValue),
		Project: ProjectRefResponse{
			ID:                row.Bill.ProjectID,
			ProjectName:       row.ProjectName,
			TotalProjectValue: row.ProjectValue,
		},
		Client:     RefResponse{ID: row.ClientID, Name: row.ClientName},
		Department: RefResponse{ID: row.DepartmentID, Name: row.DepartmentName},
		Category:   RefResponse{ID: row.CategoryID, Name: row.CategoryName},
	}
}

// ToProjectFileResponse converts file metadata
func ToProjectFileResponse(f *billing.ProjectFile) ProjectFileResponse {
	return ProjectFileResponse{
		ID:          f.ID,
		ProjectID:   f.ProjectID,
		Title:       f.Title,
		FileName:    f.FileName,
		ContentType: f.ContentType,
		Size:        f.Size,
		UploadedBy:  f.UploadedBy,
		UploadedAt:  f.UploadedAt,
	}
}
