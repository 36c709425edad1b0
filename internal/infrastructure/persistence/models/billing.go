package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/billing"
)

// ProjectModel is the persistence model for the Project aggregate. The
// guarantee is flattened into pg_* columns; a NULL pg_amount means no
// guarantee.
type ProjectModel struct {
	AggregateModel
	Name               string                `gorm:"type:varchar(200);not null;index"`
	ClientID           uuid.UUID             `gorm:"type:uuid;not null;index"`
	DepartmentID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	CategoryID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	StartDate          *time.Time            `gorm:"index"`
	EndDate            *time.Time
	TotalValue         decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Type               billing.ProjectType   `gorm:"type:varchar(20);not null"`
	Status             billing.ProjectStatus `gorm:"type:varchar(20);not null;default:'ONGOING'"`
	PGPercent          decimal.NullDecimal   `gorm:"column:pg_percent;type:decimal(5,2)"` // written from PGAmount on save, never read back
	PGAmount           decimal.NullDecimal   `gorm:"column:pg_amount;type:decimal(18,2)"`
	PGBankSharePercent decimal.NullDecimal   `gorm:"column:pg_bank_share_percent;type:decimal(5,2)"`
	PGUserDeposit      decimal.NullDecimal   `gorm:"column:pg_user_deposit;type:decimal(18,2)"`
	PGStatus           *string               `gorm:"column:pg_status;type:varchar(20)"`
	PGClearanceDate    *time.Time            `gorm:"column:pg_clearance_date"`
	Bills              []BillModel           `gorm:"foreignKey:ProjectID"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project, bills included
func (m *ProjectModel) ToDomain() *billing.Project {
	p := &billing.Project{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		ClientID:          m.ClientID,
		DepartmentID:      m.DepartmentID,
		CategoryID:        m.CategoryID,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		TotalValue:        m.TotalValue,
		Type:              m.Type,
		Status:            m.Status,
		Bills:             make([]billing.Bill, len(m.Bills)),
	}
	if m.PGAmount.Valid {
		g := &billing.Guarantee{
			Amount:           m.PGAmount.Decimal,
			BankSharePercent: m.PGBankSharePercent.Decimal,
			UserDeposit:      m.PGUserDeposit.Decimal,
			Status:           billing.GuaranteeStatusPending,
			ClearanceDate:    m.PGClearanceDate,
		}
		if m.PGStatus != nil {
			g.Status = billing.GuaranteeStatus(*m.PGStatus)
		}
		p.Guarantee = g
	}
	for i := range m.Bills {
		p.Bills[i] = *m.Bills[i].ToDomain()
	}
	return p
}

// FromDomain populates the persistence model from a domain Project
func (m *ProjectModel) FromDomain(p *billing.Project) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.ClientID = p.ClientID
	m.DepartmentID = p.DepartmentID
	m.CategoryID = p.CategoryID
	m.StartDate = p.StartDate
	m.EndDate = p.EndDate
	m.TotalValue = p.TotalValue
	m.Type = p.Type
	m.Status = p.Status

	m.PGPercent, m.PGAmount = decimal.NullDecimal{}, decimal.NullDecimal{}
	m.PGBankSharePercent, m.PGUserDeposit = decimal.NullDecimal{}, decimal.NullDecimal{}
	m.PGStatus, m.PGClearanceDate = nil, nil
	if g := p.Guarantee; g != nil {
		m.PGPercent = decimal.NewNullDecimal(g.Percent(p.TotalValue))
		m.PGAmount = decimal.NewNullDecimal(g.Amount)
		m.PGBankSharePercent = decimal.NewNullDecimal(g.BankSharePercent)
		m.PGUserDeposit = decimal.NewNullDecimal(g.UserDeposit)
		status := string(g.Status)
		m.PGStatus = &status
		m.PGClearanceDate = g.ClearanceDate
	}

	m.Bills = make([]BillModel, len(p.Bills))
	for i := range p.Bills {
		m.Bills[i].FromDomain(&p.Bills[i])
	}
}

// ProjectModelFromDomain creates a new persistence model from a domain Project
func ProjectModelFromDomain(p *billing.Project) *ProjectModel {
	m := &ProjectModel{}
	m.FromDomain(p)
	return m
}

// BillModel is the persistence model for a project bill. Percentages are not
// stored; they are derived from the amounts.
type BillModel struct {
	BaseModel
	ProjectID            uuid.UUID          `gorm:"type:uuid;not null;index"`
	BillName             string             `gorm:"column:bill_name;type:varchar(200);not null"`
	BillAmount           decimal.Decimal    `gorm:"column:bill_amount;type:decimal(18,2);not null;default:0"`
	ReceivedAmount       decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	ReceivedDate         *time.Time         `gorm:"index"`
	TentativeBillingDate *time.Time         `gorm:"index"`
	VAT                  decimal.Decimal    `gorm:"column:vat;type:decimal(18,2);not null;default:0"`
	IT                   decimal.Decimal    `gorm:"column:it;type:decimal(18,2);not null;default:0"`
	Status               billing.BillStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

func (m *BillModel) ToDomain() *billing.Bill {
	return &billing.Bill{
		BaseEntity:           m.BaseModel.ToDomain(),
		ProjectID:            m.ProjectID,
		Name:                 m.BillName,
		Amount:               m.BillAmount,
		ReceivedAmount:       m.ReceivedAmount,
		ReceivedDate:         m.ReceivedDate,
		TentativeBillingDate: m.TentativeBillingDate,
		VAT:                  m.VAT,
		IT:                   m.IT,
		Status:               m.Status,
	}
}

func (m *BillModel) FromDomain(b *billing.Bill) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.ProjectID = b.ProjectID
	m.BillName = b.Name
	m.BillAmount = b.Amount
	m.ReceivedAmount = b.ReceivedAmount
	m.ReceivedDate = b.ReceivedDate
	m.TentativeBillingDate = b.TentativeBillingDate
	m.VAT = b.VAT
	m.IT = b.IT
	m.Status = b.Status
}

// BillRowModel is the scan target of the bill list join
type BillRowModel struct {
	BillModel
	ProjectName    string
	ProjectValue   decimal.Decimal
	ClientID       uuid.UUID
	ClientName     string
	DepartmentID   uuid.UUID
	DepartmentName string
	CategoryID     uuid.UUID
	CategoryName   string
}

func (m *BillRowModel) ToDomain() billing.BillRow {
	return billing.BillRow{
		Bill:           *m.BillModel.ToDomain(),
		ProjectName:    m.ProjectName,
		ProjectValue:   m.ProjectValue,
		ClientID:       m.ClientID,
		ClientName:     m.ClientName,
		DepartmentID:   m.DepartmentID,
		DepartmentName: m.DepartmentName,
		CategoryID:     m.CategoryID,
		CategoryName:   m.CategoryName,
	}
}

// ProjectFileModel stores metadata of a project document
type ProjectFileModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title       string     `gorm:"type:varchar(255);not null"`
	FileName    string     `gorm:"type:varchar(255);not null"`
	ContentType string     `gorm:"type:varchar(100);not null"`
	Size        int64      `gorm:"not null"`
	StorageKey  string     `gorm:"type:varchar(500);not null"`
	UploadedBy  *uuid.UUID `gorm:"type:uuid"`
	UploadedAt  time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProjectFileModel) TableName() string {
	return "project_files"
}

func (m *ProjectFileModel) ToDomain() *billing.ProjectFile {
	return &billing.ProjectFile{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Title:       m.Title,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		Size:        m.Size,
		StorageKey:  m.StorageKey,
		UploadedBy:  m.UploadedBy,
		UploadedAt:  m.UploadedAt,
	}
}

func ProjectFileModelFromDomain(f *billing.ProjectFile) *ProjectFileModel {
	return &ProjectFileModel{
		ID:          f.ID,
		ProjectID:   f.ProjectID,
		Title:       f.Title,
		FileName:    f.FileName,
		ContentType: f.ContentType,
		Size:        f.Size,
		StorageKey:  f.StorageKey,
		UploadedBy:  f.UploadedBy,
		UploadedAt:  f.UploadedAt,
	}
}

