package billing

import (
	"context"
	"io"
	"time"

	"github.com/tiller/backend/internal/domain/billing"
)

// ObjectStorage stores project file content
type ObjectStorage interface {
	Put(ctx context.Context, storageKey, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, storageKey string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, storageKey string) error
}

// DashboardCache is the dashboard read cache that every billing write invalidates
type DashboardCache interface {
	Invalidate(ctx context.Context) error
}

// StatementRenderer turns a project statement into a PDF document
type StatementRenderer interface {
	RenderStatement(ctx context.Context, statement Statement) ([]byte, error)
}

// ReceiptRenderer turns a bill receipt into a PDF document
type ReceiptRenderer interface {
	RenderReceipt(receipt Receipt) ([]byte, error)
}

// BillExporter writes a bill list as a spreadsheet
type BillExporter interface {
	ExportBills(rows []billing.BillRow, generatedAt time.Time) ([]byte, error)
}
