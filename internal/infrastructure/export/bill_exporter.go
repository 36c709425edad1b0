// Package export writes bill lists as xlsx workbooks.
package export

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/xuri/excelize/v2"
)

const (
	billsSheet   = "Bills"
	headerRow    = 3
	dateLayout   = "2006-01-02"
	amountFormat = "#,##0.00"
)

var billHeaders = []string{
	"Project", "Client", "Department", "Category", "Bill",
	"Bill %", "Bill Amount", "Received", "Remaining", "Received %",
	"VAT", "IT", "Tentative Date", "Received Date", "Status",
}

// BillExporter renders bill rows into a single-sheet workbook
type BillExporter struct{}

// NewBillExporter creates a bill exporter
func NewBillExporter() *BillExporter {
	return &BillExporter{}
}

// ExportBills writes one row per bill followed by a totals row
func (e *BillExporter) ExportBills(rows []billing.BillRow, generatedAt time.Time) ([]byte, error) {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName("Sheet1", billsSheet); err != nil {
		return nil, err
	}
	set := func(col, row int, value any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = file.SetCellValue(billsSheet, cell, value)
	}

	set(1, 1, "Bill export")
	set(2, 1, generatedAt.Format("2006-01-02 15:04"))

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E5E7EB"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	amountStyle, err := file.NewStyle(&excelize.Style{CustomNumFmt: ptr(amountFormat)})
	if err != nil {
		return nil, fmt.Errorf("create amount style: %w", err)
	}

	for i, h := range billHeaders {
		set(i+1, headerRow, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(billHeaders))
	_ = file.SetCellStyle(billsSheet, "A3", fmt.Sprintf("%s%d", lastCol, headerRow), headerStyle)

	var totalAmount, totalReceived, totalRemaining decimal.Decimal
	for i, r := range rows {
		row := headerRow + 1 + i
		b := r.Bill
		set(1, row, r.ProjectName)
		set(2, row, r.ClientName)
		set(3, row, r.DepartmentName)
		set(4, row, r.CategoryName)
		set(5, row, b.Name)
		set(6, row, b.Percent(r.ProjectValue).Round(2).InexactFloat64())
		set(7, row, b.Amount.InexactFloat64())
		set(8, row, b.ReceivedAmount.InexactFloat64())
		set(9, row, b.RemainingAmount().InexactFloat64())
		set(10, row, b.ReceivedPercent(r.ProjectValue).Round(2).InexactFloat64())
		set(11, row, b.VAT.InexactFloat64())
		set(12, row, b.IT.InexactFloat64())
		set(13, row, formatDate(b.TentativeBillingDate))
		set(14, row, formatDate(b.ReceivedDate))
		set(15, row, string(b.Status))

		totalAmount = totalAmount.Add(b.Amount)
		totalReceived = totalReceived.Add(b.ReceivedAmount)
		totalRemaining = totalRemaining.Add(b.RemainingAmount())
	}

	totalRow := headerRow + 1 + len(rows)
	set(1, totalRow, "Total")
	set(7, totalRow, totalAmount.InexactFloat64())
	set(8, totalRow, totalReceived.InexactFloat64())
	set(9, totalRow, totalRemaining.InexactFloat64())
	_ = file.SetCellStyle(billsSheet, fmt.Sprintf("G%d", headerRow+1), fmt.Sprintf("I%d", totalRow), amountStyle)
	_ = file.SetCellStyle(billsSheet, fmt.Sprintf("K%d", headerRow+1), fmt.Sprintf("L%d", totalRow), amountStyle)

	_ = file.SetColWidth(billsSheet, "A", "A", 36)
	_ = file.SetColWidth(billsSheet, "B", "E", 22)
	_ = file.SetColWidth(billsSheet, "F", "O", 14)
	_ = file.SetPanes(billsSheet, &excelize.Panes{
		Freeze: true, YSplit: headerRow, TopLeftCell: fmt.Sprintf("A%d", headerRow+1), ActivePane: "bottomLeft",
	})

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func ptr[T any](v T) *T { return &v }
