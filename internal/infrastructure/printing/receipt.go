package printing

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	billingapp "github.com/tiller/backend/internal/application/billing"
)

const receiptFont = "Helvetica"

// ReceiptRenderer draws payment receipts with gofpdf
type ReceiptRenderer struct {
	issuer string
}

// NewReceiptRenderer creates a receipt renderer; issuer is printed in the header
func NewReceiptRenderer(issuer string) *ReceiptRenderer {
	return &ReceiptRenderer{issuer: issuer}
}

// RenderReceipt draws a single A5 page acknowledging the money received on a bill
func (r *ReceiptRenderer) RenderReceipt(receipt billingapp.Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetTitle("Payment receipt "+receipt.Number, true)
	pdf.SetCreator(r.issuer, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(receiptFont, "B", 15)
	pdf.CellFormat(0, 8, tr(r.issuer), "", 1, "C", false, 0, "")
	pdf.SetFont(receiptFont, "", 11)
	pdf.CellFormat(0, 6, "PAYMENT RECEIPT", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(receiptFont, "", 9)
	pdf.CellFormat(62, 5, "Receipt no. "+receipt.Number, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Issued "+receipt.IssuedAt.Format("02 Jan 2006"), "", 1, "R", false, 0, "")
	pdf.Ln(3)

	bill := receipt.Bill
	rows := [][2]string{
		{"Received from", bill.Client.Name},
		{"Project", bill.Project.ProjectName},
		{"Department", bill.Department.Name},
		{"Bill", bill.BillName},
		{"Bill amount", FormatBDT(bill.BillAmount)},
		{"Share of project", FormatPercent(bill.BillPercent.Decimal)},
		{"Amount received", FormatBDT(bill.ReceivedAmount)},
		{"Received on", FormatDate(bill.ReceivedDate)},
		{"Outstanding", FormatBDT(bill.RemainingAmount)},
		{"Status", bill.Status},
	}
	for _, row := range rows {
		pdf.SetFont(receiptFont, "B", 10)
		pdf.CellFormat(42, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont(receiptFont, "", 10)
		pdf.CellFormat(0, 7, tr(row[1]), "1", 1, "L", false, 0, "")
	}

	if vat := bill.VAT; !vat.IsZero() || !bill.IT.IsZero() {
		pdf.Ln(2)
		pdf.SetFont(receiptFont, "", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("VAT deducted %s, income tax deducted %s", FormatBDT(vat), FormatBDT(bill.IT)), "", 1, "L", false, 0, "")
	}

	pdf.Ln(14)
	pdf.SetFont(receiptFont, "", 9)
	pdf.CellFormat(0, 5, "Authorised signature ____________________", "", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to draw receipt", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to write receipt", err)
	}
	return buf.Bytes(), nil
}

var _ billingapp.ReceiptRenderer = (*ReceiptRenderer)(nil)
