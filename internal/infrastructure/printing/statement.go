package printing

import (
	"bytes"
	"context"
	"html/template"
	"time"

	billingapp "github.com/tiller/backend/internal/application/billing"
)

var statementFuncs = template.FuncMap{
	"bdt":     FormatBDT,
	"amount":  FormatAmount,
	"percent": FormatPercent,
	"date":    FormatDate,
	"inc":     func(i int) int { return i + 1 },
	"stamp": func(t time.Time) string {
		return t.Format("02 Jan 2006 15:04")
	},
}

var statementTemplate = template.Must(template.New("statement").Funcs(statementFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Statement - {{.Project.ProjectName}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 11px; color: #1f2933; }
  h1 { font-size: 18px; margin: 0 0 4px; }
  .muted { color: #6b7280; }
  table { width: 100%; border-collapse: collapse; margin-top: 12px; }
  th, td { border: 1px solid #d1d5db; padding: 4px 6px; }
  th { background: #f3f4f6; text-align: left; }
  td.num { text-align: right; white-space: nowrap; }
  .summary td { border: none; padding: 2px 6px; }
  .status { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Project.ProjectName}}</h1>
<div class="muted">Project statement generated {{stamp .GeneratedAt}}</div>

<table class="summary">
  <tr><td>Client</td><td>{{.Project.Client.Name}}</td><td>Project value</td><td class="num">{{bdt .Project.TotalProjectValue}}</td></tr>
  <tr><td>Department</td><td>{{.Project.Department.Name}}</td><td>Received</td><td class="num">{{bdt .Project.TotalReceived}} ({{percent .Project.ReceivedPercent.Decimal}})</td></tr>
  <tr><td>Category</td><td>{{.Project.Category.Name}}</td><td>Remaining</td><td class="num">{{bdt .Project.TotalRemaining}}</td></tr>
  <tr><td>Period</td><td>{{date .Project.StartDate}} to {{date .Project.EndDate}}</td><td>Status</td><td class="status">{{.Project.EffectiveStatus}}</td></tr>
</table>

<table>
  <thead>
    <tr>
      <th>#</th><th>Bill</th><th>%</th><th>Amount</th><th>Received</th><th>Remaining</th>
      <th>Tentative date</th><th>Received date</th><th>Status</th>
    </tr>
  </thead>
  <tbody>
  {{range $i, $b := .Project.Bills}}
    <tr>
      <td>{{inc $i}}</td>
      <td>{{$b.BillName}}</td>
      <td class="num">{{percent $b.BillPercent.Decimal}}</td>
      <td class="num">{{amount $b.BillAmount}}</td>
      <td class="num">{{amount $b.ReceivedAmount}}</td>
      <td class="num">{{amount $b.RemainingAmount}}</td>
      <td>{{date $b.TentativeBillingDate}}</td>
      <td>{{date $b.ReceivedDate}}</td>
      <td class="status">{{$b.Status}}</td>
    </tr>
  {{else}}
    <tr><td colspan="9" class="muted">No bills</td></tr>
  {{end}}
  </tbody>
  <tfoot>
    <tr>
      <th colspan="3">Total ({{.Project.Allocation.State}} allocation)</th>
      <td class="num">{{amount .Project.TotalBilled}}</td>
      <td class="num">{{amount .Project.TotalReceived}}</td>
      <td class="num">{{amount .Project.TotalRemaining}}</td>
      <td colspan="3"></td>
    </tr>
  </tfoot>
</table>
{{with .Project.PG}}
<table class="summary">
  <tr><td>Performance guarantee</td><td class="num">{{bdt .PGAmount}} ({{percent .PGPercent.Decimal}})</td></tr>
  <tr><td>Own deposit</td><td class="num">{{bdt .PGUserDeposit}}</td></tr>
  <tr><td>Guarantee status</td><td class="status">{{.PGStatus}}{{if .PGClearanceDate}}, cleared {{date .PGClearanceDate}}{{end}}</td></tr>
</table>
{{end}}
</body>
</html>
`))

// StatementRenderer prints project statements through an HTML to PDF printer
type StatementRenderer struct {
	printer PDFPrinter
}

// NewStatementRenderer creates a statement renderer
func NewStatementRenderer(printer PDFPrinter) *StatementRenderer {
	return &StatementRenderer{printer: printer}
}

// RenderStatement builds the statement page and prints it
func (r *StatementRenderer) RenderStatement(ctx context.Context, statement billingapp.Statement) ([]byte, error) {
	html, err := StatementHTML(statement)
	if err != nil {
		return nil, err
	}
	return r.printer.PrintHTML(ctx, html)
}

// StatementHTML renders the statement page
func StatementHTML(statement billingapp.Statement) (string, error) {
	var buf bytes.Buffer
	if err := statementTemplate.Execute(&buf, statement); err != nil {
		return "", NewRenderError(ErrCodeTemplate, "failed to render statement", err)
	}
	return buf.String(), nil
}

var _ billingapp.StatementRenderer = (*StatementRenderer)(nil)
