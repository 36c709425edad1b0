package printing

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const currencyCode = "BDT"

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount groups thousands and keeps two decimals, e.g. 1,234,567.50
func FormatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// FormatBDT is FormatAmount prefixed with the currency code
func FormatBDT(d decimal.Decimal) string {
	return currencyCode + " " + FormatAmount(d)
}

// FormatPercent prints a percentage with up to two decimals
func FormatPercent(d decimal.Decimal) string {
	return d.Round(2).String() + "%"
}

// FormatDate prints a date as "02 Jan 2006"; nil prints a dash
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}
