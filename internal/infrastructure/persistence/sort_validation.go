package persistence

import (
	"strings"

	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]string, defaultField string) string {
	column, ok := allowedFields[strings.TrimSpace(sortField)]
	if !ok {
		return defaultField
	}
	return column
}

// Sort whitelists map the API field name onto its column

var ProjectSortFields = map[string]string{
	"name":              "projects.name",
	"startDate":         "projects.start_date",
	"endDate":           "projects.end_date",
	"totalProjectValue": "projects.total_value",
	"createdAt":         "projects.created_at",
}

var BillSortFields = map[string]string{
	"billName":             "bills.bill_name",
	"billAmount":           "bills.bill_amount",
	"receivedAmount":       "bills.received_amount",
	"receivedDate":         "bills.received_date",
	"tentativeBillingDate": "bills.tentative_billing_date",
	"status":               "bills.status",
}

var ClientSortFields = map[string]string{
	"name":      "clients.name",
	"createdAt": "clients.created_at",
}

// containsPattern builds a lower-cased LIKE pattern. LOWER(...) LIKE works on
// both Postgres and SQLite, unlike ILIKE.
func containsPattern(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}

// paginate applies page and page size; a zero page size returns every row
func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	return query
}
