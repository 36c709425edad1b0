// Package billing holds the project and milestone billing model: projects,
// their bills, the optional project guarantee, and the reconciliation rules
// that keep bill percentages, amounts and payment status consistent.
//
// Amounts are the source of truth. Percentages are always derived from
// amounts against the project value and are recomputed on every write.
package billing
