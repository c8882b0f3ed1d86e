// Package tabular persists lead rows to CSV and XLSX artifacts and reads them
// back for display.
package tabular
