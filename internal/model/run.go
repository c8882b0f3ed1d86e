package model

import "time"

// RunStatus represents the current state of a lead run.
type RunStatus string

const (
	RunStatusIdle       RunStatus = "idle"
	RunStatusScraping   RunStatus = "scraping"
	RunStatusExtracting RunStatus = "extracting"
	RunStatusDone       RunStatus = "done"
	RunStatusFailed     RunStatus = "failed"
	RunStatusStopped    RunStatus = "stopped"
)

// Terminal reports whether no further transitions follow this status.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusDone, RunStatusFailed, RunStatusStopped:
		return true
	}
	return false
}

// Run is one scrape-extract-persist pass for a query.
type Run struct {
	ID        string    `json:"id"`
	Query     Query     `json:"query"`
	Status    RunStatus `json:"status"`
	TextPath  string    `json:"text_path,omitempty"`
	CSVPath   string    `json:"csv_path,omitempty"`
	XLSXPath  string    `json:"xlsx_path,omitempty"`
	Records   int       `json:"records"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunUpdate carries the mutable fields written back to the ledger on a
// status change. Empty strings leave the stored value untouched.
type RunUpdate struct {
	Status    RunStatus
	TextPath  string
	Artifacts *Artifacts
	Error     string
}
