// Package store persists the run ledger: one row per pipeline run with its
// status and output paths.
package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscrape/internal/model"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Query  string          `json:"query,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the run ledger operations.
type Store interface {
	CreateRun(ctx context.Context, query model.Query) (*model.Run, error)
	UpdateRun(ctx context.Context, runID string, u model.RunUpdate) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

const runColumns = `id, query, status, text_path, csv_path, xlsx_path, records, error, created_at, updated_at`

const defaultListLimit = 100

// placeholder renders the n-th (1-based) bind parameter for a dialect.
type placeholder func(n int) string

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

// buildUpdate renders an UPDATE for the non-empty fields of u. The run id is
// always the last argument.
func buildUpdate(runID string, u model.RunUpdate, now time.Time, ph placeholder) (string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = "+ph(len(args)))
	}

	if u.Status != "" {
		add("status", string(u.Status))
	}
	if u.TextPath != "" {
		add("text_path", u.TextPath)
	}
	if u.Artifacts != nil {
		add("csv_path", u.Artifacts.CSVPath)
		add("xlsx_path", u.Artifacts.XLSXPath)
		add("records", u.Artifacts.Records)
	}
	if u.Error != "" {
		add("error", u.Error)
	}
	add("updated_at", now)

	args = append(args, runID)
	return `UPDATE runs SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + ph(len(args)), args
}

// buildList renders the ledger listing query for filter.
func buildList(filter RunFilter, ph placeholder) (string, []any) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = ` + ph(len(args))
	}
	if filter.Query != "" {
		args = append(args, filter.Query)
		query += ` AND query = ` + ph(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	query += ` LIMIT ` + ph(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET ` + ph(len(args))
	}
	return query, args
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var query, status string
	err := row.Scan(&r.ID, &query, &status, &r.TextPath, &r.CSVPath, &r.XLSXPath,
		&r.Records, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Query = model.Query(query)
	r.Status = model.RunStatus(status)
	return &r, nil
}

func newRun(id string, q model.Query, now time.Time) *model.Run {
	return &model.Run{
		ID:        id,
		Query:     q,
		Status:    model.RunStatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
