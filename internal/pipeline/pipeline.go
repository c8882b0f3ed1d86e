// Package pipeline runs one query through scrape, extract and persist, and
// records every state change in the run ledger.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/config"
	"github.com/sells-group/leadscrape/internal/model"
	"github.com/sells-group/leadscrape/internal/resilience"
	"github.com/sells-group/leadscrape/internal/store"
)

const defaultHoldTick = time.Second

// Scraper captures the search-results page for a query into a text file.
type Scraper interface {
	Scrape(ctx context.Context, query model.Query, maxScrolls int, stop *model.StopSignal, report model.Reporter) (string, error)
}

// Extractor turns a scraped text file into lead artifacts.
type Extractor interface {
	Extract(ctx context.Context, sourcePath string, prompt model.Query, stop *model.StopSignal, report model.Reporter) (*model.Artifacts, error)
}

// Options tune a single run.
type Options struct {
	// RunID is the ledger id from Create. When empty Run creates the row.
	RunID      string
	MaxScrolls int
	// HoldUntilStop keeps the run active after the files are written until a
	// stop arrives. The run then ends stopped instead of done.
	HoldUntilStop bool
}

// Result is the outcome of a run.
type Result struct {
	RunID     string           `json:"run_id"`
	Query     model.Query      `json:"query"`
	Status    model.RunStatus  `json:"status"`
	TextPath  string           `json:"text_path,omitempty"`
	Artifacts *model.Artifacts `json:"artifacts,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Pipeline orchestrates Scraper → Extractor for one query at a time.
type Pipeline struct {
	cfg       config.PipelineConfig
	scraper   Scraper
	extractor Extractor
	store     store.Store

	// ledgerRetry covers transient ledger errors such as a busy SQLite file
	// shared with another leadscrape process.
	ledgerRetry resilience.Policy
}

// New creates a Pipeline. st may be nil, in which case nothing is recorded.
func New(cfg config.PipelineConfig, sc Scraper, ex Extractor, st store.Store) *Pipeline {
	retry := resilience.DefaultPolicy()
	retry.OnRetry = resilience.RetryLogger("ledger", "write_run")
	return &Pipeline{cfg: cfg, scraper: sc, extractor: ex, store: st, ledgerRetry: retry}
}

// Run executes the pipeline for query. The returned error is non-nil only
// when the run failed; a stopped run is not an error. Result is always set.
func (p *Pipeline) Run(ctx context.Context, query model.Query, opts Options, stop *model.StopSignal, report model.Reporter) (*Result, error) {
	result := &Result{RunID: opts.RunID, Query: query, Status: model.RunStatusIdle}
	if result.RunID == "" {
		result.RunID = p.Create(ctx, query)
	}

	log := zap.L().With(zap.String("run_id", result.RunID), zap.String("query", query.String()))
	log.Info("pipeline: starting run", zap.Int("max_scrolls", opts.MaxScrolls), zap.Bool("hold", opts.HoldUntilStop))

	if stop.Stopped() {
		return p.finishStopped(ctx, result, report), nil
	}

	// Scrape.
	p.transition(ctx, result, model.RunUpdate{Status: model.RunStatusScraping})
	report.Printf("Scraping...")
	start := time.Now()
	textPath, err := p.scraper.Scrape(ctx, query, opts.MaxScrolls, stop, report)
	if err != nil {
		return result, p.fail(ctx, result, report, eris.Wrap(err, "pipeline: scrape"))
	}
	result.TextPath = textPath
	log.Info("pipeline: scrape complete",
		zap.String("text_path", textPath),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if stop.Stopped() {
		return p.finishStopped(ctx, result, report), nil
	}

	// Extract.
	p.transition(ctx, result, model.RunUpdate{Status: model.RunStatusExtracting, TextPath: textPath})
	report.Printf("Extracting lead data...")
	start = time.Now()
	arts, err := p.extractor.Extract(ctx, textPath, query, stop, report)
	if err != nil {
		return result, p.fail(ctx, result, report, eris.Wrap(err, "pipeline: extract"))
	}
	result.Artifacts = arts
	log.Info("pipeline: extract complete",
		zap.Int("records", arts.Records),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	report.Printf("CSV file is saved as %s", arts.CSVPath)
	report.Printf("Excel file is saved as %s", arts.XLSXPath)

	if stop.Stopped() {
		return p.finishStopped(ctx, result, report), nil
	}

	if opts.HoldUntilStop {
		p.hold(ctx, stop)
		return p.finishStopped(ctx, result, report), nil
	}

	result.Status = model.RunStatusDone
	p.record(ctx, result.RunID, model.RunUpdate{Status: model.RunStatusDone, Artifacts: arts})
	log.Info("pipeline: run complete")
	return result, nil
}

// hold polls the stop signal once per tick until it fires or ctx ends.
func (p *Pipeline) hold(ctx context.Context, stop *model.StopSignal) {
	tick := p.cfg.HoldTick()
	if tick <= 0 {
		tick = defaultHoldTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for !stop.Stopped() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Pipeline) transition(ctx context.Context, result *Result, u model.RunUpdate) {
	result.Status = u.Status
	p.record(ctx, result.RunID, u)
}

func (p *Pipeline) finishStopped(ctx context.Context, result *Result, report model.Reporter) *Result {
	result.Status = model.RunStatusStopped
	p.record(ctx, result.RunID, model.RunUpdate{Status: model.RunStatusStopped, Artifacts: result.Artifacts})
	report.Printf("Scraping stopped by user.")
	zap.L().Info("pipeline: run stopped", zap.String("run_id", result.RunID))
	return result
}

func (p *Pipeline) fail(ctx context.Context, result *Result, report model.Reporter, err error) error {
	report.Printf("Error: %v", err)
	result.Status = model.RunStatusFailed
	result.Error = err.Error()
	p.record(ctx, result.RunID, model.RunUpdate{Status: model.RunStatusFailed, Error: err.Error()})
	zap.L().Error("pipeline: run failed", zap.String("run_id", result.RunID), zap.Error(err))
	return err
}

// Create inserts the ledger row for query and returns its id. When the
// ledger is unavailable a local id is used so the run can still be tracked
// in logs.
func (p *Pipeline) Create(ctx context.Context, query model.Query) string {
	if p.store == nil {
		return uuid.New().String()
	}
	run, err := resilience.DoVal(ctx, p.ledgerRetry, func(ctx context.Context) (*model.Run, error) {
		return p.store.CreateRun(ctx, query)
	})
	if err != nil {
		zap.L().Warn("pipeline: failed to create run", zap.Error(err))
		return uuid.New().String()
	}
	return run.ID
}

// record writes u to the ledger. Ledger errors are logged and dropped.
func (p *Pipeline) record(ctx context.Context, runID string, u model.RunUpdate) {
	if p.store == nil {
		return
	}
	err := resilience.Do(context.WithoutCancel(ctx), p.ledgerRetry, func(ctx context.Context) error {
		return p.store.UpdateRun(ctx, runID, u)
	})
	if err != nil {
		zap.L().Warn("pipeline: failed to update run",
			zap.String("run_id", runID),
			zap.String("status", string(u.Status)),
			zap.Error(err),
		)
	}
}
