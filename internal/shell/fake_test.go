package shell

import (
	"context"
	"errors"
	"sync"

	"github.com/sells-group/leadscrape/internal/model"
	"github.com/sells-group/leadscrape/internal/pipeline"
)

// fakeRunner finishes immediately, or waits for a stop when block is set.
type fakeRunner struct {
	mu    sync.Mutex
	block bool
	fail  bool
	opts  []pipeline.Options
	keys  []string
}

func (f *fakeRunner) factory(apiKey string) (Runner, error) {
	f.mu.Lock()
	f.keys = append(f.keys, apiKey)
	f.mu.Unlock()
	return f, nil
}

func (f *fakeRunner) Create(_ context.Context, _ model.Query) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return "run-" + string(rune('a'+len(f.opts)))
}

func (f *fakeRunner) Run(ctx context.Context, query model.Query, opts pipeline.Options, stop *model.StopSignal, report model.Reporter) (*pipeline.Result, error) {
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	res := &pipeline.Result{RunID: opts.RunID, Query: query}
	report("Scraping...")
	if f.fail {
		res.Status = model.RunStatusFailed
		res.Error = "boom"
		return res, errors.New("boom")
	}
	if f.block {
		select {
		case <-stop.Done():
		case <-ctx.Done():
		}
		report("Scraping stopped by user.")
		res.Status = model.RunStatusStopped
		return res, nil
	}
	res.Status = model.RunStatusDone
	return res, nil
}

func (f *fakeRunner) calls() []pipeline.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.Options(nil), f.opts...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (n *recordingNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{Title: title, Message: message})
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}
