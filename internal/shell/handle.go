package shell

import (
	"context"
	"sync"

	"github.com/sells-group/leadscrape/internal/model"
	"github.com/sells-group/leadscrape/internal/pipeline"
)

// RunHandle tracks one run started by a Session.
type RunHandle struct {
	id    string
	query model.Query
	stop  *model.StopSignal
	done  chan struct{}

	mu     sync.Mutex
	result *pipeline.Result
	err    error
}

func newRunHandle(id string, query model.Query) *RunHandle {
	return &RunHandle{
		id:    id,
		query: query,
		stop:  model.NewStopSignal(),
		done:  make(chan struct{}),
	}
}

// ID returns the ledger id of the run.
func (h *RunHandle) ID() string { return h.id }

// Query returns the query the run was started with.
func (h *RunHandle) Query() model.Query { return h.query }

// Stop fires the run's stop signal and reports whether this call fired it.
func (h *RunHandle) Stop() bool { return h.stop.Stop() }

// Done is closed when the run goroutine returns.
func (h *RunHandle) Done() <-chan struct{} { return h.done }

// Finished reports whether the run goroutine has returned.
func (h *RunHandle) Finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome once the run has finished. Before that it
// returns nil and a nil error.
func (h *RunHandle) Result() (*pipeline.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Wait blocks until the run finishes or ctx ends.
func (h *RunHandle) Wait(ctx context.Context) (*pipeline.Result, error) {
	select {
	case <-h.done:
		return h.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *RunHandle) finish(res *pipeline.Result, err error) {
	h.mu.Lock()
	h.result, h.err = res, err
	h.mu.Unlock()
	close(h.done)
}
