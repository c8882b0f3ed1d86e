// Package shell is the interactive front end of a lead run: it holds the
// in-memory credential, starts and stops runs, keeps the progress log, and
// fans progress and notifications out to subscribers.
package shell

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/events"
	"github.com/sells-group/leadscrape/internal/model"
	"github.com/sells-group/leadscrape/internal/pipeline"
)

// Input validation and run-guard errors.
var (
	ErrMissingQuery  = eris.New("shell: missing query")
	ErrMissingAPIKey = eris.New("shell: missing api key")
	ErrRunActive     = eris.New("shell: a run is already active")
)

const (
	msgConfigSaved   = "Your Config settings have been successfully saved."
	msgMissingQuery  = "Please enter a query."
	msgMissingAPIKey = "Please enter the Anthropic API key."
	msgStarted       = "Started Scraping"
	msgStopping      = "Stopping all operations..."
	titleConfigSaved = "Config Settings Saved"
	titleError       = "Error"
	maxLogLines      = 5000
)

// Runner executes pipeline runs. *pipeline.Pipeline implements it.
type Runner interface {
	Create(ctx context.Context, query model.Query) string
	Run(ctx context.Context, query model.Query, opts pipeline.Options, stop *model.StopSignal, report model.Reporter) (*pipeline.Result, error)
}

// RunnerFactory builds a Runner bound to the session credential.
type RunnerFactory func(apiKey string) (Runner, error)

// Session is the state shared by every front-end action.
type Session struct {
	mu       sync.Mutex
	apiKey   string
	active   *RunHandle
	defaults pipeline.Options

	newRunner RunnerFactory
	notifier  Notifier
	hub       *events.Hub

	logMu sync.Mutex
	lines []string
}

// NewSession creates a Session. hub may be nil when nothing streams events.
func NewSession(factory RunnerFactory, notifier Notifier, hub *events.Hub, defaults pipeline.Options) *Session {
	if notifier == nil {
		notifier = NewNotifier(hub)
	}
	return &Session{
		newRunner: factory,
		notifier:  notifier,
		hub:       hub,
		defaults:  defaults,
	}
}

// SaveConfig stores the API credential for this process only.
func (s *Session) SaveConfig(apiKey string) {
	s.mu.Lock()
	s.apiKey = apiKey
	s.mu.Unlock()

	zap.L().Info("shell: config saved", zap.Bool("api_key_set", apiKey != ""))
	s.notifier.Notify(titleConfigSaved, msgConfigSaved)
}

// HasAPIKey reports whether a credential has been saved.
func (s *Session) HasAPIKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey != ""
}

// Defaults returns the options applied to runs started without overrides.
func (s *Session) Defaults() pipeline.Options {
	return s.defaults
}

// Start validates input and launches a run on its own goroutine. It returns
// as soon as the run is registered. ctx bounds the run, so callers pass a
// process-lifetime context rather than a request context.
func (s *Session) Start(ctx context.Context, query model.Query, opts pipeline.Options) (*RunHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if query.Empty() {
		s.notifier.Notify(titleError, msgMissingQuery)
		return nil, ErrMissingQuery
	}
	if s.apiKey == "" {
		s.notifier.Notify(titleError, msgMissingAPIKey)
		return nil, ErrMissingAPIKey
	}
	if s.active != nil && !s.active.Finished() {
		return nil, ErrRunActive
	}

	runner, err := s.newRunner(s.apiKey)
	if err != nil {
		return nil, eris.Wrap(err, "shell: build runner")
	}

	opts.RunID = runner.Create(ctx, query)
	h := newRunHandle(opts.RunID, query)
	s.active = h

	report := s.reporter(h.id)
	report(msgStarted)
	s.publish(h.id, events.TypeStatus, statusEvent{Status: model.RunStatusIdle, Query: query})

	go func() {
		res, err := runner.Run(ctx, query, opts, h.stop, report)
		h.finish(res, err)

		ev := statusEvent{Query: query, Status: model.RunStatusFailed}
		if res != nil {
			ev.Status = res.Status
			ev.Error = res.Error
		}
		s.publish(h.id, events.TypeStatus, ev)
		zap.L().Info("shell: run finished", zap.String("run_id", h.id), zap.String("status", string(ev.Status)))
	}()

	return h, nil
}

// Stop signals the active run to stop. It reports whether a run was active.
// Repeated calls are harmless; the stop line is logged once per run.
func (s *Session) Stop() bool {
	s.mu.Lock()
	h := s.active
	s.mu.Unlock()

	if h == nil || h.Finished() {
		return false
	}
	if h.Stop() {
		zap.L().Info("shell: stop requested", zap.String("run_id", h.id))
		s.reporter(h.id)(msgStopping)
	}
	return true
}

// Active returns the most recent run, finished or not, or nil.
func (s *Session) Active() *RunHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Log returns a copy of the accumulated progress lines.
func (s *Session) Log() []string {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return append([]string(nil), s.lines...)
}

// reporter appends each line to the session log and publishes it.
func (s *Session) reporter(runID string) model.Reporter {
	return func(msg string) {
		s.logMu.Lock()
		s.lines = append(s.lines, msg)
		if len(s.lines) > maxLogLines {
			s.lines = s.lines[len(s.lines)-maxLogLines:]
		}
		s.logMu.Unlock()

		zap.L().Debug("shell: progress", zap.String("run_id", runID), zap.String("msg", msg))
		s.publish(runID, events.TypeProgress, progressEvent{Message: msg})
	}
}

func (s *Session) publish(runID, typ string, data any) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(events.Make(runID, typ, data))
}

type progressEvent struct {
	Message string `json:"message"`
}

type statusEvent struct {
	Query  model.Query     `json:"query"`
	Status model.RunStatus `json:"status"`
	Error  string          `json:"error,omitempty"`
}
