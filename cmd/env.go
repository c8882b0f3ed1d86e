package main

import (
	"time"

	"github.com/sells-group/leadscrape/internal/browser"
	"github.com/sells-group/leadscrape/internal/events"
	"github.com/sells-group/leadscrape/internal/extract"
	"github.com/sells-group/leadscrape/internal/pipeline"
	"github.com/sells-group/leadscrape/internal/shell"
	"github.com/sells-group/leadscrape/internal/store"
	"github.com/sells-group/leadscrape/pkg/anthropic"
)

// newRunnerFactory wires a pipeline for each run from the current config
// and the credential held by the session.
func newRunnerFactory(st store.Store) shell.RunnerFactory {
	return func(apiKey string) (shell.Runner, error) {
		client := anthropic.NewClient(apiKey,
			anthropic.WithBaseURL(cfg.Anthropic.BaseURL),
			anthropic.WithTimeout(time.Duration(cfg.Anthropic.TimeoutSecs)*time.Second),
			anthropic.WithRequestsPerMinute(cfg.Anthropic.RequestsPerMinute),
		)
		sc := browser.NewScraper(cfg.Browser, cfg.Output.Dir)
		ex := extract.New(client, cfg.Anthropic, cfg.Extract, cfg.Output.Dir)
		return pipeline.New(cfg.Pipeline, sc, ex, st), nil
	}
}

// newSession builds a Session whose runs are recorded in st.
func newSession(st store.Store, hub *events.Hub, notifier shell.Notifier, opts pipeline.Options) *shell.Session {
	s := shell.NewSession(newRunnerFactory(st), notifier, hub, opts)
	if cfg.Anthropic.Key != "" {
		s.SaveConfig(cfg.Anthropic.Key)
	}
	return s
}
