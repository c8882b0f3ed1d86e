package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on. All problems are
// reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "scrape", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Browser.MaxScrolls < 1 {
		errs = append(errs, "browser.max_scrolls must be >= 1")
	}
	if c.Browser.SearchURL == "" {
		errs = append(errs, "browser.search_url is required")
	}
	if c.Extract.MaxAttempts < 1 {
		errs = append(errs, "extract.max_attempts must be >= 1")
	}
	if c.Anthropic.Model == "" {
		errs = append(errs, "anthropic.model is required")
	}
	if c.Anthropic.TopP < 0 || c.Anthropic.TopP > 1 {
		errs = append(errs, "anthropic.top_p must be between 0 and 1")
	}
	if c.Anthropic.Temperature < 0 || c.Anthropic.Temperature > 1 {
		errs = append(errs, "anthropic.temperature must be between 0 and 1")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}

	if mode == "serve" && c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}
