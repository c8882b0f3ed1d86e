package browser

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/config"
	"github.com/sells-group/leadscrape/internal/model"
)

// OpenFunc opens a results page for query. The returned func releases it.
type OpenFunc func(ctx context.Context, query model.Query, report model.Reporter) (Page, func(), error)

// Scraper captures search results pages to text files.
type Scraper struct {
	cfg    config.BrowserConfig
	outDir string
	open   OpenFunc
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithOpener replaces the Chrome launcher, mainly for tests.
func WithOpener(fn OpenFunc) Option {
	return func(s *Scraper) { s.open = fn }
}

// NewScraper returns a Scraper writing into outDir.
func NewScraper(cfg config.BrowserConfig, outDir string, opts ...Option) *Scraper {
	s := &Scraper{cfg: cfg, outDir: outDir}
	s.open = func(ctx context.Context, q model.Query, r model.Reporter) (Page, func(), error) {
		return openSearch(ctx, s.cfg, q, r)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scrape searches for query, scrolls the results up to maxScrolls times,
// and writes the visible page text to scraped_content_<query>.txt. Scroll
// problems only shorten the capture; launch, navigation, capture, and write
// failures are returned and no file is written.
func (s *Scraper) Scrape(ctx context.Context, query model.Query, maxScrolls int, stop *model.StopSignal, report model.Reporter) (string, error) {
	log := zap.L().With(zap.String("query", query.String()))

	page, release, err := s.open(ctx, query, report)
	if err != nil {
		return "", eris.Wrap(err, "browser: open search")
	}
	defer release()

	res := ScrollLoop(page, maxScrolls, s.cfg.ScrollDelay(), stop, report)
	log.Info("browser: scroll finished", zap.Int("scrolls", res.Scrolls), zap.String("reason", string(res.Reason)))

	text, err := page.BodyText()
	if err != nil {
		return "", eris.Wrap(err, "browser: capture text")
	}

	if blocked, kind := DetectBlock(text); blocked {
		log.Warn("browser: results page looks blocked", zap.String("block_type", string(kind)))
		report.Printf("Warning: search page may be blocked (%s).", kind)
	}

	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return "", eris.Wrap(err, "browser: create output dir")
	}
	path := filepath.Join(s.outDir, query.TextFileName())
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", eris.Wrap(err, "browser: write text")
	}

	report.Printf("Scraping complete. Content saved to file.")
	log.Info("browser: saved page text", zap.String("path", path), zap.Int("bytes", len(text)))
	return path, nil
}
