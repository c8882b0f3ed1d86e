package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/config"
	"github.com/sells-group/leadscrape/internal/model"
)

const searchInput = `[aria-label="Search"]`

// Block and consent markers are matched in English.
const acceptLanguage = "en-US,en;q=0.9"

var consentSelectors = []string{
	`button[aria-label="Accept all"]`,
	`button[aria-label="I agree"]`,
	`button[aria-label="Accept all cookies"]`,
	`button[jsname="b3VHJd"]`,
}

var consentTexts = []string{
	"Accept all",
	"I agree",
	"Agree to all",
}

// setupChrome starts a Chrome allocator and tab. The returned cancel tears
// down both.
func setupChrome(parent context.Context, cfg config.BrowserConfig) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	execPath := cfg.ExecPath
	if execPath == "" {
		execPath = os.Getenv("CHROME_PATH")
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	return ctx, func() {
		cancel()
		allocCancel()
	}
}

// openSearch launches Chrome, submits query on the search page, and returns
// the results tab once the page has settled.
func openSearch(ctx context.Context, cfg config.BrowserConfig, query model.Query, report model.Reporter) (Page, func(), error) {
	tabCtx, cancel := setupChrome(ctx, cfg)

	report.Printf("Launching Chromium browser...")
	// Start the browser on the tab context itself; a derived timeout context
	// would take the browser down with it.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, nil, eris.Wrap(err, "browser: launch chrome")
	}

	timeout := cfg.NavTimeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(tabCtx, timeout)
	defer navCancel()

	if err := chromedp.Run(navCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": acceptLanguage}),
		chromedp.Navigate(cfg.SearchURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		cancel()
		return nil, nil, eris.Wrapf(err, "browser: navigate %s", cfg.SearchURL)
	}

	acceptConsent(tabCtx)

	report.Printf("Navigating to Google search page...")
	if err := chromedp.Run(navCtx,
		chromedp.Click(searchInput, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.SendKeys(searchInput, query.String()+kb.Enter, chromedp.ByQuery),
	); err != nil {
		cancel()
		return nil, nil, eris.Wrap(err, "browser: submit search")
	}

	report.Printf("Performing Google search...")
	if err := waitLoaded(navCtx); err != nil {
		cancel()
		return nil, nil, err
	}

	if settle := cfg.Settle(); settle > 0 {
		if err := chromedp.Run(navCtx, chromedp.Sleep(settle)); err != nil {
			cancel()
			return nil, nil, eris.Wrap(err, "browser: settle")
		}
	}

	return &chromePage{ctx: tabCtx}, cancel, nil
}

// acceptConsent clicks through a cookie consent dialog if one is showing.
func acceptConsent(ctx context.Context) {
	for _, sel := range consentSelectors {
		tctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := chromedp.Run(tctx, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible))
		cancel()
		if err == nil {
			zap.L().Debug("browser: accepted consent", zap.String("selector", sel))
			return
		}
	}

	for _, text := range consentTexts {
		xp := fmt.Sprintf(`//button[contains(., %q)]`, text)
		tctx, cancel := context.WithTimeout(ctx, time.Second)
		err := chromedp.Run(tctx, chromedp.Click(xp, chromedp.BySearch, chromedp.NodeVisible))
		cancel()
		if err == nil {
			zap.L().Debug("browser: accepted consent", zap.String("text", text))
			return
		}
	}
}

// waitLoaded polls document.readyState until the results page is complete.
func waitLoaded(ctx context.Context) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		var state string
		if err := chromedp.Run(ctx, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
			return eris.Wrap(err, "browser: wait for load")
		}
		if state == "complete" {
			return nil
		}
		select {
		case <-ctx.Done():
			return eris.Wrap(ctx.Err(), "browser: wait for load")
		case <-ticker.C:
		}
	}
}
