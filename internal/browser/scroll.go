package browser

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/model"
)

// ExitReason says why the scroll loop ended.
type ExitReason string

const (
	ExitLimit   ExitReason = "limit"
	ExitStall   ExitReason = "stall"
	ExitStopped ExitReason = "stopped"
	ExitError   ExitReason = "error"
)

// ScrollResult summarizes a scroll loop run.
type ScrollResult struct {
	Scrolls int
	Height  int64
	Reason  ExitReason
}

// ScrollLoop scrolls page to the bottom up to maxScrolls times, pausing delay
// after each scroll. It stops early when the page height stops growing, when
// stop fires, or when the page fails; failures are logged and reported,
// never returned.
func ScrollLoop(page Page, maxScrolls int, delay time.Duration, stop *model.StopSignal, report model.Reporter) ScrollResult {
	var res ScrollResult
	res.Reason = ExitLimit

	var prev int64
	for n := 0; n < maxScrolls; n++ {
		if stop.Stopped() {
			res.Reason = ExitStopped
			break
		}

		h, err := page.ScrollHeight()
		if err == nil {
			err = page.ScrollToBottom()
		}
		if err != nil {
			reportLoopError(err, report)
			res.Reason = ExitError
			break
		}
		res.Scrolls++
		report.Printf("Scrolling... %d/%d", n, maxScrolls)

		if !pause(delay, stop) {
			res.Reason = ExitStopped
			break
		}

		if h <= prev {
			res.Reason = ExitStall
			break
		}
		prev = h
		res.Height = h
	}

	zap.L().Debug("browser: scroll loop finished",
		zap.Int("scrolls", res.Scrolls),
		zap.Int64("height", res.Height),
		zap.String("reason", string(res.Reason)),
	)
	return res
}

func reportLoopError(err error, report model.Reporter) {
	if errors.Is(err, ErrPageClosed) {
		zap.L().Warn("browser: page closed during scroll", zap.Error(err))
		report.Printf("Target page, context, or browser has been closed. Exiting loop.")
		return
	}
	zap.L().Warn("browser: scroll failed", zap.Error(err))
	report.Printf("Error occurred: %v", err)
}

// pause waits for d and reports false if stop fired first.
func pause(d time.Duration, stop *model.StopSignal) bool {
	if d <= 0 {
		return !stop.Stopped()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stop.Done():
		return false
	}
}
