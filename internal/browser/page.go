// Package browser drives a headless Chrome session to capture a search
// results page as plain text.
package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// ErrPageClosed is returned when the tab, its context, or the browser went
// away underneath an operation.
var ErrPageClosed = eris.New("browser: page closed")

// Page is the slice of a browser tab the scroll loop needs.
type Page interface {
	ScrollHeight() (int64, error)
	ScrollToBottom() error
	BodyText() (string, error)
}

// chromePage implements Page on a chromedp tab context.
type chromePage struct {
	ctx context.Context
}

func (p *chromePage) ScrollHeight() (int64, error) {
	var h float64
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(`document.documentElement.scrollHeight`, &h)); err != nil {
		return 0, pageErr(err, "scroll height")
	}
	return int64(h), nil
}

func (p *chromePage) ScrollToBottom() error {
	var ok bool
	js := `(() => { window.scrollTo(0, document.documentElement.scrollHeight); return true; })()`
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return pageErr(err, "scroll to bottom")
	}
	return nil
}

func (p *chromePage) BodyText() (string, error) {
	var text string
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(`document.body.innerText`, &text)); err != nil {
		return "", pageErr(err, "body text")
	}
	return text, nil
}

// pageErr maps lost-target failures onto ErrPageClosed.
func pageErr(err error, op string) error {
	if isClosed(err) {
		return eris.Wrapf(ErrPageClosed, "%s: %v", op, err)
	}
	return eris.Wrapf(err, "browser: %s", op)
}

func isClosed(err error) bool {
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, chromedp.ErrInvalidContext) ||
		errors.Is(err, chromedp.ErrChannelClosed) ||
		errors.Is(err, chromedp.ErrInvalidTarget) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "target closed") ||
		strings.Contains(msg, "has been closed") ||
		strings.Contains(msg, "websocket: close")
}
