package browser

import (
	"context"
	"sync"

	"github.com/sells-group/leadscrape/internal/model"
)

// fakePage grows by one step per scroll until stallAfter scrolls, then keeps
// reporting the same height.
type fakePage struct {
	mu         sync.Mutex
	height     int64
	step       int64
	stallAfter int
	scrolls    int
	text       string

	heightErr error
	textErr   error
	onScroll  func(n int)
}

func (p *fakePage) ScrollHeight() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.heightErr != nil {
		return 0, p.heightErr
	}
	return p.height, nil
}

func (p *fakePage) ScrollToBottom() error {
	p.mu.Lock()
	p.scrolls++
	n := p.scrolls
	if n <= p.stallAfter {
		p.height += p.step
	}
	cb := p.onScroll
	p.mu.Unlock()
	if cb != nil {
		cb(n)
	}
	return nil
}

func (p *fakePage) BodyText() (string, error) {
	if p.textErr != nil {
		return "", p.textErr
	}
	return p.text, nil
}

func openerFor(p Page, released *bool) OpenFunc {
	return func(_ context.Context, _ model.Query, _ model.Reporter) (Page, func(), error) {
		return p, func() {
			if released != nil {
				*released = true
			}
		}, nil
	}
}
