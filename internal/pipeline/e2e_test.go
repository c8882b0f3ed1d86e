package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscrape/internal/browser"
	"github.com/sells-group/leadscrape/internal/config"
	"github.com/sells-group/leadscrape/internal/extract"
	"github.com/sells-group/leadscrape/internal/model"
	"github.com/sells-group/leadscrape/internal/tabular"
	"github.com/sells-group/leadscrape/pkg/anthropic"
)

// stallingPage grows for stallAfter scrolls and then keeps its height.
type stallingPage struct {
	mu         sync.Mutex
	height     int64
	scrolls    int
	stallAfter int
	text       string
}

func (p *stallingPage) ScrollHeight() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.height, nil
}

func (p *stallingPage) ScrollToBottom() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls++
	if p.scrolls <= p.stallAfter {
		p.height += 1000
	}
	return nil
}

func (p *stallingPage) BodyText() (string, error) { return p.text, nil }

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

const janeResponse = "name,emailid,social link, profession\nJane Doe,jane@x.com,linkedin.com/jane,Baker"

func newEndToEnd(t *testing.T, dir string, page browser.Page, gen anthropic.Client) *Pipeline {
	t.Helper()
	opener := func(context.Context, model.Query, model.Reporter) (browser.Page, func(), error) {
		return page, func() {}, nil
	}
	sc := browser.NewScraper(config.BrowserConfig{}, dir, browser.WithOpener(opener))
	ex := extract.New(gen,
		config.AnthropicConfig{Model: "claude-sonnet-4-20250514", MaxTokens: 1024, Temperature: 1.0, TopP: 0.7},
		config.ExtractConfig{MaxAttempts: 3, RetryDelayMs: 1},
		dir,
	)
	return New(fastConfig(), sc, ex, newTestStore(t))
}

func TestEndToEnd_VeganBakeries(t *testing.T) {
	dir := t.TempDir()
	page := &stallingPage{height: 1000, stallAfter: 2, text: "Vegan bakeries in NYC ... Jane Doe, Baker"}
	gen := new(mockGenerator)
	gen.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: janeResponse}}}, nil)

	progress := newProgressLog()
	p := newEndToEnd(t, dir, page, gen)
	res, err := p.Run(context.Background(), "vegan bakeries nyc", Options{MaxScrolls: 10}, model.NewStopSignal(), progress.report)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusDone, res.Status)

	// Heights 1000, 2000, 3000, 3000: the fourth read equals the third.
	assert.Equal(t, 4, page.scrolls)

	textPath := filepath.Join(dir, "scraped_content_vegan_bakeries_nyc.txt")
	assert.Equal(t, textPath, res.TextPath)
	data, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Equal(t, page.text, string(data))

	wantRow := []string{"Jane Doe", "jane@x.com", "linkedin.com/jane", "Baker"}

	csvRows, err := tabular.ReadCSV(filepath.Join(dir, "lead_data_vegan bakeries nyc.csv"))
	require.NoError(t, err)
	require.Len(t, csvRows, 2)
	assert.Equal(t, model.LeadColumns, csvRows[0])
	assert.Equal(t, wantRow, csvRows[1])

	xlsxRows, err := tabular.ReadXLSX(filepath.Join(dir, "lead_data_vegan bakeries nyc.xlsx"))
	require.NoError(t, err)
	require.Len(t, xlsxRows, 2)
	assert.Equal(t, wantRow, xlsxRows[1])

	assert.Contains(t, progress.all(), "Scraping complete. Content saved to file.")
	gen.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestEndToEnd_RerunDedupsCSVOnly(t *testing.T) {
	dir := t.TempDir()
	gen := new(mockGenerator)
	gen.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: janeResponse}}}, nil)

	for i := 0; i < 2; i++ {
		p := newEndToEnd(t, dir, &stallingPage{height: 1000, stallAfter: 1, text: "page"}, gen)
		_, err := p.Run(context.Background(), "vegan bakeries nyc", Options{MaxScrolls: 3}, nil, nil)
		require.NoError(t, err)
	}

	csvRows, err := tabular.ReadCSV(filepath.Join(dir, "lead_data_vegan bakeries nyc.csv"))
	require.NoError(t, err)
	assert.Len(t, csvRows, 2)

	xlsxRows, err := tabular.ReadXLSX(filepath.Join(dir, "lead_data_vegan bakeries nyc.xlsx"))
	require.NoError(t, err)
	assert.Len(t, xlsxRows, 3)
}

func TestEndToEnd_GenerationFailureLeavesNoArtifacts(t *testing.T) {
	dir := t.TempDir()
	gen := new(mockGenerator)
	gen.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	p := newEndToEnd(t, dir, &stallingPage{height: 1000, stallAfter: 1, text: "page"}, gen)
	res, err := p.Run(context.Background(), "vegan bakeries nyc", Options{MaxScrolls: 3}, nil, nil)
	require.ErrorIs(t, err, extract.ErrGenerationUnavailable)
	assert.Equal(t, model.RunStatusFailed, res.Status)
	gen.AssertNumberOfCalls(t, "CreateMessage", 3)

	assert.FileExists(t, filepath.Join(dir, "scraped_content_vegan_bakeries_nyc.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "lead_data_vegan bakeries nyc.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "lead_data_vegan bakeries nyc.xlsx"))
}

func TestEndToEnd_StopDuringHoldKeepsFiles(t *testing.T) {
	dir := t.TempDir()
	gen := new(mockGenerator)
	gen.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: janeResponse}}}, nil)

	stop := model.NewStopSignal()
	progress := newProgressLog()
	p := newEndToEnd(t, dir, &stallingPage{height: 1000, stallAfter: 2, text: "page"}, gen)

	done := make(chan *Result, 1)
	go func() {
		res, _ := p.Run(context.Background(), "vegan bakeries nyc", Options{MaxScrolls: 10, HoldUntilStop: true}, stop, progress.report)
		done <- res
	}()

	csvPath := filepath.Join(dir, "lead_data_vegan bakeries nyc.csv")
	waitFor(t, progress, "Excel file is saved as "+filepath.Join(dir, "lead_data_vegan bakeries nyc.xlsx"))
	before, err := os.Stat(csvPath)
	require.NoError(t, err)

	stop.Stop()
	stoppedAt := time.Now()
	var res *Result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
	// One 10ms tick plus scheduling slack.
	assert.Less(t, time.Since(stoppedAt), 500*time.Millisecond)
	assert.Equal(t, model.RunStatusStopped, res.Status)

	after, err := os.Stat(csvPath)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Equal(t, before.Size(), after.Size())
}
