package shell

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscrape/internal/events"
	"github.com/sells-group/leadscrape/internal/model"
	"github.com/sells-group/leadscrape/internal/pipeline"
)

func newTestSession(r *fakeRunner) (*Session, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewSession(r.factory, n, nil, pipeline.Options{MaxScrolls: 5}), n
}

func waitDone(t *testing.T, h *RunHandle) *pipeline.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, _ := h.Wait(ctx)
	require.NotNil(t, res, "run did not finish")
	return res
}

func TestSaveConfig(t *testing.T) {
	s, n := newTestSession(&fakeRunner{})
	assert.False(t, s.HasAPIKey())

	s.SaveConfig("sk-test")
	assert.True(t, s.HasAPIKey())
	assert.Equal(t, []Notification{{Title: "Config Settings Saved", Message: "Your Config settings have been successfully saved."}}, n.all())
}

func TestStart_MissingQuery(t *testing.T) {
	r := &fakeRunner{}
	s, n := newTestSession(r)
	s.SaveConfig("sk-test")

	h, err := s.Start(context.Background(), "   ", s.Defaults())
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrMissingQuery)
	assert.Equal(t, "Please enter a query.", n.all()[1].Message)
	assert.Empty(t, r.calls())
}

func TestStart_MissingAPIKey(t *testing.T) {
	r := &fakeRunner{}
	s, n := newTestSession(r)

	_, err := s.Start(context.Background(), "vegan bakeries nyc", s.Defaults())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	require.Len(t, n.all(), 1)
	assert.Equal(t, Notification{Title: "Error", Message: "Please enter the Anthropic API key."}, n.all()[0])
	assert.Empty(t, r.calls())
}

func TestStart_RunsToCompletion(t *testing.T) {
	r := &fakeRunner{}
	s, _ := newTestSession(r)
	s.SaveConfig("sk-test")

	h, err := s.Start(context.Background(), "vegan bakeries nyc", s.Defaults())
	require.NoError(t, err)
	assert.Equal(t, "run-a", h.ID())

	res := waitDone(t, h)
	assert.Equal(t, model.RunStatusDone, res.Status)
	assert.True(t, h.Finished())

	calls := r.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "run-a", calls[0].RunID)
	assert.Equal(t, 5, calls[0].MaxScrolls)
	assert.Equal(t, []string{"sk-test"}, r.keys)
	assert.Equal(t, []string{"Started Scraping", "Scraping..."}, s.Log())
}

func TestStart_RejectsSecondActiveRun(t *testing.T) {
	r := &fakeRunner{block: true}
	s, _ := newTestSession(r)
	s.SaveConfig("sk-test")

	h, err := s.Start(context.Background(), "q1", s.Defaults())
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "q2", s.Defaults())
	assert.ErrorIs(t, err, ErrRunActive)

	assert.True(t, s.Stop())
	res := waitDone(t, h)
	assert.Equal(t, model.RunStatusStopped, res.Status)

	h2, err := s.Start(context.Background(), "q2", s.Defaults())
	require.NoError(t, err)
	assert.Equal(t, model.Query("q2"), h2.Query())
	s.Stop()
	waitDone(t, h2)
}

func TestStop_Idempotent(t *testing.T) {
	r := &fakeRunner{block: true}
	s, _ := newTestSession(r)
	s.SaveConfig("sk-test")

	assert.False(t, s.Stop())

	h, err := s.Start(context.Background(), "q", s.Defaults())
	require.NoError(t, err)

	assert.True(t, s.Stop())
	s.Stop()
	waitDone(t, h)
	assert.False(t, s.Stop())

	stops := 0
	for _, line := range s.Log() {
		if line == "Stopping all operations..." {
			stops++
		}
	}
	assert.Equal(t, 1, stops)
	assert.Equal(t, "Scraping stopped by user.", s.Log()[len(s.Log())-1])
}

func TestStart_FailedRunStillFinishes(t *testing.T) {
	r := &fakeRunner{fail: true}
	s, _ := newTestSession(r)
	s.SaveConfig("sk-test")

	h, err := s.Start(context.Background(), "q", s.Defaults())
	require.NoError(t, err)
	res := waitDone(t, h)
	assert.Equal(t, model.RunStatusFailed, res.Status)

	_, runErr := h.Result()
	assert.EqualError(t, runErr, "boom")
}

func TestStart_RunnerFactoryError(t *testing.T) {
	s := NewSession(func(string) (Runner, error) { return nil, errors.New("no chrome") }, &recordingNotifier{}, nil, pipeline.Options{})
	s.SaveConfig("sk-test")

	_, err := s.Start(context.Background(), "q", s.Defaults())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shell: build runner")
	assert.Nil(t, s.Active())
}

func TestSession_PublishesEvents(t *testing.T) {
	hub := events.NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	r := &fakeRunner{}
	s := NewSession(r.factory, nil, hub, pipeline.Options{})
	s.SaveConfig("sk-test")

	h, err := s.Start(context.Background(), "q", s.Defaults())
	require.NoError(t, err)
	waitDone(t, h)

	var types []string
	var last events.Event
	deadline := time.After(2 * time.Second)
	for len(types) < 5 {
		select {
		case msg := <-ch:
			require.NoError(t, json.Unmarshal([]byte(msg), &last))
			types = append(types, last.Type)
		case <-deadline:
			t.Fatalf("got only %v", types)
		}
	}

	// notification, "Started Scraping", idle status, "Scraping...", final status
	assert.Equal(t, []string{
		events.TypeNotification,
		events.TypeProgress,
		events.TypeStatus,
		events.TypeProgress,
		events.TypeStatus,
	}, types)
	assert.Equal(t, h.ID(), last.RunID)
	assert.JSONEq(t, `{"query":"q","status":"done"}`, string(last.Data))
}
