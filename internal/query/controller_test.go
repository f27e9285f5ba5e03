// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Elambeth/mm-archive/internal/api"
	"github.com/Elambeth/mm-archive/internal/progress"
	"github.com/Elambeth/mm-archive/internal/session"
	"github.com/Elambeth/mm-archive/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- test helpers ---

// fakeAsker answers from a function and counts calls. When gate is
// non-nil each call blocks until the gate is closed.
type fakeAsker struct {
	calls int32
	gate  chan struct{}
	fn    func(query string) (*types.AnswerResult, error)
}

func (f *fakeAsker) Ask(_ context.Context, query string) (*types.AnswerResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		<-f.gate
	}
	return f.fn(query)
}

func (f *fakeAsker) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

func answering(result types.AnswerResult) *fakeAsker {
	return &fakeAsker{fn: func(string) (*types.AnswerResult, error) {
		r := result
		return &r, nil
	}}
}

func failing(err error) *fakeAsker {
	return &fakeAsker{fn: func(string) (*types.AnswerResult, error) { return nil, err }}
}

func testProgress() progress.Config {
	return progress.Config{Interval: time.Millisecond, ClearDelay: -1}
}

func newController(t *testing.T, asker Asker) (*Controller, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(nil)
	return New(asker, store, WithProgress(testProgress())), store
}

func roicResult() types.AnswerResult {
	return types.AnswerResult{
		Answer: "ROIC matters.\nIt drives value.",
		Sources: []types.Citation{
			{ID: "p1", Title: "Measuring Returns", Year: 2014, Page: 3, Filename: "measuring-returns.pdf"},
		},
	}
}

// --- validation ---

func TestSubmitRejectsBlankQueries(t *testing.T) {
	for _, q := range []string{"", " ", "\t", "\n  \t", "  "} {
		t.Run(fmt.Sprintf("%q", q), func(t *testing.T) {
			asker := answering(roicResult())
			c, store := newController(t, asker)
			before := c.View()

			err := c.Submit(context.Background(), q)

			assert.ErrorIs(t, err, ErrEmptyQuery)
			assert.Zero(t, asker.Calls())
			assert.Equal(t, before, c.View())
			_, ok := store.Load(context.Background())
			assert.False(t, ok)
		})
	}
}

func TestSubmitRejectsBlankQueryWithoutTouchingResolvedState(t *testing.T) {
	asker := answering(roicResult())
	c, _ := newController(t, asker)
	require.NoError(t, c.Submit(context.Background(), "What does he say about ROIC?"))
	before := c.View()

	assert.ErrorIs(t, c.Submit(context.Background(), "   "), ErrEmptyQuery)
	assert.Equal(t, 1, asker.Calls())
	assert.Equal(t, before, c.View())
}

func TestSubmitWhileInFlightIsRejected(t *testing.T) {
	asker := answering(roicResult())
	asker.gate = make(chan struct{})
	c, _ := newController(t, asker)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "first") }()

	require.Eventually(t, func() bool { return c.View().InFlight }, time.Second, time.Millisecond)

	err := c.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrInFlight)
	assert.Equal(t, "first", c.View().Query)

	close(asker.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, asker.Calls())
	assert.Equal(t, Resolved, c.View().State)
}

// --- resolution ---

func TestSubmitResolvesAndPersists(t *testing.T) {
	asker := answering(roicResult())
	c, store := newController(t, asker)

	require.NoError(t, c.Submit(context.Background(), "  What does he say about ROIC?  "))

	v := c.View()
	assert.Equal(t, Resolved, v.State)
	assert.Equal(t, "What does he say about ROIC?", v.Query)
	assert.Equal(t, []string{"ROIC matters.", "It drives value."}, v.Paragraphs)
	require.Len(t, v.Sources(), 1)
	assert.Equal(t, types.PaperID("p1"), v.Sources()[0].ID)
	assert.Empty(t, v.Error)
	assert.False(t, v.InFlight)
	assert.True(t, v.Progress.IsZero())

	entry, ok := store.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "What does he say about ROIC?", entry.Query)
	assert.Equal(t, roicResult(), entry.Result)
}

func TestSourceOrderPreserved(t *testing.T) {
	want := types.AnswerResult{
		Answer: "x",
		Sources: []types.Citation{
			{ID: "z", Filename: "z.pdf", Page: 9},
			{ID: "a", Filename: "a.pdf", Page: 1},
			{ID: "m", Filename: "m.pdf", Page: 4},
		},
	}
	c, store := newController(t, answering(want))
	require.NoError(t, c.Submit(context.Background(), "order"))

	if diff := cmp.Diff(want.Sources, c.View().Sources()); diff != "" {
		t.Errorf("view sources mismatch (-want +got):\n%s", diff)
	}
	entry, ok := store.Load(context.Background())
	require.True(t, ok)
	if diff := cmp.Diff(want.Sources, entry.Result.Sources); diff != "" {
		t.Errorf("stored sources mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"api error with message", &api.APIError{StatusCode: 500, Message: "index unavailable"}, "index unavailable"},
		{"api error without message", &api.APIError{StatusCode: 503}, "request failed with status 503"},
		{"transport error", &api.TransportError{Op: "ask", Err: errors.New("connection refused")}, TransportMessage},
		{"decode error", errors.New("parsing ask response: unexpected EOF"), TransportMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := newController(t, failing(tt.err))
			require.NoError(t, store.Save(context.Background(), "previous", roicResult()))

			err := c.Submit(context.Background(), "q")
			assert.ErrorIs(t, err, tt.err)

			v := c.View()
			assert.Equal(t, Failed, v.State)
			assert.Equal(t, tt.wantMsg, v.Error)
			assert.Nil(t, v.Result)
			assert.False(t, v.InFlight)
			assert.True(t, v.Progress.IsZero())

			entry, ok := store.Load(context.Background())
			require.True(t, ok)
			assert.Equal(t, "previous", entry.Query)
			assert.Equal(t, roicResult(), entry.Result)
		})
	}
}

func TestNewSubmitClearsPriorError(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	asker := &fakeAsker{fn: func(string) (*types.AnswerResult, error) {
		if fail.Load() {
			return nil, &api.APIError{StatusCode: 500, Message: "boom"}
		}
		r := roicResult()
		return &r, nil
	}}
	c, _ := newController(t, asker)

	require.Error(t, c.Submit(context.Background(), "q"))
	assert.Equal(t, Failed, c.View().State)

	fail.Store(false)
	require.NoError(t, c.Submit(context.Background(), "q"))
	v := c.View()
	assert.Equal(t, Resolved, v.State)
	assert.Empty(t, v.Error)
}

func TestPanicInAskStillCleansUp(t *testing.T) {
	asker := &fakeAsker{fn: func(string) (*types.AnswerResult, error) { panic("decoder exploded") }}
	c, store := newController(t, asker)

	err := c.Submit(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoder exploded")

	v := c.View()
	assert.Equal(t, Failed, v.State)
	assert.Equal(t, TransportMessage, v.Error)
	assert.False(t, v.InFlight)
	assert.True(t, v.Progress.IsZero())
	_, ok := store.Load(context.Background())
	assert.False(t, ok)

	// The controller accepts a new question afterwards.
	asker.fn = func(string) (*types.AnswerResult, error) { r := roicResult(); return &r, nil }
	require.NoError(t, c.Submit(context.Background(), "q"))
}

// panickingStore fails hard on Save.
type panickingStore struct {
	*session.MemoryStore
}

func (panickingStore) Save(context.Context, string, types.AnswerResult) error {
	panic("disk vanished")
}

func TestPanicAfterResolveKeepsAnswer(t *testing.T) {
	c := New(answering(roicResult()), panickingStore{session.NewMemoryStore(nil)}, WithProgress(testProgress()))

	require.NoError(t, c.Submit(context.Background(), "q"))

	v := c.View()
	assert.Equal(t, Resolved, v.State)
	assert.Empty(t, v.Error)
	assert.False(t, v.InFlight)
	require.Len(t, v.Sources(), 1)
}

func TestProgressRunsOnlyWhileInFlight(t *testing.T) {
	asker := answering(roicResult())
	asker.gate = make(chan struct{})
	c, _ := newController(t, asker)

	var (
		mu    sync.Mutex
		views []ViewModel
	)
	c.Subscribe(func(v ViewModel) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	})

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "q") }()

	require.Eventually(t, func() bool { return c.View().Progress.Percent > 0 }, time.Second, time.Millisecond)

	// Everything published while the answer is pending stays below 100.
	mu.Lock()
	for _, v := range views {
		assert.Equal(t, Submitting, v.State)
		assert.Less(t, v.Progress.Percent, 100)
	}
	mu.Unlock()

	close(asker.gate)
	require.NoError(t, <-done)

	mu.Lock()
	n := len(views)
	last := views[n-1]
	mu.Unlock()

	assert.Equal(t, Resolved, last.State)
	assert.True(t, last.Progress.IsZero())

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, n, len(views), "no updates after resolution")
	mu.Unlock()
}

// --- reset and restore ---

func TestResetAfterResolved(t *testing.T) {
	c, store := newController(t, answering(roicResult()))
	require.NoError(t, c.Submit(context.Background(), "What does he say about ROIC?"))

	c.Reset(context.Background())

	v := c.View()
	assert.Equal(t, Idle, v.State)
	assert.Empty(t, v.Query)
	assert.Nil(t, v.Result)
	assert.Empty(t, v.Error)
	assert.True(t, v.Progress.IsZero())
	_, ok := store.Load(context.Background())
	assert.False(t, ok)

	// Idempotent.
	c.Reset(context.Background())
	assert.Equal(t, v, c.View())
}

func TestResetWhileInFlightDiscardsLateAnswer(t *testing.T) {
	asker := answering(roicResult())
	asker.gate = make(chan struct{})
	c, store := newController(t, asker)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "q") }()
	require.Eventually(t, func() bool {
		v := c.View()
		return v.InFlight && !v.Progress.IsZero()
	}, time.Second, time.Millisecond)

	c.Reset(context.Background())
	v := c.View()
	assert.Equal(t, Idle, v.State)
	assert.True(t, v.Progress.IsZero())
	assert.True(t, v.InFlight, "the network call is still outstanding")

	assert.ErrorIs(t, c.Submit(context.Background(), "other"), ErrInFlight)

	close(asker.gate)
	assert.ErrorIs(t, <-done, ErrAbandoned)

	v = c.View()
	assert.Equal(t, Idle, v.State)
	assert.False(t, v.InFlight)
	_, ok := store.Load(context.Background())
	assert.False(t, ok)
	assert.NoError(t, c.Submit(context.Background(), "other"))
}

func TestRestoreLastSession(t *testing.T) {
	asker := answering(roicResult())
	c, store := newController(t, asker)
	require.NoError(t, store.Save(context.Background(), "What does he say about ROIC?", roicResult()))

	require.True(t, c.RestoreLastSession(context.Background()))

	v := c.View()
	assert.Equal(t, Resolved, v.State)
	assert.Equal(t, "What does he say about ROIC?", v.Query)
	assert.Equal(t, []string{"ROIC matters.", "It drives value."}, v.Paragraphs)
	assert.Zero(t, asker.Calls())
}

func TestRestoreSkipsAbsentSession(t *testing.T) {
	c, _ := newController(t, answering(roicResult()))

	assert.False(t, c.RestoreLastSession(context.Background()))
	assert.Equal(t, Idle, c.View().State)
}

func TestViewSource(t *testing.T) {
	c, _ := newController(t, answering(roicResult()))
	_, ok := c.View().Source(1)
	assert.False(t, ok)

	require.NoError(t, c.Submit(context.Background(), "q"))
	src, ok := c.View().Source(1)
	require.True(t, ok)
	assert.Equal(t, types.PaperID("p1"), src.ID)
	_, ok = c.View().Source(0)
	assert.False(t, ok)
	_, ok = c.View().Source(2)
	assert.False(t, ok)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(9)", State(9).String())
}

// --- end to end against an HTTP collaborator ---

func TestScenarioROICOverHTTP(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"answer":"ROIC matters.\nIt drives value.","sources":[{"id":"p1","title":"Measuring Returns","year":2014,"page":3,"filename":"measuring-returns.pdf"}]}`)
	}))
	defer ts.Close()

	client := api.NewClient(types.APIConfig{BaseURL: ts.URL}, api.WithHTTPClient(ts.Client()))
	c, store := newController(t, client)

	require.NoError(t, c.Submit(context.Background(), "What does he say about ROIC?"))

	v := c.View()
	assert.Equal(t, Resolved, v.State)
	assert.Len(t, v.Paragraphs, 2)
	assert.Len(t, v.Sources(), 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	entry, ok := store.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "What does he say about ROIC?", entry.Query)
	assert.Equal(t, roicResult(), entry.Result)
}

func TestScenarioServerErrorOverHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"index unavailable"}`)
	}))
	defer ts.Close()

	client := api.NewClient(types.APIConfig{BaseURL: ts.URL}, api.WithHTTPClient(ts.Client()))
	c, store := newController(t, client)
	require.NoError(t, store.Save(context.Background(), "earlier", roicResult()))

	require.Error(t, c.Submit(context.Background(), "What does he say about ROIC?"))

	v := c.View()
	assert.Equal(t, Failed, v.State)
	assert.Equal(t, "index unavailable", v.Error)

	entry, ok := store.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "earlier", entry.Query)
	assert.Equal(t, roicResult(), entry.Result)
}
