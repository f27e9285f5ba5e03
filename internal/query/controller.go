// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query owns the lifecycle of one question: validation, the single
// outstanding collaborator call, progress simulation while it runs, and
// persistence of the resolved session.
//
// State machine:
//
//	Idle -> Submitting -> Resolved | Failed
//	Resolved | Failed -> Submitting (new question) or Idle (Reset)
//
// At most one request is outstanding. Submit while one is in flight is
// rejected, not queued.
package query

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Elambeth/mm-archive/internal/api"
	"github.com/Elambeth/mm-archive/internal/progress"
	"github.com/Elambeth/mm-archive/internal/session"
	"github.com/Elambeth/mm-archive/pkg/types"
)

// Validation errors. Their messages are shown to the user verbatim.
var (
	ErrEmptyQuery = errors.New("please enter a question")
	ErrInFlight   = errors.New("a question is already being answered")
)

// ErrAbandoned is returned by Submit when Reset ran while the request was
// outstanding; the late answer is discarded.
var ErrAbandoned = errors.New("session was reset before the answer arrived")

// TransportMessage is shown when the collaborator cannot be reached or its
// answer cannot be read.
const TransportMessage = "Failed to get response. Please try again."

// State is the controller's position in the ask cycle.
type State int

const (
	Idle State = iota
	Submitting
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Asker is the collaborator call the controller depends on.
type Asker interface {
	Ask(ctx context.Context, query string) (*types.AnswerResult, error)
}

// ViewModel is a read-only snapshot for the presentation layer.
type ViewModel struct {
	State State
	Query string

	// Result is set only in the Resolved state.
	Result *types.AnswerResult

	// Paragraphs is Result.Answer split into display paragraphs.
	Paragraphs []string

	// Error is the user-facing failure message in the Failed state.
	Error string

	Progress types.ProgressState

	// InFlight reports a network call still outstanding. It can stay true
	// in Idle after a Reset until that call returns.
	InFlight bool
}

// Sources returns the resolved citations in relevance order.
func (v ViewModel) Sources() []types.Citation {
	if v.Result == nil {
		return nil
	}
	return v.Result.Sources
}

// Source returns the 1-based n-th citation.
func (v ViewModel) Source(n int) (types.Citation, bool) {
	src := v.Sources()
	if n < 1 || n > len(src) {
		return types.Citation{}, false
	}
	return src[n-1], true
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithProgress sets the progress simulation timing.
func WithProgress(cfg progress.Config) Option {
	return func(c *Controller) { c.progressCfg = cfg }
}

// Controller is the query-session controller. It is the only writer of the
// live session; callers observe it through View and Subscribe.
type Controller struct {
	api         Asker
	store       session.Store
	sim         *progress.Simulator
	progressCfg progress.Config
	log         *zap.Logger

	mu     sync.Mutex
	state  State
	query  string
	result *types.AnswerResult
	errMsg string

	// outstanding tracks the real network call; it can outlive a Reset.
	outstanding bool
	// gen changes on every Reset so a late answer can tell it was abandoned.
	gen uint64

	observers []func(ViewModel)
}

// New returns an Idle controller. Call RestoreLastSession to pick up the
// previously persisted session.
func New(asker Asker, store session.Store, opts ...Option) *Controller {
	c := &Controller{
		api:   asker,
		store: store,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sim = progress.New(c.progressCfg, func(types.ProgressState) { c.publish() })
	return c
}

// Subscribe registers fn to receive a snapshot after every observable
// change, including progress ticks. fn must not call Submit or Reset.
func (c *Controller) Subscribe(fn func(ViewModel)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// View returns the current snapshot.
func (c *Controller) View() ViewModel {
	prog := c.sim.State()

	c.mu.Lock()
	defer c.mu.Unlock()

	v := ViewModel{
		State:    c.state,
		Query:    c.query,
		Error:    c.errMsg,
		Progress: prog,
		InFlight: c.outstanding,
	}
	if c.result != nil {
		r := *c.result
		r.Sources = append([]types.Citation(nil), r.Sources...)
		v.Result = &r
		v.Paragraphs = r.Paragraphs()
	}
	return v
}

// Submit asks the collaborator one question and blocks until it resolves.
//
// Empty or whitespace-only input returns ErrEmptyQuery, and a call made
// while another is outstanding returns ErrInFlight; neither changes state.
// Otherwise the returned error is the collaborator failure, which the
// view-model also carries as a user-facing message.
func (c *Controller) Submit(ctx context.Context, raw string) (err error) {
	q := strings.TrimSpace(raw)
	if q == "" {
		return ErrEmptyQuery
	}

	c.mu.Lock()
	if c.outstanding {
		c.mu.Unlock()
		return ErrInFlight
	}
	c.outstanding = true
	c.state = Submitting
	c.query = q
	c.result = nil
	c.errMsg = ""
	gen := c.gen
	c.mu.Unlock()

	log := c.log.With(zap.String("request_id", uuid.NewString()))
	log.Info("submitting question", zap.String("query", q))

	c.sim.Start()
	// A Reset that ran before Start would not have seen the ticker.
	c.mu.Lock()
	reset := gen != c.gen
	c.mu.Unlock()
	if reset {
		c.sim.Reset()
	}
	c.publish()

	// resolved is set once the answer is live; a later panic leaves it so.
	var resolved bool

	// Cleanup runs on every exit path, including a panic while decoding.
	defer func() {
		c.sim.Stop(false)
		if r := recover(); r != nil {
			log.Error("ask cycle panicked", zap.Any("panic", r))
			switch {
			case resolved:
				err = nil
			case c.finish(gen, nil, TransportMessage):
				err = fmt.Errorf("answering question: %v", r)
			default:
				err = ErrAbandoned
			}
		}
		c.mu.Lock()
		c.outstanding = false
		c.mu.Unlock()
		c.publish()
	}()

	result, askErr := c.api.Ask(ctx, q)
	c.sim.Stop(askErr == nil)

	if askErr != nil {
		msg := userMessage(askErr)
		log.Warn("question failed", zap.Error(askErr), zap.String("message", msg))
		if !c.finish(gen, nil, msg) {
			return ErrAbandoned
		}
		return askErr
	}

	if result == nil {
		result = &types.AnswerResult{}
	}
	if !c.finish(gen, result, "") {
		log.Info("discarding answer for reset session")
		return ErrAbandoned
	}
	resolved = true

	log.Info("question answered", zap.Int("sources", len(result.Sources)))
	if err := c.store.Save(ctx, q, *result); err != nil {
		log.Warn("persisting session", zap.Error(err))
	}
	return nil
}

// finish moves to Resolved (result non-nil) or Failed. It reports false and
// leaves state alone when a Reset happened since the request began.
func (c *Controller) finish(gen uint64, result *types.AnswerResult, msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != Submitting {
		return false
	}
	if result != nil {
		c.state = Resolved
		c.result = result
		c.errMsg = ""
		return true
	}
	c.state = Failed
	c.result = nil
	c.errMsg = msg
	return true
}

// Reset returns to Idle, clears the live and persisted session, and stops
// progress at once. It is safe to call repeatedly. A request still
// outstanding keeps Submit blocked until it returns, and its answer is
// discarded.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	c.gen++
	c.state = Idle
	c.query = ""
	c.result = nil
	c.errMsg = ""
	c.mu.Unlock()

	c.sim.Reset()

	if err := c.store.Clear(ctx); err != nil {
		c.log.Warn("clearing persisted session", zap.Error(err))
	}
	c.publish()
}

// RestoreLastSession repopulates the live session from the store without a
// network call. It reports whether a session was restored; a partial or
// unreadable stored session counts as none. Restoring is skipped while a
// request is outstanding.
func (c *Controller) RestoreLastSession(ctx context.Context) bool {
	entry, ok := c.store.Load(ctx)
	if !ok {
		return false
	}

	c.mu.Lock()
	if c.outstanding {
		c.mu.Unlock()
		return false
	}
	result := entry.Result
	c.state = Resolved
	c.query = entry.Query
	c.result = &result
	c.errMsg = ""
	c.mu.Unlock()

	c.log.Debug("restored last session", zap.String("query", entry.Query))
	c.publish()
	return true
}

func (c *Controller) publish() {
	c.mu.Lock()
	observers := slices.Clone(c.observers)
	c.mu.Unlock()
	if len(observers) == 0 {
		return
	}

	v := c.View()
	for _, fn := range observers {
		fn(v)
	}
}

// userMessage maps a collaborator error to what the user sees: the API's
// own message when it sent one, a generic retry hint otherwise.
func userMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return TransportMessage
}
