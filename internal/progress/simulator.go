// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress simulates progress for a request that reports none.
//
// A Simulator cycles through status messages and raises a percent estimate
// on a fixed tick while a request is outstanding. The estimate is not tied
// to real completion and never reaches 100 on its own; only Stop(true)
// shows 100 before the state is cleared.
package progress

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Elambeth/mm-archive/pkg/types"
)

// DefaultMessages is the message cycle used when Config.Messages is empty.
var DefaultMessages = []string{
	"Searching the research archive...",
	"Finding the most relevant passages...",
	"Reading through the papers...",
	"Cross-checking citations...",
	"Drafting an answer...",
}

const (
	defaultInterval   = 2 * time.Second
	defaultClearDelay = 500 * time.Millisecond
	defaultMinStep    = 5
	defaultMaxStep    = 15
	defaultCeiling    = 95
)

// Config tunes a Simulator. Zero fields take defaults.
type Config struct {
	// Interval is the tick period.
	Interval time.Duration

	// ClearDelay is how long the final state stays visible after Stop.
	// Negative means clear immediately.
	ClearDelay time.Duration

	// MinStep and MaxStep bound the random percent increment per tick.
	MinStep, MaxStep int

	// Ceiling caps the simulated percent. Values outside (0,100) use the default.
	Ceiling int

	// Messages is the status cycle.
	Messages []string

	// Rand supplies increments. Tests pass a seeded source.
	Rand *rand.Rand
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.ClearDelay == 0 {
		c.ClearDelay = defaultClearDelay
	}
	if c.MinStep <= 0 {
		c.MinStep = defaultMinStep
	}
	if c.MaxStep <= 0 {
		c.MaxStep = defaultMaxStep
	}
	if c.MaxStep < c.MinStep {
		c.MaxStep = c.MinStep
	}
	if c.Ceiling <= 0 || c.Ceiling >= 100 {
		c.Ceiling = defaultCeiling
	}
	if len(c.Messages) == 0 {
		c.Messages = DefaultMessages
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Simulator is a cancellable progress ticker. The zero value is not usable;
// call New.
type Simulator struct {
	cfg      Config
	onChange func(types.ProgressState)

	mu    sync.Mutex
	state types.ProgressState
	index int

	// stop and done are non-nil while ticking.
	stop chan struct{}
	done chan struct{}

	clearTimer *time.Timer
	// gen invalidates clear timers scheduled before the latest Start.
	gen uint64
}

// New returns a stopped Simulator. onChange, if non-nil, receives every
// state change; it is called without internal locks held.
func New(cfg Config, onChange func(types.ProgressState)) *Simulator {
	return &Simulator{
		cfg:      cfg.withDefaults(),
		onChange: onChange,
	}
}

// State returns the current progress snapshot.
func (s *Simulator) State() types.ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether the simulator is ticking.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Start resets percent to 0, shows the first message immediately, and
// begins ticking. Starting a running simulator restarts it.
func (s *Simulator) Start() {
	s.cancelTicker()

	s.mu.Lock()
	s.gen++
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
	s.index = 0
	s.state = types.ProgressState{Message: s.cfg.Messages[0], Percent: 0}
	stop, done := make(chan struct{}), make(chan struct{})
	s.stop, s.done = stop, done
	snap := s.state
	s.mu.Unlock()

	go s.run(stop, done)
	s.notify(snap)
}

// Stop cancels ticking and waits for the tick goroutine to exit, so no tick
// lands after Stop returns. With success it shows 100 percent until the
// clear delay elapses; either way the state is then cleared. Calling Stop
// on a stopped simulator does nothing.
func (s *Simulator) Stop(success bool) {
	if !s.cancelTicker() {
		return
	}

	s.mu.Lock()
	if success {
		s.state.Percent = 100
	}
	snap := s.state
	gen := s.gen
	delay := s.cfg.ClearDelay
	if delay > 0 {
		s.clearTimer = time.AfterFunc(delay, func() { s.clear(gen) })
	}
	s.mu.Unlock()

	s.notify(snap)
	if delay <= 0 {
		s.clear(gen)
	}
}

// Reset cancels ticking and any pending clear and empties the state at
// once, without a completion cue.
func (s *Simulator) Reset() {
	s.cancelTicker()

	s.mu.Lock()
	s.gen++
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
	changed := !s.state.IsZero()
	s.state = types.ProgressState{}
	s.mu.Unlock()

	if changed {
		s.notify(types.ProgressState{})
	}
}

// cancelTicker stops the tick goroutine if one is running and reports
// whether it did.
func (s *Simulator) cancelTicker() bool {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	if stop != nil {
		close(stop)
	}
	s.mu.Unlock()

	if stop == nil {
		return false
	}
	<-done
	return true
}

func (s *Simulator) run(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		// stop is closed under mu, so checking here keeps a late tick from
		// mutating state after cancellation.
		select {
		case <-stop:
			s.mu.Unlock()
			return
		default:
		}
		s.advance()
		snap := s.state
		s.mu.Unlock()

		s.notify(snap)
	}
}

// advance moves to the next message and raises the percent. Caller holds mu.
func (s *Simulator) advance() {
	s.index = (s.index + 1) % len(s.cfg.Messages)
	step := s.cfg.MinStep
	if span := s.cfg.MaxStep - s.cfg.MinStep; span > 0 {
		step += s.cfg.Rand.Intn(span + 1)
	}
	percent := s.state.Percent + step
	if percent > s.cfg.Ceiling {
		percent = s.cfg.Ceiling
	}
	s.state = types.ProgressState{Message: s.cfg.Messages[s.index], Percent: percent}
}

func (s *Simulator) clear(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.clearTimer = nil
	s.state = types.ProgressState{}
	s.mu.Unlock()

	s.notify(types.ProgressState{})
}

func (s *Simulator) notify(st types.ProgressState) {
	if s.onChange != nil {
		s.onChange(st)
	}
}
