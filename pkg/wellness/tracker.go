package wellness

import (
	"context"
	"sync"
	"time"
)

// Kind of effect emitted by a tick
type Kind string

const (
	Reminder Kind = "reminder"
	Warning  Kind = "warning"
	Logout   Kind = "logout"
)

// Effect is something the UI should act on
type Effect struct {
	Kind      Kind
	Active    time.Duration
	Remaining time.Duration // time left before logout; set on warnings
}

// Status is a point-in-time view of the tracker
type Status struct {
	Active    time.Duration
	Remaining time.Duration
	Warned    bool
	LoggedOut bool
	NextLimit time.Duration
}

const dateLayout = "2006-01-02"

// saveEvery bounds how many active seconds may be lost on a crash
const saveEvery = 15

// Tracker accumulates active time. It is safe for concurrent use: the UI
// reports interaction and visibility while Run drives ticks.
type Tracker struct {
	mu              sync.Mutex
	policy          Policy
	store           Store
	state           State
	visible         bool
	lastInteraction time.Time
	dirty           int
}

// NewTracker loads persisted state, discarding it when it belongs to another
// day or another policy.
func NewTracker(policy Policy, store Store, now time.Time) (*Tracker, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = &MemoryStore{}
	}
	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	t := &Tracker{policy: policy, store: store, visible: true, lastInteraction: now}
	t.state = st
	t.resetIfStale(now)
	return t, nil
}

func (t *Tracker) resetIfStale(now time.Time) {
	day := now.Format(dateLayout)
	hash := t.policy.Hash()
	if t.state.Date == day && t.state.PolicyHash == hash {
		return
	}
	t.state = State{Date: day, PolicyHash: hash}
	t.dirty = saveEvery
}

// Interact records user input (scroll, click, keypress)
func (t *Tracker) Interact(now time.Time) {
	t.mu.Lock()
	t.lastInteraction = now
	t.mu.Unlock()
}

// SetVisible records whether the feed is in the foreground
func (t *Tracker) SetVisible(visible bool) {
	t.mu.Lock()
	t.visible = visible
	t.mu.Unlock()
}

func (t *Tracker) limits() (warnAt, logoutAt time.Duration) {
	ext := time.Duration(t.state.Extensions) * t.policy.Grace
	return t.policy.WarnAt + ext, t.policy.LogoutAt + ext
}

// Tick advances the tracker by one second of wall time
func (t *Tracker) Tick(now time.Time) []Effect {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfStale(now)
	if t.state.LoggedOut {
		return nil
	}
	if !t.visible || now.Sub(t.lastInteraction) > t.policy.ActivityWindow {
		return nil
	}

	t.state.ActiveSeconds++
	t.dirty++
	active := time.Duration(t.state.ActiveSeconds) * time.Second
	warnAt, logoutAt := t.limits()

	var effects []Effect
	switch {
	case active >= logoutAt:
		t.state.LoggedOut = true
		effects = append(effects, Effect{Kind: Logout, Active: active})
	case active >= warnAt && !t.state.Warned:
		t.state.Warned = true
		effects = append(effects, Effect{Kind: Warning, Active: active, Remaining: logoutAt - active})
	case active < warnAt:
		every := int64(t.policy.ReminderEvery / time.Second)
		if every > 0 && t.state.ActiveSeconds/every > t.state.LastReminder/every {
			t.state.LastReminder = t.state.ActiveSeconds
			effects = append(effects, Effect{Kind: Reminder, Active: active})
		}
	}

	if len(effects) > 0 || t.dirty >= saveEvery {
		t.persist()
	}
	return effects
}

// Acknowledge dismisses an outstanding warning and pushes both limits back by
// the policy's grace period. It reports whether a warning was pending.
func (t *Tracker) Acknowledge() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Warned || t.state.LoggedOut {
		return false
	}
	t.state.Warned = false
	t.state.Extensions++
	t.persist()
	return true
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := time.Duration(t.state.ActiveSeconds) * time.Second
	_, logoutAt := t.limits()
	remaining := logoutAt - active
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Active:    active,
		Remaining: remaining,
		Warned:    t.state.Warned,
		LoggedOut: t.state.LoggedOut,
		NextLimit: logoutAt,
	}
}

// Flush writes the current state regardless of the save interval
func (t *Tracker) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.persistErr()
}

func (t *Tracker) persist() {
	_ = t.persistErr()
}

func (t *Tracker) persistErr() error {
	t.dirty = 0
	return t.store.Save(t.state)
}

// Clock abstracts time for Run
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) (<-chan time.Time, func())
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Ticker(d time.Duration) (<-chan time.Time, func()) {
	tk := time.NewTicker(d)
	return tk.C, tk.Stop
}

// Run ticks once per second until ctx is done or the user is logged out.
// handle is called for every effect, from the Run goroutine.
func (t *Tracker) Run(ctx context.Context, clock Clock, handle func(Effect)) error {
	if clock == nil {
		clock = SystemClock{}
	}
	ticks, stop := clock.Ticker(time.Second)
	defer stop()
	defer t.Flush()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticks:
			for _, e := range t.Tick(now) {
				if handle != nil {
					handle(e)
				}
				if e.Kind == Logout {
					return nil
				}
			}
		}
	}
}
