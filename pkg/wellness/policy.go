// Package wellness tracks how long a user has been actively scrolling and
// decides when to nudge them, warn them, and finally sign them out.
package wellness

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Policy holds the thresholds shared by the server (which publishes them) and
// the client (which enforces them).
type Policy struct {
	ReminderEvery  time.Duration
	WarnAt         time.Duration
	LogoutAt       time.Duration
	Grace          time.Duration
	ActivityWindow time.Duration
}

// DefaultPolicy is used when neither the server nor local config override it
func DefaultPolicy() Policy {
	return Policy{
		ReminderEvery:  20 * time.Minute,
		WarnAt:         55 * time.Minute,
		LogoutAt:       60 * time.Minute,
		Grace:          15 * time.Minute,
		ActivityWindow: time.Minute,
	}
}

func (p Policy) Validate() error {
	if p.ReminderEvery <= 0 || p.WarnAt <= 0 || p.LogoutAt <= 0 {
		return errors.New("thresholds must be positive")
	}
	if p.Grace < 0 || p.ActivityWindow <= 0 {
		return errors.New("grace must not be negative and activity window must be positive")
	}
	if !(p.ReminderEvery < p.WarnAt && p.WarnAt < p.LogoutAt) {
		return fmt.Errorf("expected reminder (%s) < warn (%s) < logout (%s)", p.ReminderEvery, p.WarnAt, p.LogoutAt)
	}
	return nil
}

// Hash identifies a policy. Persisted counters are discarded when it changes.
func (p Policy) Hash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%d|%d|%d|%d",
		p.ReminderEvery, p.WarnAt, p.LogoutAt, p.Grace, p.ActivityWindow)))
	return hex.EncodeToString(sum[:8])
}

// Wire is the JSON form of a Policy, in whole seconds
type Wire struct {
	ReminderEvery  int64  `json:"reminder_every"`
	WarnAt         int64  `json:"warn_at"`
	LogoutAt       int64  `json:"logout_at"`
	Grace          int64  `json:"grace"`
	ActivityWindow int64  `json:"activity_window"`
	Hash           string `json:"hash"`
}

func (p Policy) Wire() Wire {
	return Wire{
		ReminderEvery:  int64(p.ReminderEvery / time.Second),
		WarnAt:         int64(p.WarnAt / time.Second),
		LogoutAt:       int64(p.LogoutAt / time.Second),
		Grace:          int64(p.Grace / time.Second),
		ActivityWindow: int64(p.ActivityWindow / time.Second),
		Hash:           p.Hash(),
	}
}

func (w Wire) Policy() Policy {
	return Policy{
		ReminderEvery:  time.Duration(w.ReminderEvery) * time.Second,
		WarnAt:         time.Duration(w.WarnAt) * time.Second,
		LogoutAt:       time.Duration(w.LogoutAt) * time.Second,
		Grace:          time.Duration(w.Grace) * time.Second,
		ActivityWindow: time.Duration(w.ActivityWindow) * time.Second,
	}
}
