// Package session holds everything that lives between login and logout: the
// bearer token, who is logged in, the optional admin key, and the per-user
// caches. Commands receive a *Session instead of reading shared state.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/maskapp/mask/pkg/bookmarks"
	"github.com/maskapp/mask/pkg/credentials"
	"github.com/maskapp/mask/pkg/wellness"
)

// ErrNotLoggedIn is returned when no usable credentials exist
var ErrNotLoggedIn = errors.New("not logged in: run 'mask auth login'")

type Session struct {
	mu    sync.RWMutex
	store credentials.Store
	creds *credentials.Credentials

	bookmarks *bookmarks.Cache
	wellness  *wellness.Tracker
}

// New starts a session for freshly issued credentials and persists them
func New(store credentials.Store, creds *credentials.Credentials) (*Session, error) {
	if !creds.IsValid() {
		return nil, ErrNotLoggedIn
	}
	if store != nil {
		if err := store.Save(creds); err != nil {
			return nil, err
		}
	}
	return &Session{store: store, creds: creds}, nil
}

// Resume loads saved credentials. Expired credentials are deleted.
func Resume(store credentials.Store) (*Session, error) {
	creds, err := store.Load()
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, ErrNotLoggedIn
	}
	if !creds.IsValid() {
		_ = store.Delete()
		return nil, ErrNotLoggedIn
	}
	return &Session{store: store, creds: creds}, nil
}

// Token is nil-safe so an anonymous client can share the same code path
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.AccessToken
}

func (s *Session) AdminKey() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.AdminKey
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.UserID
}

func (s *Session) Pseudonym() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.Pseudonym
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.Role
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return time.Time{}
	}
	return s.creds.ExpiresAt
}

// Active is false once Close has run
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.IsValid()
}

// SetAdminKey stores the key alongside the token so later invocations send it
func (s *Session) SetAdminKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return ErrNotLoggedIn
	}
	s.creds.AdminKey = key
	if s.store == nil {
		return nil
	}
	return s.store.Save(s.creds)
}

// UseBookmarks attaches a bookmark cache backed by load
func (s *Session) UseBookmarks(load bookmarks.Loader) *bookmarks.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks = bookmarks.New(load, bookmarks.DefaultTTL)
	return s.bookmarks
}

func (s *Session) Bookmarks() *bookmarks.Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookmarks
}

// UseWellness starts the usage tracker for this session
func (s *Session) UseWellness(policy wellness.Policy, store wellness.Store, now time.Time) (*wellness.Tracker, error) {
	tr, err := wellness.NewTracker(policy, store, now)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.wellness = tr
	s.mu.Unlock()
	return tr, nil
}

func (s *Session) Wellness() *wellness.Tracker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wellness
}

// Close ends the session: caches are dropped, the tracker is flushed and the
// saved credentials are removed. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.bookmarks != nil {
		s.bookmarks.Clear()
		s.bookmarks = nil
	}
	if s.wellness != nil {
		if err := s.wellness.Flush(); err != nil {
			errs = append(errs, err)
		}
		s.wellness = nil
	}
	s.creds = nil
	if s.store != nil {
		if err := s.store.Delete(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
