// Package session keeps the CLI's signed-in identity on disk and lets
// interested code observe sign-in and sign-out as they happen.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Session is the persisted sign-in state.
type Session struct {
	Server string `json:"server"`
	Email  string `json:"email"`
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// SignedIn reports whether the session carries a token.
func (s *Session) SignedIn() bool {
	return s != nil && s.Token != ""
}

// Store loads and saves the session file and notifies subscribers on
// change. Safe for concurrent use.
type Store struct {
	path string

	mu      sync.Mutex
	current *Session
	nextID  int
	subs    map[int]func(*Session)
}

// DefaultPath returns the session file location under the user's config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session: resolving config dir: %w", err)
	}
	return filepath.Join(dir, "snipet", "config.json"), nil
}

// NewStore creates a Store backed by the given file, loading any existing
// session.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, subs: make(map[int]func(*Session))}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("session: reading %s: %w", path, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: parsing %s: %w", path, err)
	}
	s.current = &sess

	return s, nil
}

// Current returns the active session, or nil when signed out.
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copy := *s.current
	return &copy
}

// Set persists a new session and notifies subscribers.
func (s *Store) Set(sess Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encoding: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("session: creating config dir: %w", err)
	}
	// 0600: the file holds an access token.
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("session: writing %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.current = &sess
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(&sess)
	}
	return nil
}

// Clear removes the session file and notifies subscribers with nil.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: removing %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.current = nil
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
	return nil
}

// Subscribe registers fn to run on every session change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(*Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// snapshotSubs copies the subscriber list; callbacks run outside the lock.
func (s *Store) snapshotSubs() []func(*Session) {
	out := make([]func(*Session), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
