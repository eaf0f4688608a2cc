// Package prefs is the small key/value store screens use to hand values to
// the next screen. It lives as long as the process.
package prefs

import "sync"

// Keys shared between screens.
const (
	NextScene          = "NextSceneAfterTransition"
	SelectedTopic      = "SelectedTopic"
	CurrentArticleCode = "CurrentArticleCode"
	SubjectNumber      = "SubjectNumber"
)

type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Get returns the stored value or def when the key is unset.
func (s *Store) Get(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

func (s *Store) Set(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// Clear drops every value. Used when a new session starts.
func (s *Store) Clear() {
	s.mu.Lock()
	s.values = make(map[string]string)
	s.mu.Unlock()
}
