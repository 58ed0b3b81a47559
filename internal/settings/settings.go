// Package settings holds the process-wide site display configuration.
// Nothing here persists across restarts.
package settings

import "sync"

// Site is the full site-settings record. Updates replace every field.
type Site struct {
	SiteName        string
	SiteDescription string
	ContactEmail    string
	SupportPhone    string
	Address         string
}

// Defaults returns the built-in site settings.
func Defaults() Site {
	return Site{
		SiteName:        "My Awesome Site",
		SiteDescription: "A simple website backed by an external identity service",
		ContactEmail:    "contact@myawesomesite.com",
		SupportPhone:    "+1234567890",
		Address:         "1234 Main St, Anytown, USA",
	}
}

// Store guards the shared settings record. Reads see either the prior or
// the new complete record, never a torn mix.
type Store struct {
	mu   sync.RWMutex
	site Site
}

// NewStore creates a store holding the given initial record.
func NewStore(initial Site) *Store {
	return &Store{site: initial}
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.site
}

// Replace overwrites the whole record unconditionally. Submitting the same
// values twice leaves the state unchanged.
func (s *Store) Replace(site Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.site = site
}
