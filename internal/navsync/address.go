// Package navsync keeps the navigable address and the session store from
// drifting apart, without redirect loops. The address is authoritative for
// which session is active; the store is authoritative for what state that
// session is in.
// See docs/ARCHITECTURE.md § State Synchronizer.
package navsync

import (
	"fmt"
	"net/url"
	"sync"
)

// Query parameter names carrying the identifiers.
const (
	paramSubject = "subject"
	paramSession = "session"
)

// Address abstracts the address bar. Replace rewrites the address without
// a navigation: no reload, no history entry.
type Address interface {
	Current() string
	Replace(raw string) error
}

// Identifiers are the session and subject identifiers carried by an
// address.
type Identifiers struct {
	SubjectID string
	SessionID string
}

// Equal reports whether both identifiers match.
func (i Identifiers) Equal(other Identifiers) bool {
	return i.SubjectID == other.SubjectID && i.SessionID == other.SessionID
}

// ParseIdentifiers extracts the subject and session identifiers from an
// address's query parameters. Absent parameters yield empty fields, not an
// error.
func ParseIdentifiers(raw string) (Identifiers, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Identifiers{}, fmt.Errorf("parse address: %w", err)
	}
	q := u.Query()
	return Identifiers{
		SubjectID: q.Get(paramSubject),
		SessionID: q.Get(paramSession),
	}, nil
}

// WithIdentifiers returns raw with its subject and session query
// parameters set to ids, preserving every other component. Empty fields
// remove the corresponding parameter.
func WithIdentifiers(raw string, ids Identifiers) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse address: %w", err)
	}
	q := u.Query()
	if ids.SubjectID == "" {
		q.Del(paramSubject)
	} else {
		q.Set(paramSubject, ids.SubjectID)
	}
	if ids.SessionID == "" {
		q.Del(paramSession)
	} else {
		q.Set(paramSession, ids.SessionID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// MemoryAddress is a process-local Address for hosts without a native
// address bar, and for tests. Navigate models a user-driven navigation;
// Replace models a history replace.
type MemoryAddress struct {
	mu      sync.Mutex
	current string
}

// NewMemoryAddress creates a MemoryAddress at the given starting address.
func NewMemoryAddress(raw string) *MemoryAddress {
	return &MemoryAddress{current: raw}
}

// Current returns the current address.
func (a *MemoryAddress) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Navigate sets the current address, as a user navigation would.
func (a *MemoryAddress) Navigate(raw string) {
	a.mu.Lock()
	a.current = raw
	a.mu.Unlock()
}

// Replace rewrites the current address in place.
func (a *MemoryAddress) Replace(raw string) error {
	a.mu.Lock()
	a.current = raw
	a.mu.Unlock()
	return nil
}
