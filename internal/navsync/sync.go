package navsync

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/fieldops/walkabout/pkg/types"
)

// Tracker receives observed route changes for the session's navigation
// log. Satisfied by the interaction recorder.
type Tracker interface {
	TrackNavigation(ev types.NavigationEvent) error
}

// Subscriber is notified with the address-derived identifiers after every
// detected address change.
type Subscriber func(ids Identifiers)

// Synchronizer watches the address for changes on a fixed interval,
// refreshes session activity, mirrors identifiers into a local cache for
// components that cannot await the store, and repairs drift in both
// directions. Polling catches programmatic and user-driven navigation
// alike, including history back/forward which emits no distinguishable
// event on every host.
type Synchronizer struct {
	store   types.Store
	addr    Address
	tracker Tracker
	log     *slog.Logger

	pollInterval      time.Duration
	heartbeatInterval time.Duration

	mu          sync.Mutex
	running     bool
	stop        chan struct{}
	done        chan struct{}
	kick        chan struct{}
	lastSeen    string
	cached      Identifiers
	subscribers []Subscriber
}

// New creates a Synchronizer over the store and address. A nil logger is
// silenced; intervals come from config defaults when zero.
func New(store types.Store, addr Address, cfg types.Config, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synchronizer{
		store:             store,
		addr:              addr,
		log:               log,
		pollInterval:      cfg.EffectivePollInterval(),
		heartbeatInterval: cfg.EffectiveHeartbeatInterval(),
		kick:              make(chan struct{}, 1),
	}
}

// SetTracker wires the navigation-log tracker. Optional.
func (s *Synchronizer) SetTracker(t Tracker) {
	s.mu.Lock()
	s.tracker = t
	s.mu.Unlock()
}

// Subscribe registers a callback for detected address changes. Callbacks
// run on the polling goroutine and must not block.
func (s *Synchronizer) Subscribe(fn Subscriber) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// CachedIdentifiers returns the last identifiers mirrored from the
// address, without touching the store.
func (s *Synchronizer) CachedIdentifiers() Identifiers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached
}

// Start captures the current address and begins the polling and heartbeat
// loops. Idempotent: a running synchronizer is left alone.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.lastSeen = s.addr.Current()
	s.mu.Unlock()

	// Process the starting address once so the cache is warm.
	s.handleAddress(s.addr.Current())

	go s.loop()
}

// Stop halts the loops. Idempotent and safe to call before Start or more
// than once.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
}

// Notify prompts an immediate address check, for hosts with a push-based
// navigation event. Non-blocking.
func (s *Synchronizer) Notify() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Synchronizer) loop() {
	defer close(s.done)

	poll := time.NewTicker(s.pollInterval)
	defer poll.Stop()
	heartbeat := time.NewTicker(s.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-poll.C:
			s.checkAddress()
		case <-s.kick:
			s.checkAddress()
		case <-heartbeat.C:
			s.refreshActivity()
		}
	}
}

// checkAddress detects a changed address and processes it.
func (s *Synchronizer) checkAddress() {
	current := s.addr.Current()

	s.mu.Lock()
	changed := current != s.lastSeen
	s.lastSeen = current
	s.mu.Unlock()

	if changed {
		s.handleAddress(current)
	}
}

// handleAddress re-extracts identifiers, refreshes the session's
// last-active timestamp, appends to the navigation log, mirrors the
// identifiers into the cache, and notifies subscribers.
func (s *Synchronizer) handleAddress(current string) {
	ids, err := ParseIdentifiers(current)
	if err != nil {
		s.log.Warn("unparseable address", "error", err)
		return
	}

	if ids.SessionID != "" {
		record, err := s.store.Get(ids.SessionID)
		switch {
		case errors.Is(err, types.ErrSessionNotFound):
			// Stale link; the caller redirects to session creation.
			s.log.Info("address names unknown session", "session", ids.SessionID)
		case err != nil:
			s.log.Warn("session refresh failed", "session", ids.SessionID, "error", err)
		case ids.SubjectID != "" && record.SubjectID != ids.SubjectID:
			// A new workflow instance was started for another subject.
			// Never adopt the old session identifier for it.
			s.log.Warn("subject identifier mismatch, treating as new workflow",
				"session", ids.SessionID,
				"address_subject", ids.SubjectID,
				"session_subject", record.SubjectID,
				"error", types.ErrIdentifierMismatch)
			ids.SessionID = ""
		default:
			// Touch via an empty patch: the read-modify-write inside
			// UpdateProgress bumps LastActiveAt without writing this
			// (possibly stale) record's interaction maps back.
			if _, err := s.store.UpdateProgress(ids.SessionID, types.ProgressPatch{}); err != nil {
				s.log.Warn("activity refresh failed", "session", ids.SessionID, "error", err)
			}
		}
	}

	s.mu.Lock()
	s.cached = ids
	tracker := s.tracker
	subscribers := append([]Subscriber(nil), s.subscribers...)
	s.mu.Unlock()

	if tracker != nil && ids.SessionID != "" {
		ev := types.NavigationEvent{Route: routeOf(current), ObservedAt: time.Now().UTC()}
		if err := tracker.TrackNavigation(ev); err != nil {
			s.log.Warn("navigation log append failed", "error", err)
		}
	}
	for _, fn := range subscribers {
		fn(ids)
	}
}

// refreshActivity is the heartbeat: it bumps LastActiveAt on the cached
// session while the synchronizer runs. The empty patch touches the record
// transactionally; a Get-then-Save here could write a stale record over
// interaction keys a recorder committed in between.
func (s *Synchronizer) refreshActivity() {
	s.mu.Lock()
	sessionID := s.cached.SessionID
	s.mu.Unlock()
	if sessionID == "" {
		return
	}

	if _, err := s.store.UpdateProgress(sessionID, types.ProgressPatch{}); err != nil {
		s.log.Warn("heartbeat refresh failed", "session", sessionID, "error", err)
	}
}

// ReconcileIdentifiersToAddress repairs drift in the reverse direction:
// right after session creation the store holds a fresh identifier the
// address does not reflect yet. The address is rewritten in place, and
// only when it actually differs, to avoid redundant history writes.
func (s *Synchronizer) ReconcileIdentifiersToAddress(ids Identifiers) error {
	current := s.addr.Current()
	existing, err := ParseIdentifiers(current)
	if err != nil {
		return err
	}
	if existing.Equal(ids) {
		return nil
	}

	next, err := WithIdentifiers(current, ids)
	if err != nil {
		return err
	}
	if err := s.addr.Replace(next); err != nil {
		return fmt.Errorf("replace address: %w", err)
	}

	s.mu.Lock()
	s.lastSeen = next
	s.cached = ids
	s.mu.Unlock()
	return nil
}

// Consistency is the result of a CheckConsistency diagnostic.
type Consistency struct {
	Agree   bool
	Address Identifiers
	Cache   Identifiers
}

// CheckConsistency reports whether address-derived and cached identifiers
// currently agree. A diagnostic for tests and defensive startup checks,
// not the hot path.
func (s *Synchronizer) CheckConsistency() (Consistency, error) {
	addrIDs, err := ParseIdentifiers(s.addr.Current())
	if err != nil {
		return Consistency{}, err
	}
	s.mu.Lock()
	cached := s.cached
	s.mu.Unlock()

	return Consistency{
		Agree:   addrIDs.Equal(cached),
		Address: addrIDs,
		Cache:   cached,
	}, nil
}

// routeOf extracts the screen route from an address path: the last path
// segment, or "entry" for a bare root.
func routeOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	path := u.Path
	for len(path) > 0 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if path == "" {
		return string(types.RouteEntry)
	}
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
