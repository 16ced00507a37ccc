// Package store holds the client's canonical in-memory view of the session:
// bound identity, roster of connected peers, notification feed and in-flight
// acknowledgment requests.
//
// The Store is the only mutable shared state on the client. Every mutation
// goes through one of its methods under a single lock, so the stream
// goroutine and callers on other goroutines never observe a torn state.
// Readers take a Snapshot (a deep copy) or Subscribe for change signals.
package store

import (
	"slices"
	"sync"
	"time"
)

// Notification is one entry of the feed. Entries are never mutated and only
// removed by ClearNotifications.
type Notification struct {
	ID        string
	From      string
	Message   string
	Timestamp time.Time
}

// AckRequest is a sender-side acknowledgment record. AcknowledgedBy only
// grows, never duplicates an entry, and is always a subset of ToUsernames.
type AckRequest struct {
	ID             string
	FromUsername   string
	ToUsernames    []string
	Message        string
	AcknowledgedBy []string
}

// Complete reports whether every target has acknowledged.
func (r AckRequest) Complete() bool {
	return len(r.AcknowledgedBy) == len(r.ToUsernames)
}

func (r AckRequest) clone() AckRequest {
	r.ToUsernames = slices.Clone(r.ToUsernames)
	r.AcknowledgedBy = slices.Clone(r.AcknowledgedBy)
	return r
}

// Snapshot is a consistent deep copy of the store state.
type Snapshot struct {
	Identity      string
	Roster        []string
	Notifications []Notification
	AckRequests   []AckRequest
}

// Store is the single-writer state container.
type Store struct {
	mu sync.RWMutex

	identity      string
	roster        []string
	notifications []Notification
	ackRequests   []AckRequest

	subs   map[int]chan struct{}
	nextID int
}

func New() *Store {
	return &Store{subs: make(map[int]chan struct{})}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Identity:      s.identity,
		Roster:        slices.Clone(s.roster),
		Notifications: slices.Clone(s.notifications),
		AckRequests:   make([]AckRequest, 0, len(s.ackRequests)),
	}
	for _, r := range s.ackRequests {
		snap.AckRequests = append(snap.AckRequests, r.clone())
	}
	return snap
}

// Subscribe registers a change listener. The returned channel receives a
// coalesced signal after every mutation; the second return value removes the
// subscription. Slow readers miss intermediate signals, never mutations.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// notifyLocked signals all subscribers. Must be called with mu held.
func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Identity returns the bound username, empty when none is bound.
func (s *Store) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// SetIdentity binds the local username.
func (s *Store) SetIdentity(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = username
	s.notifyLocked()
}

// ClearIdentity unbinds the identity and wipes roster, feed and
// acknowledgment requests unconditionally.
func (s *Store) ClearIdentity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = ""
	s.roster = nil
	s.notifications = nil
	s.ackRequests = nil
	s.notifyLocked()
}

// SetRoster replaces the roster with the given list, dropping duplicates and
// the bound identity so the roster invariants hold for seeded snapshots too.
func (s *Store) SetRoster(usernames []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u == s.identity || slices.Contains(roster, u) {
			continue
		}
		roster = append(roster, u)
	}
	s.roster = roster
	s.notifyLocked()
}

// AddPeer appends a peer. No-op when the name is already present or equals
// the bound identity.
func (s *Store) AddPeer(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username == s.identity || slices.Contains(s.roster, username) {
		return
	}
	s.roster = append(s.roster, username)
	s.notifyLocked()
}

// RemovePeer removes a peer. No-op when absent.
func (s *Store) RemovePeer(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.roster, username)
	if i < 0 {
		return
	}
	s.roster = slices.Delete(s.roster, i, i+1)
	s.notifyLocked()
}

// AddNotification prepends n to the feed (newest first). There is no dedup
// key: redelivery of the same notification produces a duplicate entry.
func (s *Store) AddNotification(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append([]Notification{n}, s.notifications...)
	s.notifyLocked()
}

// ClearNotifications empties the feed.
func (s *Store) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
	s.notifyLocked()
}

// AddAckRequest records a freshly sent acknowledgment request. ToUsernames is
// an ordered set: duplicate targets collapse, so Complete can compare lengths.
// AcknowledgedBy always starts empty regardless of the input.
func (s *Store) AddAckRequest(req AckRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req = req.clone()
	targets := make([]string, 0, len(req.ToUsernames))
	for _, u := range req.ToUsernames {
		if !slices.Contains(targets, u) {
			targets = append(targets, u)
		}
	}
	req.ToUsernames = targets
	req.AcknowledgedBy = []string{}
	s.ackRequests = append(s.ackRequests, req)
	s.notifyLocked()
}

// RecordAckResponse appends username to the matching request's AcknowledgedBy.
// No-op when the request does not exist, the username is not one of its
// targets, or the acknowledgment was already recorded — duplicate delivery
// leaves the record unchanged.
func (s *Store) RecordAckResponse(requestID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.ackRequests {
		req := &s.ackRequests[i]
		if req.ID != requestID {
			continue
		}
		if !slices.Contains(req.ToUsernames, username) {
			return
		}
		if slices.Contains(req.AcknowledgedBy, username) {
			return
		}
		req.AcknowledgedBy = append(req.AcknowledgedBy, username)
		s.notifyLocked()
		return
	}
}

// AckRequest returns the request with the given id.
func (s *Store) AckRequest(requestID string) (AckRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, req := range s.ackRequests {
		if req.ID == requestID {
			return req.clone(), true
		}
	}
	return AckRequest{}, false
}

// RemoveAckRequest deletes the request with the given id. No-op when absent.
func (s *Store) RemoveAckRequest(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, req := range s.ackRequests {
		if req.ID == requestID {
			s.ackRequests = slices.Delete(s.ackRequests, i, i+1)
			s.notifyLocked()
			return
		}
	}
}
