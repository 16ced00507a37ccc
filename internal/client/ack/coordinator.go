// Package ack implements the two-role acknowledgment handshake on top of the
// store and the REST collaborator.
//
// Sender side: a request moves Sent -> PartiallyAcked -> Complete as
// acknowledgment_response events arrive; Complete records persist until
// explicitly removed. Receiver side: exactly one incoming request is active
// at a time — a second request arriving before the first is resolved
// replaces it. That overwrite is the fixed policy, not an accident.
package ack

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/msavelyev/notiboard/internal/client/api"
	"github.com/msavelyev/notiboard/internal/client/store"
	"github.com/msavelyev/notiboard/internal/common"
	"github.com/msavelyev/notiboard/internal/events"
	"github.com/msavelyev/notiboard/internal/logging"
)

// ErrNoPendingRequest is returned by Acknowledge when there is nothing to
// acknowledge.
var ErrNoPendingRequest = errors.New("no pending acknowledgment request")

// State of a sender-side request derived from the store record.
type State int

const (
	StateSent State = iota
	StatePartiallyAcked
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateSent:
		return "sent"
	case StatePartiallyAcked:
		return "partially-acked"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Incoming is the receiver-side transient: the request currently awaiting a
// local response. It is UI state, not part of the durable model.
type Incoming struct {
	ID           string
	FromUsername string
	Message      string

	// Acknowledged is set once the response call succeeded; the surface is
	// dismissed shortly after so a success indicator can render.
	Acknowledged bool
}

// DefaultDismissDelay is how long an acknowledged incoming request stays
// visible before being dismissed.
const DefaultDismissDelay = 500 * time.Millisecond

// Coordinator drives both roles of the handshake.
type Coordinator struct {
	api   api.Client
	store *store.Store
	log   logging.Logger

	dismissDelay time.Duration

	mu      sync.Mutex
	pending *Incoming
}

func New(client api.Client, st *store.Store, log logging.Logger) *Coordinator {
	return &Coordinator{
		api:          client,
		store:        st,
		log:          log.With("module", "ack"),
		dismissDelay: DefaultDismissDelay,
	}
}

// SetDismissDelay overrides the dismiss delay. Mainly a test seam.
func (c *Coordinator) SetDismissDelay(d time.Duration) {
	c.dismissDelay = d
}

// SendRequest validates locally, performs the outbound call and records the
// request under the server-assigned id with an empty acknowledgment set.
// Validation failures are rejected without a network round trip. The target
// list is an ordered set: repeated names collapse to one target.
func (c *Coordinator) SendRequest(ctx context.Context, to []string, message string) (string, error) {
	message = strings.TrimSpace(message)
	if c.store.Identity() == "" {
		return "", common.ErrNotLoggedIn
	}
	if message == "" {
		return "", common.ErrEmptyMessage
	}

	targets := make([]string, 0, len(to))
	for _, u := range to {
		if !slices.Contains(targets, u) {
			targets = append(targets, u)
		}
	}
	if len(targets) == 0 {
		return "", common.ErrNoRecipients
	}

	requestID, err := c.api.SendAckRequest(ctx, targets, message)
	if err != nil {
		return "", err
	}

	c.store.AddAckRequest(store.AckRequest{
		ID:           requestID,
		FromUsername: c.store.Identity(),
		ToUsernames:  targets,
		Message:      message,
	})
	c.log.Info(ctx, "acknowledgment request sent", "request_id", requestID, "targets", len(targets))
	return requestID, nil
}

// RequestState derives the sender-side state of a recorded request.
func (c *Coordinator) RequestState(requestID string) (State, bool) {
	req, ok := c.store.AckRequest(requestID)
	if !ok {
		return 0, false
	}
	switch {
	case req.Complete():
		return StateComplete, true
	case len(req.AcknowledgedBy) > 0:
		return StatePartiallyAcked, true
	default:
		return StateSent, true
	}
}

// OnIncomingRequest surfaces a received acknowledgment request, replacing
// any request still pending.
func (c *Coordinator) OnIncomingRequest(req events.AckRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &Incoming{
		ID:           req.ID,
		FromUsername: req.FromUsername,
		Message:      req.Message,
	}
}

// Pending returns the currently surfaced incoming request, if any.
func (c *Coordinator) Pending() (Incoming, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Incoming{}, false
	}
	return *c.pending, true
}

// Dismiss drops the pending incoming request without responding.
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// Acknowledge responds to the pending incoming request. On success the
// surface is marked acknowledged and dismissed after the configured delay;
// on failure it stays pending and the error is returned. There is no
// automatic retry.
func (c *Coordinator) Acknowledge(ctx context.Context) error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return ErrNoPendingRequest
	}
	requestID := c.pending.ID
	c.mu.Unlock()

	if err := c.api.SendAckResponse(ctx, requestID); err != nil {
		c.log.Warn(ctx, "acknowledgment response failed", "request_id", requestID, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil || c.pending.ID != requestID {
		// Overwritten while the call was in flight; the newer request wins.
		return nil
	}
	c.pending.Acknowledged = true

	time.AfterFunc(c.dismissDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.pending != nil && c.pending.ID == requestID && c.pending.Acknowledged {
			c.pending = nil
		}
	})
	return nil
}
