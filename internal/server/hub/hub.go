// Package hub is the server-side fan-out service: it tracks connected
// clients, assigns each one a buffered event queue, and routes typed events
// to the right subset of queues.
package hub

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/msavelyev/notiboard/internal/events"
	"github.com/msavelyev/notiboard/internal/logging"
)

// BroadcastTarget is the notify sentinel addressing every connected client.
const BroadcastTarget = "all"

type ackRecord struct {
	fromUsername   string
	toUsernames    []string
	message        string
	acknowledgedBy []string
}

// Hub serializes all fan-out through one mutex; queues are buffered and
// sends never block — a full queue drops the event for that client only.
type Hub struct {
	log       logging.Logger
	queueSize int

	mu       sync.Mutex
	clients  map[string]chan []byte
	requests map[string]*ackRecord
}

func New(queueSize int, log logging.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Hub{
		log:       log.With("module", "hub"),
		queueSize: queueSize,
		clients:   make(map[string]chan []byte),
		requests:  make(map[string]*ackRecord),
	}
}

// Register adds a client and broadcasts user_connected. A second connection
// for the same username supersedes the first: the old queue is closed so its
// writer loop ends.
func (h *Hub) Register(ctx context.Context, username string) <-chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[username]; ok {
		close(old)
	}

	ch := make(chan []byte, h.queueSize)
	h.clients[username] = ch
	h.log.Info(ctx, "client connected", "username", username, "clients", len(h.clients))

	h.broadcastLocked(ctx, events.TypeConnected, events.Connected{Username: username}, nil)
	return ch
}

// Unregister removes a client and broadcasts user_disconnected. The queue
// argument guards against a superseded connection unregistering its
// successor.
func (h *Hub) Unregister(ctx context.Context, username string, queue <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.clients[username]
	if !ok || ch != queue {
		return
	}
	close(ch)
	delete(h.clients, username)
	h.log.Info(ctx, "client disconnected", "username", username, "clients", len(h.clients))

	h.broadcastLocked(ctx, events.TypeDisconnected, events.Disconnected{Username: username}, nil)
}

// ConnectedUsers returns the sorted usernames of all connected clients.
func (h *Hub) ConnectedUsers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	users := make([]string, 0, len(h.clients))
	for username := range h.clients {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

// Notify fans a notification out to the target user, or to everyone when
// the target is the broadcast sentinel.
func (h *Hub) Notify(ctx context.Context, from, target, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := events.Notification{
		ID:        uuid.NewString(),
		From:      from,
		Message:   message,
		Timestamp: time.Now(),
	}

	if target == BroadcastTarget {
		h.broadcastLocked(ctx, events.TypeNotification, n, nil)
		return
	}
	h.broadcastLocked(ctx, events.TypeNotification, n, []string{target})
}

// CreateAckRequest records a new acknowledgment request and fans it out to
// its targets only. The target list is an ordered set — repeated names
// collapse, keeping acknowledgedBy comparable to it by length. The returned
// id is server-assigned.
func (h *Hub) CreateAckRequest(ctx context.Context, from string, to []string, message string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	targets := make([]string, 0, len(to))
	for _, u := range to {
		if !slices.Contains(targets, u) {
			targets = append(targets, u)
		}
	}

	requestID := uuid.NewString()
	h.requests[requestID] = &ackRecord{
		fromUsername:   from,
		toUsernames:    targets,
		message:        message,
		acknowledgedBy: []string{},
	}

	h.broadcastLocked(ctx, events.TypeAckRequest, events.AckRequest{
		ID:           requestID,
		FromUsername: from,
		ToUsernames:  slices.Clone(targets),
		Message:      message,
	}, targets)

	h.log.Info(ctx, "acknowledgment request created", "request_id", requestID, "from", from, "targets", len(targets))
	return requestID
}

// RecordAck appends username to the request's acknowledgment set and routes
// an acknowledgment_response event to the requester only. It is a no-op for
// unknown ids, non-target users and duplicate deliveries, so the set is
// always a subset of the targets with no repeats.
func (h *Hub) RecordAck(ctx context.Context, requestID, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	req, ok := h.requests[requestID]
	if !ok {
		h.log.Warn(ctx, "acknowledgment for unknown request", "request_id", requestID, "username", username)
		return
	}
	if !slices.Contains(req.toUsernames, username) {
		h.log.Warn(ctx, "acknowledgment from non-target", "request_id", requestID, "username", username)
		return
	}
	if slices.Contains(req.acknowledgedBy, username) {
		return
	}
	req.acknowledgedBy = append(req.acknowledgedBy, username)

	h.broadcastLocked(ctx, events.TypeAckResponse, events.AckResponse{
		RequestID:    requestID,
		FromUsername: username,
	}, []string{req.fromUsername})
}

// broadcastLocked encodes one event and queues it for the given users, or
// for everyone when targets is empty. Must be called with mu held. A full
// queue drops the event for that client.
func (h *Hub) broadcastLocked(ctx context.Context, t events.Type, payload any, targets []string) {
	frame, err := events.Encode(t, payload)
	if err != nil {
		h.log.Error(ctx, "encoding event failed", "type", string(t), "error", err)
		return
	}

	recipients := make(map[string]struct{})
	if len(targets) == 0 {
		for username := range h.clients {
			recipients[username] = struct{}{}
		}
	} else {
		for _, username := range targets {
			if _, ok := h.clients[username]; ok {
				recipients[username] = struct{}{}
			}
		}
	}

	for username := range recipients {
		select {
		case h.clients[username] <- frame:
		default:
			h.log.Warn(ctx, "client queue full, dropping event", "username", username, "type", string(t))
		}
	}
}
