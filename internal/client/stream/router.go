// Package stream consumes the server push stream and routes each decoded
// event to exactly one store mutation or coordinator callback.
package stream

import (
	"context"

	"github.com/msavelyev/notiboard/internal/client/api"
	"github.com/msavelyev/notiboard/internal/client/store"
	"github.com/msavelyev/notiboard/internal/events"
	"github.com/msavelyev/notiboard/internal/logging"
)

// AckHandler receives incoming acknowledgment requests surfaced to the user.
// The coordinator implements it.
type AckHandler interface {
	OnIncomingRequest(req events.AckRequest)
}

// Router decodes frames and applies them. It owns no state beyond its
// dependencies; all durable state lives in the store.
type Router struct {
	store *store.Store
	ack   AckHandler
	log   logging.Logger
}

func New(st *store.Store, ack AckHandler, log logging.Logger) *Router {
	return &Router{store: st, ack: ack, log: log.With("module", "stream")}
}

// Run reads frames from s until the context is canceled or the transport
// fails. Frames are processed in delivery order. A malformed frame is logged
// and dropped without closing the stream; a transport error ends the loop
// and is not retried here.
//
// Once ctx is done no further frame mutates the store: the connection is
// closed to unblock the read, and a frame that raced the cancellation is
// discarded before dispatch.
func (r *Router) Run(ctx context.Context, s api.Stream) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-done:
		}
	}()

	r.log.Info(ctx, "stream opened")

	for {
		data, err := s.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				r.log.Info(ctx, "stream closed", "reason", "canceled")
				return ctx.Err()
			}
			r.log.Warn(ctx, "stream transport failed", "error", err)
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.Dispatch(ctx, data)
	}
}

// Dispatch decodes one frame and applies it. Unknown event types are a
// no-op; decode failures drop the frame.
func (r *Router) Dispatch(ctx context.Context, frame []byte) {
	ev, err := events.Decode(frame)
	if err != nil {
		r.log.Warn(ctx, "dropping malformed frame", "error", err)
		return
	}

	switch e := ev.(type) {
	case events.Notification:
		r.store.AddNotification(store.Notification{
			ID:        e.ID,
			From:      e.From,
			Message:   e.Message,
			Timestamp: e.Timestamp,
		})
	case events.Connected:
		if e.Username == r.store.Identity() {
			return
		}
		r.store.AddPeer(e.Username)
	case events.Disconnected:
		r.store.RemovePeer(e.Username)
	case events.AckRequest:
		r.ack.OnIncomingRequest(e)
	case events.AckResponse:
		r.store.RecordAckResponse(e.RequestID, e.FromUsername)
	case events.Unknown:
		r.log.Debug(ctx, "ignoring unknown event type", "type", string(e.Type))
	}
}
