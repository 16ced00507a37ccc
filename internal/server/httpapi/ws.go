package httpapi

import (
	"context"

	"github.com/gofiber/contrib/websocket"
)

// handleEvents serves one push-stream connection. The client is registered
// in the hub for the life of the socket; every queued event is written as a
// single text frame. A closed queue means this connection was superseded by
// a newer login for the same username.
func (s *Server) handleEvents(c *websocket.Conn) {
	username, _ := c.Locals(usernameLocal).(string)
	if username == "" {
		_ = c.Close()
		return
	}

	ctx := context.Background()
	queue := s.hub.Register(ctx, username)
	defer s.hub.Unregister(ctx, username, queue)

	// Drain inbound control traffic so close frames are noticed.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case frame, ok := <-queue:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.log.Warn(ctx, "writing frame failed", "username", username, "error", err)
				return
			}
		case <-disconnected:
			return
		}
	}
}
