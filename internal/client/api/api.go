// Package api defines the client's view of the server collaborators: the
// REST endpoints and the push-stream handshake. Services depend on the
// Client interface; the HTTP implementation lives in this package too.
package api

import "context"

// Stream is one live push-stream connection. ReadMessage blocks until the
// next frame or a transport error; Close tears the connection down and
// unblocks a pending read.
type Stream interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Client is the typed surface of the server's REST API plus the stream
// handshake. All calls honor context cancellation.
//
// Error contract: common.ErrUnauthorized for rejected sessions,
// common.ErrUnavailable when the server cannot be reached; validation
// rejections surface the server-provided message.
type Client interface {
	Login(ctx context.Context, username string) error
	Logout(ctx context.Context) error
	ListUsers(ctx context.Context) ([]string, error)
	Notify(ctx context.Context, from, target, message string) error
	SendAckRequest(ctx context.Context, to []string, message string) (requestID string, err error)
	SendAckResponse(ctx context.Context, requestID string) error

	// OpenStream dials the push-stream endpoint using the session
	// established by Login.
	OpenStream(ctx context.Context) (Stream, error)
}
