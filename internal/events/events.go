// Package events defines the wire format of the push stream shared by the
// server (encoding) and the client (decoding).
//
// Every frame is one JSON envelope:
//
//	{"type": "...", "payload": {...}, "timestamp": "..."}
//
// Decode maps a frame onto a closed set of variants; unknown types decode to
// Unknown so a newer server never breaks an older client.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type discriminates event frames on the push stream.
type Type string

const (
	TypeNotification Type = "notification"
	TypeConnected    Type = "user_connected"
	TypeDisconnected Type = "user_disconnected"
	TypeAckRequest   Type = "acknowledgment_request"
	TypeAckResponse  Type = "acknowledgment_response"
)

// Envelope is the outer frame shape.
type Envelope struct {
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Notification is the payload of a "notification" frame.
type Notification struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Connected is the payload of a "user_connected" frame.
type Connected struct {
	Username string `json:"username"`
}

// Disconnected is the payload of a "user_disconnected" frame.
type Disconnected struct {
	Username string `json:"username"`
}

// AckRequest is the payload of an "acknowledgment_request" frame.
type AckRequest struct {
	ID           string   `json:"id"`
	FromUsername string   `json:"from_username"`
	ToUsernames  []string `json:"to_usernames"`
	Message      string   `json:"message"`
}

// AckResponse is the payload of an "acknowledgment_response" frame.
type AckResponse struct {
	RequestID    string `json:"request_id"`
	FromUsername string `json:"from_username"`
}

// Unknown carries a frame whose type this build does not recognize.
// Receivers must treat it as a no-op.
type Unknown struct {
	Type Type
}

// Event is the closed variant set produced by Decode. The concrete types are
// Notification, Connected, Disconnected, AckRequest, AckResponse and Unknown.
type Event interface {
	isEvent()
}

func (Notification) isEvent() {}
func (Connected) isEvent()    {}
func (Disconnected) isEvent() {}
func (AckRequest) isEvent()   {}
func (AckResponse) isEvent()  {}
func (Unknown) isEvent()      {}

// Decode parses one frame into its typed variant. It returns an error only
// when the envelope itself or a recognized payload is malformed; an
// unrecognized type yields Unknown and no error.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	switch env.Type {
	case TypeNotification:
		var p Notification
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		return p, nil
	case TypeConnected:
		var p Connected
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		return p, nil
	case TypeDisconnected:
		var p Disconnected
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		return p, nil
	case TypeAckRequest:
		var p AckRequest
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		return p, nil
	case TypeAckResponse:
		var p AckResponse
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		return p, nil
	default:
		return Unknown{Type: env.Type}, nil
	}
}

// Encode wraps a payload into an envelope frame. Used by the server when
// fanning out events.
func Encode(t Type, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Payload: raw, Timestamp: time.Now()})
}
