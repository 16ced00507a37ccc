package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msavelyev/notiboard/internal/common"
)

// HTTPClient talks JSON over HTTP and keeps the session cookie issued at
// login in its jar, so the websocket dial is authenticated too.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	jar     *cookiejar.Jar
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the given base URL, e.g.
// "http://127.0.0.1:8080". The timeout applies per REST call; a hung call is
// cut rather than left loading forever.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		baseURL: u,
		http:    &http.Client{Jar: jar, Timeout: timeout},
		jar:     jar,
	}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// do performs one JSON round trip. A nil in skips the request body, a nil
// out discards the response body.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrUnauthorized
	case resp.StatusCode >= 400:
		var er errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, er.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) Login(ctx context.Context, username string) error {
	in := struct {
		Username string `json:"username"`
	}{Username: username}
	return c.do(ctx, http.MethodPost, "/api/login", in, nil)
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]string, error) {
	var out struct {
		Users []string `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *HTTPClient) Notify(ctx context.Context, from, target, message string) error {
	in := struct {
		FromUsername   string `json:"from_username"`
		TargetUsername string `json:"target_username"`
		Message        string `json:"message"`
	}{FromUsername: from, TargetUsername: target, Message: message}
	return c.do(ctx, http.MethodPost, "/api/notify", in, nil)
}

func (c *HTTPClient) SendAckRequest(ctx context.Context, to []string, message string) (string, error) {
	in := struct {
		ToUsernames []string `json:"to_usernames"`
		Message     string   `json:"message"`
	}{ToUsernames: to, Message: message}
	var out struct {
		RequestID string `json:"request_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/acknowledge/request", in, &out); err != nil {
		return "", err
	}
	return out.RequestID, nil
}

func (c *HTTPClient) SendAckResponse(ctx context.Context, requestID string) error {
	in := struct {
		RequestID string `json:"request_id"`
	}{RequestID: requestID}
	return c.do(ctx, http.MethodPost, "/api/acknowledge/response", in, nil)
}

// OpenStream upgrades /api/events to a websocket, authenticated by the
// session cookie in the jar.
func (c *HTTPClient) OpenStream(ctx context.Context) (Stream, error) {
	wsURL := *c.baseURL.JoinPath("/api/events")
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}

	dialer := websocket.Dialer{Jar: c.jar}
	conn, resp, err := dialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	return &wsStream{conn: conn}, nil
}

type wsStream struct {
	conn *websocket.Conn
}

func (s *wsStream) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}
