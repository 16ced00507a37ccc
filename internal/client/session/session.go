// Package session binds the push stream's lifetime to the bound identity:
// the stream exists exactly while a login is active.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/msavelyev/notiboard/internal/client/api"
	"github.com/msavelyev/notiboard/internal/client/store"
	"github.com/msavelyev/notiboard/internal/client/stream"
	"github.com/msavelyev/notiboard/internal/common"
	"github.com/msavelyev/notiboard/internal/logging"
)

// Manager owns the login/logout flow. On login it binds the identity, seeds
// the roster once and starts the stream router; on logout it performs a
// best-effort server logout, cancels the stream and clears the identity,
// which cascades to a full state wipe.
type Manager struct {
	api    api.Client
	store  *store.Store
	router *stream.Router
	log    logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(client api.Client, st *store.Store, router *stream.Router, log logging.Logger) *Manager {
	return &Manager{
		api:    client,
		store:  st,
		router: router,
		log:    log.With("module", "session"),
	}
}

// Login establishes a session. A previous session, if any, is torn down only
// after the server accepts the new login, so a rejected re-login leaves the
// old identity and its stream fully intact. The roster seed is best-effort: a
// failed fetch is logged and the roster fills in from user_connected events
// instead.
func (m *Manager) Login(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return common.ErrEmptyUsername
	}

	if err := m.api.Login(ctx, username); err != nil {
		return err
	}

	m.stopStream()
	m.store.SetIdentity(username)
	m.log.Info(ctx, "logged in", "username", username)

	if users, err := m.api.ListUsers(ctx); err != nil {
		m.log.Warn(ctx, "roster seed failed", "error", err)
	} else {
		m.store.SetRoster(users)
	}

	m.startStream()
	return nil
}

// Logout ends the session. The server call is best-effort: its failure is
// logged and never blocks the local teardown.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		m.log.Warn(ctx, "server logout failed", "error", err)
	}
	m.stopStream()
	m.store.ClearIdentity()
	m.log.Info(ctx, "logged out")
}

// Close tears down the stream and local state without the server round trip.
func (m *Manager) Close() {
	m.stopStream()
	m.store.ClearIdentity()
}

// LoggedIn reports whether an identity is currently bound.
func (m *Manager) LoggedIn() bool {
	return m.store.Identity() != ""
}

// startStream opens the push stream and runs the router until the session
// ends or the transport fails. A failed open degrades the live view but
// keeps the session: there is no reconnect machinery.
func (m *Manager) startStream() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		s, err := m.api.OpenStream(ctx)
		if err != nil {
			m.log.Warn(ctx, "stream open failed", "error", err)
			return
		}
		_ = m.router.Run(ctx, s)
	}()
}

// stopStream cancels the running stream, if any, and waits for the router
// to stop so no late frame mutates the store.
func (m *Manager) stopStream() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
