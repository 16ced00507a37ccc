// Package cli is the interactive terminal client: a REPL over the session
// manager, the coordinator and the store.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/msavelyev/notiboard/internal/client/ack"
	"github.com/msavelyev/notiboard/internal/client/api"
	"github.com/msavelyev/notiboard/internal/client/config"
	"github.com/msavelyev/notiboard/internal/client/session"
	"github.com/msavelyev/notiboard/internal/client/store"
	"github.com/msavelyev/notiboard/internal/client/stream"
	"github.com/msavelyev/notiboard/internal/events"
	"github.com/msavelyev/notiboard/internal/logging"
)

type App struct {
	config      *config.Config
	api         api.Client
	store       *store.Store
	coordinator *ack.Coordinator
	session     *session.Manager
	reader      *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stderr)

	apiClient, err := api.NewHTTPClient(c.ServerAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	st := store.New()
	coordinator := ack.New(apiClient, st, logger)
	router := stream.New(st, &announcingAckHandler{coordinator: coordinator}, logger)
	sess := session.NewManager(apiClient, st, router, logger)

	return &App{
		config:      c,
		api:         apiClient,
		store:       st,
		coordinator: coordinator,
		session:     sess,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.session.Close()

	stopWatcher := a.startEventWatcher(ctx)
	defer stopWatcher()

	printlnFn("notiboard CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.session.LoggedIn()
}

func (a *App) status() string {
	snap := a.store.Snapshot()
	if snap.Identity == "" {
		return ""
	}
	s := fmt.Sprintf("(%s, %d peers", snap.Identity, len(snap.Roster))
	if pending, ok := a.coordinator.Pending(); ok && !pending.Acknowledged {
		s += ", ack pending"
	}
	return s + ")"
}

// announcingAckHandler forwards incoming acknowledgment requests to the
// coordinator and tells the user about them between prompts.
type announcingAckHandler struct {
	coordinator *ack.Coordinator
}

func (h *announcingAckHandler) OnIncomingRequest(req events.AckRequest) {
	h.coordinator.OnIncomingRequest(req)
	printlnFn(fmt.Sprintf("* %s asks you to acknowledge: %s (type 'ack')", req.FromUsername, req.Message))
}

// startEventWatcher announces new notifications between prompts.
func (a *App) startEventWatcher(ctx context.Context) func() {
	changes, unsubscribe := a.store.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)

		seenFeed := 0

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
			}

			snap := a.store.Snapshot()
			if fresh := len(snap.Notifications) - seenFeed; fresh > 0 {
				for i := fresh - 1; i >= 0; i-- {
					n := snap.Notifications[i]
					printlnFn(fmt.Sprintf("* message from %s: %s", n.From, n.Message))
				}
			}
			seenFeed = len(snap.Notifications)
			if snap.Identity == "" {
				seenFeed = 0
			}
		}
	}()

	return func() {
		unsubscribe()
		<-done
	}
}
