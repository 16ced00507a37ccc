// Package httpapi exposes the REST surface and the websocket push stream
// over a fiber application.
package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/msavelyev/notiboard/internal/logging"
	"github.com/msavelyev/notiboard/internal/server/hub"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	hub        *hub.Hub
	log        logging.Logger
	secretKey  []byte
	sessionTTL time.Duration
	app        *fiber.App
}

func NewServer(h *hub.Hub, secretKey string, sessionTTL time.Duration, log logging.Logger) *Server {
	s := &Server{
		hub:        h,
		log:        log.With("module", "httpapi"),
		secretKey:  []byte(secretKey),
		sessionTTL: sessionTTL,
	}
	s.app = s.buildApp()
	return s
}

// App exposes the fiber application; tests drive it via app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	api := app.Group("/api")
	api.Post("/login", s.handleLogin)
	api.Post("/logout", s.handleLogout)

	authed := api.Group("", s.requireSession)
	authed.Get("/users", s.handleUsers)
	authed.Post("/notify", s.handleNotify)
	authed.Post("/acknowledge/request", s.handleAckRequest)
	authed.Post("/acknowledge/response", s.handleAckResponse)

	authed.Use("/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	authed.Get("/events", websocket.New(s.handleEvents))

	return app
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		s.log.Info(ctx, "stopping http server")
		_ = s.app.ShutdownWithTimeout(shutdownTimeout)
	}()

	s.log.Info(ctx, "starting http server", "addr", addr)
	return s.app.Listen(addr)
}
