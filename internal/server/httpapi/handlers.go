package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/msavelyev/notiboard/internal/server/auth"
)

type loginRequest struct {
	Username string `json:"username"`
}

// notifyRequest deliberately has no from_username field: the sender is always
// the session username, so a client cannot speak for someone else.
type notifyRequest struct {
	TargetUsername string `json:"target_username"`
	Message        string `json:"message"`
}

type ackRequestRequest struct {
	ToUsernames []string `json:"to_usernames"`
	Message     string   `json:"message"`
}

type ackResponseRequest struct {
	RequestID string `json:"request_id"`
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return badRequest(c, "username is required")
	}

	token, err := auth.GenerateToken(username, s.secretKey, s.sessionTTL)
	if err != nil {
		s.log.Error(c.UserContext(), "issuing session token failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create session"})
	}
	s.setSessionCookie(c, token)

	s.log.Info(c.UserContext(), "user logged in", "username", username)
	return c.JSON(fiber.Map{"success": true, "username": username})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	s.clearSessionCookie(c)
	s.log.Info(c.UserContext(), "user logged out")
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleUsers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"users": s.hub.ConnectedUsers()})
}

func (s *Server) handleNotify(c *fiber.Ctx) error {
	var req notifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return badRequest(c, "message is required")
	}
	if req.TargetUsername == "" {
		return badRequest(c, "target_username is required")
	}

	username, _ := c.Locals(usernameLocal).(string)
	s.hub.Notify(c.UserContext(), username, req.TargetUsername, req.Message)
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleAckRequest(c *fiber.Ctx) error {
	var req ackRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.ToUsernames) == 0 {
		return badRequest(c, "to_usernames is required and must not be empty")
	}
	if strings.TrimSpace(req.Message) == "" {
		return badRequest(c, "message is required")
	}

	username, _ := c.Locals(usernameLocal).(string)
	requestID := s.hub.CreateAckRequest(c.UserContext(), username, req.ToUsernames, req.Message)

	return c.JSON(fiber.Map{"success": true, "request_id": requestID})
}

func (s *Server) handleAckResponse(c *fiber.Ctx) error {
	var req ackResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.RequestID == "" {
		return badRequest(c, "request_id is required")
	}

	username, _ := c.Locals(usernameLocal).(string)
	s.hub.RecordAck(c.UserContext(), req.RequestID, username)

	return c.JSON(fiber.Map{"success": true})
}
