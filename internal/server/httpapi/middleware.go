package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/msavelyev/notiboard/internal/server/auth"
)

const usernameLocal = "username"

// requireSession validates the session cookie and stores the username in the
// request locals. Missing or invalid sessions get a 401.
func (s *Server) requireSession(c *fiber.Ctx) error {
	token := c.Cookies(auth.SessionCookieName)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session not found"})
	}

	username, err := auth.UsernameFromToken(token, s.secretKey)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired session"})
	}

	c.Locals(usernameLocal, username)
	return c.Next()
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		MaxAge:   int(s.sessionTTL.Seconds()),
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Expires:  time.Unix(0, 0),
	})
}
