// middleware/sse_auth.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware authenticates EventSource connections, which cannot set
// headers: the service token and user id arrive as query params instead.
//
// Usage:
//   app.Get("/peers/stream", middleware.SSEAuthMiddleware(), peerRelay.StreamPeersSSE)
func SSEAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("DROP_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ DROP_SERVICE_TOKEN is not set — SSE routes cannot authenticate")
	}

	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		userID := strings.TrimSpace(c.Query("user_id"))

		if token == "" || userID == "" {
			log.Printf("[SSEAuth] ❌ Missing query params on %s", c.Path())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing token or user_id in query",
			})
		}

		if token != expectedToken {
			log.Printf("[SSEAuth] ❌ Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
