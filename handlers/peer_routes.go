// handlers/peer_routes.go
package handlers

import (
	"drop-mission-service/middleware"
	"drop-mission-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPeerRoutes(app *fiber.App, relay *services.PeerRelay) {
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Post("/peers/location", relay.UpdateLocation)

	// EventSource clients can't set headers, so the stream authenticates via
	// query params instead of the user-context middleware
	app.Get("/peers/stream", middleware.SSEAuthMiddleware(), relay.StreamPeersSSE)
}
