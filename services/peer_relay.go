// services/peer_relay.go
package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// PeerLocation is one connected peer's latest raw fix. Nothing here is
// persisted or ordered — last write wins, stale peers are dropped.
type PeerLocation struct {
	UserID    string  `json:"user_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Emoji     string  `json:"emoji,omitempty"`
	UpdatedAt int64   `json:"updated_at"`
}

// PeerRelay broadcasts raw coordinate pairs between connected clients.
// In-memory only.
type PeerRelay struct {
	mu    sync.RWMutex
	peers map[string]PeerLocation
	// peers unseen for this long are evicted from snapshots
	staleAfter time.Duration
}

func NewPeerRelay() *PeerRelay {
	return &PeerRelay{
		peers:      make(map[string]PeerLocation),
		staleAfter: 30 * time.Second,
	}
}

// UpdateLocation accepts a peer's latest fix
func (r *PeerRelay) UpdateLocation(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Emoji     string  `json:"emoji"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	r.mu.Lock()
	r.peers[userID] = PeerLocation{
		UserID:    userID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Emoji:     req.Emoji,
		UpdatedAt: time.Now().UnixMilli(),
	}
	r.mu.Unlock()

	return c.JSON(fiber.Map{"message": "OK"})
}

func (r *PeerRelay) snapshot() []PeerLocation {
	cutoff := time.Now().Add(-r.staleAfter).UnixMilli()

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]PeerLocation, 0, len(r.peers))
	for id, p := range r.peers {
		if p.UpdatedAt < cutoff {
			delete(r.peers, id)
			continue
		}
		out = append(out, p)
	}
	return out
}

// StreamPeersSSE pushes the current peer set to the client every 2 seconds
func (r *PeerRelay) StreamPeersSSE(c *fiber.Ctx) error {
	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	ctx := c.Context()
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				payload, _ := json.Marshal(r.snapshot())
				fmt.Fprintf(w, "event: peers\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}
