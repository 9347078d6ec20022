package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/StatML/mrpt/pkg/hub"
)

// handleStatus returns the current navigation snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.src.Status())
}

// handleWaypoints returns the active waypoint list.
func (s *Server) handleWaypoints(c *fiber.Ctx) error {
	return c.JSON(s.src.WaypointList())
}

// handleEvents returns the recent lifecycle events.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return c.JSON(s.events)
}

// handleEventsWS streams lifecycle events to a websocket subscriber.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	hub.NewClient(s.eventsHub, c).Run()
}

// handleStatusWS streams status snapshots to a websocket subscriber.
// The current snapshot is sent immediately so clients render without
// waiting for the next publish.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	c.WriteJSON(s.src.Status())
	hub.NewClient(s.statusHub, c).Run()
}
