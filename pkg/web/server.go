// Package web provides the real-time navigation dashboard: REST snapshots of
// the lifecycle state plus websocket streams of events and status. It sits
// entirely on the telemetry side of the boundary; nothing here is allowed to
// block the control loop.
package web

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/StatML/mrpt/internal/log"
	"github.com/StatML/mrpt/pkg/hub"
	"github.com/StatML/mrpt/pkg/nav"
)

// maxRecentEvents bounds the replay buffer served to late subscribers.
const maxRecentEvents = 200

// StatusSource provides the navigation snapshots the dashboard serves.
type StatusSource interface {
	Status() nav.Status
	WaypointList() []nav.Waypoint
}

// Server is the navigation dashboard server.
type Server struct {
	app  *fiber.App
	port string
	src  StatusSource

	eventsHub *hub.Hub
	statusHub *hub.Hub

	// Recent events (replayed to new /api/events readers).
	eventsMu sync.RWMutex
	events   []nav.Event
}

// NewServer creates a dashboard bound to a status source.
func NewServer(port string, src StatusSource) *Server {
	s := &Server{
		port:      port,
		src:       src,
		eventsHub: hub.New("events"),
		statusHub: hub.New("status"),
		events:    make([]nav.Event, 0, maxRecentEvents),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Navigation Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/waypoints", s.handleWaypoints)
	api.Get("/events", s.handleEvents)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hubs and the HTTP listener until it fails or Shutdown is
// called. ctx stops the hubs.
func (s *Server) Start(ctx context.Context) error {
	log.Info("navigation dashboard listening", "port", s.port)
	go s.eventsHub.Run(ctx)
	go s.statusHub.Run(ctx)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			log.Error("dashboard server failed", "error", err)
		}
	}()
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// EventSink returns the sink to register with Navigator.AddEventFunc. Events
// are buffered for replay and fanned out to websocket subscribers without
// ever blocking the caller.
func (s *Server) EventSink() nav.EventFunc {
	return func(ev nav.Event) {
		s.eventsMu.Lock()
		s.events = append(s.events, ev)
		if len(s.events) > maxRecentEvents {
			s.events = s.events[1:]
		}
		s.eventsMu.Unlock()

		if err := s.eventsHub.BroadcastJSON(ev); err != nil {
			log.Error("encoding event for broadcast", "error", err)
		}
	}
}

// PublishStatus broadcasts the current snapshot to status subscribers.
// Called on whatever cadence the embedding command likes.
func (s *Server) PublishStatus() {
	if err := s.statusHub.BroadcastJSON(s.src.Status()); err != nil {
		log.Error("encoding status for broadcast", "error", err)
	}
}
