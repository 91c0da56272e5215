// Package web exposes the assistant over HTTP: a JSON control API, a
// Prometheus metrics endpoint, and a websocket event feed for live UIs.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Svayampatel/Voice-ai/pkg/assistant"
	"github.com/Svayampatel/Voice-ai/pkg/hub"
	"github.com/Svayampatel/Voice-ai/pkg/tools"
)

// Server is the HTTP control surface for one assistant pipeline.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	pipeline *assistant.Pipeline
	registry *tools.Registry
	events   *hub.Hub
}

// NewServer creates the server and its routes.
func NewServer(port string, pipeline *assistant.Pipeline, registry *tools.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		port:     port,
		logger:   logger.With("component", "web"),
		pipeline: pipeline,
		registry: registry,
		events:   hub.New("events", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Voice-ai",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/transcript", s.handleTranscript)
	api.Get("/tools", s.handleListTools)
	api.Post("/suggest", s.handleSuggest)
	api.Post("/record/start", s.handleRecordStart)
	api.Post("/record/stop", s.handleRecordStop)
	api.Post("/stop", s.handleStop)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start runs the event hub and listens. Blocks until shutdown.
func (s *Server) Start() error {
	go s.events.Run()
	s.logger.Info("web server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server error", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PublishState broadcasts a pipeline state transition. Wire it to the
// pipeline's OnState callback.
func (s *Server) PublishState(state assistant.State) {
	s.events.Publish(hub.StateEvent(state.String()))
}

// PublishMessage broadcasts a transcript append. Wire it to OnMessage.
func (s *Server) PublishMessage(msg assistant.TranscriptMessage) {
	s.events.Publish(hub.MessageEvent(msg))
	s.events.Publish(hub.AnalyticsEvent(s.pipeline.Analytics().Snapshot()))
}

// PublishStatus broadcasts a classified turn outcome. Wire it to OnStatus.
func (s *Server) PublishStatus(code, detail string) {
	s.events.Publish(hub.StatusEvent(code, detail))
}
