package web

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Svayampatel/Voice-ai/pkg/assistant"
	"github.com/Svayampatel/Voice-ai/pkg/hub"
)

// ToolInfo describes an available tool for the UI.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleStatus returns the pipeline state and cumulative analytics.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"state":     s.pipeline.State().String(),
		"analytics": s.pipeline.Analytics().Snapshot(),
		"clients":   s.events.ClientCount(),
	})
}

// handleTranscript returns the full conversation log.
func (s *Server) handleTranscript(c *fiber.Ctx) error {
	return c.JSON(s.pipeline.Transcript().Messages())
}

// handleListTools returns the registered tools.
func (s *Server) handleListTools(c *fiber.Ctx) error {
	defs := s.registry.Defs()
	infos := make([]ToolInfo, len(defs))
	for i, d := range defs {
		infos[i] = ToolInfo{Name: d.Name, Description: d.Description}
	}
	return c.JSON(infos)
}

// SuggestRequest is the body for a typed or suggested turn.
type SuggestRequest struct {
	Text string `json:"text"`
}

// handleSuggest runs a text turn. Returns once playback is initiated.
func (s *Server) handleSuggest(c *fiber.Ctx) error {
	var req SuggestRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text required"})
	}

	// Detached from the request context: playback outlives the response.
	err := s.pipeline.RunTurn(context.Background(), strings.TrimSpace(req.Text), 0)
	return s.turnResponse(c, err)
}

// handleRecordStart begins microphone capture.
func (s *Server) handleRecordStart(c *fiber.Ctx) error {
	if err := s.pipeline.StartRecording(context.Background()); err != nil {
		return s.turnResponse(c, err)
	}
	return c.JSON(fiber.Map{"state": s.pipeline.State().String()})
}

// handleRecordStop finalizes capture and runs the voice turn.
func (s *Server) handleRecordStop(c *fiber.Ctx) error {
	err := s.pipeline.StopRecording(context.Background())
	return s.turnResponse(c, err)
}

// handleStop halts playback (or cancels a pending reply).
func (s *Server) handleStop(c *fiber.Ctx) error {
	s.pipeline.StopPlayback()
	return c.JSON(fiber.Map{"state": s.pipeline.State().String()})
}

// turnResponse maps turn outcomes to HTTP responses. Classified
// non-fatal outcomes come back as 422 with their code; a busy pipeline
// is 409; anything else is a 502 turn failure.
func (s *Server) turnResponse(c *fiber.Ctx, err error) error {
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"state":     s.pipeline.State().String(),
			"analytics": s.pipeline.Analytics().Snapshot(),
		})
	case errors.Is(err, assistant.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "turn already in flight"})
	case errors.Is(err, assistant.ErrAudioTooShort):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"code": assistant.StatusTooShort})
	case errors.Is(err, assistant.ErrNoSpeech):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"code": assistant.StatusNoSpeech})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
}

// handleEventsWS streams pipeline events to the client. The current
// state and transcript are sent on connect so late joiners catch up.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	if data, err := hub.StateEvent(s.pipeline.State().String()).Encode(); err == nil {
		c.WriteMessage(websocket.TextMessage, data)
	}
	for _, msg := range s.pipeline.Transcript().Messages() {
		if data, err := hub.MessageEvent(msg).Encode(); err == nil {
			c.WriteMessage(websocket.TextMessage, data)
		}
	}
	if data, err := hub.AnalyticsEvent(s.pipeline.Analytics().Snapshot()).Encode(); err == nil {
		c.WriteMessage(websocket.TextMessage, data)
	}

	client := hub.NewClient(s.events, c)
	client.Run()
}
