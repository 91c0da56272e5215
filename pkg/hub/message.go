// Package hub fans pipeline events out to connected websocket clients
// using the channel-based broadcast pattern.
package hub

import "encoding/json"

// Event is the envelope broadcast to clients.
type Event struct {
	// Type discriminates the payload: "state", "message", "status",
	// "analytics".
	Type string `json:"type"`

	// Data is the type-specific payload.
	Data interface{} `json:"data"`
}

// Encode marshals the event for the wire.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// StateEvent announces a pipeline state transition.
func StateEvent(state string) Event {
	return Event{Type: "state", Data: map[string]string{"state": state}}
}

// MessageEvent announces a transcript append.
func MessageEvent(msg interface{}) Event {
	return Event{Type: "message", Data: msg}
}

// StatusEvent announces a classified turn outcome.
func StatusEvent(code, detail string) Event {
	return Event{Type: "status", Data: map[string]string{"code": code, "detail": detail}}
}

// AnalyticsEvent announces updated cumulative analytics.
func AnalyticsEvent(snapshot interface{}) Event {
	return Event{Type: "analytics", Data: snapshot}
}
