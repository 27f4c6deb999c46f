// Package events provides an event system for worker lifecycle and emission notifications.
package events

import (
	"time"

	"pixel-swarm/internal/grid"
	"pixel-swarm/internal/palette"
)

// EventType represents the type of event
type EventType string

const (
	// EventWorkerConnected is emitted when a worker has opened its channel
	EventWorkerConnected EventType = "worker_connected"
	// EventWorkerConnectFailed is emitted when a worker could not open its channel
	EventWorkerConnectFailed EventType = "worker_connect_failed"
	// EventPixelSent is emitted after every successful set_pixel
	EventPixelSent EventType = "pixel_sent"
	// EventSendFailed is emitted when a set_pixel could not be delivered
	EventSendFailed EventType = "send_failed"
	// EventWorkerStopped is emitted when a worker loop ends for any reason
	EventWorkerStopped EventType = "worker_stopped"
)

// Event represents a worker event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Worker    int       `json:"worker"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Colour palette.Colour `json:"colour,omitempty"`
	Cycle  uint64         `json:"cycle,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// NewWorkerConnectedEvent creates a worker connected event
func NewWorkerConnectedEvent(worker int, c grid.Coordinate) Event {
	return Event{
		Type:      EventWorkerConnected,
		Timestamp: time.Now(),
		Worker:    worker,
		Data:      EventData{X: c.X, Y: c.Y},
	}
}

// NewWorkerConnectFailedEvent creates a connect failure event
func NewWorkerConnectFailedEvent(worker int, err error) Event {
	return Event{
		Type:      EventWorkerConnectFailed,
		Timestamp: time.Now(),
		Worker:    worker,
		Data:      EventData{Error: errString(err)},
	}
}

// NewPixelSentEvent creates a pixel sent event; cycle is the count after increment
func NewPixelSentEvent(worker int, c grid.Coordinate, colour palette.Colour, cycle uint64) Event {
	return Event{
		Type:      EventPixelSent,
		Timestamp: time.Now(),
		Worker:    worker,
		Data: EventData{
			X:      c.X,
			Y:      c.Y,
			Colour: colour,
			Cycle:  cycle,
		},
	}
}

// NewSendFailedEvent creates a send failure event
func NewSendFailedEvent(worker int, c grid.Coordinate, err error) Event {
	return Event{
		Type:      EventSendFailed,
		Timestamp: time.Now(),
		Worker:    worker,
		Data:      EventData{X: c.X, Y: c.Y, Error: errString(err)},
	}
}

// NewWorkerStoppedEvent creates a worker stopped event
func NewWorkerStoppedEvent(worker int, cycles uint64, err error) Event {
	return Event{
		Type:      EventWorkerStopped,
		Timestamp: time.Now(),
		Worker:    worker,
		Data:      EventData{Cycle: cycles, Error: errString(err)},
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
