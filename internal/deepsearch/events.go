package deepsearch

import (
	"context"
	"log/slog"
)

// Event types forwarded to the host.
const (
	EventStatus = "status"
	EventStream = "stream"
)

// Status descriptions shown by the host while a search runs.
const (
	StatusStarted  = "DeepSearching... May take several minutes."
	StatusReceived = "Received DeepSearch response."
	StatusComplete = "DeepSearch complete."
	StatusTimedOut = "DeepSearch timed out."
)

// Event is one host-visible notification: a status line or a streamed chunk.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StatusData is the payload of a status event.
type StatusData struct {
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// Emitter receives events while a search is in flight.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, ev Event) error

func (f EmitterFunc) Emit(ctx context.Context, ev Event) error { return f(ctx, ev) }

// emit delivers ev if em is set. A failing emitter is logged and ignored.
func emit(ctx context.Context, em Emitter, ev Event) {
	if em == nil {
		return
	}
	if err := em.Emit(ctx, ev); err != nil {
		slog.Warn("deepsearch: emit failed", "type", ev.Type, "err", err)
	}
}

func emitStatus(ctx context.Context, em Emitter, description string, done bool) {
	emit(ctx, em, Event{Type: EventStatus, Data: StatusData{Description: description, Done: done}})
}
