package hooks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Event is a host lifecycle event.
type Event string

const (
	// EventUserPromptSubmit fires when the user sends a message.
	EventUserPromptSubmit Event = "UserPromptSubmit"

	// EventPreToolUse fires before a tool runs.
	EventPreToolUse Event = "PreToolUse"

	// EventPostToolUse fires after a tool ran.
	EventPostToolUse Event = "PostToolUse"

	// EventSessionStart fires when a new session starts.
	EventSessionStart Event = "SessionStart"

	// EventStop fires when the assistant finishes responding.
	EventStop Event = "Stop"
)

// Handler handles one event and returns notices for the user.
type Handler func(ctx context.Context, in *Input) ([]string, error)

// Manager runs the handlers registered per event.
type Manager struct {
	logger   *zap.Logger
	handlers map[Event][]namedHandler
}

type namedHandler struct {
	name string
	fn   Handler
}

// NewManager creates an empty manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:   logger.Named("hooks"),
		handlers: make(map[Event][]namedHandler),
	}
}

// RegisterHandler registers a handler for an event. Handlers run in
// registration order.
func (m *Manager) RegisterHandler(event Event, name string, handler Handler) {
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, fn: handler})
}

// Execute runs every handler for the event. A failing handler does not stop
// the ones after it; all errors are joined.
func (m *Manager) Execute(ctx context.Context, event Event, in *Input) ([]string, error) {
	var (
		notices []string
		errs    []error
	)
	for _, h := range m.handlers[event] {
		out, err := h.fn(ctx, in)
		notices = append(notices, out...)
		if err != nil {
			m.logger.Warn("hook handler failed",
				zap.String("event", string(event)),
				zap.String("handler", h.name),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s/%s: %w", event, h.name, err))
		}
	}
	return notices, errors.Join(errs...)
}
