package protocol

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Phase gates which messages a session may deliver. Before the relay's
// welcome lands, only handshake traffic is accepted.
type Phase uint8

const (
	PhaseHandshake Phase = iota
	PhaseReady
)

// HandlerFunc processes one decoded payload on the game loop.
type HandlerFunc func(data json.RawMessage) error

type entry struct {
	phase Phase
	fn    HandlerFunc
}

// Registry maps message types to handlers. Registration happens once at
// startup; Dispatch runs on the game loop only, so no lock is needed.
type Registry struct {
	handlers map[string]entry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]entry),
		log:      log,
	}
}

// Register binds a message type to a handler. Duplicate registration is a
// programming error and panics at startup.
func (r *Registry) Register(msgType string, phase Phase, fn HandlerFunc) {
	if _, dup := r.handlers[msgType]; dup {
		panic("protocol: duplicate handler for " + msgType)
	}
	r.handlers[msgType] = entry{phase: phase, fn: fn}
}

// Dispatch routes one envelope. Unknown types and phase violations are
// logged and dropped; a panicking handler is contained so one bad frame
// cannot take the loop down.
func (r *Registry) Dispatch(current Phase, env Envelope) {
	e, ok := r.handlers[env.Type]
	if !ok {
		r.log.Warn("unhandled message type", zap.String("type", env.Type))
		return
	}
	if e.phase > current {
		r.log.Warn("message before handshake",
			zap.String("type", env.Type),
			zap.Uint8("phase", uint8(current)))
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panicked",
				zap.String("type", env.Type),
				zap.Any("panic", rec))
		}
	}()
	if err := e.fn(env.Data); err != nil {
		r.log.Warn("handler failed",
			zap.String("type", env.Type),
			zap.Error(err))
	}
}
