package system

import (
	"time"

	"github.com/puppetbridge/server/internal/command"
	"github.com/puppetbridge/server/internal/core/system"
	"github.com/puppetbridge/server/internal/protocol"
	"github.com/puppetbridge/server/internal/transport"
)

// InputSystem drains every frame the relay delivered since last tick and
// dispatches each through the protocol registry.
type InputSystem struct {
	session  *transport.Session
	registry *protocol.Registry
	deps     *command.Deps
}

func NewInputSystem(session *transport.Session, registry *protocol.Registry, deps *command.Deps) *InputSystem {
	return &InputSystem{session: session, registry: registry, deps: deps}
}

func (s *InputSystem) Phase() system.Phase { return system.PhaseInput }

func (s *InputSystem) Update(dt time.Duration) {
	for {
		select {
		case env := <-s.session.In:
			s.registry.Dispatch(*s.deps.Phase, env)
		default:
			return
		}
	}
}
