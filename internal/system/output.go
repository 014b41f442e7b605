package system

import (
	"time"

	"github.com/puppetbridge/server/internal/core/system"
	"github.com/puppetbridge/server/internal/transport"
)

// OutputSystem flushes the tick's queued frames to the relay socket.
type OutputSystem struct {
	session *transport.Session
}

func NewOutputSystem(session *transport.Session) *OutputSystem {
	return &OutputSystem{session: session}
}

func (s *OutputSystem) Phase() system.Phase { return system.PhaseOutput }

func (s *OutputSystem) Update(dt time.Duration) {
	s.session.FlushOutput()
}
