package system

import (
	"time"

	"github.com/puppetbridge/server/internal/core/event"
	"github.com/puppetbridge/server/internal/core/system"
)

// EventSystem rotates the bus and delivers last tick's events before any
// simulation work runs.
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() system.Phase { return system.PhaseEvent }

func (s *EventSystem) Update(dt time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
