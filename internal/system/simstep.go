package system

import (
	"time"

	"github.com/puppetbridge/server/internal/core/system"
)

// Ticker is a simulation that advances once per tick.
type Ticker interface {
	Tick(dt time.Duration)
}

// SimSystem steps the simulation.
type SimSystem struct {
	sim Ticker
}

func NewSimSystem(sim Ticker) *SimSystem {
	return &SimSystem{sim: sim}
}

func (s *SimSystem) Phase() system.Phase { return system.PhaseUpdate }

func (s *SimSystem) Update(dt time.Duration) {
	s.sim.Tick(dt)
}
