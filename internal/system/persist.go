package system

import (
	"time"

	"github.com/puppetbridge/server/internal/core/system"
	"github.com/puppetbridge/server/internal/sim"
	"github.com/puppetbridge/server/internal/state"
	"github.com/puppetbridge/server/internal/viewer"
)

const saveEvery = 5 * time.Minute

// PersistSystem rewrites both save files on a slow cadence. Structural
// changes save immediately at their call sites; this is the backstop for
// everything incremental (coins, last-command stamps).
type PersistSystem struct {
	game    sim.Game
	store   *state.Store
	viewers *viewer.Registry

	since time.Duration
}

func NewPersistSystem(game sim.Game, store *state.Store, viewers *viewer.Registry) *PersistSystem {
	return &PersistSystem{game: game, store: store, viewers: viewers}
}

func (s *PersistSystem) Phase() system.Phase { return system.PhasePersist }

func (s *PersistSystem) Update(dt time.Duration) {
	s.since += dt
	if s.since < saveEvery {
		return
	}
	s.since = 0
	s.store.Save(s.game)
	s.viewers.Save()
}
