package state

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/sim"
	"github.com/puppetbridge/server/internal/viewer"
)

// Puppeteer is one viewer's control record. Puppet holds the controlled
// actor's id, 0 when none. The mutual link invariant holds at all times:
// p.Puppet == a.ID() iff the store's actor index maps a.ID() back to p.
type Puppeteer struct {
	Identity      viewer.Identity
	Connected     bool
	Puppet        int64
	GridScale     int
	LastCommand   string
	LastCommandAt time.Time
}

// Controlling reports whether the puppeteer currently holds an actor.
func (p *Puppeteer) Controlling() bool { return p.Puppet != 0 }

// Store owns every puppeteer record and the actor-side index. Reads may
// come from any goroutine; mutations happen on the game loop. Actor refs
// are weak: the store never keeps an actor alive, and resolves by id.
type Store struct {
	mu         sync.RWMutex
	puppeteers map[string]*Puppeteer // by Identity.Key()
	byActor    map[int64]*Puppeteer

	// surrogate puppet ids parked between Load and Reconcile
	pending      map[string]int
	loadedActors map[int]fileActor

	path string
	log  *zap.Logger
}

func NewStore(path string, log *zap.Logger) *Store {
	return &Store{
		puppeteers: make(map[string]*Puppeteer),
		byActor:    make(map[int64]*Puppeteer),
		path:       path,
		log:        log,
	}
}

// PuppeteerFor returns the record for an identity, creating it on first
// contact. Invalid identities return nil.
func (s *Store) PuppeteerFor(id viewer.Identity) *Puppeteer {
	if !id.Valid() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.puppeteers[id.Key()]
	if !ok {
		p = &Puppeteer{Identity: id}
		s.puppeteers[id.Key()] = p
	}
	return p
}

// Find returns the record for an identity without creating one.
func (s *Store) Find(id viewer.Identity) *Puppeteer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puppeteers[id.Key()]
}

// ControllerOf returns the puppeteer controlling an actor, or nil.
func (s *Store) ControllerOf(actorID int64) *Puppeteer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byActor[actorID]
}

// SetConnected flips a puppeteer's presence. Connecting while holding a
// puppet restores the actor's display tag; disconnecting clears it. The
// link itself survives disconnects.
func (s *Store) SetConnected(id viewer.Identity, connected bool, game sim.Game) *Puppeteer {
	p := s.PuppeteerFor(id)
	if p == nil {
		return nil
	}
	s.mu.Lock()
	p.Connected = connected
	puppet := p.Puppet
	s.mu.Unlock()
	if puppet != 0 {
		if connected {
			game.SetDisplayTag(puppet, id.Name)
		} else {
			game.ClearDisplayTag(puppet)
		}
	}
	return p
}

// Assign links a puppeteer to an actor. Any existing link on either side
// is released first, so the mutual-link invariant is preserved through
// reassignment in both directions.
func (s *Store) Assign(id viewer.Identity, actorID int64, game sim.Game) error {
	actor, ok := game.ActorByID(actorID)
	if !ok {
		return fmt.Errorf("assign %s: unknown actor %d", id.Key(), actorID)
	}
	if !actor.CanAct() {
		return fmt.Errorf("assign %s: actor %d not controllable", id.Key(), actorID)
	}
	p := s.PuppeteerFor(id)
	if p == nil {
		return fmt.Errorf("assign: invalid identity")
	}

	// Release the puppeteer's current puppet, the actor's current
	// controller, and any stale index entry for the target actor.
	s.Unassign(id, game)
	if prev := s.ControllerOf(actorID); prev != nil {
		s.Unassign(prev.Identity, game)
	}
	s.mu.Lock()
	delete(s.byActor, actorID)
	p.Puppet = actorID
	s.byActor[actorID] = p
	connected := p.Connected
	s.mu.Unlock()

	if connected {
		game.SetDisplayTag(actorID, id.Name)
	}
	s.log.Info("puppet assigned",
		zap.String("puppeteer", id.Key()),
		zap.Int64("actor", actorID),
		zap.String("actorName", actor.Name()))
	return nil
}

// Unassign releases a puppeteer's puppet. Safe to call when none is held.
func (s *Store) Unassign(id viewer.Identity, game sim.Game) {
	s.mu.Lock()
	p := s.puppeteers[id.Key()]
	var puppet int64
	if p != nil && p.Puppet != 0 {
		puppet = p.Puppet
		delete(s.byActor, puppet)
		p.Puppet = 0
	}
	s.mu.Unlock()
	if puppet != 0 {
		game.ClearDisplayTag(puppet)
		s.log.Info("puppet released",
			zap.String("puppeteer", id.Key()),
			zap.Int64("actor", puppet))
	}
}

// DropActor releases whoever controls an actor that left the simulation
// (death, despawn). The display tag is gone with the actor, so only the
// link is cleared.
func (s *Store) DropActor(actorID int64) *Puppeteer {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.byActor[actorID]
	if p == nil {
		return nil
	}
	delete(s.byActor, actorID)
	p.Puppet = 0
	s.log.Info("puppet lost its actor",
		zap.String("puppeteer", p.Identity.Key()),
		zap.Int64("actor", actorID))
	return p
}

// Connected returns every connected puppeteer in no particular order.
func (s *Store) Connected() []*Puppeteer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Puppeteer
	for _, p := range s.puppeteers {
		if p.Connected {
			out = append(out, p)
		}
	}
	return out
}

// All returns every known puppeteer.
func (s *Store) All() []*Puppeteer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Puppeteer, 0, len(s.puppeteers))
	for _, p := range s.puppeteers {
		out = append(out, p)
	}
	return out
}

// SetGridScale records a puppeteer's chosen map-grid overlay scale.
func (s *Store) SetGridScale(p *Puppeteer, scale int) {
	s.mu.Lock()
	p.GridScale = scale
	s.mu.Unlock()
}

// TouchCommand records the last command a puppeteer issued.
func (s *Store) TouchCommand(p *Puppeteer, key string) {
	s.mu.Lock()
	p.LastCommand = key
	p.LastCommandAt = time.Now()
	s.mu.Unlock()
}
