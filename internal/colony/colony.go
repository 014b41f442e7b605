package colony

import (
	"time"

	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/core/event"
	"github.com/puppetbridge/server/internal/data"
	"github.com/puppetbridge/server/internal/scripting"
	"github.com/puppetbridge/server/internal/sim"
)

// ticksPerHour converts the coarse game tick into clock hours.
const ticksPerHour = 150

// Colony is the in-process simulation the bridge drives. It implements
// sim.Game. All methods run on the game loop.
type Colony struct {
	log     *zap.Logger
	bus     *event.Bus
	scripts *scripting.Engine

	workTypes   *data.WorkTypeTable
	assignments *data.AssignmentTable
	hostility   *data.HostilityTable

	mapName string
	w, h    int
	walls   map[point]bool
	objects map[point]string
	zones   []string

	actors map[int64]*Actor
	order  []int64
	nextID int64

	tick  int64
	speed int

	notices []string

	portraits map[int64]*renderJob
	atlases   map[int64]*renderJob
}

// Deps carries everything a Colony needs from the outside.
type Deps struct {
	Log         *zap.Logger
	Bus         *event.Bus
	Scripts     *scripting.Engine
	WorkTypes   *data.WorkTypeTable
	Assignments *data.AssignmentTable
	Hostility   *data.HostilityTable
}

func New(d Deps) *Colony {
	c := &Colony{
		log:         d.Log,
		bus:         d.Bus,
		scripts:     d.Scripts,
		workTypes:   d.WorkTypes,
		assignments: d.Assignments,
		hostility:   d.Hostility,
		mapName:     "Crashlanding Site",
		w:           64,
		h:           64,
		walls:       make(map[point]bool),
		objects:     make(map[point]string),
		zones:       []string{"Home", "Growing", "Animal"},
		actors:      make(map[int64]*Actor),
		nextID:      1,
		speed:       1,
		portraits:   make(map[int64]*renderJob),
		atlases:     make(map[int64]*renderJob),
	}
	c.seed()
	return c
}

// Tick advances the clock, walks goto orders one step, and completes
// pending renders.
func (c *Colony) Tick(dt time.Duration) {
	c.tick++
	c.stepMovement()
	c.expireSpeech()
	c.completeRenders()
}

func (c *Colony) expireSpeech() {
	for _, a := range c.actors {
		if a.speech != "" && c.tick >= a.speechUntil {
			a.speech = ""
		}
	}
}

func (c *Colony) stepMovement() {
	for _, id := range c.order {
		a := c.actors[id]
		if a.gotoTarget == nil || !a.CanAct() {
			continue
		}
		t := *a.gotoTarget
		step := func(cur, want int) int {
			switch {
			case cur < want:
				return cur + 1
			case cur > want:
				return cur - 1
			}
			return cur
		}
		a.x = step(a.x, t.x)
		a.y = step(a.y, t.y)
		if a.x == t.x && a.y == t.y {
			a.gotoTarget = nil
			c.log.Debug("goto arrived",
				zap.Int64("actor", a.id),
				zap.Int("x", a.x), zap.Int("y", a.y))
		}
	}
}

// --- sim.Game: resolution and map ---

func (c *Colony) ActorByID(id int64) (sim.Actor, bool) {
	a, ok := c.actors[id]
	if !ok {
		return nil, false
	}
	return a, true
}

// Roster returns the controllable actors in spawn order.
func (c *Colony) Roster() []sim.Actor {
	var out []sim.Actor
	for _, id := range c.order {
		if a := c.actors[id]; a.CanAct() {
			out = append(out, a)
		}
	}
	return out
}

func (c *Colony) Time() sim.TimeInfo {
	hours := c.tick / ticksPerHour
	return sim.TimeInfo{
		Speed: c.speed,
		Hour:  int(hours % 24),
		Day:   int(hours/24) + 1,
	}
}

func (c *Colony) MapName() string      { return c.mapName }
func (c *Colony) GridSize() (int, int) { return c.w, c.h }

func (c *Colony) InBounds(x, y int) bool {
	return x >= 0 && x < c.w && y >= 0 && y < c.h
}

func (c *Colony) Standable(x, y int) bool {
	return c.InBounds(x, y) && !c.walls[point{x, y}]
}

// KillActor removes an actor from play. Exposed for drills and tests;
// the roster event lets the control layer drop its links.
func (c *Colony) KillActor(id int64) {
	a, ok := c.actors[id]
	if !ok || a.dead {
		return
	}
	a.dead = true
	a.displayTag = ""
	event.Emit(c.bus, event.RosterChanged{ActorID: id, Available: false})
	c.log.Info("actor died", zap.Int64("actor", id), zap.String("name", a.BaseName()))
}
