package colony

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/core/event"
)

func (c *Colony) actor(id int64) (*Actor, error) {
	a, ok := c.actors[id]
	if !ok {
		return nil, fmt.Errorf("colony: unknown actor %d", id)
	}
	if !a.CanAct() {
		return nil, fmt.Errorf("colony: actor %d not controllable", id)
	}
	return a, nil
}

func (c *Colony) SetDisplayTag(actorID int64, tag string) {
	a, ok := c.actors[actorID]
	if !ok {
		return
	}
	a.displayTag = tag
	c.invalidatePortrait(actorID)
	event.Emit(c.bus, event.ActorRenamed{ActorID: actorID})
}

func (c *Colony) ClearDisplayTag(actorID int64) {
	a, ok := c.actors[actorID]
	if !ok || a.displayTag == "" {
		return
	}
	a.displayTag = ""
	c.invalidatePortrait(actorID)
	event.Emit(c.bus, event.ActorRenamed{ActorID: actorID})
}

func (c *Colony) SetHostileResponse(actorID int64, mode string) error {
	a, err := c.actor(actorID)
	if err != nil {
		return err
	}
	if !c.hostility.Valid(mode) {
		return fmt.Errorf("colony: unknown hostile response %q", mode)
	}
	a.hostileResponse = mode
	return nil
}

func (c *Colony) SetDrafted(actorID int64, drafted bool) error {
	a, err := c.actor(actorID)
	if err != nil {
		return err
	}
	if a.drafted == drafted {
		return nil
	}
	a.drafted = drafted
	if !drafted {
		a.gotoTarget = nil
	}
	// the command strip differs between drafted and undrafted
	c.invalidateAtlas(actorID)
	return nil
}

// SetZone restricts an actor to a named zone; empty means unrestricted.
func (c *Colony) SetZone(actorID int64, zone string) error {
	a, err := c.actor(actorID)
	if err != nil {
		return err
	}
	if zone != "" && !c.hasZone(zone) {
		return fmt.Errorf("colony: unknown zone %q", zone)
	}
	a.zone = zone
	event.Emit(c.bus, event.ZonesChanged{})
	return nil
}

func (c *Colony) hasZone(zone string) bool {
	for _, z := range c.zones {
		if z == zone {
			return true
		}
	}
	return false
}

func (c *Colony) SetWorkPriority(actorID int64, work string, priority int) error {
	a, err := c.actor(actorID)
	if err != nil {
		return err
	}
	if c.workTypes.Get(work) == nil {
		return fmt.Errorf("colony: unknown work type %q", work)
	}
	if priority < 0 || priority > 4 {
		return fmt.Errorf("colony: priority %d out of range", priority)
	}
	cell := a.priorities[work]
	if cell.Disabled {
		return fmt.Errorf("colony: %s cannot do %s", a.BaseName(), work)
	}
	cell.Priority = priority
	a.priorities[work] = cell
	event.Emit(c.bus, event.PrioritiesChanged{ActorID: actorID})
	return nil
}

func (c *Colony) SetScheduleHour(actorID int64, hour int, assignment string) error {
	a, err := c.actor(actorID)
	if err != nil {
		return err
	}
	if hour < 0 || hour > 23 {
		return fmt.Errorf("colony: hour %d out of range", hour)
	}
	if c.assignments.Get(assignment) == nil {
		return fmt.Errorf("colony: unknown assignment %q", assignment)
	}
	a.schedule[hour] = assignment
	event.Emit(c.bus, event.SchedulesChanged{ActorID: actorID})
	return nil
}

// OrderGoto sends a drafted actor walking to a cell. The destination must
// be on the map and standable.
func (c *Colony) OrderGoto(actorID int64, x, y int) error {
	a, err := c.actor(actorID)
	if err != nil {
		return err
	}
	if !c.InBounds(x, y) {
		return fmt.Errorf("colony: cell %d,%d out of bounds", x, y)
	}
	if !c.Standable(x, y) {
		return fmt.Errorf("colony: cell %d,%d not standable", x, y)
	}
	if !a.drafted {
		// a direct move order takes the actor under player control
		a.drafted = true
		c.invalidateAtlas(actorID)
	}
	a.gotoTarget = &point{x, y}
	return nil
}

// Say puts a speech bubble over the actor for roughly half a game hour.
func (c *Colony) Say(actorID int64, text string) error {
	a, err := c.actor(actorID)
	if err != nil {
		return err
	}
	a.speech = text
	a.speechUntil = c.tick + ticksPerHour/2
	return nil
}

// Notify surfaces a notice to the player. The stand-in sim only keeps a
// short history and logs it.
func (c *Colony) Notify(text string) {
	c.notices = append(c.notices, text)
	if n := len(c.notices); n > 16 {
		c.notices = c.notices[n-16:]
	}
	c.log.Info("notice", zap.String("text", text))
}
