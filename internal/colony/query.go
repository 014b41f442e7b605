package colony

import "github.com/puppetbridge/server/internal/sim"

func (c *Colony) Zones() []string {
	out := make([]string, len(c.zones))
	copy(out, c.zones)
	return out
}

func (c *Colony) ActorZone(actorID int64) string {
	if a, ok := c.actors[actorID]; ok {
		return a.zone
	}
	return ""
}

func (c *Colony) HostileResponse(actorID int64) string {
	if a, ok := c.actors[actorID]; ok {
		return a.hostileResponse
	}
	return ""
}

func (c *Colony) Drafted(actorID int64) bool {
	if a, ok := c.actors[actorID]; ok {
		return a.drafted
	}
	return false
}

// PrioritySettings reports the work-priority scale in play. The stand-in
// colony always runs manual priorities.
func (c *Colony) PrioritySettings() sim.PrioritySettings {
	return sim.PrioritySettings{Manual: true, Default: 3, Max: 4}
}

func (c *Colony) WorkPriority(actorID int64, work string) sim.WorkCell {
	if a, ok := c.actors[actorID]; ok {
		return a.priorities[work]
	}
	return sim.WorkCell{}
}

func (c *Colony) Schedule(actorID int64) [24]string {
	if a, ok := c.actors[actorID]; ok {
		return a.schedule
	}
	return [24]string{}
}

// Relations returns the actor's social edges, unranked. Only edges with
// a named relation or a recorded opinion on either side are included.
func (c *Colony) Relations(actorID int64) []sim.Relation {
	a, ok := c.actors[actorID]
	if !ok {
		return nil
	}
	var out []sim.Relation
	for _, id := range c.order {
		if id == actorID {
			continue
		}
		other := c.actors[id]
		if other.dead {
			continue
		}
		named, hasNamed := a.relations[id]
		our, hasOur := a.opinions[id]
		their, hasTheir := other.opinions[actorID]
		if !hasNamed && !hasOur && !hasTheir {
			continue
		}
		r := sim.Relation{
			OtherID:      id,
			OtherName:    other.BaseName(),
			OurOpinion:   our,
			TheirOpinion: their,
		}
		if hasNamed {
			r.Label = named.label
			r.Importance = named.importance
		}
		out = append(out, r)
	}
	return out
}

func (c *Colony) Apparel(actorID int64) []sim.Item {
	if a, ok := c.actors[actorID]; ok {
		return append([]sim.Item(nil), a.apparel...)
	}
	return nil
}

func (c *Colony) Equipment(actorID int64) []sim.Item {
	if a, ok := c.actors[actorID]; ok {
		return append([]sim.Item(nil), a.equipment...)
	}
	return nil
}

func (c *Colony) Inventory(actorID int64) []sim.Item {
	if a, ok := c.actors[actorID]; ok {
		return append([]sim.Item(nil), a.inventory...)
	}
	return nil
}

// Speech returns the actor's current speech bubble, empty once expired.
func (c *Colony) Speech(actorID int64) string {
	if a, ok := c.actors[actorID]; ok {
		return a.speech
	}
	return ""
}

// Notices returns the recent player notices, oldest first.
func (c *Colony) Notices() []string {
	return append([]string(nil), c.notices...)
}
