package colony

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/scripting"
	"github.com/puppetbridge/server/internal/sim"
)

// Context menus and object gizmos are script-defined: Lua returns
// declarative orders, and each becomes a sim.Choice whose Run executes
// the order on this colony.

func (c *Colony) MenuChoices(actorID int64, x, y int) []sim.Choice {
	a, ok := c.actors[actorID]
	if !ok || !a.CanAct() || !c.InBounds(x, y) {
		return nil
	}
	return c.choicesFrom(actorID, c.scripts.MenuChoices(c.scriptContext(a, x, y)))
}

func (c *Colony) ObjectGizmos(actorID int64, x, y int) []sim.Choice {
	a, ok := c.actors[actorID]
	if !ok || !a.CanAct() || !c.InBounds(x, y) {
		return nil
	}
	object := c.objects[point{x, y}]
	if object == "" {
		return nil
	}
	return c.choicesFrom(actorID, c.scripts.ObjectGizmos(c.scriptContext(a, x, y), object))
}

func (c *Colony) scriptContext(a *Actor, tx, ty int) scripting.ActorContext {
	return scripting.ActorContext{
		ID:              a.id,
		Name:            a.BaseName(),
		X:               a.x,
		Y:               a.y,
		TargetX:         tx,
		TargetY:         ty,
		Drafted:         a.drafted,
		Zone:            a.zone,
		HostileResponse: a.hostileResponse,
		Hour:            c.Time().Hour,
	}
}

func (c *Colony) choicesFrom(actorID int64, orders []scripting.Order) []sim.Choice {
	var out []sim.Choice
	for _, o := range orders {
		if o.Label == "" || o.Kind == "" {
			c.log.Warn("script returned incomplete order", zap.Int64("actor", actorID))
			continue
		}
		order := o
		out = append(out, sim.Choice{
			Label: order.Label,
			Run:   func() error { return c.execOrder(actorID, order) },
		})
	}
	return out
}

func (c *Colony) execOrder(actorID int64, o scripting.Order) error {
	switch o.Kind {
	case "goto":
		return c.OrderGoto(actorID, o.X, o.Y)
	case "draft":
		return c.SetDrafted(actorID, true)
	case "undraft":
		return c.SetDrafted(actorID, false)
	case "zone":
		return c.SetZone(actorID, o.Arg)
	case "use":
		a, err := c.actor(actorID)
		if err != nil {
			return err
		}
		c.log.Info("actor uses object",
			zap.Int64("actor", actorID),
			zap.String("object", o.Arg))
		a.gotoTarget = nil
		return nil
	case "wait":
		a, err := c.actor(actorID)
		if err != nil {
			return err
		}
		a.gotoTarget = nil
		return nil
	default:
		return fmt.Errorf("colony: unknown order kind %q", o.Kind)
	}
}
