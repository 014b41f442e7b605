package command

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/puppetbridge/server/internal/opqueue"
	"github.com/puppetbridge/server/internal/protocol"
	"github.com/puppetbridge/server/internal/state"
)

func handleState(d *Deps, data json.RawMessage) error {
	var msg protocol.StateCommand
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	id := decodeIdentity(msg.Viewer)
	pp := d.Store.Find(id)
	if pp == nil {
		return fmt.Errorf("state %q: unknown puppeteer %s", msg.Key, id.Key())
	}
	// Bad commands are logged and dropped; the protocol has no error
	// replies.
	if err := HandleState(d, pp, msg.Key, msg.Value); err != nil {
		return fmt.Errorf("%s %q: %w", id.Key(), msg.Key, err)
	}
	d.Store.TouchCommand(pp, msg.Key)
	return nil
}

// HandleState applies one control input to the puppeteer's current
// puppet. Every key decodes its value strictly; a bad value rejects the
// command without touching the game.
func HandleState(d *Deps, pp *state.Puppeteer, key, value string) error {
	if key == "grid" {
		return setGrid(d, pp, value)
	}
	actorID := pp.Puppet
	if actorID == 0 {
		return fmt.Errorf("no puppet assigned")
	}
	actor, ok := d.Game.ActorByID(actorID)
	if !ok || !actor.CanAct() {
		return fmt.Errorf("puppet %d no longer controllable", actorID)
	}

	switch key {
	case "hostile-response":
		if err := d.Game.SetHostileResponse(actorID, value); err != nil {
			return err
		}
	case "drafted":
		drafted, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("drafted: bad value %q", value)
		}
		if err := d.Game.SetDrafted(actorID, drafted); err != nil {
			return err
		}
	case "zone":
		if err := d.Game.SetZone(actorID, value); err != nil {
			return err
		}
	case "priority":
		work, priority, err := decodePriority(d, value)
		if err != nil {
			return err
		}
		if err := d.Game.SetWorkPriority(actorID, work, priority); err != nil {
			return err
		}
	case "schedule":
		hour, assignment, err := decodeSchedule(d, value)
		if err != nil {
			return err
		}
		if err := d.Game.SetScheduleHour(actorID, hour, assignment); err != nil {
			return err
		}
	case "goto":
		x, y, err := decodeCell(value)
		if err != nil {
			return fmt.Errorf("goto: %w", err)
		}
		if !d.Game.InBounds(x, y) || !d.Game.Standable(x, y) {
			return fmt.Errorf("goto: cell %d,%d not walkable", x, y)
		}
		if err := d.Game.OrderGoto(actorID, x, y); err != nil {
			return err
		}
	case "menu":
		x, y, err := decodeCell(value)
		if err != nil {
			return fmt.Errorf("menu: %w", err)
		}
		if !d.Game.InBounds(x, y) {
			return fmt.Errorf("menu: cell %d,%d out of bounds", x, y)
		}
		sendMenu(d, actorID, x, y)
		return nil
	case "action":
		return d.MenuTokens.Redeem(value)
	case "select":
		x, y, err := decodeCell(value)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		if !d.Game.InBounds(x, y) {
			return fmt.Errorf("select: cell %d,%d out of bounds", x, y)
		}
		queueSelection(d, actorID, x, y)
		return nil
	case "gizmo":
		return d.GizmoTokens.Redeem(value)
	default:
		return fmt.Errorf("unknown command key %q", key)
	}

	d.Project.SendOutgoingState(pp)
	return nil
}

// decodePriority unpacks the column*100+priority wire form into a work
// type name and a 0-4 priority.
func decodePriority(d *Deps, value string) (string, int, error) {
	v, err := strconv.Atoi(value)
	if err != nil || v < 0 {
		return "", 0, fmt.Errorf("priority: bad value %q", value)
	}
	idx, priority := v/100, v%100
	work := d.WorkTypes.At(idx)
	if work == nil {
		return "", 0, fmt.Errorf("priority: no work type at column %d", idx)
	}
	if priority > 4 {
		return "", 0, fmt.Errorf("priority: %d out of range", priority)
	}
	return work.Name, priority, nil
}

// decodeSchedule unpacks the "hour:letter" wire form.
func decodeSchedule(d *Deps, value string) (int, string, error) {
	hourStr, letter, ok := strings.Cut(value, ":")
	if !ok {
		return 0, "", fmt.Errorf("schedule: bad value %q", value)
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 23 {
		return 0, "", fmt.Errorf("schedule: bad hour %q", hourStr)
	}
	a := d.Assignments.ByLetter(letter)
	if a == nil {
		return 0, "", fmt.Errorf("schedule: unknown letter %q", letter)
	}
	return hour, a.Name, nil
}

// decodeCell unpacks the "x,y" wire form.
func decodeCell(value string) (int, int, error) {
	xs, ys, ok := strings.Cut(value, ",")
	if !ok {
		return 0, 0, fmt.Errorf("bad cell %q", value)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("bad cell %q", value)
	}
	return x, y, nil
}

func setGrid(d *Deps, pp *state.Puppeteer, value string) error {
	scale, err := strconv.Atoi(value)
	if err != nil || scale < 0 {
		return fmt.Errorf("grid: bad value %q", value)
	}
	d.Store.SetGridScale(pp, scale)
	d.Store.Save(d.Game)
	if actorID := pp.Puppet; actorID != 0 {
		queueMapTile(d, actorID, scale)
	}
	return nil
}

// queueMapTile defers the map cutout render for a new grid scale.
func queueMapTile(d *Deps, actorID int64, scale int) {
	d.Queue.Push(opqueue.KindRenderMap, fmt.Sprintf("maptile/%d", actorID), func() error {
		img, err := d.Game.RenderMapTile(actorID, scale)
		if err != nil {
			return opqueue.ErrRetry
		}
		protocol.Push(d.Out, d.Log, protocol.MsgMapTile, protocol.MapTile{
			ActorID: actorID,
			Scale:   scale,
			Image:   img,
		})
		return nil
	})
}

// sendMenu rebuilds the puppet's context menu at the target cell; the
// rebuild retires every token from the previous menu.
func sendMenu(d *Deps, actorID int64, x, y int) {
	choices := d.Game.MenuChoices(actorID, x, y)
	entries := d.MenuTokens.Rebuild(actorID, choices)
	protocol.Push(d.Out, d.Log, protocol.MsgContextMenu, protocol.ContextMenu{
		ActorID: actorID,
		Entries: entries,
	})
}

// queueSelection defers the command-strip capture: the atlas image may
// not be rendered yet, in which case the op retries next tick.
func queueSelection(d *Deps, actorID int64, x, y int) {
	d.Queue.Push(opqueue.KindSelect, fmt.Sprintf("select/%d", actorID), func() error {
		atlas, err := d.Game.RenderCommandAtlas(actorID)
		if err != nil {
			return opqueue.ErrRetry
		}
		gizmos := d.GizmoTokens.Rebuild(actorID, d.Game.ObjectGizmos(actorID, x, y))
		protocol.Push(d.Out, d.Log, protocol.MsgSelection, protocol.Selection{
			ActorID: actorID,
			Atlas:   atlas,
			Gizmos:  gizmos,
		})
		return nil
	})
}
