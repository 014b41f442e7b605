package project

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/data"
	"github.com/puppetbridge/server/internal/opqueue"
	"github.com/puppetbridge/server/internal/protocol"
	"github.com/puppetbridge/server/internal/sim"
	"github.com/puppetbridge/server/internal/state"
	"github.com/puppetbridge/server/internal/viewer"
)

// Projector turns live game state into outbound relay messages. Cheap
// snapshots go straight to the sender; expensive ones (portraits, social
// scans, gear walks) go through the deferred queue so a tick never does
// more than its budget.
type Projector struct {
	log     *zap.Logger
	game    sim.Game
	store   *state.Store
	viewers *viewer.Registry
	out     protocol.Sender
	queue   *opqueue.Queue

	workTypes   *data.WorkTypeTable
	assignments *data.AssignmentTable

	gameName    string
	gameVersion string

	rr roundRobin
}

type Deps struct {
	Log         *zap.Logger
	Game        sim.Game
	Store       *state.Store
	Viewers     *viewer.Registry
	Out         protocol.Sender
	Queue       *opqueue.Queue
	WorkTypes   *data.WorkTypeTable
	Assignments *data.AssignmentTable
	GameName    string
	GameVersion string
}

func New(d Deps) *Projector {
	return &Projector{
		log:         d.Log,
		game:        d.Game,
		store:       d.Store,
		viewers:     d.Viewers,
		out:         d.Out,
		queue:       d.Queue,
		workTypes:   d.WorkTypes,
		assignments: d.Assignments,
		gameName:    d.GameName,
		gameVersion: d.GameVersion,
	}
}

func (p *Projector) SendGameInfo() {
	w, h := p.game.GridSize()
	protocol.Push(p.out, p.log, protocol.MsgGameInfo, protocol.GameInfo{
		Name:    p.gameName,
		Version: p.gameVersion,
		MapName: p.game.MapName(),
		GridW:   w,
		GridH:   h,
	})
}

func (p *Projector) SendTime() {
	protocol.Push(p.out, p.log, protocol.MsgTimeInfo, p.game.Time())
}

// SendColonists pushes the full roster with controller annotations.
func (p *Projector) SendColonists() {
	var msg protocol.Colonists
	for _, a := range p.game.Roster() {
		msg.Colonists = append(msg.Colonists, p.colonist(a))
	}
	protocol.Push(p.out, p.log, protocol.MsgColonists, msg)
}

func (p *Projector) colonist(a sim.Actor) protocol.Colonist {
	c := protocol.Colonist{
		ID:           a.ID(),
		Name:         a.Name(),
		Controllable: a.CanAct(),
	}
	if ctrl := p.store.ControllerOf(a.ID()); ctrl != nil {
		c.ControlledBy = ctrl.Identity.Key()
	}
	return c
}

// SendAvailability announces one actor entering or leaving the
// controllable set.
func (p *Projector) SendAvailability(actorID int64, available bool) {
	c := protocol.Colonist{ID: actorID}
	if a, ok := p.game.ActorByID(actorID); ok {
		c = p.colonist(a)
	}
	protocol.Push(p.out, p.log, protocol.MsgColonistAvailable, protocol.ColonistAvailability{
		Colonist:  c,
		Available: available,
	})
}

// SendAssignment confirms a puppeteer's current puppet, or the lack of one.
func (p *Projector) SendAssignment(pp *state.Puppeteer) {
	msg := protocol.AssignmentUpdate{Viewer: pp.Identity}
	msgType := protocol.MsgColonistUnassigned
	if pp.Controlling() {
		if a, ok := p.game.ActorByID(pp.Puppet); ok {
			msgType = protocol.MsgColonistAssigned
			msg.ActorID = a.ID()
			msg.Name = a.Name()
		}
	}
	protocol.Push(p.out, p.log, msgType, msg)
}

func (p *Projector) SendEarned(v *viewer.Viewer) {
	protocol.Push(p.out, p.log, protocol.MsgEarned, protocol.Earned{
		Viewer: v.Identity,
		Coins:  v.Coins,
	})
}

// QueuePortrait defers a portrait render for a puppeteer's puppet. A
// frame that is not ready yet retries on a later tick.
func (p *Projector) QueuePortrait(pp *state.Puppeteer) {
	actorID := pp.Puppet
	if actorID == 0 {
		return
	}
	p.queue.Push(opqueue.KindPortrait, fmt.Sprintf("portrait/%d", actorID), func() error {
		img, err := p.game.RenderPortrait(actorID)
		if err == sim.ErrNotReady {
			return opqueue.ErrRetry
		}
		if err != nil {
			return err
		}
		protocol.Push(p.out, p.log, protocol.MsgPortrait, protocol.Portrait{
			ActorID: actorID,
			Image:   img,
		})
		return nil
	})
}

// SendOutgoingState pushes the puppet-centric snapshot: the puppet's own
// toggles plus the colony matrices, with the puppet's rows first.
func (p *Projector) SendOutgoingState(pp *state.Puppeteer) {
	actorID := pp.Puppet
	if actorID == 0 {
		return
	}
	if _, ok := p.game.ActorByID(actorID); !ok {
		return
	}
	ps := p.game.PrioritySettings()
	msg := protocol.OutgoingState{
		ActorID:         actorID,
		HostileResponse: p.game.HostileResponse(actorID),
		Drafted:         p.game.Drafted(actorID),
		Zone:            p.game.ActorZone(actorID),
		Zones:           p.game.Zones(),
		WorkTypes:       p.workTypes.Names(),
		Manual:          ps.Manual,
		Norm:            ps.Default,
		Max:             ps.Max,
	}
	for _, a := range p.rosterPuppetFirst(actorID) {
		msg.Priorities = append(msg.Priorities, p.priorityRow(a))
		msg.Schedules = append(msg.Schedules, p.scheduleRow(a))
	}
	protocol.Push(p.out, p.log, protocol.MsgOutgoingState, msg)
}

// rosterPuppetFirst returns the roster with the given actor moved to the
// front, so the requesting puppeteer's own rows lead the matrices.
func (p *Projector) rosterPuppetFirst(actorID int64) []sim.Actor {
	roster := p.game.Roster()
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].ID() == actorID && roster[j].ID() != actorID
	})
	return roster
}

// priorityRow encodes one actor's cells as passion*100+priority, with -1
// marking work the actor can never do.
func (p *Projector) priorityRow(a sim.Actor) protocol.PriorityRow {
	row := protocol.PriorityRow{ActorID: a.ID(), Name: a.Name()}
	for _, work := range p.workTypes.Names() {
		cell := p.game.WorkPriority(a.ID(), work)
		if cell.Disabled {
			row.Cells = append(row.Cells, -1)
			continue
		}
		row.Cells = append(row.Cells, cell.Passion*100+cell.Priority)
	}
	return row
}

// scheduleRow encodes one actor's day as a 24-letter string.
func (p *Projector) scheduleRow(a sim.Actor) protocol.ScheduleRow {
	var b strings.Builder
	for _, assignment := range p.game.Schedule(a.ID()) {
		b.WriteString(p.assignments.Letter(assignment))
	}
	return protocol.ScheduleRow{ActorID: a.ID(), Name: a.Name(), Schedule: b.String()}
}

// QueueSocial defers the puppet's ranked relation scan.
func (p *Projector) QueueSocial(pp *state.Puppeteer) {
	actorID := pp.Puppet
	if actorID == 0 {
		return
	}
	p.queue.Push(opqueue.KindSocial, fmt.Sprintf("social/%d", actorID), func() error {
		rels := p.game.Relations(actorID)
		rankRelations(rels)
		msg := protocol.Social{ActorID: actorID}
		for _, r := range rels {
			msg.Relations = append(msg.Relations, protocol.SocialEntry{
				Name:         r.OtherName,
				Relation:     r.Label,
				OurOpinion:   r.OurOpinion,
				TheirOpinion: r.TheirOpinion,
			})
		}
		protocol.Push(p.out, p.log, protocol.MsgSocial, msg)
		return nil
	})
}

// rankRelations orders social edges the way the relations tab does:
// named relations first, stronger bonds before weaker, then by how much
// we like them, with name as the final tiebreak.
func rankRelations(rels []sim.Relation) {
	sort.SliceStable(rels, func(i, j int) bool {
		a, b := rels[i], rels[j]
		aNamed, bNamed := a.Label != "", b.Label != ""
		if aNamed != bNamed {
			return aNamed
		}
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if a.OurOpinion != b.OurOpinion {
			return a.OurOpinion > b.OurOpinion
		}
		return a.OtherName < b.OtherName
	})
}

// QueueGear defers the puppet's worn and wielded gear walk.
func (p *Projector) QueueGear(pp *state.Puppeteer) {
	actorID := pp.Puppet
	if actorID == 0 {
		return
	}
	p.queue.Push(opqueue.KindGear, fmt.Sprintf("gear/%d", actorID), func() error {
		protocol.Push(p.out, p.log, protocol.MsgGear, protocol.Gear{
			ActorID:   actorID,
			Apparel:   p.game.Apparel(actorID),
			Equipment: p.game.Equipment(actorID),
		})
		return nil
	})
}

// QueueInventory defers the puppet's carried-items walk.
func (p *Projector) QueueInventory(pp *state.Puppeteer) {
	actorID := pp.Puppet
	if actorID == 0 {
		return
	}
	p.queue.Push(opqueue.KindInventory, fmt.Sprintf("inventory/%d", actorID), func() error {
		protocol.Push(p.out, p.log, protocol.MsgInventory, protocol.Inventory{
			ActorID: actorID,
			Items:   p.game.Inventory(actorID),
		})
		return nil
	})
}

// SendAllState pushes everything a newly attached puppeteer needs.
func (p *Projector) SendAllState(pp *state.Puppeteer) {
	p.SendAssignment(pp)
	p.SendOutgoingState(pp)
	p.QueuePortrait(pp)
	p.QueueSocial(pp)
	p.QueueGear(pp)
	p.QueueInventory(pp)
}
