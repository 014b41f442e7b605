package command

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/colony"
	"github.com/puppetbridge/server/internal/core/event"
	"github.com/puppetbridge/server/internal/data"
	"github.com/puppetbridge/server/internal/opqueue"
	"github.com/puppetbridge/server/internal/project"
	"github.com/puppetbridge/server/internal/protocol"
	"github.com/puppetbridge/server/internal/scripting"
	"github.com/puppetbridge/server/internal/state"
	"github.com/puppetbridge/server/internal/viewer"
)

type captureOut struct {
	envs []protocol.Envelope
}

func (c *captureOut) Send(env protocol.Envelope) { c.envs = append(c.envs, env) }

func (c *captureOut) byType(msgType string) []protocol.Envelope {
	var out []protocol.Envelope
	for _, e := range c.envs {
		if e.Type == msgType {
			out = append(out, e)
		}
	}
	return out
}

func (c *captureOut) last(t *testing.T, msgType string, into any) {
	t.Helper()
	envs := c.byType(msgType)
	if len(envs) == 0 {
		t.Fatalf("no %s message sent; have %d messages", msgType, len(c.envs))
	}
	if err := json.Unmarshal(envs[len(envs)-1].Data, into); err != nil {
		t.Fatalf("decode %s: %v", msgType, err)
	}
}

const workTypesYAML = `work_types:
  - {name: doctor, label: Doctor, order: 0}
  - {name: cook, label: Cook, order: 1}
  - {name: grow, label: Grow, order: 2}
  - {name: violent, label: Violent, order: 3}
`

const assignmentsYAML = `assignments:
  - {name: anything, letter: A}
  - {name: work, letter: W}
  - {name: joy, letter: J}
  - {name: sleep, letter: S}
`

const hostilityYAML = `modes:
  - {name: flee, label: Flee}
  - {name: attack, label: Attack}
  - {name: ignore, label: Ignore}
`

const menusLua = `
function menu_choices(ctx)
    if ctx.drafted then
        return { { label = "Undraft", kind = "undraft" } }
    end
    return { { label = "Draft", kind = "draft" } }
end

function object_gizmos(ctx, object)
    return { { label = "Use " .. object, kind = "use", arg = object } }
end
`

type testEnv struct {
	deps      *Deps
	out       *captureOut
	game      *colony.Colony
	queue     *opqueue.Queue
	reg       *protocol.Registry
	statePath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}
	log := zap.NewNop()

	workTypes, err := data.LoadWorkTypeTable(write("work_types.yaml", workTypesYAML))
	if err != nil {
		t.Fatalf("work types: %v", err)
	}
	assignments, err := data.LoadAssignmentTable(write("assignments.yaml", assignmentsYAML))
	if err != nil {
		t.Fatalf("assignments: %v", err)
	}
	hostility, err := data.LoadHostilityTable(write("hostility.yaml", hostilityYAML))
	if err != nil {
		t.Fatalf("hostility: %v", err)
	}

	scriptDir := filepath.Join(dir, "scripts")
	if err := os.MkdirAll(scriptDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(scriptDir, "menus.lua"), []byte(menusLua), 0o644); err != nil {
		t.Fatal(err)
	}
	scripts, err := scripting.NewEngine(scriptDir, log)
	if err != nil {
		t.Fatalf("scripting: %v", err)
	}
	t.Cleanup(scripts.Close)

	bus := event.NewBus()
	game := colony.New(colony.Deps{
		Log:         log,
		Bus:         bus,
		Scripts:     scripts,
		WorkTypes:   workTypes,
		Assignments: assignments,
		Hostility:   hostility,
	})

	viewers, err := viewer.NewRegistry(filepath.Join(dir, "viewers.json"), log)
	if err != nil {
		t.Fatalf("viewers: %v", err)
	}
	statePath := filepath.Join(dir, "state.json")
	store := state.NewStore(statePath, log)
	out := &captureOut{}
	queue := opqueue.New(map[opqueue.Kind]int{
		opqueue.KindPortrait: 1,
		opqueue.KindSelect:   1,
	}, log)

	projector := project.New(project.Deps{
		Log:         log,
		Game:        game,
		Store:       store,
		Viewers:     viewers,
		Out:         out,
		Queue:       queue,
		WorkTypes:   workTypes,
		Assignments: assignments,
		GameName:    "puppetbridge",
		GameVersion: "test",
	})

	phase := protocol.PhaseHandshake
	deps := &Deps{
		Log:         log,
		Game:        game,
		Store:       store,
		Viewers:     viewers,
		Queue:       queue,
		Out:         out,
		Project:     projector,
		WorkTypes:   workTypes,
		Assignments: assignments,
		MenuTokens:  NewTokens(),
		GizmoTokens: NewTokens(),
		Phase:       &phase,
	}
	reg := protocol.NewRegistry(log)
	RegisterAll(reg, deps)

	return &testEnv{deps: deps, out: out, game: game, queue: queue, reg: reg, statePath: statePath}
}

func (e *testEnv) dispatch(t *testing.T, msgType string, payload any) {
	t.Helper()
	env, err := protocol.Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	e.reg.Dispatch(*e.deps.Phase, env)
}

func (e *testEnv) attach(t *testing.T, id viewer.Identity, actorID int64) *state.Puppeteer {
	t.Helper()
	e.dispatch(t, protocol.MsgWelcome, protocol.Welcome{Relay: "test"})
	e.dispatch(t, protocol.MsgViewerJoin, protocol.ViewerPresence{Viewer: id})
	e.dispatch(t, protocol.MsgAssign, protocol.AssignRequest{Viewer: id, ActorID: actorID})
	pp := e.deps.Store.Find(id)
	if pp == nil || pp.Puppet != actorID {
		t.Fatalf("attach failed: %+v", pp)
	}
	return pp
}

func testAlice() viewer.Identity { return viewer.NewIdentity("twitch", "1001", "alice") }

func TestStateRequiresPuppet(t *testing.T) {
	e := newTestEnv(t)
	e.dispatch(t, protocol.MsgWelcome, protocol.Welcome{})
	e.dispatch(t, protocol.MsgViewerJoin, protocol.ViewerPresence{Viewer: testAlice()})

	pp := e.deps.Store.Find(testAlice())
	if err := HandleState(e.deps, pp, "drafted", "true"); err == nil {
		t.Fatal("commands without a puppet must fail")
	}
}

func TestDraftedCommand(t *testing.T) {
	e := newTestEnv(t)
	pp := e.attach(t, testAlice(), 1)

	if err := HandleState(e.deps, pp, "drafted", "true"); err != nil {
		t.Fatalf("drafted: %v", err)
	}
	if !e.game.Drafted(1) {
		t.Fatal("actor not drafted")
	}
	var msg protocol.OutgoingState
	e.out.last(t, protocol.MsgOutgoingState, &msg)
	if !msg.Drafted {
		t.Fatal("outgoing state should reflect the draft")
	}

	if err := HandleState(e.deps, pp, "drafted", "maybe"); err == nil {
		t.Fatal("bad boolean must be rejected")
	}
}

func TestHostileResponseCommand(t *testing.T) {
	e := newTestEnv(t)
	pp := e.attach(t, testAlice(), 1)

	if err := HandleState(e.deps, pp, "hostile-response", "attack"); err != nil {
		t.Fatalf("hostile-response: %v", err)
	}
	if got := e.game.HostileResponse(1); got != "attack" {
		t.Fatalf("mode = %q", got)
	}
	if err := HandleState(e.deps, pp, "hostile-response", "berserk"); err == nil {
		t.Fatal("unknown mode must be rejected")
	}
}

func TestPriorityCommandDecoding(t *testing.T) {
	e := newTestEnv(t)
	pp := e.attach(t, testAlice(), 1)

	// column 1 = cook, priority 3
	if err := HandleState(e.deps, pp, "priority", "103"); err != nil {
		t.Fatalf("priority: %v", err)
	}
	if got := e.game.WorkPriority(1, "cook").Priority; got != 3 {
		t.Fatalf("cook priority = %d, want 3", got)
	}

	if err := HandleState(e.deps, pp, "priority", "905"); err == nil {
		t.Fatal("column beyond the matrix must be rejected")
	}
	if err := HandleState(e.deps, pp, "priority", "105"); err == nil {
		t.Fatal("priority above 4 must be rejected")
	}
	// column 3 = violent, disabled for the first colonist
	if err := HandleState(e.deps, pp, "priority", "302"); err == nil {
		t.Fatal("disabled work must be rejected")
	}
}

func TestScheduleCommandDecoding(t *testing.T) {
	e := newTestEnv(t)
	pp := e.attach(t, testAlice(), 1)

	if err := HandleState(e.deps, pp, "schedule", "23:S"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got := e.game.Schedule(1)[23]; got != "sleep" {
		t.Fatalf("hour 23 = %q, want sleep", got)
	}

	for _, bad := range []string{"24:S", "-1:S", "5:Q", "noseparator", "x:S"} {
		if err := HandleState(e.deps, pp, "schedule", bad); err == nil {
			t.Fatalf("schedule %q should be rejected", bad)
		}
	}
}

func TestGotoCommand(t *testing.T) {
	e := newTestEnv(t)
	pp := e.attach(t, testAlice(), 1)

	// a goto drafts the actor on its way in
	if err := HandleState(e.deps, pp, "goto", "12,12"); err != nil {
		t.Fatalf("undrafted goto: %v", err)
	}
	if !e.game.Drafted(1) {
		t.Fatal("goto should draft the actor")
	}
	if err := HandleState(e.deps, pp, "goto", "500,500"); err == nil {
		t.Fatal("out-of-bounds cell must be rejected")
	}
	if err := HandleState(e.deps, pp, "goto", "20,21"); err == nil {
		t.Fatal("wall cell must be rejected")
	}
	if err := HandleState(e.deps, pp, "goto", "12,12"); err != nil {
		t.Fatalf("goto: %v", err)
	}
}

func TestGridCommand(t *testing.T) {
	e := newTestEnv(t)
	e.dispatch(t, protocol.MsgWelcome, protocol.Welcome{})
	e.dispatch(t, protocol.MsgViewerJoin, protocol.ViewerPresence{Viewer: testAlice()})
	pp := e.deps.Store.Find(testAlice())

	// grid works without a puppet
	if err := HandleState(e.deps, pp, "grid", "4"); err != nil {
		t.Fatalf("grid: %v", err)
	}
	if pp.GridScale != 4 {
		t.Fatalf("GridScale = %d", pp.GridScale)
	}
	if err := HandleState(e.deps, pp, "grid", "-2"); err == nil {
		t.Fatal("negative grid must be rejected")
	}

	// with a puppet attached, a map cutout is rendered on the next drain
	if err := e.deps.Store.Assign(testAlice(), 1, e.game); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := HandleState(e.deps, pp, "grid", "6"); err != nil {
		t.Fatalf("grid with puppet: %v", err)
	}
	e.queue.Drain()
	var tile protocol.MapTile
	e.out.last(t, protocol.MsgMapTile, &tile)
	if tile.ActorID != 1 || tile.Scale != 6 {
		t.Fatalf("tile = %+v", tile)
	}
	if len(tile.Image) == 0 {
		t.Fatal("empty map tile image")
	}
}

func TestChatFloatsOverPuppet(t *testing.T) {
	e := newTestEnv(t)
	e.attach(t, testAlice(), 1)

	e.dispatch(t, protocol.MsgChat, protocol.Chat{Viewer: testAlice(), Message: "hello colony"})
	if got := e.game.Speech(1); got != "hello colony" {
		t.Fatalf("Speech = %q", got)
	}

	// lines from viewers without a puppet are dropped
	bob := viewer.NewIdentity("twitch", "1002", "bob")
	e.dispatch(t, protocol.MsgViewerJoin, protocol.ViewerPresence{Viewer: bob})
	e.dispatch(t, protocol.MsgChat, protocol.Chat{Viewer: bob, Message: "me too"})
	if got := e.game.Speech(1); got != "hello colony" {
		t.Fatalf("Speech after bob = %q", got)
	}
}

func TestWelcomeVersionFloorNotice(t *testing.T) {
	e := newTestEnv(t)
	e.dispatch(t, protocol.MsgWelcome, protocol.Welcome{Relay: "test", MinVersion: 99})
	if n := len(e.game.Notices()); n != 1 {
		t.Fatalf("notices = %d, want 1", n)
	}
	// reconnects do not nag again
	e.dispatch(t, protocol.MsgWelcome, protocol.Welcome{Relay: "test", MinVersion: 99})
	if n := len(e.game.Notices()); n != 1 {
		t.Fatalf("notices after second welcome = %d, want 1", n)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	e := newTestEnv(t)
	pp := e.attach(t, testAlice(), 1)
	if err := HandleState(e.deps, pp, "teleport", "1,1"); err == nil {
		t.Fatal("unknown key must be rejected")
	}
}

func TestBadCommandSendsNoReply(t *testing.T) {
	e := newTestEnv(t)
	e.attach(t, testAlice(), 1)
	before := len(e.out.envs)
	e.dispatch(t, protocol.MsgState, protocol.StateCommand{Viewer: testAlice(), Key: "teleport", Value: "1,1"})
	e.dispatch(t, protocol.MsgState, protocol.StateCommand{Viewer: testAlice(), Key: "goto", Value: "garbage"})
	if got := len(e.out.envs); got != before {
		t.Fatalf("rejected commands produced %d outbound frames, want none", got-before)
	}
}

func TestJoinAndLeavePersistConnection(t *testing.T) {
	e := newTestEnv(t)
	e.dispatch(t, protocol.MsgWelcome, protocol.Welcome{})
	e.dispatch(t, protocol.MsgViewerJoin, protocol.ViewerPresence{Viewer: testAlice()})

	s := state.NewStore(e.statePath, zap.NewNop())
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pp := s.Find(testAlice()); pp == nil || !pp.Connected {
		t.Fatalf("persisted record = %+v, want connected", pp)
	}

	e.dispatch(t, protocol.MsgViewerLeft, protocol.ViewerPresence{Viewer: testAlice()})
	s2 := state.NewStore(e.statePath, zap.NewNop())
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pp := s2.Find(testAlice()); pp == nil || pp.Connected {
		t.Fatalf("persisted record after leave = %+v, want disconnected", pp)
	}
}

func TestMenuAndActionTokens(t *testing.T) {
	e := newTestEnv(t)
	pp := e.attach(t, testAlice(), 1)

	if err := HandleState(e.deps, pp, "menu", "garbage"); err == nil {
		t.Fatal("malformed menu cell must be rejected")
	}
	if err := HandleState(e.deps, pp, "menu", "500,500"); err == nil {
		t.Fatal("out-of-bounds menu cell must be rejected")
	}

	if err := HandleState(e.deps, pp, "menu", "10,10"); err != nil {
		t.Fatalf("menu: %v", err)
	}
	var menu protocol.ContextMenu
	e.out.last(t, protocol.MsgContextMenu, &menu)
	if len(menu.Entries) != 1 || menu.Entries[0].Label != "Draft" {
		t.Fatalf("menu = %+v", menu.Entries)
	}

	if err := HandleState(e.deps, pp, "action", menu.Entries[0].Token); err != nil {
		t.Fatalf("action: %v", err)
	}
	if !e.game.Drafted(1) {
		t.Fatal("menu action did not draft the actor")
	}
	if err := HandleState(e.deps, pp, "action", menu.Entries[0].Token); err == nil {
		t.Fatal("a redeemed token must not fire twice")
	}

	// token was built against the old menu epoch once a new menu lands
	if err := HandleState(e.deps, pp, "menu", "10,10"); err != nil {
		t.Fatal(err)
	}
	var again protocol.ContextMenu
	e.out.last(t, protocol.MsgContextMenu, &again)
	if err := HandleState(e.deps, pp, "menu", "10,10"); err != nil {
		t.Fatal(err)
	}
	if err := HandleState(e.deps, pp, "action", again.Entries[0].Token); err == nil {
		t.Fatal("stale token must be rejected")
	}
}

func TestSelectRetriesUntilAtlasReady(t *testing.T) {
	e := newTestEnv(t)
	pp := e.attach(t, testAlice(), 1)

	if err := HandleState(e.deps, pp, "select", "24,nope"); err == nil {
		t.Fatal("malformed select cell must be rejected")
	}
	if err := HandleState(e.deps, pp, "select", "24,24"); err != nil {
		t.Fatalf("select: %v", err)
	}
	e.queue.Drain() // atlas not rendered yet, op retries
	if len(e.out.byType(protocol.MsgSelection)) != 0 {
		t.Fatal("selection should not be sent before the atlas renders")
	}
	e.game.Tick(time.Millisecond) // render lands
	e.queue.Drain()
	var sel protocol.Selection
	e.out.last(t, protocol.MsgSelection, &sel)
	if sel.ActorID != 1 || len(sel.Atlas) == 0 {
		t.Fatalf("selection = actor %d, atlas %d bytes", sel.ActorID, len(sel.Atlas))
	}
	// gizmos come from the object at the selected cell, not the actor's
	if len(sel.Gizmos) != 1 || sel.Gizmos[0].Label != "Use bed" {
		t.Fatalf("gizmos = %+v", sel.Gizmos)
	}
}

func TestEndToEndScenario(t *testing.T) {
	e := newTestEnv(t)
	alice := testAlice()

	// handshake pushes the opening snapshot
	e.dispatch(t, protocol.MsgWelcome, protocol.Welcome{Relay: "test"})
	if *e.deps.Phase != protocol.PhaseReady {
		t.Fatal("welcome should complete the handshake")
	}
	var roster protocol.Colonists
	e.out.last(t, protocol.MsgColonists, &roster)
	if len(roster.Colonists) != 3 {
		t.Fatalf("roster = %d colonists, want 3", len(roster.Colonists))
	}

	// alice joins and takes the first colonist
	e.dispatch(t, protocol.MsgViewerJoin, protocol.ViewerPresence{Viewer: alice})
	var earned protocol.Earned
	e.out.last(t, protocol.MsgEarned, &earned)
	if !earned.Viewer.Equal(alice) {
		t.Fatalf("earned for %s", earned.Viewer.Key())
	}

	e.dispatch(t, protocol.MsgAssign, protocol.AssignRequest{Viewer: alice, ActorID: 1})
	var assigned protocol.AssignmentUpdate
	e.out.last(t, protocol.MsgColonistAssigned, &assigned)
	if assigned.ActorID != 1 {
		t.Fatalf("assigned actor %d", assigned.ActorID)
	}
	if a, _ := e.game.ActorByID(1); a.Name() != "Marn [alice]" {
		t.Fatalf("display tag missing: %q", a.Name())
	}

	// drive the puppet: draft, walk to a cell
	e.dispatch(t, protocol.MsgState, protocol.StateCommand{Viewer: alice, Key: "drafted", Value: "true"})
	e.dispatch(t, protocol.MsgState, protocol.StateCommand{Viewer: alice, Key: "goto", Value: "12,12"})
	for i := 0; i < 10; i++ {
		e.game.Tick(time.Millisecond)
	}
	// Marn starts at 10,10; ten steps cover the two-cell diagonal
	var outgoing protocol.OutgoingState
	e.out.last(t, protocol.MsgOutgoingState, &outgoing)
	if !outgoing.Drafted {
		t.Fatal("outgoing state should show the draft")
	}

	// disconnect keeps the link, reconnect restores the tag
	e.dispatch(t, protocol.MsgViewerLeft, protocol.ViewerPresence{Viewer: alice})
	if a, _ := e.game.ActorByID(1); a.Name() != "Marn" {
		t.Fatalf("tag should clear on leave: %q", a.Name())
	}
	pp := e.deps.Store.Find(alice)
	if pp.Puppet != 1 {
		t.Fatal("link must survive the disconnect")
	}
	e.dispatch(t, protocol.MsgViewerJoin, protocol.ViewerPresence{Viewer: alice})
	if a, _ := e.game.ActorByID(1); a.Name() != "Marn [alice]" {
		t.Fatalf("tag should return on rejoin: %q", a.Name())
	}

	// the actor dies; everything command-side lets go
	e.game.KillActor(1)
	e.deps.DropActor(1)
	if pp := e.deps.Store.Find(alice); pp.Puppet != 0 {
		t.Fatal("death must release the link")
	}
	var unassigned protocol.AssignmentUpdate
	e.out.last(t, protocol.MsgColonistUnassigned, &unassigned)
	if !unassigned.Viewer.Equal(alice) {
		t.Fatal("release should be announced to alice")
	}
}

func TestDispatchBlocksBeforeHandshake(t *testing.T) {
	e := newTestEnv(t)
	// no welcome yet: join must be ignored
	e.dispatch(t, protocol.MsgViewerJoin, protocol.ViewerPresence{Viewer: testAlice()})
	if e.deps.Viewers.Find(testAlice()) != nil {
		t.Fatal("pre-handshake traffic must be dropped")
	}
}
