package command

import (
	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/config"
	"github.com/puppetbridge/server/internal/data"
	"github.com/puppetbridge/server/internal/opqueue"
	"github.com/puppetbridge/server/internal/project"
	"github.com/puppetbridge/server/internal/protocol"
	"github.com/puppetbridge/server/internal/sim"
	"github.com/puppetbridge/server/internal/state"
	"github.com/puppetbridge/server/internal/viewer"
)

// Deps bundles everything the command handlers touch. One instance is
// built at startup and shared; handlers run on the game loop.
type Deps struct {
	Log     *zap.Logger
	Cfg     *config.Config
	Game    sim.Game
	Store   *state.Store
	Viewers *viewer.Registry
	Queue   *opqueue.Queue
	Out     protocol.Sender
	Project *project.Projector

	WorkTypes   *data.WorkTypeTable
	Assignments *data.AssignmentTable

	MenuTokens  *Tokens
	GizmoTokens *Tokens

	// Phase is the session's handshake state, advanced by the welcome
	// handler and read by the input system on every dispatch.
	Phase *protocol.Phase

	versionWarned bool
}

// DropActor clears everything command-side that references an actor that
// left play: tokens and any control link.
func (d *Deps) DropActor(actorID int64) {
	d.MenuTokens.DropActor(actorID)
	d.GizmoTokens.DropActor(actorID)
	if pp := d.Store.DropActor(actorID); pp != nil {
		d.Project.SendAssignment(pp)
	}
	d.Project.SendAvailability(actorID, false)
}
