package command

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/protocol"
	"github.com/puppetbridge/server/internal/viewer"
)

// RegisterAll binds every relay message to its handler.
func RegisterAll(reg *protocol.Registry, d *Deps) {
	reg.Register(protocol.MsgWelcome, protocol.PhaseHandshake, func(data json.RawMessage) error {
		return handleWelcome(d, data)
	})
	reg.Register(protocol.MsgViewerJoin, protocol.PhaseReady, func(data json.RawMessage) error {
		return handleViewerJoin(d, data)
	})
	reg.Register(protocol.MsgViewerLeft, protocol.PhaseReady, func(data json.RawMessage) error {
		return handleViewerLeft(d, data)
	})
	reg.Register(protocol.MsgAssign, protocol.PhaseReady, func(data json.RawMessage) error {
		return handleAssign(d, data)
	})
	reg.Register(protocol.MsgUnassign, protocol.PhaseReady, func(data json.RawMessage) error {
		return handleUnassign(d, data)
	})
	reg.Register(protocol.MsgChat, protocol.PhaseReady, func(data json.RawMessage) error {
		return handleChat(d, data)
	})
	reg.Register(protocol.MsgState, protocol.PhaseReady, func(data json.RawMessage) error {
		return handleState(d, data)
	})
}

// bridgeVersion is what this build speaks; a relay demanding newer gets
// one in-game notice and the session carries on best-effort.
const bridgeVersion = 1

// handleWelcome completes the relay handshake and pushes the opening
// snapshot: game info, roster, and each connected puppeteer's state.
func handleWelcome(d *Deps, data json.RawMessage) error {
	var msg protocol.Welcome
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("welcome: %w", err)
	}
	*d.Phase = protocol.PhaseReady
	d.Log.Info("relay handshake complete", zap.String("relay", msg.Relay))
	if msg.MinVersion > bridgeVersion && !d.versionWarned {
		d.versionWarned = true
		d.Game.Notify(fmt.Sprintf("The relay expects version %d or newer; this bridge speaks %d. Please update.",
			msg.MinVersion, bridgeVersion))
	}

	d.Project.SendGameInfo()
	d.Project.SendTime()
	d.Project.SendColonists()
	for _, pp := range d.Store.Connected() {
		d.Project.SendAllState(pp)
	}
	return nil
}

func decodeIdentity(raw viewer.Identity) viewer.Identity {
	return viewer.NewIdentity(raw.Service, raw.ID, raw.Name)
}

func handleViewerJoin(d *Deps, data json.RawMessage) error {
	var msg protocol.ViewerPresence
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("viewer join: %w", err)
	}
	id := decodeIdentity(msg.Viewer)
	v := d.Viewers.Join(id)
	if v == nil {
		return fmt.Errorf("viewer join: invalid identity")
	}
	d.Viewers.Save()
	pp := d.Store.SetConnected(id, true, d.Game)
	d.Store.Save(d.Game)
	d.Log.Info("viewer joined", zap.String("viewer", id.Key()))

	d.Project.SendEarned(v)
	d.Project.SendGameInfo()
	d.Project.SendColonists()
	d.Project.SendAllState(pp)
	return nil
}

func handleViewerLeft(d *Deps, data json.RawMessage) error {
	var msg protocol.ViewerPresence
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("viewer left: %w", err)
	}
	id := decodeIdentity(msg.Viewer)
	d.Viewers.Leave(id)
	d.Store.SetConnected(id, false, d.Game)
	d.Store.Save(d.Game)
	d.Log.Info("viewer left", zap.String("viewer", id.Key()))
	return nil
}

// handleChat floats a viewer's chat line over their puppet. Lines from
// viewers without a puppet are dropped.
func handleChat(d *Deps, data json.RawMessage) error {
	var msg protocol.Chat
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if msg.Message == "" {
		return nil
	}
	pp := d.Store.Find(decodeIdentity(msg.Viewer))
	if pp == nil || !pp.Controlling() {
		return nil
	}
	if err := d.Game.Say(pp.Puppet, msg.Message); err != nil {
		d.Log.Debug("chat dropped", zap.Error(err))
	}
	return nil
}

func handleAssign(d *Deps, data json.RawMessage) error {
	var msg protocol.AssignRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	id := decodeIdentity(msg.Viewer)
	if msg.ActorID == 0 {
		return releaseAssignment(d, id)
	}

	// Remember both sides that may lose a link, so their panes refresh.
	prevController := d.Store.ControllerOf(msg.ActorID)
	if err := d.Store.Assign(id, msg.ActorID, d.Game); err != nil {
		return err
	}
	d.Store.Save(d.Game)

	pp := d.Store.Find(id)
	d.Project.SendAssignment(pp)
	d.Project.SendAllState(pp)
	if prevController != nil && !prevController.Identity.Equal(id) {
		d.Project.SendAssignment(prevController)
	}
	d.Project.SendColonists()
	return nil
}

func handleUnassign(d *Deps, data json.RawMessage) error {
	var msg protocol.AssignRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("unassign: %w", err)
	}
	return releaseAssignment(d, decodeIdentity(msg.Viewer))
}

func releaseAssignment(d *Deps, id viewer.Identity) error {
	d.Store.Unassign(id, d.Game)
	d.Store.Save(d.Game)
	if pp := d.Store.Find(id); pp != nil {
		d.Project.SendAssignment(pp)
	}
	d.Project.SendColonists()
	return nil
}
