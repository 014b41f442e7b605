package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/puppetbridge/server/internal/sim"
	"github.com/puppetbridge/server/internal/viewer"
)

// Every frame on the relay socket is an Envelope: a type tag plus a
// type-specific payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps a payload into an envelope ready for the wire.
func Encode(msgType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", msgType, err)
	}
	return Envelope{Type: msgType, Data: data}, nil
}

// Inbound message types.
const (
	MsgWelcome    = "welcome"
	MsgViewerJoin = "viewer_joined"
	MsgViewerLeft = "viewer_left"
	MsgAssign     = "assign"
	MsgUnassign   = "unassign"
	MsgChat       = "chat"
	MsgState      = "state"
)

// Outbound message types.
const (
	MsgColonists          = "colonists"
	MsgColonistAvailable  = "colonist_available"
	MsgColonistAssigned   = "colonist_assigned"
	MsgColonistUnassigned = "colonist_unassigned"
	MsgGameInfo           = "game_info"
	MsgTimeInfo           = "time_info"
	MsgEarned             = "earned"
	MsgPortrait           = "portrait"
	MsgContextMenu        = "context_menu"
	MsgSelection          = "selection"
	MsgOutgoingState      = "outgoing_state"
	MsgSocial             = "social"
	MsgGear               = "gear"
	MsgInventory          = "inventory"
	MsgMapTile            = "map_tile"
)

// Welcome is the relay's handshake acknowledgment. MinVersion is the
// oldest bridge the relay still speaks to.
type Welcome struct {
	Relay      string `json:"relay"`
	MinVersion int    `json:"minVersion,omitempty"`
}

// ViewerPresence carries join/leave notifications.
type ViewerPresence struct {
	Viewer viewer.Identity `json:"viewer"`
}

// AssignRequest links a viewer to an actor; ActorID 0 on MsgUnassign.
type AssignRequest struct {
	Viewer  viewer.Identity `json:"viewer"`
	ActorID int64           `json:"actorId,omitempty"`
}

// Chat is a viewer chat line forwarded by the relay.
type Chat struct {
	Viewer  viewer.Identity `json:"viewer"`
	Message string          `json:"message"`
}

// StateCommand is one control input: a key/value pair applied to the
// issuing puppeteer's current puppet.
type StateCommand struct {
	Viewer viewer.Identity `json:"viewer"`
	Key    string          `json:"key"`
	Value  string          `json:"value"`
}

// Colonist is one roster entry.
type Colonist struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Controllable bool   `json:"controllable"`
	ControlledBy string `json:"controlledBy,omitempty"` // puppeteer key
}

type Colonists struct {
	Colonists []Colonist `json:"colonists"`
}

// ColonistAvailability announces an actor entering or leaving the
// controllable set.
type ColonistAvailability struct {
	Colonist  Colonist `json:"colonist"`
	Available bool     `json:"available"`
}

// AssignmentUpdate confirms an assignment change to its puppeteer.
type AssignmentUpdate struct {
	Viewer  viewer.Identity `json:"viewer"`
	ActorID int64           `json:"actorId,omitempty"`
	Name    string          `json:"name,omitempty"`
}

type GameInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	MapName string `json:"mapName"`
	GridW   int    `json:"gridW"`
	GridH   int    `json:"gridH"`
}

type Earned struct {
	Viewer viewer.Identity `json:"viewer"`
	Coins  int             `json:"coins"`
}

// Portrait carries a gzip-compressed PNG, base64 in transit.
type Portrait struct {
	ActorID int64  `json:"actorId"`
	Image   []byte `json:"image"`
}

type MenuEntry struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

// ContextMenu offers the puppet's current choices; tokens are single-use
// and expire when the menu is rebuilt.
type ContextMenu struct {
	ActorID int64       `json:"actorId"`
	Entries []MenuEntry `json:"entries"`
}

// Selection carries the puppet's command strip: an atlas image plus the
// gizmo tokens beneath it.
type Selection struct {
	ActorID int64       `json:"actorId"`
	Atlas   []byte      `json:"atlas"`
	Gizmos  []MenuEntry `json:"gizmos"`
}

// PriorityRow is one actor's work-priority cells, in work-type order.
// A cell encodes passion*100+priority; -1 marks disabled work.
type PriorityRow struct {
	ActorID int64  `json:"actorId"`
	Name    string `json:"name"`
	Cells   []int  `json:"cells"`
}

// ScheduleRow is one actor's day as a 24-letter string.
type ScheduleRow struct {
	ActorID  int64  `json:"actorId"`
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
}

// OutgoingState is the puppet-centric snapshot pushed after commands:
// the puppet's own toggles plus the colony-wide matrices, with the
// puppet's rows first.
type OutgoingState struct {
	ActorID         int64         `json:"actorId"`
	HostileResponse string        `json:"hostileResponse"`
	Drafted         bool          `json:"drafted"`
	Zone            string        `json:"zone"`
	Zones           []string      `json:"zones"`
	WorkTypes       []string      `json:"workTypes"`
	Manual          bool          `json:"manual"` // manual priorities on
	Norm            int           `json:"norm"`   // default priority
	Max             int           `json:"max"`    // highest priority
	Priorities      []PriorityRow `json:"priorities"`
	Schedules       []ScheduleRow `json:"schedules"`
}

// SocialEntry is one ranked relation of the puppet.
type SocialEntry struct {
	Name         string `json:"name"`
	Relation     string `json:"relation,omitempty"`
	OurOpinion   int    `json:"ourOpinion"`
	TheirOpinion int    `json:"theirOpinion"`
}

type Social struct {
	ActorID   int64         `json:"actorId"`
	Relations []SocialEntry `json:"relations"`
}

type Gear struct {
	ActorID   int64      `json:"actorId"`
	Apparel   []sim.Item `json:"apparel"`
	Equipment []sim.Item `json:"equipment"`
}

type Inventory struct {
	ActorID int64      `json:"actorId"`
	Items   []sim.Item `json:"items"`
}

// MapTile carries a gzip-compressed map cutout around the puppet.
type MapTile struct {
	ActorID int64  `json:"actorId"`
	Scale   int    `json:"scale"`
	Image   []byte `json:"image"`
}
