package sim

import "errors"

// ErrNotReady reports a render target that has not been produced yet.
// Callers may retry the operation on a later tick.
var ErrNotReady = errors.New("sim: render not ready")

// Actor is a living simulation actor. Implementations stay owned by the
// simulation; holders resolve by ID each tick rather than caching.
type Actor interface {
	ID() int64
	Name() string
	// CanAct reports whether the actor is currently controllable:
	// alive, spawned, and part of the player faction.
	CanAct() bool
}

// Relation describes one social edge from an actor to another, raw and
// unsorted. Ranking is the consumer's concern.
type Relation struct {
	OtherID      int64
	OtherName    string
	Label        string // named relation ("wife", "rival"), empty if none
	Importance   float64
	OurOpinion   int
	TheirOpinion int
}

// Item is one piece of gear or carried stock.
type Item struct {
	Name    string `json:"name"`
	Count   int    `json:"count,omitempty"`
	HP      int    `json:"hp"`
	MaxHP   int    `json:"maxHp"`
	Quality string `json:"quality,omitempty"`
}

// Choice is one entry of a context menu or object gizmo set. Run executes
// the underlying order on the game loop.
type Choice struct {
	Label string
	Run   func() error
}

// TimeInfo is the current simulation clock.
type TimeInfo struct {
	Speed int `json:"speed"`
	Hour  int `json:"hour"`
	Day   int `json:"day"`
}

// WorkCell is one actor's standing toward one work type. Priority is
// 0 (off) to 4 (highest); Disabled means the actor can never do it.
type WorkCell struct {
	Priority int
	Passion  int
	Disabled bool
}

// PrioritySettings describes the work-priority scale: whether manual
// priorities are in play, the default value, and the highest value.
type PrioritySettings struct {
	Manual  bool
	Default int
	Max     int
}

// Game is everything the bridge needs from the running simulation. All
// methods must be called from the game loop.
type Game interface {
	ActorByID(id int64) (Actor, bool)
	// Roster returns the controllable actors in stable order.
	Roster() []Actor

	// Display tags mirror the controlling puppeteer's name next to the
	// actor. Clearing an unset tag is a no-op.
	SetDisplayTag(actorID int64, tag string)
	ClearDisplayTag(actorID int64)

	SetHostileResponse(actorID int64, mode string) error
	SetDrafted(actorID int64, drafted bool) error
	SetZone(actorID int64, zone string) error
	SetWorkPriority(actorID int64, work string, priority int) error
	SetScheduleHour(actorID int64, hour int, assignment string) error
	OrderGoto(actorID int64, x, y int) error
	// Say shows a short-lived speech bubble over the actor.
	Say(actorID int64, text string) error

	// Notify raises a one-off in-game notice to the player.
	Notify(text string)

	Zones() []string
	ActorZone(actorID int64) string
	HostileResponse(actorID int64) string
	Drafted(actorID int64) bool
	WorkPriority(actorID int64, work string) WorkCell
	PrioritySettings() PrioritySettings
	// Schedule returns the actor's 24 hourly assignment names.
	Schedule(actorID int64) [24]string
	Relations(actorID int64) []Relation
	Apparel(actorID int64) []Item
	Equipment(actorID int64) []Item
	Inventory(actorID int64) []Item

	// MenuChoices builds the actor's context menu for a target cell.
	// Previous choices for the actor are invalidated by the call.
	MenuChoices(actorID int64, x, y int) []Choice
	// ObjectGizmos builds the actions offered by the object at the
	// given cell.
	ObjectGizmos(actorID int64, x, y int) []Choice

	// RenderPortrait returns a compressed PNG of the actor, or
	// ErrNotReady when the render has not landed yet.
	RenderPortrait(actorID int64) ([]byte, error)
	// RenderCommandAtlas returns the actor's on-screen command strip,
	// or ErrNotReady.
	RenderCommandAtlas(actorID int64) ([]byte, error)
	// RenderMapTile returns a map cutout around the actor, scale cells
	// per side.
	RenderMapTile(actorID int64, scale int) ([]byte, error)

	Time() TimeInfo
	MapName() string
	GridSize() (w, h int)
	InBounds(x, y int) bool
	Standable(x, y int) bool
}
