package colony

import "github.com/puppetbridge/server/internal/sim"

type namedRelation struct {
	label      string
	importance float64
}

type point struct{ x, y int }

// Actor is one colony member. All fields are owned by the game loop;
// external holders go through the Colony's sim.Game surface instead of
// keeping pointers.
type Actor struct {
	id         int64
	name       string
	displayTag string

	x, y          int
	dead          bool
	spawned       bool
	playerFaction bool

	drafted         bool
	hostileResponse string
	zone            string

	priorities map[string]sim.WorkCell
	schedule   [24]string

	opinions  map[int64]int // our opinion of the other actor
	relations map[int64]namedRelation

	apparel   []sim.Item
	equipment []sim.Item
	inventory []sim.Item

	gotoTarget *point

	speech      string
	speechUntil int64 // tick the bubble expires on
}

func (a *Actor) ID() int64 { return a.id }

// Name returns the actor's label, suffixed with the controlling
// puppeteer's tag when one is set.
func (a *Actor) Name() string {
	if a.displayTag != "" {
		return a.name + " [" + a.displayTag + "]"
	}
	return a.name
}

// BaseName returns the label without any display tag.
func (a *Actor) BaseName() string { return a.name }

// CanAct reports whether the actor is alive, on the map, and ours.
func (a *Actor) CanAct() bool {
	return !a.dead && a.spawned && a.playerFaction
}

// Position returns the actor's current cell.
func (a *Actor) Position() (int, int) { return a.x, a.y }
