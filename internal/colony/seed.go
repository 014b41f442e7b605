package colony

import "github.com/puppetbridge/server/internal/sim"

// seed populates the starting colony: three colonists, a handful of
// walls, and a couple of usable objects.
func (c *Colony) seed() {
	for x := 20; x < 28; x++ {
		c.walls[point{x, 20}] = true
		c.walls[point{x, 27}] = true
	}
	for y := 21; y < 27; y++ {
		c.walls[point{20, y}] = true
		c.walls[point{27, y}] = true
	}
	c.objects[point{24, 24}] = "bed"
	c.objects[point{22, 23}] = "workbench"

	marn := c.addActor("Marn", 10, 10)
	elio := c.addActor("Elio", 12, 10)
	sava := c.addActor("Sava", 14, 12)

	marn.relations[elio.id] = namedRelation{label: "brother", importance: 100}
	elio.relations[marn.id] = namedRelation{label: "brother", importance: 100}
	marn.opinions[elio.id] = 40
	elio.opinions[marn.id] = 35
	marn.opinions[sava.id] = -5
	sava.opinions[marn.id] = 12
	sava.opinions[elio.id] = 20

	marn.priorities["doctor"] = sim.WorkCell{Priority: 1, Passion: 2}
	marn.priorities["violent"] = sim.WorkCell{Disabled: true}
	elio.priorities["cook"] = sim.WorkCell{Priority: 2, Passion: 1}
	sava.priorities["grow"] = sim.WorkCell{Priority: 1}

	marn.apparel = []sim.Item{
		{Name: "button-down shirt", HP: 72, MaxHP: 100, Quality: "normal"},
		{Name: "duster", HP: 104, MaxHP: 140, Quality: "good"},
	}
	marn.equipment = []sim.Item{
		{Name: "bolt-action rifle", HP: 95, MaxHP: 100, Quality: "normal"},
	}
	marn.inventory = []sim.Item{
		{Name: "packaged survival meal", Count: 3, HP: 50, MaxHP: 50},
	}
	elio.apparel = []sim.Item{
		{Name: "parka", HP: 60, MaxHP: 120, Quality: "poor"},
	}
	sava.inventory = []sim.Item{
		{Name: "herbal medicine", Count: 5, HP: 25, MaxHP: 25},
	}
}

func (c *Colony) addActor(name string, x, y int) *Actor {
	a := &Actor{
		id:              c.nextID,
		name:            name,
		x:               x,
		y:               y,
		spawned:         true,
		playerFaction:   true,
		hostileResponse: "flee",
		priorities:      make(map[string]sim.WorkCell),
		opinions:        make(map[int64]int),
		relations:       make(map[int64]namedRelation),
	}
	for i := range a.schedule {
		a.schedule[i] = "anything"
	}
	c.nextID++
	c.actors[a.id] = a
	c.order = append(c.order, a.id)
	return a
}
