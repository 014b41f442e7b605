package project

import (
	"sort"

	"github.com/puppetbridge/server/internal/state"
)

// roundRobin walks the connected, controlling puppeteers one per call so
// periodic refreshes spread their cost evenly instead of bursting on a
// single tick.
type roundRobin struct {
	cursor int
}

func (r *roundRobin) next(candidates []*state.Puppeteer) *state.Puppeteer {
	var eligible []*state.Puppeteer
	for _, p := range candidates {
		if p.Connected && p.Controlling() {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].Identity.Key() < eligible[j].Identity.Key()
	})
	r.cursor %= len(eligible)
	p := eligible[r.cursor]
	r.cursor++
	return p
}

// RotateSocial refreshes the social pane of one controlling puppeteer.
// Called on a timer by the push system.
func (p *Projector) RotateSocial() {
	if next := p.rr.next(p.store.Connected()); next != nil {
		p.QueueSocial(next)
	}
}
