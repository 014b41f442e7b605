package command

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/puppetbridge/server/internal/protocol"
	"github.com/puppetbridge/server/internal/sim"
)

// Tokens maps single-purpose action tokens to runnable choices. Each
// rebuild for an actor starts a new epoch: tokens minted earlier stop
// redeeming, so a stale menu on the viewer side can never fire an order
// built against an older game state. Game loop only.
type Tokens struct {
	epochs  map[int64]uint64
	entries map[string]tokenEntry
}

type tokenEntry struct {
	actorID int64
	epoch   uint64
	run     func() error
}

func NewTokens() *Tokens {
	return &Tokens{
		epochs:  make(map[int64]uint64),
		entries: make(map[string]tokenEntry),
	}
}

// Rebuild replaces an actor's token set with fresh ones for the given
// choices and returns the wire entries in choice order.
func (t *Tokens) Rebuild(actorID int64, choices []sim.Choice) []protocol.MenuEntry {
	t.epochs[actorID]++
	epoch := t.epochs[actorID]
	for tok, e := range t.entries {
		if e.actorID == actorID {
			delete(t.entries, tok)
		}
	}
	out := make([]protocol.MenuEntry, 0, len(choices))
	for _, ch := range choices {
		tok := uuid.NewString()
		t.entries[tok] = tokenEntry{actorID: actorID, epoch: epoch, run: ch.Run}
		out = append(out, protocol.MenuEntry{Token: tok, Label: ch.Label})
	}
	return out
}

// Redeem retires a token and runs the choice behind it. A token fires at
// most once; unknown and stale tokens fail.
func (t *Tokens) Redeem(token string) error {
	e, ok := t.entries[token]
	if !ok {
		return fmt.Errorf("command: unknown token")
	}
	delete(t.entries, token)
	if e.epoch != t.epochs[e.actorID] {
		return fmt.Errorf("command: stale token")
	}
	return e.run()
}

// DropActor discards every token minted for an actor.
func (t *Tokens) DropActor(actorID int64) {
	delete(t.epochs, actorID)
	for tok, e := range t.entries {
		if e.actorID == actorID {
			delete(t.entries, tok)
		}
	}
}
