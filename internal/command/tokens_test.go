package command

import (
	"testing"

	"github.com/puppetbridge/server/internal/sim"
)

func choiceCounting(n *int) sim.Choice {
	return sim.Choice{Label: "x", Run: func() error { *n++; return nil }}
}

func TestRedeemRunsChoice(t *testing.T) {
	tk := NewTokens()
	var ran int
	entries := tk.Rebuild(7, []sim.Choice{choiceCounting(&ran)})
	if len(entries) != 1 || entries[0].Token == "" {
		t.Fatalf("entries = %+v", entries)
	}
	if err := tk.Redeem(entries[0].Token); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if ran != 1 {
		t.Fatalf("ran = %d, want 1", ran)
	}
}

func TestRedeemFiresOnce(t *testing.T) {
	tk := NewTokens()
	var ran int
	entries := tk.Rebuild(7, []sim.Choice{choiceCounting(&ran)})
	if err := tk.Redeem(entries[0].Token); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if err := tk.Redeem(entries[0].Token); err == nil {
		t.Fatal("a redeemed token must not redeem again")
	}
	if ran != 1 {
		t.Fatalf("ran = %d, want exactly 1", ran)
	}
}

func TestRebuildInvalidatesOldTokens(t *testing.T) {
	tk := NewTokens()
	var ran int
	old := tk.Rebuild(7, []sim.Choice{choiceCounting(&ran)})
	fresh := tk.Rebuild(7, []sim.Choice{choiceCounting(&ran)})

	if err := tk.Redeem(old[0].Token); err == nil {
		t.Fatal("token from a previous menu must not redeem")
	}
	if err := tk.Redeem(fresh[0].Token); err != nil {
		t.Fatalf("fresh token: %v", err)
	}
	if ran != 1 {
		t.Fatalf("ran = %d, want 1", ran)
	}
}

func TestRebuildScopedPerActor(t *testing.T) {
	tk := NewTokens()
	var ran int
	a := tk.Rebuild(7, []sim.Choice{choiceCounting(&ran)})
	tk.Rebuild(8, []sim.Choice{choiceCounting(&ran)})

	// rebuilding actor 8 must not retire actor 7's tokens
	if err := tk.Redeem(a[0].Token); err != nil {
		t.Fatalf("actor 7 token: %v", err)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	tk := NewTokens()
	if err := tk.Redeem("nonsense"); err == nil {
		t.Fatal("unknown token must fail")
	}
}

func TestDropActorRetiresTokens(t *testing.T) {
	tk := NewTokens()
	var ran int
	entries := tk.Rebuild(7, []sim.Choice{choiceCounting(&ran)})
	tk.DropActor(7)
	if err := tk.Redeem(entries[0].Token); err == nil {
		t.Fatal("token must not survive its actor")
	}
}
