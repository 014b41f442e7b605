package viewer

import "testing"

func TestIdentityKey(t *testing.T) {
	id := NewIdentity("twitch", "12345", "alice")
	if got := id.Key(); got != "twitch:12345" {
		t.Fatalf("Key() = %q, want twitch:12345", got)
	}
}

func TestIdentityValid(t *testing.T) {
	cases := []struct {
		service, id string
		want        bool
	}{
		{"twitch", "12345", true},
		{"", "12345", false},
		{"twitch", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		id := NewIdentity(c.service, c.id, "x")
		if got := id.Valid(); got != c.want {
			t.Errorf("Valid(%q, %q) = %v, want %v", c.service, c.id, got, c.want)
		}
	}
}

func TestIdentityEqualIgnoresName(t *testing.T) {
	a := NewIdentity("twitch", "12345", "alice")
	b := NewIdentity("twitch", "12345", "alice_renamed")
	if !a.Equal(b) {
		t.Fatal("identities with same service:id should be equal")
	}
	c := NewIdentity("youtube", "12345", "alice")
	if a.Equal(c) {
		t.Fatal("identities on different services should differ")
	}
}

func TestNewIdentityNormalizesName(t *testing.T) {
	// "e" + combining acute vs precomposed "é"
	decomposed := NewIdentity("twitch", "1", "Rémy")
	composed := NewIdentity("twitch", "1", "Rémy")
	if decomposed.Name != composed.Name {
		t.Fatalf("names not normalized: %q vs %q", decomposed.Name, composed.Name)
	}
}

func TestParseKey(t *testing.T) {
	id := ParseKey("twitch:12345")
	if id.Service != "twitch" || id.ID != "12345" {
		t.Fatalf("ParseKey = %+v", id)
	}
	if got := ParseKey("garbage"); got.Valid() {
		t.Fatalf("ParseKey on separator-less input should be invalid, got %+v", got)
	}
}
