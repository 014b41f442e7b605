package viewer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Identity is the stable key for an external viewer on a relay service.
// Immutable value; equality is by Key(). Name is display-only and does not
// participate in identity.
type Identity struct {
	Service string `json:"service"`
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
}

// NewIdentity builds an Identity, NFC-normalizing the display name so that
// relay-supplied text compares and renders consistently once it reaches
// actor labels.
func NewIdentity(service, id, name string) Identity {
	return Identity{
		Service: service,
		ID:      id,
		Name:    norm.NFC.String(name),
	}
}

// Key returns the canonical "service:id" identifier.
func (v Identity) Key() string {
	return v.Service + ":" + v.ID
}

// Valid reports whether both parts are present.
func (v Identity) Valid() bool {
	return v.Service != "" && v.ID != ""
}

// Equal compares by canonical key, ignoring the display name.
func (v Identity) Equal(o Identity) bool {
	return v.Service == o.Service && v.ID == o.ID
}

// ParseKey splits a "service:id" string back into an Identity.
// Returns a zero Identity if the string has no separator.
func ParseKey(key string) Identity {
	service, id, ok := strings.Cut(key, ":")
	if !ok {
		return Identity{}
	}
	return Identity{Service: service, ID: id}
}
