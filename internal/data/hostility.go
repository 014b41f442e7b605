package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HostilityInfo is one hostile-response mode an actor can take when
// threatened.
type HostilityInfo struct {
	Name  string // "flee", "attack", "ignore"
	Label string
}

// HostilityTable holds the valid hostile-response modes.
type HostilityTable struct {
	ordered []*HostilityInfo
	byName  map[string]*HostilityInfo
}

// Get returns a mode by name, or nil.
func (t *HostilityTable) Get(name string) *HostilityInfo {
	return t.byName[name]
}

// Valid reports whether a mode name is known.
func (t *HostilityTable) Valid(name string) bool {
	return t.byName[name] != nil
}

// Names returns mode names in file order.
func (t *HostilityTable) Names() []string {
	out := make([]string, len(t.ordered))
	for i, h := range t.ordered {
		out[i] = h.Name
	}
	return out
}

// Count returns total loaded modes.
func (t *HostilityTable) Count() int {
	return len(t.ordered)
}

// --- YAML loading ---

type hostilityEntry struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
}

type hostilityFile struct {
	Modes []hostilityEntry `yaml:"modes"`
}

// LoadHostilityTable loads hostile-response modes from YAML.
func LoadHostilityTable(path string) (*HostilityTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hostility modes: %w", err)
	}
	var f hostilityFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse hostility modes: %w", err)
	}
	t := &HostilityTable{byName: make(map[string]*HostilityInfo, len(f.Modes))}
	for _, e := range f.Modes {
		h := &HostilityInfo{Name: e.Name, Label: e.Label}
		t.ordered = append(t.ordered, h)
		t.byName[h.Name] = h
	}
	return t, nil
}
