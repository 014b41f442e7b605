package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// WorkTypeInfo is one column of the work-priority matrix.
type WorkTypeInfo struct {
	Name  string // stable identifier ("doctor", "cook")
	Label string // display label
	Order int    // column order in the matrix
}

// WorkTypeTable holds all work types in matrix order.
type WorkTypeTable struct {
	ordered []*WorkTypeInfo
	byName  map[string]*WorkTypeInfo
}

// Get returns a work type by name, or nil.
func (t *WorkTypeTable) Get(name string) *WorkTypeInfo {
	return t.byName[name]
}

// Names returns the work-type identifiers in matrix order.
func (t *WorkTypeTable) Names() []string {
	out := make([]string, len(t.ordered))
	for i, w := range t.ordered {
		out[i] = w.Name
	}
	return out
}

// IndexOf returns a work type's matrix column, or -1.
func (t *WorkTypeTable) IndexOf(name string) int {
	for i, w := range t.ordered {
		if w.Name == name {
			return i
		}
	}
	return -1
}

// At returns the work type at a matrix column, or nil.
func (t *WorkTypeTable) At(idx int) *WorkTypeInfo {
	if idx < 0 || idx >= len(t.ordered) {
		return nil
	}
	return t.ordered[idx]
}

// Count returns total loaded work types.
func (t *WorkTypeTable) Count() int {
	return len(t.ordered)
}

// --- YAML loading ---

type workTypeEntry struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Order int    `yaml:"order"`
}

type workTypeFile struct {
	WorkTypes []workTypeEntry `yaml:"work_types"`
}

// LoadWorkTypeTable loads work-type definitions from YAML.
func LoadWorkTypeTable(path string) (*WorkTypeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read work types: %w", err)
	}
	var f workTypeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse work types: %w", err)
	}
	t := &WorkTypeTable{byName: make(map[string]*WorkTypeInfo, len(f.WorkTypes))}
	for _, e := range f.WorkTypes {
		w := &WorkTypeInfo{Name: e.Name, Label: e.Label, Order: e.Order}
		t.ordered = append(t.ordered, w)
		t.byName[w.Name] = w
	}
	sort.SliceStable(t.ordered, func(i, j int) bool {
		return t.ordered[i].Order < t.ordered[j].Order
	})
	return t, nil
}
