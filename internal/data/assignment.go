package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AssignmentInfo maps a timetable assignment to its single-letter wire
// form. Schedules travel as 24-letter strings, one letter per hour.
type AssignmentInfo struct {
	Name   string // "anything", "work", "joy", "sleep", "meditate"
	Letter string // one character
}

// AssignmentTable holds timetable assignments in both directions.
type AssignmentTable struct {
	byName   map[string]*AssignmentInfo
	byLetter map[string]*AssignmentInfo
}

// Get returns an assignment by name, or nil.
func (t *AssignmentTable) Get(name string) *AssignmentInfo {
	return t.byName[name]
}

// ByLetter returns an assignment by its wire letter, or nil.
func (t *AssignmentTable) ByLetter(letter string) *AssignmentInfo {
	return t.byLetter[letter]
}

// Letter returns the wire letter for an assignment name. Unknown names
// fall back to the anything letter.
func (t *AssignmentTable) Letter(name string) string {
	if a := t.byName[name]; a != nil {
		return a.Letter
	}
	if a := t.byName["anything"]; a != nil {
		return a.Letter
	}
	return "A"
}

// Count returns total loaded assignments.
func (t *AssignmentTable) Count() int {
	return len(t.byName)
}

// --- YAML loading ---

type assignmentEntry struct {
	Name   string `yaml:"name"`
	Letter string `yaml:"letter"`
}

type assignmentFile struct {
	Assignments []assignmentEntry `yaml:"assignments"`
}

// LoadAssignmentTable loads timetable assignments from YAML.
func LoadAssignmentTable(path string) (*AssignmentTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assignments: %w", err)
	}
	var f assignmentFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse assignments: %w", err)
	}
	t := &AssignmentTable{
		byName:   make(map[string]*AssignmentInfo, len(f.Assignments)),
		byLetter: make(map[string]*AssignmentInfo, len(f.Assignments)),
	}
	for _, e := range f.Assignments {
		if len(e.Letter) != 1 {
			return nil, fmt.Errorf("assignment %q: letter must be one character, got %q", e.Name, e.Letter)
		}
		a := &AssignmentInfo{Name: e.Name, Letter: e.Letter}
		t.byName[a.Name] = a
		t.byLetter[a.Letter] = a
	}
	return t, nil
}
