package viewer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Viewer is the persisted external-facing record for one Identity.
// Created on first contact, never deleted; Connected flips on join/leave.
type Viewer struct {
	Identity  Identity `json:"identity"`
	Name      string   `json:"name,omitempty"`
	Connected bool     `json:"-"`
	Coins     int      `json:"coins"`
}

// Registry owns every Viewer ever seen, keyed by Identity.Key(). Lookups
// may run from any goroutine; mutations happen on the game loop. Each
// structural change is followed by Save() by the caller.
type Registry struct {
	mu      sync.RWMutex
	viewers map[string]*Viewer

	path string
	log  *zap.Logger
}

// NewRegistry loads the viewer file if present. A missing file is an empty
// registry, not an error.
func NewRegistry(path string, log *zap.Logger) (*Registry, error) {
	r := &Registry{
		viewers: make(map[string]*Viewer),
		path:    path,
		log:     log,
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read viewers %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &r.viewers); err != nil {
		return nil, fmt.Errorf("parse viewers %s: %w", path, err)
	}
	return r, nil
}

// Save atomically rewrites the viewer file. I/O failures are logged, not
// propagated: in-memory state stays authoritative until the next save.
func (r *Registry) Save() {
	r.mu.RLock()
	data, err := json.MarshalIndent(r.viewers, "", "  ")
	r.mu.RUnlock()
	if err != nil {
		r.log.Error("marshal viewers", zap.Error(err))
		return
	}
	if err := writeFileAtomic(r.path, data); err != nil {
		r.log.Error("save viewers", zap.String("path", r.path), zap.Error(err))
	}
}

// Join marks an identity connected, creating its record on first contact.
// Returns nil for invalid identities.
func (r *Registry) Join(id Identity) *Viewer {
	if !id.Valid() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.viewers[id.Key()]
	if !ok {
		v = &Viewer{Identity: id}
		r.viewers[id.Key()] = v
	}
	v.Connected = true
	if id.Name != "" {
		v.Name = id.Name
	}
	return v
}

// Leave marks an identity disconnected. Unknown identities are a no-op.
func (r *Registry) Leave(id Identity) *Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.viewers[id.Key()]
	if v != nil {
		v.Connected = false
	}
	return v
}

// Find returns the viewer for an identity, or nil.
func (r *Registry) Find(id Identity) *Viewer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewers[id.Key()]
}

// Earn credits every connected viewer and returns them so the caller can
// push updated balances.
func (r *Registry) Earn(amount int) []*Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()
	var credited []*Viewer
	for _, v := range r.viewers {
		if v.Connected {
			v.Coins += amount
			credited = append(credited, v)
		}
	}
	sort.Slice(credited, func(i, j int) bool {
		return credited[i].Identity.Key() < credited[j].Identity.Key()
	})
	return credited
}

// Count returns the number of viewers ever seen.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.viewers)
}

// writeFileAtomic writes via a temp file and rename so a crash mid-write
// never leaves a truncated record.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
