package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/sim"
	"github.com/puppetbridge/server/internal/viewer"
)

// Actor references are persisted through sequential integer surrogates
// rather than raw actor ids. The file carries a surrogate table mapping
// each surrogate to the actor's id and name, and Reconcile resolves the
// table against the live roster exactly once after load. An actor that
// no longer exists simply drops the link.

const fileVersion = 1

type fileActor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type filePuppeteer struct {
	Identity  viewer.Identity `json:"identity"`
	Connected bool            `json:"connected,omitempty"`
	Puppet    int             `json:"puppet,omitempty"` // surrogate, 0 = none
	GridScale int             `json:"gridScale,omitempty"`
}

type stateFile struct {
	Version    int               `json:"version"`
	Actors     map[int]fileActor `json:"actors,omitempty"`
	Puppeteers []filePuppeteer   `json:"puppeteers"`
}

// Save atomically rewrites the state file. Failures are logged; the
// in-memory store stays authoritative.
func (s *Store) Save(game sim.Game) {
	s.mu.RLock()
	f := stateFile{Version: fileVersion, Actors: make(map[int]fileActor)}
	surrogates := make(map[int64]int)
	next := 1

	keys := make([]string, 0, len(s.puppeteers))
	for k := range s.puppeteers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := s.puppeteers[k]
		fp := filePuppeteer{Identity: p.Identity, Connected: p.Connected, GridScale: p.GridScale}
		if p.Puppet != 0 {
			sg, ok := surrogates[p.Puppet]
			if !ok {
				sg = next
				next++
				surrogates[p.Puppet] = sg
				name := ""
				if a, ok := game.ActorByID(p.Puppet); ok {
					name = a.Name()
				}
				f.Actors[sg] = fileActor{ID: p.Puppet, Name: name}
			}
			fp.Puppet = sg
		}
		f.Puppeteers = append(f.Puppeteers, fp)
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		s.log.Error("marshal state", zap.Error(err))
		return
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		s.log.Error("save state", zap.String("path", s.path), zap.Error(err))
	}
}

// Load reads the state file into the store. Actor links stay parked as
// surrogates until Reconcile runs; a missing file is an empty store.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state %s: %w", s.path, err)
	}
	var f stateFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse state %s: %w", s.path, err)
	}
	if f.Version != fileVersion {
		return fmt.Errorf("state %s: unsupported version %d", s.path, f.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]int)
	s.loadedActors = f.Actors
	for _, fp := range f.Puppeteers {
		if !fp.Identity.Valid() {
			continue
		}
		p := &Puppeteer{Identity: fp.Identity, Connected: fp.Connected, GridScale: fp.GridScale}
		s.puppeteers[fp.Identity.Key()] = p
		if fp.Puppet != 0 {
			s.pending[fp.Identity.Key()] = fp.Puppet
		}
	}
	return nil
}

// Reconcile resolves loaded surrogate links against the live roster.
// Call once after Load, on the game loop. Links to actors that are gone
// or no longer controllable are dropped with a log line.
func (s *Store) Reconcile(game sim.Game) {
	s.mu.Lock()
	pending, actors := s.pending, s.loadedActors
	s.pending, s.loadedActors = nil, nil
	s.mu.Unlock()

	for key, sg := range pending {
		p := s.Find(viewer.ParseKey(key))
		if p == nil {
			continue
		}
		ref, ok := actors[sg]
		if !ok {
			s.log.Warn("state file references unknown surrogate",
				zap.String("puppeteer", key), zap.Int("surrogate", sg))
			continue
		}
		actor, ok := game.ActorByID(ref.ID)
		if !ok || !actor.CanAct() {
			s.log.Info("dropping link to missing actor",
				zap.String("puppeteer", key),
				zap.Int64("actor", ref.ID),
				zap.String("actorName", ref.Name))
			continue
		}
		s.mu.Lock()
		p.Puppet = ref.ID
		s.byActor[ref.ID] = p
		s.mu.Unlock()
	}
}

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
