// Package mapping holds the tables that resolve physical inputs to command
// bindings, and the flat record used to persist them.
package mapping

import (
	"sort"
	"sync"

	"github.com/larsks/inputbridge/internal/command"
)

// Entry is one physical-table row.
type Entry struct {
	Key     string          `json:"key"`
	Binding command.Binding `json:"binding"`
}

// Store maps physical keys ("<deviceCode>:<elementCode>") to bindings and
// command tags to their default binding. All methods are safe for
// concurrent use; none performs I/O while holding the lock.
type Store struct {
	mu       sync.RWMutex
	physical map[string]command.Binding
	catalog  map[string]command.Binding
}

// NewStore creates a store whose default catalog holds the given bindings.
func NewStore(catalog []command.Binding) *Store {
	s := &Store{
		physical: make(map[string]command.Binding),
		catalog:  make(map[string]command.Binding, len(catalog)),
	}
	for _, b := range catalog {
		s.catalog[b.Tag] = b
	}
	return s
}

// AddMapping binds key to b, replacing any existing binding.
func (s *Store) AddMapping(key string, b command.Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.physical[key] = b
}

// RemoveMapping deletes the binding for key if there is one.
func (s *Store) RemoveMapping(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.physical, key)
}

// RemoveAllMappingsForTag deletes every binding whose tag is tag.
func (s *Store) RemoveAllMappingsForTag(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, b := range s.physical {
		if b.Tag == tag {
			delete(s.physical, key)
		}
	}
}

// Lookup returns the binding for key.
func (s *Store) Lookup(key string) (command.Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.physical[key]
	return b, ok
}

// DefaultFor returns the catalog binding for tag, or a no-op binding when the
// catalog has none.
func (s *Store) DefaultFor(tag string) command.Binding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.catalog[tag]; ok {
		return b
	}
	return command.NoOp(tag)
}

// SetDefault registers or replaces the catalog entry for b.Tag.
func (s *Store) SetDefault(b command.Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[b.Tag] = b
}

// Replace swaps the whole physical table for the given entries.
func (s *Store) Replace(entries []Entry) {
	physical := make(map[string]command.Binding, len(entries))
	for _, e := range entries {
		physical[e.Key] = e.Binding
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.physical = physical
}

// Mappings returns a snapshot of the physical table sorted by key.
func (s *Store) Mappings() []Entry {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.physical))
	for key, b := range s.physical {
		entries = append(entries, Entry{Key: key, Binding: b})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// KeysForTag returns the sorted keys bound to tag.
func (s *Store) KeysForTag(tag string) []string {
	s.mu.RLock()
	var keys []string
	for key, b := range s.physical {
		if b.Tag == tag {
			keys = append(keys, key)
		}
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Catalog returns the default bindings sorted by tag.
func (s *Store) Catalog() []command.Binding {
	s.mu.RLock()
	catalog := make([]command.Binding, 0, len(s.catalog))
	for _, b := range s.catalog {
		catalog = append(catalog, b)
	}
	s.mu.RUnlock()

	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Tag < catalog[j].Tag })
	return catalog
}

// ReferencedPaths returns the distinct sample paths named by mapped
// bindings, sorted.
func (s *Store) ReferencedPaths() []string {
	s.mu.RLock()
	seen := make(map[string]bool)
	for _, b := range s.physical {
		if b.AudioPath != "" {
			seen[b.AudioPath] = true
		}
	}
	s.mu.RUnlock()

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
