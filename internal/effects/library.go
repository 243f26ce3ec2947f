// Package effects loads sample files into block generators and caches them
// by path. Generators drive microphone injection and sample-based rumble.
package effects

import (
	"fmt"
	"log"
	"sort"
	"sync"
)

// Library caches decoded generators keyed by source path.
type Library struct {
	mu         sync.RWMutex
	generators map[string]*Generator
	decode     func(path string) (*Generator, error)
}

func NewLibrary() *Library {
	return &Library{
		generators: make(map[string]*Generator),
		decode:     Decode,
	}
}

// LoadFromPath returns the cached generator for path, decoding and caching
// it on first use. A failed load caches nothing.
func (l *Library) LoadFromPath(path string) (*Generator, error) {
	if g, ok := l.Get(path); ok {
		return g, nil
	}

	// decode without holding the lock
	g, err := l.decode(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load effect %s: %w", path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.generators[path]; ok {
		return existing, nil
	}
	l.generators[path] = g
	return g, nil
}

// Get returns the cached generator for path.
func (l *Library) Get(path string) (*Generator, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.generators[path]
	return g, ok
}

// Refresh makes the cache hold exactly the paths returned by referenced:
// missing ones are loaded and unreferenced ones evicted. Load failures are
// logged and leave the path uncached.
//
// referenced is called with the cache locked, so a load that races with the
// refresh lands after the eviction and is kept.
func (l *Library) Refresh(referenced func() []string) {
	l.mu.Lock()
	want := make(map[string]bool)
	for _, path := range referenced() {
		if path != "" {
			want[path] = true
		}
	}
	for path := range l.generators {
		if !want[path] {
			delete(l.generators, path)
		}
	}
	l.mu.Unlock()

	for path := range want {
		if _, err := l.LoadFromPath(path); err != nil {
			log.Printf("effect refresh: %v", err)
		}
	}
}

// Paths returns the cached paths in sorted order.
func (l *Library) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	paths := make([]string, 0, len(l.generators))
	for path := range l.generators {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
