// Package dispatch resolves encoded input events to command invocations and
// runs them against a target.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/larsks/inputbridge/internal/command"
	"github.com/larsks/inputbridge/internal/effects"
	"github.com/larsks/inputbridge/internal/input"
	"github.com/larsks/inputbridge/internal/mapping"
)

const asyncQueueSize = 64

type asyncCall struct {
	fn  command.Func
	inv command.Invocation
}

// Engine is the public surface of the input pipeline. Dispatch never
// returns an error and never panics: failing operations are logged and
// treated as no-ops.
type Engine struct {
	store   *mapping.Store
	library *effects.Library
	target  command.Target

	asyncOnce sync.Once
	asyncMu   sync.Mutex
	async     chan asyncCall
	closed    bool
	pending   sync.WaitGroup
	worker    sync.WaitGroup
}

func New(store *mapping.Store, library *effects.Library, target command.Target) *Engine {
	return &Engine{
		store:   store,
		library: library,
		target:  target,
		async:   make(chan asyncCall, asyncQueueSize),
	}
}

func (e *Engine) Store() *mapping.Store {
	return e.store
}

func (e *Engine) Library() *effects.Library {
	return e.library
}

// SetMapping binds key to b. When b names a sample it is loaded so that the
// first press finds it cached; a load failure leaves the binding silent.
func (e *Engine) SetMapping(key string, b command.Binding) {
	e.store.AddMapping(key, b)
	if b.AudioPath != "" {
		if _, err := e.LoadEffectFile(b.AudioPath); err != nil {
			log.Printf("mapping %s: %v", key, err)
		}
	}
}

func (e *Engine) RemoveMapping(key string) {
	e.store.RemoveMapping(key)
}

func (e *Engine) RemoveAllMappingsForTag(tag string) {
	e.store.RemoveAllMappingsForTag(tag)
}

// GenerateCommandList resolves events in arrival order, skipping those
// with no mapping. Several events resolving to the same tag coalesce into
// one invocation, placed where the tag first appeared and carrying the
// state of the last event.
func (e *Engine) GenerateCommandList(events []input.Event) []command.Invocation {
	var (
		out   []command.Invocation
		index = make(map[string]int)
	)

	for _, ev := range events {
		b, ok := e.store.Lookup(ev.Key())
		if !ok {
			continue
		}
		inv := e.invocation(b, ev)
		if i, seen := index[b.Tag]; seen {
			out[i] = inv
			continue
		}
		index[b.Tag] = len(out)
		out = append(out, inv)
	}
	return out
}

func (e *Engine) invocation(b command.Binding, ev input.Event) command.Invocation {
	inv := command.Invocation{
		Binding: b,
		Pressed: ev.Pressed,
		Value:   ev.Value,
		X:       ev.X,
		Y:       ev.Y,
	}
	if ev.Kind == input.Analog && !b.Flags.AllowAnalog {
		inv.Value = 0
		if ev.Pressed {
			inv.Value = 1
		}
	}
	if b.AudioPath != "" && e.library != nil {
		inv.Generator, _ = e.library.Get(b.AudioPath)
	}
	return inv
}

// TagFor returns the tag of the first event in events that has a mapping.
func (e *Engine) TagFor(events []input.Event) (string, bool) {
	for _, ev := range events {
		if b, ok := e.store.Lookup(ev.Key()); ok {
			return b.Tag, true
		}
	}
	return "", false
}

// Dispatch runs each invocation in order. Operations that may block are
// handed to a background worker that preserves their relative order; once
// one has been handed off, the rest of the list follows it onto the worker.
func (e *Engine) Dispatch(invocations []command.Invocation) {
	deferred := false
	for _, inv := range invocations {
		fn, mode, err := command.Lookup(inv.Binding.Operation)
		if err != nil {
			log.Printf("command %q: %v", inv.Tag(), err)
			continue
		}
		if mode == command.Async || deferred {
			deferred = true
			e.enqueue(asyncCall{fn: fn, inv: inv})
			continue
		}
		e.call(fn, inv)
	}
}

// DispatchSingle resolves and runs one event.
func (e *Engine) DispatchSingle(ev input.Event) {
	e.Dispatch(e.GenerateCommandList([]input.Event{ev}))
}

func (e *Engine) call(fn command.Func, inv command.Invocation) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("command %q panicked: %v", inv.Tag(), r)
		}
	}()
	if err := fn(inv.Binding, inv, e.target); err != nil {
		log.Printf("command %q: %v", inv.Tag(), err)
	}
}

func (e *Engine) enqueue(c asyncCall) {
	e.asyncOnce.Do(func() {
		e.worker.Add(1)
		go e.asyncWorker()
	})

	e.asyncMu.Lock()
	defer e.asyncMu.Unlock()
	if e.closed {
		return
	}

	e.pending.Add(1)
	select {
	case e.async <- c:
	default:
		e.pending.Done()
		log.Printf("command %q: async queue full, dropping invocation", c.inv.Tag())
	}
}

func (e *Engine) asyncWorker() {
	defer e.worker.Done()
	for c := range e.async {
		e.call(c.fn, c.inv)
		e.pending.Done()
	}
}

// LoadEffectFile loads and caches the sample at path.
func (e *Engine) LoadEffectFile(path string) (*effects.Generator, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: no effect library", effects.ErrNotLoaded)
	}
	return e.library.LoadFromPath(path)
}

// RefreshEffects makes the effect cache match the samples that mappings
// currently reference.
func (e *Engine) RefreshEffects() {
	if e.library != nil {
		e.library.Refresh(e.store.ReferencedPaths)
	}
}

// Run dispatches batches from q until ctx is done or q is closed.
func (e *Engine) Run(ctx context.Context, q *BatchQueue) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-q.C():
			if !ok {
				return
			}
			e.Dispatch(e.GenerateCommandList(batch))
		}
	}
}

// Wait blocks until every queued async invocation has run.
func (e *Engine) Wait() {
	e.pending.Wait()
}

// Close stops the async worker after it drains its queue.
func (e *Engine) Close() {
	e.asyncMu.Lock()
	if !e.closed {
		e.closed = true
		close(e.async)
	}
	e.asyncMu.Unlock()
	e.worker.Wait()
}
