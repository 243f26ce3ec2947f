package dispatch

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/larsks/inputbridge/internal/input"
)

// BatchQueue carries encoded batches from device sessions to the engine.
// It is bounded; when full the oldest batch is discarded, since a newer
// batch supersedes stale key states.
type BatchQueue struct {
	mu      sync.Mutex
	ch      chan []input.Event
	closed  bool
	dropped atomic.Uint64
}

func NewBatchQueue(size int) *BatchQueue {
	if size < 1 {
		size = 1
	}
	return &BatchQueue{ch: make(chan []input.Event, size)}
}

// Push enqueues batch without blocking. It is safe to use as a
// device.Sink.
func (q *BatchQueue) Push(batch []input.Event) {
	if len(batch) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	for {
		select {
		case q.ch <- batch:
			return
		default:
		}
		select {
		case <-q.ch:
			if n := q.dropped.Add(1); n == 1 || n%100 == 0 {
				log.Printf("batch queue full, dropped %d batches so far", n)
			}
		default:
		}
	}
}

// C delivers batches in the order they were pushed.
func (q *BatchQueue) C() <-chan []input.Event {
	return q.ch
}

func (q *BatchQueue) Len() int {
	return len(q.ch)
}

// Dropped counts batches discarded because the queue was full.
func (q *BatchQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// Close stops accepting batches. Pending batches can still be received.
func (q *BatchQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
