package input

import "sync"

// ElementType describes what kind of control an element is.
type ElementType int

const (
	Button ElementType = iota
	Axis
	Hat
)

func (t ElementType) String() string {
	switch t {
	case Button:
		return "button"
	case Axis:
		return "axis"
	case Hat:
		return "hat"
	default:
		return "unknown"
	}
}

// Element describes one addressable control on a device.
type Element struct {
	Code          string
	Name          string
	Type          ElementType
	Min           int32
	Max           int32
	Bidirectional bool
}

// ElementValue is a single pending value change reported by a device.
type ElementValue struct {
	DeviceCode string
	DeviceName string
	Element    Element
	Value      int32
}

// Queue is the device-layer queue of pending element values. Drain returns
// every pending value in arrival order and empties the queue. The Encoder
// keys per-device state by Queue, so implementations must be comparable.
type Queue interface {
	Drain() []ElementValue
}

// MemoryQueue is a Queue filled by device readers.
type MemoryQueue struct {
	mu      sync.Mutex
	pending []ElementValue
	limit   int
}

// NewMemoryQueue creates a queue holding at most limit values; when full the
// oldest value is discarded. A limit of zero means unbounded.
func NewMemoryQueue(limit int) *MemoryQueue {
	return &MemoryQueue{limit: limit}
}

func (q *MemoryQueue) Push(values ...ElementValue) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, values...)
	if q.limit > 0 && len(q.pending) > q.limit {
		q.pending = q.pending[len(q.pending)-q.limit:]
	}
}

func (q *MemoryQueue) Drain() []ElementValue {
	q.mu.Lock()
	defer q.mu.Unlock()

	values := q.pending
	q.pending = nil
	return values
}

// Len returns the number of pending values.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

var _ Queue = (*MemoryQueue)(nil)
