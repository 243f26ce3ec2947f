package device

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/larsks/inputbridge/internal/input"
)

type State int

const (
	Idle State = iota
	Reading
	TearingDown
	Destroyed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	case TearingDown:
		return "tearing-down"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, Reading, TearingDown, Destroyed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state: %s", text)
}

const ffQueueSize = 8

type ffRequest struct {
	start      bool
	iterations uint32
	flags      uint32
}

// Session reads one device. Events are delivered only while the session is
// Reading; once Disconnect has begun no further batch reaches the sink.
type Session struct {
	dev          Device
	encoder      *input.Encoder
	sink         Sink
	forceDigital bool
	caps         Capabilities

	mu    sync.Mutex
	state State

	cancel     context.CancelFunc
	readerDone chan struct{}
	readerErr  error

	ffRequests chan ffRequest
	ffDone     chan struct{}
}

// NewSession creates an idle session for dev and probes its capabilities.
func NewSession(dev Device, encoder *input.Encoder, sink Sink, forceDigital bool) *Session {
	return &Session{
		dev:          dev,
		encoder:      encoder,
		sink:         sink,
		forceDigital: forceDigital,
		caps:         Capabilities{ForceFeedback: dev.Actuator() != nil},
		readerDone:   make(chan struct{}),
		ffDone:       make(chan struct{}),
	}
}

func (s *Session) Device() Device {
	return s.dev
}

func (s *Session) Capabilities() Capabilities {
	return s.caps
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the reader goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.readerDone
}

// Err returns the error that stopped the reader, if any.
func (s *Session) Err() error {
	<-s.readerDone
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readerErr
}

// Start moves the session from Idle to Reading and starts its reader and
// force-feedback worker.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return fmt.Errorf("%w: start requires idle, session is %s", ErrSessionState, s.state)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.state = Reading

	// values queued before the session started are stale
	input.ClearQueue(s.dev.Queue())

	if s.caps.ForceFeedback {
		s.ffRequests = make(chan ffRequest, ffQueueSize)
		go s.forceFeedbackWorker(s.dev.Actuator())
	} else {
		close(s.ffDone)
	}
	go s.read(ctx)

	log.Printf("reading device %s (%s)", s.dev.Identifier(), s.dev.Name())
	return nil
}

func (s *Session) read(ctx context.Context) {
	defer close(s.readerDone)

	for {
		if err := s.dev.Poll(ctx); err != nil {
			if ctx.Err() == nil {
				log.Printf("device %s: poll failed: %v", s.dev.Identifier(), err)
				s.mu.Lock()
				s.readerErr = err
				s.mu.Unlock()
			}
			return
		}

		batch := s.encoder.EncodeDeviceQueue(s.dev.Queue(), s.forceDigital)
		if len(batch) == 0 {
			continue
		}
		s.deliver(batch)
	}
}

func (s *Session) deliver(batch []input.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Reading {
		return
	}
	s.sink(batch)
}

// StartForceFeedback queues a request to start, or replace, the active
// effect. It is a no-op for devices without force feedback.
func (s *Session) StartForceFeedback(iterations, flags uint32) error {
	return s.requestForceFeedback(ffRequest{start: true, iterations: iterations, flags: flags})
}

// StopForceFeedback queues a request to stop the active effect.
func (s *Session) StopForceFeedback() error {
	return s.requestForceFeedback(ffRequest{})
}

func (s *Session) requestForceFeedback(req ffRequest) error {
	if !s.caps.ForceFeedback {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Reading {
		return fmt.Errorf("%w: force feedback requires reading, session is %s", ErrSessionState, s.state)
	}

	select {
	case s.ffRequests <- req:
	default:
		log.Printf("device %s: force feedback queue full, dropping request", s.dev.Identifier())
	}
	return nil
}

// forceFeedbackWorker owns the active effect. When the request channel is
// closed it stops and releases whatever is still playing.
func (s *Session) forceFeedbackWorker(act Actuator) {
	defer close(s.ffDone)

	var (
		active EffectID
		have   bool
	)
	release := func() {
		if !have {
			return
		}
		if err := act.Stop(active); err != nil {
			log.Printf("device %s: failed to stop effect %d: %v", s.dev.Identifier(), active, err)
		}
		if err := act.Release(active); err != nil {
			log.Printf("device %s: failed to release effect %d: %v", s.dev.Identifier(), active, err)
		}
		have = false
	}

	for req := range s.ffRequests {
		release()
		if !req.start {
			continue
		}
		id, err := act.Start(req.iterations, req.flags)
		if err != nil {
			log.Printf("device %s: failed to start effect: %v", s.dev.Identifier(), err)
			continue
		}
		active, have = id, true
	}
	release()
}

// Disconnect tears the session down: delivery stops first, then the reader
// exits, then any active effect is stopped and released, and finally the
// device is closed.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.state != Reading && s.state != Idle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: disconnect from %s", ErrSessionState, state)
	}
	started := s.state == Reading
	s.state = TearingDown
	if started {
		s.cancel()
		if s.ffRequests != nil {
			close(s.ffRequests)
		}
	}
	s.mu.Unlock()

	if started {
		<-s.readerDone
		<-s.ffDone
	} else {
		close(s.readerDone)
	}

	err := s.dev.Close()
	s.encoder.Forget(s.dev.Queue())

	s.mu.Lock()
	s.state = Destroyed
	s.mu.Unlock()

	log.Printf("disconnected device %s", s.dev.Identifier())
	return err
}

// Info describes a session for listings.
type Info struct {
	Handle       string       `json:"handle"`
	Identifier   string       `json:"identifier"`
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	State        State        `json:"state"`
	Capabilities Capabilities `json:"capabilities"`
	Elements     []string     `json:"elements,omitempty"`
}

// elementCodes lists the element codes of dev, if it can enumerate them.
func elementCodes(dev Device) []string {
	lister, ok := dev.(ElementLister)
	if !ok {
		return nil
	}
	elements := lister.Elements()
	codes := make([]string, len(elements))
	for i, el := range elements {
		codes[i] = el.Code
	}
	return codes
}
