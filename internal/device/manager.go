package device

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/larsks/inputbridge/internal/input"
)

// ErrorHandler is told about devices that could not be opened or that
// stopped reading. It must not call back into the manager synchronously.
type ErrorHandler func(identifier string, err error)

// Manager is the registry of live sessions, keyed by handle. Sessions hold
// no reference back to the manager.
type Manager struct {
	encoder      *input.Encoder
	sink         Sink
	registry     *Registry
	forceDigital bool
	onError      ErrorHandler

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	wg       sync.WaitGroup
}

type ManagerOption func(*Manager)

func WithRegistry(r *Registry) ManagerOption {
	return func(m *Manager) { m.registry = r }
}

func WithForceDigital(force bool) ManagerOption {
	return func(m *Manager) { m.forceDigital = force }
}

func WithErrorHandler(h ErrorHandler) ManagerOption {
	return func(m *Manager) { m.onError = h }
}

// NewManager creates a manager whose sessions encode with encoder and
// deliver to sink.
func NewManager(encoder *input.Encoder, sink Sink, opts ...ManagerOption) *Manager {
	m := &Manager{
		encoder:  encoder,
		sink:     sink,
		registry: defaultRegistry,
		sessions: make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) report(identifier string, err error) {
	log.Printf("device %s: %v", identifier, err)
	if m.onError != nil {
		m.onError(identifier, err)
	}
}

// Connect starts a session for dev and returns its handle.
func (m *Manager) Connect(ctx context.Context, dev Device) (uuid.UUID, error) {
	s := NewSession(dev, m.encoder, m.sink, m.forceDigital)
	if err := s.Start(ctx); err != nil {
		return uuid.Nil, err
	}

	handle := uuid.New()
	m.mu.Lock()
	m.sessions[handle] = s
	m.mu.Unlock()

	m.wg.Add(1)
	go m.watch(handle, s)
	return handle, nil
}

// watch removes a session whose reader stopped on its own, for example
// because the device was unplugged.
func (m *Manager) watch(handle uuid.UUID, s *Session) {
	defer m.wg.Done()
	<-s.Done()
	if err := s.Err(); err != nil {
		m.report(s.Device().Identifier(), err)
		if err := m.Disconnect(handle); err != nil && !errors.Is(err, ErrUnknownSession) {
			log.Printf("device %s: %v", s.Device().Identifier(), err)
		}
	}
}

// Open opens and connects every device cfg selects. Failures are reported
// to the error handler and the device is skipped.
func (m *Manager) Open(ctx context.Context, cfg Config) []uuid.UUID {
	devices, err := m.registry.Open(cfg)
	if err != nil {
		m.report(cfg.Spec, fmt.Errorf("failed to open %s device: %w", cfg.Driver, err))
	}

	var handles []uuid.UUID
	for _, dev := range devices {
		handle, err := m.Connect(ctx, dev)
		if err != nil {
			m.report(dev.Identifier(), err)
			if err := dev.Close(); err != nil {
				log.Printf("device %s: failed to close: %v", dev.Identifier(), err)
			}
			continue
		}
		handles = append(handles, handle)
	}
	return handles
}

// Disconnect tears down and forgets the session with the given handle.
func (m *Manager) Disconnect(handle uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[handle]
	delete(m.sessions, handle)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, handle)
	}
	return s.Disconnect()
}

// Close disconnects every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		if err := s.Disconnect(); err != nil {
			log.Printf("device %s: %v", s.Device().Identifier(), err)
		}
	}
	m.wg.Wait()
}

func (m *Manager) Session(handle uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[handle]
	return s, ok
}

// Sessions describes every live session, sorted by identifier.
func (m *Manager) Sessions() []Info {
	m.mu.RLock()
	infos := make([]Info, 0, len(m.sessions))
	for handle, s := range m.sessions {
		dev := s.Device()
		infos = append(infos, Info{
			Handle:       handle.String(),
			Identifier:   dev.Identifier(),
			Code:         dev.Code(),
			Name:         dev.Name(),
			State:        s.State(),
			Capabilities: s.Capabilities(),
			Elements:     elementCodes(dev),
		})
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Identifier < infos[j].Identifier })
	return infos
}

func (m *Manager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// StartForceFeedback starts an effect on every session with force
// feedback.
func (m *Manager) StartForceFeedback(iterations, flags uint32) error {
	var errs []error
	for _, s := range m.snapshot() {
		if err := s.StartForceFeedback(iterations, flags); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StopForceFeedback stops the active effect on every session.
func (m *Manager) StopForceFeedback() error {
	var errs []error
	for _, s := range m.snapshot() {
		if err := s.StopForceFeedback(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
