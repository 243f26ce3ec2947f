package device

import (
	"fmt"
	"sort"
	"sync"
)

// Config names a driver and the devices it should open.
type Config struct {
	Driver  string         `mapstructure:"driver" json:"driver"`
	Spec    string         `mapstructure:"spec" json:"spec"`
	Options map[string]any `mapstructure:"options" json:"options,omitempty"`
}

// Factory opens devices for one driver.
type Factory interface {
	// Open returns every device the spec selects. A spec may select none.
	Open(spec string, options map[string]any) ([]Device, error)

	// ValidateSpec checks a spec without touching hardware.
	ValidateSpec(spec string, options map[string]any) error
}

// Registry maps driver names to factories.
type Registry struct {
	drivers map[string]Factory
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Factory),
	}
}

func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDriverExists, name)
	}
	r.drivers[name] = factory
	return nil
}

func (r *Registry) factory(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.drivers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
	return factory, nil
}

// Open opens the devices described by cfg.
func (r *Registry) Open(cfg Config) ([]Device, error) {
	factory, err := r.factory(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return factory.Open(cfg.Spec, cfg.Options)
}

// Validate checks cfg against its driver.
func (r *Registry) Validate(cfg Config) error {
	factory, err := r.factory(cfg.Driver)
	if err != nil {
		return err
	}
	return factory.ValidateSpec(cfg.Spec, cfg.Options)
}

// Drivers returns the registered driver names in sorted order.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry drivers add themselves to at init.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func Register(name string, factory Factory) error {
	return defaultRegistry.Register(name, factory)
}

// MustRegister adds a factory to the default registry and panics on error.
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(fmt.Sprintf("failed to register device driver %s: %v", name, err))
	}
}

func Open(cfg Config) ([]Device, error) {
	return defaultRegistry.Open(cfg)
}

func Validate(cfg Config) error {
	return defaultRegistry.Validate(cfg)
}

func Drivers() []string {
	return defaultRegistry.Drivers()
}
