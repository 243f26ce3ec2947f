// Package bridge assembles the input bridge daemon: device sessions feed a
// bounded batch queue, the dispatch engine drains it into the emulated
// controller, and the REST API and MQTT expose both.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/larsks/inputbridge/internal/api"
	"github.com/larsks/inputbridge/internal/cli"
	"github.com/larsks/inputbridge/internal/command"
	"github.com/larsks/inputbridge/internal/controller"
	"github.com/larsks/inputbridge/internal/device"
	_ "github.com/larsks/inputbridge/internal/device/evdev"
	_ "github.com/larsks/inputbridge/internal/device/gpio"
	"github.com/larsks/inputbridge/internal/dispatch"
	"github.com/larsks/inputbridge/internal/effects"
	"github.com/larsks/inputbridge/internal/httpserver"
	"github.com/larsks/inputbridge/internal/input"
	"github.com/larsks/inputbridge/internal/mapping"
	"github.com/larsks/inputbridge/internal/mqtt"
)

// InputTopic receives JSON input events to dispatch.
const InputTopic = "input"

// Daemon owns every long-lived component of the bridge.
type Daemon struct {
	cfg *Config

	store   *mapping.Store
	queue   *dispatch.BatchQueue
	engine  *dispatch.Engine
	target  *controller.Target
	manager *device.Manager
	mqtt    *mqtt.Client
	api     *api.Server
}

type Option func(*daemonOptions)

type daemonOptions struct {
	registry  *device.Registry
	publisher controller.Publisher
}

// WithRegistry opens devices through r instead of the default registry.
func WithRegistry(r *device.Registry) Option {
	return func(o *daemonOptions) { o.registry = r }
}

// WithPublisher publishes controller state through p instead of MQTT.
func WithPublisher(p controller.Publisher) Option {
	return func(o *daemonOptions) { o.publisher = p }
}

// New builds the daemon and loads the mapping file. Nothing is opened or
// served until Run.
func New(cfg *Config, opts ...Option) (*Daemon, error) {
	var o daemonOptions
	for _, opt := range opts {
		opt(&o)
	}

	d := &Daemon{
		cfg:   cfg,
		store: mapping.NewStore(command.DefaultCatalog()),
		queue: dispatch.NewBatchQueue(cfg.QueueSize),
	}

	if cfg.MappingFile != "" {
		if err := d.store.Load(cfg.MappingFile); err != nil {
			return nil, err
		}
	}

	publisher := o.publisher
	if publisher == nil && cfg.MQTT.ServerURL != "" {
		client, err := mqtt.NewClient(mqtt.Config{
			ServerURL:   cfg.MQTT.ServerURL,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MQTT client: %w", err)
		}
		d.mqtt = client
		publisher = client
	}

	managerOpts := []device.ManagerOption{device.WithForceDigital(cfg.ForceDigital)}
	if o.registry != nil {
		managerOpts = append(managerOpts, device.WithRegistry(o.registry))
	}
	d.manager = device.NewManager(input.NewEncoder(cfg.AxisThreshold), d.queue.Push, managerOpts...)

	targetOpts := []controller.Option{controller.WithForceFeedback(d.manager)}
	if publisher != nil {
		targetOpts = append(targetOpts, controller.WithPublisher(publisher))
	}
	target, err := controller.New(cfg.Turbo.Period, targetOpts...)
	if err != nil {
		return nil, err
	}
	d.target = target

	d.engine = dispatch.New(d.store, effects.NewLibrary(), target)
	d.preloadEffects()

	d.api = api.NewServer(d.engine,
		api.WithDevices(d.manager),
		api.WithStateSource(target),
		api.WithMappingFile(cfg.MappingFile),
		api.WithEffectsDir(cfg.EffectsDir),
		api.WithRequestLogging(cfg.LogRequests),
	)
	return d, nil
}

func (d *Daemon) Engine() *dispatch.Engine       { return d.engine }
func (d *Daemon) Controller() *controller.Target { return d.target }
func (d *Daemon) Manager() *device.Manager       { return d.manager }
func (d *Daemon) API() *api.Server               { return d.api }

// preloadEffects loads every sample the mappings reference.
func (d *Daemon) preloadEffects() {
	for _, path := range d.store.ReferencedPaths() {
		if _, err := d.engine.LoadEffectFile(path); err != nil {
			log.Printf("failed to preload effect: %v", err)
		}
	}
}

func (d *Daemon) reloadMappings(records []mapping.Record) {
	n := d.store.LoadRecords(records)
	d.preloadEffects()
	d.engine.RefreshEffects()
	log.Printf("reloaded %d mappings from %s", n, d.cfg.MappingFile)
}

// handleInput dispatches a JSON input event received over MQTT.
func (d *Daemon) handleInput(topic string, payload []byte) {
	ev, err := decodeInput(payload)
	if err != nil {
		log.Printf("ignoring message on %s: %v", topic, err)
		return
	}
	d.engine.DispatchSingle(ev)
}

func decodeInput(payload []byte) (input.Event, error) {
	var ev input.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrInvalidInputJSON, err)
	}
	if ev.DeviceCode == "" || ev.ElementCode == "" {
		return ev, fmt.Errorf("%w: deviceCode and elementCode are required", ErrInvalidInputJSON)
	}
	return ev, nil
}

// Start opens the configured devices, starts the dispatch loop and the
// mapping watcher, and subscribes to MQTT input. It returns a function that
// shuts everything down in order.
func (d *Daemon) Start(ctx context.Context) (stop func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.engine.Run(context.Background(), d.queue)
	}()

	for _, dc := range d.cfg.Devices {
		handles := d.manager.Open(ctx, dc)
		log.Printf("opened %d %s device(s) for %s", len(handles), dc.Driver, dc.Spec)
	}

	if d.cfg.WatchMappings && d.cfg.MappingFile != "" {
		if _, err := os.Stat(d.cfg.MappingFile); err == nil {
			if err := mapping.Watch(d.cfg.MappingFile, d.reloadMappings); err != nil {
				log.Printf("not watching mappings: %v", err)
			}
		} else {
			log.Printf("not watching %s: file does not exist", d.cfg.MappingFile)
		}
	}

	if d.mqtt != nil {
		if err := d.mqtt.Subscribe(d.mqtt.Topic(InputTopic), d.handleInput); err != nil {
			log.Printf("failed to subscribe to input topic: %v", err)
		}
	}

	return func() {
		// Sessions stop delivering before the queue closes, so every
		// accepted batch is dispatched.
		d.manager.Close()
		d.queue.Close()
		wg.Wait()
		d.engine.Close()
		d.target.Close()
		if d.mqtt != nil {
			d.mqtt.Disconnect(250)
		}
		if dropped := d.queue.Dropped(); dropped > 0 {
			log.Printf("dropped %d input batches", dropped)
		}
	}
}

// Run starts the daemon and serves the API until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	stop := d.Start(ctx)
	defer stop()

	err := httpserver.RunFromConfig(ctx, d.cfg, d.api.Handler())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Handler runs the daemon for cli.StandardMain.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) Start(ctx context.Context, c cli.Configurable) error {
	cfg, ok := c.(*Config)
	if !ok {
		return fmt.Errorf("invalid config type %T", c)
	}

	d, err := New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	return d.Run(ctx)
}
