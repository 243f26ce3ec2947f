package controller

import (
	"sync"
	"time"
)

// oscillator flips a phase at a fixed period while running and calls tick
// with the new phase. Turbo buttons read as pressed while the phase is on.
type oscillator struct {
	period time.Duration
	tick   func(phase bool)

	mutex   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func newOscillator(period time.Duration, tick func(bool)) (*oscillator, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	return &oscillator{period: period, tick: tick}, nil
}

// Start begins oscillating. The phase starts on so that a turbo press is
// seen immediately.
func (o *oscillator) Start() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.running {
		return ErrAlreadyRunning
	}
	o.running = true
	o.stopCh = make(chan struct{})
	o.doneCh = make(chan struct{})
	go o.loop(o.stopCh, o.doneCh)
	return nil
}

// Stop halts the oscillator and waits for its goroutine to exit.
func (o *oscillator) Stop() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if !o.running {
		return ErrNotRunning
	}
	close(o.stopCh)
	<-o.doneCh
	o.running = false
	return nil
}

func (o *oscillator) IsRunning() bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.running
}

func (o *oscillator) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(o.period)
	defer ticker.Stop()

	phase := true
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			phase = !phase
			o.tick(phase)
		}
	}
}
