package reconciler

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// VirtualPlayer is a headless player whose position advances with its clock.
// It reports state changes synchronously from Play and Pause.
type VirtualPlayer struct {
	clock clock.Clock

	mu             sync.Mutex
	position       float64
	since          time.Time
	state          PlayerState
	ready          bool
	stateListeners []func(PlayerState)
	readyListeners []func()
}

func NewVirtualPlayer(c clock.Clock) *VirtualPlayer {
	if c == nil {
		c = clock.New()
	}

	return &VirtualPlayer{clock: c, state: StateUnstarted}
}

func (p *VirtualPlayer) OnStateChange(fn func(PlayerState)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stateListeners = append(p.stateListeners, fn)
}

func (p *VirtualPlayer) OnReady(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readyListeners = append(p.readyListeners, fn)
}

// Load marks the player ready and notifies listeners once.
func (p *VirtualPlayer) Load() {
	p.mu.Lock()
	if p.ready {
		p.mu.Unlock()
		return
	}
	p.ready = true
	p.state = StateCued
	listeners := append([]func(){}, p.readyListeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (p *VirtualPlayer) Play() error {
	return p.setState(StatePlaying)
}

func (p *VirtualPlayer) Pause() error {
	return p.setState(StatePaused)
}

func (p *VirtualPlayer) SeekTo(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.position = seconds
	p.since = p.clock.Now()

	return nil
}

func (p *VirtualPlayer) CurrentTime() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.currentTime(), nil
}

func (p *VirtualPlayer) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

func (p *VirtualPlayer) currentTime() float64 {
	if p.state != StatePlaying {
		return p.position
	}

	return p.position + p.clock.Since(p.since).Seconds()
}

func (p *VirtualPlayer) setState(state PlayerState) error {
	p.mu.Lock()
	if p.state == state {
		p.mu.Unlock()
		return nil
	}
	p.position = p.currentTime()
	p.since = p.clock.Now()
	p.state = state
	listeners := append([]func(PlayerState){}, p.stateListeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}

	return nil
}
