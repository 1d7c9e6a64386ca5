package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// SyncThreshold is the largest drift, in seconds, left uncorrected.
	SyncThreshold = 2.0
	// HeartbeatInterval is how often a playing client reports its position.
	HeartbeatInterval = time.Second
	// LocalActionLease is how long inbound corrections are ignored after a local seek.
	LocalActionLease = time.Second
)

var ErrPlayerPanic = errors.New("player panicked")

type Config struct {
	Threshold         float64
	HeartbeatInterval time.Duration
	LeaseDuration     time.Duration
	Clock             clock.Clock
}

// Reconciler keeps one local player aligned with the room. Inbound events
// are corrections, applied only when drift exceeds the threshold; local
// player actions are forwarded to the Emitter.
type Reconciler struct {
	player    Player
	emitter   Emitter
	logger    *slog.Logger
	clock     clock.Clock
	threshold float64
	heartbeat time.Duration
	lease     *Lease

	mu          sync.Mutex
	ready       bool
	isPlaying   bool
	pending     PlayerState
	pendingTill time.Time
}

func New(player Player, emitter Emitter, logger *slog.Logger, cfg *Config) *Reconciler {
	if cfg == nil {
		cfg = &Config{}
	}

	r := &Reconciler{
		player:    player,
		emitter:   emitter,
		logger:    logger,
		clock:     cfg.Clock,
		threshold: cfg.Threshold,
		heartbeat: cfg.HeartbeatInterval,
	}
	if r.clock == nil {
		r.clock = clock.New()
	}
	if r.threshold <= 0 {
		r.threshold = SyncThreshold
	}
	if r.heartbeat <= 0 {
		r.heartbeat = HeartbeatInterval
	}
	leaseDuration := cfg.LeaseDuration
	if leaseDuration <= 0 {
		leaseDuration = LocalActionLease
	}
	r.lease = NewLease(r.clock, leaseDuration)

	player.OnReady(r.HandleReady)
	player.OnStateChange(r.HandleStateChange)

	return r
}

func (r *Reconciler) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ready
}

func (r *Reconciler) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.isPlaying
}

// HandleReady enables synchronization and pulls the room's current state.
func (r *Reconciler) HandleReady() {
	r.mu.Lock()
	if r.ready {
		r.mu.Unlock()
		return
	}
	r.ready = true
	r.mu.Unlock()

	r.logger.Debug("player ready")
	if err := r.emitter.RequestSync(); err != nil {
		r.logger.Warn("failed to request sync", "error", err)
	}
}

// HandleStateChange reacts to the player. Changes caused by an applied
// correction are absorbed, as are changes that leave the playing flag where
// it was (buffering recovery). Everything else is a local action and is emitted.
func (r *Reconciler) HandleStateChange(state PlayerState) {
	r.mu.Lock()
	if !r.ready {
		r.mu.Unlock()
		return
	}

	eff := transitions[state]
	if eff != effectNone && r.pendingTill.After(r.clock.Now()) {
		expected := r.pending
		r.pendingTill = time.Time{}
		if expected == state {
			r.isPlaying = state == StatePlaying
			r.mu.Unlock()
			return
		}
	}

	wasPlaying := r.isPlaying
	switch eff {
	case effectPlay:
		r.isPlaying = true
	case effectPause, effectStop:
		r.isPlaying = false
	}
	r.mu.Unlock()

	if (eff == effectPlay && wasPlaying) || (eff == effectPause && !wasPlaying) {
		return
	}

	switch eff {
	case effectPlay:
		r.emitPosition("play", r.emitter.Play)
	case effectPause:
		r.emitPosition("pause", r.emitter.Pause)
	}
}

// HandleLocalSeek forwards a user seek and ignores corrections for the lease duration.
func (r *Reconciler) HandleLocalSeek(position float64) {
	if !r.Ready() {
		return
	}

	r.lease.Acquire()
	if err := r.emitter.Seek(position); err != nil {
		// the room never saw the seek, so corrections apply again
		r.lease.Release()
		r.logger.Warn("failed to emit seek", "error", err)
	}
}


func (r *Reconciler) OnRemotePlay(position float64) {
	r.apply("play", position, true, true)
}

func (r *Reconciler) OnRemotePause(position float64) {
	r.apply("pause", position, true, false)
}

func (r *Reconciler) OnRemoteSeek(position float64) {
	r.apply("seek", position, false, false)
}

func (r *Reconciler) OnSyncState(position float64, isPlaying bool) {
	r.apply("sync_state", position, true, isPlaying)
}

func (r *Reconciler) apply(event string, target float64, setPlaying, playing bool) {
	if !r.Ready() {
		r.logger.Debug("player not ready, dropping correction", "event", event)
		return
	}
	if r.lease.Held() {
		r.logger.Debug("local action in progress, dropping correction", "event", event)
		return
	}

	local, err := r.currentTime()
	if err != nil {
		r.logger.Warn("failed to read player time", "event", event, "error", err)
		return
	}

	if math.Abs(local-target) > r.threshold {
		// the player may report buffering and then its current state again
		r.mu.Lock()
		r.pending = StatePaused
		if r.isPlaying {
			r.pending = StatePlaying
		}
		r.pendingTill = r.clock.Now().Add(r.lease.duration)
		r.mu.Unlock()

		if err := r.call(func() error { return r.player.SeekTo(target) }); err != nil {
			r.mu.Lock()
			r.pendingTill = time.Time{}
			r.mu.Unlock()
			r.logger.Warn("failed to seek player", "event", event, "error", err)
			return
		}
	}

	if !setPlaying {
		return
	}

	r.mu.Lock()
	if r.isPlaying == playing {
		r.mu.Unlock()
		return
	}
	expected, action := StatePaused, r.player.Pause
	if playing {
		expected, action = StatePlaying, r.player.Play
	}
	r.pending = expected
	r.pendingTill = r.clock.Now().Add(r.lease.duration)
	r.mu.Unlock()

	if err := r.call(action); err != nil {
		r.mu.Lock()
		r.pendingTill = time.Time{}
		r.mu.Unlock()
		r.logger.Warn("failed to apply playback", "event", event, "error", err)
		return
	}

	r.mu.Lock()
	r.isPlaying = playing
	r.mu.Unlock()
}

// Heartbeat reports the local position while ready and playing.
func (r *Reconciler) Heartbeat() {
	r.mu.Lock()
	active := r.ready && r.isPlaying
	r.mu.Unlock()
	if !active {
		return
	}

	r.emitPosition("sync_time", r.emitter.SyncTime)
}

// Run sends heartbeats until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := r.clock.Ticker(r.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Heartbeat()
		}
	}
}

func (r *Reconciler) emitPosition(event string, emit func(float64) error) {
	position, err := r.currentTime()
	if err != nil {
		r.logger.Warn("failed to read player time", "event", event, "error", err)
		return
	}

	if err := emit(position); err != nil {
		r.logger.Warn("failed to emit", "event", event, "error", err)
	}
}

// call runs a player operation, turning a panic into an error.
func (r *Reconciler) call(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrPlayerPanic, rec)
		}
	}()

	return fn()
}

func (r *Reconciler) currentTime() (float64, error) {
	var position float64
	err := r.call(func() error {
		var err error
		position, err = r.player.CurrentTime()
		return err
	})

	return position, err
}
