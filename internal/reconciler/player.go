package reconciler

// Player is what the reconciler needs from an embedded video player.
// Implementations report state changes and readiness through the registered callbacks.
type Player interface {
	Play() error
	Pause() error
	SeekTo(seconds float64) error
	CurrentTime() (float64, error)
	OnStateChange(func(PlayerState))
	OnReady(func())
}

// Emitter sends local actions to the room.
type Emitter interface {
	Play(position float64) error
	Pause(position float64) error
	Seek(position float64) error
	SyncTime(position float64) error
	RequestSync() error
}
