package domain

import "time"

// PlaybackState is the room's shared timeline. The three fields change together.
type PlaybackState struct {
	Position   float64   `json:"currentTime"`
	IsPlaying  bool      `json:"isPlaying"`
	LastUpdate time.Time `json:"-"`
}

// ProjectedPosition is where playback is expected to be at now.
// A paused timeline does not move. If now is before LastUpdate (the clock
// stepped back) elapsed time counts as zero, so the position never rewinds.
func (p PlaybackState) ProjectedPosition(now time.Time) float64 {
	if !p.IsPlaying {
		return p.Position
	}

	elapsed := now.Sub(p.LastUpdate).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	return p.Position + elapsed
}

// Projected returns a copy of p advanced to now.
func (p PlaybackState) Projected(now time.Time) PlaybackState {
	return PlaybackState{
		Position:   p.ProjectedPosition(now),
		IsPlaying:  p.IsPlaying,
		LastUpdate: now,
	}
}
