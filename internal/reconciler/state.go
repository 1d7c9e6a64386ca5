package reconciler

import "fmt"

// PlayerState is the closed set of states an embedded player reports.
type PlayerState int

const (
	StateUnstarted PlayerState = iota
	StateEnded
	StatePlaying
	StatePaused
	StateBuffering
	StateCued
)

func (s PlayerState) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	}

	return fmt.Sprintf("PlayerState(%d)", int(s))
}

type effect int

const (
	// keep local playing flag, emit nothing
	effectNone effect = iota
	// local playing, broadcast play
	effectPlay
	// local paused, broadcast pause
	effectPause
	// local not playing, emit nothing
	effectStop
)

var transitions = map[PlayerState]effect{
	StateUnstarted: effectNone,
	StateBuffering: effectNone,
	StatePlaying:   effectPlay,
	StatePaused:    effectPause,
	StateEnded:     effectStop,
	StateCued:      effectStop,
}
