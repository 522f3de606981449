// Package driver describes the capabilities of the board hardware: the
// sensor grid, one LED per square, two chess clocks and the command panel.
package driver

import (
	"time"

	"github.com/notnil/chess"

	"github.com/qnkhuat/ecb/pkg/board"
)

type ClockID int

const (
	ClockBottom ClockID = iota
	ClockTop
)

func (c ClockID) String() string {
	if c == ClockTop {
		return "top"
	}
	return "bottom"
}

// ClockFor returns the clock in front of a colour. White sits at the bottom.
func ClockFor(c chess.Color) ClockID {
	if c == chess.Black {
		return ClockTop
	}
	return ClockBottom
}

// ColorFor is the inverse of ClockFor.
func ColorFor(id ClockID) chess.Color {
	if id == ClockTop {
		return chess.Black
	}
	return chess.White
}

// Callbacks are invoked from the driver's own goroutines. They must only
// hand the data over and return.
type Callbacks struct {
	SensorsChanged func(changed []chess.Square)
	ClockExpired   func(id ClockID)
	ButtonsPressed func(mask uint8)
}

type Driver interface {
	SetCallbacks(cb Callbacks)

	SensorsStart()
	SensorsStop()
	SensorsRunning() bool
	SensorsGet() board.Map

	LedsOn(squares []chess.Square)
	LedsOff(squares []chess.Square)
	// LedsBlink alternates onoff and offon squares. Calling it with both
	// nil stops blinking and switches the blinking squares off.
	LedsBlink(onoff, offon []chess.Square)

	ClockSet(id ClockID, d time.Duration)
	ClockGet(id ClockID) time.Duration
	ClockStart(id ClockID)
	ClockStop(id ClockID)
	ClockBlank(id ClockID)

	PanelLedOn(mask uint8)
	PanelLedOff(mask uint8)
	PanelLedToggle(mask uint8)
}
