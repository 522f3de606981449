package controller

import (
	"time"

	"github.com/notnil/chess"

	"github.com/qnkhuat/ecb/pkg/driver"
	"github.com/qnkhuat/ecb/pkg/event"
)

// stateData is the transient data of the active state. It is created when
// the state is entered and exit releases its timers and LEDs when it is
// left.
type stateData interface {
	exit(c *Controller)
}

type noData struct{}

func (noData) exit(*Controller) {}

type startingData struct {
	settle     *time.Timer
	settled    bool
	custom     bool // waiting for the remote UI to describe the position
	missing    []chess.Square
	webSquares []chess.Square
}

func (d *startingData) exit(c *Controller) {
	stopTimer(d.settle)
	c.drv.LedsBlink(nil, nil)
	c.drv.LedsOff(d.webSquares)
}

type stoppingData struct {
	done bool
}

func (d *stoppingData) exit(*Controller) {}

type moveData struct {
	from      chess.Square
	dests     []chess.Square
	candidate chess.Square
	debounce  *time.Timer
}

func (d *moveData) exit(c *Controller) {
	stopTimer(d.debounce)
	c.drv.LedsBlink(nil, nil)
	c.drv.LedsOff(append([]chess.Square{d.from, d.candidate}, d.dests...))
}

type engineMoveData struct {
	move   *chess.Move
	aux    []chess.Square // other squares the move changes
	lifted bool           // source square emptied
	cue    *panelBlinker
}

func (d *engineMoveData) exit(c *Controller) {
	if d.cue != nil {
		d.cue.Stop()
		c.restorePanel()
	}
	c.drv.LedsBlink(nil, nil)
}

type promotionData struct {
	from, to chess.Square
	chosen   bool
	cue      *panelBlinker
}

func (d *promotionData) exit(c *Controller) {
	d.cue.Stop()
	c.restorePanel()
}

type endData struct{}

func (endData) exit(c *Controller) {
	c.drv.LedsBlink(nil, nil)
}

type pauseData struct {
	pressed    bool // first press seen
	paused     bool // guard expired, the next press resumes
	engineTurn bool
	guard      *time.Timer
	cue        *panelBlinker
}

func (d *pauseData) exit(c *Controller) {
	stopTimer(d.guard)
	if d.cue != nil {
		d.cue.Stop()
		c.drv.PanelLedOn(driver.LedStart)
	}
}

type errorData struct {
	squares  []chess.Square
	deferred *event.Event // engine move that arrived meanwhile
}

func (d *errorData) exit(c *Controller) {
	c.drv.LedsBlink(nil, nil)
}

func newStateData(s State) stateData {
	switch s {
	case Starting:
		return &startingData{}
	case Stopping:
		return &stoppingData{}
	case Move:
		return &moveData{candidate: chess.NoSquare}
	case EngineMove:
		return &engineMoveData{}
	case PiecePromotion:
		return &promotionData{}
	case GameEnd:
		return endData{}
	case GamePause:
		return &pauseData{}
	case GameError:
		return &errorData{}
	}
	return noData{}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
