package controller

import (
	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/driver"
	"github.com/qnkhuat/ecb/pkg/event"
)

// ended is the GameEnd state. Only the start button leaves it.
func (c *Controller) ended(e event.Event) {
	var result, method string

	switch e.Kind {
	case event.ClockExpired:
		loser := driver.ColorFor(driver.ClockID(e.Clock))
		winner := loser.Other()
		c.drv.LedsBlink(board.BackRank(winner), nil)
		result, method = winResult(winner), "Timeout"

	case event.GameOver:
		if c.game.Method() == chess.Checkmate {
			c.drv.LedsBlink(board.BackRank(c.game.Position().Turn()), nil)
		} else {
			both := append(board.BackRank(chess.White), board.BackRank(chess.Black)...)
			c.drv.LedsBlink(both, nil)
		}
		result, method = string(c.game.Outcome()), c.game.Method().String()

	default:
		return
	}

	c.stopClocks()
	c.cancelSearch()
	c.log.WithFields(logrus.Fields{"game": c.gameID, "result": result, "method": method}).Info("game over")
	c.notify.GameOver(result, method)
}

func winResult(winner chess.Color) string {
	if winner == chess.White {
		return string(chess.WhiteWon)
	}
	return string(chess.BlackWon)
}

// paused is the GamePause state. The first start press pauses; a second
// press within the guard interval stops the game, a later one resumes it.
func (c *Controller) paused(e event.Event) {
	d := c.data.(*pauseData)

	switch e.Kind {
	case event.StartPressed:
		switch {
		case !d.pressed:
			c.pause(d)
		case !d.paused:
			c.log.WithField("game", c.gameID).Info("forced stop")
			c.Enqueue(event.Event{Kind: event.GameForceStop})
		default:
			c.resume(d)
		}

	case event.PauseGuardElapsed:
		d.paused = true

	case event.PonderingFinished:
		c.ponderFinished(e)
	}
}

func (c *Controller) pause(d *pauseData) {
	d.pressed = true
	c.stopClock(c.game.Position().Turn())

	// after a ponder hit the engine is on the move with nothing pending
	if c.engineTurn() && (c.pending != 0 || c.ponderHit || c.ponderToken != 0) {
		d.engineTurn = true
		c.cancelSearch()
	}

	c.drv.PanelLedOff(driver.LedStart)
	d.cue = blinkPanel(c.drv, driver.LedStart, c.opts.PromoCue)
	d.guard = c.schedule(c.opts.PauseGuard, event.PauseGuardElapsed)
	c.log.WithField("game", c.gameID).Info("game paused")
}

func (c *Controller) resume(d *pauseData) {
	if d.engineTurn {
		c.requestMove()
	}
	c.startClock(c.game.Position().Turn())

	d.cue.Stop()
	d.cue = nil
	c.drv.PanelLedOn(driver.LedStart)

	c.log.WithField("game", c.gameID).Info("game resumed")
	c.Enqueue(event.Event{Kind: event.GameResume})
}

// failed is the GameError state: the squares that disagree with the game
// blink until the player has put them right.
func (c *Controller) failed(e event.Event) {
	d := c.data.(*errorData)

	switch e.Kind {
	case event.InvalidSquares:
		for _, sq := range e.Squares {
			if !board.Contains(d.squares, sq) {
				d.squares = append(d.squares, sq)
			}
		}
		c.drv.LedsBlink(d.squares, nil)

	case event.SensorsChanged:
		for _, sq := range e.Squares {
			d.squares = toggleSquare(d.squares, sq)
		}
		if len(d.squares) > 0 {
			c.drv.LedsBlink(d.squares, nil)
			return
		}

		if bad := c.validate(); len(bad) > 0 {
			c.log.WithField("squares", bad).Warn("board still does not match the game")
			d.squares = bad
			c.drv.LedsBlink(d.squares, nil)
			return
		}
		c.drv.LedsBlink(nil, nil)
		c.log.WithField("game", c.gameID).Info("board restored")
		c.Enqueue(event.Event{Kind: event.ErrorEnd, Deferred: d.deferred})

	case event.EngineMoveStarted:
		deferred := e
		d.deferred = &deferred

	case event.PonderingFinished:
		c.ponderFinished(e)
	}
}

func toggleSquare(squares []chess.Square, sq chess.Square) []chess.Square {
	for i, s := range squares {
		if s == sq {
			return append(squares[:i:i], squares[i+1:]...)
		}
	}
	return append(squares, sq)
}
