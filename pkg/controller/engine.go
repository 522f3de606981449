package controller

import (
	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"

	"github.com/qnkhuat/ecb/pkg/engine"
	"github.com/qnkhuat/ecb/pkg/event"
)

// requestMove asks the engine for a move in the current position.
func (c *Controller) requestMove() {
	req := engine.Request{
		Position: c.game.Position(),
		Moves:    c.game.Moves(),
	}
	if c.cfg.TimeControl() {
		req.WhiteTime = c.remaining[chess.White]
		req.BlackTime = c.remaining[chess.Black]
	}
	c.pending = c.engine.RequestMove(req)
	c.log.WithFields(logrus.Fields{"game": c.gameID, "token": c.pending}).Debug("engine move requested")
}

// startPondering searches the position after the predicted reply while
// the player thinks.
func (c *Controller) startPondering(predicted *chess.Move) {
	pos := c.game.Position()
	if _, ok := engine.LegalMove(pos, predicted.String()); !ok {
		return
	}

	moves := append(append([]*chess.Move(nil), c.game.Moves()...), predicted)
	req := engine.Request{
		Position: pos.Update(predicted),
		Moves:    moves,
		Ponder:   true,
	}
	if c.cfg.TimeControl() {
		req.WhiteTime = c.remaining[chess.White]
		req.BlackTime = c.remaining[chess.Black]
	}

	c.resetPonder()
	c.ponderMove = predicted
	c.ponderToken = c.engine.RequestMove(req)
	c.log.WithFields(logrus.Fields{"ponder": predicted, "token": c.ponderToken}).Debug("pondering")
}

// answerMove gets the engine's reply to the player's move m, reusing the
// speculative search when the player played the predicted move.
func (c *Controller) answerMove(m *chess.Move) {
	if c.ponderToken == 0 {
		c.requestMove()
		return
	}

	log := c.log.WithFields(logrus.Fields{"ponder": c.ponderMove, "move": m})
	if c.ponderMove.String() != m.String() {
		log.Debug("ponder miss")
		c.engine.Stop()
		c.resetPonder()
		c.requestMove()
		return
	}

	log.Debug("ponder hit")
	if c.ponderResult != nil {
		r := *c.ponderResult
		c.resetPonder()
		c.playPondered(r)
		return
	}
	c.ponderHit = true
}

// ponderFinished keeps a speculative result until the player's move tells
// whether it can be used.
func (c *Controller) ponderFinished(e event.Event) {
	if c.ponderHit {
		c.resetPonder()
		c.playPondered(e)
		return
	}
	r := e
	c.ponderResult = &r
}

func (c *Controller) playPondered(r event.Event) {
	c.pending = r.Token
	c.Enqueue(event.Event{Kind: event.EngineMoveStarted, Move: r.Move, Ponder: r.Ponder, Token: r.Token})
}

func (c *Controller) resetPonder() {
	c.ponderToken = 0
	c.ponderMove = nil
	c.ponderResult = nil
	c.ponderHit = false
}

// cancelSearch forgets every outstanding engine request and stops the
// running search.
func (c *Controller) cancelSearch() {
	if c.engine == nil {
		return
	}
	if c.pending != 0 || c.ponderToken != 0 {
		c.engine.Stop()
	}
	c.pending = 0
	c.resetPonder()
}
