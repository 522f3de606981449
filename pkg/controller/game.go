package controller

import (
	"fmt"

	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/driver"
	"github.com/qnkhuat/ecb/pkg/event"
)

// promotion choices on the command panel
var promoButtons = []struct {
	button uint8
	led    uint8
	piece  chess.PieceType
}{
	{driver.BtnLevel, driver.LedLevel1, chess.Queen},
	{driver.BtnColor, driver.LedColor, chess.Rook},
	{driver.BtnTime, driver.LedLevel2, chess.Bishop},
	{driver.BtnMode, driver.LedMode, chess.Knight},
}

const promoLeds = driver.LedLevel1 | driver.LedColor | driver.LedLevel2 | driver.LedMode

func promoPiece(mask uint8) chess.PieceType {
	for _, p := range promoButtons {
		if mask&p.button != 0 {
			return p.piece
		}
	}
	return chess.Knight
}

func promoLed(piece chess.PieceType) uint8 {
	for _, p := range promoButtons {
		if p.piece == piece {
			return p.led
		}
	}
	return 0
}

func (c *Controller) engineTurn() bool {
	return c.engine != nil && c.game.Position().Turn() == c.cfg.EngineColor
}

// playing is the Game state: waiting for a move to begin.
func (c *Controller) playing(e event.Event) {
	switch e.Kind {
	case event.GameStarted:
		c.drv.PanelLedOn(driver.LedStart)
		c.startClock(c.game.Position().Turn())
		if c.engineTurn() {
			c.requestMove()
		}

	case event.SensorsChanged:
		c.pieceLifted(e.Squares)

	case event.MoveEnded:
		c.moveEnded(e)

	case event.ErrorEnd:
		if e.Deferred != nil {
			c.Enqueue(*e.Deferred)
		}

	case event.ConfigPressed:
		if e.Buttons&driver.BtnMode != 0 {
			c.cfg.ModeChange()
			c.cfg.UpdateLeds(c.drv)
		}

	case event.PonderingFinished:
		c.ponderFinished(e)
	}
}

func (c *Controller) pieceLifted(squares []chess.Square) {
	if len(squares) > 1 {
		c.Enqueue(event.Event{Kind: event.InvalidSquares, Squares: squares})
		return
	}
	if len(squares) == 0 || c.engineTurn() {
		return
	}

	sq := squares[0]
	pos := c.game.Position()
	piece := pos.Board().Piece(sq)
	log := c.log.WithField("square", sq)

	switch {
	case piece == chess.NoPiece, piece.Color() != pos.Turn():
		log.Debug("ignoring change off the mover's pieces")
		return
	case c.drv.SensorsGet().Occupied(sq):
		log.Debug("ignoring piece put down")
		return
	}

	dests := legalDestinations(pos, sq)
	if len(dests) == 0 {
		log.Info("piece has no legal move")
		return
	}
	c.Enqueue(event.Event{Kind: event.MoveStarted, From: sq, Squares: dests})
}

func legalDestinations(pos *chess.Position, from chess.Square) []chess.Square {
	var dests []chess.Square
	for _, m := range pos.ValidMoves() {
		if m.S1() == from && !board.Contains(dests, m.S2()) {
			dests = append(dests, m.S2())
		}
	}
	return dests
}

func findMove(pos *chess.Position, from, to chess.Square, promo chess.PieceType) (*chess.Move, error) {
	for _, m := range pos.ValidMoves() {
		if m.S1() == from && m.S2() == to && m.Promo() == promo {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
}

func (c *Controller) moveEnded(e event.Event) {
	pos := c.game.Position()
	mover := pos.Turn()
	log := c.log.WithFields(logrus.Fields{"game": c.gameID, "from": e.From, "to": e.To})

	m, err := findMove(pos, e.From, e.To, e.Promo)
	if err != nil {
		log.WithError(err).Error("rejecting move")
		c.escalate()
		return
	}

	c.stopClock(mover)
	if err := c.game.Move(m); err != nil {
		log.WithError(err).Error("rejecting move")
		c.escalate()
		return
	}
	log.WithField("move", m).Info("move played")
	c.notify.BoardUpdate(c.game.FEN())

	if c.game.Outcome() != chess.NoOutcome {
		c.Enqueue(event.Event{Kind: event.GameOver})
		return
	}

	if c.engineTurn() {
		c.answerMove(m)
	}
	c.startClock(mover.Other())
	c.escalate()
}

// escalate turns a disagreement between sensors and game board into an
// error the player has to resolve.
func (c *Controller) escalate() {
	if bad := c.validate(); len(bad) > 0 {
		c.log.WithField("squares", bad).Warn("board does not match the game")
		c.Enqueue(event.Event{Kind: event.InvalidSquares, Squares: bad})
	}
}

// moving is the Move state: a piece was lifted and is on its way.
func (c *Controller) moving(e event.Event) {
	d := c.data.(*moveData)

	switch e.Kind {
	case event.MoveStarted:
		d.from, d.dests = e.From, e.Squares
		c.drv.LedsBlink([]chess.Square{d.from}, nil)
		if c.cfg.Mode == ModeLearn {
			c.drv.LedsOn(d.dests)
		}

	case event.SensorsChanged:
		if len(e.Squares) > 1 {
			c.Enqueue(event.Event{Kind: event.InvalidSquares, Squares: e.Squares})
			return
		}
		if len(e.Squares) == 1 {
			c.moveSquareChanged(d, e.Squares[0])
		}

	case event.DebounceElapsed:
		c.moveSettled(d)

	case event.PonderingFinished:
		c.ponderFinished(e)
	}
}

func (c *Controller) moveSquareChanged(d *moveData, sq chess.Square) {
	if sq != d.from && !board.Contains(d.dests, sq) {
		c.log.WithField("square", sq).Debug("ignoring change off the move")
		return
	}

	if !c.drv.SensorsGet().Occupied(sq) {
		if sq == d.candidate {
			c.clearCandidate(d)
		}
		return
	}

	if d.candidate != chess.NoSquare && d.candidate != sq {
		c.clearCandidate(d)
	}
	d.candidate = sq
	if sq != d.from {
		c.drv.LedsOn([]chess.Square{sq})
	}
	c.epoch++
	d.debounce = c.schedule(c.opts.Debounce, event.DebounceElapsed)
}

func (c *Controller) clearCandidate(d *moveData) {
	stopTimer(d.debounce)
	d.debounce = nil
	c.epoch++
	if d.candidate != d.from && !(c.cfg.Mode == ModeLearn && board.Contains(d.dests, d.candidate)) {
		c.drv.LedsOff([]chess.Square{d.candidate})
	}
	d.candidate = chess.NoSquare
}

func (c *Controller) moveSettled(d *moveData) {
	if d.candidate == chess.NoSquare || !c.drv.SensorsGet().Occupied(d.candidate) {
		return
	}

	if d.candidate == d.from {
		c.Enqueue(event.Event{Kind: event.MoveAborted, From: d.from})
		return
	}

	piece := c.game.Position().Board().Piece(d.from)
	rank := d.candidate.Rank()
	if piece.Type() == chess.Pawn && (rank == chess.Rank8 || rank == chess.Rank1) {
		c.Enqueue(event.Event{Kind: event.PromotionStarted, From: d.from, To: d.candidate})
		return
	}
	c.Enqueue(event.Event{Kind: event.MoveEnded, From: d.from, To: d.candidate})
}

// engineMoving is the EngineMove state: the player carries out the
// engine's move on the board.
func (c *Controller) engineMoving(e event.Event) {
	d := c.data.(*engineMoveData)

	switch e.Kind {
	case event.EngineMoveStarted:
		c.playEngineMove(d, e)

	case event.SensorsChanged:
		if len(e.Squares) != 1 {
			c.Enqueue(event.Event{Kind: event.InvalidSquares, Squares: e.Squares})
			return
		}
		c.engineSquareChanged(d, e.Squares[0])

	case event.PonderingFinished:
		c.ponderFinished(e)
	}
}

func (c *Controller) playEngineMove(d *engineMoveData, e event.Event) {
	c.pending = 0
	m := e.Move
	pos := c.game.Position()
	mover := pos.Turn()
	log := c.log.WithFields(logrus.Fields{"game": c.gameID, "move": m})

	c.stopClock(mover)
	if err := c.game.Move(m); err != nil {
		log.WithError(err).Error("engine move rejected, asking again")
		c.startClock(mover)
		c.Enqueue(event.Event{Kind: event.EngineMoveEnded})
		c.requestMove()
		return
	}
	log.Info("engine move")
	c.notify.BoardUpdate(c.game.FEN())

	d.move = m
	d.aux = auxSquares(pos, m)
	c.drv.LedsBlink([]chess.Square{m.S1()}, []chess.Square{m.S2()})
	if m.Promo() != chess.NoPieceType {
		c.drv.PanelLedOff(driver.LedAll)
		d.cue = blinkPanel(c.drv, promoLed(m.Promo()), c.opts.PromoCue)
	}

	if c.game.Outcome() == chess.NoOutcome {
		c.startClock(mover.Other())
		if e.Ponder != nil && c.engine.Profile().Ponder {
			c.startPondering(e.Ponder)
		}
	}
}

// auxSquares lists the squares besides source and destination whose
// occupancy m changes, and the destination when m captures.
func auxSquares(pos *chess.Position, m *chess.Move) []chess.Square {
	before := board.Occupancy(pos.Board())
	after := board.Occupancy(pos.Update(m).Board())

	var aux []chess.Square
	for _, sq := range before.Xor(after).Squares() {
		if sq != m.S1() && sq != m.S2() {
			aux = append(aux, sq)
		}
	}
	if m.HasTag(chess.Capture) {
		aux = append(aux, m.S2())
	}
	return aux
}

func (c *Controller) engineSquareChanged(d *engineMoveData, sq chess.Square) {
	if d.move == nil {
		return
	}
	occupied := c.drv.SensorsGet().Occupied(sq)

	switch {
	case sq == d.move.S1() && !occupied:
		d.lifted = true
		return
	case sq == d.move.S2() && occupied && d.lifted:
		c.engineMoveDone(d)
		return
	case board.Contains(d.aux, sq):
		return
	}

	c.log.WithField("square", sq).Warn("unexpected change during engine move")
	c.Enqueue(event.Event{Kind: event.InvalidSquares, Squares: []chess.Square{sq}})
}

func (c *Controller) engineMoveDone(d *engineMoveData) {
	if d.cue != nil {
		d.cue.Stop()
		d.cue = nil
		c.restorePanel()
	}
	c.drv.LedsBlink(nil, nil)

	if c.game.Outcome() != chess.NoOutcome {
		c.Enqueue(event.Event{Kind: event.GameOver})
		return
	}
	c.Enqueue(event.Event{Kind: event.EngineMoveEnded})
	c.escalate()
}

// promoting is the PiecePromotion state: the player picks the piece on
// the command panel.
func (c *Controller) promoting(e event.Event) {
	d := c.data.(*promotionData)

	switch e.Kind {
	case event.PromotionStarted:
		d.from, d.to = e.From, e.To
		c.drv.PanelLedOff(driver.LedAll)
		d.cue = blinkPanel(c.drv, promoLeds, c.opts.PromoCue)

	case event.ConfigPressed, event.StartPressed:
		if d.chosen {
			return
		}
		d.chosen = true
		piece := promoPiece(e.Buttons)
		c.log.WithField("piece", piece).Info("promotion chosen")
		c.Enqueue(event.Event{Kind: event.MoveEnded, From: d.from, To: d.to, Promo: piece})

	case event.PonderingFinished:
		c.ponderFinished(e)
	}
}
