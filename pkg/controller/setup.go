package controller

import (
	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/driver"
	"github.com/qnkhuat/ecb/pkg/engine"
	"github.com/qnkhuat/ecb/pkg/event"
)

func (c *Controller) idle(e event.Event) {
	if e.Kind == event.GameStopped {
		c.cfg.UpdateLeds(c.drv)
	}
}

func (c *Controller) setup(e event.Event) {
	if e.Kind != event.ConfigPressed {
		return
	}
	c.cfg.Apply(e.Buttons)
	c.resetClocks()
	c.log.WithField("config", c.cfg.String()).Info("configuration changed")
}

func (c *Controller) starting(e event.Event) {
	d := c.data.(*startingData)

	switch e.Kind {
	case event.StartPressed:
		c.drv.SensorsStart()
		c.drv.PanelLedOn(driver.LedStart)
		c.resetClocks()
		d.settle = c.schedule(c.opts.Settle, event.SettleElapsed)

	case event.SettleElapsed:
		d.settled = true
		c.detectPosition(d)

	case event.SensorsChanged:
		if !d.settled {
			return
		}
		if d.custom {
			sensors := c.drv.SensorsGet()
			if board.DetectPosition(sensors) != board.PositionNew {
				c.notify.SensorsMap(sensors)
				return
			}
			c.log.Info("standard setup restored, leaving custom setup")
			d.custom = false
			c.drv.LedsOff(d.webSquares)
			d.webSquares = nil
		}
		c.detectPosition(d)

	case event.WebConnect:
		if d.custom {
			c.notify.SetupGame()
			c.notify.SensorsMap(c.drv.SensorsGet())
		}

	case event.WebSquareSet, event.WebSquareUnset:
		if !d.custom {
			return
		}
		// the LED confirms which square the remote UI means
		if e.Kind == event.WebSquareSet {
			c.drv.LedsOn([]chess.Square{e.From})
			d.webSquares = append(d.webSquares, e.From)
		} else {
			c.drv.LedsOff([]chess.Square{e.From})
		}

	case event.WebSetupDone:
		if !d.custom {
			return
		}
		c.customSetupDone(d, e.FEN)
	}
}

func (c *Controller) detectPosition(d *startingData) {
	sensors := c.drv.SensorsGet()
	kind := board.DetectPosition(sensors)
	log := c.log.WithFields(logrus.Fields{"position": kind, "men": sensors.Count()})

	if kind == board.PositionCustom {
		if !d.custom {
			log.Info("custom position, waiting for remote setup")
			d.custom = true
			c.drv.LedsBlink(nil, nil)
			c.notify.SetupGame()
			c.notify.SensorsMap(sensors)
		}
		return
	}

	missing := board.MissingStartSquares(sensors)
	if len(missing) > 0 {
		log.WithField("squares", missing).Warn("starting squares empty")
		d.missing = missing
		c.drv.LedsBlink(missing, nil)
		return
	}

	d.missing = nil
	c.drv.LedsBlink(nil, nil)
	c.startGame(chess.NewGame(chess.UseNotation(chess.UCINotation{})))
}

func (c *Controller) customSetupDone(d *startingData, fen string) {
	log := c.log.WithField("fen", fen)

	opt, err := chess.FEN(fen)
	if err != nil {
		log.WithError(err).Warn("rejecting setup")
		return
	}
	game := chess.NewGame(opt, chess.UseNotation(chess.UCINotation{}))

	if bad := board.Mismatches(game.Position(), c.drv.SensorsGet()); len(bad) > 0 {
		log.WithField("squares", bad).Warn("setup disagrees with the board")
		c.drv.LedsBlink(bad, nil)
		return
	}
	c.drv.LedsOff(d.webSquares)
	d.webSquares = nil
	c.drv.LedsBlink(nil, nil)
	c.startGame(game)
}

func (c *Controller) startGame(game *chess.Game) {
	c.game = game
	c.gameID = newGameID()
	c.resetPonder()
	c.pending = 0

	log := c.log.WithFields(logrus.Fields{"game": c.gameID, "fen": game.FEN()})

	if c.cfg.EngineEnabled() && c.newEngine != nil {
		eng, err := c.newEngine(c.cfg.Level, c.engineResult)
		if err != nil {
			log.WithError(err).Error("engine unavailable, playing without it")
		} else {
			c.engine = eng
		}
	}

	log.WithField("engine", c.engine != nil).Info("game started")
	c.notify.StartGame(game.FEN())
	c.Enqueue(event.Event{Kind: event.GameStarted, FEN: game.FEN()})
}

func (c *Controller) stopping(e event.Event) {
	d := c.data.(*stoppingData)
	if d.done {
		return
	}
	d.done = true

	c.drv.SensorsStop()
	c.drv.PanelLedOff(driver.LedStart)
	c.drv.LedsBlink(nil, nil)
	c.drv.LedsOff(board.Map{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}.Squares())
	c.resetClocks()
	c.closeEngine()

	if c.game != nil {
		c.log.WithFields(logrus.Fields{"game": c.gameID, "fen": c.game.FEN()}).Info("game stopped")
	}
	c.game = nil
	c.gameID = ""
	c.Enqueue(event.Event{Kind: event.GameStopped})
}

func (c *Controller) closeEngine() {
	if c.engine == nil {
		return
	}
	if err := c.engine.Close(); err != nil {
		c.log.WithError(err).Warn("engine did not close cleanly")
	}
	c.engine = nil
	c.pending = 0
	c.resetPonder()
}

// engineResult runs on the engine's goroutine.
func (c *Controller) engineResult(r engine.Result) {
	kind := event.EngineMoveStarted
	if r.Pondered {
		kind = event.PonderingFinished
	}
	c.Enqueue(event.Event{Kind: kind, Move: r.Move, Ponder: r.Ponder, Token: r.Token})
}
