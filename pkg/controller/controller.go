// Package controller runs the game on the board. Every input (sensor
// deltas, buttons, clocks, engine results, remote UI messages and the
// controller's own timers) becomes an event on a single queue, and one
// dispatch loop feeds the events to the state machine in order.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/driver"
	"github.com/qnkhuat/ecb/pkg/engine"
	"github.com/qnkhuat/ecb/pkg/event"
)

var ErrIllegalMove = errors.New("illegal move")

// Options are the timing constants of the state machine.
type Options struct {
	Settle     time.Duration // sensor settle time before position detection
	Debounce   time.Duration // a destination must stay occupied this long
	PauseGuard time.Duration // a second start press within it stops the game
	PromoCue   time.Duration // panel blink interval while choosing a promotion
	PollWait   time.Duration // bounded wait of the dispatch loop
}

func DefaultOptions() Options {
	return Options{
		Settle:     time.Second,
		Debounce:   300 * time.Millisecond,
		PauseGuard: 3 * time.Second,
		PromoCue:   500 * time.Millisecond,
		PollWait:   100 * time.Millisecond,
	}
}

// Engine plays one side. Results of RequestMove are delivered to the
// callback given to the EngineFactory, tagged with the returned token.
type Engine interface {
	RequestMove(req engine.Request) uint64
	Stop()
	Close() error
	Profile() engine.Profile
}

type EngineFactory func(level engine.Level, onResult func(engine.Result)) (Engine, error)

// Notifier receives the notifications for the remote UI.
type Notifier interface {
	SetupGame()
	SensorsMap(m board.Map)
	StartGame(fen string)
	BoardUpdate(fen string)
	GameOver(result, method string)
}

type nopNotifier struct{}

func (nopNotifier) SetupGame()              {}
func (nopNotifier) SensorsMap(board.Map)    {}
func (nopNotifier) StartGame(string)        {}
func (nopNotifier) BoardUpdate(string)      {}
func (nopNotifier) GameOver(string, string) {}

// Status is a copy of what the controller is doing, safe to read from any
// goroutine.
type Status struct {
	State     State
	GameID    string
	FEN       string
	Config    GameConfig
	Engine    bool
	WhiteTime time.Duration
	BlackTime time.Duration
}

type Controller struct {
	drv       driver.Driver
	queue     *event.Queue
	opts      Options
	cfg       GameConfig
	newEngine EngineFactory
	notify    Notifier
	log       logrus.FieldLogger

	// owned by the dispatch loop
	state State
	data  stateData
	epoch uint64

	game      *chess.Game
	gameID    string
	remaining map[chess.Color]time.Duration
	engine    Engine
	pending   uint64 // token of the awaited engine move

	ponderToken  uint64
	ponderMove   *chess.Move
	ponderResult *event.Event
	ponderHit    bool

	statusMu sync.Mutex
	status   Status
}

// New creates a controller in Idle and registers the driver callbacks.
// newEngine and notify may be nil.
func New(drv driver.Driver, cfg GameConfig, opts Options, newEngine EngineFactory, notify Notifier, log logrus.FieldLogger) *Controller {
	if notify == nil {
		notify = nopNotifier{}
	}
	c := &Controller{
		drv:       drv,
		queue:     event.NewQueue(),
		opts:      opts,
		cfg:       cfg,
		newEngine: newEngine,
		notify:    notify,
		log:       log,
		state:     Idle,
		data:      newStateData(Idle),
		remaining: make(map[chess.Color]time.Duration),
	}

	drv.SetCallbacks(driver.Callbacks{
		SensorsChanged: func(changed []chess.Square) {
			c.Enqueue(event.Event{Kind: event.SensorsChanged, Squares: changed})
		},
		ClockExpired: func(id driver.ClockID) {
			c.Enqueue(event.Event{Kind: event.ClockExpired, Clock: int(id)})
		},
		ButtonsPressed: c.buttonsPressed,
	})
	c.cfg.Update(drv)
	c.publish()
	return c
}

func (c *Controller) buttonsPressed(mask uint8) {
	switch {
	case mask == 0:
		// release
	case mask&driver.BtnStart != 0:
		c.Enqueue(event.Event{Kind: event.StartPressed, Buttons: mask})
	default:
		c.Enqueue(event.Event{Kind: event.ConfigPressed, Buttons: mask})
	}
}

// Enqueue is safe to call from any goroutine and never blocks.
func (c *Controller) Enqueue(e event.Event) {
	c.queue.Push(e)
}

// Run dispatches events until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	c.log.WithField("config", c.cfg.String()).Info("controller running")
	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if e, ok := c.queue.Pop(c.opts.PollWait); ok {
			c.handle(e)
		}
	}
}

func (c *Controller) shutdown() {
	c.data.exit(c)
	c.closeEngine()
	c.drv.SensorsStop()
	c.drv.LedsBlink(nil, nil)
}

func (c *Controller) Status() Status {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

func (c *Controller) handle(e event.Event) {
	log := c.log.WithFields(logrus.Fields{"state": c.state, "event": e})
	if c.stale(e) {
		log.Debug("dropping stale event")
		return
	}
	log.Debug("dispatch")

	next := transition(c.state, e.Kind)
	if next != c.state {
		c.log.WithField("event", e.Kind).Infof("%s -> %s", c.state, next)
		c.data.exit(c)
		c.state = next
		c.epoch++
		c.data = newStateData(next)
	}
	c.run(e)
	c.publish()
}

// stale reports timer events scheduled by a state that is gone and engine
// results nobody is waiting for.
func (c *Controller) stale(e event.Event) bool {
	switch e.Kind {
	case event.SettleElapsed, event.DebounceElapsed, event.PauseGuardElapsed:
		return e.Epoch != c.epoch
	case event.EngineMoveStarted:
		return c.pending == 0 || e.Token != c.pending
	case event.PonderingFinished:
		return c.ponderToken == 0 || e.Token != c.ponderToken
	}
	return false
}

func (c *Controller) run(e event.Event) {
	if e.Kind == event.WebConnect && c.game != nil {
		c.notify.StartGame(c.game.FEN())
	}

	switch c.state {
	case Idle:
		c.idle(e)
	case Setup:
		c.setup(e)
	case Starting:
		c.starting(e)
	case Stopping:
		c.stopping(e)
	case Game:
		c.playing(e)
	case Move:
		c.moving(e)
	case EngineMove:
		c.engineMoving(e)
	case PiecePromotion:
		c.promoting(e)
	case GameEnd:
		c.ended(e)
	case GamePause:
		c.paused(e)
	case GameError:
		c.failed(e)
	}
}

// schedule enqueues an event of kind after d, stamped with the current
// epoch. Bumping the epoch invalidates timers already scheduled.
func (c *Controller) schedule(d time.Duration, kind event.Kind) *time.Timer {
	e := event.Event{Kind: kind, Epoch: c.epoch}
	return time.AfterFunc(d, func() { c.Enqueue(e) })
}

func (c *Controller) publish() {
	s := Status{
		State:     c.state,
		GameID:    c.gameID,
		Config:    c.cfg,
		Engine:    c.engine != nil,
		WhiteTime: c.remaining[chess.White],
		BlackTime: c.remaining[chess.Black],
	}
	if c.game != nil {
		s.FEN = c.game.FEN()
	}

	c.statusMu.Lock()
	c.status = s
	c.statusMu.Unlock()
}

func newGameID() string {
	return petname.Generate(2, "-")
}

// Clocks

func (c *Controller) startClock(color chess.Color) {
	id := driver.ClockFor(color)
	if !c.cfg.TimeControl() {
		c.drv.ClockSet(id, 0)
		c.drv.ClockBlank(driver.ClockFor(color.Other()))
		return
	}
	c.drv.ClockStart(id)
}

func (c *Controller) stopClock(color chess.Color) {
	if !c.cfg.TimeControl() {
		return
	}
	id := driver.ClockFor(color)
	c.drv.ClockStop(id)
	c.remaining[color] = c.drv.ClockGet(id)
}

func (c *Controller) stopClocks() {
	c.stopClock(chess.White)
	c.stopClock(chess.Black)
}

func (c *Controller) resetClocks() {
	c.remaining[chess.White] = c.cfg.Allotment()
	c.remaining[chess.Black] = c.cfg.Allotment()
	c.cfg.Update(c.drv)
}

// validate compares the sensors with the game board.
func (c *Controller) validate() []chess.Square {
	return board.Mismatches(c.game.Position(), c.drv.SensorsGet())
}

// restorePanel shows the configuration again after a cue used the panel.
func (c *Controller) restorePanel() {
	c.drv.PanelLedOff(driver.LedAll)
	c.cfg.UpdateLeds(c.drv)
	if c.state.InGame() {
		c.drv.PanelLedOn(driver.LedStart)
	}
}

// panelBlinker toggles panel LEDs on its own goroutine. Toggling LEDs
// touches no game state, so it does not go through the queue.
type panelBlinker struct {
	stop chan struct{}
	done chan struct{}
}

func blinkPanel(drv driver.Driver, mask uint8, interval time.Duration) *panelBlinker {
	b := &panelBlinker{stop: make(chan struct{}), done: make(chan struct{})}
	drv.PanelLedOn(mask)
	go func() {
		defer close(b.done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-b.stop:
				return
			case <-t.C:
				drv.PanelLedToggle(mask)
			}
		}
	}()
	return b
}

func (b *panelBlinker) Stop() {
	if b == nil {
		return
	}
	select {
	case <-b.stop:
	default:
		close(b.stop)
	}
	<-b.done
}
