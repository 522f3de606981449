// Package sim is an in-memory board driver. It behaves like the hardware:
// sensor deltas are only reported while scanning, LEDs blink on their own
// goroutine and clocks count down and report expiry.
package sim

import (
	"sync"
	"time"

	"github.com/notnil/chess"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/driver"
)

const DefaultBlinkInterval = 500 * time.Millisecond

// Snapshot is a copy of everything the driver shows to the player.
type Snapshot struct {
	Sensors  board.Map
	Leds     board.Map
	OnOff    board.Map
	OffOn    board.Map
	Scanning bool
	Clocks   [2]string
	Running  [2]bool
	Panel    uint8
}

type Driver struct {
	mu sync.Mutex

	cb       driver.Callbacks
	scanning bool
	sensors  board.Map

	leds       board.Map
	blinkOnOff board.Map
	blinkOffOn board.Map
	blinkState bool
	blinkStop  chan struct{}
	interval   time.Duration

	clocks [2]*Clock
	panel  uint8
}

var _ driver.Driver = (*Driver)(nil)

func New(blinkInterval time.Duration) *Driver {
	if blinkInterval <= 0 {
		blinkInterval = DefaultBlinkInterval
	}
	d := &Driver{interval: blinkInterval}
	for i := range d.clocks {
		id := driver.ClockID(i)
		d.clocks[i] = &Clock{Blank: true, now: time.Now}
		d.clocks[i].expired = func() { d.expire(id) }
	}
	return d
}

func (d *Driver) SetCallbacks(cb driver.Callbacks) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cb = cb
}

// Sensors

func (d *Driver) SensorsStart() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanning = true
}

func (d *Driver) SensorsStop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanning = false
}

func (d *Driver) SensorsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scanning
}

func (d *Driver) SensorsGet() board.Map {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sensors
}

// SetPosition replaces the whole sensor map and reports the difference.
func (d *Driver) SetPosition(m board.Map) {
	d.mu.Lock()
	changed := d.sensors.Xor(m).Squares()
	d.sensors = m
	cb, scanning := d.cb.SensorsChanged, d.scanning
	d.mu.Unlock()

	if cb != nil && scanning && len(changed) > 0 {
		cb(changed)
	}
}

// Lift empties a square.
func (d *Driver) Lift(sq chess.Square) {
	d.update(func(m *board.Map) { m.Clear(sq) })
}

// Place puts a piece on a square.
func (d *Driver) Place(sq chess.Square) {
	d.update(func(m *board.Map) { m.Set(sq) })
}

// Toggle flips the occupancy of a square.
func (d *Driver) Toggle(sq chess.Square) {
	d.update(func(m *board.Map) { m.Toggle(sq) })
}

func (d *Driver) update(fn func(m *board.Map)) {
	d.mu.Lock()
	m := d.sensors
	fn(&m)
	d.mu.Unlock()

	d.SetPosition(m)
}

// Press reports a button mask change from the command panel.
func (d *Driver) Press(mask uint8) {
	d.mu.Lock()
	cb := d.cb.ButtonsPressed
	d.mu.Unlock()

	if cb != nil {
		cb(mask)
	}
}

// LEDs

func (d *Driver) LedsOn(squares []chess.Square) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leds = d.leds.Or(board.FromSquares(squares))
}

func (d *Driver) LedsOff(squares []chess.Square) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leds = d.leds.AndNot(board.FromSquares(squares))
}

func (d *Driver) LedsBlink(onoff, offon []chess.Square) {
	d.mu.Lock()
	defer d.mu.Unlock()

	newOnOff := board.FromSquares(onoff)
	newOffOn := board.FromSquares(offon)

	// switch off squares that no longer blink
	d.leds = d.leds.AndNot(d.blinkOnOff.Xor(newOnOff).AndNot(newOnOff))
	d.leds = d.leds.AndNot(d.blinkOffOn.Xor(newOffOn).AndNot(newOffOn))
	d.blinkOnOff, d.blinkOffOn = newOnOff, newOffOn

	if onoff == nil && offon == nil {
		if d.blinkStop != nil {
			close(d.blinkStop)
			d.blinkStop = nil
		}
		return
	}

	if d.blinkStop != nil {
		return
	}
	d.blinkState = true
	d.blinkLocked()
	d.blinkStop = make(chan struct{})
	go d.blink(d.blinkStop)
}

func (d *Driver) blink(stop chan struct{}) {
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			d.mu.Lock()
			d.blinkState = !d.blinkState
			d.blinkLocked()
			d.mu.Unlock()
		}
	}
}

func (d *Driver) blinkLocked() {
	if d.blinkState {
		d.leds = d.leds.Or(d.blinkOnOff).AndNot(d.blinkOffOn)
	} else {
		d.leds = d.leds.AndNot(d.blinkOnOff).Or(d.blinkOffOn)
	}
}

// Blinking returns the squares currently blinking in either phase.
func (d *Driver) Blinking() (onoff, offon board.Map) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blinkOnOff, d.blinkOffOn
}

// Leds returns the squares currently lit.
func (d *Driver) Leds() board.Map {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leds
}

// Clocks

func (d *Driver) ClockSet(id driver.ClockID, t time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clocks[id].Set(t)
}

func (d *Driver) ClockGet(id driver.ClockID) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clocks[id].remaining()
}

func (d *Driver) ClockStart(id driver.ClockID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clocks[id].Start()
}

func (d *Driver) ClockStop(id driver.ClockID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clocks[id].Pause()
}

func (d *Driver) ClockBlank(id driver.ClockID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clocks[id].Reset()
}

// ClockRunning reports whether a clock is counting.
func (d *Driver) ClockRunning(id driver.ClockID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clocks[id].Running
}

func (d *Driver) expire(id driver.ClockID) {
	d.mu.Lock()
	cl := d.clocks[id]
	if !cl.Running || cl.remaining() > 0 {
		d.mu.Unlock()
		return
	}
	cl.Running = false
	cl.Remaining = 0
	cb := d.cb.ClockExpired
	d.mu.Unlock()

	if cb != nil {
		cb(id)
	}
}

// Command panel

func (d *Driver) PanelLedOn(mask uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panel |= mask
}

func (d *Driver) PanelLedOff(mask uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panel &^= mask
}

func (d *Driver) PanelLedToggle(mask uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panel ^= mask
}

func (d *Driver) Panel() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.panel
}

// Snapshot copies the visible state of the board.
func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Snapshot{
		Sensors:  d.sensors,
		Leds:     d.leds,
		OnOff:    d.blinkOnOff,
		OffOn:    d.blinkOffOn,
		Scanning: d.scanning,
		Panel:    d.panel,
	}
	for i, cl := range d.clocks {
		s.Clocks[i] = cl.String()
		s.Running[i] = cl.Running
	}
	return s
}
