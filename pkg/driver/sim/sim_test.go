package sim

import (
	"testing"
	"time"

	"github.com/notnil/chess"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/driver"
)

func TestSensorDeltas(t *testing.T) {
	d := New(0)

	var changes [][]chess.Square
	d.SetCallbacks(driver.Callbacks{
		SensorsChanged: func(changed []chess.Square) { changes = append(changes, changed) },
	})

	d.SetPosition(board.StartMap)
	if len(changes) != 0 {
		t.Fatal("sensor deltas reported while not scanning")
	}

	d.SensorsStart()
	d.Lift(chess.E2)
	d.Place(chess.E4)
	d.Place(chess.E4)

	if len(changes) != 2 {
		t.Fatalf("expected 2 deltas, got %d: %v", len(changes), changes)
	}
	if len(changes[0]) != 1 || changes[0][0] != chess.E2 {
		t.Errorf("unexpected first delta: %v", changes[0])
	}
	if len(changes[1]) != 1 || changes[1][0] != chess.E4 {
		t.Errorf("unexpected second delta: %v", changes[1])
	}

	m := d.SensorsGet()
	if m.Occupied(chess.E2) || !m.Occupied(chess.E4) {
		t.Errorf("unexpected sensor map:\n%s", m)
	}
}

func TestLedsBlink(t *testing.T) {
	d := New(5 * time.Millisecond)

	d.LedsBlink([]chess.Square{chess.E2}, []chess.Square{chess.E4})
	onoff, offon := d.Blinking()
	if !onoff.Occupied(chess.E2) || !offon.Occupied(chess.E4) {
		t.Fatalf("blink maps not set: %v %v", onoff.Squares(), offon.Squares())
	}

	d.LedsBlink(nil, []chess.Square{chess.E4})
	onoff, _ = d.Blinking()
	if !onoff.Empty() {
		t.Errorf("e2 still blinking: %v", onoff.Squares())
	}

	d.LedsBlink(nil, nil)
	time.Sleep(20 * time.Millisecond)
	if leds := d.Leds(); !leds.Empty() {
		t.Errorf("leds left on after blinking stopped: %v", leds.Squares())
	}
}

func TestLedsOnOff(t *testing.T) {
	d := New(0)
	d.LedsOn([]chess.Square{chess.A1, chess.H8})
	d.LedsOff([]chess.Square{chess.A1})
	if leds := d.Leds(); leds.Occupied(chess.A1) || !leds.Occupied(chess.H8) {
		t.Errorf("unexpected leds: %v", leds.Squares())
	}
}

func TestClockExpiry(t *testing.T) {
	d := New(0)

	expired := make(chan driver.ClockID, 1)
	d.SetCallbacks(driver.Callbacks{ClockExpired: func(id driver.ClockID) { expired <- id }})

	d.ClockSet(driver.ClockTop, 10*time.Millisecond)
	d.ClockStart(driver.ClockTop)

	select {
	case id := <-expired:
		if id != driver.ClockTop {
			t.Errorf("wrong clock expired: %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("clock did not expire")
	}

	if d.ClockGet(driver.ClockTop) != 0 {
		t.Errorf("expired clock shows %s", d.ClockGet(driver.ClockTop))
	}
}

func TestClockStop(t *testing.T) {
	d := New(0)
	d.ClockSet(driver.ClockBottom, 5*time.Minute)
	d.ClockStart(driver.ClockBottom)
	time.Sleep(10 * time.Millisecond)
	d.ClockStop(driver.ClockBottom)

	rem := d.ClockGet(driver.ClockBottom)
	if rem >= 5*time.Minute || rem < 4*time.Minute {
		t.Errorf("unexpected remaining time %s", rem)
	}

	time.Sleep(10 * time.Millisecond)
	if d.ClockGet(driver.ClockBottom) != rem {
		t.Error("stopped clock kept running")
	}

	d.ClockBlank(driver.ClockBottom)
	if s := d.Snapshot(); s.Clocks[driver.ClockBottom] != "--:--" {
		t.Errorf("blank clock shows %s", s.Clocks[driver.ClockBottom])
	}
}

func TestPanel(t *testing.T) {
	d := New(0)

	var pressed uint8
	d.SetCallbacks(driver.Callbacks{ButtonsPressed: func(mask uint8) { pressed = mask }})
	d.Press(driver.BtnStart)
	if pressed != driver.BtnStart {
		t.Errorf("unexpected button mask %#x", pressed)
	}

	d.PanelLedOn(driver.LedStart | driver.LedMode)
	d.PanelLedToggle(driver.LedMode)
	d.PanelLedOff(driver.LedColor)
	if d.Panel() != driver.LedStart {
		t.Errorf("unexpected panel leds %#x", d.Panel())
	}
}
