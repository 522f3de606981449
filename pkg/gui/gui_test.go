package gui

import (
	"strings"
	"testing"

	"github.com/notnil/chess"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/controller"
	"github.com/qnkhuat/ecb/pkg/driver"
	"github.com/qnkhuat/ecb/pkg/driver/sim"
)

type fakeBoard struct {
	snap    sim.Snapshot
	toggled []chess.Square
	pressed []uint8
}

func (b *fakeBoard) Snapshot() sim.Snapshot { return b.snap }
func (b *fakeBoard) Toggle(sq chess.Square) { b.toggled = append(b.toggled, sq) }
func (b *fakeBoard) Press(mask uint8) { b.pressed = append(b.pressed, mask) }

type fixedStatus controller.Status

func (s fixedStatus) Status() controller.Status { return controller.Status(s) }

func TestPosToSquare(t *testing.T) {
	cases := []struct {
		row, col int
		sq       chess.Square
	}{
		{0, 1, chess.A8},
		{7, 1, chess.A1},
		{7, 8, chess.H1},
		{3, 5, chess.E5},
	}
	for _, tc := range cases {
		if got := posToSquare(tc.row, tc.col); got != tc.sq {
			t.Errorf("posToSquare(%d, %d) = %s, want %s", tc.row, tc.col, got, tc.sq)
		}
		if row, col := squareToPos(tc.sq); row != tc.row || col != tc.col {
			t.Errorf("squareToPos(%s) = %d,%d", tc.sq, row, col)
		}
	}
}

func TestSquareStyle(t *testing.T) {
	th := ThemeBasic
	pieces := chess.NewGame().Position().Board()

	snap := sim.Snapshot{Sensors: board.StartMap}
	snap.Sensors.Clear(chess.E2)
	snap.Sensors.Set(chess.E4)
	snap.Leds.Set(chess.E4)

	if s := squareStyle(chess.A1, snap, pieces, th); s.Text != " "+chess.WhiteRook.String() || s.Bg != th.SquareDark || s.Fg != th.White {
		t.Errorf("unexpected a1 %+v", s)
	}
	if s := squareStyle(chess.E2, snap, pieces, th); s.Fg != th.Missing {
		t.Errorf("lifted piece not shown as missing: %+v", s)
	}
	if s := squareStyle(chess.E4, snap, pieces, th); s.Text != " ●" || s.Bg != th.SquareLed {
		t.Errorf("unexpected e4 %+v", s)
	}
	if s := squareStyle(chess.E5, snap, pieces, th); strings.TrimSpace(s.Text) != "" || s.Bg != th.SquareLight {
		t.Errorf("unexpected e5 %+v", s)
	}

	// without a game only the sensors are drawn
	if s := squareStyle(chess.A1, snap, nil, th); s.Text != " ●" {
		t.Errorf("unexpected a1 without game %+v", s)
	}
}

func TestPanelText(t *testing.T) {
	th := ThemeBasic
	text := panelText(driver.LedStart|driver.LedLevel1, th)

	on := colorTag(th.PanelOn) + "●[-] "
	off := colorTag(th.PanelOff) + "●[-] "
	for _, want := range []string{on + "start", on + "L1", off + "L0", off + "mode"} {
		if !strings.Contains(text, want) {
			t.Errorf("panel %q does not contain %q", text, want)
		}
	}
}

func TestImportThemes(t *testing.T) {
	custom := ThemeContrast.Hex()
	custom.Name = "mine"

	got, err := ImportThemes("mine", []ThemeHex{custom})
	if err != nil {
		t.Fatal(err)
	}
	if got.SquareLed.Hex() != ThemeContrast.SquareLed.Hex() || got.Name != "mine" {
		t.Errorf("unexpected theme %+v", got)
	}

	if got, err := ImportThemes("basic", nil); err != nil || got != ThemeBasic {
		t.Errorf("built-in theme not found: %v", err)
	}
	if _, err := ImportThemes("neon", nil); err != ErrNoTheme {
		t.Errorf("expected ErrNoTheme, got %v", err)
	}
}

func TestSimulatorInput(t *testing.T) {
	drv := &fakeBoard{snap: sim.Snapshot{Sensors: board.StartMap, Clocks: [2]string{"5:00", "5:00"}}}
	st := controller.Status{State: controller.Game, FEN: chess.NewGame().FEN(), Config: controller.DefaultGameConfig()}
	s := NewSimulator(drv, fixedStatus(st), ThemeBasic)

	if cell := s.Board.GetCell(7, 5); cell.Text != " "+chess.WhiteKing.String() {
		t.Errorf("e1 shows %q", cell.Text)
	}
	if cell := s.Board.GetCell(numrows, 1); strings.TrimSpace(cell.Text) != "a" {
		t.Errorf("file label shows %q", cell.Text)
	}
	if !strings.Contains(s.Status.GetText(true), "game") {
		t.Errorf("status shows %q", s.Status.GetText(true))
	}

	for _, r := range "mlcts" {
		if !s.handleRune(r) {
			t.Errorf("%c not handled", r)
		}
	}
	if s.handleRune('x') {
		t.Errorf("x handled")
	}
	want := []uint8{driver.BtnMode, driver.BtnLevel, driver.BtnColor, driver.BtnTime, driver.BtnStart}
	if len(drv.pressed) != len(want) {
		t.Fatalf("pressed %v", drv.pressed)
	}
	for i := range want {
		if drv.pressed[i] != want[i] {
			t.Errorf("press %d = %b, want %b", i, drv.pressed[i], want[i])
		}
	}
}
