package gui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/notnil/chess"

	"github.com/qnkhuat/ecb/pkg/controller"
	"github.com/qnkhuat/ecb/pkg/driver"
	"github.com/qnkhuat/ecb/pkg/driver/sim"
)

const (
	numrows = 8
	numcols = 8
)

func getSquare(f chess.File, r chess.Rank) chess.Square {
	return chess.Square((int(r) * 8) + int(f))
}

// posToSquare maps a table cell to a square. Column 0 holds the ranks and
// rank 8 is drawn on top.
func posToSquare(row, col int) chess.Square {
	return getSquare(chess.File(col-1), chess.Rank(numrows-row-1))
}

func squareToPos(sq chess.Square) (row, col int) {
	return numrows - int(sq.Rank()) - 1, int(sq.File()) + 1
}

// squareBg returns the theme's color corresponding to the square
func squareBg(sq chess.Square, t Theme) tcell.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return t.SquareDark
	}
	return t.SquareLight
}

type cellStyle struct {
	Text string
	Fg   tcell.Color
	Bg   tcell.Color
}

// squareStyle draws the piece the game expects on sq. Where the sensors
// disagree the square shows a bare sensor mark or a missing piece.
func squareStyle(sq chess.Square, snap sim.Snapshot, pieces *chess.Board, t Theme) cellStyle {
	bg := squareBg(sq, t)
	if snap.Leds.Occupied(sq) {
		bg = t.SquareLed
	}

	p := chess.NoPiece
	if pieces != nil {
		p = pieces.Piece(sq)
	}
	occupied := snap.Sensors.Occupied(sq)

	switch {
	case p != chess.NoPiece && occupied:
		fg := t.White
		if p.Color() == chess.Black {
			fg = t.Black
		}
		return cellStyle{" " + p.String(), fg, bg}
	case p != chess.NoPiece:
		return cellStyle{" " + p.String(), t.Missing, bg}
	case occupied:
		return cellStyle{" ●", t.Sensor, bg}
	}
	return cellStyle{"  ", t.Sensor, bg}
}

// boardFromFEN returns nil when no game is in progress.
func boardFromFEN(s string) *chess.Board {
	if s == "" {
		return nil
	}
	fen, err := chess.FEN(s)
	if err != nil {
		return nil
	}
	return chess.NewGame(fen).Position().Board()
}

func colorTag(c tcell.Color) string {
	if c == tcell.ColorDefault {
		return "[-]"
	}
	return fmt.Sprintf("[%s]", fmtHex(c.Hex()))
}

var panelLeds = []struct {
	mask uint8
	name string
}{
	{driver.LedStart, "start"},
	{driver.LedMode, "mode"},
	{driver.LedLevel0, "L0"},
	{driver.LedLevel1, "L1"},
	{driver.LedLevel2, "L2"},
	{driver.LedColor, "color"},
	{driver.LedWifi, "wifi"},
	{driver.LedBT, "bt"},
}

func panelText(panel uint8, t Theme) string {
	var sb strings.Builder
	for _, led := range panelLeds {
		c := t.PanelOff
		if panel&led.mask != 0 {
			c = t.PanelOn
		}
		fmt.Fprintf(&sb, "%s●[-] %s  ", colorTag(c), led.name)
	}
	return strings.TrimRight(sb.String(), " ")
}

func clockLine(name string, id driver.ClockID, snap sim.Snapshot, t Theme) string {
	c := t.ClockIdle
	if snap.Running[id] {
		c = t.ClockRunning
	}
	return fmt.Sprintf("%-6s %s%s[-]", name, colorTag(c), snap.Clocks[id])
}

// clockText shows black's clock on top as on the hardware.
func clockText(snap sim.Snapshot, t Theme) string {
	return clockLine("black", driver.ClockTop, snap, t) + "\n" + clockLine("white", driver.ClockBottom, snap, t)
}

func statusText(st controller.Status, t Theme) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "state  %s%s[-]\n", colorTag(t.Msg), st.State)
	fmt.Fprintf(&sb, "config %s\n", st.Config)
	if st.GameID != "" {
		fmt.Fprintf(&sb, "game   %s\n", st.GameID)
		if st.Engine {
			fmt.Fprintf(&sb, "engine plays %s\n", st.Config.EngineColor.Name())
		}
	}
	return sb.String()
}

const helpText = "arrows+enter toggle a square   m l c t s press mode level color time start   q quit"
