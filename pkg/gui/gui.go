// Package gui is a terminal simulator of the board: it draws the sensors,
// LEDs, clocks and panel of a simulated driver and lets the keyboard play
// the part of the pieces and buttons.
package gui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/notnil/chess"
	"github.com/rivo/tview"

	"github.com/qnkhuat/ecb/pkg/controller"
	"github.com/qnkhuat/ecb/pkg/driver"
	"github.com/qnkhuat/ecb/pkg/driver/sim"
)

const RefreshInterval = 100 * time.Millisecond

// Board is the part of the simulated driver the simulator acts on.
type Board interface {
	Snapshot() sim.Snapshot
	Toggle(sq chess.Square)
	Press(mask uint8)
}

type StatusSource interface {
	Status() controller.Status
}

var keyButtons = map[rune]uint8{
	'm': driver.BtnMode,
	'l': driver.BtnLevel,
	'c': driver.BtnColor,
	't': driver.BtnTime,
	's': driver.BtnStart,
}

type Simulator struct {
	App    *tview.Application
	Board  *tview.Table
	Clocks *tview.TextView
	Panel  *tview.TextView
	Status *tview.TextView
	Layout *tview.Grid

	drv   Board
	src   StatusSource
	theme Theme
}

func NewSimulator(drv Board, src StatusSource, theme Theme) *Simulator {
	app := tview.NewApplication()

	clocks := tview.NewTextView().SetDynamicColors(true)
	clocks.SetBorder(true).SetTitle(" clocks ")
	panel := tview.NewTextView().SetDynamicColors(true)
	panel.SetBorder(true).SetTitle(" panel ")
	status := tview.NewTextView().SetDynamicColors(true)
	status.SetBorder(true).SetTitle(" controller ")
	help := tview.NewTextView().SetText(helpText)

	board := tview.NewTable()

	layout := tview.NewGrid().
		SetRows(-1, 4, 3, 6, 1, -1).
		SetColumns(-1, 22, 50, -1).
		AddItem(board, 1, 1, 3, 1, 0, 0, true).
		AddItem(clocks, 1, 2, 1, 1, 0, 0, false).
		AddItem(panel, 2, 2, 1, 1, 0, 0, false).
		AddItem(status, 3, 2, 1, 1, 0, 0, false).
		AddItem(help, 4, 1, 1, 2, 0, 0, false)

	s := &Simulator{
		App:    app,
		Board:  board,
		Clocks: clocks,
		Panel:  panel,
		Status: status,
		Layout: layout,
		drv:    drv,
		src:    src,
		theme:  theme,
	}
	s.initTable()
	return s
}

func (s *Simulator) initTable() {
	s.Refresh()
	s.Board.SetSelectable(true, true)
	s.Board.Select(squareToPos(chess.E2)).SetSelectedFunc(func(row, col int) {
		if col == 0 || row >= numrows {
			return
		}
		s.drv.Toggle(posToSquare(row, col))
		s.Refresh()
	})
	s.Board.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() != tcell.KeyRune {
			if ev.Key() == tcell.KeyEscape {
				s.App.Stop()
				return nil
			}
			return ev
		}
		if s.handleRune(ev.Rune()) {
			return nil
		}
		return ev
	})
}

// handleRune runs the panel shortcut for r and reports whether r was one.
func (s *Simulator) handleRune(r rune) bool {
	if r == 'q' {
		s.App.Stop()
		return true
	}
	mask, ok := keyButtons[r]
	if !ok {
		return false
	}
	s.drv.Press(mask)
	return true
}

// Refresh redraws every widget from the driver and controller.
func (s *Simulator) Refresh() {
	snap := s.drv.Snapshot()
	st := s.src.Status()
	pieces := boardFromFEN(st.FEN)

	for r := 0; r <= numrows; r++ {
		for f := 0; f <= numcols; f++ {
			if f == 0 && r != numrows {
				rank := chess.Rank(numrows - r - 1)
				s.Board.SetCell(r, f, tview.NewTableCell(rank.String()).
					SetTextColor(s.theme.Rank).
					SetAlign(tview.AlignCenter).
					SetSelectable(false))
				continue
			}
			if r == numrows {
				text := ""
				if f > 0 {
					text = fmt.Sprintf(" %s", chess.File(f-1))
				}
				s.Board.SetCell(r, f, tview.NewTableCell(text).
					SetTextColor(s.theme.File).
					SetAlign(tview.AlignCenter).
					SetSelectable(false))
				continue
			}

			style := squareStyle(posToSquare(r, f), snap, pieces, s.theme)
			s.Board.SetCell(r, f, tview.NewTableCell(style.Text).
				SetTextColor(style.Fg).
				SetBackgroundColor(style.Bg).
				SetAlign(tview.AlignCenter))
		}
	}

	s.Clocks.SetText(clockText(snap, s.theme))
	s.Panel.SetText(panelText(snap.Panel, s.theme))
	s.Status.SetText(statusText(st, s.theme))
}

// Run shows the simulator until the user quits or ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		t := time.NewTicker(RefreshInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				s.App.Stop()
				return
			case <-t.C:
				s.App.QueueUpdateDraw(s.Refresh)
			}
		}
	}()

	return s.App.SetRoot(s.Layout, true).EnableMouse(true).Run()
}
