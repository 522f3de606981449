package gui

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Terminal safe color palette is available here
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

// Theme is used for dynamically coloring the simulator
type Theme struct {
	Name         string      `json:"name"`
	SquareDark   tcell.Color `json:"squareDark"`
	SquareLight  tcell.Color `json:"squareLight"`
	SquareLed    tcell.Color `json:"squareLed"`
	White        tcell.Color `json:"white"`
	Black        tcell.Color `json:"black"`
	Sensor       tcell.Color `json:"sensor"`
	Missing      tcell.Color `json:"missing"`
	Rank         tcell.Color `json:"rank"`
	File         tcell.Color `json:"file"`
	Msg          tcell.Color `json:"msg"`
	PanelOn      tcell.Color `json:"panelOn"`
	PanelOff     tcell.Color `json:"panelOff"`
	ClockRunning tcell.Color `json:"clockRunning"`
	ClockIdle    tcell.Color `json:"clockIdle"`
}

// ThemeHex is a Theme as it is stored in config files
type ThemeHex struct {
	Name         string `json:"name"`
	SquareDark   string `json:"squareDark"`
	SquareLight  string `json:"squareLight"`
	SquareLed    string `json:"squareLed"`
	White        string `json:"white"`
	Black        string `json:"black"`
	Sensor       string `json:"sensor"`
	Missing      string `json:"missing"`
	Rank         string `json:"rank"`
	File         string `json:"file"`
	Msg          string `json:"msg"`
	PanelOn      string `json:"panelOn"`
	PanelOff     string `json:"panelOff"`
	ClockRunning string `json:"clockRunning"`
	ClockIdle    string `json:"clockIdle"`
}

// fmtHex keeps ColorDefault distinguishable from black.
func fmtHex(v int32) string {
	if v == -1 {
		return "#0"
	}
	return fmt.Sprintf("#%06x", v)
}

// Hex converts a Theme to a ThemeHex
func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		t.Name,
		fmtHex(t.SquareDark.Hex()),
		fmtHex(t.SquareLight.Hex()),
		fmtHex(t.SquareLed.Hex()),
		fmtHex(t.White.Hex()),
		fmtHex(t.Black.Hex()),
		fmtHex(t.Sensor.Hex()),
		fmtHex(t.Missing.Hex()),
		fmtHex(t.Rank.Hex()),
		fmtHex(t.File.Hex()),
		fmtHex(t.Msg.Hex()),
		fmtHex(t.PanelOn.Hex()),
		fmtHex(t.PanelOff.Hex()),
		fmtHex(t.ClockRunning.Hex()),
		fmtHex(t.ClockIdle.Hex()),
	}
}

// Theme converts a ThemeHex to a Theme
func (t ThemeHex) Theme() Theme {
	return Theme{
		t.Name,
		tcell.GetColor(t.SquareDark),
		tcell.GetColor(t.SquareLight),
		tcell.GetColor(t.SquareLed),
		tcell.GetColor(t.White),
		tcell.GetColor(t.Black),
		tcell.GetColor(t.Sensor),
		tcell.GetColor(t.Missing),
		tcell.GetColor(t.Rank),
		tcell.GetColor(t.File),
		tcell.GetColor(t.Msg),
		tcell.GetColor(t.PanelOn),
		tcell.GetColor(t.PanelOff),
		tcell.GetColor(t.ClockRunning),
		tcell.GetColor(t.ClockIdle),
	}
}

var ErrNoTheme = errors.New("theme: no theme found")

// ImportThemes returns the theme called want, looking at the built-in
// themes after the provided ones.
func ImportThemes(want string, themes []ThemeHex) (Theme, error) {
	for _, t := range themes {
		if t.Name == want {
			return t.Theme(), nil
		}
	}
	for _, t := range []Theme{ThemeBasic, ThemeContrast} {
		if t.Name == want {
			return t, nil
		}
	}
	return Theme{}, ErrNoTheme
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	"basic",            // Name
	tcell.Color188,     // SquareDark
	tcell.Color230,     // SquareLight
	tcell.Color226,     // SquareLed
	tcell.Color232,     // White
	tcell.Color232,     // Black
	tcell.Color240,     // Sensor
	tcell.Color160,     // Missing
	tcell.Color247,     // Rank
	tcell.Color247,     // File
	tcell.Color160,     // Msg
	tcell.Color46,      // PanelOn
	tcell.Color240,     // PanelOff
	tcell.Color122,     // ClockRunning
	tcell.ColorDefault, // ClockIdle
}

var ThemeContrast = Theme{
	"contrast",
	tcell.Color94,
	tcell.Color180,
	tcell.Color196,
	tcell.Color231,
	tcell.Color16,
	tcell.Color250,
	tcell.Color201,
	tcell.Color231,
	tcell.Color231,
	tcell.Color196,
	tcell.Color46,
	tcell.Color238,
	tcell.Color46,
	tcell.Color250,
}
