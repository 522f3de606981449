package controller

import (
	"fmt"
	"time"

	"github.com/notnil/chess"

	"github.com/qnkhuat/ecb/pkg/driver"
	"github.com/qnkhuat/ecb/pkg/engine"
)

type Mode int

const (
	ModeNormal Mode = iota
	// ModeLearn lights the legal destinations of a lifted piece.
	ModeLearn
)

func (m Mode) String() string {
	if m == ModeLearn {
		return "learn"
	}
	return "normal"
}

// TimeAllotments are the clock presets cycled by the time button. The
// position after the last one disables time control.
var TimeAllotments = []time.Duration{
	5 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	60 * time.Minute,
	90 * time.Minute,
}

var levelLeds = map[engine.Level]uint8{
	engine.LevelDisabled: 0,
	engine.LevelEasy:     driver.LedLevel0,
	engine.LevelMedium:   driver.LedLevel1,
	engine.LevelHard:     driver.LedLevel2,
}

// GameConfig is chosen on the command panel and persists across games.
type GameConfig struct {
	Mode        Mode
	Level       engine.Level
	EngineColor chess.Color
	// index into TimeAllotments; len(TimeAllotments) means no time control
	TimeIndex int
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		Mode:        ModeLearn,
		Level:       engine.LevelEasy,
		EngineColor: chess.Black,
	}
}

func (g *GameConfig) ModeChange() {
	if g.Mode == ModeLearn {
		g.Mode = ModeNormal
	} else {
		g.Mode = ModeLearn
	}
}

func (g *GameConfig) LevelChange() {
	g.Level = g.Level.Next()
}

func (g *GameConfig) ColorChange() {
	g.EngineColor = g.EngineColor.Other()
}

func (g *GameConfig) TimeChange() {
	g.TimeIndex = (g.TimeIndex + 1) % (len(TimeAllotments) + 1)
}

// Apply changes the settings of every config button set in mask.
func (g *GameConfig) Apply(mask uint8) {
	if mask&driver.BtnMode != 0 {
		g.ModeChange()
	}
	if mask&driver.BtnLevel != 0 {
		g.LevelChange()
	}
	if mask&driver.BtnColor != 0 {
		g.ColorChange()
	}
	if mask&driver.BtnTime != 0 {
		g.TimeChange()
	}
}

func (g GameConfig) TimeControl() bool {
	return g.TimeIndex >= 0 && g.TimeIndex < len(TimeAllotments)
}

// Allotment is the starting time of each clock, zero without time control.
func (g GameConfig) Allotment() time.Duration {
	if !g.TimeControl() {
		return 0
	}
	return TimeAllotments[g.TimeIndex]
}

func (g GameConfig) EngineEnabled() bool {
	return g.Level != engine.LevelDisabled
}

// Update presets both clocks and shows the settings on the panel.
func (g GameConfig) Update(drv driver.Driver) {
	for _, id := range []driver.ClockID{driver.ClockBottom, driver.ClockTop} {
		if g.TimeControl() {
			drv.ClockSet(id, g.Allotment())
		} else {
			drv.ClockBlank(id)
		}
	}
	g.UpdateLeds(drv)
}

// UpdateLeds shows mode, level and engine colour on the panel LEDs.
func (g GameConfig) UpdateLeds(drv driver.Driver) {
	setLed(drv, driver.LedMode, g.Mode == ModeLearn)
	setLed(drv, driver.LedColor, g.EngineColor == chess.White)
	drv.PanelLedOff(driver.LedLevels)
	if mask := levelLeds[g.Level]; mask != 0 {
		drv.PanelLedOn(mask)
	}
}

func (g GameConfig) String() string {
	clock := "off"
	if g.TimeControl() {
		clock = g.Allotment().String()
	}
	return fmt.Sprintf("mode=%s level=%s engine=%s clock=%s", g.Mode, g.Level, g.EngineColor.Name(), clock)
}

func setLed(drv driver.Driver, mask uint8, on bool) {
	if on {
		drv.PanelLedOn(mask)
	} else {
		drv.PanelLedOff(mask)
	}
}
