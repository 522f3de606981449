package driver

import "strings"

// Command panel buttons.
const (
	BtnMode  uint8 = 1 << 0
	BtnLevel uint8 = 1 << 1
	BtnColor uint8 = 1 << 2
	BtnTime  uint8 = 1 << 3
	BtnStart uint8 = 1 << 4

	BtnConfig = BtnMode | BtnLevel | BtnColor | BtnTime
)

// Command panel LEDs.
const (
	LedStart  uint8 = 1 << 0
	LedColor  uint8 = 1 << 1
	LedLevel0 uint8 = 1 << 2
	LedLevel1 uint8 = 1 << 3
	LedLevel2 uint8 = 1 << 4
	LedMode   uint8 = 1 << 5
	LedWifi   uint8 = 1 << 6
	LedBT     uint8 = 1 << 7

	LedLevels = LedLevel0 | LedLevel1 | LedLevel2
	LedAll    = uint8(0xff)
)

type Button string

const (
	ButtonMode  Button = "mode"
	ButtonLevel Button = "level"
	ButtonColor Button = "color"
	ButtonTime  Button = "time"
	ButtonStart Button = "start"
)

var buttonMasks = map[Button]uint8{
	ButtonMode:  BtnMode,
	ButtonLevel: BtnLevel,
	ButtonColor: BtnColor,
	ButtonTime:  BtnTime,
	ButtonStart: BtnStart,
}

// ButtonMask looks up a button by name.
func ButtonMask(name string) (uint8, bool) {
	mask, ok := buttonMasks[Button(strings.ToLower(name))]
	return mask, ok
}

// ButtonNames lists the names of the buttons set in mask.
func ButtonNames(mask uint8) []string {
	var names []string
	for _, b := range []Button{ButtonMode, ButtonLevel, ButtonColor, ButtonTime, ButtonStart} {
		if mask&buttonMasks[b] != 0 {
			names = append(names, string(b))
		}
	}
	return names
}
