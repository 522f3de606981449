package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/notnil/chess/uci"
)

type Level int

const (
	LevelDisabled Level = iota
	LevelEasy
	LevelMedium
	LevelHard

	numLevels
)

func (l Level) String() string {
	switch l {
	case LevelDisabled:
		return "disabled"
	case LevelEasy:
		return "easy"
	case LevelMedium:
		return "medium"
	case LevelHard:
		return "hard"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Next cycles through the levels, wrapping to disabled.
func (l Level) Next() Level {
	return (l + 1) % numLevels
}

// Profile is the engine strength used for a level.
type Profile struct {
	Skill    int           // engine "Skill Level" option
	Depth    int           // fixed search depth, 0 = unlimited
	MoveTime time.Duration // fixed search time, 0 = use the clocks
	Ponder   bool          // speculative search on the predicted reply

	// Book moves are picked from the entries whose cumulative weight
	// percentile falls in [BookMin, BookMax].
	BookMin, BookMax int
}

var profiles = map[Level]Profile{
	LevelEasy:   {Skill: 0, Depth: 2, MoveTime: 500 * time.Millisecond, BookMin: 40, BookMax: 100},
	LevelMedium: {Skill: 8, Depth: 8, MoveTime: time.Second, BookMin: 10, BookMax: 100},
	LevelHard:   {Skill: 20, Ponder: true, BookMin: 0, BookMax: 60},
}

// DefaultHardMoveTime is used by the hard level when the game has no clocks.
const DefaultHardMoveTime = 3 * time.Second

func ProfileFor(l Level) Profile {
	return profiles[l]
}

// Options are the engine options sent after the handshake.
func (p Profile) Options() []uci.CmdSetOption {
	return []uci.CmdSetOption{
		{Name: "Skill Level", Value: strconv.Itoa(p.Skill)},
	}
}

// GoCommand builds the search command. Clock times are used only when the
// profile does not fix the search time.
func (p Profile) GoCommand(white, black time.Duration) uci.CmdGo {
	cmd := uci.CmdGo{Depth: p.Depth, MoveTime: p.MoveTime}
	if cmd.MoveTime == 0 {
		if white > 0 && black > 0 {
			cmd.WhiteTime, cmd.BlackTime = white, black
		} else if cmd.Depth == 0 {
			cmd.MoveTime = DefaultHardMoveTime
		}
	}
	return cmd
}
