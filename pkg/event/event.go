package event

import (
	"fmt"

	"github.com/notnil/chess"
)

type Kind int

const (
	Unknown Kind = iota

	// Hardware
	SensorsChanged
	ClockExpired
	ConfigPressed
	StartPressed

	// Game flow
	GameStarted
	GameStopped
	GameOver
	GameForceStop
	GameResume
	MoveStarted
	MoveEnded
	MoveAborted
	EngineMoveStarted
	EngineMoveEnded
	PromotionStarted
	PromotionEnded
	PonderingFinished
	InvalidSquares
	ErrorEnd

	// Timers scheduled by a state
	SettleElapsed
	DebounceElapsed
	PauseGuardElapsed

	// Remote UI
	WebConnect
	WebDisconnect
	WebSquareSet
	WebSquareUnset
	WebSetupDone
)

var kindNames = map[Kind]string{
	Unknown:           "unknown",
	SensorsChanged:    "sensors_changed",
	ClockExpired:      "clock_expired",
	ConfigPressed:     "config_pressed",
	StartPressed:      "start_pressed",
	GameStarted:       "game_started",
	GameStopped:       "game_stopped",
	GameOver:          "game_over",
	GameForceStop:     "game_force_stop",
	GameResume:        "game_resume",
	MoveStarted:       "move_started",
	MoveEnded:         "move_ended",
	MoveAborted:       "move_aborted",
	EngineMoveStarted: "engine_move_started",
	EngineMoveEnded:   "engine_move_ended",
	PromotionStarted:  "promotion_started",
	PromotionEnded:    "promotion_ended",
	PonderingFinished: "pondering_finished",
	InvalidSquares:    "invalid_squares",
	ErrorEnd:          "error_end",
	SettleElapsed:     "settle_elapsed",
	DebounceElapsed:   "debounce_elapsed",
	PauseGuardElapsed: "pause_guard_elapsed",
	WebConnect:        "web_connect",
	WebDisconnect:     "web_disconnect",
	WebSquareSet:      "web_square_set",
	WebSquareUnset:    "web_square_unset",
	WebSetupDone:      "web_setup_done",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is a tagged value with an optional payload. Only the fields relevant
// to Kind are set. Events must not be modified after they are pushed.
type Event struct {
	Kind Kind

	Squares []chess.Square // changed, invalid or legal destination squares
	From    chess.Square
	To      chess.Square
	Promo   chess.PieceType

	Clock   int   // driver clock id
	Buttons uint8 // command panel mask

	Move   *chess.Move
	Ponder *chess.Move
	Token  uint64 // engine request token

	FEN string

	// Epoch of the state that scheduled a timer event.
	Epoch uint64

	// Engine move that arrived while an error was being resolved.
	Deferred *Event
}

func (e Event) String() string {
	switch e.Kind {
	case SensorsChanged, InvalidSquares:
		return fmt.Sprintf("%s %v", e.Kind, e.Squares)
	case ClockExpired:
		return fmt.Sprintf("%s clock=%d", e.Kind, e.Clock)
	case ConfigPressed, StartPressed:
		return fmt.Sprintf("%s buttons=%#02x", e.Kind, e.Buttons)
	case MoveStarted, MoveEnded, PromotionStarted:
		return fmt.Sprintf("%s %s-%s", e.Kind, e.From, e.To)
	case EngineMoveStarted, PonderingFinished:
		return fmt.Sprintf("%s %v ponder=%v token=%d", e.Kind, e.Move, e.Ponder, e.Token)
	case WebSetupDone:
		return fmt.Sprintf("%s %q", e.Kind, e.FEN)
	default:
		return e.Kind.String()
	}
}
