package controller

import (
	"fmt"

	"github.com/qnkhuat/ecb/pkg/event"
)

type State int

const (
	Idle State = iota
	Setup
	Starting
	Stopping
	Game
	Move
	EngineMove
	PiecePromotion
	GameEnd
	GamePause
	GameError
)

var stateNames = [...]string{
	Idle:           "idle",
	Setup:          "setup",
	Starting:       "starting",
	Stopping:       "stopping",
	Game:           "game",
	Move:           "move",
	EngineMove:     "engine_move",
	PiecePromotion: "piece_promotion",
	GameEnd:        "game_end",
	GamePause:      "game_pause",
	GameError:      "game_error",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transition returns the state that handles an event. It has no side
// effects; events a state does not react to leave it unchanged.
func transition(s State, k event.Kind) State {
	switch s {
	case Idle:
		switch k {
		case event.ConfigPressed:
			return Setup
		case event.StartPressed:
			return Starting
		}

	case Setup:
		if k == event.StartPressed {
			return Starting
		}

	case Starting:
		switch k {
		case event.StartPressed:
			return Stopping
		case event.GameStarted:
			return Game
		}

	case Stopping:
		if k == event.GameStopped {
			return Idle
		}

	case Game:
		switch k {
		case event.StartPressed:
			return GamePause
		case event.MoveStarted:
			return Move
		case event.EngineMoveStarted:
			return EngineMove
		case event.ClockExpired, event.GameOver:
			return GameEnd
		case event.InvalidSquares:
			return GameError
		}

	case Move:
		switch k {
		case event.MoveEnded, event.MoveAborted:
			return Game
		case event.PromotionStarted:
			return PiecePromotion
		case event.ClockExpired:
			return GameEnd
		case event.InvalidSquares:
			return GameError
		}

	case EngineMove:
		switch k {
		case event.EngineMoveEnded:
			return Game
		case event.ClockExpired, event.GameOver:
			return GameEnd
		case event.InvalidSquares:
			return GameError
		}

	case PiecePromotion:
		switch k {
		case event.MoveEnded:
			return Game
		case event.ClockExpired:
			return GameEnd
		}

	case GameEnd:
		if k == event.StartPressed {
			return Stopping
		}

	case GamePause:
		switch k {
		case event.GameForceStop:
			return Stopping
		case event.GameResume:
			return Game
		case event.ClockExpired:
			return GameEnd
		}

	case GameError:
		switch k {
		case event.ErrorEnd:
			return Game
		case event.ClockExpired:
			return GameEnd
		}
	}
	return s
}

// InGame reports whether a game board is active in s.
func (s State) InGame() bool {
	switch s {
	case Game, Move, EngineMove, PiecePromotion, GameEnd, GamePause, GameError:
		return true
	}
	return false
}
