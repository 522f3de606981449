package webui

import (
	"encoding/json"
	"fmt"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/event"
)

type MessageType string

// Outbound
const (
	TypeSetupGame   MessageType = "setup_game"
	TypeSensorsMap  MessageType = "sensors_map"
	TypeStartGame   MessageType = "start_game"
	TypeBoardUpdate MessageType = "board_update"
	TypeGameOver    MessageType = "game_over"
	TypeError       MessageType = "error"
)

// Inbound
const (
	TypeJoin        MessageType = "join"
	TypeSquareSet   MessageType = "square_set"
	TypeSquareUnset MessageType = "square_unset"
	TypeSetupDone   MessageType = "setup_done"
)

// Message is the envelope of everything sent over the socket.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type MessageGameOver struct {
	Result string `json:"result"`
	Method string `json:"method"`
}

func NewMessage(t MessageType, data interface{}) (Message, error) {
	m := Message{Type: t}
	if data == nil {
		return m, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", t, err)
	}
	m.Data = raw
	return m, nil
}

// Event translates an inbound message into a controller event.
func (m Message) Event() (event.Event, error) {
	switch m.Type {
	case TypeJoin:
		return event.Event{Kind: event.WebConnect}, nil

	case TypeSquareSet, TypeSquareUnset:
		var name string
		if err := json.Unmarshal(m.Data, &name); err != nil {
			return event.Event{}, fmt.Errorf("%s: %w", m.Type, err)
		}
		sq, err := board.ParseSquare(name)
		if err != nil {
			return event.Event{}, err
		}
		kind := event.WebSquareSet
		if m.Type == TypeSquareUnset {
			kind = event.WebSquareUnset
		}
		return event.Event{Kind: kind, From: sq}, nil

	case TypeSetupDone:
		var fen string
		if err := json.Unmarshal(m.Data, &fen); err != nil {
			return event.Event{}, fmt.Errorf("%s: %w", m.Type, err)
		}
		return event.Event{Kind: event.WebSetupDone, FEN: fen}, nil
	}
	return event.Event{}, fmt.Errorf("unknown message type %q", m.Type)
}
