package webui

import (
	"encoding/json"
	"io/ioutil"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/event"
)

func newTestHub(t *testing.T) (*Hub, chan event.Event, *websocket.Conn, func()) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(ioutil.Discard)

	events := make(chan event.Event, 16)
	hub := NewHub(func(e event.Event) { events <- e }, log)
	server := httptest.NewServer(hub)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client not registered")
		}
		time.Sleep(time.Millisecond)
	}

	return hub, events, ws, func() {
		ws.Close()
		server.Close()
	}
}

func send(t *testing.T, ws *websocket.Conn, typ MessageType, data interface{}) {
	t.Helper()
	msg, err := NewMessage(typ, data)
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatal(err)
	}
}

func receive(t *testing.T, ws *websocket.Conn) Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(time.Second))
	var msg Message
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func nextEvent(t *testing.T, events chan event.Event) event.Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	return event.Event{}
}

func TestInboundMessages(t *testing.T) {
	_, events, ws, cleanup := newTestHub(t)
	defer cleanup()

	send(t, ws, TypeJoin, nil)
	if e := nextEvent(t, events); e.Kind != event.WebConnect {
		t.Errorf("expected web_connect, got %s", e)
	}

	send(t, ws, TypeSquareSet, "e4")
	if e := nextEvent(t, events); e.Kind != event.WebSquareSet || e.From != chess.E4 {
		t.Errorf("unexpected event %s from=%s", e, e.From)
	}

	send(t, ws, TypeSquareUnset, "a8")
	if e := nextEvent(t, events); e.Kind != event.WebSquareUnset || e.From != chess.A8 {
		t.Errorf("unexpected event %s from=%s", e, e.From)
	}

	fen := "7k/P7/8/8/8/8/8/4K3 w - - 0 1"
	send(t, ws, TypeSetupDone, fen)
	if e := nextEvent(t, events); e.Kind != event.WebSetupDone || e.FEN != fen {
		t.Errorf("unexpected event %s", e)
	}
}

func TestBadMessage(t *testing.T) {
	_, events, ws, cleanup := newTestHub(t)
	defer cleanup()

	send(t, ws, TypeSquareSet, "z9")
	if msg := receive(t, ws); msg.Type != TypeError {
		t.Errorf("expected an error reply, got %s", msg.Type)
	}

	send(t, ws, "resign", nil)
	if msg := receive(t, ws); msg.Type != TypeError {
		t.Errorf("expected an error reply, got %s", msg.Type)
	}

	select {
	case e := <-events:
		t.Errorf("unexpected event %s", e)
	default:
	}
}

func TestNotifications(t *testing.T) {
	hub, _, ws, cleanup := newTestHub(t)
	defer cleanup()

	hub.SetupGame()
	if msg := receive(t, ws); msg.Type != TypeSetupGame {
		t.Errorf("expected setup_game, got %s", msg.Type)
	}

	hub.SensorsMap(board.StartMap)
	msg := receive(t, ws)
	var rows []int
	if err := json.Unmarshal(msg.Data, &rows); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeSensorsMap || len(rows) != 8 || rows[0] != 0xff || rows[3] != 0 {
		t.Errorf("unexpected sensors map %s %v", msg.Type, rows)
	}

	fen := chess.NewGame().FEN()
	hub.StartGame(fen)
	msg = receive(t, ws)
	var got string
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeStartGame || got != fen {
		t.Errorf("unexpected start_game %s %q", msg.Type, got)
	}

	hub.GameOver("1-0", "Checkmate")
	msg = receive(t, ws)
	var over MessageGameOver
	if err := json.Unmarshal(msg.Data, &over); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeGameOver || over.Result != "1-0" || over.Method != "Checkmate" {
		t.Errorf("unexpected game_over %+v", over)
	}
}

func TestDisconnect(t *testing.T) {
	hub, events, ws, cleanup := newTestHub(t)
	defer cleanup()

	ws.Close()
	if e := nextEvent(t, events); e.Kind != event.WebDisconnect {
		t.Errorf("expected web_disconnect, got %s", e)
	}
	if hub.Clients() != 0 {
		t.Errorf("client still registered")
	}
}
