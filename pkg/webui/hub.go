// Package webui is the remote UI transport: a websocket hub that
// broadcasts game notifications and turns client messages into events.
package webui

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/controller"
	"github.com/qnkhuat/ecb/pkg/event"
)

const (
	SendQueueSize   = 64
	ShutdownTimeout = 2 * time.Second
	writeWait       = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the board is on the local network; any page may talk to it
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Message
}

// Hub keeps the connected clients. Inbound messages are handed to enqueue.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client

	enqueue func(event.Event)
	log     logrus.FieldLogger
}

var _ controller.Notifier = (*Hub)(nil)

func NewHub(enqueue func(event.Event), log logrus.FieldLogger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		enqueue: enqueue,
		log:     log,
	}
}

// ServeHTTP upgrades the request and serves the client until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan Message, SendQueueSize),
	}
	h.register(c)
	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"client": c.id, "remote": c.conn.RemoteAddr(), "clients": n}).Info("client connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		h.log.WithField("client", c.id).Info("client disconnected")
		h.enqueue(event.Event{Kind: event.WebDisconnect})
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.log.WithError(err).WithField("client", c.id).Debug("write failed")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(err).WithField("client", c.id).Warn("read failed")
			}
			return
		}

		e, err := msg.Event()
		if err != nil {
			h.log.WithError(err).WithField("client", c.id).Warn("bad message")
			if reply, encErr := NewMessage(TypeError, err.Error()); encErr == nil {
				h.sendTo(c, reply)
			}
			continue
		}
		h.enqueue(e)
	}
}

func (h *Hub) sendTo(c *client, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.log.WithField("client", c.id).Warn("client too slow, dropping message")
	}
}

// Broadcast sends msg to every client. Clients that do not keep up lose
// the message.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.WithField("client", id).Warn("client too slow, dropping message")
		}
	}
}

// closeAll drops every client; hijacked connections outlive the server.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.conn.Close()
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) notify(t MessageType, data interface{}) {
	msg, err := NewMessage(t, data)
	if err != nil {
		h.log.WithError(err).Error("dropping notification")
		return
	}
	h.Broadcast(msg)
}

func (h *Hub) SetupGame() {
	h.notify(TypeSetupGame, nil)
}

func (h *Hub) SensorsMap(m board.Map) {
	h.notify(TypeSensorsMap, m.Rows())
}

func (h *Hub) StartGame(fen string) {
	h.notify(TypeStartGame, fen)
}

func (h *Hub) BoardUpdate(fen string) {
	h.notify(TypeBoardUpdate, fen)
}

func (h *Hub) GameOver(result, method string) {
	h.notify(TypeGameOver, MessageGameOver{Result: result, Method: method})
}

// ListenAndServe serves the hub on /ws until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	h.log.WithField("addr", addr).Info("remote UI listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		h.closeAll()
		return err
	}
}
