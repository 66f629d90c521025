package stream

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/san-kum/rigid2d/internal/dynamo"
	"github.com/san-kum/rigid2d/internal/world"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 16
)

type BodyFrame struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

// Frame is the JSON message sent to every client after a broadcast step.
type Frame struct {
	Step   int         `json:"step"`
	Time   float64     `json:"time"`
	Bodies []BodyFrame `json:"bodies"`
}

type snapshotter interface {
	Snapshot() world.Snapshot
}

func NewFrame(step int, snap world.Snapshot) Frame {
	f := Frame{Step: step, Time: snap.Time, Bodies: make([]BodyFrame, len(snap.Bodies))}
	for i, b := range snap.Bodies {
		f.Bodies[i] = BodyFrame{ID: b.Handle().String(), X: b.X, Y: b.Y, Angle: b.Angle}
	}
	return f
}

// wsConn is the part of *websocket.Conn the hub uses.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(msgType int, data []byte) error
	WriteControl(msgType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
	Close() error
}

// client serialises writes to one connection.
type client struct {
	conn wsConn
	mu   sync.Mutex
	send chan []byte
}

func (c *client) write(msgType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(msgType, data)
}

// Hub pushes world frames to websocket clients. It implements
// dynamo.Observer, so it can be attached to a running simulator; clients
// that fall behind are dropped rather than slowing the simulation.
type Hub struct {
	upgrader websocket.Upgrader
	every    int
	log      *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub broadcasts every n-th step.
func NewHub(every int, log *zap.SugaredLogger) *Hub {
	if every < 1 {
		every = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		every:   every,
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Infow("client connected", "remote", r.RemoteAddr, "clients", n)

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop discards incoming messages and notices when the peer goes away.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop owns closing the connection; closing it also ends readLoop.
func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			h.log.Debugw("write failed", "remote", c.conn.RemoteAddr(), "error", err)
			h.drop(c)
			return
		}
	}
	c.mu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.mu.Unlock()
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) OnStep(sys dynamo.Stepper, step int) {
	if step%h.every != 0 {
		return
	}
	s, ok := sys.(snapshotter)
	if !ok {
		return
	}
	h.Broadcast(NewFrame(step, s.Snapshot()))
}

// Broadcast queues a frame for every client without blocking.
func (h *Hub) Broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.log.Errorw("encode frame", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warnw("dropping slow client", "remote", c.conn.RemoteAddr())
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

var _ dynamo.Observer = (*Hub)(nil)
