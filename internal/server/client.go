package server

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/aiosforge/internal/logging"
)

// wsWriteTimeout bounds a single frame write so a stalled browser cannot
// block a chat stream forever.
const wsWriteTimeout = 10 * time.Second

// Client is an authenticated WebSocket connection from the wizard UI.
type Client struct {
	ConnID      string
	Info        ClientInfo
	Auth        AuthResult
	ConnectedAt time.Time

	conn     *websocket.Conn
	requests atomic.Int64
	deltas   atomic.Int64

	mu     sync.Mutex
	closed bool
}

// newClient wraps a connection that passed the connect handshake.
func newClient(conn *websocket.Conn, info ClientInfo, auth AuthResult) *Client {
	return &Client{
		ConnID:      uuid.New().String(),
		Info:        info,
		Auth:        auth,
		ConnectedAt: time.Now(),
		conn:        conn,
	}
}

// Send writes a frame. Safe for concurrent use.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(frame)
}

// SendEvent sends a named event with payload. Chat deltas are counted for
// the disconnect log.
func (c *Client) SendEvent(event string, payload any, seq int64) error {
	f, err := NewEvent(event, payload, seq)
	if err != nil {
		return err
	}
	if event == EventChatDelta {
		c.deltas.Add(1)
	}
	return c.Send(f)
}

// Respond sends a success response for the given request ID.
func (c *Client) Respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// RespondError sends an error response for the given request ID.
func (c *Client) RespondError(reqID string, errShape ErrorShape) error {
	return c.Send(NewErrorResponse(reqID, errShape))
}

// readFrame blocks for the next frame. Only the read loop calls it.
func (c *Client) readFrame() (Frame, error) {
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Frame{}, err
	}
	c.requests.Add(1)
	return f, nil
}

// Close sends a close frame with reason and closes the connection.
// Calling it again is a no-op.
func (c *Client) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
	return c.conn.Close()
}

// ClientRegistry tracks connected clients for health reporting and shutdown.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *logging.Logger
}

func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
		log:     log,
	}
}

func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ConnID] = c
	r.log.Info().Str("connId", c.ConnID).Str("client", c.Info.ID).Int("connected", len(r.clients)).Msg("client connected")
}

// Remove unregisters c and logs what the connection did.
func (r *ClientRegistry) Remove(c *Client) {
	r.mu.Lock()
	delete(r.clients, c.ConnID)
	n := len(r.clients)
	r.mu.Unlock()

	r.log.Info().
		Str("connId", c.ConnID).
		Dur("duration", time.Since(c.ConnectedAt)).
		Int64("frames", c.requests.Load()).
		Int64("deltas", c.deltas.Load()).
		Int("connected", n).
		Msg("client disconnected")
}

// Count returns the number of connected clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// CloseAll tells every client the server is going away and drops them.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		c.Close(websocket.CloseGoingAway, "server shutting down")
		delete(r.clients, id)
	}
}
