package gateway

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/logging"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 5 * time.Second
	// sendQueueSize is how many broadcast frames a client may lag behind
	// before it is disconnected.
	sendQueueSize = 64
)

// Client is an authenticated operator feed connection.
type Client struct {
	ConnID      string
	Info        ClientInfo
	Socket      *websocket.Conn
	Operator    domain.AdminUser
	ConnectedAt time.Time

	queue     chan Frame
	done      chan struct{}
	mu        sync.Mutex // serializes writes
	closed    atomic.Bool
	closeOnce sync.Once
	log       *logging.Logger
}

// NewClient wraps a connection that completed the connect handshake and
// starts its broadcast writer.
func NewClient(conn *websocket.Conn, info ClientInfo, op domain.AdminUser, log *logging.Logger) *Client {
	c := &Client{
		ConnID:      uuid.New().String(),
		Info:        info,
		Socket:      conn,
		Operator:    op,
		ConnectedAt: time.Now(),
		queue:       make(chan Frame, sendQueueSize),
		done:        make(chan struct{}),
		log:         log,
	}
	go c.writeLoop()
	return c
}

// Enqueue hands a frame to the client's writer without blocking. Frames
// leave in the order they were enqueued.
func (c *Client) Enqueue(frame Frame) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.queue <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case frame := <-c.queue:
			if err := c.Send(frame); err != nil {
				if !errors.Is(err, ErrClientClosed) {
					c.log.Debug().Err(err).Str("connId", c.ConnID).Msg("feed write failed")
				}
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Send writes a frame. Safe for concurrent use.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return ErrClientClosed
	}
	c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Socket.WriteJSON(frame)
}

// Respond sends a success response for the given request id.
func (c *Client) Respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// RespondError sends an error response for the given request id.
func (c *Client) RespondError(reqID string, errShape ErrorShape) error {
	return c.Send(NewErrorResponse(reqID, errShape))
}

// ReadFrame reads the next frame.
func (c *Client) ReadFrame() (Frame, error) {
	_, msg, err := c.Socket.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Close closes the connection. It does not wait for a write in progress,
// which fails once the socket is gone.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		err = c.Socket.Close()
	})
	return err
}

// ClientRegistry tracks connected feed clients.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client // connID → Client
	log     *logging.Logger

	// sendMu orders broadcasts so seq matches every client's queue order.
	sendMu sync.Mutex
	seq    int64
}

// NewClientRegistry creates an empty registry.
func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Add registers a client.
func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ConnID] = c
	r.log.Info().Str("connId", c.ConnID).Str("operator", c.Operator.ID).Msg("feed client connected")
}

// Remove unregisters a client.
func (r *ClientRegistry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, connID)
	r.log.Info().Str("connId", connID).Msg("feed client disconnected")
}

// Count returns the number of connected clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast queues an event for every client and returns without waiting
// for any socket write. A client whose queue is full is disconnected.
func (r *ClientRegistry) Broadcast(event string, payload any) {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	frame, err := NewEvent(event, payload, r.seq+1)
	if err != nil {
		r.log.Error().Err(err).Str("event", event).Msg("encoding broadcast")
		return
	}
	r.seq++

	r.mu.RLock()
	targets := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		err := c.Enqueue(frame)
		switch {
		case err == nil:
		case errors.Is(err, ErrSendQueueFull):
			r.log.Warn().Str("connId", c.ConnID).Str("event", event).Msg("dropping slow feed client")
			c.Close()
		default:
			r.log.Debug().Err(err).Str("connId", c.ConnID).Msg("broadcast skipped")
		}
	}
}

// CloseAll closes every client.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		c.Close()
		delete(r.clients, id)
	}
}
