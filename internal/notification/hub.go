package notification

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const defaultClientBuffer = 32

// Client is one connected dashboard session.
type Client struct {
	id         uint64
	EmployeeID string
	Role       string
	send       chan Message
}

func (c *Client) Messages() <-chan Message {
	return c.send
}

// Hub routes events to the clients connected to this process.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint64]*Client
	taps    map[uint64]chan Message
	nextID  atomic.Uint64
	buffer  int
	dropped atomic.Uint64
	logger  *zap.Logger
}

func NewHub(logger ...*zap.Logger) *Hub {
	l := zap.L().Named("notification.hub")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.hub")
	}
	return &Hub{
		clients: make(map[uint64]*Client),
		taps:    make(map[uint64]chan Message),
		buffer:  defaultClientBuffer,
		logger:  l,
	}
}

// Register adds a client; the returned func removes it and closes its queue.
func (h *Hub) Register(employeeID, role string) (*Client, func()) {
	c := &Client{
		id:         h.nextID.Add(1),
		EmployeeID: employeeID,
		Role:       role,
		send:       make(chan Message, h.buffer),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.logger.Debug("client connected", zap.String("employee_id", employeeID), zap.String("role", role))

	var once sync.Once
	return c, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, c.id)
			close(c.send)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", zap.String("employee_id", employeeID))
		})
	}
}

func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Deliver fans msg out to matching clients and taps without blocking. A full
// queue loses the message.
func (h *Hub) Deliver(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if !matches(c, msg) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.dropped.Add(1)
			h.logger.Warn("client queue full, dropping event",
				zap.String("employee_id", c.EmployeeID),
				zap.String("event", msg.Event),
			)
		}
	}

	for _, tap := range h.taps {
		select {
		case tap <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

func matches(c *Client, msg Message) bool {
	switch {
	case msg.EmployeeID != "":
		return c.EmployeeID == msg.EmployeeID
	case msg.Role != "":
		return c.Role == msg.Role
	default:
		return true
	}
}

func (h *Hub) NotifyEmployee(ctx context.Context, employeeID, event string, payload any) {
	h.send(event, employeeID, "", payload)
}

func (h *Hub) NotifyRole(ctx context.Context, role, event string, payload any) {
	h.send(event, "", role, payload)
}

func (h *Hub) Broadcast(ctx context.Context, event string, payload any) {
	h.send(event, "", "", payload)
}

func (h *Hub) send(event, employeeID, role string, payload any) {
	msg, err := newMessage(event, employeeID, role, payload)
	if err != nil {
		h.logger.Error("encode event failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.Deliver(msg)
}

func (h *Hub) Subscribe(ctx context.Context) (<-chan Message, error) {
	id := h.nextID.Add(1)
	ch := make(chan Message, h.buffer*8)

	h.mu.Lock()
	h.taps[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.taps, id)
		close(ch)
		h.mu.Unlock()
	}()
	return ch, nil
}
