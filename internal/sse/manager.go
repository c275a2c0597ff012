package sse

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	queueSize        = 1000
	clientBufferSize = 100
)

// Client is one open event stream. A user may hold several, one per device.
type Client struct {
	ConnectedAt time.Time
	Events      chan Event
	Done        chan struct{}
	ID          string
	UserID      string

	dropped atomic.Int64
}

// Dropped reports how many events were discarded because the client fell
// behind.
func (c *Client) Dropped() int64 { return c.dropped.Load() }

// Manager fans store events out to connected clients. Events with a UserID
// go only to that user's clients; the rest go to everyone.
type Manager struct {
	logger    *slog.Logger
	heartbeat time.Duration
	wg        sync.WaitGroup

	mu      sync.RWMutex
	clients map[string]*Client
	byUser  map[string]map[string]*Client

	// queueMu guards closing the queue against concurrent Emit calls.
	queueMu sync.RWMutex
	queue   chan Event
	closed  bool
}

// NewManager creates a manager. Call Start to begin delivery.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:    logger,
		heartbeat: 30 * time.Second,
		clients:   make(map[string]*Client),
		byUser:    make(map[string]map[string]*Client),
		queue:     make(chan Event, queueSize),
	}
}

// Start runs the delivery loop until ctx is cancelled or the queue is closed
// by Shutdown.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.logger.Info("SSE manager starting")

	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-m.queue:
			if !ok {
				return
			}
			m.deliver(event)
		case <-ticker.C:
			m.deliver(NewHeartbeatEvent())
		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops accepting events, delivers what is already queued until ctx
// expires, then disconnects every client. Calling it twice is harmless.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.queueMu.Lock()
	if m.closed {
		m.queueMu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.queueMu.Unlock()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for event := range m.queue {
			m.deliver(event)
		}
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		m.logger.Warn("SSE shutdown timed out with events still queued")
	}

	m.wg.Wait()
	m.closeAllClients()
	m.logger.Info("SSE manager shut down")
	return nil
}

// Emit queues event for delivery. It never blocks: when the queue is full
// the event is dropped. Satisfies store.EventEmitter.
func (m *Manager) Emit(event any) {
	evt, ok := event.(Event)
	if !ok {
		m.logger.Error("ignoring non-SSE event", slog.Any("event", event))
		return
	}

	m.queueMu.RLock()
	defer m.queueMu.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.queue <- evt:
	default:
		m.logger.Error("SSE queue full, dropping event", slog.String("event_type", string(evt.Type)))
	}
}

// EmitToUser queues event for userID's clients only.
func (m *Manager) EmitToUser(userID string, event Event) {
	event.UserID = userID
	m.Emit(event)
}

// deliver hands event to its recipients without blocking on any of them.
func (m *Manager) deliver(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recipients := m.clients
	if event.UserID != "" {
		recipients = m.byUser[event.UserID]
	}

	sent := 0
	for _, c := range recipients {
		select {
		case c.Events <- event:
			sent++
		default:
			c.dropped.Add(1)
			m.logger.Warn("SSE client too slow, event dropped",
				slog.String("client_id", c.ID),
				slog.String("user_id", c.UserID),
				slog.String("event_type", string(event.Type)))
		}
	}

	if event.Type != EventHeartbeat {
		m.logger.Debug("event delivered",
			slog.String("event_type", string(event.Type)),
			slog.String("user_id", event.UserID),
			slog.Int("recipients", len(recipients)),
			slog.Int("sent", sent))
	}
}

// Connect registers a new client for userID.
func (m *Manager) Connect(userID string) *Client {
	c := &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		Events:      make(chan Event, clientBufferSize),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[c.ID] = c
	if m.byUser[userID] == nil {
		m.byUser[userID] = make(map[string]*Client)
	}
	m.byUser[userID][c.ID] = c
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		slog.String("client_id", c.ID),
		slog.String("user_id", userID),
		slog.Int("total_clients", total))
	return c
}

// Disconnect removes a client and closes its channels. Unknown ids are
// ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	c, ok := m.clients[clientID]
	if ok {
		m.remove(c)
	}
	total := len(m.clients)
	m.mu.Unlock()

	if !ok {
		return
	}
	close(c.Done)
	close(c.Events)

	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(c.ConnectedAt)),
		slog.Int64("dropped", c.Dropped()),
		slog.Int("total_clients", total))
}

// remove unregisters c. Caller holds m.mu.
func (m *Manager) remove(c *Client) {
	delete(m.clients, c.ID)
	if devices := m.byUser[c.UserID]; devices != nil {
		delete(devices, c.ID)
		if len(devices) == 0 {
			delete(m.byUser, c.UserID)
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// UserClientCount returns how many streams userID has open.
func (m *Manager) UserClientCount(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUser[userID])
}

func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.clients {
		close(c.Done)
		close(c.Events)
	}
	m.clients = make(map[string]*Client)
	m.byUser = make(map[string]map[string]*Client)
}
