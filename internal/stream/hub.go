package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/lastprice/internal/model"
)

// Config controls per-client buffering.
type Config struct {
	SendBuffer   int
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:   64,
		WriteTimeout: 5 * time.Second,
	}
}

// Message is the JSON frame sent to subscribers.
type Message struct {
	Type         string              `json:"type"`
	CompletionID uuid.UUID           `json:"completion_id"`
	BatchID      int64               `json:"batch_id"`
	CompletedAt  int64               `json:"completed_at"`
	Records      []model.PriceRecord `json:"records"`
}

// Stats reports hub counters.
type Stats struct {
	Clients   int   `json:"clients"`
	Broadcast int64 `json:"broadcast"`
	Dropped   int64 `json:"dropped"`
}

// Hub fans completions out to connected WebSocket clients.
// It implements feed.Sink and http.Handler.
type Hub struct {
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	// Owned by run
	clients map[*client]struct{}

	numClients atomic.Int64
	sent       atomic.Int64
	dropped    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

// NewHub creates a hub. Call Start before serving connections.
func NewHub(cfg Config, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultConfig().SendBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 16),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the hub loop.
func (h *Hub) Start(ctx context.Context) error {
	h.ctx, h.cancel = context.WithCancel(ctx)

	h.wg.Add(1)
	go h.run()

	h.logger.Info("stream hub started", "send_buffer", h.cfg.SendBuffer)
	return nil
}

// Stop disconnects every client and stops the hub loop.
func (h *Hub) Stop(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("stream hub stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name identifies the hub in dispatcher logs.
func (h *Hub) Name() string {
	return "stream"
}

// HandleCompletion broadcasts c to every connected client.
func (h *Hub) HandleCompletion(ctx context.Context, c model.Completion) error {
	b, err := json.Marshal(Message{
		Type:         "completion",
		CompletionID: c.ID,
		BatchID:      c.BatchID,
		CompletedAt:  c.CompletedAt,
		Records:      c.Records,
	})
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}

	select {
	case h.broadcast <- b:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP upgrades the request and registers the new client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Stats returns current counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Clients:   int(h.numClients.Load()),
		Broadcast: h.sent.Load(),
		Dropped:   h.dropped.Load(),
	}
}

func (h *Hub) run() {
	defer h.wg.Done()
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			for c := range h.clients {
				h.removeClient(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.numClients.Store(int64(len(h.clients)))
			h.logger.Debug("stream client connected", "remote", c.conn.RemoteAddr().String())

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.removeClient(c)
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.dropped.Add(1)
					h.logger.Warn("dropping slow stream client", "remote", c.conn.RemoteAddr().String())
					h.removeClient(c)
				}
			}
			h.sent.Add(1)
		}
	}
}

func (h *Hub) removeClient(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.numClients.Store(int64(len(h.clients)))
}
