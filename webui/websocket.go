package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go_imagegen/logging"
	"go_imagegen/pipeline"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketBroadcaster manages client connections and broadcasts generation
// lifecycle events to all connected clients.
//
// It implements pipeline.Observer so it can be attached directly to the
// generation pipeline. Thread-safe for concurrent connections and broadcasts.
type WebSocketBroadcaster struct {
	clients   map[*websocket.Conn]clientInfo
	clientsMu sync.RWMutex

	broadcast  chan WSMessage
	register   chan *websocket.Conn
	unregister chan *websocket.Conn

	upgrader websocket.Upgrader
	logger   *logging.Logger

	pingInterval   time.Duration
	pongWait       time.Duration
	writeWait      time.Duration
	maxMessageSize int64
}

// clientInfo stores metadata about a connected client.
type clientInfo struct {
	connectedAt time.Time
	remoteAddr  string
	send        chan []byte
}

// BroadcasterConfig holds configuration for the WebSocketBroadcaster.
type BroadcasterConfig struct {
	// PingInterval is how often to send ping messages (default: 30s)
	PingInterval time.Duration

	// PongWait is how long to wait for pong response (default: 60s)
	PongWait time.Duration

	// WriteWait is time allowed to write a message (default: 10s)
	WriteWait time.Duration

	// MaxMessageSize is max message size from client (default: 512 bytes)
	MaxMessageSize int64

	// BroadcastBufferSize is the broadcast channel buffer (default: 256)
	BroadcastBufferSize int
}

// DefaultBroadcasterConfig returns the default configuration.
func DefaultBroadcasterConfig() BroadcasterConfig {
	return BroadcasterConfig{
		PingInterval:        30 * time.Second,
		PongWait:            60 * time.Second,
		WriteWait:           10 * time.Second,
		MaxMessageSize:      512,
		BroadcastBufferSize: 256,
	}
}

// NewWebSocketBroadcaster creates a broadcaster with default configuration.
// Call Start to begin processing messages.
func NewWebSocketBroadcaster(logger *logging.Logger) *WebSocketBroadcaster {
	return NewWebSocketBroadcasterWithConfig(logger, DefaultBroadcasterConfig())
}

// NewWebSocketBroadcasterWithConfig creates a broadcaster with custom configuration.
func NewWebSocketBroadcasterWithConfig(logger *logging.Logger, config BroadcasterConfig) *WebSocketBroadcaster {
	if logger == nil {
		logger = logging.NewTestLogger()
	}

	return &WebSocketBroadcaster{
		clients:        make(map[*websocket.Conn]clientInfo),
		broadcast:      make(chan WSMessage, config.BroadcastBufferSize),
		register:       make(chan *websocket.Conn),
		unregister:     make(chan *websocket.Conn),
		logger:         logger,
		pingInterval:   config.PingInterval,
		pongWait:       config.PongWait,
		writeWait:      config.WriteWait,
		maxMessageSize: config.MaxMessageSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin deployment: all origins accepted
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Start runs the broadcast loop until the context is cancelled.
func (b *WebSocketBroadcaster) Start(ctx context.Context) {
	pingTicker := time.NewTicker(b.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.closeAllClients()
			return

		case conn := <-b.register:
			b.addClient(conn)

		case conn := <-b.unregister:
			b.removeClient(conn)

		case message := <-b.broadcast:
			b.broadcastToAll(message)

		case <-pingTicker.C:
			b.sendPingToAll()
		}
	}
}

// HandleConnection upgrades an HTTP request to a WebSocket connection and
// manages the client lifecycle.
func (b *WebSocketBroadcaster) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		return
	}

	conn.SetReadLimit(b.maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(b.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(b.pongWait))
		return nil
	})

	b.register <- conn
	go b.readPump(conn)
}

// BroadcastMessage queues a message for delivery to all clients.
// Non-blocking: if the broadcast buffer is full, the message is dropped.
func (b *WebSocketBroadcaster) BroadcastMessage(msg WSMessage) {
	select {
	case b.broadcast <- msg:
	default:
		b.logger.Warn("broadcast buffer full, dropping message",
			zap.String("type", msg.Type))
	}
}

// ClientCount returns the current number of connected clients.
func (b *WebSocketBroadcaster) ClientCount() int {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	return len(b.clients)
}

// GenerationStarted implements pipeline.Observer.
func (b *WebSocketBroadcaster) GenerationStarted(id, prompt string) {
	b.BroadcastMessage(NewWSMessage(MessageTypeGenerationStarted, GenerationStartedData{
		ID:     id,
		Prompt: prompt,
	}))
}

// GenerationCompleted implements pipeline.Observer.
func (b *WebSocketBroadcaster) GenerationCompleted(rec pipeline.Record) {
	b.BroadcastMessage(NewWSMessage(MessageTypeGenerationCompleted, GenerationCompletedData{
		ID:         rec.ID,
		Prompt:     rec.Prompt,
		Quality:    rec.Quality,
		Steps:      rec.Steps,
		DurationMS: rec.Duration.Milliseconds(),
		Status:     rec.Status,
		Error:      rec.ErrorMessage,
		Batch:      rec.Batch,
	}))
}

func (b *WebSocketBroadcaster) addClient(conn *websocket.Conn) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()

	info := clientInfo{
		connectedAt: time.Now(),
		remoteAddr:  conn.RemoteAddr().String(),
		send:        make(chan []byte, 256),
	}
	b.clients[conn] = info

	go b.writePump(conn, info.send)

	b.logger.Debug("websocket client connected",
		zap.String("remote_addr", info.remoteAddr),
		zap.Int("total", len(b.clients)))
}

func (b *WebSocketBroadcaster) removeClient(conn *websocket.Conn) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()

	if info, ok := b.clients[conn]; ok {
		close(info.send)
		delete(b.clients, conn)
		conn.Close()
		b.logger.Debug("websocket client disconnected",
			zap.String("remote_addr", info.remoteAddr),
			zap.Int("total", len(b.clients)))
	}
}

func (b *WebSocketBroadcaster) broadcastToAll(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Warn("failed to marshal broadcast message", zap.Error(err))
		return
	}

	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()

	for conn, info := range b.clients {
		select {
		case info.send <- data:
		default:
			// Client send buffer full, drop the connection
			go func(c *websocket.Conn) {
				b.unregister <- c
			}(conn)
		}
	}
}

func (b *WebSocketBroadcaster) sendPingToAll() {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()

	for conn := range b.clients {
		conn.SetWriteDeadline(time.Now().Add(b.writeWait))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			go func(c *websocket.Conn) {
				b.unregister <- c
			}(conn)
		}
	}
}

func (b *WebSocketBroadcaster) closeAllClients() {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()

	for conn, info := range b.clients {
		close(info.send)
		conn.Close()
		delete(b.clients, conn)
	}
}

// readPump consumes client messages. Clients are not expected to send
// anything beyond pongs; the pump exists to detect disconnects.
func (b *WebSocketBroadcaster) readPump(conn *websocket.Conn) {
	defer func() {
		b.unregister <- conn
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *WebSocketBroadcaster) writePump(conn *websocket.Conn, send <-chan []byte) {
	defer conn.Close()

	for message := range send {
		conn.SetWriteDeadline(time.Now().Add(b.writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(b.writeWait))
	conn.WriteMessage(websocket.CloseMessage, []byte{})
}
