package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// LiveTimingClient consumes live session updates over WebSocket. Updates
// feed ad hoc in-race scoring; the batch pipeline never depends on them.
type LiveTimingClient struct {
	url             string
	reconnectConfig ReconnectConfig
	logger          *logrus.Logger

	mu              sync.RWMutex
	conn            *websocket.Conn
	isConnected     bool
	handlers        []UpdateHandler
	lastMessageTime time.Time
}

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// UpdateHandler is called for every decoded session update
type UpdateHandler func(update *SessionUpdate) error

// SessionUpdate is one live timing message.
type SessionUpdate struct {
	Type     string          `json:"type"`
	Season   int             `json:"season,omitempty"`
	Round    int             `json:"round,omitempty"`
	Driver   string          `json:"driver,omitempty"`
	Lap      int             `json:"lap,omitempty"`
	Position int             `json:"position,omitempty"`
	GapToAvg float64         `json:"gap_to_avg,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// subscribeMessage selects the sessions to stream.
type subscribeMessage struct {
	Op     string `json:"op"`
	Season int    `json:"season"`
	Round  int    `json:"round"`
}

// NewLiveTimingClient creates a live timing stream client
func NewLiveTimingClient(streamURL string, logger *logrus.Logger) *LiveTimingClient {
	return &LiveTimingClient{
		url:             streamURL,
		reconnectConfig: DefaultReconnectConfig(),
		handlers:        make([]UpdateHandler, 0),
		logger:          logger,
	}
}

// Connect establishes the WebSocket connection and starts the read loop
func (c *LiveTimingClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isConnected {
		return ErrAlreadyConnected
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to live timing stream: %w", err)
	}

	c.conn = conn
	c.isConnected = true
	c.lastMessageTime = time.Now()
	c.logger.WithField("url", c.url).Info("Connected to live timing stream")

	go c.readLoop()
	return nil
}

// ConnectWithRetry retries Connect with exponential backoff
func (c *LiveTimingClient) ConnectWithRetry(ctx context.Context) error {
	backoff := c.reconnectConfig.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= c.reconnectConfig.MaxRetries; attempt++ {
		lastErr = c.Connect(ctx)
		if lastErr == nil {
			return nil
		}

		c.logger.WithError(lastErr).WithField("attempt", attempt).
			Warn("Live timing connect failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * c.reconnectConfig.BackoffMultiplier)
		if backoff > c.reconnectConfig.MaxBackoff {
			backoff = c.reconnectConfig.MaxBackoff
		}
	}
	return fmt.Errorf("live timing connect failed after %d attempts: %w",
		c.reconnectConfig.MaxRetries+1, lastErr)
}

// Subscribe requests updates for one session
func (c *LiveTimingClient) Subscribe(season, round int) error {
	return c.send(subscribeMessage{Op: "subscribe", Season: season, Round: round})
}

// AddHandler registers an update handler. Handlers run on the read loop
// goroutine.
func (c *LiveTimingClient) AddHandler(handler UpdateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

func (c *LiveTimingClient) readLoop() {
	defer c.Close()

	for {
		var update SessionUpdate
		if err := c.conn.ReadJSON(&update); err != nil {
			c.logger.WithError(err).Warn("Live timing stream read failed")
			c.mu.Lock()
			c.isConnected = false
			c.mu.Unlock()
			return
		}

		c.mu.Lock()
		c.lastMessageTime = time.Now()
		handlers := c.handlers
		c.mu.Unlock()

		for _, handler := range handlers {
			if err := handler(&update); err != nil {
				c.logger.WithError(err).WithField("type", update.Type).
					Warn("Live timing handler failed")
			}
		}
	}
}

func (c *LiveTimingClient) send(msg any) error {
	c.mu.RLock()
	conn := c.conn
	connected := c.isConnected
	c.mu.RUnlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}
	return conn.WriteJSON(msg)
}

// IsConnected reports whether the stream is live
func (c *LiveTimingClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// LastMessageTime returns when the last update arrived
func (c *LiveTimingClient) LastMessageTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastMessageTime
}

// Close closes the stream connection
func (c *LiveTimingClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	c.isConnected = false
	return c.conn.Close()
}
