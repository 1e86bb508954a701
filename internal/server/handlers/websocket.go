// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// AnalysisSubscriber delivers raw analysis-completed events
type AnalysisSubscriber interface {
	SubscribeAnalyses(handler func(data []byte)) (unsubscribe func(), err error)
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64

	// Outbound messages buffered per client before events are dropped
	SendBuffer int
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4 * 1024,
		SendBuffer:     64,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type feedMessage struct {
	Type  string          `json:"type"`
	Time  time.Time       `json:"time"`
	Event json.RawMessage `json:"event,omitempty"`
}

// analysisClient is one connected feed consumer
type analysisClient struct {
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()
	config      WebSocketConfig
	logger      zerolog.Logger
}

// AnalysisWebSocketHandler streams completed analyses to WebSocket clients
func AnalysisWebSocketHandler(subscriber AnalysisSubscriber, config WebSocketConfig, logger zerolog.Logger) http.HandlerFunc {
	logger = logger.With().Str("handler", "analysis_feed").Logger()
	if config.PingPeriod <= 0 || config.SendBuffer <= 0 {
		config = DefaultWebSocketConfig()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if subscriber == nil {
			respondWithError(w, logger, http.StatusServiceUnavailable, "Live feed is not available", nil)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to upgrade to WebSocket")
			return
		}

		client := &analysisClient{
			conn:   conn,
			send:   make(chan []byte, config.SendBuffer),
			done:   make(chan struct{}),
			config: config,
			logger: logger.With().Str("remote", r.RemoteAddr).Logger(),
		}

		welcome, _ := json.Marshal(feedMessage{Type: "welcome", Time: time.Now().UTC()})
		client.enqueue(welcome)

		unsubscribe, err := subscriber.SubscribeAnalyses(client.relay)
		if err != nil {
			client.logger.Error().Err(err).Msg("Failed to subscribe to analysis events")
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
				time.Now().Add(config.WriteWait))
			_ = conn.Close()
			return
		}
		client.unsubscribe = unsubscribe

		go client.writePump()
		go client.readPump()

		client.logger.Debug().Msg("Analysis feed client connected")
	}
}

// relay wraps a raw event and queues it for the client
func (c *analysisClient) relay(data []byte) {
	msg, err := json.Marshal(feedMessage{Type: "analysis.completed", Time: time.Now().UTC(), Event: data})
	if err != nil {
		c.logger.Warn().Err(err).Msg("Dropping malformed analysis event")
		return
	}
	c.enqueue(msg)
}

func (c *analysisClient) enqueue(msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		c.logger.Warn().Msg("Client is too slow, dropping event")
	}
}

// readPump only services control frames; clients do not send data
func (c *analysisClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}
	}
}

// writePump pumps queued messages to the WebSocket connection
func (c *analysisClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close unsubscribes and closes the connection once
func (c *analysisClient) close() {
	c.closeOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		close(c.done)
		_ = c.conn.Close()
		c.logger.Debug().Msg("Analysis feed client disconnected")
	})
}
