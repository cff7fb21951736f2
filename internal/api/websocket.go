package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	subBuffer    = 64
)

// handleTrackingWS streams tracking events to the client as they happen
func (s *Server) handleTrackingWS(w http.ResponseWriter, r *http.Request) {
	if s.dispatcher == nil {
		respondError(w, http.StatusServiceUnavailable, "live tracking feed disabled", nil)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		slog.Debug("WebSocket upgrade failed", slog.Any("error", err))
		return
	}

	s.metrics.IncrementConnections()
	defer s.metrics.DecrementConnections()

	events, unsubscribe := s.dispatcher.Subscribe(subBuffer)
	defer unsubscribe()

	c := &feedConn{conn: conn}
	defer c.close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		c.readLoop()
		cancel()
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-events:
			if !ok {
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			data, err := env.Encode()
			if err != nil {
				slog.Warn("Failed to encode tracking event", slog.Any("error", err))
				continue
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// checkOrigin applies the CORS origin list to websocket upgrades.
// Requests without an Origin header are not from browsers and are allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	for _, allowed := range s.allowedOrigins() {
		if allowed == "*" || allowed == origin {
			return true
		}
		if ok, _ := path.Match(allowed, origin); ok {
			return true
		}
	}
	return false
}

type feedConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
}

func (c *feedConn) write(msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(msgType, data)
}

// readLoop drains client frames so pongs and close frames are processed.
// It returns when the client goes away or stops answering pings.
func (c *feedConn) readLoop() {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *feedConn) close() {
	c.once.Do(func() { c.conn.Close() })
}
