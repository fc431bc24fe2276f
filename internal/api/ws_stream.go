package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
	wsWriteTimeout    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsReadBufferSize,
	WriteBufferSize: wsWriteBufferSize,
	// The server binds to loopback; browser cross-origin access is allowed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (handler *Handler) handleEventsStream(w http.ResponseWriter, r *http.Request) {
	if handler.Bus == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	events, cancel := handler.Bus.Subscribe()
	serveWSStream(w, r, handler, events, cancel)
}

func (handler *Handler) handleLogsStream(w http.ResponseWriter, r *http.Request) {
	if handler.Logger == nil {
		http.Error(w, "log stream unavailable", http.StatusServiceUnavailable)
		return
	}
	entries, cancel := handler.Logger.Subscribe()
	if entries == nil {
		http.Error(w, "log stream unavailable", http.StatusServiceUnavailable)
		return
	}
	serveWSStream(w, r, handler, entries, cancel)
}

// serveWSStream upgrades the connection and forwards channel values as JSON
// until the subscription closes or the peer goes away.
func serveWSStream[T any](w http.ResponseWriter, r *http.Request, handler *Handler, output <-chan T, cancel func()) {
	if !validateToken(r, handler.AuthToken) {
		cancel()
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		if handler.Logger != nil {
			handler.Logger.Warn("websocket upgrade failed", map[string]string{
				"component": "api",
				"path":      r.URL.Path,
				"error":     err.Error(),
			})
		}
		return
	}
	defer conn.Close()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case value, ok := <-output:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(wsWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(value); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
