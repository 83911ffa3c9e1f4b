package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"interlude/internal/logging"
	"interlude/internal/notify"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS already gates the HTTP surface; the handshake inherits it.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebSocket streams progress-change events. Optional "userId" and
// "episodeId" query params narrow the feed.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeError(w, http.StatusServiceUnavailable, "event feed disabled")
		return
	}

	filter := notify.Filter{}
	if value := r.URL.Query().Get("userId"); value != "" {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid user filter")
			return
		}
		filter.UserID = id
	}
	if value := r.URL.Query().Get("episodeId"); value != "" {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid episode filter")
			return
		}
		filter.EpisodeID = id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}

	events, cancel := s.hub.Subscribe(filter)
	defer cancel()
	defer conn.Close()

	// Reader goroutine: drains control frames and signals disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
