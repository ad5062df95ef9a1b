package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadLimit  = maxRequestBodySize
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsWriteWait  = 10 * time.Second
)

// checkOrigin allows any origin when no allow-list is configured, and
// non-browser clients that send no Origin header.
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return s.origins[origin]
}

// websocketHandler handles GET /api/chat/ws. Each text frame carries a chat
// request and is answered with one chat response frame.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessions.resolve(r, r.URL.Query().Get("session_id"))

	header := http.Header{}
	if c := s.sessions.cookie(sessionID); c != nil {
		header.Add("Set-Cookie", c.String())
	}

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, header)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := s.logger.With().Str("session_id", sessionID).Logger()
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, done)

	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var resp chatResponse
		var req chatRequest
		if err := json.Unmarshal(message, &req); err != nil {
			resp = chatResponse{Response: msgInvalidMessage, Error: "invalid JSON message", SessionID: sessionID}
		} else {
			_, resp = s.answer(r, sessionID, req)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(resp); err != nil {
			logger.Warn().Err(err).Msg("websocket write failed")
			return
		}
	}
}

// pingLoop keeps the connection alive until done is closed.
func (s *Server) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
