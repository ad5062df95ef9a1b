package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/olasis/olasis-service/internal/assistant"
	"github.com/olasis/olasis-service/internal/domain"
)

func dialChat(t *testing.T, ts *httptest.Server, query string, header http.Header) (*websocket.Conn, *http.Response) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/chat/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn, resp
}

func TestWebsocket_ChatRoundTrip(t *testing.T) {
	srv, d := newTestHTTPServer()
	d.assistant.askFn = func(_ context.Context, _ string, req assistant.Request) (assistant.Reply, error) {
		return assistant.Reply{Text: "echo: " + req.Message, Lang: domain.English, Status: assistant.StatusOK}, nil
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, resp := dialChat(t, ts, "?session_id=ws-session", nil)

	if resp.Header.Get("Set-Cookie") == "" {
		t.Error("expected session cookie on upgrade response")
	}

	for _, msg := range []string{"first", "second"} {
		if err := conn.WriteJSON(map[string]string{"message": msg}); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		var reply chatResponse
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if reply.Response != "echo: "+msg || reply.Lang != "en" || reply.SessionID != "ws-session" {
			t.Errorf("unexpected reply: %+v", reply)
		}
	}
	if d.assistant.lastSession() != "ws-session" {
		t.Errorf("expected ws-session, got %q", d.assistant.lastSession())
	}
}

func TestWebsocket_InvalidFrames(t *testing.T) {
	srv, d := newTestHTTPServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _ := dialChat(t, ts, "", nil)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var reply chatResponse
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if reply.Error == "" || reply.Response != msgInvalidMessage {
		t.Errorf("expected error frame, got %+v", reply)
	}

	if err := conn.WriteJSON(map[string]string{"message": "  "}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reply = chatResponse{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if reply.Error == "" {
		t.Errorf("expected validation error frame, got %+v", reply)
	}
	if d.assistant.lastSession() != "" {
		t.Error("assistant must not be called for invalid frames")
	}
}

func TestWebsocket_OriginAllowList(t *testing.T) {
	srv, _ := newTestHTTPServer()
	srv.origins = map[string]bool{"https://olasis.example": true}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/chat/ws"

	_, resp, err := websocket.DefaultDialer.Dial(u, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("expected dial from a foreign origin to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}

	conn, _ := dialChat(t, ts, "", http.Header{"Origin": {"https://olasis.example"}})
	if conn == nil {
		t.Fatal("expected allowed origin to connect")
	}
}
