package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"conversation-recall/pkg/models"
	"conversation-recall/pkg/session"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketMessage is the envelope for both directions of the live
// conversation channel. The device sends audio_chunk, ping and
// end_session; the server pushes identity events, session_summary, pong
// and error.
type WebSocketMessage struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// wsConn serializes writes: identity events arrive from the session's
// flush goroutine while the read loop also replies on the same socket.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msg WebSocketMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("WebSocket: write failed: %v", err)
	}
}

// WebSocketHandler runs one conversation session per connection. The
// session is constructed on upgrade and torn down exactly once when the
// device ends the session or the socket drops.
func (h *Handlers) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ws := &wsConn{conn: conn}
	sink := func(res models.Resolution) {
		ws.send(WebSocketMessage{
			Type: string(res.Kind),
			Data: mustMarshal(res.Person),
		})
	}

	sess := session.New(h.sessionCfg, h.gateway, h.extractor, h.store, sink)
	sess.Start(r.Context())

	for {
		var msg WebSocketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("Session %s: connection dropped: %v", sess.ID, err)
			h.teardown(sess, nil)
			return
		}

		switch msg.Type {
		case "audio_chunk":
			var data []byte
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				ws.send(WebSocketMessage{Type: "error", Error: "Invalid audio data format"})
				continue
			}
			sess.Ingest(data)
		case "end_session":
			h.teardown(sess, ws)
			return
		case "ping":
			ws.send(WebSocketMessage{Type: "pong"})
		default:
			ws.send(WebSocketMessage{Type: "error", Error: "Unknown message type"})
		}
	}
}

// teardown closes the session; when the socket is still writable the final
// outcome is pushed as a session_summary message.
func (h *Handlers) teardown(sess *session.Session, ws *wsConn) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	outcome, err := sess.Close(ctx)
	if err != nil {
		log.Printf("Session %s: close finished with persistence errors: %v", sess.ID, err)
	}
	if ws != nil {
		ws.send(WebSocketMessage{
			Type: "session_summary",
			Data: mustMarshal(outcome),
		})
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
