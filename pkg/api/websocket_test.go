package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"conversation-recall/pkg/config"
	"conversation-recall/pkg/models"
	"conversation-recall/pkg/storage"
	"conversation-recall/pkg/transcribe"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lifecycleExtractor struct{}

func (lifecycleExtractor) Extract(context.Context, string) ([]models.NameCandidate, error) {
	return []models.NameCandidate{{Name: "John Smith", Confidence: models.ConfidenceHigh}}, nil
}

func (lifecycleExtractor) Summarize(context.Context, string) (models.SummaryResult, error) {
	return models.SummaryResult{Summary: "Met John Smith", Topics: []string{"introductions"}}, nil
}

func TestWebSocketSessionLifecycle(t *testing.T) {
	gw := transcribe.NewMockGateway([]models.TranscriptSegment{
		{Speaker: "Speaker 1", Text: "Hi, I'm John Smith"},
	})
	store := storage.NewMemoryStore()
	h := NewHandlers(config.SessionConfig{
		FlushInterval:   time.Minute,
		HistoryWindow:   30 * time.Second,
		FingerprintClip: 10 * time.Second,
	}, gw, lifecycleExtractor{}, store)

	router := mux.NewRouter()
	router.HandleFunc("/ws", h.WebSocketHandler)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	audio, err := json.Marshal([]byte("pcm-audio"))
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "audio_chunk", Data: audio}))
	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "end_session"}))

	var sawEvent, sawSummary bool
	for !sawSummary {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg WebSocketMessage
		require.NoError(t, conn.ReadJSON(&msg))

		switch msg.Type {
		case string(models.ResolutionNewPerson):
			var person models.PersonRecord
			require.NoError(t, json.Unmarshal(msg.Data, &person))
			assert.Equal(t, "John Smith", person.Name)
			sawEvent = true
		case "session_summary":
			var outcome map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(msg.Data, &outcome))
			sawSummary = true
		}
	}
	assert.True(t, sawEvent, "the identity event reaches the presentation adapter before the summary")

	stored, err := store.FindByName("John Smith")
	require.NoError(t, err)
	assert.Len(t, stored.Conversations, 1)
}

func TestWebSocketPingPong(t *testing.T) {
	h := NewHandlers(config.SessionConfig{FlushInterval: time.Minute}, transcribe.NewMockGateway(), lifecycleExtractor{}, storage.NewMemoryStore())

	router := mux.NewRouter()
	router.HandleFunc("/ws", h.WebSocketHandler)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "ping"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Type)
}
