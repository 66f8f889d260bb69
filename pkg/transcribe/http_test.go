package transcribe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"conversation-recall/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGatewaySubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))

		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		audioFile, _, err := r.FormFile("audio")
		require.NoError(t, err)
		audio, err := io.ReadAll(audioFile)
		require.NoError(t, err)
		assert.Equal(t, []byte("flushed-unit"), audio)

		var names []string
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("fingerprint_names")), &names))
		assert.Equal(t, []string{"Alice"}, names)

		clipFile, _, err := r.FormFile("fingerprint_Alice")
		require.NoError(t, err)
		clip, err := io.ReadAll(clipFile)
		require.NoError(t, err)
		assert.Equal(t, []byte("alice-clip"), clip)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"segments": []models.TranscriptSegment{
				{Speaker: "Alice", Text: "Good morning", StartSec: 0, EndSec: 1.5},
				{Speaker: "Speaker 1", Text: "Morning", StartSec: 1.5, EndSec: 2},
			},
		})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "test-key")
	segments, err := g.Submit(context.Background(), []byte("flushed-unit"), []models.Fingerprint{
		{Name: "Alice", Clip: []byte("alice-clip")},
	})
	require.NoError(t, err)

	require.Len(t, segments, 2)
	assert.Equal(t, "Alice", segments[0].Speaker)
	assert.Equal(t, "Speaker 1", segments[1].Speaker)
}

func TestHTTPGatewayServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no capacity", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "test-key")
	_, err := g.Submit(context.Background(), []byte("unit"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPGatewayMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "test-key")
	_, err := g.Submit(context.Background(), []byte("unit"), nil)
	assert.Error(t, err)
}

func TestHTTPGatewayTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	g := NewHTTPGateway(srv.URL, "test-key", WithTimeout(50*time.Millisecond))
	_, err := g.Submit(context.Background(), []byte("unit"), nil)
	assert.Error(t, err, "a late response is an error, not a hang")
}
