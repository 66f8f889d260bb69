package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"conversation-recall/pkg/models"
)

type httpGateway struct {
	url     string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

// GatewayOption configures an HTTP gateway.
type GatewayOption func(*httpGateway)

// WithTimeout bounds each transcription request. It should be on the order
// of the flush interval so a slow service cannot stack up requests.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *httpGateway) {
		g.timeout = d
	}
}

func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *httpGateway) {
		g.client = c
	}
}

// NewHTTPGateway returns a Gateway that POSTs multipart requests to a
// speech service: one "audio" file part for the flushed unit, a
// "fingerprint_names" JSON field listing known voices, and one
// "fingerprint_<name>" file part per reference clip.
func NewHTTPGateway(url, apiKey string, opts ...GatewayOption) Gateway {
	g := &httpGateway{
		url:     url,
		apiKey:  apiKey,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: g.timeout}
	}
	return g
}

type transcribeResponse struct {
	Segments []models.TranscriptSegment `json:"segments"`
}

func (g *httpGateway) Submit(ctx context.Context, audioUnit []byte, fingerprints []models.Fingerprint) ([]models.TranscriptSegment, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fileWriter, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fileWriter.Write(audioUnit); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	names := make([]string, 0, len(fingerprints))
	for _, fp := range fingerprints {
		names = append(names, fp.Name)
	}
	encodedNames, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fingerprint names: %w", err)
	}
	if err := writer.WriteField("fingerprint_names", string(encodedNames)); err != nil {
		return nil, fmt.Errorf("failed to write fingerprint names: %w", err)
	}
	for _, fp := range fingerprints {
		fpWriter, err := writer.CreateFormFile("fingerprint_"+fp.Name, fp.Name+".wav")
		if err != nil {
			return nil, fmt.Errorf("failed to create fingerprint part: %w", err)
		}
		if _, err := fpWriter.Write(fp.Clip); err != nil {
			return nil, fmt.Errorf("failed to write fingerprint clip: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize request body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription service error %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}
	return decoded.Segments, nil
}
