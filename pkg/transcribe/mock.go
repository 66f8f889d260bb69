package transcribe

import (
	"context"
	"sync"

	"conversation-recall/pkg/models"
)

// MockGateway returns scripted segments in order and records what it was
// sent. Useful for tests and for local runs without a speech service key.
type MockGateway struct {
	mu       sync.Mutex
	scripted [][]models.TranscriptSegment
	calls    int

	Err          error
	Fingerprints [][]models.Fingerprint
}

func NewMockGateway(scripted ...[]models.TranscriptSegment) *MockGateway {
	return &MockGateway{scripted: scripted}
}

func (m *MockGateway) Submit(_ context.Context, _ []byte, fingerprints []models.Fingerprint) ([]models.TranscriptSegment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Fingerprints = append(m.Fingerprints, fingerprints)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.calls >= len(m.scripted) {
		return nil, nil
	}
	segments := m.scripted[m.calls]
	m.calls++
	return segments, nil
}

func (m *MockGateway) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
