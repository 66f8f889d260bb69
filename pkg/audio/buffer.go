package audio

import (
	"sync"
	"time"

	"conversation-recall/pkg/models"
)

// IngestBuffer accumulates raw audio from the device. It keeps two views of
// the stream: a flush buffer that is drained on every transcription cycle,
// and a rolling history used to cut reference clips for voice fingerprints.
type IngestBuffer struct {
	mu      sync.Mutex
	pending []models.AudioChunk
	history []models.AudioChunk
	window  time.Duration

	now func() time.Time
}

func NewIngestBuffer(window time.Duration) *IngestBuffer {
	return &IngestBuffer{
		window: window,
		now:    time.Now,
	}
}

// Ingest appends a chunk to the flush buffer and the rolling history.
// History eviction runs on every call so memory stays bounded regardless of
// flush cadence.
func (b *IngestBuffer) Ingest(data []byte) {
	now := b.now()
	chunk := models.AudioChunk{Data: data, Timestamp: now}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, chunk)
	b.history = append(b.history, chunk)
	b.evictLocked(now)
}

// Flush swaps out the current flush buffer and returns its contents
// concatenated into one audio unit. It returns nil when nothing was
// ingested since the last flush; callers must not submit a nil unit.
// New audio keeps accumulating in the fresh buffer while the caller's
// transcription request is in flight.
func (b *IngestBuffer) Flush() []byte {
	b.mu.Lock()
	chunks := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(chunks) == 0 {
		return nil
	}
	return concat(chunks)
}

// RecentClip returns the concatenated audio ingested within [now-d, now],
// or nil if the history holds nothing in that range. Used to mint a voice
// fingerprint for a newly identified person.
func (b *IngestBuffer) RecentClip(d time.Duration) []byte {
	now := b.now()
	cutoff := now.Add(-d)

	b.mu.Lock()
	defer b.mu.Unlock()

	var recent []models.AudioChunk
	for _, chunk := range b.history {
		if !chunk.Timestamp.Before(cutoff) {
			recent = append(recent, chunk)
		}
	}
	if len(recent) == 0 {
		return nil
	}
	return concat(recent)
}

func (b *IngestBuffer) evictLocked(now time.Time) {
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.history) && b.history[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		b.history = append([]models.AudioChunk(nil), b.history[i:]...)
	}
}

func concat(chunks []models.AudioChunk) []byte {
	size := 0
	for _, c := range chunks {
		size += len(c.Data)
	}
	unit := make([]byte, 0, size)
	for _, c := range chunks {
		unit = append(unit, c.Data...)
	}
	return unit
}
