// Package session owns the lifecycle of one live conversation: the flush
// loop that drives transcription, the identity resolver fed by it, and the
// end-of-session summarization pass.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"conversation-recall/pkg/audio"
	"conversation-recall/pkg/config"
	"conversation-recall/pkg/identity"
	"conversation-recall/pkg/llm"
	"conversation-recall/pkg/models"
	"conversation-recall/pkg/storage"
	"conversation-recall/pkg/transcribe"

	"github.com/google/uuid"
)

// Sink receives identity events for presentation. Rendering is entirely the
// adapter's responsibility; the core never renders.
type Sink func(models.Resolution)

// Outcome is what a closed session leaves behind.
type Outcome struct {
	Participants []*models.PersonRecord `json:"participants"`
	Summary      models.SummaryResult   `json:"summary"`
	DurationSec  float64                `json:"duration_sec"`
}

// Session is one isolated live conversation. All state is session-scoped;
// nothing is shared across sessions.
type Session struct {
	ID string

	buffer     *audio.IngestBuffer
	gateway    transcribe.Gateway
	resolver   *identity.Resolver
	summarizer *Summarizer
	store      storage.PersonStore
	cfg        config.SessionConfig
	sink       Sink

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started time.Time

	closeOnce sync.Once
	outcome   *Outcome
	closeErr  error
}

func New(cfg config.SessionConfig, gateway transcribe.Gateway, extractor llm.Extractor, store storage.PersonStore, sink Sink) *Session {
	buffer := audio.NewIngestBuffer(cfg.HistoryWindow)
	resolver := identity.NewResolver(store, extractor, buffer, identity.Options{
		UtteranceBufferCap: cfg.UtteranceBufferCap,
		NameCheckEvery:     cfg.NameCheckEvery,
		FingerprintClip:    cfg.FingerprintClip,
	})
	return &Session{
		ID:         uuid.New().String(),
		buffer:     buffer,
		gateway:    gateway,
		resolver:   resolver,
		summarizer: NewSummarizer(extractor, store),
		store:      store,
		cfg:        cfg,
		sink:       sink,
		started:    time.Now(),
	}
}

// Start launches the periodic flush loop. Flushes are processed by a single
// goroutine, so at most one transcription request is in flight at a time;
// the buffer swap happens before the request, so ingestion never blocks on
// network I/O.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.started = time.Now()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.processFlush(ctx)
			case <-ctx.Done():
				log.Printf("Session %s: flush loop stopped", s.ID)
				return
			}
		}
	}()
	log.Printf("Session %s: started", s.ID)
}

// Ingest feeds raw audio from the device into the session buffer.
func (s *Session) Ingest(data []byte) {
	s.buffer.Ingest(data)
}

// processFlush drains the audio buffer, submits the unit for transcription
// and feeds the resulting segments to the resolver. A failed transcription
// drops the unit: ingestion has continued into the fresh buffer, so losing
// one flush window keeps the live display available.
func (s *Session) processFlush(ctx context.Context) {
	unit := s.buffer.Flush()
	if unit == nil {
		return
	}

	segments, err := s.gateway.Submit(ctx, unit, s.knownFingerprints())
	if err != nil {
		log.Printf("Session %s: transcription failed, dropping unit (%d bytes): %v", s.ID, len(unit), err)
		return
	}
	if ctx.Err() != nil {
		// Late response after teardown; the resolver is gone.
		return
	}

	for _, res := range s.resolver.OnSegments(ctx, segments) {
		if s.sink != nil {
			s.sink(res)
		}
	}
}

// knownFingerprints gathers enrollment clips for every stored person so the
// speech service can label returning voices by name.
func (s *Session) knownFingerprints() []models.Fingerprint {
	people, err := s.store.List()
	if err != nil {
		log.Printf("Session %s: listing people for fingerprints failed: %v", s.ID, err)
		return nil
	}
	var fingerprints []models.Fingerprint
	for _, person := range people {
		if fp := person.VoiceFingerprint(); fp != nil {
			fingerprints = append(fingerprints, *fp)
		}
	}
	return fingerprints
}

// Close cancels the flush timer, runs exactly one final flush pass
// synchronously so the tail of the conversation is not lost, then
// summarizes and persists one conversation entry per identified
// participant. The returned error reports persistence failures only; the
// Outcome is complete either way. Close is idempotent.
func (s *Session) Close(ctx context.Context) (*Outcome, error) {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()

		s.processFlush(ctx)

		summary, duration, err := s.summarizer.Finish(ctx, s.resolver, s.started)
		s.outcome = &Outcome{
			Participants: s.resolver.Participants(),
			Summary:      summary,
			DurationSec:  duration.Seconds(),
		}
		s.closeErr = err
		log.Printf("Session %s: closed with %d participant(s)", s.ID, len(s.outcome.Participants))
	})
	return s.outcome, s.closeErr
}
