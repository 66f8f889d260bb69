package models

import (
	"time"

	"github.com/google/uuid"
)

// AudioChunk is a single unit of raw audio received from the device.
type AudioChunk struct {
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptSegment is one speaker-attributed span returned by the speech
// service for a flushed audio unit. Speaker is either an exact person name
// (the service matched a supplied fingerprint) or a generic placeholder
// such as "Speaker 1".
type TranscriptSegment struct {
	Speaker  string  `json:"speaker"`
	Text     string  `json:"text"`
	StartSec float64 `json:"start"`
	EndSec   float64 `json:"end"`
}

// Utterance is a transcript segment as buffered by the identity resolver.
type Utterance struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Fingerprint is a short reference clip that lets the speech service
// recognize a known voice.
type Fingerprint struct {
	Name string `json:"name"`
	Clip []byte `json:"clip"`
}

// ConversationEntry is one meeting in a person's history. Entries are
// appended at session end and never mutated.
type ConversationEntry struct {
	Date        time.Time `json:"date"`
	Summary     string    `json:"summary"`
	Topics      []string  `json:"topics"`
	KeyPoints   []string  `json:"key_points"`
	DurationSec float64   `json:"duration_sec"`
}

// PersonRecord is the durable record of a person the wearer has met.
type PersonRecord struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	SpeakerID     string              `json:"speaker_id"`
	Fingerprint   []byte              `json:"fingerprint,omitempty"`
	Conversations []ConversationEntry `json:"conversations"`
	LastMet       time.Time           `json:"last_met"`
}

func NewPersonRecord(name string, fingerprint []byte) *PersonRecord {
	id := uuid.New().String()
	return &PersonRecord{
		ID:          id,
		Name:        name,
		SpeakerID:   id,
		Fingerprint: fingerprint,
		LastMet:     time.Now(),
	}
}

// VoiceFingerprint returns the person's enrollment clip labelled with their
// name, or nil if no clip was captured.
func (p *PersonRecord) VoiceFingerprint() *Fingerprint {
	if len(p.Fingerprint) == 0 {
		return nil
	}
	return &Fingerprint{Name: p.Name, Clip: p.Fingerprint}
}

// Confidence tiers for extracted name candidates. Only high-confidence
// candidates may drive a speaker binding.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// NameCandidate is one name the extraction collaborator found in a
// transcript.
type NameCandidate struct {
	Name       string     `json:"name"`
	Confidence Confidence `json:"confidence"`
}

// SummaryResult is the summarization collaborator's output for a session.
type SummaryResult struct {
	Summary   string   `json:"summary"`
	Topics    []string `json:"topics"`
	KeyPoints []string `json:"key_points"`
}

// ResolutionKind tags the outcome of one identity decision.
type ResolutionKind string

const (
	ResolutionNoAction   ResolutionKind = "no_action"
	ResolutionNewPerson  ResolutionKind = "new_person_identified"
	ResolutionRecognized ResolutionKind = "speaker_recognized"
)

// Resolution is a single identity event produced by the resolver and
// consumed by the presentation adapter. Person is nil for no_action.
type Resolution struct {
	Kind        ResolutionKind `json:"kind"`
	Placeholder string         `json:"placeholder,omitempty"`
	Person      *PersonRecord  `json:"person,omitempty"`
}
