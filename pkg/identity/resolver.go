// Package identity resolves anonymous per-session speaker placeholders into
// durable person identities.
//
// Placeholders move through a two-state machine: Unbound until a
// high-confidence name is attributed to them, then Bound for the rest of
// the session. A binding is immutable; later candidates for a bound
// placeholder are logged and dropped.
package identity

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"conversation-recall/pkg/llm"
	"conversation-recall/pkg/models"
	"conversation-recall/pkg/storage"
)

// ClipSource supplies a recent audio clip for minting a voice fingerprint
// when a new person is identified mid-conversation.
type ClipSource interface {
	RecentClip(d time.Duration) []byte
}

var (
	introPattern       = regexp.MustCompile(`(?i)\b(i'?m|i am|my name is|call me|this is)\b`)
	placeholderPattern = regexp.MustCompile(`(?i)^speaker[ _]?\d+$`)
)

// IsPlaceholder reports whether a speaker label is a generic diarization
// placeholder rather than a resolved name.
func IsPlaceholder(speaker string) bool {
	return placeholderPattern.MatchString(strings.TrimSpace(speaker))
}

// Resolver is the per-session identity state machine. It is not safe for
// concurrent use; the owning session feeds it from a single goroutine.
type Resolver struct {
	store     storage.PersonStore
	extractor llm.Extractor
	clips     ClipSource

	bufferCap  int
	checkEvery int
	clipLen    time.Duration

	utterances []models.Utterance // attribution buffer, FIFO capped
	transcript []models.Utterance // full session transcript, uncapped
	bindings   map[string]*models.PersonRecord
	count      int

	now func() time.Time
}

type Options struct {
	UtteranceBufferCap int           // default 20
	NameCheckEvery     int           // default 10
	FingerprintClip    time.Duration // default 10s
}

func NewResolver(store storage.PersonStore, extractor llm.Extractor, clips ClipSource, opts Options) *Resolver {
	if opts.UtteranceBufferCap <= 0 {
		opts.UtteranceBufferCap = 20
	}
	if opts.NameCheckEvery <= 0 {
		opts.NameCheckEvery = 10
	}
	if opts.FingerprintClip <= 0 {
		opts.FingerprintClip = 10 * time.Second
	}
	return &Resolver{
		store:      store,
		extractor:  extractor,
		clips:      clips,
		bufferCap:  opts.UtteranceBufferCap,
		checkEvery: opts.NameCheckEvery,
		clipLen:    opts.FingerprintClip,
		bindings:   make(map[string]*models.PersonRecord),
		now:        time.Now,
	}
}

// OnSegments processes one transcription batch and returns the identity
// events it produced, in order. Collaborator failures are logged and
// swallowed; the session loop never sees an error from here.
func (r *Resolver) OnSegments(ctx context.Context, segments []models.TranscriptSegment) []models.Resolution {
	var results []models.Resolution

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		// Fast path: the service matched a supplied fingerprint and
		// returned an exact name instead of a placeholder. That is a
		// high-confidence binding with no text heuristics involved.
		if !IsPlaceholder(seg.Speaker) {
			if res := r.bind(seg.Speaker, seg.Speaker); res.Kind != models.ResolutionNoAction {
				results = append(results, res)
			}
		}

		r.appendUtterance(models.Utterance{
			Speaker:   seg.Speaker,
			Text:      text,
			Timestamp: r.now(),
		})
		r.count++

		if introPattern.MatchString(text) || r.count%r.checkEvery == 0 {
			results = append(results, r.checkForNames(ctx)...)
		}
	}
	return results
}

func (r *Resolver) appendUtterance(u models.Utterance) {
	r.transcript = append(r.transcript, u)
	r.utterances = append(r.utterances, u)
	if len(r.utterances) > r.bufferCap {
		r.utterances = r.utterances[len(r.utterances)-r.bufferCap:]
	}
}

// checkForNames sends the attribution buffer to the extraction collaborator
// and attempts to bind every high-confidence candidate.
func (r *Resolver) checkForNames(ctx context.Context) []models.Resolution {
	candidates, err := r.extractor.Extract(ctx, formatUtterances(r.utterances))
	if err != nil {
		log.Printf("Resolver: name extraction failed, continuing unbound: %v", err)
		return nil
	}

	var results []models.Resolution
	for _, candidate := range candidates {
		if candidate.Confidence != models.ConfidenceHigh {
			continue
		}
		placeholder := r.attributeSpeaker(candidate.Name)
		if placeholder == "" {
			log.Printf("Resolver: name %q not attributable to a speaker, discarded", candidate.Name)
			continue
		}
		if res := r.bind(placeholder, candidate.Name); res.Kind != models.ResolutionNoAction {
			results = append(results, res)
		}
	}
	return results
}

// attributeSpeaker finds which placeholder introduced themselves with the
// given name: the most recent of the last 10 buffered utterances that both
// contains the name and matches an introduction pattern. Best effort;
// overlapping speech can defeat it.
func (r *Resolver) attributeSpeaker(name string) string {
	recent := r.utterances
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	for i := len(recent) - 1; i >= 0; i-- {
		u := recent[i]
		if !IsPlaceholder(u.Speaker) {
			continue
		}
		lower := strings.ToLower(u.Text)
		if strings.Contains(lower, strings.ToLower(name)) && introPattern.MatchString(u.Text) {
			return u.Speaker
		}
	}
	return ""
}

// bind resolves placeholder to a person record, creating one when the name
// is unknown. A placeholder that is already bound stays bound for the
// session regardless of what later candidates claim.
func (r *Resolver) bind(placeholder, name string) models.Resolution {
	noAction := models.Resolution{Kind: models.ResolutionNoAction, Placeholder: placeholder}

	if existing, bound := r.bindings[placeholder]; bound {
		if !strings.EqualFold(existing.Name, name) {
			log.Printf("Resolver: binding conflict for %s: already %q, ignoring %q", placeholder, existing.Name, name)
		}
		return noAction
	}

	kind := models.ResolutionRecognized
	record, err := r.store.FindByName(name)
	switch {
	case err == storage.ErrPersonNotFound:
		var clip []byte
		if r.clips != nil {
			clip = r.clips.RecentClip(r.clipLen)
		}
		record = models.NewPersonRecord(name, clip)
		kind = models.ResolutionNewPerson
	case err != nil:
		log.Printf("Resolver: person lookup for %q failed: %v", name, err)
		return noAction
	default:
		record.LastMet = r.now()
	}

	if err := r.store.Store(record); err != nil {
		// In-memory binding survives; persistence retries at session end.
		log.Printf("Resolver: failed to persist %q: %v", name, err)
	}

	r.bindings[placeholder] = record
	log.Printf("Resolver: bound %s to %q (%s)", placeholder, record.Name, kind)
	return models.Resolution{Kind: kind, Placeholder: placeholder, Person: record}
}

// Bindings returns the placeholder → name map for this session.
func (r *Resolver) Bindings() map[string]string {
	bindings := make(map[string]string, len(r.bindings))
	for placeholder, record := range r.bindings {
		bindings[placeholder] = record.Name
	}
	return bindings
}

// Participants returns every distinct person bound during the session.
func (r *Resolver) Participants() []*models.PersonRecord {
	seen := make(map[string]bool, len(r.bindings))
	var people []*models.PersonRecord
	for _, record := range r.bindings {
		if seen[record.ID] {
			continue
		}
		seen[record.ID] = true
		people = append(people, record)
	}
	return people
}

// Transcript returns the full session transcript with bound placeholders
// substituted by resolved names. Unbound placeholders stay anonymous.
func (r *Resolver) Transcript() string {
	substituted := make([]models.Utterance, len(r.transcript))
	for i, u := range r.transcript {
		if record, bound := r.bindings[u.Speaker]; bound {
			u.Speaker = record.Name
		}
		substituted[i] = u
	}
	return formatUtterances(substituted)
}

func formatUtterances(utterances []models.Utterance) string {
	lines := make([]string, 0, len(utterances))
	for _, u := range utterances {
		lines = append(lines, u.Speaker+": "+u.Text)
	}
	return strings.Join(lines, "\n")
}
