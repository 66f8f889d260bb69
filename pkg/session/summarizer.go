package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"conversation-recall/pkg/identity"
	"conversation-recall/pkg/llm"
	"conversation-recall/pkg/models"
	"conversation-recall/pkg/storage"
)

// FallbackSummary is stored when the summarization collaborator fails. A
// failed summarization must not drop the meeting from history.
const FallbackSummary = "Error generating summary"

// Summarizer produces the end-of-session summary and appends one
// conversation entry to every identified participant's record.
type Summarizer struct {
	extractor llm.Extractor
	store     storage.PersonStore

	now func() time.Time
}

func NewSummarizer(extractor llm.Extractor, store storage.PersonStore) *Summarizer {
	return &Summarizer{
		extractor: extractor,
		store:     store,
		now:       time.Now,
	}
}

// Finish substitutes resolved names into the session transcript, asks the
// collaborator for a summary (degrading to FallbackSummary on any error)
// and persists a ConversationEntry per participant. Persistence failures
// are collected into the returned error for optional retry by the caller;
// the summary result is valid regardless.
func (s *Summarizer) Finish(ctx context.Context, resolver *identity.Resolver, started time.Time) (models.SummaryResult, time.Duration, error) {
	end := s.now()
	duration := end.Sub(started)

	transcript := resolver.Transcript()
	participants := resolver.Participants()
	if transcript == "" {
		return models.SummaryResult{}, duration, nil
	}

	result, err := s.extractor.Summarize(ctx, transcript)
	if err != nil {
		log.Printf("Summarizer: summarization failed, using fallback: %v", err)
		result = models.SummaryResult{Summary: FallbackSummary}
	}

	entry := models.ConversationEntry{
		Date:        end,
		Summary:     result.Summary,
		Topics:      result.Topics,
		KeyPoints:   result.KeyPoints,
		DurationSec: duration.Seconds(),
	}

	var storeErrs []error
	for _, person := range participants {
		person.Conversations = append(person.Conversations, entry)
		person.LastMet = end
		if err := s.store.Store(person); err != nil {
			log.Printf("Summarizer: failed to persist entry for %q: %v", person.Name, err)
			storeErrs = append(storeErrs, fmt.Errorf("persist %q: %w", person.Name, err))
		}
	}
	return result, duration, errors.Join(storeErrs...)
}
