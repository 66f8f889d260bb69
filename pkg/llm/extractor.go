// Package llm implements the name-extraction and summarization collaborator
// over an OpenAI-compatible chat-completions API.
package llm

import (
	"context"

	"conversation-recall/pkg/models"
)

// Extractor is the language-model collaborator used by the identity
// resolver and the conversation summarizer. Implementations must return an
// error for malformed service output rather than guessing; callers convert
// errors into no-ops or degraded defaults, never session aborts.
type Extractor interface {
	Extract(ctx context.Context, transcript string) ([]models.NameCandidate, error)
	Summarize(ctx context.Context, transcript string) (models.SummaryResult, error)
}
