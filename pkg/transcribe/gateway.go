// Package transcribe submits flushed audio units to an external
// speech+diarization service and returns speaker-attributed segments.
package transcribe

import (
	"context"

	"conversation-recall/pkg/models"
)

// Gateway is the speech/diarization collaborator. Each returned segment's
// speaker label is either an exact name (the service matched one of the
// supplied fingerprints) or a generic placeholder such as "Speaker 1".
//
// Callers treat any error as a dropped flush window: log it and move on.
// Ingestion continues regardless, so there is no retry queue.
type Gateway interface {
	Submit(ctx context.Context, audioUnit []byte, fingerprints []models.Fingerprint) ([]models.TranscriptSegment, error)
}
