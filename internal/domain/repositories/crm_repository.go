package repositories

import (
	"context"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
)

// CRMStore defines the interface for the CRM store of record
type CRMStore interface {
	// GetHighlights returns the previously persisted highlights for a contact
	GetHighlights(ctx context.Context, email string) (entities.HighlightSet, error)

	// SaveHighlights persists highlights for a contact
	SaveHighlights(ctx context.Context, email string, highlights entities.HighlightSet) error

	// SaveSentiment persists the sentiment classification for a contact
	SaveSentiment(ctx context.Context, email string, sentiment entities.SentimentRecord) error
}
