package backend

import (
	"context"
	"errors"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
	"github.com/johnquangdev/sales-assistant/internal/domain/repositories"
)

// TokenSource returns a currently valid bearer token for the backend
type TokenSource func(ctx context.Context) (string, error)

// CRMStore exposes the backend's HubSpot endpoints as a repositories.CRMStore
// bound to one user's credentials
type CRMStore struct {
	client *Client
	token  TokenSource
}

var _ repositories.CRMStore = (*CRMStore)(nil)

// NewCRMStore binds the client to a token source
func NewCRMStore(client *Client, token TokenSource) *CRMStore {
	return &CRMStore{client: client, token: token}
}

// GetHighlights implements repositories.CRMStore
func (s *CRMStore) GetHighlights(ctx context.Context, email string) (entities.HighlightSet, error) {
	token, err := s.token(ctx)
	if err != nil {
		return entities.HighlightSet{}, err
	}
	return s.client.GetHighlights(ctx, token, email)
}

// SaveHighlights implements repositories.CRMStore
func (s *CRMStore) SaveHighlights(ctx context.Context, email string, h entities.HighlightSet) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}
	return s.client.SaveHighlights(ctx, token, email, h)
}

// SaveSentiment implements repositories.CRMStore
func (s *CRMStore) SaveSentiment(ctx context.Context, email string, r entities.SentimentRecord) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}
	return s.client.SaveSentiment(ctx, token, email, r)
}

func asStatus(err error, target **StatusError) bool {
	return errors.As(err, target)
}
